// Package gorm provides a lotman.Store backed by SQLite or PostgreSQL.
//
// SQLite suits a single planner next to its cache; PostgreSQL lets several
// planners (or an operator's tooling) share one lot database.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	gormdb "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// Store implements lotman.Store using GORM.
type Store struct {
	db     *gormdb.DB
	config *Config
}

var _ lotman.Store = (*Store)(nil)

// New opens the configured database and creates the schema via AutoMigrate.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gormdb.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if config.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// WAL lets API readers proceed while a purge cycle writes usage.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gormdb.Open(dialector, &gormdb.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch config.Type {
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	case DatabaseTypeSQLite:
		// A single connection keeps ":memory:" databases alive and avoids
		// SQLITE_BUSY between our own writers.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}

	return &Store{db: db, config: config}, nil
}

// DB returns the underlying GORM database connection.
func (s *Store) DB() *gormdb.DB {
	return s.db
}

// ============================================
// LOT OPERATIONS
// ============================================

func (s *Store) CreateLot(ctx context.Context, lot *lotman.Lot) error {
	if err := s.db.WithContext(ctx).Create(toModel(lot)).Error; err != nil {
		if isUniqueConstraintError(err) {
			return lotman.ErrDuplicateLot
		}
		return err
	}
	return nil
}

func (s *Store) GetLot(ctx context.Context, name string) (*lotman.Lot, error) {
	var m lotModel
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		return nil, convertNotFoundError(err, lotman.ErrLotNotFound)
	}
	return m.toLot(), nil
}

func (s *Store) DeleteLot(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&lotModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return lotman.ErrLotNotFound
	}
	return nil
}

func (s *Store) ListLots(ctx context.Context) ([]*lotman.Lot, error) {
	var models []lotModel
	if err := s.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}

	lots := make([]*lotman.Lot, 0, len(models))
	for i := range models {
		lots = append(lots, models[i].toLot())
	}
	return lots, nil
}

// ============================================
// USAGE OPERATIONS
// ============================================

func (s *Store) ApplyUsage(ctx context.Context, usage map[string]lotman.LotUsage, reset bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gormdb.DB) error {
		if reset {
			if err := tx.Model(&lotModel{}).Where("1 = 1").Updates(map[string]any{
				"self_gb":          0,
				"usage_updated_at": 0,
			}).Error; err != nil {
				return fmt.Errorf("failed to reset usage: %w", err)
			}
		}

		for name, u := range usage {
			if err := tx.Model(&lotModel{}).Where("name = ?", name).Updates(map[string]any{
				"self_gb":          u.SelfGB,
				"usage_updated_at": u.UpdatedAt,
			}).Error; err != nil {
				return fmt.Errorf("failed to update usage of lot %q: %w", name, err)
			}
		}
		return nil
	})
}

// ============================================
// CONTEXT OPERATIONS
// ============================================

func (s *Store) GetContextValue(ctx context.Context, key string) (string, error) {
	var m contextModel
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&m).Error; err != nil {
		return "", convertNotFoundError(err, lotman.ErrContextKeyNotFound)
	}
	return m.Value, nil
}

func (s *Store) SetContextValue(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Save(&contextModel{Key: key, Value: value}).Error
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite or PostgreSQL unique constraint errors
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// convertNotFoundError converts gorm.ErrRecordNotFound to the appropriate domain error.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gormdb.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}
