package config

import (
	"fmt"

	"github.com/marmos91/lotpurge/internal/logger"
	"github.com/marmos91/lotpurge/pkg/lotman"
	badgerstore "github.com/marmos91/lotpurge/pkg/lotman/store/badger"
	gormstore "github.com/marmos91/lotpurge/pkg/lotman/store/gorm"
	"github.com/marmos91/lotpurge/pkg/lotman/store/memory"
)

// CreateLotStore opens the lot store selected by the database section.
func CreateLotStore(cfg DatabaseConfig) (lotman.Store, error) {
	logger.Debug("Opening lot store", "type", cfg.Type)

	switch cfg.Type {
	case DatabaseMemory:
		return memory.New(), nil
	case DatabaseSQLite, DatabasePostgres:
		store, err := gormstore.New(cfg.gormConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open %s lot store: %w", cfg.Type, err)
		}
		return store, nil
	case DatabaseBadger:
		store, err := badgerstore.New(cfg.Badger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger lot store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database type: %q", cfg.Type)
	}
}
