package gorm

import (
	"time"

	"github.com/marmos91/lotpurge/pkg/lotman"
)

// lotModel is the persisted form of a lot. Parents and paths are small and
// always read with the lot, so they are stored as JSON columns.
type lotModel struct {
	Name            string           `gorm:"primaryKey;size:255"`
	Owner           string           `gorm:"size:255"`
	Parents         []string         `gorm:"serializer:json"`
	Paths           []lotman.LotPath `gorm:"serializer:json"`
	DedicatedGB     float64          `gorm:"column:dedicated_gb"`
	OpportunisticGB float64          `gorm:"column:opportunistic_gb"`
	MaxNumObjects   int64
	CreationTime    int64
	ExpirationTime  int64 `gorm:"index"`
	DeletionTime    int64 `gorm:"index"`
	SelfGB          float64 `gorm:"column:self_gb"`
	UsageUpdatedAt  int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for lotModel.
func (lotModel) TableName() string {
	return "lots"
}

// contextModel stores authority context values.
type contextModel struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for contextModel.
func (contextModel) TableName() string {
	return "lot_context"
}

func allModels() []any {
	return []any{&lotModel{}, &contextModel{}}
}

func toModel(l *lotman.Lot) *lotModel {
	return &lotModel{
		Name:            l.Name,
		Owner:           l.Owner,
		Parents:         append([]string(nil), l.Parents...),
		Paths:           append([]lotman.LotPath(nil), l.Paths...),
		DedicatedGB:     l.MPA.DedicatedGB,
		OpportunisticGB: l.MPA.OpportunisticGB,
		MaxNumObjects:   l.MPA.MaxNumObjects,
		CreationTime:    l.MPA.CreationTime,
		ExpirationTime:  l.MPA.ExpirationTime,
		DeletionTime:    l.MPA.DeletionTime,
		SelfGB:          l.Usage.SelfGB,
		UsageUpdatedAt:  l.Usage.UpdatedAt,
	}
}

func (m *lotModel) toLot() *lotman.Lot {
	return &lotman.Lot{
		Name:    m.Name,
		Owner:   m.Owner,
		Parents: m.Parents,
		Paths:   m.Paths,
		MPA: lotman.ManagementPolicyAttrs{
			DedicatedGB:     m.DedicatedGB,
			OpportunisticGB: m.OpportunisticGB,
			MaxNumObjects:   m.MaxNumObjects,
			CreationTime:    m.CreationTime,
			ExpirationTime:  m.ExpirationTime,
			DeletionTime:    m.DeletionTime,
		},
		Usage: lotman.LotUsage{
			SelfGB:    m.SelfGB,
			UpdatedAt: m.UsageUpdatedAt,
		},
	}
}
