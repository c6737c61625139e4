package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/routebeta/cotations/internal/model"
)

// SQLiteStore backs local setups and tests with a file database.
type SQLiteStore struct {
	DataStore
	Config model.DatabaseConfig
}

// Open opens the sqlite database file. Unlike postgres the schema is owned
// by this tool here, so the route table is migrated into place.
func (s *SQLiteStore) Open() error {
	if s.Config.Path == "" {
		return fmt.Errorf("sqlite database path not configured")
	}

	db, err := gorm.Open(sqlite.Open(s.Config.Path), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return fmt.Errorf("opening sqlite database %s: %w", s.Config.Path, err)
	}

	if err := db.AutoMigrate(&model.Route{}); err != nil {
		return fmt.Errorf("migrating route table: %w", err)
	}

	s.DB = db
	return nil
}

// CotationsColumn reads the declared type of route.ai_cotations from the
// sqlite table metadata.
func (s *SQLiteStore) CotationsColumn(ctx context.Context) (ColumnInfo, error) {
	var columns []struct {
		Name string `gorm:"column:name"`
		Type string `gorm:"column:type"`
	}
	if err := s.DB.WithContext(ctx).Raw("PRAGMA table_info('route')").Scan(&columns).Error; err != nil {
		return ColumnInfo{}, fmt.Errorf("inspecting route table: %w", err)
	}

	for _, col := range columns {
		if col.Name == "ai_cotations" {
			return ColumnInfo{DataType: strings.ToLower(col.Type)}, nil
		}
	}
	return ColumnInfo{}, ErrColumnNotFound
}
