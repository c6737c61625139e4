package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/routebeta/cotations/internal/model"
)

// PostgresStore talks to the production topo database.
type PostgresStore struct {
	DataStore
	Config model.DatabaseConfig
}

// Open connects to postgres. The route table belongs to the main
// application, so no migration is attempted here.
func (s *PostgresStore) Open() error {
	cfg := s.Config
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}

	s.DB = db
	return nil
}

// CotationsColumn reports the declared type of route.ai_cotations from
// information_schema.
func (s *PostgresStore) CotationsColumn(ctx context.Context) (ColumnInfo, error) {
	var row struct {
		DataType               string `gorm:"column:data_type"`
		UdtName                string `gorm:"column:udt_name"`
		CharacterMaximumLength *int64 `gorm:"column:character_maximum_length"`
	}
	tx := s.DB.WithContext(ctx).Raw(`
		SELECT data_type, udt_name, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = 'route'
		  AND column_name = 'ai_cotations'`).Scan(&row)
	if tx.Error != nil {
		return ColumnInfo{}, fmt.Errorf("inspecting ai_cotations column: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ColumnInfo{}, ErrColumnNotFound
	}

	info := ColumnInfo{DataType: row.DataType, UDTName: row.UdtName}
	if row.CharacterMaximumLength != nil {
		info.MaxLength = *row.CharacterMaximumLength
	}
	return info, nil
}
