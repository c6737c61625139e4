package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/routebeta/cotations/internal/model"
)

// ErrRouteNotFound is returned when a route id does not exist in the table.
var ErrRouteNotFound = errors.New("route not found")

// ErrColumnNotFound is returned by CotationsColumn when the route table has
// no ai_cotations column.
var ErrColumnNotFound = errors.New("column ai_cotations not found")

// ColumnInfo describes the ai_cotations column as the backend reports it.
type ColumnInfo struct {
	DataType  string // SQL data type, e.g. "jsonb"
	UDTName   string // backend-internal type name, empty when the driver has none
	MaxLength int64  // character maximum length, 0 when not applicable
}

// Interface abstracts the route database so the pipeline can run against
// postgres in production and sqlite in tests and local setups.
type Interface interface {
	Open() error
	Close() error
	GetRoute(ctx context.Context, id int64) (model.Route, error)
	ListLive(ctx context.Context) ([]model.Route, error)
	ListAll(ctx context.Context) ([]model.Route, error)
	ListLiveMissing(ctx context.Context) ([]model.Route, error)
	SaveCotations(ctx context.Context, id int64, result model.Result) error
	CotationsColumn(ctx context.Context) (ColumnInfo, error)
}

// DataStore carries the query logic shared by every backend. Driver-specific
// stores embed it and contribute Open plus schema inspection.
type DataStore struct {
	DB *gorm.DB
}

// New selects a store implementation from the database config. The store is
// not connected yet; call Open before use.
func New(cfg model.DatabaseConfig) (Interface, error) {
	switch cfg.Driver {
	case "postgres", "":
		return &PostgresStore{Config: cfg}, nil
	case "sqlite":
		return &SQLiteStore{Config: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}
}

// Close releases the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("accessing connection pool: %w", err)
	}
	return sqlDB.Close()
}

// GetRoute fetches a single route by id.
func (ds *DataStore) GetRoute(ctx context.Context, id int64) (model.Route, error) {
	var route model.Route
	err := ds.DB.WithContext(ctx).First(&route, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Route{}, fmt.Errorf("route %d: %w", id, ErrRouteNotFound)
	}
	if err != nil {
		return model.Route{}, fmt.Errorf("fetching route %d: %w", id, err)
	}
	return route, nil
}

// ListLive returns every live route, ordered by id so bulk runs and their
// limits are reproducible.
func (ds *DataStore) ListLive(ctx context.Context) ([]model.Route, error) {
	var routes []model.Route
	err := ds.DB.WithContext(ctx).
		Where("status = ?", model.StatusLive).
		Order("id").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("listing live routes: %w", err)
	}
	return routes, nil
}

// ListAll returns the whole route table regardless of status, ordered by id.
func (ds *DataStore) ListAll(ctx context.Context) ([]model.Route, error) {
	var routes []model.Route
	if err := ds.DB.WithContext(ctx).Order("id").Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	return routes, nil
}

// ListLiveMissing returns live routes with no usable grade data yet. The
// sentinel shapes ('', '[]', '{}', ...) are matched in Go via HasGradeData
// rather than in SQL so the same query works on every backend.
func (ds *DataStore) ListLiveMissing(ctx context.Context) ([]model.Route, error) {
	live, err := ds.ListLive(ctx)
	if err != nil {
		return nil, err
	}

	missing := make([]model.Route, 0, len(live))
	for _, r := range live {
		if !r.HasGradeData() {
			missing = append(missing, r)
		}
	}
	return missing, nil
}

// SaveCotations writes the extraction result to the route's ai_cotations
// column.
func (ds *DataStore) SaveCotations(ctx context.Context, id int64, result model.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding cotations for route %d: %w", id, err)
	}

	tx := ds.DB.WithContext(ctx).
		Model(&model.Route{}).
		Where("id = ?", id).
		Update("ai_cotations", datatypes.JSON(payload))
	if tx.Error != nil {
		return fmt.Errorf("updating route %d: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("route %d: %w", id, ErrRouteNotFound)
	}
	return nil
}

// newGormLogger keeps gorm quiet unless a query is slow or fails.
func newGormLogger() gormLogger.Interface {
	return gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
