package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/datatypes"

	"github.com/routebeta/cotations/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s := &SQLiteStore{Config: model.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "routes.db"),
	}}
	if err := s.Open(); err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedRoutes(t *testing.T, s *SQLiteStore, routes ...model.Route) {
	t.Helper()

	for i := range routes {
		if err := s.DB.Create(&routes[i]).Error; err != nil {
			t.Fatalf("Failed to seed route %d: %v", routes[i].ID, err)
		}
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	s, err := New(model.DatabaseConfig{Driver: "sqlite", Path: "x.db"})
	if err != nil {
		t.Fatalf("Expected no error for sqlite driver, got %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Expected *SQLiteStore for sqlite driver, got %T", s)
	}

	s, err = New(model.DatabaseConfig{Driver: "postgres"})
	if err != nil {
		t.Fatalf("Expected no error for postgres driver, got %v", err)
	}
	if _, ok := s.(*PostgresStore); !ok {
		t.Errorf("Expected *PostgresStore for postgres driver, got %T", s)
	}

	// Empty driver defaults to postgres, the production backend.
	s, err = New(model.DatabaseConfig{})
	if err != nil {
		t.Fatalf("Expected no error for empty driver, got %v", err)
	}
	if _, ok := s.(*PostgresStore); !ok {
		t.Errorf("Expected *PostgresStore for empty driver, got %T", s)
	}

	if _, err := New(model.DatabaseConfig{Driver: "mongodb"}); err == nil {
		t.Error("Expected error for unsupported driver, got nil")
	}
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	s := &SQLiteStore{Config: model.DatabaseConfig{Driver: "sqlite"}}
	if err := s.Open(); err == nil {
		t.Error("Expected error when sqlite path is not configured, got nil")
	}
}

func TestGetRoute(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s, model.Route{
		ID:          7,
		Description: datatypes.JSON(`{"fr":"Belle voie en 6a"}`),
		Activities:  datatypes.JSON(`["rock_climbing"]`),
		Status:      "1",
	})

	route, err := s.GetRoute(context.Background(), 7)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if route.ID != 7 {
		t.Errorf("Expected route ID 7, got %d", route.ID)
	}
	if route.Status != "1" {
		t.Errorf("Expected status '1', got %q", route.Status)
	}
	if string(route.Description) != `{"fr":"Belle voie en 6a"}` {
		t.Errorf("Unexpected description: %s", route.Description)
	}
}

func TestGetRoute_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRoute(context.Background(), 999)
	if err == nil {
		t.Fatal("Expected error for missing route, got nil")
	}
	if !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}
}

func TestListLive(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s,
		model.Route{ID: 3, Status: "1"},
		model.Route{ID: 1, Status: "1"},
		model.Route{ID: 2, Status: "0"},
		model.Route{ID: 4, Status: "2"},
	)

	routes, err := s.ListLive(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("Expected 2 live routes, got %d", len(routes))
	}
	if routes[0].ID != 1 || routes[1].ID != 3 {
		t.Errorf("Expected routes ordered by id [1 3], got [%d %d]", routes[0].ID, routes[1].ID)
	}
}

func TestListAll(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s,
		model.Route{ID: 2, Status: "0"},
		model.Route{ID: 1, Status: "1"},
	)

	routes, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(routes))
	}
	if routes[0].ID != 1 {
		t.Errorf("Expected routes ordered by id, got first id %d", routes[0].ID)
	}
}

func TestListLiveMissing(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s,
		// Already extracted: excluded.
		model.Route{ID: 1, Status: "1", AiCotations: datatypes.JSON(`{"ambiguous":false,"cotations":[{"grade":"6a","count":2}]}`)},
		// Empty-object sentinel counts as missing.
		model.Route{ID: 2, Status: "1", AiCotations: datatypes.JSON(`{}`)},
		// NULL column counts as missing.
		model.Route{ID: 3, Status: "1"},
		// Not live: excluded even without data.
		model.Route{ID: 4, Status: "0"},
		// Inconclusive result stays retriable.
		model.Route{ID: 5, Status: "1", AiCotations: datatypes.JSON(`{"ambiguous":true,"cotations":[]}`)},
	)

	routes, err := s.ListLiveMissing(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("Expected 3 missing routes, got %d", len(routes))
	}
	ids := []int64{routes[0].ID, routes[1].ID, routes[2].ID}
	if ids[0] != 2 || ids[1] != 3 || ids[2] != 5 {
		t.Errorf("Expected missing route ids [2 3 5], got %v", ids)
	}
}

func TestSaveCotations_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s, model.Route{ID: 10, Status: "1"})

	result := model.Result{
		Ambiguous: false,
		Cotations: []model.Cotation{
			{Grade: "6a", Count: 2},
			{Grade: "7a", Count: 1},
		},
	}
	if err := s.SaveCotations(context.Background(), 10, result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	route, err := s.GetRoute(context.Background(), 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !route.HasGradeData() {
		t.Error("Expected route to report grade data after save")
	}

	var stored model.Result
	if err := json.Unmarshal(route.AiCotations, &stored); err != nil {
		t.Fatalf("Failed to decode stored cotations: %v", err)
	}
	if stored.Ambiguous {
		t.Error("Expected ambiguous=false in stored result")
	}
	if len(stored.Cotations) != 2 {
		t.Fatalf("Expected 2 stored cotations, got %d", len(stored.Cotations))
	}
	if stored.Cotations[0].Grade != "6a" || stored.Cotations[0].Count != 2 {
		t.Errorf("Unexpected first cotation: %+v", stored.Cotations[0])
	}
	if stored.Cotations[1].Grade != "7a" || stored.Cotations[1].Count != 1 {
		t.Errorf("Unexpected second cotation: %+v", stored.Cotations[1])
	}
}

func TestSaveCotations_MissingRoute(t *testing.T) {
	s := openTestStore(t)

	err := s.SaveCotations(context.Background(), 123, model.Inconclusive())
	if err == nil {
		t.Fatal("Expected error for missing route, got nil")
	}
	if !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got %v", err)
	}
}

func TestSaveCotations_InconclusiveStaysRetriable(t *testing.T) {
	s := openTestStore(t)
	seedRoutes(t, s, model.Route{ID: 20, Status: "1"})

	if err := s.SaveCotations(context.Background(), 20, model.Inconclusive()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	routes, err := s.ListLiveMissing(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(routes) != 1 || routes[0].ID != 20 {
		t.Errorf("Expected route 20 to stay missing after inconclusive save, got %v", routes)
	}
}

func TestCotationsColumn(t *testing.T) {
	s := openTestStore(t)

	info, err := s.CotationsColumn(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if info.DataType != "jsonb" {
		t.Errorf("Expected data type 'jsonb', got %q", info.DataType)
	}
}

func TestCotationsColumn_Missing(t *testing.T) {
	s := openTestStore(t)

	if err := s.DB.Exec("ALTER TABLE route DROP COLUMN ai_cotations").Error; err != nil {
		t.Fatalf("Failed to drop column: %v", err)
	}

	_, err := s.CotationsColumn(context.Background())
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound, got %v", err)
	}
}
