package sqlitestore

import (
	"context"
	"testing"

	"github.com/you/trainctl/internal/store"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqliteStoreCRUD(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	created, err := s.Create(ctx, store.Cars, store.Record{"reportingMarks": "ABC", "isInService": true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected an assigned id")
	}

	found, err := s.FindByID(ctx, store.Cars, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found["reportingMarks"] != "ABC" {
		t.Errorf("reportingMarks = %v, want ABC", found["reportingMarks"])
	}

	updated, err := s.Update(ctx, store.Cars, id, store.Record{"isInService": false})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated["isInService"] != false {
		t.Errorf("isInService = %v, want false", updated["isInService"])
	}

	n, err := s.Delete(ctx, store.Cars, id)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}

	missing, err := s.FindByID(ctx, store.Cars, id)
	if err != nil {
		t.Fatalf("FindByID after delete: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil after delete, got %v", missing)
	}
}

func TestSqliteStoreFindByQuery(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	s.Create(ctx, store.CarOrders, store.Record{"status": "pending", "sessionNumber": float64(1)})
	s.Create(ctx, store.CarOrders, store.Record{"status": "delivered", "sessionNumber": float64(1)})

	results, err := s.FindByQuery(ctx, store.CarOrders, store.Query{"status": "pending"})
	if err != nil {
		t.Fatalf("FindByQuery: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 pending order, got %d", len(results))
	}
}

func TestSqliteStoreClearCollection(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	s.Create(ctx, store.Trains, store.Record{"name": "T1"})
	s.Create(ctx, store.Trains, store.Record{"name": "T2"})

	n, err := s.ClearCollection(ctx, store.Trains)
	if err != nil || n != 2 {
		t.Fatalf("ClearCollection: n=%d err=%v", n, err)
	}
	all, _ := s.FindAll(ctx, store.Trains)
	if len(all) != 0 {
		t.Fatalf("expected empty after clear, got %d", len(all))
	}
}
