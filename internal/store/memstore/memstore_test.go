package memstore

import (
	"context"
	"testing"

	"github.com/you/trainctl/internal/store"
)

func TestCreateAssignsID(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec, err := s.Create(ctx, store.Cars, store.Record{"reportingMarks": "ABC"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id, _ := rec["id"].(string)
	if id == "" {
		t.Fatal("expected Create to assign an id")
	}

	found, err := s.FindByID(ctx, store.Cars, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found["reportingMarks"] != "ABC" {
		t.Errorf("reportingMarks = %v, want ABC", found["reportingMarks"])
	}
}

func TestCreatePreservesSuppliedID(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec, err := s.Create(ctx, store.Cars, store.Record{"id": "seed-1", "reportingMarks": "XYZ"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec["id"] != "seed-1" {
		t.Fatalf("id = %v, want seed-1", rec["id"])
	}
}

func TestUpdateMerges(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, _ := s.Create(ctx, store.Cars, store.Record{"reportingMarks": "ABC", "isInService": true})
	id := created["id"].(string)

	updated, err := s.Update(ctx, store.Cars, id, store.Record{"isInService": false})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated["isInService"] != false {
		t.Errorf("isInService = %v, want false", updated["isInService"])
	}
	if updated["reportingMarks"] != "ABC" {
		t.Errorf("reportingMarks should survive merge, got %v", updated["reportingMarks"])
	}
}

func TestUpdateMissingReturnsNil(t *testing.T) {
	s := New()
	rec, err := s.Update(context.Background(), store.Cars, "missing", store.Record{"x": 1})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil for missing record, got %v", rec)
	}
}

func TestFindByQueryMatchesIntAcrossJSONFloat(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Create(ctx, store.CarOrders, store.Record{"sessionNumber": float64(3), "status": "pending"})
	s.Create(ctx, store.CarOrders, store.Record{"sessionNumber": float64(4), "status": "pending"})

	results, err := s.FindByQuery(ctx, store.CarOrders, store.Query{"sessionNumber": 3})
	if err != nil {
		t.Fatalf("FindByQuery: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestDeleteAndClearCollection(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, _ := s.Create(ctx, store.Trains, store.Record{"name": "T1"})
	id := created["id"].(string)

	n, err := s.Delete(ctx, store.Trains, id)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	n, err = s.Delete(ctx, store.Trains, id)
	if err != nil || n != 0 {
		t.Fatalf("second Delete: n=%d err=%v", n, err)
	}

	s.Create(ctx, store.Trains, store.Record{"name": "T2"})
	s.Create(ctx, store.Trains, store.Record{"name": "T3"})
	cleared, err := s.ClearCollection(ctx, store.Trains)
	if err != nil || cleared != 2 {
		t.Fatalf("ClearCollection: cleared=%d err=%v", cleared, err)
	}
	all, _ := s.FindAll(ctx, store.Trains)
	if len(all) != 0 {
		t.Fatalf("expected empty collection after clear, got %d", len(all))
	}
}

func TestCloneIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, _ := s.Create(ctx, store.Cars, store.Record{"reportingMarks": "ABC"})
	created["reportingMarks"] = "MUTATED"

	fresh, _ := s.FindByID(ctx, store.Cars, created["id"].(string))
	if fresh["reportingMarks"] != "ABC" {
		t.Fatalf("mutating the caller's copy must not affect the store, got %v", fresh["reportingMarks"])
	}
}
