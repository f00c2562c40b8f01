package sessionsvc

import (
	"context"
	"testing"

	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/store"
	"github.com/you/trainctl/internal/store/memstore"
)

// toInt tolerates both raw Go ints (stored as-is by memstore literal writes)
// and float64 (what a JSON round-trip would produce).
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// "First boot" scenario (spec §8): the first call to getCurrentSession
// creates the singleton at session 1 with no previous snapshot.
func TestFirstBootCreatesSessionOne(t *testing.T) {
	s := memstore.New()
	svc := New(s)

	sess, err := svc.GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentSession: %v", err)
	}
	if sess.CurrentSessionNumber != 1 {
		t.Fatalf("CurrentSessionNumber = %d, want 1", sess.CurrentSessionNumber)
	}
	if sess.PreviousSessionSnapshot != nil {
		t.Fatalf("expected no snapshot on first boot")
	}

	again, err := svc.GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("second GetCurrentSession: %v", err)
	}
	if again.ID != sess.ID {
		t.Fatalf("second call created a second singleton: %s != %s", again.ID, sess.ID)
	}
}

// "Advance then rollback" scenario (spec §8): advancing then rolling back
// restores cars, trains and orders to their pre-advance shape and session 1.
func TestAdvanceThenRollback(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	svc := New(s)

	if _, err := svc.GetCurrentSession(ctx); err != nil {
		t.Fatalf("GetCurrentSession: %v", err)
	}

	carRec, err := s.Create(ctx, store.Cars, store.Record{
		"reportingMarks":            "ATSF",
		"reportingNumber":           "100",
		"carType":                   "XM",
		"currentIndustry":           "industry-1",
		"isInService":               true,
		"sessionsAtCurrentLocation": 0,
	})
	if err != nil {
		t.Fatalf("create car: %v", err)
	}
	carID := carRec["id"].(string)

	orderRec, err := s.Create(ctx, store.CarOrders, store.Record{
		"industryId":         "industry-1",
		"aarTypeId":          "XM",
		"goodsId":            "lumber",
		"direction":          "inbound",
		"compatibleCarTypes": []string{"XM"},
		"sessionNumber":      1,
		"status":             "pending",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	orderID := orderRec["id"].(string)

	sess, stats, err := svc.AdvanceSession(ctx, "")
	if err != nil {
		t.Fatalf("AdvanceSession: %v", err)
	}
	if sess.CurrentSessionNumber != 2 {
		t.Fatalf("CurrentSessionNumber after advance = %d, want 2", sess.CurrentSessionNumber)
	}
	if stats.CarsUpdated != 1 {
		t.Fatalf("CarsUpdated = %d, want 1", stats.CarsUpdated)
	}

	carAfterAdvance, err := s.FindByID(ctx, store.Cars, carID)
	if err != nil {
		t.Fatalf("find car: %v", err)
	}
	if toInt(carAfterAdvance["sessionsAtCurrentLocation"]) != 1 {
		t.Fatalf("car counter after advance = %v, want 1", carAfterAdvance["sessionsAtCurrentLocation"])
	}

	rolledBack, rstats, err := svc.RollbackSession(ctx, "")
	if err != nil {
		t.Fatalf("RollbackSession: %v", err)
	}
	if rolledBack.CurrentSessionNumber != 1 {
		t.Fatalf("CurrentSessionNumber after rollback = %d, want 1", rolledBack.CurrentSessionNumber)
	}
	if rolledBack.PreviousSessionSnapshot != nil {
		t.Fatalf("expected snapshot cleared after rollback")
	}
	if rstats.CarsRestored != 1 {
		t.Fatalf("CarsRestored = %d, want 1", rstats.CarsRestored)
	}
	if rstats.OrdersRestored != 1 {
		t.Fatalf("OrdersRestored = %d, want 1", rstats.OrdersRestored)
	}

	carAfterRollback, err := s.FindByID(ctx, store.Cars, carID)
	if err != nil {
		t.Fatalf("find car after rollback: %v", err)
	}
	if toInt(carAfterRollback["sessionsAtCurrentLocation"]) != 0 {
		t.Fatalf("car counter after rollback = %v, want 0", carAfterRollback["sessionsAtCurrentLocation"])
	}

	orderAfterRollback, err := s.FindByID(ctx, store.CarOrders, orderID)
	if err != nil {
		t.Fatalf("find order after rollback: %v", err)
	}
	if orderAfterRollback == nil {
		t.Fatalf("order missing after rollback")
	}
}

func TestRollbackAtSessionOneFails(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	svc := New(s)

	if _, err := svc.GetCurrentSession(ctx); err != nil {
		t.Fatalf("GetCurrentSession: %v", err)
	}

	_, _, err := svc.RollbackSession(ctx, "")
	if !model.IsKind(err, model.KindCannotRollback) {
		t.Fatalf("expected KindCannotRollback, got %v", err)
	}
}
