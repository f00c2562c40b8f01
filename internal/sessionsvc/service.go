// Package sessionsvc implements SessionService (spec §4.1): the single
// source of truth for "what session number are we in" and atomic
// advance/rollback of world state.
package sessionsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/store"
)

// Service is SessionService. The zero value is not usable; use New.
type Service struct {
	store store.Store
}

// New returns a Service backed by s.
func New(s store.Store) *Service {
	return &Service{store: s}
}

// AdvanceStats is the stats block advanceSession returns (spec §4.1).
type AdvanceStats struct {
	CarsUpdated       int `json:"carsUpdated"`
	TrainsDeleted     int `json:"trainsDeleted"`
	CarsReverted      int `json:"carsReverted"`
	AdvancedToSession int `json:"advancedToSession"`
}

// RollbackStats is the stats block rollbackSession returns (spec §4.1).
type RollbackStats struct {
	CarsRestored        int `json:"carsRestored"`
	TrainsRestored      int `json:"trainsRestored"`
	OrdersRestored      int `json:"ordersRestored"`
	RolledBackToSession int `json:"rolledBackToSession"`
}

func findSingleton(ctx context.Context, s store.Store) (*model.OperatingSession, error) {
	recs, err := s.FindAll(ctx, store.OperatingSessions)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load session singleton", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	var sess model.OperatingSession
	if err := store.FromRecord(recs[0], &sess); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode session singleton", err)
	}
	return &sess, nil
}

// GetCurrentSession returns the singleton session, lazily creating it on
// first call with currentSessionNumber=1 (spec §4.1).
func (svc *Service) GetCurrentSession(ctx context.Context) (*model.OperatingSession, error) {
	existing, err := findSingleton(ctx, svc.store)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	sess := model.OperatingSession{
		CurrentSessionNumber: 1,
		SessionDate:          time.Now().UTC(),
		Description:          "",
	}
	rec, err := store.ToRecord(sess)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "encode new session", err)
	}
	created, err := svc.store.Create(ctx, store.OperatingSessions, rec)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "create session singleton", err)
	}
	var out model.OperatingSession
	if err := store.FromRecord(created, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode created session", err)
	}
	return &out, nil
}

// UpdateSessionDescription validates and persists a new description.
func (svc *Service) UpdateSessionDescription(ctx context.Context, description string) (*model.OperatingSession, error) {
	if err := model.ValidateDescription(description); err != nil {
		return nil, err
	}
	sess, err := svc.GetCurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := svc.store.Update(ctx, store.OperatingSessions, sess.ID, store.Record{"description": description})
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "update session description", err)
	}
	var out model.OperatingSession
	if err := store.FromRecord(rec, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode updated session", err)
	}
	return &out, nil
}

func loadCars(ctx context.Context, s store.Store) ([]model.Car, error) {
	recs, err := s.FindAll(ctx, store.Cars)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load cars", err)
	}
	return store.FromRecords[model.Car](recs)
}

func loadTrains(ctx context.Context, s store.Store) ([]model.Train, error) {
	recs, err := s.FindAll(ctx, store.Trains)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load trains", err)
	}
	return store.FromRecords[model.Train](recs)
}

func loadCarOrders(ctx context.Context, s store.Store) ([]model.CarOrder, error) {
	recs, err := s.FindAll(ctx, store.CarOrders)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load car orders", err)
	}
	return store.FromRecords[model.CarOrder](recs)
}

// AdvanceSession runs the spec §4.1 advance algorithm: validate-then-write,
// snapshot capture first, singleton update last.
func (svc *Service) AdvanceSession(ctx context.Context, description string) (*model.OperatingSession, AdvanceStats, error) {
	var stats AdvanceStats

	sess, err := svc.GetCurrentSession(ctx)
	if err != nil {
		return nil, stats, err
	}

	cars, err := loadCars(ctx, svc.store)
	if err != nil {
		return nil, stats, err
	}
	trains, err := loadTrains(ctx, svc.store)
	if err != nil {
		return nil, stats, err
	}
	orders, err := loadCarOrders(ctx, svc.store)
	if err != nil {
		return nil, stats, err
	}

	snap := model.Snapshot{
		SessionNumber: sess.CurrentSessionNumber,
		Cars:          make([]model.CarSnapshotEntry, 0, len(cars)),
		Trains:        trains,
		CarOrders:     orders,
	}
	preAdvanceLocation := make(map[string]string, len(cars))
	for _, c := range cars {
		snap.Cars = append(snap.Cars, model.CarSnapshotEntry{
			ID:                        c.ID,
			CurrentIndustry:           c.CurrentIndustry,
			SessionsAtCurrentLocation: c.SessionsAtCurrentLocation,
		})
		preAdvanceLocation[c.ID] = c.CurrentIndustry
	}

	// Validate before any write (spec §4.1: "A SnapshotInvalid during
	// advance leaves the world untouched").
	if err := snap.Validate(); err != nil {
		return nil, stats, err
	}

	// 3. increment every car's counter.
	for _, c := range cars {
		_, err := svc.store.Update(ctx, store.Cars, c.ID, store.Record{
			"sessionsAtCurrentLocation": c.SessionsAtCurrentLocation + 1,
		})
		if err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "increment car counter", err)
		}
		stats.CarsUpdated++
	}

	// 4. delete every Completed train.
	for _, t := range trains {
		if t.Status == model.TrainCompleted {
			if _, err := svc.store.Delete(ctx, store.Trains, t.ID); err != nil {
				return nil, stats, model.WrapError(model.KindStoreError, "delete completed train", err)
			}
			stats.TrainsDeleted++
		}
	}

	// 5. unwind In Progress trains' assigned cars to their pre-advance
	// location, without touching the train record itself (open question
	// #1 in DESIGN.md: switch list is left intact).
	for _, t := range trains {
		if t.Status != model.TrainInProgress {
			continue
		}
		for _, carID := range t.AssignedCarIDs {
			loc, ok := preAdvanceLocation[carID]
			if !ok {
				continue
			}
			_, err := svc.store.Update(ctx, store.Cars, carID, store.Record{
				"currentIndustry":           loc,
				"sessionsAtCurrentLocation": 0,
			})
			if err != nil {
				return nil, stats, model.WrapError(model.KindStoreError, "revert in-flight car", err)
			}
			stats.CarsReverted++
		}
	}

	// 6. write the singleton last.
	if description == "" {
		description = fmt.Sprintf("Operating session %d", sess.CurrentSessionNumber+1)
	}
	patch := store.Record{
		"currentSessionNumber":    sess.CurrentSessionNumber + 1,
		"sessionDate":             time.Now().UTC(),
		"description":             description,
		"previousSessionSnapshot": snap,
	}
	updated, err := svc.store.Update(ctx, store.OperatingSessions, sess.ID, patch)
	if err != nil {
		return nil, stats, model.WrapError(model.KindStoreError, "update session singleton", err)
	}
	stats.AdvancedToSession = sess.CurrentSessionNumber + 1

	var out model.OperatingSession
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, stats, model.WrapError(model.KindStoreError, "decode advanced session", err)
	}
	return &out, stats, nil
}

// RollbackSession runs the spec §4.1 rollback algorithm.
func (svc *Service) RollbackSession(ctx context.Context, description string) (*model.OperatingSession, RollbackStats, error) {
	var stats RollbackStats

	sess, err := svc.GetCurrentSession(ctx)
	if err != nil {
		return nil, stats, err
	}
	if sess.CurrentSessionNumber <= 1 {
		return nil, stats, model.NewError(model.KindCannotRollback, "already at session 1")
	}
	if sess.PreviousSessionSnapshot == nil {
		return nil, stats, model.NewError(model.KindCannotRollback, "no snapshot to roll back to")
	}
	snap := sess.PreviousSessionSnapshot
	if err := snap.Validate(); err != nil {
		return nil, stats, err
	}

	// 3. restore every car.
	for _, entry := range snap.Cars {
		_, err := svc.store.Update(ctx, store.Cars, entry.ID, store.Record{
			"currentIndustry":           entry.CurrentIndustry,
			"sessionsAtCurrentLocation": entry.SessionsAtCurrentLocation,
		})
		if err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "restore car", err)
		}
		stats.CarsRestored++
	}

	// 4. delete all live trains, re-create every train from the snapshot.
	liveTrains, err := loadTrains(ctx, svc.store)
	if err != nil {
		return nil, stats, err
	}
	for _, t := range liveTrains {
		if _, err := svc.store.Delete(ctx, store.Trains, t.ID); err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "delete live train", err)
		}
	}
	for _, t := range snap.Trains {
		rec, err := store.ToRecord(t)
		if err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "encode snapshot train", err)
		}
		if _, err := svc.store.Create(ctx, store.Trains, rec); err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "recreate train", err)
		}
		stats.TrainsRestored++
	}

	// 5. delete all live car orders, re-create from the snapshot.
	liveOrders, err := loadCarOrders(ctx, svc.store)
	if err != nil {
		return nil, stats, err
	}
	for _, o := range liveOrders {
		if _, err := svc.store.Delete(ctx, store.CarOrders, o.ID); err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "delete live car order", err)
		}
	}
	for _, o := range snap.CarOrders {
		rec, err := store.ToRecord(o)
		if err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "encode snapshot order", err)
		}
		if _, err := svc.store.Create(ctx, store.CarOrders, rec); err != nil {
			return nil, stats, model.WrapError(model.KindStoreError, "recreate car order", err)
		}
		stats.OrdersRestored++
	}

	// 6. update singleton.
	if description == "" {
		description = fmt.Sprintf("Rolled back to session %d", sess.CurrentSessionNumber-1)
	}
	patch := store.Record{
		"currentSessionNumber":    sess.CurrentSessionNumber - 1,
		"sessionDate":             time.Now().UTC(),
		"description":             description,
		"previousSessionSnapshot": nil,
	}
	updated, err := svc.store.Update(ctx, store.OperatingSessions, sess.ID, patch)
	if err != nil {
		return nil, stats, model.WrapError(model.KindStoreError, "update session singleton", err)
	}
	stats.RolledBackToSession = sess.CurrentSessionNumber - 1

	var out model.OperatingSession
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, stats, model.WrapError(model.KindStoreError, "decode rolled-back session", err)
	}
	return &out, stats, nil
}
