// Package trainsvc implements TrainService (spec §4.3): train lifecycle and
// the multi-station switch-list planner.
package trainsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/store"
)

// Service is TrainService. The zero value is not usable; use New.
type Service struct {
	store store.Store
}

// New returns a Service backed by s.
func New(s store.Store) *Service {
	return &Service{store: s}
}

func loadTrain(ctx context.Context, s store.Store, id string) (*model.Train, error) {
	rec, err := s.FindByID(ctx, store.Trains, id)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load train", err)
	}
	if rec == nil {
		return nil, model.NewError(model.KindNotFound, "train not found", id)
	}
	var t model.Train
	if err := store.FromRecord(rec, &t); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode train", err)
	}
	return &t, nil
}

func loadAllTrains(ctx context.Context, s store.Store) ([]model.Train, error) {
	recs, err := s.FindAll(ctx, store.Trains)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load trains", err)
	}
	return store.FromRecords[model.Train](recs)
}

func loadRoute(ctx context.Context, s store.Store, id string) (*model.Route, error) {
	rec, err := s.FindByID(ctx, store.Routes, id)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load route", err)
	}
	if rec == nil {
		return nil, model.NewError(model.KindNotFound, "route not found", id)
	}
	var r model.Route
	if err := store.FromRecord(rec, &r); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode route", err)
	}
	return &r, nil
}

func loadLocomotive(ctx context.Context, s store.Store, id string) (*model.Locomotive, error) {
	rec, err := s.FindByID(ctx, store.Locomotives, id)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load locomotive", err)
	}
	if rec == nil {
		return nil, model.NewError(model.KindNotFound, "locomotive not found", id)
	}
	var l model.Locomotive
	if err := store.FromRecord(rec, &l); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode locomotive", err)
	}
	return &l, nil
}

// CreateTrainInput is createTrain's input DTO.
type CreateTrainInput struct {
	Name          string
	RouteID       string
	SessionNumber int `default:"1"`
	LocomotiveIDs []string
	MaxCapacity   int `default:"10"`
}

func (svc *Service) resolveTrainRefs(ctx context.Context, routeID string, locomotiveIDs []string) error {
	if _, err := loadRoute(ctx, svc.store, routeID); err != nil {
		return err
	}
	for _, locID := range locomotiveIDs {
		loco, err := loadLocomotive(ctx, svc.store, locID)
		if err != nil {
			return err
		}
		if !loco.IsInService {
			return model.NewError(model.KindPreconditionFailed, "locomotive is not in service", locID)
		}
	}
	return nil
}

// CreateTrain resolves route and locomotives, asserts in-service and
// non-conflict, and persists in status Planned.
func (svc *Service) CreateTrain(ctx context.Context, in CreateTrainInput) (*model.Train, error) {
	if err := defaults.Set(&in); err != nil {
		return nil, model.WrapError(model.KindInvalidArgument, "apply defaults", err)
	}
	if err := svc.resolveTrainRefs(ctx, in.RouteID, in.LocomotiveIDs); err != nil {
		return nil, err
	}

	trains, err := loadAllTrains(ctx, svc.store)
	if err != nil {
		return nil, err
	}

	train := model.Train{
		Name:           in.Name,
		RouteID:        in.RouteID,
		SessionNumber:  in.SessionNumber,
		Status:         model.TrainPlanned,
		LocomotiveIDs:  in.LocomotiveIDs,
		MaxCapacity:    in.MaxCapacity,
		AssignedCarIDs: []string{},
	}
	deps := model.TrainDeps{
		NameTaken: func(name string, sessionNumber int, selfID string) bool {
			return model.TrainNameTaken(trains, name, sessionNumber, selfID)
		},
		LocomotiveActiveElsewhere: func(locomotiveID, selfID string) bool {
			return model.LocomotiveActiveElsewhere(trains, locomotiveID, selfID)
		},
	}
	if err := train.Validate(deps, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	train.CreatedAt = now
	train.UpdatedAt = now
	rec, err := store.ToRecord(train)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "encode train", err)
	}
	created, err := svc.store.Create(ctx, store.Trains, rec)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "create train", err)
	}
	var out model.Train
	if err := store.FromRecord(created, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode created train", err)
	}
	return &out, nil
}

// UpdateTrainInput carries only fields an update may change.
type UpdateTrainInput struct {
	Name          *string
	RouteID       *string
	LocomotiveIDs []string
	MaxCapacity   *int
}

// UpdateTrain is only allowed while the train is Planned.
func (svc *Service) UpdateTrain(ctx context.Context, id string, in UpdateTrainInput) (*model.Train, error) {
	existing, err := loadTrain(ctx, svc.store, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.TrainPlanned {
		return nil, model.NewError(model.KindImmutableInState, "train can only be edited while Planned", id)
	}

	candidate := *existing
	if in.Name != nil {
		candidate.Name = *in.Name
	}
	if in.RouteID != nil {
		candidate.RouteID = *in.RouteID
	}
	if in.LocomotiveIDs != nil {
		candidate.LocomotiveIDs = in.LocomotiveIDs
	}
	if in.MaxCapacity != nil {
		candidate.MaxCapacity = *in.MaxCapacity
	}

	if err := svc.resolveTrainRefs(ctx, candidate.RouteID, candidate.LocomotiveIDs); err != nil {
		return nil, err
	}
	trains, err := loadAllTrains(ctx, svc.store)
	if err != nil {
		return nil, err
	}
	deps := model.TrainDeps{
		NameTaken: func(name string, sessionNumber int, selfID string) bool {
			return model.TrainNameTaken(trains, name, sessionNumber, selfID)
		},
		LocomotiveActiveElsewhere: func(locomotiveID, selfID string) bool {
			return model.LocomotiveActiveElsewhere(trains, locomotiveID, selfID)
		},
	}
	if err := candidate.Validate(deps, id); err != nil {
		return nil, err
	}

	patch := store.Record{
		"name":          candidate.Name,
		"routeId":       candidate.RouteID,
		"locomotiveIds": candidate.LocomotiveIDs,
		"maxCapacity":   candidate.MaxCapacity,
		"updatedAt":     time.Now().UTC(),
	}
	updated, err := svc.store.Update(ctx, store.Trains, id, patch)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "update train", err)
	}
	var out model.Train
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode updated train", err)
	}
	return &out, nil
}

// DeleteTrain is only allowed while the train is Planned.
func (svc *Service) DeleteTrain(ctx context.Context, id string) error {
	existing, err := loadTrain(ctx, svc.store, id)
	if err != nil {
		return err
	}
	if existing.Status != model.TrainPlanned {
		return model.NewError(model.KindImmutableInState, "train can only be deleted while Planned", id)
	}
	if _, err := svc.store.Delete(ctx, store.Trains, id); err != nil {
		return model.WrapError(model.KindStoreError, "delete train", err)
	}
	return nil
}

type orderUpdate struct {
	orderID string
	carID   string
}

// GenerateSwitchList runs the multi-station planning algorithm (spec §4.3)
// and transitions the train Planned -> In Progress.
func (svc *Service) GenerateSwitchList(ctx context.Context, trainID string) (*model.Train, error) {
	train, err := loadTrain(ctx, svc.store, trainID)
	if err != nil {
		return nil, err
	}
	if train.Status != model.TrainPlanned {
		return nil, model.NewError(model.KindPreconditionFailed, "train must be Planned to generate a switch list", trainID)
	}

	route, err := loadRoute(ctx, svc.store, train.RouteID)
	if err != nil {
		return nil, model.NewError(model.KindPreconditionFailed, "route does not exist", train.RouteID)
	}
	for _, locID := range train.LocomotiveIDs {
		loco, err := loadLocomotive(ctx, svc.store, locID)
		if err != nil {
			return nil, model.NewError(model.KindPreconditionFailed, "locomotive does not exist", locID)
		}
		if !loco.IsInService {
			return nil, model.NewError(model.KindPreconditionFailed, "locomotive is not in service", locID)
		}
	}

	originInd, ok, err := findIndustry(ctx, svc.store, route.OriginYard)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewError(model.KindPreconditionFailed, "route originYard does not exist", route.OriginYard)
	}
	termInd, ok, err := findIndustry(ctx, svc.store, route.TerminationYard)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewError(model.KindPreconditionFailed, "route terminationYard does not exist", route.TerminationYard)
	}

	stationSeq := route.FullStationSequence(originInd.StationID, termInd.StationID)

	stationRecs, err := svc.store.FindAll(ctx, store.Stations)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load stations", err)
	}
	stationsByID := make(map[string]model.Station, len(stationRecs))
	for _, rec := range stationRecs {
		var st model.Station
		if err := store.FromRecord(rec, &st); err != nil {
			return nil, model.WrapError(model.KindStoreError, "decode station", err)
		}
		stationsByID[st.ID] = st
	}

	indRecs, err := svc.store.FindAll(ctx, store.Industries)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load industries", err)
	}
	industries, err := store.FromRecords[model.Industry](indRecs)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode industries", err)
	}
	industriesByStation := make(map[string][]model.Industry)
	for _, ind := range industries {
		industriesByStation[ind.StationID] = append(industriesByStation[ind.StationID], ind)
	}

	pendingOrders, err := svc.store.FindByQuery(ctx, store.CarOrders, store.Query{
		"sessionNumber": train.SessionNumber,
		"status":        string(model.OrderPending),
	})
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load pending orders", err)
	}
	orders, err := store.FromRecords[model.CarOrder](pendingOrders)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode pending orders", err)
	}

	carRecs, err := svc.store.FindAll(ctx, store.Cars)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load cars", err)
	}
	allCars, err := store.FromRecords[model.Car](carRecs)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode cars", err)
	}

	resolvedAny := false
	inTransit := 0
	assigned := make([]string, 0)
	assignedSet := make(map[string]bool)
	var updates []orderUpdate
	var stations []model.StationPlan
	totalPickups, totalSetouts := 0, 0

	for _, stationID := range stationSeq {
		station, ok := stationsByID[stationID]
		if !ok {
			continue
		}
		resolvedAny = true

		stationIndustries := industriesByStation[stationID]
		stationIndustrySet := make(map[string]bool, len(stationIndustries))
		for _, ind := range stationIndustries {
			stationIndustrySet[ind.ID] = true
		}

		var stationOrders []model.CarOrder
		for _, o := range orders {
			if stationIndustrySet[o.IndustryID] {
				stationOrders = append(stationOrders, o)
			}
		}

		var stationCars []model.Car
		for _, c := range allCars {
			if c.IsInService && stationIndustrySet[c.CurrentIndustry] {
				stationCars = append(stationCars, c)
			}
		}

		plan := model.StationPlan{StationID: station.ID, StationName: station.Name, Pickups: []model.Pickup{}, Setouts: []model.Setout{}}

		// Pickup pass.
		for oi := range stationOrders {
			order := &stationOrders[oi]
			if len(assigned) >= train.MaxCapacity {
				break
			}
			var match *model.Car
			for ci := range stationCars {
				c := &stationCars[ci]
				if assignedSet[c.ID] {
					continue
				}
				if c.CarType == order.AarTypeID {
					match = c
					break
				}
			}
			if match == nil {
				continue
			}
			orderID := order.ID
			plan.Pickups = append(plan.Pickups, model.Pickup{
				CarID:                 match.ID,
				ReportingMarks:        match.ReportingMarks,
				ReportingNumber:       match.ReportingNumber,
				CarType:               match.CarType,
				DestinationIndustryID: order.IndustryID,
				CarOrderID:            &orderID,
			})
			assignedSet[match.ID] = true
			assigned = append(assigned, match.ID)
			updates = append(updates, orderUpdate{orderID: order.ID, carID: match.ID})
			inTransit++
			totalPickups++
		}

		// Setout pass: a pickup whose destination is itself an industry at
		// this station is immediately reclassified.
		var keptPickups []model.Pickup
		for _, p := range plan.Pickups {
			if stationIndustrySet[p.DestinationIndustryID] {
				plan.Setouts = append(plan.Setouts, model.Setout{
					CarID:                 p.CarID,
					ReportingMarks:        p.ReportingMarks,
					ReportingNumber:       p.ReportingNumber,
					CarType:               p.CarType,
					DestinationIndustryID: p.DestinationIndustryID,
					CarOrderID:            p.CarOrderID,
				})
				inTransit--
				totalPickups--
				totalSetouts++
			} else {
				keptPickups = append(keptPickups, p)
			}
		}
		plan.Pickups = keptPickups

		// Home-yard routing pass.
		for ci := range stationCars {
			if len(assigned) >= train.MaxCapacity {
				break
			}
			c := &stationCars[ci]
			if assignedSet[c.ID] {
				continue
			}
			if c.HomeYard == c.CurrentIndustry {
				continue
			}
			plan.Pickups = append(plan.Pickups, model.Pickup{
				CarID:                 c.ID,
				ReportingMarks:        c.ReportingMarks,
				ReportingNumber:       c.ReportingNumber,
				CarType:               c.CarType,
				DestinationIndustryID: c.HomeYard,
				CarOrderID:            nil,
			})
			assignedSet[c.ID] = true
			assigned = append(assigned, c.ID)
			inTransit++
			totalPickups++
		}

		stations = append(stations, plan)
	}

	if !resolvedAny {
		return nil, model.NewError(model.KindPreconditionFailed, "no station in the route's sequence could be resolved", train.RouteID)
	}

	switchList := model.SwitchList{
		Stations:      stations,
		TotalPickups:  totalPickups,
		TotalSetouts:  totalSetouts,
		FinalCarCount: inTransit,
		GeneratedAt:   time.Now().UTC(),
	}

	now := time.Now().UTC()
	patch := store.Record{
		"switchList":     switchList,
		"assignedCarIds": assigned,
		"status":         model.TrainInProgress,
		"updatedAt":      now,
	}
	updatedRec, err := svc.store.Update(ctx, store.Trains, trainID, patch)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "update train with switch list", err)
	}

	for _, u := range updates {
		_, err := svc.store.Update(ctx, store.CarOrders, u.orderID, store.Record{
			"status":          string(model.OrderAssigned),
			"assignedCarId":   u.carID,
			"assignedTrainId": trainID,
		})
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "update order assignment", err)
		}
	}

	var out model.Train
	if err := store.FromRecord(updatedRec, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode train with switch list", err)
	}
	return &out, nil
}

func findIndustry(ctx context.Context, s store.Store, id string) (*model.Industry, bool, error) {
	rec, err := s.FindByID(ctx, store.Industries, id)
	if err != nil {
		return nil, false, model.WrapError(model.KindStoreError, "load industry", err)
	}
	if rec == nil {
		return nil, false, nil
	}
	var ind model.Industry
	if err := store.FromRecord(rec, &ind); err != nil {
		return nil, false, model.WrapError(model.KindStoreError, "decode industry", err)
	}
	return &ind, true, nil
}

// CompleteTrain requires status In Progress. It moves every setout car to
// its destination, delivers every order the train still holds, then marks
// the train Completed.
func (svc *Service) CompleteTrain(ctx context.Context, trainID string) (*model.Train, error) {
	train, err := loadTrain(ctx, svc.store, trainID)
	if err != nil {
		return nil, err
	}
	if train.Status != model.TrainInProgress {
		return nil, model.NewError(model.KindPreconditionFailed, "train must be In Progress to complete", trainID)
	}

	if train.SwitchList != nil {
		for _, station := range train.SwitchList.Stations {
			for _, setout := range station.Setouts {
				_, err := svc.store.Update(ctx, store.Cars, setout.CarID, store.Record{
					"currentIndustry":           setout.DestinationIndustryID,
					"sessionsAtCurrentLocation": 0,
				})
				if err != nil {
					return nil, model.WrapError(model.KindStoreError, "move setout car", err)
				}
			}
		}
	}

	orderRecs, err := svc.store.FindByQuery(ctx, store.CarOrders, store.Query{"assignedTrainId": trainID})
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load orders assigned to train", err)
	}
	orders, err := store.FromRecords[model.CarOrder](orderRecs)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode orders assigned to train", err)
	}
	for _, o := range orders {
		if o.Status == model.OrderAssigned || o.Status == model.OrderInTransit {
			if _, err := svc.store.Update(ctx, store.CarOrders, o.ID, store.Record{"status": string(model.OrderDelivered)}); err != nil {
				return nil, model.WrapError(model.KindStoreError, "deliver order", err)
			}
		}
	}

	updated, err := svc.store.Update(ctx, store.Trains, trainID, store.Record{
		"status":    model.TrainCompleted,
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "complete train", err)
	}
	var out model.Train
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode completed train", err)
	}
	return &out, nil
}

// CancelTrain fails if the train is already Completed. If In Progress, every
// associated order in assigned/in-transit reverts to pending.
func (svc *Service) CancelTrain(ctx context.Context, trainID string) (*model.Train, error) {
	train, err := loadTrain(ctx, svc.store, trainID)
	if err != nil {
		return nil, err
	}
	if train.Status == model.TrainCompleted {
		return nil, model.NewError(model.KindPreconditionFailed, fmt.Sprintf("train %s is already Completed", trainID), trainID)
	}
	if !model.CanTransitionTrain(train.Status, model.TrainCancelled) {
		return nil, model.NewError(model.KindPreconditionFailed, "train cannot be cancelled from its current status", trainID)
	}

	if train.Status == model.TrainInProgress {
		orderRecs, err := svc.store.FindByQuery(ctx, store.CarOrders, store.Query{"assignedTrainId": trainID})
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "load orders assigned to train", err)
		}
		orders, err := store.FromRecords[model.CarOrder](orderRecs)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "decode orders assigned to train", err)
		}
		for _, o := range orders {
			if o.Status == model.OrderAssigned || o.Status == model.OrderInTransit {
				_, err := svc.store.Update(ctx, store.CarOrders, o.ID, store.Record{
					"status":          string(model.OrderPending),
					"assignedCarId":   nil,
					"assignedTrainId": nil,
				})
				if err != nil {
					return nil, model.WrapError(model.KindStoreError, "revert order to pending", err)
				}
			}
		}
	}

	updated, err := svc.store.Update(ctx, store.Trains, trainID, store.Record{
		"status":    model.TrainCancelled,
		"updatedAt": time.Now().UTC(),
	})
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "cancel train", err)
	}
	var out model.Train
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode cancelled train", err)
	}
	return &out, nil
}
