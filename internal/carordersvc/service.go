// Package carordersvc implements CarOrderService (spec §4.2): demand-driven
// car-order generation, enrichment, and assignment validation.
package carordersvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"golang.org/x/text/cases"

	"github.com/you/trainctl/internal/model"
	"github.com/you/trainctl/internal/store"
)

var caseFold = cases.Fold()

func foldEqualContains(haystack, needle string) bool {
	return strings.Contains(caseFold.String(haystack), caseFold.String(needle))
}

// Service is CarOrderService. The zero value is not usable; use New.
type Service struct {
	store      store.Store
	sessionSvc currentSessionReader
}

// currentSessionReader is the slice of SessionService CarOrderService needs,
// kept narrow so this package doesn't import sessionsvc directly and create
// a cycle-prone dependency between service packages.
type currentSessionReader interface {
	GetCurrentSession(ctx context.Context) (*model.OperatingSession, error)
}

// New returns a Service backed by s, resolving the current session number
// for generateOrders through sessions.
func New(s store.Store, sessions currentSessionReader) *Service {
	return &Service{store: s, sessionSvc: sessions}
}

// Filters is the getOrdersWithFilters input (spec §4.2).
type Filters struct {
	IndustryID    string
	Status        string
	SessionNumber *int
	AarTypeID     string
	Search        string
}

func loadIndustry(ctx context.Context, s store.Store, id string) (*model.Industry, bool, error) {
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

func loadAllOrders(ctx context.Context, s store.Store) ([]model.CarOrder, error) {
	recs, err := s.FindAll(ctx, store.CarOrders)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load car orders", err)
	}
	return store.FromRecords[model.CarOrder](recs)
}

// GetOrdersWithFilters applies every supplied filter and sorts the result by
// createdAt descending.
func (svc *Service) GetOrdersWithFilters(ctx context.Context, f Filters) ([]model.CarOrder, error) {
	orders, err := loadAllOrders(ctx, svc.store)
	if err != nil {
		return nil, err
	}

	industryNames := make(map[string]string)
	if f.Search != "" {
		recs, err := svc.store.FindAll(ctx, store.Industries)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "load industries for search", err)
		}
		inds, err := store.FromRecords[model.Industry](recs)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "decode industries for search", err)
		}
		for _, ind := range inds {
			industryNames[ind.ID] = ind.Name
		}
	}

	out := make([]model.CarOrder, 0, len(orders))
	for _, o := range orders {
		if f.IndustryID != "" && o.IndustryID != f.IndustryID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.SessionNumber != nil && o.SessionNumber != *f.SessionNumber {
			continue
		}
		if f.AarTypeID != "" && o.AarTypeID != f.AarTypeID {
			continue
		}
		if f.Search != "" {
			name := industryNames[o.IndustryID]
			if !foldEqualContains(name, f.Search) && !foldEqualContains(o.AarTypeID, f.Search) {
				continue
			}
		}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// EnrichedOrder is getEnrichedOrder's return shape: the order joined with
// its industry, assigned car, and assigned train.
type EnrichedOrder struct {
	Order    model.CarOrder  `json:"order"`
	Industry *model.Industry `json:"industry,omitempty"`
	Car      *model.Car      `json:"car,omitempty"`
	Train    *model.Train    `json:"train,omitempty"`
}

func loadOrder(ctx context.Context, s store.Store, id string) (*model.CarOrder, error) {
	rec, err := s.FindByID(ctx, store.CarOrders, id)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load car order", err)
	}
	if rec == nil {
		return nil, model.NewError(model.KindNotFound, "car order not found", id)
	}
	var o model.CarOrder
	if err := store.FromRecord(rec, &o); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode car order", err)
	}
	return &o, nil
}

// GetEnrichedOrder joins an order with its industry, assigned car, and
// assigned train, whichever of those exist.
func (svc *Service) GetEnrichedOrder(ctx context.Context, id string) (*EnrichedOrder, error) {
	order, err := loadOrder(ctx, svc.store, id)
	if err != nil {
		return nil, err
	}
	enriched := &EnrichedOrder{Order: *order}

	if ind, ok, err := loadIndustry(ctx, svc.store, order.IndustryID); err != nil {
		return nil, err
	} else if ok {
		enriched.Industry = ind
	}

	if order.AssignedCarID != nil {
		rec, err := svc.store.FindByID(ctx, store.Cars, *order.AssignedCarID)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "load assigned car", err)
		}
		if rec != nil {
			var c model.Car
			if err := store.FromRecord(rec, &c); err != nil {
				return nil, model.WrapError(model.KindStoreError, "decode assigned car", err)
			}
			enriched.Car = &c
		}
	}

	if order.AssignedTrainID != nil {
		rec, err := svc.store.FindByID(ctx, store.Trains, *order.AssignedTrainID)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "load assigned train", err)
		}
		if rec != nil {
			var t model.Train
			if err := store.FromRecord(rec, &t); err != nil {
				return nil, model.WrapError(model.KindStoreError, "decode assigned train", err)
			}
			enriched.Train = &t
		}
	}

	return enriched, nil
}

// CreateOrderInput is createOrder's input DTO. Scalar fields get their
// defaults from creasty/defaults; CompatibleCarTypes, when left empty, is
// filled in with the order's own AarTypeID.
type CreateOrderInput struct {
	IndustryID         string          `default:""`
	AarTypeID          string          `default:""`
	GoodsID            string          `default:""`
	Direction          model.Direction `default:"outbound"`
	CompatibleCarTypes []string
	SessionNumber      int `default:"1"`
}

// CreateOrder validates, resolves references, rejects duplicates, stamps
// createdAt and persists.
func (svc *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.CarOrder, error) {
	if err := defaults.Set(&in); err != nil {
		return nil, model.WrapError(model.KindInvalidArgument, "apply defaults", err)
	}

	if _, ok, err := loadIndustry(ctx, svc.store, in.IndustryID); err != nil {
		return nil, err
	} else if !ok {
		return nil, model.NewError(model.KindNotFound, "order references unknown industry", in.IndustryID)
	}

	aarRec, err := svc.store.FindByID(ctx, store.AarTypes, in.AarTypeID)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "load aarType", err)
	}
	if aarRec == nil {
		return nil, model.NewError(model.KindNotFound, "order references unknown aarType", in.AarTypeID)
	}

	order := model.CarOrder{
		IndustryID:         in.IndustryID,
		AarTypeID:          in.AarTypeID,
		GoodsID:            in.GoodsID,
		Direction:          in.Direction,
		CompatibleCarTypes: in.CompatibleCarTypes,
		SessionNumber:      in.SessionNumber,
		Status:             model.OrderPending,
	}
	if len(order.CompatibleCarTypes) == 0 {
		order.CompatibleCarTypes = []string{in.AarTypeID}
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	existing, err := loadAllOrders(ctx, svc.store)
	if err != nil {
		return nil, err
	}
	if dup := model.FindDuplicateOrder(existing, &order); dup != nil {
		return nil, model.NewError(model.KindConflict, "pending order already exists for this industry/aarType/session", dup.ID)
	}

	order.CreatedAt = time.Now().UTC()
	rec, err := store.ToRecord(order)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "encode car order", err)
	}
	created, err := svc.store.Create(ctx, store.CarOrders, rec)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "create car order", err)
	}
	var out model.CarOrder
	if err := store.FromRecord(created, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode created car order", err)
	}
	return &out, nil
}

// UpdateOrderInput carries only the fields an update may change; nil means
// "leave unchanged".
type UpdateOrderInput struct {
	Status        *model.OrderStatus
	AssignedCarID *string
}

// UpdateOrder enforces the status-transition graph and the car-assignment
// predicate, then persists.
func (svc *Service) UpdateOrder(ctx context.Context, id string, in UpdateOrderInput) (*model.CarOrder, error) {
	existing, err := loadOrder(ctx, svc.store, id)
	if err != nil {
		return nil, err
	}

	patch := store.Record{}

	if in.Status != nil && *in.Status != existing.Status {
		if !model.CanTransitionOrder(existing.Status, *in.Status) {
			return nil, model.NewError(model.KindPreconditionFailed,
				fmt.Sprintf("cannot transition car order from %s to %s", existing.Status, *in.Status), id)
		}
		patch["status"] = *in.Status
	}

	if in.AssignedCarID != nil && (existing.AssignedCarID == nil || *existing.AssignedCarID != *in.AssignedCarID) {
		carRec, err := svc.store.FindByID(ctx, store.Cars, *in.AssignedCarID)
		if err != nil {
			return nil, model.WrapError(model.KindStoreError, "load car for assignment", err)
		}
		var car model.Car
		carExists := carRec != nil
		if carExists {
			if err := store.FromRecord(carRec, &car); err != nil {
				return nil, model.WrapError(model.KindStoreError, "decode car for assignment", err)
			}
		}
		if reasons := model.AssignableCar(existing, &car, carExists); len(reasons) > 0 {
			return nil, model.NewError(model.KindInvalidArgument, strings.Join(reasons, "; "), *in.AssignedCarID)
		}
		patch["assignedCarId"] = *in.AssignedCarID
	}

	if len(patch) == 0 {
		return existing, nil
	}

	patch["updatedAt"] = time.Now().UTC()
	updated, err := svc.store.Update(ctx, store.CarOrders, id, patch)
	if err != nil {
		return nil, model.WrapError(model.KindStoreError, "update car order", err)
	}
	var out model.CarOrder
	if err := store.FromRecord(updated, &out); err != nil {
		return nil, model.WrapError(model.KindStoreError, "decode updated car order", err)
	}
	return &out, nil
}

// DeleteOrder refuses deletion of orders in assigned or in-transit status.
func (svc *Service) DeleteOrder(ctx context.Context, id string) error {
	existing, err := loadOrder(ctx, svc.store, id)
	if err != nil {
		return err
	}
	if existing.Status == model.OrderAssigned || existing.Status == model.OrderInTransit {
		return model.NewError(model.KindCannotDelete, "cannot delete an order that is assigned or in-transit", id)
	}
	if _, err := svc.store.Delete(ctx, store.CarOrders, id); err != nil {
		return model.WrapError(model.KindStoreError, "delete car order", err)
	}
	return nil
}

// GenerateInput is generateOrders' input.
type GenerateInput struct {
	SessionNumber *int
	IndustryIDs   []string
	Force         bool
}

// GenerateStats is generateOrders' stats block, keyed for grouping as the
// spec's "summary" (totals by industry and aarType).
type GenerateStats struct {
	SessionNumber       int              `json:"sessionNumber"`
	OrdersGenerated     int              `json:"ordersGenerated"`
	IndustriesProcessed int              `json:"industriesProcessed"`
	SummaryByIndustry   map[string]int   `json:"summaryByIndustry"`
	SummaryByAarType    map[string]int   `json:"summaryByAarType"`
	Orders              []model.CarOrder `json:"orders"`
}

func industryIDsSet(ids []string) map[string]bool {
	if ids == nil {
		return nil
	}
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// GenerateOrders runs the demand-driven generation algorithm (spec §4.2).
// Failures creating an individual order are swallowed and do not abort the
// batch, per spec §7's batch-operation propagation rule.
func (svc *Service) GenerateOrders(ctx context.Context, in GenerateInput) (GenerateStats, error) {
	stats := GenerateStats{
		SummaryByIndustry: make(map[string]int),
		SummaryByAarType:  make(map[string]int),
		Orders:            make([]model.CarOrder, 0),
	}

	sessionNumber := 0
	if in.SessionNumber != nil {
		sessionNumber = *in.SessionNumber
	} else {
		sess, err := svc.sessionSvc.GetCurrentSession(ctx)
		if err != nil {
			return stats, err
		}
		if sess == nil {
			return stats, model.NewError(model.KindPreconditionFailed, "no current session")
		}
		sessionNumber = sess.CurrentSessionNumber
	}
	stats.SessionNumber = sessionNumber

	recs, err := svc.store.FindAll(ctx, store.Industries)
	if err != nil {
		return stats, model.WrapError(model.KindStoreError, "load industries", err)
	}
	industries, err := store.FromRecords[model.Industry](recs)
	if err != nil {
		return stats, model.WrapError(model.KindStoreError, "decode industries", err)
	}

	wanted := industryIDsSet(in.IndustryIDs)
	existing, err := loadAllOrders(ctx, svc.store)
	if err != nil {
		return stats, err
	}

	for _, ind := range industries {
		if !ind.HasDemand() {
			continue
		}
		if wanted != nil && !wanted[ind.ID] {
			continue
		}
		processed := false

		for i := range ind.CarDemandConfig {
			entry := &ind.CarDemandConfig[i]
			if !entry.Fires(sessionNumber) {
				continue
			}
			processed = true

			for _, aarTypeID := range entry.CompatibleCarTypes {
				candidate := model.CarOrder{
					IndustryID:         ind.ID,
					AarTypeID:          aarTypeID,
					GoodsID:            entry.GoodsID,
					Direction:          entry.Direction,
					CompatibleCarTypes: entry.CompatibleCarTypes,
					SessionNumber:      sessionNumber,
					Status:             model.OrderPending,
				}
				if !in.Force {
					if dup := model.FindDuplicateOrder(existing, &candidate); dup != nil {
						continue
					}
				}

				for i := 0; i < entry.CarsPerSession; i++ {
					candidate.CreatedAt = time.Now().UTC()
					rec, err := store.ToRecord(candidate)
					if err != nil {
						continue
					}
					created, err := svc.store.Create(ctx, store.CarOrders, rec)
					if err != nil {
						continue // per spec §7: batch swallows individual StoreError
					}
					var out model.CarOrder
					if err := store.FromRecord(created, &out); err != nil {
						continue
					}
					existing = append(existing, out)
					stats.Orders = append(stats.Orders, out)
					stats.OrdersGenerated++
					stats.SummaryByIndustry[ind.ID]++
					stats.SummaryByAarType[aarTypeID]++
				}
			}
		}

		if processed {
			stats.IndustriesProcessed++
		}
	}

	return stats, nil
}
