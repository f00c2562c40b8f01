package model

import "time"

// OrderStatus is the lifecycle state of a CarOrder.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAssigned  OrderStatus = "assigned"
	OrderInTransit OrderStatus = "in-transit"
	OrderDelivered OrderStatus = "delivered"
)

// orderTransitions encodes the status graph from spec §4.2.
var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderAssigned: true, OrderDelivered: true},
	OrderAssigned:  {OrderInTransit: true, OrderDelivered: true, OrderPending: true},
	OrderInTransit: {OrderDelivered: true, OrderAssigned: true},
	OrderDelivered: {},
}

// CanTransitionOrder reports whether an order may move from `from` to `to`.
// Transitioning to the same status is not itself a transition (callers
// should treat a no-op update as allowed without consulting this).
func CanTransitionOrder(from, to OrderStatus) bool {
	next, ok := orderTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// CarOrder is a demand record: industry X needs a car of aarType T in
// session N.
type CarOrder struct {
	ID                 string      `json:"id"`
	IndustryID         string      `json:"industryId"`
	AarTypeID          string      `json:"aarTypeId"`
	GoodsID            string      `json:"goodsId"`
	Direction          Direction   `json:"direction"`
	CompatibleCarTypes []string    `json:"compatibleCarTypes"`
	SessionNumber      int         `json:"sessionNumber"`
	Status             OrderStatus `json:"status"`
	AssignedCarID      *string     `json:"assignedCarId,omitempty"`
	AssignedTrainID    *string     `json:"assignedTrainId,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// IsDuplicateOf reports whether o and other are duplicates per spec §4.2:
// same (industryId, aarTypeId, sessionNumber) and other is pending.
func (o *CarOrder) IsDuplicateOf(other *CarOrder) bool {
	if other.Status != OrderPending {
		return false
	}
	return o.IndustryID == other.IndustryID &&
		o.AarTypeID == other.AarTypeID &&
		o.SessionNumber == other.SessionNumber
}

// AssignableCar reports whether a car may be assigned to this order (spec
// §4.2 car-assignment predicate). It accumulates every violated reason
// instead of short-circuiting, so the caller can report all of them.
func AssignableCar(order *CarOrder, car *Car, carExists bool) []string {
	var reasons []string
	if !carExists {
		reasons = append(reasons, "car does not exist")
		return reasons
	}
	if !car.IsInService {
		reasons = append(reasons, "car is not in service")
	}
	if car.CarType != order.AarTypeID {
		reasons = append(reasons, "car type does not match order aarTypeId")
	}
	if order.Status != OrderPending {
		reasons = append(reasons, "order is not pending")
	}
	return reasons
}

func (o *CarOrder) Validate() error {
	if o.IndustryID == "" {
		return NewError(KindInvalidArgument, "carOrder industryId is required")
	}
	if o.AarTypeID == "" {
		return NewError(KindInvalidArgument, "carOrder aarTypeId is required")
	}
	if !o.Direction.valid() {
		return NewError(KindInvalidArgument, "carOrder has invalid direction: "+string(o.Direction))
	}
	if len(o.CompatibleCarTypes) == 0 {
		return NewError(KindInvalidArgument, "carOrder requires at least one compatible car type")
	}
	if o.SessionNumber < 1 {
		return NewError(KindInvalidArgument, "carOrder sessionNumber must be >= 1")
	}
	return nil
}
