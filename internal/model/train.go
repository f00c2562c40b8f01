package model

import "time"

// TrainStatus is the train lifecycle state (spec §4.3).
type TrainStatus string

const (
	TrainPlanned    TrainStatus = "Planned"
	TrainInProgress TrainStatus = "In Progress"
	TrainCompleted  TrainStatus = "Completed"
	TrainCancelled  TrainStatus = "Cancelled"
)

var trainTransitions = map[TrainStatus]map[TrainStatus]bool{
	TrainPlanned:    {TrainInProgress: true, TrainCancelled: true},
	TrainInProgress: {TrainCompleted: true, TrainCancelled: true},
	TrainCompleted:  {},
	TrainCancelled:  {},
}

// CanTransitionTrain reports whether a train may move from `from` to `to`.
func CanTransitionTrain(from, to TrainStatus) bool {
	next, ok := trainTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Pickup is one car a train collects at a station, en route to a setout at
// another (or the same) station.
type Pickup struct {
	CarID                 string  `json:"carId"`
	ReportingMarks        string  `json:"reportingMarks"`
	ReportingNumber       string  `json:"reportingNumber"`
	CarType               string  `json:"carType"`
	DestinationIndustryID string  `json:"destinationIndustryId"`
	CarOrderID            *string `json:"carOrderId,omitempty"`
}

// Setout is a car a train drops off at a station.
type Setout struct {
	CarID                 string  `json:"carId"`
	ReportingMarks        string  `json:"reportingMarks"`
	ReportingNumber       string  `json:"reportingNumber"`
	CarType               string  `json:"carType"`
	DestinationIndustryID string  `json:"destinationIndustryId"`
	CarOrderID            *string `json:"carOrderId,omitempty"`
}

// StationPlan is one station's worth of the switch list.
type StationPlan struct {
	StationID   string   `json:"stationId"`
	StationName string   `json:"stationName"`
	Pickups     []Pickup `json:"pickups"`
	Setouts     []Setout `json:"setouts"`
}

// SwitchList is the per-station plan a train executes, produced by
// TrainService.GenerateSwitchList.
type SwitchList struct {
	Stations      []StationPlan `json:"stations"`
	TotalPickups  int           `json:"totalPickups"`
	TotalSetouts  int           `json:"totalSetouts"`
	FinalCarCount int           `json:"finalCarCount"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// Train is a scheduled movement of rolling stock along a route.
type Train struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	RouteID        string      `json:"routeId"`
	SessionNumber  int         `json:"sessionNumber"`
	Status         TrainStatus `json:"status"`
	LocomotiveIDs  []string    `json:"locomotiveIds"`
	MaxCapacity    int         `json:"maxCapacity"`
	AssignedCarIDs []string    `json:"assignedCarIds"`
	SwitchList     *SwitchList `json:"switchList,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// TrainDeps is the set of store-backed lookups Validate needs.
type TrainDeps struct {
	NameTaken func(name string, sessionNumber int, selfID string) bool
	// LocomotiveActiveElsewhere reports whether locomotiveID is already
	// referenced by a non-terminal train other than selfID.
	LocomotiveActiveElsewhere func(locomotiveID, selfID string) bool
}

func (t *Train) Validate(deps TrainDeps, selfID string) error {
	if t.Name == "" {
		return NewError(KindInvalidArgument, "train name is required")
	}
	if t.RouteID == "" {
		return NewError(KindInvalidArgument, "train routeId is required")
	}
	if len(t.LocomotiveIDs) == 0 {
		return NewError(KindInvalidArgument, "train requires at least one locomotive")
	}
	if t.MaxCapacity < 1 || t.MaxCapacity > 100 {
		return NewError(KindInvalidArgument, "train maxCapacity must be between 1 and 100")
	}
	if deps.NameTaken != nil && deps.NameTaken(t.Name, t.SessionNumber, selfID) {
		return NewError(KindConflict, "train name already in use for this session: "+t.Name)
	}
	if deps.LocomotiveActiveElsewhere != nil {
		for _, locID := range t.LocomotiveIDs {
			if deps.LocomotiveActiveElsewhere(locID, selfID) {
				return NewError(KindConflict, "locomotive already assigned to another active train", locID)
			}
		}
	}
	return nil
}

// IsNonTerminal reports whether status counts toward locomotive-conflict
// and "at most one active train per locomotive" checks.
func (s TrainStatus) IsNonTerminal() bool {
	return s == TrainPlanned || s == TrainInProgress
}
