package model

// Direction is the flow of goods through a demand config entry.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) valid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// CarDemandEntry describes one recurring source of car demand at an
// industry: every `Frequency` sessions, the industry wants `CarsPerSession`
// cars of one of `CompatibleCarTypes` to satisfy goods movement `GoodsID` in
// direction `Direction`.
type CarDemandEntry struct {
	GoodsID            string    `json:"goodsId"`
	Direction          Direction `json:"direction"`
	CompatibleCarTypes []string  `json:"compatibleCarTypes"`
	CarsPerSession     int       `json:"carsPerSession"`
	Frequency          int       `json:"frequency"`
}

func (c *CarDemandEntry) validate() error {
	if c.GoodsID == "" {
		return NewError(KindInvalidArgument, "carDemandConfig entry requires goodsId")
	}
	if !c.Direction.valid() {
		return NewError(KindInvalidArgument, "carDemandConfig entry has invalid direction: "+string(c.Direction))
	}
	if len(c.CompatibleCarTypes) == 0 {
		return NewError(KindInvalidArgument, "carDemandConfig entry requires at least one compatible car type")
	}
	if c.CarsPerSession < 1 {
		return NewError(KindInvalidArgument, "carDemandConfig entry carsPerSession must be >= 1")
	}
	if c.Frequency < 1 {
		return NewError(KindInvalidArgument, "carDemandConfig entry frequency must be >= 1")
	}
	return nil
}

// Fires reports whether this demand entry's recurring schedule fires in the
// given session number (spec §4.2 step 3: sessionNumber mod frequency == 0).
func (c *CarDemandEntry) Fires(sessionNumber int) bool {
	return c.Frequency > 0 && sessionNumber%c.Frequency == 0
}

// CompatibleWith reports whether aarTypeID satisfies this demand entry.
func (c *CarDemandEntry) CompatibleWith(aarTypeID string) bool {
	for _, t := range c.CompatibleCarTypes {
		if t == aarTypeID {
			return true
		}
	}
	return false
}

// Industry is a destination on the layout, optionally a yard (route
// origin/termination point and car home base).
type Industry struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	StationID       string           `json:"stationId"`
	IsYard          bool             `json:"isYard"`
	CarDemandConfig []CarDemandEntry `json:"carDemandConfig"`
}

// Validate checks structural invariants that don't require store lookups.
// stationExists is supplied by the caller (who has access to the store) to
// verify the stationId reference resolves.
func (i *Industry) Validate(stationExists func(id string) bool) error {
	if i.Name == "" {
		return NewError(KindInvalidArgument, "industry name is required")
	}
	if i.StationID == "" {
		return NewError(KindInvalidArgument, "industry stationId is required")
	}
	if stationExists != nil && !stationExists(i.StationID) {
		return NewError(KindNotFound, "industry references unknown station", i.StationID)
	}
	seen := make(map[string]bool, len(i.CarDemandConfig))
	for idx := range i.CarDemandConfig {
		entry := &i.CarDemandConfig[idx]
		if err := entry.validate(); err != nil {
			return err
		}
		key := entry.GoodsID + "|" + string(entry.Direction)
		if seen[key] {
			return NewError(KindInvalidArgument, "duplicate carDemandConfig entry for goodsId/direction: "+key)
		}
		seen[key] = true
	}
	return nil
}

// HasDemand reports whether the industry has any recurring demand configs.
func (i *Industry) HasDemand() bool {
	return len(i.CarDemandConfig) > 0
}
