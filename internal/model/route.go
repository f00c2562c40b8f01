package model

// Route is an origin yard, an ordered sequence of stations, and a
// termination yard. Trains run routes.
type Route struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	OriginYard      string   `json:"originYard"`      // industry id, isYard=true
	TerminationYard string   `json:"terminationYard"` // industry id, isYard=true
	StationSequence []string `json:"stationSequence"` // station ids, in visit order
}

// RouteDeps is the set of lookups Validate needs from the store.
type RouteDeps struct {
	FindIndustry  func(id string) (*Industry, bool)
	StationExists func(id string) bool
	// NameTaken reports whether another route already has this name
	// (excluding selfID).
	NameTaken func(name, selfID string) bool
}

func (r *Route) Validate(deps RouteDeps, selfID string) error {
	if r.Name == "" {
		return NewError(KindInvalidArgument, "route name is required")
	}
	if deps.NameTaken != nil && deps.NameTaken(r.Name, selfID) {
		return NewError(KindConflict, "route name already in use: "+r.Name)
	}
	origin, ok := deps.FindIndustry(r.OriginYard)
	if !ok {
		return NewError(KindNotFound, "route originYard does not exist", r.OriginYard)
	}
	if !origin.IsYard {
		return NewError(KindInvalidArgument, "route originYard is not a yard industry", r.OriginYard)
	}
	term, ok := deps.FindIndustry(r.TerminationYard)
	if !ok {
		return NewError(KindNotFound, "route terminationYard does not exist", r.TerminationYard)
	}
	if !term.IsYard {
		return NewError(KindInvalidArgument, "route terminationYard is not a yard industry", r.TerminationYard)
	}
	for _, stID := range r.StationSequence {
		if deps.StationExists != nil && !deps.StationExists(stID) {
			return NewError(KindNotFound, "route stationSequence references unknown station", stID)
		}
	}
	return nil
}

// FullStationSequence returns [originYard's station, ...StationSequence,
// terminationYard's station] — the planner's station visit order (spec
// §4.3 step 2). originStation/termStation are the stations the origin and
// termination yards resolve to.
func (r *Route) FullStationSequence(originStation, termStation string) []string {
	out := make([]string, 0, len(r.StationSequence)+2)
	out = append(out, originStation)
	out = append(out, r.StationSequence...)
	out = append(out, termStation)
	return out
}
