package model

// This file collects the pure predicates spec §4.4 calls out as directly
// callable without a store — each is a plain function over already-loaded
// slices. Services load the slices (via the store) and hand them to these
// functions; TrainDeps/RouteDeps/etc. in the entity files are thin closures
// over them so Validate() can call them without knowing about slices.

// TrainNameTaken reports whether any train in trains (other than selfID)
// already has name within sessionNumber.
func TrainNameTaken(trains []Train, name string, sessionNumber int, selfID string) bool {
	for _, t := range trains {
		if t.ID == selfID {
			continue
		}
		if t.SessionNumber == sessionNumber && t.Name == name {
			return true
		}
	}
	return false
}

// LocomotiveActiveElsewhere reports whether locomotiveID is referenced by
// any non-terminal train (Planned or In Progress) other than selfID.
func LocomotiveActiveElsewhere(trains []Train, locomotiveID, selfID string) bool {
	for _, t := range trains {
		if t.ID == selfID {
			continue
		}
		if !t.Status.IsNonTerminal() {
			continue
		}
		for _, id := range t.LocomotiveIDs {
			if id == locomotiveID {
				return true
			}
		}
	}
	return false
}

// RouteNameTaken reports whether any route in routes (other than selfID)
// already has name. Route names are globally unique (spec §3).
func RouteNameTaken(routes []Route, name, selfID string) bool {
	for _, r := range routes {
		if r.ID == selfID {
			continue
		}
		if r.Name == name {
			return true
		}
	}
	return false
}

// LocomotiveMarksTaken reports whether any locomotive in locos (other than
// selfID) already has this (marks, number) pair.
func LocomotiveMarksTaken(locos []Locomotive, marks, number, selfID string) bool {
	for _, l := range locos {
		if l.ID == selfID {
			continue
		}
		if l.ReportingMarks == marks && l.ReportingNumber == number {
			return true
		}
	}
	return false
}

// LocomotiveDCCAddressTaken reports whether any DCC locomotive in locos
// (other than selfID) already claims addr.
func LocomotiveDCCAddressTaken(locos []Locomotive, addr int, selfID string) bool {
	for _, l := range locos {
		if l.ID == selfID {
			continue
		}
		if l.IsDCC && l.DCCAddress != nil && *l.DCCAddress == addr {
			return true
		}
	}
	return false
}

// CarMarksTaken reports whether any car in cars (other than selfID) already
// has this (marks, number) pair.
func CarMarksTaken(cars []Car, marks, number, selfID string) bool {
	for _, c := range cars {
		if c.ID == selfID {
			continue
		}
		if c.ReportingMarks == marks && c.ReportingNumber == number {
			return true
		}
	}
	return false
}

// FindDuplicateOrder returns the first pending order among existing that
// duplicates candidate (spec §4.2 duplicate predicate), or nil.
func FindDuplicateOrder(existing []CarOrder, candidate *CarOrder) *CarOrder {
	for i := range existing {
		if candidate.IsDuplicateOf(&existing[i]) {
			return &existing[i]
		}
	}
	return nil
}
