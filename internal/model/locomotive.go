package model

import "regexp"

// Manufacturer is restricted to a fixed enum per spec §3.
type Manufacturer string

const (
	ManufacturerAthearn  Manufacturer = "athearn"
	ManufacturerAtlas    Manufacturer = "atlas"
	ManufacturerBachmann Manufacturer = "bachmann"
	ManufacturerBroadway Manufacturer = "broadway-limited"
	ManufacturerKato     Manufacturer = "kato"
	ManufacturerWalthers Manufacturer = "walthers"
	ManufacturerOther    Manufacturer = "other"
)

var validManufacturers = map[Manufacturer]bool{
	ManufacturerAthearn:  true,
	ManufacturerAtlas:    true,
	ManufacturerBachmann: true,
	ManufacturerBroadway: true,
	ManufacturerKato:     true,
	ManufacturerWalthers: true,
	ManufacturerOther:    true,
}

var reportingNumberRe = regexp.MustCompile(`^\d{1,6}$`)

// Locomotive is rolling stock that pulls trains. At most one non-terminal
// (Planned/In Progress) train may reference a given locomotive at a time —
// that constraint is enforced by TrainService, not here (it needs a store
// scan across trains).
type Locomotive struct {
	ID              string       `json:"id"`
	ReportingMarks  string       `json:"reportingMarks"`
	ReportingNumber string       `json:"reportingNumber"`
	Model           string       `json:"model"`
	Manufacturer    Manufacturer `json:"manufacturer"`
	IsDCC           bool         `json:"isDCC"`
	DCCAddress      *int         `json:"dccAddress,omitempty"`
	HomeYard        string       `json:"homeYard"`
	IsInService     bool         `json:"isInService"`
}

// LocomotiveDeps is the set of uniqueness lookups Validate needs.
type LocomotiveDeps struct {
	// MarksTaken reports whether another locomotive already has this
	// (marks, number) pair (excluding selfID).
	MarksTaken func(marks, number, selfID string) bool
	// DCCAddressTaken reports whether another DCC locomotive already
	// claims this address (excluding selfID).
	DCCAddressTaken func(addr int, selfID string) bool
}

func (l *Locomotive) Validate(deps LocomotiveDeps, selfID string) error {
	if l.ReportingMarks == "" {
		return NewError(KindInvalidArgument, "locomotive reportingMarks is required")
	}
	if !reportingNumberRe.MatchString(l.ReportingNumber) {
		return NewError(KindInvalidArgument, "locomotive reportingNumber must be 1-6 digits")
	}
	if !validManufacturers[l.Manufacturer] {
		return NewError(KindInvalidArgument, "locomotive manufacturer is not recognized: "+string(l.Manufacturer))
	}
	if l.IsDCC {
		if l.DCCAddress == nil {
			return NewError(KindInvalidArgument, "dccAddress is required when isDCC is true")
		}
		if *l.DCCAddress < 1 || *l.DCCAddress > 9999 {
			return NewError(KindInvalidArgument, "dccAddress must be between 1 and 9999")
		}
	} else if l.DCCAddress != nil {
		return NewError(KindInvalidArgument, "dccAddress must not be set when isDCC is false")
	}
	if deps.MarksTaken != nil && deps.MarksTaken(l.ReportingMarks, l.ReportingNumber, selfID) {
		return NewError(KindConflict, "reportingMarks/reportingNumber already in use")
	}
	if l.IsDCC && deps.DCCAddressTaken != nil && deps.DCCAddressTaken(*l.DCCAddress, selfID) {
		return NewError(KindConflict, "dccAddress already in use by another DCC locomotive")
	}
	return nil
}
