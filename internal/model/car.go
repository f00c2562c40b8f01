package model

import "time"

// Car is a piece of rolling stock moved between industries by trains.
type Car struct {
	ID                        string    `json:"id"`
	ReportingMarks            string    `json:"reportingMarks"`
	ReportingNumber           string    `json:"reportingNumber"`
	CarType                   string    `json:"carType"` // aarTypeId
	Color                     string    `json:"color"`
	HomeYard                  string    `json:"homeYard"`        // industry id
	CurrentIndustry           string    `json:"currentIndustry"` // industry id
	IsInService               bool      `json:"isInService"`
	SessionsAtCurrentLocation int       `json:"sessionsAtCurrentLocation"`
	LastMoved                 time.Time `json:"lastMoved"`
}

// CarDeps is the uniqueness lookup Validate needs.
type CarDeps struct {
	MarksTaken func(marks, number, selfID string) bool
}

func (c *Car) Validate(deps CarDeps, selfID string) error {
	if c.ReportingMarks == "" {
		return NewError(KindInvalidArgument, "car reportingMarks is required")
	}
	if c.ReportingNumber == "" {
		return NewError(KindInvalidArgument, "car reportingNumber is required")
	}
	if c.CarType == "" {
		return NewError(KindInvalidArgument, "car carType is required")
	}
	if c.SessionsAtCurrentLocation < 0 {
		return NewError(KindInvalidArgument, "car sessionsAtCurrentLocation must be >= 0")
	}
	if deps.MarksTaken != nil && deps.MarksTaken(c.ReportingMarks, c.ReportingNumber, selfID) {
		return NewError(KindConflict, "reportingMarks/reportingNumber already in use")
	}
	return nil
}
