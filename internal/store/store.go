// Package store defines the document-store contract the operations core
// depends on (spec §6): a set of named collections holding opaque records
// keyed by a stable string id, each supporting create/find/update/delete.
// The persistence engine itself is an external collaborator — this package
// only states the contract and ships a couple of concrete implementations
// used by the CLI and by tests.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used throughout the core.
const (
	Cars               = "cars"
	Locomotives        = "locomotives"
	Industries         = "industries"
	Stations           = "stations"
	AarTypes           = "aarTypes"
	Routes             = "routes"
	Trains             = "trains"
	CarOrders          = "carOrders"
	OperatingSessions  = "operatingSessions"
)

// Record is an opaque document keyed by string fields. Concrete Store
// implementations are free to back it with JSON blobs, SQL rows projected
// into a map, or a plain in-process map.
type Record map[string]any

// Query is an equality-match filter: findByQuery returns every record whose
// fields match every key in the map.
type Query map[string]any

// ErrNotFound is a "not found" sentinel for callers that prefer an error to
// a nil record. No Store implementation in this module returns it: FindByID
// reports a missing id as (nil, nil).
var ErrNotFound = errors.New("store: record not found")

// Store is the contract every collection-backed persistence engine
// implements. All methods are the only suspension points in the core (spec
// §5) — every service operation is a straight-line sequence of these calls.
type Store interface {
	FindAll(ctx context.Context, collection string) ([]Record, error)
	FindByID(ctx context.Context, collection, id string) (Record, error)
	FindByQuery(ctx context.Context, collection string, query Query) ([]Record, error)
	Create(ctx context.Context, collection string, record Record) (Record, error)
	Update(ctx context.Context, collection, id string, patch Record) (Record, error)
	Delete(ctx context.Context, collection, id string) (int, error)
	ClearCollection(ctx context.Context, collection string) (int, error)
}

// ToRecord marshals a typed value into an opaque Record via its JSON tags —
// the boundary every service crosses when writing a typed struct to the
// store.
func ToRecord(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// FromRecord unmarshals an opaque Record into a typed struct via JSON tags —
// the boundary every service crosses when reading a store record back into
// a typed struct. out must be a pointer.
func FromRecord(rec Record, out any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// ToRecords is ToRecord applied to a slice.
func ToRecords[T any](vs []T) ([]Record, error) {
	out := make([]Record, 0, len(vs))
	for _, v := range vs {
		rec, err := ToRecord(v)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FromRecords unmarshals a slice of opaque Records into a typed slice.
func FromRecords[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := FromRecord(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
