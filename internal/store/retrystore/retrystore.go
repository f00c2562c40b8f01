// Package retrystore wraps a store.Store and retries transient failures
// with exponential backoff before surfacing them, grounded in
// jkilzi-assisted-migration-agent's use of github.com/cenkalti/backoff/v5
// to retry transient failures around its planner's external calls. Meant
// to sit in front of pgstore/sqlitestore, where connection resets and pool
// exhaustion are expected; memstore never needs it (it cannot fail).
package retrystore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/you/trainctl/internal/store"
)

// Classifier decides whether an error from the wrapped store is worth
// retrying. The default classifier retries everything, since the wrapped
// store is expected to return only connectivity-shaped errors (schema
// mismatches etc. would be programmer bugs, not runtime conditions).
type Classifier func(error) bool

// RetryAll is the default Classifier.
func RetryAll(error) bool { return true }

// Store wraps an inner store.Store, retrying each call whose error the
// Classifier deems transient.
type Store struct {
	inner      store.Store
	classifier Classifier
	maxTries   uint
	initial    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithClassifier overrides which errors are retried.
func WithClassifier(c Classifier) Option {
	return func(s *Store) { s.classifier = c }
}

// WithMaxTries caps the number of attempts (including the first).
func WithMaxTries(n uint) Option {
	return func(s *Store) { s.maxTries = n }
}

// New wraps inner with retry behavior.
func New(inner store.Store, opts ...Option) *Store {
	s := &Store{inner: inner, classifier: RetryAll, maxTries: 3, initial: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func run[T any](s *Store, ctx context.Context, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial

	op := func() (T, error) {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !s.classifier(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(s.maxTries))
}

func (s *Store) FindAll(ctx context.Context, collection string) ([]store.Record, error) {
	return run(s, ctx, func() ([]store.Record, error) { return s.inner.FindAll(ctx, collection) })
}

func (s *Store) FindByID(ctx context.Context, collection, id string) (store.Record, error) {
	return run(s, ctx, func() (store.Record, error) { return s.inner.FindByID(ctx, collection, id) })
}

func (s *Store) FindByQuery(ctx context.Context, collection string, query store.Query) ([]store.Record, error) {
	return run(s, ctx, func() ([]store.Record, error) { return s.inner.FindByQuery(ctx, collection, query) })
}

func (s *Store) Create(ctx context.Context, collection string, record store.Record) (store.Record, error) {
	return run(s, ctx, func() (store.Record, error) { return s.inner.Create(ctx, collection, record) })
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Record) (store.Record, error) {
	return run(s, ctx, func() (store.Record, error) { return s.inner.Update(ctx, collection, id, patch) })
}

func (s *Store) Delete(ctx context.Context, collection, id string) (int, error) {
	return run(s, ctx, func() (int, error) { return s.inner.Delete(ctx, collection, id) })
}

func (s *Store) ClearCollection(ctx context.Context, collection string) (int, error) {
	return run(s, ctx, func() (int, error) { return s.inner.ClearCollection(ctx, collection) })
}

var _ store.Store = (*Store)(nil)
