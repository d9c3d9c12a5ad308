package app

import (
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/domain"
)

// Option tweaks service internals, mostly for deterministic tests.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// checkID rejects identifiers that no store could ever hold.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrResourceNotFound
	}
	return nil
}
