package application

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"statuslookup/metrics"
)

// DefaultDelay is the simulated latency applied before every lookup.
const DefaultDelay = 1500 * time.Millisecond

// sharedLookupTimeout bounds a finder call shared by concurrent callers.
const sharedLookupTimeout = 10 * time.Second

// Finder abstracts the data source consulted by the service.
type Finder interface {
	Find(ctx context.Context, id string) (Record, error)
}

// Service exposes the submission lookup used by every surface.
type Service struct {
	repo  Finder
	delay time.Duration
	group singleflight.Group
	now   func() time.Time
}

// NewService builds a Service using the provided finder and the default delay.
func NewService(repo Finder) *Service {
	return &Service{
		repo:  repo,
		delay: DefaultDelay,
		now:   time.Now,
	}
}

// WithDelay overrides the simulated latency. Zero disables it.
func (s *Service) WithDelay(d time.Duration) *Service {
	if d < 0 {
		d = 0
	}
	s.delay = d
	return s
}

// WithClock overrides the clock used for lookup timing.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Delay reports the simulated latency applied to each lookup.
func (s *Service) Delay() time.Duration {
	return s.delay
}

// Find waits out the simulated delay, then looks up id. Concurrent lookups
// of the same id share a single call to the finder, so one caller giving up
// does not fail the others.
func (s *Service) Find(ctx context.Context, id string) (Record, error) {
	start := s.now()

	rec, err := s.find(ctx, id)

	outcome := metrics.OutcomeFound
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveLookup(outcome, s.now().Sub(start))

	return rec, err
}

func (s *Service) find(ctx context.Context, id string) (Record, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Record{}, ctx.Err()
		case <-timer.C:
		}
	}

	// The shared call outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := s.group.DoChan(id, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.repo.Find(fctx, id)
	})
	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}
