// Package scheduler decides whether an export run of an account may start.
//
// Two checks are applied. The Scheduler looks at runs of other accounts still
// recorded as PROCESSING and refuses to start while one of them looks alive.
// The DeltaPolicy decides whether a delta run is due for an account given its
// last successful full and delta runs.
//
// Neither check writes to the lease store; the run orchestrator owns every
// status transition.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/status"
)

// DefaultStaleAfter is how long a PROCESSING record blocks other accounts.
// Older records are treated as left behind by a crashed process.
const DefaultStaleAfter = 15 * time.Minute

// Scheduler gates run starts on the PROCESSING records of other accounts
type Scheduler struct {
	store      lease.Store
	clock      clock.PassiveClock
	staleAfter time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock sets the clock used to age PROCESSING records
func WithClock(c clock.PassiveClock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithStaleAfter overrides the age after which a PROCESSING record is ignored
func WithStaleAfter(d time.Duration) Option {
	return func(s *Scheduler) {
		s.staleAfter = d
	}
}

// New creates a Scheduler reading from the given store
func New(store lease.Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		clock:      clock.RealClock{},
		staleAfter: DefaultStaleAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanStartExport reports whether a run of the given type may start for account.
//
// A run is refused while any other account has a PROCESSING record younger than
// the stale threshold; a record exactly at the threshold still counts as live.
func (s *Scheduler) CanStartExport(ctx context.Context, typ status.ExportType, account string) (bool, error) {
	processes, err := s.store.ListProcessing(ctx, account)
	if err != nil {
		return false, fmt.Errorf("failed to list processing exports: %w", err)
	}

	if len(processes) == 0 && typ == status.ExportTypeFull {
		return true, nil
	}

	threshold := s.clock.Now().Add(-s.staleAfter)
	for _, p := range processes {
		if !p.ExportDate.Before(threshold) {
			slog.Debug("Export start blocked by a live process",
				"account", account,
				"type", typ,
				"blocking_account", p.Account,
				"blocking_type", p.Type,
				"blocking_since", p.ExportDate)
			return false, nil
		}
		slog.Debug("Ignoring stale processing record",
			"account", p.Account,
			"type", p.Type,
			"since", p.ExportDate)
	}

	return true, nil
}
