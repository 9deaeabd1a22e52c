package scheduler

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/status"
)

// DeltaPolicy decides whether a delta run is due for an account
type DeltaPolicy struct {
	store     lease.Store
	clock     clock.PassiveClock
	frequency time.Duration
	fullRange time.Duration
}

// NewDeltaPolicy creates a policy allowing a delta run once frequency has passed
// since the last successful delta, and not before fullRange has passed since the
// last successful full run.
func NewDeltaPolicy(store lease.Store, frequency, fullRange time.Duration, clk clock.PassiveClock) *DeltaPolicy {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &DeltaPolicy{
		store:     store,
		clock:     clk,
		frequency: frequency,
		fullRange: fullRange,
	}
}

// ExportDeniedOnAccount reports whether a delta run must not start for account.
//
// Both windows are closed: a delta is allowed exactly at now - T = window.
func (p *DeltaPolicy) ExportDeniedOnAccount(ctx context.Context, account string) (bool, error) {
	lastFull, err := p.store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeFull, account)
	if err != nil {
		return true, fmt.Errorf("failed to read last full export: %w", err)
	}
	if lastFull == nil {
		return true, nil
	}

	now := p.clock.Now()
	if now.Sub(*lastFull) < p.fullRange {
		return true, nil
	}

	lastDelta, err := p.store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeDelta, account)
	if err != nil {
		return true, fmt.Errorf("failed to read last delta export: %w", err)
	}
	if lastDelta == nil {
		return false, nil
	}

	return now.Sub(*lastDelta) < p.frequency, nil
}
