package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/runner"
	"github.com/stacklok/catalog-exporter/internal/status"
)

const (
	// DefaultPollingInterval is the base interval between two passes over the accounts
	DefaultPollingInterval = 2 * time.Minute
	// DefaultPollingJitter is the maximum random offset applied to the polling interval
	DefaultPollingJitter = 30 * time.Second
)

// Coordinator schedules export runs in the background
type Coordinator interface {
	// Start runs the scheduling loop. It blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop stops the loop and waits for the current pass to finish
	Stop() error
}

type defaultCoordinator struct {
	runner Runner
	store  lease.Store
	config *config.Config

	clock    clock.WithTicker
	interval time.Duration
	jitter   time.Duration

	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Option configures the coordinator
type Option func(*defaultCoordinator)

// WithClock sets the clock driving the ticker and the run type decision
func WithClock(c clock.WithTicker) Option {
	return func(d *defaultCoordinator) {
		d.clock = c
	}
}

// WithPollingInterval overrides the base polling interval and its jitter
func WithPollingInterval(interval, jitter time.Duration) Option {
	return func(d *defaultCoordinator) {
		d.interval = interval
		d.jitter = jitter
	}
}

// New creates a coordinator for the accounts of cfg
func New(r Runner, store lease.Store, cfg *config.Config, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		runner:   r,
		store:    store,
		config:   cfg,
		clock:    clock.RealClock{},
		interval: DefaultPollingInterval,
		jitter:   DefaultPollingJitter,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pollingInterval returns the base interval shifted by a random offset in
// [-jitter, +jitter) so that several daemons do not poll in lockstep.
func (c *defaultCoordinator) pollingInterval() time.Duration {
	if c.jitter <= 0 {
		return c.interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*c.jitter))) - c.jitter
	return max(c.interval+offset, time.Second)
}

// Start begins the scheduling loop
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting export coordinator", "account_count", len(c.config.Accounts))

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Export coordinator shutting down")
	}()

	interval := c.pollingInterval()
	slog.Info("Configured coordinator polling interval",
		"base_interval", c.interval,
		"actual_interval", interval)

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	c.processAccounts(coordCtx)

	for {
		select {
		case <-ticker.C():
			c.processAccounts(coordCtx)
			// clock.Ticker has no Reset; the jitter is drawn once per Start.
		case <-coordCtx.Done():
			slog.Info("Export coordinator stopping")
			return nil
		}
	}
}

// Stop stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping export coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

func (c *defaultCoordinator) processAccounts(ctx context.Context) {
	for _, acc := range c.config.Accounts {
		if ctx.Err() != nil {
			return
		}

		typ, err := c.nextRunType(ctx, acc.Name)
		if err != nil {
			slog.Error("Error choosing export type", "account", acc.Name, "error", err)
			continue
		}

		result, err := c.runner.Run(ctx, acc.Name, typ)
		if err != nil {
			slog.Error("Scheduled export failed",
				"account", acc.Name,
				"type", typ,
				"error", err)
			continue
		}
		if result.Outcome == runner.OutcomeDenied {
			slog.Debug("Scheduled export not started",
				"account", acc.Name,
				"type", typ,
				"reason", result.Reason)
		}
	}
}

// nextRunType returns FULL when the last successful full run of the account is
// missing or at least the full interval old, DELTA otherwise.
func (c *defaultCoordinator) nextRunType(ctx context.Context, account string) (status.ExportType, error) {
	lastFull, err := c.store.LastSuccessByTypeAndAccount(ctx, status.ExportTypeFull, account)
	if err != nil {
		return "", fmt.Errorf("failed to read last full export: %w", err)
	}
	if lastFull == nil || c.clock.Since(*lastFull) >= c.config.Delta.GetFullInterval() {
		return status.ExportTypeFull, nil
	}
	return status.ExportTypeDelta, nil
}
