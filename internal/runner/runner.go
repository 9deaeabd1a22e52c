// Package runner executes one export run of an account: it consults the
// scheduler, records the run in the lease store, exports every configured
// component and auxiliary table into a fresh run directory and records the
// outcome, whatever happens in between.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/stacklok/catalog-exporter/internal/config"
	"github.com/stacklok/catalog-exporter/internal/export"
	"github.com/stacklok/catalog-exporter/internal/lease"
	"github.com/stacklok/catalog-exporter/internal/otel"
	"github.com/stacklok/catalog-exporter/internal/registrar"
	"github.com/stacklok/catalog-exporter/internal/scheduler"
	"github.com/stacklok/catalog-exporter/internal/sink"
	"github.com/stacklok/catalog-exporter/internal/status"
	"github.com/stacklok/catalog-exporter/internal/telemetry"
)

// TracerName is the name of the tracer used for run spans
const TracerName = "github.com/stacklok/catalog-exporter/runner"

// Outcome is how a run invocation ended
type Outcome string

const (
	// OutcomeSuccess means every component was exported and the manifest written
	OutcomeSuccess Outcome = "success"

	// OutcomeFailed means the run started and was recorded as FAIL
	OutcomeFailed Outcome = "failed"

	// OutcomeDenied means the run was not started
	OutcomeDenied Outcome = "denied"
)

// Reasons for a denied run
const (
	ReasonDeltaNotDue   = "delta-not-due"
	ReasonConcurrentRun = "concurrent-run"
)

// Result describes a run invocation
type Result struct {
	RunID   string
	Account string
	Type    status.ExportType
	Outcome Outcome

	// Reason is set for denied runs
	Reason string

	// Dir is the run directory holding the export files and the manifest
	Dir string

	Components []*export.ComponentResult
	Tables     []export.TableResult

	Duration time.Duration
}

// Rows returns the number of rows written by all components
func (r *Result) Rows() int {
	total := 0
	for _, c := range r.Components {
		total += c.Rows()
	}
	return total
}

// Runner executes export runs
type Runner struct {
	store      lease.Store
	config     *config.Config
	components []export.Component

	scheduler *scheduler.Scheduler
	delta     *scheduler.DeltaPolicy

	tables  export.TableReader
	clock   clock.PassiveClock
	metrics *telemetry.RunMetrics
	tracer  trace.Tracer
	newID   func() string
}

// Option configures a Runner
type Option func(*Runner)

// WithClock sets the clock used for run timestamps and the scheduling checks
func WithClock(c clock.PassiveClock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithTableReader sets the reader for auxiliary tables. Without one, auxiliary
// tables are skipped.
func WithTableReader(tr export.TableReader) Option {
	return func(r *Runner) {
		r.tables = tr
	}
}

// WithMetrics sets the run metrics
func WithMetrics(m *telemetry.RunMetrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracerProvider sets the provider used for run spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		if tp != nil {
			r.tracer = tp.Tracer(TracerName)
		}
	}
}

// WithRunIDGenerator overrides how run ids are generated
func WithRunIDGenerator(f func() string) Option {
	return func(r *Runner) {
		r.newID = f
	}
}

// New creates a Runner exporting components for the accounts of cfg
func New(store lease.Store, cfg *config.Config, components []export.Component, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		config:     cfg,
		components: components,
		clock:      clock.RealClock{},
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.scheduler = scheduler.New(store, scheduler.WithClock(r.clock))
	r.delta = scheduler.NewDeltaPolicy(store,
		cfg.Delta.GetFrequency(),
		cfg.Delta.GetFullRange(),
		r.clock)
	return r
}

// Run executes an export of the given type for account.
//
// A run refused by the delta policy or the scheduler returns an OutcomeDenied
// result and no error. Once the run is recorded as PROCESSING, a terminal
// SUCCESS or FAIL record is always written, even when ctx is cancelled or the
// run exceeds its timeout.
func (r *Runner) Run(ctx context.Context, account string, typ status.ExportType) (result *Result, err error) {
	acc, ok := r.config.Account(account)
	if !ok {
		return nil, fmt.Errorf("account %q is not configured", account)
	}

	result = &Result{Account: account, Type: typ}

	ctx, span := otel.StartSpan(ctx, r.tracer, "export.run",
		trace.WithAttributes(otel.AttrAccount.String(account), otel.AttrExportType.String(string(typ))))
	defer func() {
		if result != nil {
			span.SetAttributes(otel.AttrOutcome.String(string(result.Outcome)))
		}
		otel.RecordError(span, err)
		span.End()
	}()

	reason, err := r.denied(ctx, account, typ)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		slog.Info("Export run denied", "account", account, "type", typ, "reason", reason)
		r.metrics.RecordDenial(ctx, account, string(typ), reason)
		result.Outcome = OutcomeDenied
		result.Reason = reason
		return result, nil
	}

	// The PROCESSING upsert below replaces this type's record, so the watermark
	// of the previous delta must be read first.
	var since *time.Time
	if typ == status.ExportTypeDelta {
		since, err = r.store.LastByAccountAndStatus(ctx, account, status.ExportStatusSuccess)
		if err != nil {
			return nil, fmt.Errorf("failed to read last successful export: %w", err)
		}
	}

	startedAt := r.clock.Now()
	if err := r.store.Upsert(ctx, account, typ, startedAt, status.ExportStatusProcessing); err != nil {
		return nil, fmt.Errorf("failed to record processing export: %w", err)
	}

	// Record FAIL unless the run completes; the write must survive cancellation.
	terminal := status.ExportStatusFail
	defer func() {
		completedAt := r.clock.Now()
		result.Duration = completedAt.Sub(startedAt)
		if result.Outcome == "" {
			result.Outcome = OutcomeFailed
		}
		if upsertErr := r.store.Upsert(context.WithoutCancel(ctx), account, typ, completedAt, terminal); upsertErr != nil {
			slog.Error("Failed to record export outcome",
				"account", account,
				"type", typ,
				"status", terminal,
				"error", upsertErr)
			err = errors.Join(err, fmt.Errorf("failed to record export outcome: %w", upsertErr))
			result.Outcome = OutcomeFailed
		}
		r.metrics.RecordRun(ctx, account, string(typ), string(result.Outcome), result.Duration)
	}()

	if err := r.execute(ctx, acc, typ, since, startedAt, result); err != nil {
		slog.Error("Export run failed",
			"account", account,
			"type", typ,
			"run_id", result.RunID,
			"error", err)
		return result, err
	}

	terminal = status.ExportStatusSuccess
	result.Outcome = OutcomeSuccess
	slog.Info("Export run completed",
		"account", account,
		"type", typ,
		"run_id", result.RunID,
		"rows", result.Rows(),
		"dir", result.Dir)
	return result, nil
}

// denied returns the reason a run may not start, or "" when it may
func (r *Runner) denied(ctx context.Context, account string, typ status.ExportType) (string, error) {
	if typ == status.ExportTypeDelta {
		deny, err := r.delta.ExportDeniedOnAccount(ctx, account)
		if err != nil {
			return "", fmt.Errorf("failed to evaluate delta policy: %w", err)
		}
		if deny {
			return ReasonDeltaNotDue, nil
		}
	}

	allowed, err := r.scheduler.CanStartExport(ctx, typ, account)
	if err != nil {
		return "", err
	}
	if !allowed {
		return ReasonConcurrentRun, nil
	}
	return "", nil
}

func (r *Runner) execute(
	ctx context.Context,
	acc *config.AccountConfig,
	typ status.ExportType,
	since *time.Time,
	startedAt time.Time,
	result *Result,
) error {
	scope := export.Scope{Account: acc.Name, Type: typ, Since: since}

	runCtx, cancel := context.WithTimeout(ctx, r.config.Exporter.GetRunTimeout())
	defer cancel()

	result.RunID = r.newID()
	result.Dir = filepath.Join(r.config.Exporter.GetOutputDir(), acc.Name, result.RunID)
	trace.SpanFromContext(ctx).SetAttributes(otel.AttrRunID.String(result.RunID))

	out, err := sink.NewCSVSink(result.Dir)
	if err != nil {
		return err
	}
	manifest := registrar.NewManifestRegistrar(result.Dir, result.RunID, acc.Name, typ, startedAt)
	exporter := export.NewExporter(out, manifest,
		export.WithStep(r.config.Exporter.GetStep()),
		export.WithLimit(r.config.Exporter.GetLimit()),
		export.WithDataSaveStep(r.config.Exporter.GetDataSaveStep()))

	slog.Info("Export run started",
		"account", acc.Name,
		"type", typ,
		"run_id", result.RunID,
		"components", len(r.components))

	runErr := r.exportComponents(runCtx, exporter, scope, result)

	// Side tables are best-effort and are exported even after a failed component.
	result.Tables = r.exportAuxiliaryTables(runCtx, exporter, acc)

	terminal := status.ExportStatusSuccess
	if runErr != nil {
		terminal = status.ExportStatusFail
	}
	if err := manifest.Finalize(terminal, r.clock.Now()); err != nil {
		runErr = errors.Join(runErr, &Error{Component: "manifest", Err: err})
	}
	return runErr
}

func (r *Runner) exportComponents(
	ctx context.Context,
	exporter *export.Exporter,
	scope export.Scope,
	result *Result,
) error {
	for i := range r.components {
		c := &r.components[i]

		compCtx, span := otel.StartSpan(ctx, r.tracer, "export.component",
			trace.WithAttributes(otel.AttrEntity.String(c.Entity)))
		compResult, err := exporter.ExportComponent(compCtx, c, scope)
		if compResult != nil {
			result.Components = append(result.Components, compResult)
			span.SetAttributes(otel.AttrRows.Int(compResult.Rows()))
			r.metrics.RecordRows(ctx, scope.Account, c.Entity, compResult.Rows())
		}
		otel.RecordError(span, err)
		span.End()

		if err != nil {
			return &Error{Component: c.Entity, Err: err}
		}
	}
	return nil
}

func (r *Runner) exportAuxiliaryTables(
	ctx context.Context,
	exporter *export.Exporter,
	acc *config.AccountConfig,
) []export.TableResult {
	if len(acc.ExtraTables) == 0 {
		return nil
	}
	if r.tables == nil {
		slog.Warn("Auxiliary tables configured without a table reader, skipping", "account", acc.Name)
		return nil
	}

	entities := make([]string, 0, len(acc.ExtraTables))
	for entity := range acc.ExtraTables {
		entities = append(entities, entity)
	}
	slices.Sort(entities)

	var results []export.TableResult
	for _, entity := range entities {
		tableResults := exporter.ExportAuxiliaryTables(ctx, r.tables, acc.Name, entity, acc.ExtraTables[entity])
		for _, tr := range tableResults {
			if tr.Err != nil {
				r.metrics.RecordAuxiliaryFailure(ctx, acc.Name, tr.Table)
			}
		}
		results = append(results, tableResults...)
	}
	return results
}
