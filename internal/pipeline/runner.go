// Package pipeline executes catalog phases against a warehouse in the fixed
// drop, create, copy, insert order.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dwhload/internal/catalog"
	"dwhload/internal/logger"
	"dwhload/internal/metrics"
	"dwhload/internal/telemetry"
	"dwhload/pkg/errors"
)

// Executor runs SQL text against the warehouse
type Executor interface {
	ExecuteStatement(ctx context.Context, name, sql string) (int64, error)
	CountRows(ctx context.Context, table string) (int64, error)
}

// Loader fills a staging table from a local source
type Loader interface {
	Load(ctx context.Context, table, source string) (int64, error)
}

// Runner runs catalog phases
type Runner struct {
	exec    Executor
	catalog *catalog.Catalog
	log     *logger.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
	loader  Loader
	runID   string
	dryRun  bool
	noCount bool
}

// Option configures a Runner
type Option func(*Runner)

func WithLogger(log *logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithLoader sets the loader that fills staging tables after the copy
// statements of a dialect without bulk copy.
func WithLoader(l Loader) Option {
	return func(r *Runner) { r.loader = l }
}

func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// WithDryRun records statements without executing them
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithoutRowCounts skips the table row counts at the end of a run
func WithoutRowCounts() Option {
	return func(r *Runner) { r.noCount = true }
}

// New creates a runner. exec may be nil for dry runs.
func New(exec Executor, c *catalog.Catalog, opts ...Option) *Runner {
	r := &Runner{
		exec:    exec,
		catalog: c,
		log:     logger.NewNop(),
		metrics: metrics.NewRecorder(),
		tracer:  telemetry.Tracer(),
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("run_id", r.runID, "dialect", c.Dialect().Name())
	return r
}

// RunID identifies the run in logs, metrics and spans
func (r *Runner) RunID() string {
	return r.runID
}

// Metrics returns the recorder the runner writes to
func (r *Runner) Metrics() *metrics.Recorder {
	return r.metrics
}

// Status of one statement in a report
const (
	StatusOK     = metrics.StatusOK
	StatusFailed = metrics.StatusFailed
	StatusDryRun = metrics.StatusDryRun
)

// StatementResult is the outcome of one catalog statement
type StatementResult struct {
	Name     string
	Phase    catalog.Phase
	Table    string
	SQL      string
	Status   string
	Rows     int64
	Duration time.Duration
	Err      error
}

// Report summarizes a run
type Report struct {
	RunID      string
	DryRun     bool
	Phases     []catalog.Phase
	Statements []StatementResult
	TableRows  map[string]int64
	Started    time.Time
	Duration   time.Duration
}

// Failed returns the failing statement, if any
func (rep *Report) Failed() (StatementResult, bool) {
	return lo.Find(rep.Statements, func(s StatementResult) bool { return s.Status == StatusFailed })
}

// Run executes phases in canonical order, every phase when none is given.
// It stops at the first failing statement; the report covers everything
// that ran up to that point.
func (r *Runner) Run(ctx context.Context, phases ...catalog.Phase) (*Report, error) {
	if r.exec == nil && !r.dryRun {
		return nil, errors.New(errors.ErrCodeNotConnected, "No warehouse connection for a live run")
	}

	ordered, err := orderPhases(phases)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		RunID:   r.runID,
		DryRun:  r.dryRun,
		Phases:  ordered,
		Started: time.Now(),
	}

	ctx, span := r.tracer.Start(ctx, "dwhload.run", trace.WithAttributes(
		attribute.String("dwhload.run_id", r.runID),
		attribute.String("dwhload.dialect", r.catalog.Dialect().Name()),
		attribute.Bool("dwhload.dry_run", r.dryRun),
	))
	defer span.End()

	r.log.Info("run started", "phases", ordered, "dry_run", r.dryRun)

	for _, p := range ordered {
		if err := r.runPhase(ctx, p, rep); err != nil {
			rep.Duration = time.Since(rep.Started)
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
			r.log.Error("run failed", "phase", p, "error", err)
			return rep, err
		}
	}

	if !r.dryRun && !r.noCount && countsAfter(ordered) {
		rep.TableRows = r.countRows(ctx)
	}

	rep.Duration = time.Since(rep.Started)
	r.log.Info("run finished", "statements", len(rep.Statements), "duration", rep.Duration)
	return rep, nil
}

func (r *Runner) runPhase(ctx context.Context, p catalog.Phase, rep *Report) error {
	ctx, span := r.tracer.Start(ctx, "phase "+string(p), trace.WithAttributes(
		attribute.String("dwhload.phase", string(p)),
	))
	defer span.End()

	started := time.Now()
	log := r.log.With("phase", p)
	log.Info("phase started")

	for _, st := range r.catalog.Phase(p) {
		res, err := r.runStatement(ctx, log, st)
		rep.Statements = append(rep.Statements, res)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, st.Name)
			return err
		}
	}

	d := time.Since(started)
	if !r.dryRun {
		r.metrics.ObservePhase(string(p), d)
	}
	log.Info("phase finished", "duration", d)
	return nil
}

func (r *Runner) runStatement(ctx context.Context, log *logger.Logger, st catalog.Statement) (StatementResult, error) {
	res := StatementResult{Name: st.Name, Phase: st.Phase, Table: st.Table, SQL: st.SQL}
	log = log.With("statement", st.Name, "table", st.Table)

	if err := ctx.Err(); err != nil {
		res.Status = StatusFailed
		res.Err = errors.Wrap(err, errors.ErrCodeCanceled, "Run canceled").
			WithContext("statement", st.Name)
		return res, res.Err
	}

	if r.dryRun {
		res.Status = StatusDryRun
		r.metrics.ObserveStatement(string(st.Phase), st.Name, StatusDryRun, 0)
		log.Debug("dry run", "sql", st.SQL)
		return res, nil
	}

	ctx, span := r.tracer.Start(ctx, st.Name, trace.WithAttributes(
		attribute.String("dwhload.statement", st.Name),
		attribute.String("dwhload.table", st.Table),
		attribute.String("db.system", r.catalog.Dialect().Name()),
	))
	defer span.End()

	log.Debug("executing statement", "sql", st.SQL)
	started := time.Now()

	rows, err := r.exec.ExecuteStatement(ctx, st.Name, st.SQL)
	if err == nil && r.needsLocalLoad(st) {
		var loaded int64
		loaded, err = r.loader.Load(ctx, st.Table, st.Source)
		rows += loaded
		if err != nil {
			err = errors.Wrap(err, errors.GetErrorCode(err), fmt.Sprintf("Staging load for %s failed", st.Name)).
				WithContext("statement", st.Name).
				WithContext("source", st.Source)
		}
	}

	res.Duration = time.Since(started)
	res.Rows = rows

	if err != nil {
		res.Status = StatusFailed
		res.Err = withPhase(err, st.Phase)
		r.metrics.ObserveStatement(string(st.Phase), st.Name, StatusFailed, res.Duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, "statement failed")
		log.Error("statement failed", "duration", res.Duration, "error", err)
		return res, res.Err
	}

	res.Status = StatusOK
	r.metrics.ObserveStatement(string(st.Phase), st.Name, StatusOK, res.Duration)
	span.SetAttributes(attribute.Int64("dwhload.rows", rows))
	log.Info("statement finished", "duration", res.Duration, "rows", rows)
	return res, nil
}

func (r *Runner) needsLocalLoad(st catalog.Statement) bool {
	return st.Phase == catalog.PhaseCopy && r.loader != nil && !r.catalog.Dialect().BulkCopy()
}

func (r *Runner) countRows(ctx context.Context) map[string]int64 {
	counts := make(map[string]int64, len(catalog.Tables()))
	for _, t := range catalog.Tables() {
		n, err := r.exec.CountRows(ctx, t.Name)
		if err != nil {
			r.log.Warn("row count failed", "table", t.Name, "error", err)
			continue
		}
		counts[t.Name] = n
		r.metrics.SetTableRows(t.Name, n)
	}
	return counts
}

func withPhase(err error, p catalog.Phase) error {
	var ae *errors.AppError
	if errors.As(err, &ae) {
		ae.WithContext("phase", string(p))
		return ae
	}
	return errors.Wrap(err, errors.ErrCodeSQLExecution, "Statement failed").WithContext("phase", string(p))
}

// countsAfter reports whether the tables exist once the phases ran
func countsAfter(phases []catalog.Phase) bool {
	return phases[len(phases)-1] != catalog.PhaseDrop
}

func orderPhases(phases []catalog.Phase) ([]catalog.Phase, error) {
	if len(phases) == 0 {
		return append([]catalog.Phase(nil), catalog.Phases...), nil
	}
	for _, p := range phases {
		if p.Order() < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("Unknown phase %q", p))
		}
	}
	out := lo.Uniq(phases)
	sort.Slice(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out, nil
}
