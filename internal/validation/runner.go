// Package validation is the TrueQuote harness. It runs a fixture request per
// industry through both quote layers, applies the physical and per-industry
// checks of a Policy, and reports one status row per industry.
package validation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/calculators"
	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/engine/batch"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/templates"
)

// RowRecorder observes finished rows.
type RowRecorder interface {
	ObserveRow(industryID string, status Status)
}

// Runner executes harness runs. It holds no per-run state.
type Runner struct {
	engine      *engine.Engine
	policy      Policy
	parallelism int
	recorder    RowRecorder
	progress    func(Progress)
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallelism runs up to n industries at once. Rows keep their order.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		r.parallelism = n
	}
}

// WithRecorder reports every row to rec.
func WithRecorder(rec RowRecorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// Progress reports how far a harness run has got.
type Progress struct {
	Done     int
	Total    int
	Percent  float64
	Elapsed  time.Duration
	Complete bool
}

// WithProgress calls fn after each industry finishes. fn may be called
// from several goroutines when parallelism is above one.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a harness over eng with the given policy.
func NewRunner(eng *engine.Engine, policy Policy, opts ...Option) (*Runner, error) {
	if eng == nil {
		return nil, errors.New("validation: engine is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{engine: eng, policy: policy, parallelism: batch.Sequential, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallelism < batch.Sequential {
		r.parallelism = batch.Sequential
	}
	r.parallelism = min(r.parallelism, batch.MaxConcurrency)
	return r, nil
}

// DefaultIndustries returns every industry a run covers when none are
// named: all templates, all fixtures and the skip list, sorted.
func (r *Runner) DefaultIndustries(fixtures Fixtures) []string {
	set := map[string]struct{}{}
	for _, id := range r.engine.Templates().IDs() {
		set[id] = struct{}{}
	}
	for id := range fixtures {
		set[id] = struct{}{}
	}
	for _, id := range r.policy.Skip {
		set[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Validate runs each industry and returns the report. An error is returned
// only when the run itself cannot complete (e.g. ctx is cancelled); problems
// with individual industries are reported as rows.
func (r *Runner) Validate(ctx context.Context, industryIDs []string, fixtures Fixtures) (*Report, error) {
	log := logging.FromContext(ctx)

	if len(industryIDs) == 0 {
		industryIDs = r.DefaultIndustries(fixtures)
	}
	industryIDs = dedupe(industryIDs)

	report := &Report{
		RunID:       ulid.Make().String(),
		GeneratedAt: r.now().UTC().Truncate(time.Second),
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "validation").
		Str("operation", "validate").
		Str("run_id", report.RunID).
		Int("industry_count", len(industryIDs)).
		Int("parallelism", r.parallelism).
		Msg("starting harness run")

	if len(industryIDs) == 0 {
		report.Summary = summarize(nil)
		return report, nil
	}

	runner, err := batch.NewRunner[string, Row](r.parallelism)
	if err != nil {
		return nil, err
	}
	if r.progress != nil {
		runner.WithProgressCallback(func(p *batch.Progress) {
			r.progress(Progress{
				Done:     p.Completed(),
				Total:    p.Total(),
				Percent:  p.PercentComplete(),
				Elapsed:  p.Elapsed(),
				Complete: p.IsComplete(),
			})
		})
	}
	rows, err := runner.Run(ctx, industryIDs, func(ctx context.Context, _ int, id string) (Row, error) {
		if err := ctx.Err(); err != nil {
			return Row{}, err
		}
		row := r.evaluate(ctx, id, fixtures.For(id))
		if r.recorder != nil {
			r.recorder.ObserveRow(row.IndustryID, row.Status)
		}
		return row, nil
	})
	if err != nil {
		return nil, fmt.Errorf("harness run %s: %w", report.RunID, err)
	}

	report.Rows = rows
	report.Summary = summarize(rows)

	log.Info().
		Ctx(ctx).
		Str("component", "validation").
		Str("run_id", report.RunID).
		Str("worst", string(report.Summary.Worst)).
		Int("fail", report.Summary.Counts[StatusFail]).
		Int("crash", report.Summary.Counts[StatusCrash]).
		Msg("harness run complete")

	return report, nil
}

// evaluate produces the row for one industry. Panics become CRASH rows.
func (r *Runner) evaluate(ctx context.Context, id string, fx Fixture) (row Row) {
	row = Row{IndustryID: id}
	defer func() {
		if p := recover(); p != nil {
			row = Row{IndustryID: id, Status: StatusCrash, Error: fmt.Sprintf("panic: %v", p)}
		}
	}()

	fx.IndustryID = id
	resp, err := r.engine.Quote(ctx, fx.Request())
	if err != nil {
		return r.errorRow(id, err)
	}

	row.Version = resp.Trace.Version
	row.Required = r.policy.Required(id, resp.Trace.Version)
	row.LoadProfile = &resp.LoadProfile
	row.Pricing = resp.Pricing
	row.Fallbacks = resp.Trace.InputFallbacks
	row.Warnings = slices.Clone(resp.Trace.Warnings)

	for _, failure := range resp.Trace.HardFailures {
		row.Violations = append(row.Violations, Violation{Rule: RuleGlobal, Severity: SeverityFail, Message: failure})
	}

	if !resp.Trace.HardFailed() {
		strict := checkSum(resp.LoadProfile, r.policy.ToleranceFor(id))
		strict = append(strict, checkBands(resp.LoadProfile, r.policy.Bands[id], r.policy.BandSlack)...)
		strict = append(strict, checkUniversal(resp.LoadProfile, r.policy)...)
		for _, check := range r.policy.Checks[id] {
			strict = append(strict, check(resp.LoadProfile, resp.Trace.InputsUsed)...)
		}
		if resp.Pricing != nil {
			row.Warnings = append(row.Warnings, resp.Pricing.Warnings...)
			if !resp.Pricing.ROIYears.Defined() {
				strict = append(strict, Violation{
					Rule:     RuleROI,
					Severity: SeverityFail,
					Message:  fmt.Sprintf("payback is undefined with annual savings of $%s", resp.Pricing.AnnualSavingsUSD.StringFixed(2)),
				})
			}
		}
		if !row.Required {
			for i := range strict {
				strict[i].Severity = SeverityWarn
			}
		}
		row.Violations = append(row.Violations, strict...)
	}

	row.Status = settle(row)
	return row
}

// errorRow classifies an engine error.
func (r *Runner) errorRow(id string, err error) Row {
	row := Row{IndustryID: id, Error: err.Error()}
	var inputErr *answers.InputError

	switch {
	case errors.Is(err, templates.ErrTemplateNotFound) && r.policy.Skipped(id):
		row.Status = StatusSkip
	case errors.Is(err, templates.ErrTemplateNotFound), errors.Is(err, calculators.ErrCalculatorNotFound):
		row.Status = StatusFail
		row.Violations = []Violation{{Rule: RuleConfiguration, Severity: SeverityFail, Message: err.Error()}}
	case errors.As(err, &inputErr):
		row.Status = StatusFail
		row.Violations = []Violation{{Rule: RuleInput, Severity: SeverityFail, Message: err.Error()}}
	case errors.Is(err, pricing.ErrUnitCostNotFound), errors.Is(err, pricing.ErrNoLoad):
		row.Status = StatusFail
		row.Violations = []Violation{{Rule: RulePricing, Severity: SeverityFail, Message: err.Error()}}
	default:
		row.Status = StatusCrash
	}
	return row
}

// settle derives a row status from its violations and trace.
func settle(row Row) Status {
	status := StatusPass
	for _, v := range row.Violations {
		if v.Severity == SeverityFail {
			status = Worst(status, StatusFail)
		} else {
			status = Worst(status, StatusPassWarn)
		}
	}
	if len(row.Warnings) > 0 || len(row.Fallbacks) > 0 || !row.Required {
		status = Worst(status, StatusPassWarn)
	}
	return status
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
