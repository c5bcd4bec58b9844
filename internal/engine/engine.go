// Package engine runs TrueQuote requests end to end.
//
// A quote has two layers. The contract layer (RunContractQuote) turns
// questionnaire answers into a LoadProfile using the industry template and
// calculator, then checks the global physical invariants. The pricing layer
// sizes and prices equipment for that profile; it is skipped whenever the
// contract layer reports a hard failure.
//
// The engine holds only read-only registries and tables, so one Engine may
// serve concurrent requests.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merlin-energy/truequote/internal/calculators"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/templates"
)

// Quote outcomes reported to a Recorder.
const (
	OutcomePriced      = "priced"
	OutcomeHardFailure = "hard_failure"
	OutcomeError       = "error"
)

// Recorder observes completed quotes.
type Recorder interface {
	ObserveQuote(industryID, outcome string, elapsed time.Duration)
}

// Response is the result of a full quote. Pricing is nil when the load
// profile hard-failed.
type Response struct {
	QuoteID     string          `json:"quoteId"`
	IndustryID  string          `json:"industryId"`
	LoadProfile LoadProfile     `json:"loadProfile"`
	Trace       Trace           `json:"trace"`
	Pricing     *pricing.Result `json:"pricing,omitempty"`
}

// Engine orchestrates contract and pricing quotes.
type Engine struct {
	templates   *templates.Registry
	calculators *calculators.Registry
	pricing     *pricing.Table
	sink        TraceSink
	recorder    Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithCalculators replaces the built-in calculator registry.
func WithCalculators(r *calculators.Registry) Option {
	return func(e *Engine) {
		e.calculators = r
	}
}

// WithTraceSink sends every completed response to sink.
func WithTraceSink(sink TraceSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithRecorder reports quote outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// New creates an Engine over a template registry and pricing table.
//
// Example:
//
//	eng, err := engine.New(registry, table,
//	    engine.WithTraceSink(engine.NewJSONLSink(f)),
//	)
func New(tpl *templates.Registry, table *pricing.Table, opts ...Option) (*Engine, error) {
	if tpl == nil {
		return nil, errors.New("engine: template registry is required")
	}
	if table == nil {
		return nil, errors.New("engine: pricing table is required")
	}
	e := &Engine{templates: tpl, pricing: table}
	for _, opt := range opts {
		opt(e)
	}
	if e.calculators == nil {
		e.calculators = calculators.Builtin()
	}
	return e, nil
}

// Templates returns the template registry.
func (e *Engine) Templates() *templates.Registry { return e.templates }

// Pricing returns the pricing table.
func (e *Engine) Pricing() *pricing.Table { return e.pricing }

// Quote runs the contract layer and, unless it hard-failed, the pricing
// layer.
func (e *Engine) Quote(ctx context.Context, req Request) (*Response, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	cr, err := e.RunContractQuote(ctx, req)
	if err != nil {
		e.observe(req.IndustryID, OutcomeError, start)
		return nil, err
	}

	resp := &Response{
		QuoteID:     uuid.NewString(),
		IndustryID:  cr.IndustryID,
		LoadProfile: cr.LoadProfile,
		Trace:       cr.Trace,
	}

	outcome := OutcomeHardFailure
	if !cr.Trace.HardFailed() {
		p, err := e.pricing.Quote(ctx, PricingInput(cr, req.LocationState))
		if err != nil {
			e.observe(cr.IndustryID, OutcomeError, start)
			return nil, fmt.Errorf("pricing %q: %w", cr.IndustryID, err)
		}
		resp.Pricing = p
		outcome = OutcomePriced
	}
	e.observe(cr.IndustryID, outcome, start)

	if e.sink != nil {
		if err := e.sink.Record(ctx, resp); err != nil {
			log.Warn().Ctx(ctx).Str("component", "engine").Err(err).Msg("trace sink failed")
		}
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "quote").
		Str("quote_id", resp.QuoteID).
		Str("industry", resp.IndustryID).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("quote complete")

	return resp, nil
}

func (e *Engine) observe(industryID, outcome string, start time.Time) {
	if e.recorder != nil {
		e.recorder.ObserveQuote(industryID, outcome, time.Since(start))
	}
}

// PricingInput maps a contract result onto the pricing layer's input.
func PricingInput(cr *ContractResult, state string) pricing.Input {
	return pricing.Input{
		PeakLoadKW:      cr.LoadProfile.PeakLoadKW,
		BaseLoadKW:      cr.LoadProfile.BaseLoadKW,
		EnergyKWhPerDay: cr.LoadProfile.EnergyKWhPerDay,
		GridConnection:  cr.Site.GridConnection,
		GridCapacityKW:  cr.Site.GridCapacityKW,
		ElectricityRate: cr.Site.ElectricityRate,
		DemandCharge:    cr.Site.DemandCharge,
		IncludeSolar:    cr.Site.IncludeSolar,
		GridServices:    cr.Site.GridServices,
		State:           state,
	}
}
