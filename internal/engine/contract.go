package engine

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/templates"
)

// Hard failure messages. Each is reported with the offending numbers appended.
const (
	FailureZeroPeak    = "Peak load is ZERO"
	FailurePeakBelow   = "Peak < Base"
	FailureEnergyAbove = "Energy > peak×24h"
)

// invariantEpsilon absorbs float rounding when a profile sits exactly on an
// invariant boundary (e.g. a flat 24h load).
const invariantEpsilon = 1e-9

// Request is a quote request.
type Request struct {
	IndustryID    string            `json:"industryId"`
	Answers       answers.AnswerSet `json:"answers"`
	LocationZip   string            `json:"locationZip,omitempty"`
	LocationState string            `json:"locationState,omitempty"`
}

// LoadProfile is the physical result of a contract quote.
type LoadProfile struct {
	BaseLoadKW      float64            `json:"baseLoadKW"`
	PeakLoadKW      float64            `json:"peakLoadKW"`
	EnergyKWhPerDay float64            `json:"energyKWhPerDay"`
	KWContributors  map[string]float64 `json:"kWContributors"`
}

// Trace records how a load profile was produced.
type Trace struct {
	InputsUsed     answers.AnswerSet `json:"inputsUsed"`
	InputFallbacks map[string]any    `json:"inputFallbacks"`
	Warnings       []string          `json:"warnings"`
	HardFailures   []string          `json:"hardFailures,omitempty"`
	// Version is "v1" for migrated calculators and empty for legacy ones.
	Version string `json:"version,omitempty"`
}

// HardFailed reports whether a global invariant was violated.
func (t *Trace) HardFailed() bool {
	return len(t.HardFailures) > 0
}

// Site holds the resolved site and tariff answers the pricing layer prices
// against. Grid capacity is answered in MW and held in kW.
type Site struct {
	GridConnection  string  `json:"gridConnection"`
	GridCapacityKW  float64 `json:"gridCapacityKW"`
	ElectricityRate float64 `json:"electricityRate"`
	DemandCharge    float64 `json:"demandCharge"`
	IncludeSolar    bool    `json:"includeSolar"`
	GridServices    bool    `json:"gridServices"`
}

// ContractResult is the output of RunContractQuote.
type ContractResult struct {
	IndustryID   string      `json:"industryId"`
	CalculatorID string      `json:"calculatorId"`
	LoadProfile  LoadProfile `json:"loadProfile"`
	Site         Site        `json:"site"`
	Trace        Trace       `json:"trace"`
}

// RunContractQuote resolves the template for req, fills missing answers with
// template defaults, runs the industry calculator and checks the global
// invariants.
//
// Unknown industries and calculators, and structurally invalid answers, are
// returned as errors. Invariant violations are not errors: they are recorded
// in Trace.HardFailures and block pricing.
func (e *Engine) RunContractQuote(ctx context.Context, req Request) (*ContractResult, error) {
	log := logging.FromContext(ctx)

	tpl, err := e.templates.GetTemplate(req.IndustryID)
	if err != nil {
		return nil, err
	}
	calc, err := e.calculators.Lookup(tpl.CalculatorID)
	if err != nil {
		return nil, fmt.Errorf("industry %q: %w", tpl.IndustryID, err)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "contract_quote").
		Str("industry", tpl.IndustryID).
		Str("calculator", calc.ID).
		Int("answer_count", len(req.Answers)).
		Msg("starting contract quote")

	resolved, defaults, fallbacks, notes := e.resolveAnswers(tpl, req)

	reader := answers.NewReader(resolved).WithDefaults(defaults)
	res, err := calc.Compute(reader)
	if err != nil {
		return nil, fmt.Errorf("industry %q: %w", tpl.IndustryID, err)
	}
	site, err := resolveSite(reader)
	if err != nil {
		return nil, fmt.Errorf("industry %q: %w", tpl.IndustryID, err)
	}
	readerFallbacks := reader.Fallbacks()
	for _, name := range slices.Sorted(maps.Keys(readerFallbacks)) {
		if _, seen := fallbacks[name]; seen {
			continue
		}
		def := readerFallbacks[name]
		fallbacks[name] = def
		if req.Answers.Has(name) {
			notes = append(notes, fmt.Sprintf("%s: could not use %v, default %v applied", name, req.Answers[name], def))
		}
	}

	out := &ContractResult{
		IndustryID:   tpl.IndustryID,
		CalculatorID: calc.ID,
		LoadProfile: LoadProfile{
			BaseLoadKW:      res.BaseLoadKW,
			PeakLoadKW:      res.PeakLoadKW,
			EnergyKWhPerDay: res.EnergyKWhPerDay,
			KWContributors:  maps.Clone(res.Contributors),
		},
		Site: site,
		Trace: Trace{
			InputsUsed:     resolved,
			InputFallbacks: fallbacks,
			Warnings:       append(append([]string{}, notes...), res.Notes...),
			Version:        calc.Version,
		},
	}
	if out.LoadProfile.KWContributors == nil {
		out.LoadProfile.KWContributors = map[string]float64{}
	}

	for _, failure := range CheckInvariants(out.LoadProfile) {
		out.Trace.HardFailures = append(out.Trace.HardFailures, failure)
		out.Trace.Warnings = append(out.Trace.Warnings, failure)
	}

	if out.Trace.HardFailed() {
		log.Warn().
			Ctx(ctx).
			Str("component", "engine").
			Str("industry", tpl.IndustryID).
			Strs("hard_failures", out.Trace.HardFailures).
			Msg("load profile violates global invariants")
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "engine").
		Str("operation", "contract_quote").
		Str("industry", tpl.IndustryID).
		Float64("peak_kw", res.PeakLoadKW).
		Float64("base_kw", res.BaseLoadKW).
		Float64("energy_kwh_day", res.EnergyKWhPerDay).
		Int("fallback_count", len(fallbacks)).
		Msg("contract quote complete")

	return out, nil
}

// resolveAnswers copies req.Answers and substitutes the template default for
// every expected field that is missing. Tariff fields default to the state's
// utility rate when the state is known to the pricing table. It also returns
// the effective per-field defaults and a note for every required field that
// went unanswered.
func (e *Engine) resolveAnswers(tpl *templates.IndustryTemplate, req Request) (resolved, defaults answers.AnswerSet, fallbacks map[string]any, notes []string) {
	resolved = req.Answers.Clone()
	defaults = tpl.Defaults()
	fallbacks = map[string]any{}

	if rate, ok := e.pricing.RateFor(req.LocationState); ok {
		defaults[templates.FieldElectricityRate] = rate.Electricity
		defaults[templates.FieldDemandCharge] = rate.Demand
	}

	for _, f := range tpl.ExpectedFields {
		if resolved.Has(f.Name) {
			continue
		}
		def := defaults[f.Name]
		if def == nil {
			if f.Required {
				notes = append(notes, fmt.Sprintf("%s: required answer missing and has no default", f.Name))
			}
			continue
		}
		if f.Required {
			notes = append(notes, fmt.Sprintf("%s: required answer missing, default %v applied", f.Name, def))
		}
		resolved[f.Name] = def
		fallbacks[f.Name] = def
	}
	return resolved, defaults, fallbacks, notes
}

// resolveSite reads the site and tariff answers. An unknown grid connection
// and negative rates are input errors; unparseable values fall back to their
// defaults and are recorded by r.
func resolveSite(r *answers.Reader) (Site, error) {
	grid, err := r.Enum(templates.FieldGridConnection, templates.GridReliable, templates.GridConnections...)
	if err != nil {
		return Site{}, err
	}
	capacityMW, err := r.NonNegative(templates.FieldGridCapacity, 0)
	if err != nil {
		return Site{}, err
	}
	rate, err := r.NonNegative(templates.FieldElectricityRate, 0)
	if err != nil {
		return Site{}, err
	}
	demand, err := r.NonNegative(templates.FieldDemandCharge, 0)
	if err != nil {
		return Site{}, err
	}
	return Site{
		GridConnection:  grid,
		GridCapacityKW:  capacityMW * 1000,
		ElectricityRate: rate,
		DemandCharge:    demand,
		IncludeSolar:    r.Bool(templates.FieldIncludeSolar, false),
		GridServices:    r.Bool(templates.FieldGridServices, false),
	}, nil
}

// CheckInvariants returns the global invariant violations of p, each message
// carrying the numbers that triggered it. A nil result means p is physically
// plausible.
func CheckInvariants(p LoadProfile) []string {
	var failures []string

	if !(p.PeakLoadKW > 0) || math.IsInf(p.PeakLoadKW, 0) {
		failures = append(failures, fmt.Sprintf("%s (peak %.1f kW)", FailureZeroPeak, p.PeakLoadKW))
	}
	if p.BaseLoadKW > p.PeakLoadKW*(1+invariantEpsilon)+invariantEpsilon {
		failures = append(failures, fmt.Sprintf("%s (peak %.1f kW, base %.1f kW)",
			FailurePeakBelow, p.PeakLoadKW, p.BaseLoadKW))
	}
	maxEnergy := p.PeakLoadKW * 24
	if p.EnergyKWhPerDay > maxEnergy*(1+invariantEpsilon)+invariantEpsilon {
		failures = append(failures, fmt.Sprintf("%s (energy %.1f kWh/day, peak×24 %.1f kWh)",
			FailureEnergyAbove, p.EnergyKWhPerDay, maxEnergy))
	}
	return failures
}
