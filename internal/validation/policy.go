package validation

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/calculators"
	"github.com/merlin-energy/truequote/internal/engine"
)

// Policy errors.
var (
	ErrInvalidTolerance = errors.New("invalid tolerance")
	ErrInvalidBand      = errors.New("invalid contributor band")
)

// Tolerance is the allowed relative deviation between the contributor sum
// and the peak load before a warning or a failure is raised.
type Tolerance struct {
	Warn float64 `json:"warn" yaml:"warn" mapstructure:"warn"`
	Fail float64 `json:"fail" yaml:"fail" mapstructure:"fail"`
}

// Validate checks 0 < Warn <= Fail.
func (t Tolerance) Validate() error {
	if t.Warn <= 0 || t.Fail <= 0 {
		return fmt.Errorf("%w: warn and fail must be positive, got %g/%g", ErrInvalidTolerance, t.Warn, t.Fail)
	}
	if t.Warn > t.Fail {
		return fmt.Errorf("%w: warn %g exceeds fail %g", ErrInvalidTolerance, t.Warn, t.Fail)
	}
	return nil
}

// Band bounds a contributor's share of peak load. Min and Max are fractions.
type Band struct {
	Contributor string
	Min         float64
	Max         float64
}

// Check is an industry-specific rule evaluated on a load profile and the
// answers that produced it.
type Check func(profile engine.LoadProfile, inputs answers.AnswerSet) []Violation

// Policy holds every threshold the harness applies.
type Policy struct {
	DefaultTolerance Tolerance
	Tolerances       map[string]Tolerance
	Bands            map[string][]Band
	Checks           map[string][]Check

	// Skip lists industries that are known not to have a template yet.
	Skip []string
	// Relaxed lists migrated industries that are still reported but not
	// gated by the strict checks.
	Relaxed []string

	// BandSlack is how far (in share of peak) a contributor may stray outside
	// its band before the violation becomes a failure.
	BandSlack float64

	// Universal mix checks apply only at or above this peak.
	UniversalMinPeakKW float64
	// MinLargestShare is the smallest acceptable share of the largest
	// contributor.
	MinLargestShare float64
	// DominantShare must be exceeded by some contributor once there are
	// DominantMinContributors or more nonzero contributors.
	DominantShare           float64
	DominantMinContributors int
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTolerance: Tolerance{Warn: 0.15, Fail: 0.25},
		Tolerances: map[string]Tolerance{
			"data_center": {Warn: 0.10, Fail: 0.15},
		},
		Bands: map[string][]Band{
			"hotel": {
				{Contributor: calculators.HVAC, Min: 0.30, Max: 0.60},
				{Contributor: calculators.Process, Min: 0.15, Max: 0.35},
			},
			"data_center": {
				{Contributor: calculators.ITLoad, Min: 0.50, Max: 0.90},
				{Contributor: calculators.Cooling, Min: 0.05, Max: 0.45},
			},
			"car_wash": {
				{Contributor: calculators.Process, Min: 0.55, Max: 0.95},
			},
			"ev_charging": {
				{Contributor: calculators.Charging, Min: 0.70, Max: 0.98},
			},
			"hospital": {
				{Contributor: calculators.HVAC, Min: 0.30, Max: 0.55},
				{Contributor: calculators.Process, Min: 0.25, Max: 0.50},
			},
		},
		Checks: map[string][]Check{
			"data_center": {PUETracking(0.10)},
		},
		Skip:                    []string{"airport", "casino", "agriculture"},
		BandSlack:               0.05,
		UniversalMinPeakKW:      50,
		MinLargestShare:         0.10,
		DominantShare:           0.20,
		DominantMinContributors: 4,
	}
}

// Validate checks every tolerance and band.
func (p Policy) Validate() error {
	if err := p.DefaultTolerance.Validate(); err != nil {
		return fmt.Errorf("default tolerance: %w", err)
	}
	for _, id := range slices.Sorted(maps.Keys(p.Tolerances)) {
		if err := p.Tolerances[id].Validate(); err != nil {
			return fmt.Errorf("%s tolerance: %w", id, err)
		}
	}
	for id, bands := range p.Bands {
		for _, b := range bands {
			if b.Contributor == "" || b.Min < 0 || b.Max > 1 || b.Min > b.Max {
				return fmt.Errorf("%w: %s %q [%g, %g]", ErrInvalidBand, id, b.Contributor, b.Min, b.Max)
			}
		}
	}
	if p.BandSlack < 0 {
		return fmt.Errorf("%w: band slack must not be negative", ErrInvalidBand)
	}
	return nil
}

// ToleranceFor returns the tolerance for an industry.
func (p Policy) ToleranceFor(industryID string) Tolerance {
	if t, ok := p.Tolerances[industryID]; ok {
		return t
	}
	return p.DefaultTolerance
}

// Skipped reports whether an industry is on the skip allow-list.
func (p Policy) Skipped(industryID string) bool {
	return containsFold(p.Skip, industryID)
}

// Required reports whether strict checks gate an industry: its calculator
// is migrated and it is not relaxed.
func (p Policy) Required(industryID, version string) bool {
	return version == calculators.VersionV1 && !containsFold(p.Relaxed, industryID)
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), s)
	})
}

// PUETracking checks that observed PUE (peak / IT load) is within limit of
// the answered pue.
func PUETracking(limit float64) Check {
	return func(profile engine.LoadProfile, inputs answers.AnswerSet) []Violation {
		it := profile.KWContributors[calculators.ITLoad]
		if it <= 0 {
			return nil
		}
		want := answers.NewReader(inputs).Float("pue", 0)
		if want <= 0 {
			return nil
		}
		observed := profile.PeakLoadKW / it
		if dev := math.Abs(observed-want) / want; dev > limit {
			return []Violation{{
				Rule:     RulePUE,
				Severity: SeverityFail,
				Message: fmt.Sprintf("observed PUE %.2f differs from input %.2f by %.1f%% (limit %.0f%%)",
					observed, want, dev*100, limit*100),
			}}
		}
		return nil
	}
}
