package calculators

import (
	"fmt"
	"maps"
	"slices"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/templates"
)

const hoursPerDay = 24

// shape describes how a contributor behaves over a day. BaseFraction is the
// share of its connected kW drawn outside operating hours; LoadFactor is the
// average share drawn during them.
type shape struct {
	BaseFraction float64
	LoadFactor   float64
}

// profile accumulates connected kW per contributor and folds it into a
// load profile:
//
//	peak   = d · Σ kW
//	base   = d · Σ kW·baseFraction
//	energy = d · Σ kW·(hours·loadFactor + (24−hours)·baseFraction)
//
// where d is the family's diversity (coincidence) factor. Contributors are
// reported undiversified, so their sum exceeds peak by 1/d − 1.
type profile struct {
	hours     float64
	diversity float64
	shapes    map[string]shape
	kw        map[string]float64
}

func newProfile(hours, diversity float64, shapes map[string]shape) *profile {
	return &profile{
		hours:     hours,
		diversity: diversity,
		shapes:    maps.Clone(shapes),
		kw:        make(map[string]float64, len(shapes)),
	}
}

// add accumulates kW onto name. Names without a shape use base 0 and a
// load factor of 1.
func (p *profile) add(name string, kw float64) {
	p.kw[name] += kw
}

// setShape overrides the shape of name, e.g. a duty cycle known only at
// runtime.
func (p *profile) setShape(name string, s shape) {
	p.shapes[name] = s
}

// compute folds contributors in sorted order so repeated runs are
// bit-identical.
func (p *profile) compute() Result {
	var peak, base, energy float64
	contributors := make(map[string]float64, len(p.kw))

	for _, name := range slices.Sorted(maps.Keys(p.kw)) {
		kw := p.kw[name]
		s, ok := p.shapes[name]
		if !ok {
			s = shape{LoadFactor: 1}
		}
		contributors[name] = kw
		peak += kw
		base += kw * s.BaseFraction
		energy += kw * (p.hours*s.LoadFactor + (hoursPerDay-p.hours)*s.BaseFraction)
	}

	return Result{
		BaseLoadKW:      base * p.diversity,
		PeakLoadKW:      peak * p.diversity,
		EnergyKWhPerDay: energy * p.diversity,
		Contributors:    contributors,
	}
}

// finish computes the result and applies the universal peakLoad override
// (MW; 0 means none) by scaling every contributor proportionally.
func (p *profile) finish(r *answers.Reader) (Result, error) {
	overrideMW, err := r.NonNegative(templates.FieldPeakLoad, 0)
	if err != nil {
		return Result{}, err
	}

	res := p.compute()
	if overrideMW == 0 {
		return res, nil
	}

	target := overrideMW * 1000
	if res.PeakLoadKW == 0 {
		res.Notes = append(res.Notes,
			fmt.Sprintf("peakLoad override of %.0f kW ignored: calculated load is zero", target))
		return res, nil
	}

	scale := target / res.PeakLoadKW
	for name := range p.kw {
		p.kw[name] *= scale
	}
	calculated := res.PeakLoadKW
	res = p.compute()
	res.Notes = append(res.Notes,
		fmt.Sprintf("peakLoad override applied: calculated %.1f kW scaled to %.1f kW", calculated, target))
	return res, nil
}

// operatingHours reads the universal operating-hours answer.
func operatingHours(r *answers.Reader, def float64) float64 {
	return r.Hours(templates.FieldOperatingHours, def)
}
