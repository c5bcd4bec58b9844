package calculators

import (
	"github.com/merlin-energy/truequote/internal/answers"
)

// Facility overhead (PUE − 1) split by end use.
var dataCenterOverheadSplit = map[string]float64{
	Cooling:     0.80,
	PowerLosses: 0.15,
	Lighting:    0.05,
}

var dataCenterShapes = map[string]shape{
	ITLoad:      {BaseFraction: 0.85, LoadFactor: 0.90},
	Cooling:     {BaseFraction: 0.60, LoadFactor: 0.75},
	PowerLosses: {BaseFraction: 0.85, LoadFactor: 0.90},
	Lighting:    {BaseFraction: 0.30, LoadFactor: 0.50},
}

// PUE bounds accepted by DataCenter.
const (
	MinPUE = 1.0
	MaxPUE = 3.0
)

// DataCenter derives IT load from racks (or a measured itLoadKW) and adds
// facility overhead so that peak = itLoad × pue exactly.
func DataCenter(r *answers.Reader) (Result, error) {
	racks, err := r.Count("rackCount", 100)
	if err != nil {
		return Result{}, err
	}
	perRack, err := r.NonNegative("kWPerRack", 8)
	if err != nil {
		return Result{}, err
	}
	measured, err := r.NonNegative("itLoadKW", 0)
	if err != nil {
		return Result{}, err
	}
	pue := r.Float("pue", 1.5)
	if pue < MinPUE || pue > MaxPUE {
		return Result{}, answers.Invalid("pue", pue, "must be between %.1f and %.1f", MinPUE, MaxPUE)
	}

	itLoad := float64(racks) * perRack
	if measured > 0 {
		itLoad = measured
	}

	p := newProfile(operatingHours(r, 24), 1.0, dataCenterShapes)
	if itLoad == 0 {
		return p.finish(r)
	}

	p.add(ITLoad, itLoad)
	overhead := itLoad * (pue - 1)
	for name, share := range dataCenterOverheadSplit {
		p.add(name, overhead*share)
	}

	return p.finish(r)
}
