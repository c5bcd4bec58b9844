package calculators

import (
	"github.com/merlin-energy/truequote/internal/answers"
)

var hospitalKWPerBed = map[string]float64{
	"community": 8,
	"regional":  10,
	"academic":  12,
}

var hospitalSplit = map[string]float64{
	HVAC:     0.42,
	Process:  0.33,
	Lighting: 0.15,
	Controls: 0.10,
}

const (
	hospitalImagingKW = 150
	hospitalDiversity = 0.90
)

var hospitalShapes = map[string]shape{
	HVAC:     {BaseFraction: 0.60, LoadFactor: 0.75},
	Process:  {BaseFraction: 0.55, LoadFactor: 0.70},
	Lighting: {BaseFraction: 0.50, LoadFactor: 0.70},
	Controls: {BaseFraction: 1.00, LoadFactor: 1.00},
}

// Hospital sizes by licensed beds and hospital type, plus imaging suites.
func Hospital(r *answers.Reader) (Result, error) {
	beds, err := r.Count("beds", 200)
	if err != nil {
		return Result{}, err
	}
	kind, err := r.Enum("hospitalType", "regional", "community", "regional", "academic")
	if err != nil {
		return Result{}, err
	}
	imaging := r.Bool("hasImaging", true)

	p := newProfile(operatingHours(r, 24), hospitalDiversity, hospitalShapes)
	if beds == 0 {
		return p.finish(r)
	}

	total := float64(beds) * hospitalKWPerBed[kind]
	for name, share := range hospitalSplit {
		p.add(name, total*share)
	}
	if imaging {
		p.add(Process, hospitalImagingKW)
	}

	return p.finish(r)
}
