package calculators

import (
	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/templates"
)

// Connected load density in W per sq ft.
var commercialWattsPerSqFt = map[string]float64{
	"office":    6.0,
	"retail":    5.0,
	"warehouse": 2.5,
}

var commercialSplit = map[string]map[string]float64{
	"office":    {HVAC: 0.45, Lighting: 0.25, Process: 0.22, Controls: 0.08},
	"retail":    {HVAC: 0.40, Lighting: 0.35, Process: 0.18, Controls: 0.07},
	"warehouse": {HVAC: 0.25, Lighting: 0.40, Process: 0.28, Controls: 0.07},
}

var commercialShapes = map[string]shape{
	HVAC:     {BaseFraction: 0.25, LoadFactor: 0.75},
	Lighting: {BaseFraction: 0.15, LoadFactor: 0.85},
	Process:  {BaseFraction: 0.20, LoadFactor: 0.70},
	Controls: {BaseFraction: 0.90, LoadFactor: 1.00},
}

// CommercialBuilding is the legacy floor-area estimate shared by office,
// retail and warehouse templates.
func CommercialBuilding(r *answers.Reader) (Result, error) {
	kind, err := r.Enum("buildingType", "office", "office", "retail", "warehouse")
	if err != nil {
		return Result{}, err
	}
	area, err := r.NonNegative(templates.FieldFacilitySize, 10000)
	if err != nil {
		return Result{}, err
	}

	p := newProfile(operatingHours(r, 12), 1.0, commercialShapes)
	total := area * commercialWattsPerSqFt[kind] / 1000
	for name, share := range commercialSplit[kind] {
		p.add(name, total*share)
	}

	return p.finish(r)
}
