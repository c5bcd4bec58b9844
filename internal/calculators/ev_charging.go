package calculators

import (
	"github.com/merlin-energy/truequote/internal/answers"
)

// Charger nameplate ratings in kW.
const (
	Level2KW = 7.2
	DCFCKW   = 50.0
	HPCKW    = 250.0
)

var evShapes = map[string]shape{
	Charging: {BaseFraction: 0.05, LoadFactor: 0.35},
	HVAC:     {BaseFraction: 0.30, LoadFactor: 0.60},
	Lighting: {BaseFraction: 0.60, LoadFactor: 0.80},
	Controls: {BaseFraction: 1.00, LoadFactor: 1.00},
}

// EVCharging sums charger ratings scaled by simultaneity and adds the
// site's own small loads.
func EVCharging(r *answers.Reader) (Result, error) {
	l2, err := r.Count("level2Chargers", 8)
	if err != nil {
		return Result{}, err
	}
	dcfc, err := r.Count("dcfcChargers", 4)
	if err != nil {
		return Result{}, err
	}
	hpc, err := r.Count("hpcChargers", 0)
	if err != nil {
		return Result{}, err
	}
	simultaneity, err := r.Ratio("simultaneity", 0.7)
	if err != nil {
		return Result{}, err
	}

	p := newProfile(operatingHours(r, 18), 1.0, evShapes)
	chargers := float64(l2 + dcfc + hpc)
	if chargers == 0 {
		return p.finish(r)
	}

	nameplate := float64(l2)*Level2KW + float64(dcfc)*DCFCKW + float64(hpc)*HPCKW
	p.add(Charging, nameplate*simultaneity)
	p.add(HVAC, 4)
	p.add(Lighting, 3+0.5*chargers)
	p.add(Controls, 2+0.25*chargers)

	return p.finish(r)
}
