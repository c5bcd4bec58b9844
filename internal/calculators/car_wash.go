package calculators

import (
	"math"

	"github.com/merlin-energy/truequote/internal/answers"
)

// carWashEquipment is the connected kW of one wash unit and how many
// vehicles it handles per hour at full duty.
type carWashEquipment struct {
	pumpsKW    float64
	dryersKW   float64
	conveyorKW float64
	vacuumKW   float64
	perHour    float64
}

func (e carWashEquipment) processKW() float64 {
	return e.pumpsKW + e.dryersKW + e.conveyorKW + e.vacuumKW
}

var carWashTypes = map[string]carWashEquipment{
	"tunnel":           {pumpsKW: 45, dryersKW: 82.5, conveyorKW: 15, perHour: 100},
	"in_bay_automatic": {pumpsKW: 22, dryersKW: 30, perHour: 10},
	"self_serve":       {pumpsKW: 11, vacuumKW: 3.7, perHour: 4},
}

const carWashWaterHeatingKW = 18

var carWashShapes = map[string]shape{
	HVAC:     {BaseFraction: 0.30, LoadFactor: 0.60},
	Lighting: {BaseFraction: 0.50, LoadFactor: 0.90},
	Controls: {BaseFraction: 1.00, LoadFactor: 1.00},
	// Process load factor is the duty cycle, set per request.
	Process: {BaseFraction: 0.02},
}

// CarWash sizes wash equipment per tunnel or bay. The process duty cycle
// comes from daily vehicles against rated throughput over operating hours.
// Zero units means zero load.
func CarWash(r *answers.Reader) (Result, error) {
	units, err := r.Count("tunnelOrBayCount", 1)
	if err != nil {
		return Result{}, err
	}
	vehicles, err := r.Count("dailyVehicles", 300)
	if err != nil {
		return Result{}, err
	}
	washType, err := r.Enum("washType", "tunnel", "tunnel", "in_bay_automatic", "self_serve")
	if err != nil {
		return Result{}, err
	}
	electricHeat := r.Bool("electricWaterHeating", false)
	hours := operatingHours(r, 12)

	p := newProfile(hours, 1.0, carWashShapes)
	if units == 0 {
		return p.finish(r)
	}

	eq := carWashTypes[washType]
	n := float64(units)

	process := eq.processKW() * n
	if electricHeat {
		process += carWashWaterHeatingKW * n
	}
	p.add(Process, process)
	p.add(HVAC, 6+2*n)
	p.add(Lighting, 4+3*n)
	p.add(Controls, 1+1.5*n)

	duty := 0.0
	if capacity := n * eq.perHour * hours; capacity > 0 {
		duty = math.Min(1, float64(vehicles)/capacity)
	}
	p.setShape(Process, shape{
		BaseFraction: carWashShapes[Process].BaseFraction,
		LoadFactor:   math.Max(duty, carWashShapes[Process].BaseFraction),
	})

	return p.finish(r)
}
