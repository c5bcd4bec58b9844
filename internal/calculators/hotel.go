package calculators

import (
	"fmt"

	"github.com/merlin-energy/truequote/internal/answers"
)

// Connected kW per guest room by class.
var hotelKWPerRoom = map[string]float64{
	"economy":  2.0,
	"midscale": 3.0,
	"upscale":  4.0,
	"luxury":   5.5,
}

// Share of room load by end use.
var hotelRoomSplit = map[string]float64{
	HVAC:     0.55,
	Lighting: 0.16,
	Process:  0.22,
	Controls: 0.07,
}

// Connected kW added by each amenity.
var hotelAmenityKW = map[string]map[string]float64{
	"pool":       {Process: 20, HVAC: 10},
	"restaurant": {Process: 40, HVAC: 15},
	"spa":        {Process: 15, HVAC: 10},
	"fitness":    {Process: 8, HVAC: 5, Lighting: 2},
	"conference": {HVAC: 20, Lighting: 10, Process: 10},
	"laundry":    {Process: 40},
	"evCharging": {Process: 28.8},
}

var hotelShapes = map[string]shape{
	HVAC:     {BaseFraction: 0.45, LoadFactor: 0.65},
	Lighting: {BaseFraction: 0.30, LoadFactor: 0.55},
	Process:  {BaseFraction: 0.35, LoadFactor: 0.50},
	Controls: {BaseFraction: 1.00, LoadFactor: 1.00},
}

const hotelDiversity = 0.95

// Hotel sizes guest rooms by class, scales them by occupancy (60% of room
// load is fixed), and adds amenity loads.
func Hotel(r *answers.Reader) (Result, error) {
	rooms, err := r.Count("rooms", 150)
	if err != nil {
		return Result{}, err
	}
	occupancy, err := r.Ratio("occupancyRate", 0.7)
	if err != nil {
		return Result{}, err
	}
	class, err := r.Enum("hotelClass", "midscale", "economy", "midscale", "upscale", "luxury")
	if err != nil {
		return Result{}, err
	}

	p := newProfile(operatingHours(r, 24), hotelDiversity, hotelShapes)
	if rooms == 0 {
		// An empty building draws nothing; amenities without rooms are not a hotel.
		return p.finish(r)
	}

	roomKW := float64(rooms) * hotelKWPerRoom[class] * (0.6 + 0.4*occupancy)
	for name, share := range hotelRoomSplit {
		p.add(name, roomKW*share)
	}

	for _, amenity := range r.Strings("amenities", []string{"pool", "fitness"}) {
		loads, ok := hotelAmenityKW[amenity]
		if !ok {
			return Result{}, answers.Invalid("amenities", amenity, fmt.Sprintf("unknown amenity %q", amenity))
		}
		for name, kw := range loads {
			p.add(name, kw)
		}
	}

	return p.finish(r)
}
