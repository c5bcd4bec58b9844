// Package calculators turns resolved questionnaire answers into named kW
// contributions and a load profile.
//
// Each industry family is a pure function registered under a calculator id.
// The registry is built once; unknown ids fail with *CalculatorNotFoundError
// rather than falling through to a generic estimate.
package calculators

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/merlin-energy/truequote/internal/answers"
)

// Calculator versions. Migrated families are held to the stricter
// validation checks; legacy ones are reported but not gated.
const (
	VersionV1     = "v1"
	VersionLegacy = ""
)

// Canonical contributor names.
const (
	HVAC        = "hvac"
	Process     = "process"
	Lighting    = "lighting"
	Controls    = "controls"
	ITLoad      = "itLoad"
	Cooling     = "cooling"
	PowerLosses = "powerLosses"
	Charging    = "charging"
)

// Result is the output of a calculator.
type Result struct {
	BaseLoadKW      float64
	PeakLoadKW      float64
	EnergyKWhPerDay float64
	Contributors    map[string]float64
	// Notes are human-readable remarks (e.g. an applied peak override) that
	// belong in the quote trace.
	Notes []string
}

// Func computes a Result from resolved answers.
type Func func(r *answers.Reader) (Result, error)

// Calculator is one registered family.
type Calculator struct {
	ID      string
	Version string
	Compute Func
}

// ErrCalculatorNotFound matches any *CalculatorNotFoundError.
var ErrCalculatorNotFound = errors.New("calculator not found")

// CalculatorNotFoundError is returned by Lookup for unknown ids.
type CalculatorNotFoundError struct {
	CalculatorID string
}

func (e *CalculatorNotFoundError) Error() string {
	return fmt.Sprintf("no calculator registered for %q", e.CalculatorID)
}

// Is lets errors.Is match ErrCalculatorNotFound.
func (e *CalculatorNotFoundError) Is(target error) bool {
	return target == ErrCalculatorNotFound
}

// Registry maps calculator ids to calculators.
type Registry struct {
	byID map[string]Calculator
}

// NewRegistry builds a registry. Empty and duplicate ids are rejected.
func NewRegistry(calcs ...Calculator) (*Registry, error) {
	r := &Registry{byID: make(map[string]Calculator, len(calcs))}
	for _, c := range calcs {
		if c.ID == "" || c.Compute == nil {
			return nil, fmt.Errorf("calculator %q is incomplete", c.ID)
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, fmt.Errorf("calculator %q registered twice", c.ID)
		}
		r.byID[c.ID] = c
	}
	return r, nil
}

// Builtin returns the registry of every family shipped with truequote.
func Builtin() *Registry {
	r, err := NewRegistry(
		Calculator{ID: "hotel", Version: VersionV1, Compute: Hotel},
		Calculator{ID: "car_wash", Version: VersionV1, Compute: CarWash},
		Calculator{ID: "data_center", Version: VersionV1, Compute: DataCenter},
		Calculator{ID: "ev_charging", Version: VersionV1, Compute: EVCharging},
		Calculator{ID: "hospital", Version: VersionV1, Compute: Hospital},
		Calculator{ID: "commercial_building", Version: VersionLegacy, Compute: CommercialBuilding},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the calculator registered under id.
func (r *Registry) Lookup(id string) (Calculator, error) {
	c, ok := r.byID[id]
	if !ok {
		return Calculator{}, &CalculatorNotFoundError{CalculatorID: id}
	}
	return c, nil
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.byID))
}
