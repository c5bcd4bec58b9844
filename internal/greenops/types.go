// Package greenops turns avoided carbon emissions into relatable
// equivalencies ("miles not driven", "homes powered for a day") using
// EPA-published conversion factors.
//
// Pricing uses it to describe the grid emissions a quote's on-site solar
// displaces each year.
package greenops

import "fmt"

// EquivalencyType represents a category of carbon emission equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven converts CO2e to miles driven in an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged converts CO2e to smartphone full charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings converts CO2e to tree seedlings grown for 10 years.
	EquivalencyTreeSeedlings

	// EquivalencyHomeDays converts CO2e to days of average US home electricity use.
	EquivalencyHomeDays
)

func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	case EquivalencyHomeDays:
		return "HomeDays"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// MarshalText encodes the type by name.
func (e EquivalencyType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText decodes a name written by MarshalText.
func (e *EquivalencyType) UnmarshalText(b []byte) error {
	for t := EquivalencyMilesDriven; t <= EquivalencyHomeDays; t++ {
		if t.String() == string(b) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("unknown equivalency type %q", b)
}

// EquivalencyResult represents a single calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formattedValue"`
	Label          string          `json:"label"`
}

// EquivalencyOutput contains all equivalency results for display.
type EquivalencyOutput struct {
	InputKg float64             `json:"inputKg"`
	Results []EquivalencyResult `json:"results,omitempty"`
	// DisplayText is the prose form, e.g.
	// "Equivalent to ~781 miles not driven or ~2 homes powered for a day".
	DisplayText string `json:"displayText,omitempty"`
	// CompactText is the scoreboard form, e.g. "(≈ 781 mi, 8 home-days)".
	CompactText string `json:"compactText,omitempty"`
	IsEmpty     bool   `json:"isEmpty"`
}

// AvoidedEmissions is the annual grid carbon displaced by on-site generation.
type AvoidedEmissions struct {
	KWhPerYear        float64           `json:"kWhPerYear"`
	IntensityKgPerKWh float64           `json:"intensityKgPerKWh"`
	Equivalency       EquivalencyOutput `json:"equivalency"`
}
