package greenops

import (
	"fmt"
	"math"
)

// Calculate computes the four EPA equivalencies of kg CO2e. Amounts below
// MinEquivalencyThresholdKg produce an empty output with InputKg set;
// negative and non-finite amounts are errors.
func Calculate(kg float64) (EquivalencyOutput, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < 0 {
		return EquivalencyOutput{IsEmpty: true}, ErrNegativeValue
	}

	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	factors := []struct {
		kind   EquivalencyType
		factor float64
		label  string
	}{
		{EquivalencyMilesDriven, EPAMilesDrivenFactor, "miles driven"},
		{EquivalencySmartphonesCharged, EPASmartphoneChargeFactor, "smartphones charged"},
		{EquivalencyTreeSeedlings, EPATreeSeedlingFactor, "tree seedlings grown for 10 years"},
		{EquivalencyHomeDays, EPAHomeDayFactor, "days of home electricity"},
	}

	results := make([]EquivalencyResult, 0, len(factors))
	for _, f := range factors {
		v := kg / f.factor
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
		}
		results = append(results, EquivalencyResult{
			Type:           f.kind,
			Value:          v,
			FormattedValue: formatEquivalencyValue(v),
			Label:          f.label,
		})
	}

	miles, homes := results[0].FormattedValue, results[3].FormattedValue
	return EquivalencyOutput{
		InputKg:     kg,
		Results:     results,
		DisplayText: fmt.Sprintf("Equivalent to ~%s miles not driven or ~%s days of home electricity", miles, homes),
		CompactText: fmt.Sprintf("(≈ %s mi, %s home-days)", miles, homes),
	}, nil
}

// Avoided computes the emissions displaced by kWhPerYear of generation at a
// grid intensity in kg CO2e per kWh.
func Avoided(kWhPerYear, intensityKgPerKWh float64) (AvoidedEmissions, error) {
	if kWhPerYear < 0 || intensityKgPerKWh < 0 {
		return AvoidedEmissions{}, ErrNegativeValue
	}
	out, err := Calculate(kWhPerYear * intensityKgPerKWh)
	if err != nil {
		return AvoidedEmissions{}, err
	}
	return AvoidedEmissions{
		KWhPerYear:        kWhPerYear,
		IntensityKgPerKWh: intensityKgPerKWh,
		Equivalency:       out,
	}, nil
}

// formatEquivalencyValue uses million/billion scaling for large values and
// a rounded, comma-separated integer otherwise.
func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
