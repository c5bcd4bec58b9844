package pricing

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// IRR solver limits.
const (
	irrMaxIterations = 100
	irrTolerance     = 1e-7
	irrInitialGuess  = 0.1
)

// CashFlows builds the yearly series for a project: year 0 is the negative
// net cost, year t the first-year savings escalated by tariff growth and
// reduced by equipment degradation.
func CashFlows(netCost, annualSavings float64, fc FinancialConstants) []float64 {
	flows := make([]float64, fc.ProjectYears+1)
	flows[0] = -netCost
	for t := 1; t <= fc.ProjectYears; t++ {
		growth := math.Pow(1+fc.EscalationRate, float64(t-1)) * math.Pow(1-fc.DegradationRate, float64(t-1))
		flows[t] = annualSavings * growth
	}
	return flows
}

// NPV discounts flows at rate, with flows[0] undiscounted.
func NPV(rate float64, flows []float64) float64 {
	factors := make([]float64, len(flows))
	for t := range factors {
		factors[t] = math.Pow(1+rate, -float64(t))
	}
	return floats.Dot(flows, factors)
}

// IRR solves NPV(r) = 0 by Newton's method. It returns NaN when the series
// has no sign change, the derivative vanishes, the iterate leaves (-1, ∞),
// or the cap is reached without converging.
func IRR(flows []float64) float64 {
	if len(flows) < 2 || floats.Min(flows) >= 0 || floats.Max(flows) <= 0 {
		return math.NaN()
	}

	r := irrInitialGuess
	for range irrMaxIterations {
		var f, df float64
		for t, cf := range flows {
			d := math.Pow(1+r, float64(t))
			f += cf / d
			df -= float64(t) * cf / (d * (1 + r))
		}
		if df == 0 || !isFinite(df) {
			return math.NaN()
		}
		next := r - f/df
		if !isFinite(next) || next <= -1 {
			return math.NaN()
		}
		if math.Abs(next-r) < irrTolerance {
			return next
		}
		r = next
	}
	return math.NaN()
}
