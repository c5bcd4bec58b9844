package validation

import (
	"fmt"
	"maps"
	"slices"

	"github.com/merlin-energy/truequote/internal/engine"
)

// checkSum compares the contributor sum with the peak load.
func checkSum(p engine.LoadProfile, tol Tolerance) []Violation {
	if p.PeakLoadKW <= 0 {
		return nil
	}
	var sum float64
	for _, name := range slices.Sorted(maps.Keys(p.KWContributors)) {
		sum += p.KWContributors[name]
	}
	dev := (sum - p.PeakLoadKW) / p.PeakLoadKW
	if dev < 0 {
		dev = -dev
	}

	msg := fmt.Sprintf("contributors sum to %.1f kW against peak %.1f kW (%.1f%% off)", sum, p.PeakLoadKW, dev*100)
	switch {
	case dev > tol.Fail:
		return []Violation{{Rule: RuleSumConsistency, Severity: SeverityFail,
			Message: fmt.Sprintf("%s, fail tolerance %.0f%%", msg, tol.Fail*100)}}
	case dev > tol.Warn:
		return []Violation{{Rule: RuleSumConsistency, Severity: SeverityWarn,
			Message: fmt.Sprintf("%s, warn tolerance %.0f%%", msg, tol.Warn*100)}}
	}
	return nil
}

// checkBands applies per-contributor share bands. A share outside its band
// by no more than slack is a warning; further out is a failure.
func checkBands(p engine.LoadProfile, bands []Band, slack float64) []Violation {
	if p.PeakLoadKW <= 0 {
		return nil
	}
	var out []Violation
	for _, b := range bands {
		share := p.KWContributors[b.Contributor] / p.PeakLoadKW
		var miss float64
		switch {
		case share < b.Min:
			miss = b.Min - share
		case share > b.Max:
			miss = share - b.Max
		default:
			continue
		}
		sev := SeverityFail
		if miss <= slack {
			sev = SeverityWarn
		}
		out = append(out, Violation{
			Rule:     RuleBand,
			Severity: sev,
			Message: fmt.Sprintf("%s is %.1f%% of peak, expected %.0f-%.0f%%",
				b.Contributor, share*100, b.Min*100, b.Max*100),
		})
	}
	return out
}

// checkUniversal flags degenerate contributor mixes on facilities large
// enough for the mix to be meaningful.
func checkUniversal(p engine.LoadProfile, pol Policy) []Violation {
	if p.PeakLoadKW < pol.UniversalMinPeakKW || p.PeakLoadKW <= 0 {
		return nil
	}

	var (
		largest     string
		largestKW   float64
		nonzero     int
		out         []Violation
		contributor = slices.Sorted(maps.Keys(p.KWContributors))
	)
	for _, name := range contributor {
		kw := p.KWContributors[name]
		if kw > 0 {
			nonzero++
		}
		if kw > largestKW {
			largest, largestKW = name, kw
		}
	}
	if nonzero == 0 {
		return nil
	}

	share := largestKW / p.PeakLoadKW
	if share < pol.MinLargestShare {
		out = append(out, Violation{
			Rule:     RuleUniversal,
			Severity: SeverityFail,
			Message: fmt.Sprintf("largest contributor %s is only %.1f%% of peak (minimum %.0f%%)",
				largest, share*100, pol.MinLargestShare*100),
		})
	}
	if nonzero >= pol.DominantMinContributors && share <= pol.DominantShare {
		out = append(out, Violation{
			Rule:     RuleUniversal,
			Severity: SeverityFail,
			Message: fmt.Sprintf("%d contributors and none above %.0f%% of peak (largest %s at %.1f%%)",
				nonzero, pol.DominantShare*100, largest, share*100),
		})
	}
	return out
}
