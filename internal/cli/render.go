package cli

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/greenops"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/tui"
	"github.com/merlin-energy/truequote/internal/validation"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// styler renders headings and labels, with lipgloss styles on a terminal
// and as plain text otherwise.
type styler struct {
	styled bool
}

func (s styler) header(text string) string {
	if s.styled {
		return tui.HeaderStyle.Render(text)
	}
	return text
}

func (s styler) label(name string) string {
	padded := fmt.Sprintf("  %-16s", name)
	if s.styled {
		return tui.LabelStyle.Render(padded)
	}
	return padded
}

func (s styler) status(st validation.Status) string {
	if s.styled {
		return tui.RenderStatus(st)
	}
	return string(st)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderLoadProfile writes the load profile and trace of a contract quote.
func renderLoadProfile(b *strings.Builder, s styler, lp engine.LoadProfile, tr engine.Trace) {
	b.WriteString(s.header("Load profile") + "\n")
	b.WriteString(s.label("Peak") + printer.Sprintf("%.1f kW\n", lp.PeakLoadKW))
	b.WriteString(s.label("Base") + printer.Sprintf("%.1f kW\n", lp.BaseLoadKW))
	b.WriteString(s.label("Energy") + printer.Sprintf("%.0f kWh/day\n", lp.EnergyKWhPerDay))

	names := slices.SortedFunc(maps.Keys(lp.KWContributors), func(x, y string) int {
		return cmp.Or(cmp.Compare(lp.KWContributors[y], lp.KWContributors[x]), cmp.Compare(x, y))
	})
	for _, name := range names {
		kw := lp.KWContributors[name]
		share := 0.0
		if lp.PeakLoadKW > 0 {
			share = kw / lp.PeakLoadKW * 100
		}
		b.WriteString(s.label("  "+name) + printer.Sprintf("%.1f kW (%.0f%%)\n", kw, share))
	}
	if tr.Version != "" {
		b.WriteString(s.label("Calculator") + tr.Version + "\n")
	}

	if len(tr.InputFallbacks) > 0 {
		b.WriteString("\n" + s.header(fmt.Sprintf("Defaults used (%d)", len(tr.InputFallbacks))) + "\n")
		for _, name := range slices.Sorted(maps.Keys(tr.InputFallbacks)) {
			b.WriteString(s.label(name) + fmt.Sprint(tr.InputFallbacks[name]) + "\n")
		}
	}
	if len(tr.HardFailures) > 0 {
		b.WriteString("\n" + s.header("Hard failures") + "\n")
		for _, f := range tr.HardFailures {
			b.WriteString("  - " + f + "\n")
		}
	}
	var notes []string
	for _, w := range tr.Warnings {
		if !slices.Contains(tr.HardFailures, w) {
			notes = append(notes, w)
		}
	}
	if len(notes) > 0 {
		b.WriteString("\n" + s.header("Warnings") + "\n")
		for _, w := range notes {
			b.WriteString("  - " + w + "\n")
		}
	}
}

func renderPricing(b *strings.Builder, s styler, p *pricing.Result) {
	b.WriteString("\n" + s.header("Pricing") + "\n")
	sz := p.Sizing
	b.WriteString(s.label("Battery") + printer.Sprintf("%.0f kW / %.0f kWh (%.1f h)\n",
		sz.BatteryKW, sz.BatteryKWh, sz.BackupHours))
	if sz.SolarKW > 0 {
		b.WriteString(s.label("Solar") + printer.Sprintf("%.0f kW\n", sz.SolarKW))
	}
	if sz.GeneratorKW > 0 {
		b.WriteString(s.label("Generator") + printer.Sprintf("%.0f kW\n", sz.GeneratorKW))
	}
	b.WriteString(s.label("Capex") + printer.Sprintf("$%.0f\n", p.CapexUSD.InexactFloat64()))
	b.WriteString(s.label("Tax credit") + printer.Sprintf("$%.0f\n", p.ITCUSD.InexactFloat64()))
	b.WriteString(s.label("Net cost") + printer.Sprintf("$%.0f\n", p.NetCostUSD.InexactFloat64()))
	b.WriteString(s.label("Annual savings") + printer.Sprintf("$%.0f\n", p.AnnualSavingsUSD.InexactFloat64()))
	b.WriteString(s.label("Payback") + p.ROIYears.String() + "\n")
	b.WriteString(s.label("10-year ROI") + p.TenYearROI.String() + "\n")
	b.WriteString(s.label("IRR") + p.IRR.String() + "\n")
	b.WriteString(s.label("NPV") + printer.Sprintf("$%.0f\n", p.NPVUSD.InexactFloat64()))

	if e := p.Emissions; e != nil {
		b.WriteString(s.label("Avoided CO2e") + greenops.FormatFloat(e.Equivalency.InputKg/greenops.KgPerTonne, 1) + " t/yr")
		if !e.Equivalency.IsEmpty && e.Equivalency.CompactText != "" {
			b.WriteString(" " + e.Equivalency.CompactText)
		}
		b.WriteString("\n")
	}
	for _, w := range p.Warnings {
		b.WriteString("  - " + w + "\n")
	}
}

// renderQuote writes a human-readable quote.
func renderQuote(w io.Writer, s styler, resp *engine.Response) error {
	var b strings.Builder
	b.WriteString(s.header("QUOTE "+strings.ToUpper(resp.IndustryID)) + "  " + resp.QuoteID + "\n\n")
	renderLoadProfile(&b, s, resp.LoadProfile, resp.Trace)
	if resp.Pricing != nil {
		renderPricing(&b, s, resp.Pricing)
	} else {
		b.WriteString("\n" + s.header("Pricing") + "\n  skipped: load profile violates global invariants\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderContract writes a human-readable contract-only result.
func renderContract(w io.Writer, s styler, cr *engine.ContractResult) error {
	var b strings.Builder
	b.WriteString(s.header("LOAD PROFILE "+strings.ToUpper(cr.IndustryID)) + "  " + cr.CalculatorID + "\n\n")
	renderLoadProfile(&b, s, cr.LoadProfile, cr.Trace)
	_, err := io.WriteString(w, b.String())
	return err
}

// renderScoreboard writes the harness scoreboard, coloring statuses when
// styled.
func renderScoreboard(w io.Writer, s styler, rep *validation.Report) error {
	if !s.styled {
		return rep.WriteScoreboard(w)
	}
	var b strings.Builder
	for _, row := range rep.Rows {
		line := row.ScoreLine()
		prefix := fmt.Sprintf("%-14s ", row.IndustryID)
		if rest, ok := strings.CutPrefix(line, prefix+string(row.Status)); ok {
			line = prefix + s.status(row.Status) + rest
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "%d industries:", rep.Summary.Total)
	for i, st := range []validation.Status{
		validation.StatusPass, validation.StatusPassWarn, validation.StatusFail,
		validation.StatusSkip, validation.StatusCrash,
	} {
		sep := ","
		if i == 0 {
			sep = ""
		}
		fmt.Fprintf(&b, "%s %d %s", sep, rep.Summary.Counts[st], s.status(st))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
