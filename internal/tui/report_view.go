package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/merlin-energy/truequote/internal/validation"
)

//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// NewReportTable builds the row table of a harness report.
func NewReportTable(rows []validation.Row, height int) table.Model {
	columns := []table.Column{
		{Title: "Industry", Width: 14},
		{Title: "Status", Width: 10},
		{Title: "Peak kW", Width: 10},
		{Title: "Base kW", Width: 10},
		{Title: "kWh/day", Width: 10},
		{Title: "Capex", Width: 12},
		{Title: "ROI", Width: 9},
		{Title: "Issues", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows(rows)),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)
	return t
}

func tableRows(rows []validation.Row) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		peak, base, energy := "-", "-", "-"
		if lp := r.LoadProfile; lp != nil {
			peak = printer.Sprintf("%.1f", lp.PeakLoadKW)
			base = printer.Sprintf("%.1f", lp.BaseLoadKW)
			energy = printer.Sprintf("%.0f", lp.EnergyKWhPerDay)
		}
		capex, roi := "-", "-"
		if r.Pricing != nil {
			capex = printer.Sprintf("$%.0f", r.Pricing.CapexUSD.InexactFloat64())
			roi = r.Pricing.ROIYears.String()
		}
		out[i] = table.Row{
			r.IndustryID,
			string(r.Status),
			peak,
			base,
			energy,
			capex,
			roi,
			fmt.Sprint(len(r.Violations) + len(r.Warnings)),
		}
	}
	return out
}

// RenderSummary renders the one-line run summary.
func RenderSummary(r *validation.Report) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("TrueQuote validation"))
	fmt.Fprintf(&b, "  run %s  %d industries ", r.RunID, r.Summary.Total)
	for _, s := range []validation.Status{
		validation.StatusPass, validation.StatusPassWarn, validation.StatusFail,
		validation.StatusSkip, validation.StatusCrash,
	} {
		fmt.Fprintf(&b, " %s %d", RenderStatus(s), r.Summary.Counts[s])
	}
	return b.String()
}

func label(name string) string {
	return LabelStyle.Render(fmt.Sprintf("%-16s", name+":"))
}

// DetailLines renders every line of a row's detail page.
func DetailLines(row validation.Row) []string {
	lines := []string{
		HeaderStyle.Render(strings.ToUpper(row.IndustryID)),
		"",
		label("Status") + RenderStatus(row.Status),
		label("Required") + ValueStyle.Render(fmt.Sprint(row.Required)),
	}
	if row.Version != "" {
		lines = append(lines, label("Calculator")+ValueStyle.Render(row.Version))
	}
	if row.Error != "" {
		lines = append(lines, label("Error")+StatusStyle(row.Status).Render(row.Error))
	}

	if lp := row.LoadProfile; lp != nil {
		lines = append(lines, "",
			HeaderStyle.Render("Load profile"),
			label("Peak")+ValueStyle.Render(printer.Sprintf("%.1f kW", lp.PeakLoadKW)),
			label("Base")+ValueStyle.Render(printer.Sprintf("%.1f kW", lp.BaseLoadKW)),
			label("Energy")+ValueStyle.Render(printer.Sprintf("%.0f kWh/day", lp.EnergyKWhPerDay)),
		)
		for _, c := range row.Mix() {
			lines = append(lines, label("  "+c.Name)+ValueStyle.Render(printer.Sprintf(
				"%.1f kW (%.0f%%)", lp.KWContributors[c.Name], c.Share*100)))
		}
	}

	if p := row.Pricing; p != nil {
		lines = append(lines, "",
			HeaderStyle.Render("Pricing"),
			label("Battery")+ValueStyle.Render(printer.Sprintf("%.0f kW / %.0f kWh", p.Sizing.BatteryKW, p.Sizing.BatteryKWh)),
			label("Capex")+ValueStyle.Render(printer.Sprintf("$%.0f", p.CapexUSD.InexactFloat64())),
			label("Net cost")+ValueStyle.Render(printer.Sprintf("$%.0f", p.NetCostUSD.InexactFloat64())),
			label("Annual savings")+ValueStyle.Render(printer.Sprintf("$%.0f", p.AnnualSavingsUSD.InexactFloat64())),
			label("Payback")+ValueStyle.Render(p.ROIYears.String()),
			label("IRR")+ValueStyle.Render(p.IRR.String()),
		)
	}

	if len(row.Violations) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Violations"))
		for _, v := range row.Violations {
			style := severityStyles[v.Severity]
			lines = append(lines, "  "+style.Render(v.String()))
		}
	}
	if len(row.Warnings) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Warnings"))
		for _, w := range row.Warnings {
			lines = append(lines, "  "+w)
		}
	}
	if len(row.Fallbacks) > 0 {
		lines = append(lines, "", HeaderStyle.Render("Defaults used"))
		for _, name := range slices.Sorted(maps.Keys(row.Fallbacks)) {
			lines = append(lines, "  "+label(name)+ValueStyle.Render(fmt.Sprint(row.Fallbacks[name])))
		}
	}
	return lines
}
