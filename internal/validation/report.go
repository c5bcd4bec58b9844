package validation

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/pricing"
)

// Process exit codes for a harness run.
const (
	ExitOK    = 0
	ExitFail  = 1
	ExitCrash = 2
)

// Row is the harness result for one industry.
type Row struct {
	IndustryID  string              `json:"industryId"`
	Status      Status              `json:"status"`
	Required    bool                `json:"validationRequired"`
	Version     string              `json:"version,omitempty"`
	LoadProfile *engine.LoadProfile `json:"loadProfile,omitempty"`
	Pricing     *pricing.Result     `json:"pricing,omitempty"`
	Violations  []Violation         `json:"violations,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	Fallbacks   map[string]any      `json:"inputFallbacks,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// Summary counts rows by status.
type Summary struct {
	Total  int            `json:"total"`
	Counts map[Status]int `json:"counts"`
	Worst  Status         `json:"worst"`
}

// Report is the artifact of one harness run.
type Report struct {
	RunID       string    `json:"runId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Rows        []Row     `json:"rows"`
	Summary     Summary   `json:"summary"`
}

func summarize(rows []Row) Summary {
	s := Summary{Total: len(rows), Counts: map[Status]int{}, Worst: StatusSkip}
	for _, row := range rows {
		s.Counts[row.Status]++
		s.Worst = Worst(s.Worst, row.Status)
	}
	return s
}

// ExitCode maps the report to a process exit code: 2 when any row crashed,
// 1 when any row failed, 0 otherwise.
func (r *Report) ExitCode() int {
	switch {
	case r.Summary.Counts[StatusCrash] > 0:
		return ExitCrash
	case r.Summary.Counts[StatusFail] > 0:
		return ExitFail
	default:
		return ExitOK
	}
}

// Row returns the row for an industry.
func (r *Report) Row(industryID string) (Row, bool) {
	i := slices.IndexFunc(r.Rows, func(row Row) bool { return row.IndustryID == industryID })
	if i < 0 {
		return Row{}, false
	}
	return r.Rows[i], true
}

// Filter returns a copy of the report holding only rows with one of
// statuses. The summary still describes the whole run. With no statuses the
// report itself is returned.
func (r *Report) Filter(statuses ...Status) *Report {
	if len(statuses) == 0 {
		return r
	}
	out := *r
	out.Rows = slices.DeleteFunc(slices.Clone(r.Rows), func(row Row) bool {
		return !slices.Contains(statuses, row.Status)
	})
	return &out
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the JSON artifact to path.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

// ReadReport loads a JSON artifact written by WriteFile.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &r, nil
}

// printer groups thousands in scoreboard figures.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// ContributorShare is one entry of a row's contributor mix.
type ContributorShare struct {
	Name  string
	Share float64
}

// Mix returns each contributor's share of peak, largest first.
func (row Row) Mix() []ContributorShare {
	if row.LoadProfile == nil || row.LoadProfile.PeakLoadKW <= 0 {
		return nil
	}
	out := make([]ContributorShare, 0, len(row.LoadProfile.KWContributors))
	for _, name := range slices.Sorted(maps.Keys(row.LoadProfile.KWContributors)) {
		out = append(out, ContributorShare{
			Name:  name,
			Share: row.LoadProfile.KWContributors[name] / row.LoadProfile.PeakLoadKW,
		})
	}
	slices.SortStableFunc(out, func(a, b ContributorShare) int { return cmp.Compare(b.Share, a.Share) })
	return out
}

// ScoreLine is the one-line scoreboard entry for a row.
func (row Row) ScoreLine() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-9s", row.IndustryID, row.Status)

	if row.LoadProfile == nil {
		if row.Error != "" {
			fmt.Fprintf(&b, " %s", row.Error)
		}
		return b.String()
	}

	lp := row.LoadProfile
	b.WriteString(printer.Sprintf(" peak %.1f kW  base %.1f kW  energy %.0f kWh/d",
		lp.PeakLoadKW, lp.BaseLoadKW, lp.EnergyKWhPerDay))
	if row.Pricing != nil {
		b.WriteString(printer.Sprintf("  capex $%.0f  ROI %s", row.Pricing.CapexUSD.InexactFloat64(), row.Pricing.ROIYears))
	} else {
		b.WriteString("  capex -  ROI -")
	}

	mix := row.Mix()
	parts := make([]string, 0, len(mix))
	for _, m := range mix {
		parts = append(parts, fmt.Sprintf("%s %.0f%%", m.Name, m.Share*100))
	}
	fmt.Fprintf(&b, "  mix [%s]  fallbacks %d  warnings %d",
		strings.Join(parts, " "), len(row.Fallbacks), len(row.Warnings)+countWarn(row.Violations))
	return b.String()
}

func countWarn(vs []Violation) int {
	n := 0
	for _, v := range vs {
		if v.Severity == SeverityWarn {
			n++
		}
	}
	return n
}

// WriteScoreboard writes one ScoreLine per row followed by a totals line.
func (r *Report) WriteScoreboard(w io.Writer) error {
	for _, row := range r.Rows {
		if _, err := fmt.Fprintln(w, row.ScoreLine()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d industries: %d PASS, %d PASS_WARN, %d FAIL, %d SKIP, %d CRASH\n",
		r.Summary.Total,
		r.Summary.Counts[StatusPass], r.Summary.Counts[StatusPassWarn], r.Summary.Counts[StatusFail],
		r.Summary.Counts[StatusSkip], r.Summary.Counts[StatusCrash])
	return err
}
