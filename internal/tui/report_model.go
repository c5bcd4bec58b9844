// Package tui is the interactive browser for validation reports.
package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	listview "github.com/merlin-energy/truequote/internal/tui/list"
	"github.com/merlin-energy/truequote/internal/validation"
)

// ViewState is the screen the browser shows.
type ViewState int

// View states.
const (
	ViewStateList ViewState = iota
	ViewStateDetail
	ViewStateQuitting
)

// Default dimensions before the first WindowSizeMsg.
const (
	defaultWidth  = 100
	defaultHeight = 24
	// chromeLines is the summary, blank and help lines around the body.
	chromeLines = 4
)

// filterCycle is the order in which 'f' steps through status filters. The
// empty status shows every row.
//
//nolint:gochecknoglobals // Constant lookup table
var filterCycle = []validation.Status{
	"",
	validation.StatusFail,
	validation.StatusCrash,
	validation.StatusPassWarn,
	validation.StatusPass,
	validation.StatusSkip,
}

type keyMap struct {
	Quit   key.Binding
	Open   key.Binding
	Back   key.Binding
	Filter key.Binding
}

//nolint:gochecknoglobals // Immutable key bindings.
var keys = keyMap{
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
	Back:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter status")),
}

// ReportModel browses the rows of a harness report.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type ReportModel struct {
	report *validation.Report
	rows   []validation.Row
	filter int

	state  ViewState
	table  table.Model
	detail *listview.Model[string]

	width  int
	height int
}

// NewReportModel creates a browser positioned on the first row.
func NewReportModel(report *validation.Report) ReportModel {
	m := ReportModel{
		report: report,
		rows:   report.Rows,
		state:  ViewStateList,
		width:  defaultWidth,
		height: defaultHeight,
	}
	m.table = NewReportTable(m.rows, m.bodyHeight())
	return m
}

// Init implements tea.Model.
func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(m.bodyHeight())
		if m.detail != nil {
			m.detail.SetHeight(m.bodyHeight())
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.state = ViewStateQuitting
			return m, tea.Quit
		}
		if m.state == ViewStateDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m ReportModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Open):
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.detail = listview.New(DetailLines(row), m.bodyHeight(), func(line string, selected bool) string {
			if selected {
				return "▸ " + line
			}
			return "  " + line
		})
		m.state = ViewStateDetail
		return m, nil

	case key.Matches(msg, keys.Filter):
		m.filter = (m.filter + 1) % len(filterCycle)
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ReportModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		m.state = ViewStateList
		m.detail = nil
		return m, nil
	}
	m.detail.Update(msg)
	return m, nil
}

func (m *ReportModel) applyFilter() {
	want := filterCycle[m.filter]
	m.rows = m.rows[:0:0]
	for _, r := range m.report.Rows {
		if want == "" || r.Status == want {
			m.rows = append(m.rows, r)
		}
	}
	m.table.SetRows(tableRows(m.rows))
	m.table.SetCursor(0)
}

func (m ReportModel) bodyHeight() int {
	return max(m.height-chromeLines, 3)
}

// View implements tea.Model.
func (m ReportModel) View() string {
	if m.state == ViewStateQuitting {
		return ""
	}
	header := RenderSummary(m.report)
	if f := filterCycle[m.filter]; f != "" {
		header += "  " + LabelStyle.Render("filter:") + " " + RenderStatus(f)
	}

	if m.state == ViewStateDetail && m.detail != nil {
		return header + "\n\n" + m.detail.View() + "\n" +
			HelpStyle.Render("↑/↓ scroll • esc back • q quit")
	}
	return header + "\n\n" + m.table.View() + "\n" +
		HelpStyle.Render("↑/↓ move • enter details • f filter status • q quit")
}

// State returns the current screen.
func (m ReportModel) State() ViewState { return m.state }

// Filter returns the active status filter, empty for all rows.
func (m ReportModel) Filter() validation.Status { return filterCycle[m.filter] }

// Rows returns the rows currently listed.
func (m ReportModel) Rows() []validation.Row { return m.rows }

// Selected returns the row under the table cursor.
func (m ReportModel) Selected() (validation.Row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return validation.Row{}, false
	}
	return m.rows[i], true
}

// Run shows report until the user quits or ctx is cancelled.
func Run(ctx context.Context, report *validation.Report, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewReportModel(report),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
