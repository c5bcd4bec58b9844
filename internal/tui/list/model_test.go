package listview

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func numbered(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func render(i int, selected bool) string {
	if selected {
		return fmt.Sprintf("> %d", i)
	}
	return fmt.Sprintf("  %d", i)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_Navigation(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantCursor int
		wantFrom   int
	}{
		{name: "start", wantCursor: 0, wantFrom: 0},
		{name: "down within window", keys: []string{"down", "j"}, wantCursor: 2, wantFrom: 0},
		{name: "scrolls minimally", keys: []string{"j", "j", "j", "j", "j"}, wantCursor: 5, wantFrom: 1},
		{name: "up clamps at top", keys: []string{"up", "k"}, wantCursor: 0, wantFrom: 0},
		{name: "page down", keys: []string{"pgdown"}, wantCursor: 5, wantFrom: 1},
		{name: "end", keys: []string{"end"}, wantCursor: 19, wantFrom: 15},
		{name: "top after end", keys: []string{"G", "g"}, wantCursor: 0, wantFrom: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(numbered(20), 5, render)
			for _, k := range tt.keys {
				m.Update(keyMsg(k))
			}
			assert.Equal(t, tt.wantCursor, m.Cursor())
			from, to := m.Window()
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantFrom+5, to)
		})
	}
}

func TestModel_View(t *testing.T) {
	m := New(numbered(20), 3, render)
	m.SetCursor(10)

	lines := strings.Split(m.View(), "\n")
	assert.Equal(t, []string{"  8", "  9", "> 10"}, lines)

	got, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, 10, got)
}

func TestModel_ShortAndEmpty(t *testing.T) {
	short := New(numbered(2), 10, render)
	from, to := short.Window()
	assert.Equal(t, 0, from)
	assert.Equal(t, 2, to)

	empty := New[int](nil, 4, render)
	empty.Update(keyMsg("down"))
	assert.Empty(t, empty.View())
	_, ok := empty.Selected()
	assert.False(t, ok)
	assert.Equal(t, 0, empty.Len())
}

func TestModel_SetHeight(t *testing.T) {
	m := New(numbered(20), 10, render)
	m.SetCursor(9)
	m.SetHeight(4)
	from, to := m.Window()
	assert.Equal(t, 6, from)
	assert.Equal(t, 10, to)

	m.SetHeight(0)
	from, to = m.Window()
	assert.Equal(t, 1, to-from, "height is at least one row")
}
