package listview

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// RenderFunc renders one item. selected is true for the cursor row.
type RenderFunc[T any] func(item T, selected bool) string

// KeyMap is the navigation key set.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

// DefaultKeyMap uses arrows, vim keys, page keys and home/end.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	}
}

// Model is a scrolling list that renders only the rows inside its window.
type Model[T any] struct {
	items  []T
	render RenderFunc[T]
	keys   KeyMap

	cursor int
	offset int
	height int
}

// New creates a list showing height rows at a time.
func New[T any](items []T, height int, render RenderFunc[T]) *Model[T] {
	m := &Model[T]{items: items, render: render, keys: DefaultKeyMap()}
	m.SetHeight(height)
	return m
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update moves the cursor on navigation keys.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.items) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.SetCursor(m.cursor - 1)
	case key.Matches(keyMsg, m.keys.Down):
		m.SetCursor(m.cursor + 1)
	case key.Matches(keyMsg, m.keys.PageUp):
		m.SetCursor(m.cursor - m.height)
	case key.Matches(keyMsg, m.keys.PageDown):
		m.SetCursor(m.cursor + m.height)
	case key.Matches(keyMsg, m.keys.Top):
		m.SetCursor(0)
	case key.Matches(keyMsg, m.keys.Bottom):
		m.SetCursor(len(m.items) - 1)
	}
	return m, nil
}

// View renders the rows inside the window.
func (m *Model[T]) View() string {
	from, to := m.Window()
	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		lines = append(lines, m.render(m.items[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

// SetHeight resizes the window, keeping the cursor visible.
func (m *Model[T]) SetHeight(height int) {
	m.height = max(height, 1)
	m.SetCursor(m.cursor)
}

// SetCursor moves the cursor, clamped to the list, and scrolls the window
// the minimum distance needed to keep it visible.
func (m *Model[T]) SetCursor(i int) {
	if len(m.items) == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	m.cursor = min(max(i, 0), len(m.items)-1)
	switch {
	case m.cursor < m.offset:
		m.offset = m.cursor
	case m.cursor >= m.offset+m.height:
		m.offset = m.cursor - m.height + 1
	}
	m.offset = min(m.offset, max(len(m.items)-m.height, 0))
}

// Cursor returns the selected index.
func (m *Model[T]) Cursor() int { return m.cursor }

// Len returns the number of items.
func (m *Model[T]) Len() int { return len(m.items) }

// Window returns the visible index range [from, to).
func (m *Model[T]) Window() (int, int) {
	return m.offset, min(m.offset+m.height, len(m.items))
}

// Selected returns the item under the cursor.
func (m *Model[T]) Selected() (T, bool) {
	var zero T
	if len(m.items) == 0 {
		return zero, false
	}
	return m.items[m.cursor], true
}
