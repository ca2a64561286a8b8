package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextInput is the single-line prompt used for filter entry and similar
// one-shot inputs. Editing is rune-based so multibyte input behaves.
type TextInput struct {
	value       []rune
	cursor      int
	width       int
	placeholder string
}

func NewTextInput() *TextInput {
	return &TextInput{width: 60}
}

func (ti *TextInput) SetPlaceholder(placeholder string) {
	ti.placeholder = placeholder
}

func (ti *TextInput) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	ti.width = width
}

func (ti *TextInput) SetValue(value string) {
	ti.value = []rune(value)
	if ti.cursor > len(ti.value) {
		ti.cursor = len(ti.value)
	}
}

func (ti *TextInput) Value() string {
	return string(ti.value)
}

func (ti *TextInput) Reset() {
	ti.value = nil
	ti.cursor = 0
}

func (ti *TextInput) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyLeft:
		if ti.cursor > 0 {
			ti.cursor--
		}
		return true
	case tea.KeyRight:
		if ti.cursor < len(ti.value) {
			ti.cursor++
		}
		return true
	case tea.KeyHome:
		ti.cursor = 0
		return true
	case tea.KeyEnd:
		ti.cursor = len(ti.value)
		return true
	case tea.KeyBackspace:
		if ti.cursor > 0 {
			ti.value = append(ti.value[:ti.cursor-1], ti.value[ti.cursor:]...)
			ti.cursor--
		}
		return true
	case tea.KeyDelete:
		if ti.cursor < len(ti.value) {
			ti.value = append(ti.value[:ti.cursor], ti.value[ti.cursor+1:]...)
		}
		return true
	}

	if len(msg.Runes) > 0 {
		ti.value = append(ti.value[:ti.cursor], append(append([]rune{}, msg.Runes...), ti.value[ti.cursor:]...)...)
		ti.cursor += len(msg.Runes)
		return true
	}

	return false
}

func (ti *TextInput) View(prompt string) string {
	display := string(ti.value)
	if display == "" && ti.placeholder != "" {
		display = ti.placeholder
	}
	if len(display) > ti.width {
		display = display[len(display)-ti.width:]
	}

	style := lipgloss.NewStyle().
		Width(ti.width+2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#00FF00")).
		Padding(0, 1)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Render(prompt),
		style.Render(display))
}

// ParseFilterInput parses "column op value" as typed at the filter prompt,
// e.g. "status = active", "name like %son%", "deleted_at is null".
// The column is resolved against the schema by name.
func ParseFilterInput(input string, schema *TableSchema) (FilterEntry, bool) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) < 2 || schema == nil {
		return FilterEntry{}, false
	}

	col := schema.ColumnIndex(fields[0])
	if col < 0 {
		return FilterEntry{}, false
	}

	// Multi-word operators (is null, not like, ...) greedily consume fields
	// until a known operator is formed.
	for n := len(fields); n >= 2; n-- {
		opText := strings.Join(fields[1:n], " ")
		op, ok := ParseFilterOp(opText)
		if !ok {
			continue
		}
		value := strings.Join(fields[n:], " ")
		if op == FilterIsNull || op == FilterNotNull {
			if value != "" {
				return FilterEntry{}, false
			}
			return FilterEntry{Column: col, Op: op}, true
		}
		if value == "" {
			return FilterEntry{}, false
		}
		return FilterEntry{Column: col, Op: op, Value: value}, true
	}

	return FilterEntry{}, false
}
