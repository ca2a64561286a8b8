package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QueryEditor is a small multi-line SQL editor with history recall.
type QueryEditor struct {
	value   string
	cursor  int
	width   int
	height  int
	history *QueryHistory
	histPos int
	draft   string
}

func NewQueryEditor(history *QueryHistory) *QueryEditor {
	return &QueryEditor{
		width:   80,
		height:  20,
		history: history,
		histPos: -1,
	}
}

func (qe *QueryEditor) SetValue(value string) {
	qe.value = value
	if qe.cursor > len(value) {
		qe.cursor = len(value)
	}
}

func (qe *QueryEditor) GetValue() string {
	return qe.value
}

func (qe *QueryEditor) Init() tea.Cmd {
	return nil
}

func (qe *QueryEditor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyLeft:
			if qe.cursor > 0 {
				qe.cursor--
			}
		case tea.KeyRight:
			if qe.cursor < len(qe.value) {
				qe.cursor++
			}
		case tea.KeyUp:
			qe.moveCursorUp()
		case tea.KeyDown:
			qe.moveCursorDown()
		case tea.KeyBackspace:
			if qe.cursor > 0 {
				qe.value = qe.value[:qe.cursor-1] + qe.value[qe.cursor:]
				qe.cursor--
			}
		case tea.KeyDelete:
			if qe.cursor < len(qe.value) {
				qe.value = qe.value[:qe.cursor] + qe.value[qe.cursor+1:]
			}
		case tea.KeyCtrlJ:
			qe.value = qe.value[:qe.cursor] + "\n" + qe.value[qe.cursor:]
			qe.cursor++
		case tea.KeyCtrlP:
			qe.recallOlder()
		case tea.KeyCtrlN:
			qe.recallNewer()
		case tea.KeyHome:
			qe.moveToLineStart()
		case tea.KeyEnd:
			qe.moveToLineEnd()
		default:
			if len(msg.Runes) > 0 {
				qe.value = qe.value[:qe.cursor] + string(msg.Runes) + qe.value[qe.cursor:]
				qe.cursor += len(msg.Runes)
			}
		}
	}

	return qe, nil
}

// recallOlder steps back through history, stashing the in-progress draft so
// stepping forward past the newest entry restores it.
func (qe *QueryEditor) recallOlder() {
	if qe.history == nil || qe.history.Len() == 0 {
		return
	}
	if qe.histPos == -1 {
		qe.draft = qe.value
	}
	if qe.histPos+1 >= qe.history.Len() {
		return
	}
	qe.histPos++
	qe.SetValue(qe.history.Get(qe.histPos))
	qe.cursor = len(qe.value)
}

func (qe *QueryEditor) recallNewer() {
	if qe.history == nil || qe.histPos == -1 {
		return
	}
	qe.histPos--
	if qe.histPos == -1 {
		qe.SetValue(qe.draft)
	} else {
		qe.SetValue(qe.history.Get(qe.histPos))
	}
	qe.cursor = len(qe.value)
}

// ResetHistoryCursor is called after a statement runs so the next recall
// starts from the newest entry again.
func (qe *QueryEditor) ResetHistoryCursor() {
	qe.histPos = -1
	qe.draft = ""
}

func (qe *QueryEditor) View() string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		Padding(0, 1)

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#808080")).
		Render("Enter: execute | Ctrl+J: newline | Ctrl+P/Ctrl+N: history | Esc: cancel")

	return helpText + "\n\n" + border.Render(qe.value)
}

func (qe *QueryEditor) moveCursorUp() {
	lines := strings.Split(qe.value, "\n")
	if len(lines) > 1 {
		currentLine := qe.getCurrentLine()
		posInLine := qe.getPosInCurrentLine()

		if currentLine > 0 {
			previousLineLen := len(lines[currentLine-1])
			if posInLine > previousLineLen {
				qe.cursor -= posInLine - previousLineLen
			}
			qe.cursor -= len(lines[currentLine-1]) + 1
			if qe.cursor < 0 {
				qe.cursor = 0
			}
		}
	}
}

func (qe *QueryEditor) moveCursorDown() {
	lines := strings.Split(qe.value, "\n")
	if len(lines) > 1 {
		currentLine := qe.getCurrentLine()
		posInLine := qe.getPosInCurrentLine()

		if currentLine < len(lines)-1 {
			qe.cursor += len(lines[currentLine]) + 1
			nextLineLen := len(lines[currentLine+1])
			if posInLine > nextLineLen {
				qe.cursor -= posInLine - nextLineLen
			}
			if qe.cursor > len(qe.value) {
				qe.cursor = len(qe.value)
			}
		}
	}
}

func (qe *QueryEditor) moveToLineStart() {
	qe.cursor -= qe.getPosInCurrentLine()
}

func (qe *QueryEditor) moveToLineEnd() {
	lines := strings.Split(qe.value, "\n")
	currentLine := qe.getCurrentLine()
	qe.cursor += len(lines[currentLine]) - qe.getPosInCurrentLine()
}

func (qe *QueryEditor) getCurrentLine() int {
	return strings.Count(qe.value[:qe.cursor], "\n")
}

func (qe *QueryEditor) getPosInCurrentLine() int {
	if qe.cursor == 0 {
		return 0
	}
	if idx := strings.LastIndex(qe.value[:qe.cursor], "\n"); idx >= 0 {
		return qe.cursor - idx - 1
	}
	return qe.cursor
}
