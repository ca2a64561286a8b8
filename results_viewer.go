package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultsViewer shows the output of a raw query: a fully materialized result
// set with simple scrolling, no paging or editing.
type ResultsViewer struct {
	results     *ResultSet
	affected    int64
	isExec      bool
	verticalPos int
	width       int
	height      int
}

func NewResultsViewer() *ResultsViewer {
	return &ResultsViewer{width: 80, height: 20}
}

func (rv *ResultsViewer) SetResults(results *ResultSet) {
	rv.results = results
	rv.isExec = false
	rv.verticalPos = 0
}

func (rv *ResultsViewer) SetAffected(n int64) {
	rv.results = nil
	rv.affected = n
	rv.isExec = true
	rv.verticalPos = 0
}

func (rv *ResultsViewer) SetSize(width, height int) {
	rv.width = width
	rv.height = height
}

func (rv *ResultsViewer) View() string {
	if rv.isExec {
		return lipgloss.NewStyle().
			Width(60).
			Align(lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			Padding(1, 1).
			Render(fmt.Sprintf("Statement executed. Rows affected: %d", rv.affected))
	}
	if rv.results.NumRows() == 0 {
		return rv.renderEmptyState()
	}
	return rv.renderTable()
}

func (rv *ResultsViewer) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(60).
		Align(lipgloss.Center).
		Height(10).
		Background(lipgloss.Color("#1a1a1a")).
		Border(lipgloss.RoundedBorder()).
		Padding(2, 1).
		Render("No rows returned")
}

func (rv *ResultsViewer) renderTable() string {
	widths := rv.calculateColumnWidths()
	header := rv.renderHeader(widths)
	separator := rv.renderSeparator(widths)
	body := rv.renderBody(widths)

	return header + "\n" + separator + "\n" + body
}

func (rv *ResultsViewer) calculateColumnWidths() []int {
	widths := make([]int, rv.results.NumColumns())
	for i, col := range rv.results.Columns {
		widths[i] = len(col.Name)
	}

	for r := range rv.results.Rows {
		for c := range widths {
			if v, ok := rv.results.Cell(r, c); ok {
				if l := len(v.Text()); l > widths[c] {
					widths[c] = l
				}
			}
		}
	}

	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
		if widths[i] < minColumnWidth {
			widths[i] = minColumnWidth
		}
	}

	return widths
}

func (rv *ResultsViewer) renderHeader(widths []int) string {
	parts := make([]string, 0, len(widths))
	for i, col := range rv.results.Columns {
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true).
			Width(widths[i])
		parts = append(parts, style.Render(col.Name))
	}
	return strings.Join(parts, " ")
}

func (rv *ResultsViewer) renderSeparator(widths []int) string {
	parts := make([]string, 0, len(widths))
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	for _, w := range widths {
		parts = append(parts, style.Render(strings.Repeat("-", w)))
	}
	return strings.Join(parts, " ")
}

func (rv *ResultsViewer) renderBody(widths []int) string {
	maxRows := rv.height - 4
	if maxRows < 1 {
		maxRows = 1
	}
	startRow := rv.verticalPos
	if startRow+maxRows > rv.results.NumRows() {
		startRow = rv.results.NumRows() - maxRows
	}
	if startRow < 0 {
		startRow = 0
	}
	endRow := startRow + maxRows
	if endRow > rv.results.NumRows() {
		endRow = rv.results.NumRows()
	}

	lines := make([]string, 0, endRow-startRow)
	for r := startRow; r < endRow; r++ {
		lines = append(lines, rv.renderRow(r, widths))
	}
	return strings.Join(lines, "\n")
}

func (rv *ResultsViewer) renderRow(r int, widths []int) string {
	parts := make([]string, 0, len(widths))
	for c := range widths {
		text := ""
		if v, ok := rv.results.Cell(r, c); ok {
			text = v.Text()
		}
		if len(text) > maxColumnWidth {
			text = text[:maxColumnWidth-3] + "..."
		}
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Width(widths[c])
		parts = append(parts, style.Render(text))
	}
	return strings.Join(parts, " ")
}

func (rv *ResultsViewer) ScrollUp() {
	if rv.verticalPos > 0 {
		rv.verticalPos--
	}
}

func (rv *ResultsViewer) ScrollDown() {
	visibleRows := rv.height - 4
	if rv.verticalPos < rv.results.NumRows()-visibleRows {
		rv.verticalPos++
	}
}

func (rv *ResultsViewer) ScrollToTop() {
	rv.verticalPos = 0
}

func (rv *ResultsViewer) ScrollToBottom() {
	visibleRows := rv.height - 4
	rv.verticalPos = rv.results.NumRows() - visibleRows
	if rv.verticalPos < 0 {
		rv.verticalPos = 0
	}
}
