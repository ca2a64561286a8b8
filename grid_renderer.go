package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GridRenderer draws a TableViewModel as a scrollable grid. It renders only
// the visible slice of the loaded window; everything else is the view-model's
// problem.
type GridRenderer struct {
	styles GridStyles
}

type GridStyles struct {
	Header       lipgloss.Style
	SortedHeader lipgloss.Style
	Normal       lipgloss.Style
	CursorCell   lipgloss.Style
	CursorRow    lipgloss.Style
	SelectedRow  lipgloss.Style
	NullCell     lipgloss.Style
	Separator    lipgloss.Style
	Status       lipgloss.Style
	EditCell     lipgloss.Style
}

func NewGridRenderer() *GridRenderer {
	return &GridRenderer{
		styles: GridStyles{
			Header:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			SortedHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF")).Bold(true),
			Normal:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
			CursorCell:   lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFD700")),
			CursorRow:    lipgloss.NewStyle().Background(lipgloss.Color("#333333")),
			SelectedRow:  lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#4169E1")),
			NullCell:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true),
			Separator:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
			Status:       lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
			EditCell:     lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00FF00")),
		},
	}
}

// visibleColumns returns the column range starting at the scroll column that
// fits in width.
func (gr *GridRenderer) visibleColumns(vm *TableViewModel, width int) (int, int) {
	first := vm.ScrollCol()
	used := 0
	last := first
	for c := first; c < vm.ColumnCount(); c++ {
		w := vm.ColumnWidth(c) + 1
		if used+w > width && c > first {
			break
		}
		used += w
		last = c
	}
	return first, last
}

func (gr *GridRenderer) Render(vm *TableViewModel, width, height int) string {
	if vm == nil || vm.ColumnCount() == 0 {
		return gr.styles.Status.Render("  (no table open)")
	}

	visRows := height - 3
	if visRows < 1 {
		visRows = 1
	}
	firstCol, lastCol := gr.visibleColumns(vm, width)
	vm.EnsureCursorVisible(visRows, lastCol-firstCol+1)
	firstCol, lastCol = gr.visibleColumns(vm, width)

	var sb strings.Builder
	sb.WriteString(gr.renderHeader(vm, firstCol, lastCol))
	sb.WriteString("\n")
	sb.WriteString(gr.renderSeparator(vm, firstCol, lastCol))
	sb.WriteString("\n")
	sb.WriteString(gr.renderRows(vm, firstCol, lastCol, visRows))
	sb.WriteString("\n")
	sb.WriteString(gr.renderStatus(vm, width))
	return sb.String()
}

func (gr *GridRenderer) renderHeader(vm *TableViewModel, firstCol, lastCol int) string {
	sortMark := make(map[int]string)
	for i, e := range vm.SortEntries() {
		mark := "▲"
		if e.Desc {
			mark = "▼"
		}
		if len(vm.SortEntries()) > 1 {
			mark = fmt.Sprintf("%s%d", mark, i+1)
		}
		sortMark[e.Column] = mark
	}

	parts := make([]string, 0, lastCol-firstCol+1)
	for c := firstCol; c <= lastCol; c++ {
		label := vm.ColumnName(c)
		style := gr.styles.Header
		if mark, ok := sortMark[c]; ok {
			label += mark
			style = gr.styles.SortedHeader
		}
		w := vm.ColumnWidth(c)
		if len(label) > w {
			label = label[:w]
		}
		parts = append(parts, style.Width(w).Render(label))
	}
	return strings.Join(parts, " ")
}

func (gr *GridRenderer) renderSeparator(vm *TableViewModel, firstCol, lastCol int) string {
	parts := make([]string, 0, lastCol-firstCol+1)
	for c := firstCol; c <= lastCol; c++ {
		parts = append(parts, gr.styles.Separator.Render(strings.Repeat("─", vm.ColumnWidth(c))))
	}
	return strings.Join(parts, " ")
}

func (gr *GridRenderer) renderRows(vm *TableViewModel, firstCol, lastCol, visRows int) string {
	count := vm.LoadedCount()
	if count == 0 {
		if vm.Loading() {
			return gr.styles.Status.Render("  loading...")
		}
		return gr.styles.Status.Render("  (empty)")
	}

	start := int(vm.ScrollRow())
	end := start + visRows
	if end > count {
		end = count
	}

	editRow, editCol := vm.EditTarget()

	lines := make([]string, 0, end-start)
	for r := start; r < end; r++ {
		abs := AbsoluteRow(vm.LoadedOffset() + r)
		isCursorRow := WindowRow(r) == vm.CursorRow()
		isSelected := vm.IsSelected(abs)

		parts := make([]string, 0, lastCol-firstCol+1)
		for c := firstCol; c <= lastCol; c++ {
			w := vm.ColumnWidth(c)
			editing := vm.Editing() && abs == editRow && c == editCol

			text := ""
			isNull := false
			if editing {
				text = vm.EditText()
				// Keep the buffer's tail visible while typing.
				if len(text) > w {
					text = text[len(text)-w:]
				}
			} else if v, ok := vm.Cell(WindowRow(r), c); ok {
				text = v.Text()
				isNull = v.IsNull()
				if len(text) > w {
					text = text[:w-1] + "…"
				}
			}

			style := gr.styles.Normal
			switch {
			case editing:
				style = gr.styles.EditCell
			case isCursorRow && c == vm.CursorCol():
				style = gr.styles.CursorCell
			case isSelected:
				style = gr.styles.SelectedRow
			case isCursorRow:
				style = gr.styles.CursorRow
			case isNull:
				style = gr.styles.NullCell
			}
			parts = append(parts, style.Width(w).Render(text))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func (gr *GridRenderer) renderStatus(vm *TableViewModel, width int) string {
	cur := int(vm.AbsoluteCursor()) + 1
	total := vm.TotalRows()
	totalText := fmt.Sprintf("%d", total)
	if vm.RowCountApproximate() {
		totalText = "~" + totalText
	}

	parts := []string{fmt.Sprintf("row %d/%s", cur, totalText)}
	if n := len(vm.Filters()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filters", n))
	}
	if n := len(vm.SortEntries()); n > 0 {
		parts = append(parts, fmt.Sprintf("sort: %d cols", n))
	}
	if n := vm.SelectionCount(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if vm.Loading() {
		parts = append(parts, "loading...")
	}

	line := strings.Join(parts, " | ")
	if len(line) > width && width > 3 {
		line = line[:width-3] + "..."
	}
	return gr.styles.Status.Render(line)
}
