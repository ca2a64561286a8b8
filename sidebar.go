package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sidebar lists the tables of the active connection.
type Sidebar struct {
	tables      []string
	selectedIdx int
	offset      int
	viewport    int
	loading     bool
	styles      SidebarStyles
}

type SidebarStyles struct {
	Header    lipgloss.Style
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Focused   lipgloss.Style
	Unfocused lipgloss.Style
	Status    lipgloss.Style
}

func NewSidebar() *Sidebar {
	return &Sidebar{
		viewport: 20,
		styles: SidebarStyles{
			Header:    lipgloss.NewStyle().Background(lipgloss.Color("#1a1a1a")).Foreground(lipgloss.Color("#FFD700")).Bold(true).Padding(0, 1),
			Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFD700")),
			Normal:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")),
			Focused:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#00FF00")),
			Unfocused: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#666666")),
			Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		},
	}
}

func (sb *Sidebar) SetTables(tables []string) {
	sb.tables = tables
	sb.loading = false
	if sb.selectedIdx >= len(tables) {
		sb.selectedIdx = len(tables) - 1
	}
	if sb.selectedIdx < 0 {
		sb.selectedIdx = 0
	}
	sb.clampOffset()
}

func (sb *Sidebar) SetLoading(loading bool) {
	sb.loading = loading
}

func (sb *Sidebar) Tables() []string {
	return sb.tables
}

func (sb *Sidebar) SelectedTable() string {
	if sb.selectedIdx < 0 || sb.selectedIdx >= len(sb.tables) {
		return ""
	}
	return sb.tables[sb.selectedIdx]
}

func (sb *Sidebar) SetViewport(rows int) {
	if rows < 1 {
		rows = 1
	}
	sb.viewport = rows
	sb.clampOffset()
}

func (sb *Sidebar) Move(delta int) {
	sb.selectedIdx += delta
	if sb.selectedIdx < 0 {
		sb.selectedIdx = 0
	}
	if sb.selectedIdx >= len(sb.tables) {
		sb.selectedIdx = len(sb.tables) - 1
	}
	sb.clampOffset()
}

func (sb *Sidebar) clampOffset() {
	if sb.selectedIdx < sb.offset {
		sb.offset = sb.selectedIdx
	}
	if sb.selectedIdx >= sb.offset+sb.viewport {
		sb.offset = sb.selectedIdx - sb.viewport + 1
	}
	if sb.offset < 0 {
		sb.offset = 0
	}
}

func (sb *Sidebar) View(width, height int, isFocused bool) string {
	sb.SetViewport(height - 4)

	title := "Tables"
	header := sb.styles.Header.Render("  " + title)
	if isFocused {
		header = sb.styles.Header.Render("► " + title)
	}

	var body strings.Builder
	switch {
	case sb.loading:
		body.WriteString(sb.styles.Status.Render("  loading..."))
	case len(sb.tables) == 0:
		body.WriteString(sb.styles.Status.Render("  (no tables)"))
	default:
		end := sb.offset + sb.viewport
		if end > len(sb.tables) {
			end = len(sb.tables)
		}
		for i := sb.offset; i < end; i++ {
			name := sb.tables[i]
			if len(name) > width-6 && width > 9 {
				name = name[:width-9] + "..."
			}
			if i == sb.selectedIdx {
				body.WriteString(sb.styles.Selected.Render("> " + name))
			} else {
				body.WriteString(sb.styles.Normal.Render("  " + name))
			}
			body.WriteString("\n")
		}
	}

	footer := sb.styles.Status.Render(fmt.Sprintf("%d tables", len(sb.tables)))

	content := header + "\n" + body.String() + "\n" + footer

	borderStyle := sb.styles.Unfocused
	if isFocused {
		borderStyle = sb.styles.Focused
	}
	return borderStyle.Width(width).Height(height).Render(content)
}
