package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ConnectionDialog struct {
	choices       []string
	connections   []*ConnectionInfo
	cursor        int
	selectedIndex int
	isConfirmed   bool
	escaped       bool
	connectionMgr *ConnectionManager
}

func NewConnectionDialog(connectionMgr *ConnectionManager) *ConnectionDialog {
	cd := &ConnectionDialog{
		selectedIndex: -1,
		connectionMgr: connectionMgr,
	}
	cd.refreshChoices()
	return cd
}

func (cd *ConnectionDialog) refreshChoices() {
	cd.connections = cd.connectionMgr.GetSavedConnections()

	cd.choices = make([]string, 0, len(cd.connections)+1)
	cd.choices = append(cd.choices, "+ New connection")

	for _, conn := range cd.connections {
		cd.choices = append(cd.choices, fmt.Sprintf("%s [%s] %s", conn.Name, conn.Type, connTarget(conn)))
	}

	if cd.cursor >= len(cd.choices) {
		cd.cursor = len(cd.choices) - 1
	}
	if cd.cursor < 0 {
		cd.cursor = 0
	}
}

func connTarget(conn *ConnectionInfo) string {
	if conn.Type == ConnectionSQLite {
		return conn.Path
	}
	return fmt.Sprintf("%s:%d/%s", conn.Host, conn.Port, conn.Database)
}

func (cd *ConnectionDialog) ReloadChoices() {
	cd.refreshChoices()
	cd.selectedIndex = -1
	cd.isConfirmed = false
	cd.escaped = false
}

func (cd *ConnectionDialog) Init() tea.Cmd {
	return nil
}

func (cd *ConnectionDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyUp:
			if cd.cursor > 0 {
				cd.cursor--
			}
		case tea.KeyDown:
			if cd.cursor < len(cd.choices)-1 {
				cd.cursor++
			}
		case tea.KeyEnter, tea.KeySpace:
			cd.isConfirmed = true
			if cd.cursor == 0 {
				cd.selectedIndex = -1
			} else {
				cd.selectedIndex = cd.cursor - 1
			}
		case tea.KeyCtrlD:
			if cd.cursor > 0 && cd.cursor-1 < len(cd.connections) {
				cd.connectionMgr.DeleteConnection(cd.connections[cd.cursor-1].Name)
				cd.refreshChoices()
			}
		case tea.KeyEscape:
			cd.isConfirmed = true
			cd.escaped = true
			cd.selectedIndex = -1
		}
	}

	return cd, nil
}

func (cd *ConnectionDialog) View() string {
	title := "dbgrid - Database Browser"
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD700")).
		Bold(true).
		Align(lipgloss.Center).
		Width(60)

	content := titleStyle.Render(title) + "\n\n"

	content += lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Render("Select a connection or create a new one:\n\n")

	for i, choice := range cd.choices {
		cursor := " "
		if cd.cursor == i {
			cursor = ">"
		}

		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

		if cd.cursor == i {
			style = style.Background(lipgloss.Color("#4169E1"))
		}

		content += fmt.Sprintf("%s %s\n", cursor, style.Render(choice))
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#808080")).
		Italic(true)

	content += "\n" + helpStyle.Render("↑/↓ Navigate | Enter Select | Ctrl+D Delete | Escape Exit")

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4169E1")).
		Padding(1, 2)

	return border.Render(content)
}

func (cd *ConnectionDialog) GetSelectedConnection() *ConnectionInfo {
	if cd.selectedIndex < 0 || cd.selectedIndex >= len(cd.connections) {
		return nil
	}
	return cd.connections[cd.selectedIndex]
}

func (cd *ConnectionDialog) ShouldAddNewConnection() bool {
	return cd.cursor == 0 && cd.isConfirmed && !cd.escaped
}

func (cd *ConnectionDialog) IsConfirmed() bool {
	return cd.isConfirmed
}
