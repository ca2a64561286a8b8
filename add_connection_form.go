package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var connectionTypes = []ConnectionType{ConnectionPostgres, ConnectionMySQL, ConnectionSQLite}

// AddConnectionForm edits a ConnectionInfo field by field. The driver type is
// cycled with left/right; the other fields are plain text. SQLite hides the
// network fields and asks for a file path instead.
type AddConnectionForm struct {
	connectionInfo  *ConnectionInfo
	field           int
	cursor          int
	isConfirmed     bool
	cancelled       bool
	validationError string
	mode            string
	fieldLabelWidth int
}

type formField struct {
	label  string
	get    func() string
	set    func(string)
	secret bool
	typeCy bool
}

func NewAddConnectionForm() *AddConnectionForm {
	return &AddConnectionForm{
		connectionInfo: &ConnectionInfo{
			Type:    ConnectionPostgres,
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			SSLMode: "disable",
		},
		mode:            "add",
		fieldLabelWidth: 18,
	}
}

func (acf *AddConnectionForm) fields() []formField {
	info := acf.connectionInfo
	fields := []formField{
		{label: "Connection Name:", get: func() string { return info.Name }, set: func(s string) { info.Name = s }},
		{label: "Type:", get: func() string { return string(info.Type) }, typeCy: true},
	}
	if info.Type == ConnectionSQLite {
		fields = append(fields,
			formField{label: "File Path:", get: func() string { return info.Path }, set: func(s string) { info.Path = s }},
		)
		return fields
	}
	fields = append(fields,
		formField{label: "Host:", get: func() string { return info.Host }, set: func(s string) { info.Host = s }},
		formField{label: "Port:", get: func() string { return strconv.Itoa(info.Port) }, set: func(s string) {
			if p, err := strconv.Atoi(s); err == nil {
				info.Port = p
			} else if s == "" {
				info.Port = 0
			}
		}},
		formField{label: "User:", get: func() string { return info.User }, set: func(s string) { info.User = s }},
		formField{label: "Password:", get: func() string { return info.Password }, set: func(s string) { info.Password = s }, secret: true},
		formField{label: "Database:", get: func() string { return info.Database }, set: func(s string) { info.Database = s }},
	)
	if info.Type == ConnectionPostgres {
		fields = append(fields,
			formField{label: "SSL Mode:", get: func() string { return info.SSLMode }, set: func(s string) { info.SSLMode = s }},
		)
	}
	return fields
}

func (acf *AddConnectionForm) Init() tea.Cmd {
	return nil
}

func (acf *AddConnectionForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		fields := acf.fields()
		current := fields[acf.field]

		switch msg.Type {
		case tea.KeyUp:
			if acf.field > 0 {
				acf.field--
				acf.cursor = len(acf.fields()[acf.field].get())
			}
		case tea.KeyDown, tea.KeyTab:
			if acf.field < len(fields)-1 {
				acf.field++
				acf.cursor = len(fields[acf.field].get())
			}
		case tea.KeyEnter:
			if acf.validate() {
				acf.isConfirmed = true
			} else {
				acf.validationError = "Please fill in required fields"
			}
		case tea.KeyEscape:
			acf.isConfirmed = true
			acf.cancelled = true
		case tea.KeyLeft:
			if current.typeCy {
				acf.cycleType(-1)
			} else if acf.cursor > 0 {
				acf.cursor--
			}
		case tea.KeyRight:
			if current.typeCy {
				acf.cycleType(1)
			} else if acf.cursor < len(current.get()) {
				acf.cursor++
			}
		case tea.KeyBackspace:
			if !current.typeCy && acf.cursor > 0 {
				value := current.get()
				current.set(value[:acf.cursor-1] + value[acf.cursor:])
				acf.cursor--
			}
		default:
			if len(msg.Runes) > 0 && !current.typeCy {
				value := current.get()
				if acf.cursor > len(value) {
					acf.cursor = len(value)
				}
				current.set(value[:acf.cursor] + string(msg.Runes) + value[acf.cursor:])
				acf.cursor += len(string(msg.Runes))
			}
		}
	}

	return acf, nil
}

func (acf *AddConnectionForm) cycleType(dir int) {
	info := acf.connectionInfo
	for i, t := range connectionTypes {
		if t == info.Type {
			next := (i + dir + len(connectionTypes)) % len(connectionTypes)
			info.Type = connectionTypes[next]
			break
		}
	}
	switch info.Type {
	case ConnectionPostgres:
		if info.Port == 0 || info.Port == 3306 {
			info.Port = 5432
		}
	case ConnectionMySQL:
		if info.Port == 0 || info.Port == 5432 {
			info.Port = 3306
		}
	}
	if acf.field >= len(acf.fields()) {
		acf.field = len(acf.fields()) - 1
	}
}

func (acf *AddConnectionForm) validate() bool {
	info := acf.connectionInfo
	if strings.TrimSpace(info.Name) == "" {
		return false
	}
	if info.Type == ConnectionSQLite {
		return strings.TrimSpace(info.Path) != ""
	}
	return strings.TrimSpace(info.Host) != "" &&
		strings.TrimSpace(info.Database) != "" &&
		info.Port > 0
}

func (acf *AddConnectionForm) View() string {
	title := "Configure Connection"
	if acf.mode == "edit" {
		title = "Edit Connection"
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD700")).
		Bold(true).
		Align(lipgloss.Center).
		Width(70)

	content := titleStyle.Render(title) + "\n\n"

	labelWidth := acf.fieldLabelWidth
	valueWidth := 35

	for i, field := range acf.fields() {
		lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
		if acf.field == i {
			lineStyle = lineStyle.Background(lipgloss.Color("#2B6CB0"))
		}

		value := field.get()
		if field.secret && value != "" {
			value = strings.Repeat("*", len(value))
		}
		if field.typeCy {
			value = "< " + value + " >"
		}

		labelStyled := lipgloss.NewStyle().
			Width(labelWidth).
			Align(lipgloss.Right).
			Bold(true).
			Render(field.label)

		valueStyled := lipgloss.NewStyle().
			Width(valueWidth).
			Render(value)

		cursorMarker := " "
		if acf.field == i {
			cursorMarker = ">"
		}

		content += lineStyle.Render(fmt.Sprintf("%s %s %s", cursorMarker, labelStyled, valueStyled)) + "\n"
	}

	if acf.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)
		content += "\n" + errorStyle.Render(acf.validationError) + "\n"
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#808080")).
		Italic(true)

	content += "\n" + helpStyle.Render("↑/↓ Navigate | ←/→ Cursor/Type | Enter Save | Esc Cancel")

	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4169E1")).
		Padding(1, 2)

	return border.Render(content)
}

func (acf *AddConnectionForm) GetConnectionInfo() *ConnectionInfo {
	return acf.connectionInfo
}

func (acf *AddConnectionForm) SetConnectionInfo(info *ConnectionInfo) {
	if info == nil {
		return
	}
	acf.connectionInfo = info
	acf.mode = "edit"
	acf.field = 0
	acf.cursor = len(info.Name)
}

func (acf *AddConnectionForm) IsConfirmed() bool {
	return acf.isConfirmed
}

func (acf *AddConnectionForm) IsCancelled() bool {
	return acf.cancelled
}
