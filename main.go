package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type FocusMode int

const (
	FocusConnectionDialog FocusMode = iota
	FocusAddConnectionForm
	FocusSidebar
	FocusGrid
	FocusQuery
	FocusResults
	FocusFilter
)

type ConnectionStep int

const (
	StepSelectConnection ConnectionStep = iota
	StepAddConnection
	StepConnecting
	StepConnected
)

// tickMsg drives the async pump: every tick the app polls its operation
// handles and ingests whatever finished.
type tickMsg time.Time

const pollInterval = 50 * time.Millisecond

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// TableTab is one open table: its schema, view-model and the operation
// handles that feed it. Fetch requests queue in pending until the page handle
// is free.
type TableTab struct {
	table    string
	schema   *TableSchema
	vm       *TableViewModel
	schemaOp *AsyncOp
	pageOp   *AsyncOp
	countOp  *AsyncOp

	pending     []PageRequest
	inflight    PageRequest
	hasInflight bool
}

// enqueueFetch queues a page request for the tab. An invalidating request
// obsoletes everything queued or running against the old ordering, so the
// queue is dropped and any in-flight page cancelled before it is added.
func (tab *TableTab) enqueueFetch(req PageRequest) {
	if req.Invalidate {
		tab.pending = tab.pending[:0]
		tab.pageOp.Cancel()
	}
	tab.pending = append(tab.pending, req)
}

type App struct {
	cfg       AppConfig
	logger    *slog.Logger
	logCloser io.Closer

	connMgr *ConnectionManager
	history *QueryHistory

	conn     *Conn
	connInfo *ConnectionInfo

	sidebar           *Sidebar
	grid              *GridRenderer
	queryEditor       *QueryEditor
	resultsViewer     *ResultsViewer
	filterInput       *TextInput
	connectionDialog  *ConnectionDialog
	addConnectionForm *AddConnectionForm

	tabs      []*TableTab
	activeTab int

	connectOp *AsyncOp
	listOp    *AsyncOp
	execOp    *AsyncOp
	execTab   *TableTab

	styles AppStyles

	statusMsg string
	errMsg    string

	focusMode      FocusMode
	connectionStep ConnectionStep
	width          int
	height         int
}

type AppStyles struct {
	Header lipgloss.Style
	Footer lipgloss.Style
	Error  lipgloss.Style
}

func NewApp(cfg AppConfig, logger *slog.Logger, closer io.Closer) (*App, error) {
	connMgr, err := NewConnectionManager(cfg.MaxFieldSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection manager: %w", err)
	}
	history, err := NewQueryHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to load query history: %w", err)
	}

	app := &App{
		cfg:           cfg,
		logger:        logger,
		logCloser:     closer,
		connMgr:       connMgr,
		history:       history,
		sidebar:       NewSidebar(),
		grid:          NewGridRenderer(),
		queryEditor:   NewQueryEditor(history),
		resultsViewer: NewResultsViewer(),
		filterInput:   NewTextInput(),
		connectOp:     NewAsyncOp(),
		listOp:        NewAsyncOp(),
		execOp:        NewAsyncOp(),
		width:         80,
		height:        24,
		styles: AppStyles{
			Header: lipgloss.NewStyle().Background(lipgloss.Color("#1a1a1a")).Foreground(lipgloss.Color("#FFD700")).Bold(true).Padding(0, 1),
			Footer: lipgloss.NewStyle().Background(lipgloss.Color("#1a1a1a")).Foreground(lipgloss.Color("#808080")).Padding(0, 1),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
		focusMode:      FocusConnectionDialog,
		connectionStep: StepSelectConnection,
	}
	return app, nil
}

func (app *App) Init() tea.Cmd {
	app.connectionDialog = NewConnectionDialog(app.connMgr)
	app.addConnectionForm = NewAddConnectionForm()
	return tick()
}

// startConnect launches the async connect; the UI keeps polling meanwhile.
func (app *App) startConnect(info *ConnectionInfo) {
	app.errMsg = ""
	app.connInfo = info
	app.connectionStep = StepConnecting
	if err := app.connectOp.Start(OpRequest{Kind: OpConnect, Info: info, MaxField: app.cfg.MaxFieldSize}); err != nil {
		app.errMsg = err.Error()
		app.connectionStep = StepSelectConnection
		return
	}
	app.logger.Info("connecting", "name", info.Name, "type", string(info.Type))
}

func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height
		app.resultsViewer.SetSize(msg.Width, msg.Height-3)
		return app, nil
	case tickMsg:
		app.pumpAsync()
		return app, tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return app, tea.Quit
		}
		switch app.focusMode {
		case FocusConnectionDialog:
			return app.handleConnectionDialog(msg)
		case FocusAddConnectionForm:
			return app.handleAddConnectionForm(msg)
		case FocusSidebar:
			return app.handleSidebar(msg)
		case FocusGrid:
			return app.handleGrid(msg)
		case FocusQuery:
			return app.handleQueryInput(msg)
		case FocusResults:
			return app.handleResults(msg)
		case FocusFilter:
			return app.handleFilterInput(msg)
		}
		return app, nil
	default:
		return app, nil
	}
}

// pumpAsync polls every operation handle and dispatches completed results.
// Runs on the UI goroutine, so view-model mutation here is safe.
func (app *App) pumpAsync() {
	app.pumpConnect()
	app.pumpListTables()
	for _, tab := range app.tabs {
		app.pumpTab(tab)
	}
	app.pumpExec()
}

func (app *App) pumpConnect() {
	switch app.connectOp.Poll() {
	case OpCompleted:
		res := app.connectOp.TakeResult()
		app.conn = res.Conn
		app.connMgr.Adopt(app.connInfo.Name, res.Conn)
		app.connectionStep = StepConnected
		app.focusMode = FocusSidebar
		app.tabs = nil
		app.activeTab = 0
		app.logger.Info("connected", "name", app.connInfo.Name)
		app.requestTableList()
	case OpError:
		err := app.connectOp.TakeError()
		app.errMsg = fmt.Sprintf("connection failed: %v", err)
		app.connectionStep = StepSelectConnection
		app.focusMode = FocusConnectionDialog
		app.connectionDialog.ReloadChoices()
		app.logger.Error("connect failed", "error", err)
	}
}

func (app *App) requestTableList() {
	app.sidebar.SetLoading(true)
	if err := app.listOp.Start(OpRequest{Kind: OpListTables, Conn: app.conn}); err != nil {
		app.errMsg = err.Error()
		app.sidebar.SetLoading(false)
	}
}

func (app *App) pumpListTables() {
	switch app.listOp.Poll() {
	case OpCompleted:
		res := app.listOp.TakeResult()
		app.sidebar.SetTables(res.Tables)
	case OpError:
		err := app.listOp.TakeError()
		app.sidebar.SetLoading(false)
		app.errMsg = fmt.Sprintf("failed to list tables: %v", err)
	}
}

func (app *App) pumpTab(tab *TableTab) {
	switch tab.schemaOp.Poll() {
	case OpCompleted:
		res := tab.schemaOp.TakeResult()
		app.attachViewModel(tab, res.Schema)
	case OpError:
		err := tab.schemaOp.TakeError()
		app.errMsg = fmt.Sprintf("failed to load schema for %s: %v", tab.table, err)
	}

	switch tab.pageOp.Poll() {
	case OpCompleted:
		res := tab.pageOp.TakeResult()
		needCount := tab.hasInflight && tab.inflight.NeedCount
		offset := tab.inflight.Offset
		tab.hasInflight = false
		tab.vm.ApplyPage(res.Rows, offset)
		if needCount {
			app.startCount(tab)
		}
	case OpError:
		err := tab.pageOp.TakeError()
		tab.hasInflight = false
		tab.vm.ApplyLoadError()
		app.errMsg = fmt.Sprintf("failed to load rows: %v", err)
	case OpCancelled:
		tab.pageOp.Acknowledge()
		tab.hasInflight = false
		tab.vm.ApplyLoadError()
	}

	switch tab.countOp.Poll() {
	case OpCompleted:
		res := tab.countOp.TakeResult()
		tab.vm.ApplyRowCount(res.Count, res.CountApproximate)
	case OpError:
		err := tab.countOp.TakeError()
		app.errMsg = fmt.Sprintf("failed to count rows: %v", err)
	case OpCancelled:
		tab.countOp.Acknowledge()
	}

	app.startNextFetch(tab)
}

// attachViewModel wires the view-model to its tab once the schema arrives and
// kicks off the first page plus a row count.
func (app *App) attachViewModel(tab *TableTab, schema *TableSchema) {
	tab.schema = schema
	vm := NewTableViewModel(schema, app.cfg.PageSize)
	vm.SetFetchFunc(tab.enqueueFetch)
	vm.SetEditCompleteFunc(func(ok bool, errMsg string) {
		if !ok && errMsg != "" {
			app.errMsg = errMsg
		}
	})
	tab.vm = vm
	tab.pending = append(tab.pending, PageRequest{Offset: 0, Limit: vm.PageSize(), NeedCount: true})
}

func (app *App) startNextFetch(tab *TableTab) {
	if tab.vm == nil || len(tab.pending) == 0 || tab.pageOp.Poll() == OpRunning {
		return
	}
	req := tab.pending[0]
	tab.pending = tab.pending[1:]

	orderBy := BuildOrderBy(tab.vm.SortEntries(), tab.schema, app.conn.Driver().Quote)
	where, err := BuildWhere(tab.vm.Filters(), tab.schema, app.conn.Driver().Quote)
	if err != nil {
		app.errMsg = err.Error()
		tab.vm.ApplyLoadError()
		return
	}

	opReq := OpRequest{
		Kind:    OpQueryPage,
		Conn:    app.conn,
		Table:   tab.table,
		Offset:  req.Offset,
		Limit:   req.Limit,
		OrderBy: orderBy,
	}
	if where != "" {
		opReq.Kind = OpQueryPageWhere
		opReq.Where = where
	}
	if err := tab.pageOp.Start(opReq); err != nil {
		app.errMsg = err.Error()
		return
	}
	tab.inflight = req
	tab.hasInflight = true
}

// startCount runs the row count for the tab's current filter set. Unfiltered
// counts may use the driver's fast estimate; filtered counts are always exact.
func (app *App) startCount(tab *TableTab) {
	where, err := BuildWhere(tab.vm.Filters(), tab.schema, app.conn.Driver().Quote)
	if err != nil {
		app.errMsg = err.Error()
		return
	}
	req := OpRequest{Kind: OpCountRows, Conn: app.conn, Table: tab.table, Approximate: true}
	if where != "" {
		req.Kind = OpCountRowsWhere
		req.Where = where
		req.Approximate = false
	}
	if err := tab.countOp.Start(req); err != nil && err != ErrOpRunning {
		app.errMsg = err.Error()
	}
}

func (app *App) pumpExec() {
	switch app.execOp.Poll() {
	case OpCompleted:
		res := app.execOp.TakeResult()
		switch res.Kind {
		case OpRawQuery:
			app.resultsViewer.SetResults(res.Rows)
			app.focusMode = FocusResults
		case OpRawExec:
			app.resultsViewer.SetAffected(res.Affected)
			app.focusMode = FocusResults
		case OpUpdateCell:
			if app.execTab != nil && app.execTab.vm != nil {
				if res.Updated {
					app.execTab.vm.CompleteEdit(true, "")
					app.statusMsg = "cell updated"
				} else {
					app.execTab.vm.CompleteEdit(false, "no row matched the primary key")
				}
			}
			app.execTab = nil
		case OpDeleteRow:
			if app.execTab != nil && app.execTab.vm != nil {
				if res.Updated {
					app.statusMsg = "row deleted"
					app.reloadTab(app.execTab)
				} else {
					app.errMsg = "no row matched the primary key"
				}
			}
			app.execTab = nil
		}
	case OpError:
		err := app.execOp.TakeError()
		if app.execTab != nil && app.execTab.vm != nil && app.execTab.vm.Editing() {
			app.execTab.vm.CompleteEdit(false, err.Error())
		} else {
			app.errMsg = err.Error()
		}
		app.execTab = nil
	}
}

// reloadTab re-fetches the current window and recounts; used after a
// mutation shifted the data under the view.
func (app *App) reloadTab(tab *TableTab) {
	tab.pending = append(tab.pending, PageRequest{
		Offset:    tab.vm.LoadedOffset(),
		Limit:     tab.vm.PageSize(),
		NeedCount: true,
	})
}

func (app *App) handleConnectionDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dialog := app.connectionDialog
	model, cmd := dialog.Update(msg)
	app.connectionDialog = model.(*ConnectionDialog)

	if dialog.IsConfirmed() {
		if dialog.ShouldAddNewConnection() {
			app.focusMode = FocusAddConnectionForm
			app.connectionStep = StepAddConnection
			app.addConnectionForm = NewAddConnectionForm()
		} else if conn := dialog.GetSelectedConnection(); conn != nil {
			dialog.ReloadChoices()
			app.startConnect(conn)
		} else {
			return app, tea.Quit
		}
	}

	return app, cmd
}

func (app *App) handleAddConnectionForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := app.addConnectionForm
	model, cmd := form.Update(msg)
	app.addConnectionForm = model.(*AddConnectionForm)

	if form.IsConfirmed() {
		if form.IsCancelled() {
			app.focusMode = FocusConnectionDialog
			app.connectionStep = StepSelectConnection
			app.connectionDialog.ReloadChoices()
		} else if conn := form.GetConnectionInfo(); conn != nil {
			if err := app.connMgr.SaveConnection(conn); err != nil {
				app.errMsg = fmt.Sprintf("failed to save connection: %v", err)
				return app, cmd
			}
			app.focusMode = FocusConnectionDialog
			app.startConnect(conn)
		}
	}

	return app, cmd
}

func (app *App) handleSidebar(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		app.sidebar.Move(-1)
	case tea.KeyDown:
		app.sidebar.Move(1)
	case tea.KeyPgUp:
		app.sidebar.Move(-10)
	case tea.KeyPgDown:
		app.sidebar.Move(10)
	case tea.KeyEnter:
		app.openTable(app.sidebar.SelectedTable())
	case tea.KeyTab:
		if len(app.tabs) > 0 {
			app.focusMode = FocusGrid
		}
	case tea.KeyCtrlQ:
		app.focusMode = FocusQuery
	case tea.KeyEscape:
		app.disconnect()
	default:
		switch msg.String() {
		case "q":
			return app, tea.Quit
		case "r":
			app.requestTableList()
		}
	}
	return app, nil
}

func (app *App) disconnect() {
	if app.connInfo != nil {
		app.connMgr.Disconnect(app.connInfo.Name)
	}
	app.conn = nil
	app.tabs = nil
	app.activeTab = 0
	app.connectionStep = StepSelectConnection
	app.focusMode = FocusConnectionDialog
	app.connectionDialog.ReloadChoices()
}

// openTable switches to an existing tab for the table or opens a new one and
// starts its schema load.
func (app *App) openTable(table string) {
	if table == "" || app.conn == nil {
		return
	}
	for i, tab := range app.tabs {
		if tab.table == table {
			app.activeTab = i
			app.focusMode = FocusGrid
			return
		}
	}
	tab := &TableTab{
		table:    table,
		schemaOp: NewAsyncOp(),
		pageOp:   NewAsyncOp(),
		countOp:  NewAsyncOp(),
	}
	if err := tab.schemaOp.Start(OpRequest{Kind: OpGetSchema, Conn: app.conn, Table: table}); err != nil {
		app.errMsg = err.Error()
		return
	}
	app.tabs = append(app.tabs, tab)
	app.activeTab = len(app.tabs) - 1
	app.focusMode = FocusGrid
	app.logger.Info("opened table", "table", table)
}

func (app *App) currentTab() *TableTab {
	if app.activeTab < 0 || app.activeTab >= len(app.tabs) {
		return nil
	}
	return app.tabs[app.activeTab]
}

func (app *App) closeCurrentTab() {
	tab := app.currentTab()
	if tab == nil {
		return
	}
	tab.pageOp.Cancel()
	tab.countOp.Cancel()
	tab.schemaOp.Cancel()
	app.tabs = append(app.tabs[:app.activeTab], app.tabs[app.activeTab+1:]...)
	if app.activeTab >= len(app.tabs) {
		app.activeTab = len(app.tabs) - 1
	}
	if len(app.tabs) == 0 {
		app.focusMode = FocusSidebar
	}
}

func (app *App) handleGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := app.currentTab()
	if tab == nil || tab.vm == nil {
		if msg.Type == tea.KeyEscape || msg.Type == tea.KeyTab {
			app.focusMode = FocusSidebar
		}
		return app, nil
	}
	vm := tab.vm

	if vm.Editing() {
		return app.handleGridEdit(msg, tab)
	}

	visRows := app.gridVisibleRows()

	switch msg.Type {
	case tea.KeyUp:
		vm.MoveCursor(-1, 0)
	case tea.KeyDown:
		vm.MoveCursor(1, 0)
	case tea.KeyLeft:
		vm.MoveCursor(0, -1)
	case tea.KeyRight:
		vm.MoveCursor(0, 1)
	case tea.KeyPgUp:
		vm.MoveCursor(-visRows, 0)
	case tea.KeyPgDown:
		vm.MoveCursor(visRows, 0)
	case tea.KeyHome:
		vm.SetCursor(vm.AbsoluteCursor(), 0)
	case tea.KeyEnd:
		vm.SetCursor(vm.AbsoluteCursor(), vm.ColumnCount()-1)
	case tea.KeyEnter:
		vm.StartEdit(vm.CursorRow(), vm.CursorCol())
	case tea.KeySpace:
		vm.ToggleRowSelection(vm.AbsoluteCursor())
	case tea.KeyCtrlA:
		vm.SelectAll()
	case tea.KeyCtrlD:
		app.deleteCursorRow(tab)
	case tea.KeyCtrlQ:
		app.focusMode = FocusQuery
	case tea.KeyCtrlX:
		tab.pageOp.Cancel()
		tab.countOp.Cancel()
	case tea.KeyCtrlW:
		app.closeCurrentTab()
	case tea.KeyTab:
		app.focusMode = FocusSidebar
	case tea.KeyEscape:
		if vm.SelectionCount() > 0 {
			vm.ClearSelection()
		} else {
			app.focusMode = FocusSidebar
		}
	default:
		switch msg.String() {
		case "g":
			vm.SetCursor(0, vm.CursorCol())
		case "G":
			vm.SetCursor(AbsoluteRow(vm.TotalRows()-1), vm.CursorCol())
		case "s":
			vm.ToggleSort(vm.CursorCol())
		case "S":
			app.addSortAtCursor(vm)
		case "o":
			vm.ClearSort()
		case "f":
			app.filterInput.Reset()
			app.filterInput.SetPlaceholder("column op value (e.g. status = active)")
			app.filterInput.SetWidth(maxInt(app.width-8, 30))
			app.focusMode = FocusFilter
		case "F":
			vm.ClearFilters()
		case "v":
			vm.ExtendSelection(vm.AbsoluteCursor())
		case "[":
			if app.activeTab > 0 {
				app.activeTab--
			}
		case "]":
			if app.activeTab < len(app.tabs)-1 {
				app.activeTab++
			}
		}
	}
	return app, nil
}

// addSortAtCursor appends the cursor column as a tie-break, or flips its
// direction if it is already part of the sort spec.
func (app *App) addSortAtCursor(vm *TableViewModel) {
	col := vm.CursorCol()
	for _, e := range vm.SortEntries() {
		if e.Column == col {
			vm.AddSort(col, !e.Desc)
			return
		}
	}
	vm.AddSort(col, false)
}

func (app *App) handleGridEdit(msg tea.KeyMsg, tab *TableTab) (tea.Model, tea.Cmd) {
	vm := tab.vm
	switch msg.Type {
	case tea.KeyEscape:
		vm.CancelEdit()
	case tea.KeyEnter:
		app.commitCellEdit(tab)
	case tea.KeyLeft:
		vm.EditMoveCursor(-1)
	case tea.KeyRight:
		vm.EditMoveCursor(1)
	case tea.KeyHome:
		vm.EditMoveHome()
	case tea.KeyEnd:
		vm.EditMoveEnd()
	case tea.KeyBackspace:
		vm.EditBackspace()
	case tea.KeyDelete:
		vm.EditDelete()
	default:
		for _, r := range msg.Runes {
			vm.EditInsertRune(r)
		}
	}
	return app, nil
}

// commitCellEdit turns the edit buffer into an async UPDATE keyed by the
// row's primary key. The buffer stays active until the write reports back.
func (app *App) commitCellEdit(tab *TableTab) {
	vm := tab.vm
	payload, ok := vm.CommitEdit()
	if !ok {
		return
	}
	pkCols, pkVals, err := app.primaryKeyFor(tab, payload.Row)
	if err != nil {
		vm.CompleteEdit(false, err.Error())
		return
	}
	col := tab.schema.Columns[payload.Col]
	newValue := ParseCellInput(payload.Text, col.ValueType)

	req := OpRequest{
		Kind:     OpUpdateCell,
		Conn:     app.conn,
		Table:    tab.table,
		PKCols:   pkCols,
		PKVals:   pkVals,
		Column:   col.Name,
		NewValue: newValue,
	}
	if err := app.execOp.Start(req); err != nil {
		vm.CompleteEdit(false, err.Error())
		return
	}
	app.execTab = tab
}

func (app *App) deleteCursorRow(tab *TableTab) {
	vm := tab.vm
	pkCols, pkVals, err := app.primaryKeyFor(tab, vm.AbsoluteCursor())
	if err != nil {
		app.errMsg = err.Error()
		return
	}
	req := OpRequest{
		Kind:   OpDeleteRow,
		Conn:   app.conn,
		Table:  tab.table,
		PKCols: pkCols,
		PKVals: pkVals,
	}
	if err := app.execOp.Start(req); err != nil {
		app.errMsg = err.Error()
		return
	}
	app.execTab = tab
}

// primaryKeyFor extracts the primary key values of a loaded row. Tables
// without a primary key cannot be mutated safely and are rejected.
func (app *App) primaryKeyFor(tab *TableTab, row AbsoluteRow) ([]string, []DbValue, error) {
	if tab.schema == nil {
		return nil, nil, fmt.Errorf("schema not loaded")
	}
	pks := tab.schema.PrimaryKeyColumns()
	if len(pks) == 0 {
		return nil, nil, fmt.Errorf("table %s has no primary key", tab.table)
	}
	if !tab.vm.windowContains(row) {
		return nil, nil, fmt.Errorf("row is no longer loaded")
	}
	win := tab.vm.toWindow(row)
	cols := make([]string, 0, len(pks))
	vals := make([]DbValue, 0, len(pks))
	for _, pk := range pks {
		idx := tab.schema.ColumnIndex(pk.Name)
		v, ok := tab.vm.Cell(win, idx)
		if !ok {
			return nil, nil, fmt.Errorf("primary key column %s not loaded", pk.Name)
		}
		cols = append(cols, pk.Name)
		vals = append(vals, v)
	}
	return cols, vals, nil
}

func (app *App) handleQueryInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		app.focusMode = app.returnFocus()
		return app, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(app.queryEditor.GetValue())
		if query != "" {
			app.executeRawQuery(query)
		}
		return app, nil
	default:
		model, cmd := app.queryEditor.Update(msg)
		app.queryEditor = model.(*QueryEditor)
		return app, cmd
	}
}

func (app *App) returnFocus() FocusMode {
	if app.currentTab() != nil {
		return FocusGrid
	}
	return FocusSidebar
}

// executeRawQuery classifies the statement: row-returning statements go
// through the query path, everything else through exec.
func (app *App) executeRawQuery(query string) {
	if app.conn == nil {
		app.errMsg = "not connected"
		return
	}
	kind := OpRawExec
	switch strings.ToLower(strings.Fields(query)[0]) {
	case "select", "with", "show", "explain", "pragma", "describe":
		kind = OpRawQuery
	}
	if err := app.execOp.Start(OpRequest{Kind: kind, Conn: app.conn, SQL: query}); err != nil {
		app.errMsg = err.Error()
		return
	}
	app.history.Add(query)
	app.queryEditor.ResetHistoryCursor()
	app.logger.Info("executing raw statement")
}

func (app *App) handleResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		app.focusMode = FocusQuery
	case tea.KeyUp:
		app.resultsViewer.ScrollUp()
	case tea.KeyDown:
		app.resultsViewer.ScrollDown()
	case tea.KeyHome:
		app.resultsViewer.ScrollToTop()
	case tea.KeyEnd:
		app.resultsViewer.ScrollToBottom()
	}
	return app, nil
}

func (app *App) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tab := app.currentTab()
	if tab == nil || tab.vm == nil {
		app.focusMode = FocusSidebar
		return app, nil
	}

	switch msg.Type {
	case tea.KeyEscape:
		app.filterInput.Reset()
		app.focusMode = FocusGrid
		return app, nil
	case tea.KeyEnter:
		entry, ok := ParseFilterInput(app.filterInput.Value(), tab.schema)
		if !ok {
			app.errMsg = "invalid filter, expected: column op value"
			return app, nil
		}
		app.errMsg = ""
		app.filterInput.Reset()
		app.focusMode = FocusGrid
		tab.vm.AddFilter(entry)
		return app, nil
	}

	app.filterInput.HandleKey(msg)
	return app, nil
}

func (app *App) gridVisibleRows() int {
	rows := app.height - 7
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (app *App) View() string {
	switch app.connectionStep {
	case StepSelectConnection:
		view := app.connectionDialog.View()
		if app.errMsg != "" {
			view += "\n" + app.styles.Error.Render(app.errMsg)
		}
		return view
	case StepAddConnection:
		return app.addConnectionForm.View()
	case StepConnecting:
		return app.renderConnecting()
	case StepConnected:
		return app.renderMainView()
	default:
		return "Loading..."
	}
}

func (app *App) renderConnecting() string {
	name := ""
	if app.connInfo != nil {
		name = app.connInfo.Name
	}
	return lipgloss.NewStyle().
		Width(50).
		Align(lipgloss.Center).
		Height(8).
		Border(lipgloss.RoundedBorder()).
		Padding(2, 1).
		Render(fmt.Sprintf("Connecting to %s...", name))
}

func (app *App) renderMainView() string {
	switch app.focusMode {
	case FocusQuery:
		return app.renderQueryView()
	case FocusResults:
		return app.renderResultsView()
	default:
		return app.renderBrowserView()
	}
}

func (app *App) headerLine() string {
	name := ""
	if app.connInfo != nil {
		name = app.connInfo.Name
	}
	title := "dbgrid | " + name
	if tab := app.currentTab(); tab != nil {
		names := make([]string, len(app.tabs))
		for i, t := range app.tabs {
			if i == app.activeTab {
				names[i] = "[" + t.table + "]"
			} else {
				names[i] = t.table
			}
		}
		title += " | " + strings.Join(names, " ")
	}
	return app.styles.Header.Render(title)
}

func (app *App) footerLine(help string) string {
	line := help
	if app.statusMsg != "" {
		line = app.statusMsg + " | " + line
		app.statusMsg = ""
	}
	footer := app.styles.Footer.Render(line)
	if app.errMsg != "" {
		footer = app.styles.Error.Render(app.errMsg) + "\n" + footer
	}
	return footer
}

func (app *App) renderBrowserView() string {
	bodyHeight := app.height - 3
	if bodyHeight < 4 {
		bodyHeight = 4
	}
	sidebarWidth := 28
	gridWidth := app.width - sidebarWidth - 4
	if gridWidth < 20 {
		gridWidth = 20
	}

	sidebarView := app.sidebar.View(sidebarWidth, bodyHeight, app.focusMode == FocusSidebar)

	var gridView string
	if tab := app.currentTab(); tab != nil && tab.vm != nil {
		gridView = app.grid.Render(tab.vm, gridWidth, bodyHeight)
	} else if tab := app.currentTab(); tab != nil {
		gridView = "  loading schema..."
	} else {
		gridView = "  Select a table and press Enter"
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebarView, " "+gridView)

	help := "Tab: switch pane | Enter: open/edit | s/S: sort | f: filter | Space: select | Ctrl+Q: SQL | Ctrl+C: quit"
	content := app.headerLine() + "\n" + body + "\n"
	if app.focusMode == FocusFilter {
		content += app.filterInput.View("Filter") + "\n"
	}
	content += app.footerLine(help)
	return content
}

func (app *App) renderQueryView() string {
	help := "SQL Editor | Enter: execute | Ctrl+J: newline | Ctrl+P/N: history | Esc: back"
	return app.headerLine() + "\n" + app.queryEditor.View() + "\n" + app.footerLine(help)
}

func (app *App) renderResultsView() string {
	help := "Results | ↑/↓ scroll | Esc: back to editor"
	return app.headerLine() + "\n" + app.resultsViewer.View() + "\n" + app.footerLine(help)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func main() {
	cfg, err := LoadAppConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	app, err := NewApp(cfg, logger, closer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer app.connMgr.Close()

	// A connection string argument skips the dialog.
	if len(os.Args) > 1 {
		info, err := ParseConnString(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		app.startConnect(info)
	}

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}
