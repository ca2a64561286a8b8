package main

// AbsoluteRow indexes into the full (possibly filtered) table; it is stable
// across window slides. WindowRow indexes into the loaded window and must be
// re-derived whenever the window moves. Keeping them as distinct types makes
// an accidental mix a compile error.
type AbsoluteRow int

type WindowRow int

const (
	DefaultPageSize = 500
	MinPageSize     = 10
	MaxPageSize     = 10000

	MaxSortColumns = 8

	loadThreshold     = 50
	maxLoadedPages    = 5
	trimDistancePages = 2

	minColumnWidth = 8
	maxColumnWidth = 30
)

type ChangeFlags uint16

const (
	ChangeData ChangeFlags = 1 << iota
	ChangeCursor
	ChangeScroll
	ChangeSelection
	ChangeEditing
	ChangeSort
	ChangeColumnWidths
	ChangeLoading
)

// PageRequest asks the owner to run a paged query (plus a fresh row count
// when the filter set changed) and hand the result back via ApplyPage /
// ApplyRowCount. Invalidate marks the reload after a sort, filter, or schema
// change: requests still queued for the old ordering are obsolete and must be
// discarded before this one runs.
type PageRequest struct {
	Offset     int
	Limit      int
	NeedCount  bool
	Invalidate bool
}

type EditBuffer struct {
	original string
	text     []rune
	cursor   int
}

type EditCommit struct {
	Row      AbsoluteRow
	Col      int
	Text     string
	Original string
}

// TableViewModel presents a logically unbounded row set through a small
// in-memory window. Cursor and scroll are window-relative; the selection set
// is absolute. All mutation happens on the UI goroutine; the only cross-thread
// handoff is the async result the owner ingests before calling ApplyPage.
type TableViewModel struct {
	schema *TableSchema

	data         *ResultSet
	loadedOffset int
	totalRows    int
	countApprox  bool

	cursorRow WindowRow
	cursorCol int
	scrollRow WindowRow
	scrollCol int

	pageSize int

	sortEntries []SortEntry
	filters     []FilterEntry

	selection map[AbsoluteRow]struct{}
	anchor    AbsoluteRow
	hasAnchor bool

	edit    *EditBuffer
	editRow AbsoluteRow
	editCol int

	colWidths []int

	loading       bool
	pendingTarget AbsoluteRow
	hasPending    bool

	onChange       func(ChangeFlags)
	onEditComplete func(ok bool, errMsg string)
	requestFetch   func(PageRequest)
}

func NewTableViewModel(schema *TableSchema, pageSize int) *TableViewModel {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &TableViewModel{
		schema:    schema,
		pageSize:  pageSize,
		selection: make(map[AbsoluteRow]struct{}),
	}
}

func (vm *TableViewModel) SetChangeFunc(fn func(ChangeFlags))        { vm.onChange = fn }
func (vm *TableViewModel) SetEditCompleteFunc(fn func(bool, string)) { vm.onEditComplete = fn }
func (vm *TableViewModel) SetFetchFunc(fn func(PageRequest))         { vm.requestFetch = fn }

func (vm *TableViewModel) notify(flags ChangeFlags) {
	if flags != 0 && vm.onChange != nil {
		vm.onChange(flags)
	}
}

func (vm *TableViewModel) PageSize() int     { return vm.pageSize }
func (vm *TableViewModel) LoadedOffset() int { return vm.loadedOffset }
func (vm *TableViewModel) LoadedCount() int  { return vm.data.NumRows() }
func (vm *TableViewModel) TotalRows() int    { return vm.totalRows }
func (vm *TableViewModel) Loading() bool     { return vm.loading }

func (vm *TableViewModel) RowCountApproximate() bool { return vm.countApprox }

func (vm *TableViewModel) Schema() *TableSchema { return vm.schema }

// SetSchema installs a fresh schema snapshot (e.g. after external DDL) and
// drops the window, which no longer matches the column set.
func (vm *TableViewModel) SetSchema(schema *TableSchema) {
	vm.schema = schema
	vm.invalidateWindow(true)
}

func (vm *TableViewModel) ColumnCount() int {
	if vm.schema != nil {
		return len(vm.schema.Columns)
	}
	return vm.data.NumColumns()
}

func (vm *TableViewModel) ColumnName(col int) string {
	if vm.schema != nil && col >= 0 && col < len(vm.schema.Columns) {
		return vm.schema.Columns[col].Name
	}
	if vm.data != nil && col >= 0 && col < len(vm.data.Columns) {
		return vm.data.Columns[col].Name
	}
	return ""
}

func (vm *TableViewModel) ColumnWidth(col int) int {
	if col >= 0 && col < len(vm.colWidths) {
		return vm.colWidths[col]
	}
	return minColumnWidth
}

func (vm *TableViewModel) CursorRow() WindowRow { return vm.cursorRow }
func (vm *TableViewModel) CursorCol() int       { return vm.cursorCol }
func (vm *TableViewModel) ScrollRow() WindowRow { return vm.scrollRow }
func (vm *TableViewModel) ScrollCol() int       { return vm.scrollCol }

// AbsoluteCursor converts the window-relative cursor back to absolute space.
func (vm *TableViewModel) AbsoluteCursor() AbsoluteRow {
	return AbsoluteRow(vm.loadedOffset + int(vm.cursorRow))
}

func (vm *TableViewModel) windowContains(abs AbsoluteRow) bool {
	return vm.data != nil && int(abs) >= vm.loadedOffset && int(abs) < vm.loadedOffset+vm.data.NumRows()
}

func (vm *TableViewModel) toWindow(abs AbsoluteRow) WindowRow {
	return WindowRow(int(abs) - vm.loadedOffset)
}

func (vm *TableViewModel) Cell(row WindowRow, col int) (DbValue, bool) {
	return vm.data.Cell(int(row), col)
}

func (vm *TableViewModel) CellText(row WindowRow, col int) string {
	v, ok := vm.data.Cell(int(row), col)
	if !ok {
		return ""
	}
	return v.Text()
}

func (vm *TableViewModel) clampAbs(abs AbsoluteRow) AbsoluteRow {
	if abs < 0 {
		return 0
	}
	if vm.totalRows > 0 && int(abs) >= vm.totalRows {
		return AbsoluteRow(vm.totalRows - 1)
	}
	if vm.totalRows == 0 {
		return 0
	}
	return abs
}

func (vm *TableViewModel) clampCol(col int) int {
	count := vm.ColumnCount()
	if col < 0 || count == 0 {
		return 0
	}
	if col >= count {
		return count - 1
	}
	return col
}

// MoveCursor applies deltas in absolute coordinates, saturating at zero.
func (vm *TableViewModel) MoveCursor(rowDelta, colDelta int) {
	abs := int(vm.AbsoluteCursor()) + rowDelta
	if abs < 0 {
		abs = 0
	}
	col := vm.cursorCol + colDelta
	if col < 0 {
		col = 0
	}
	vm.SetCursor(AbsoluteRow(abs), col)
}

// SetCursor clamps, loads the target row's window if needed, and notifies
// only when the position actually changed.
func (vm *TableViewModel) SetCursor(abs AbsoluteRow, col int) {
	abs = vm.clampAbs(abs)
	col = vm.clampCol(col)

	var flags ChangeFlags
	if col != vm.cursorCol {
		vm.cursorCol = col
		flags |= ChangeCursor
	}

	if vm.windowContains(abs) {
		if rel := vm.toWindow(abs); rel != vm.cursorRow {
			vm.cursorRow = rel
			flags |= ChangeCursor
		}
	} else {
		// Pin the cursor to the window edge nearest the target; ApplyPage
		// re-derives the real position once the slide completes.
		count := vm.data.NumRows()
		edge := WindowRow(0)
		if count > 0 && int(abs) >= vm.loadedOffset+count {
			edge = WindowRow(count - 1)
		}
		if edge != vm.cursorRow {
			vm.cursorRow = edge
			flags |= ChangeCursor
		}
		vm.EnsureRowLoaded(abs)
	}

	vm.maybePrefetch()
	vm.notify(flags)
}

// EnsureRowLoaded makes the window cover abs, centering it mid-window so
// navigation in either direction has headroom.
func (vm *TableViewModel) EnsureRowLoaded(abs AbsoluteRow) {
	abs = vm.clampAbs(abs)
	if vm.windowContains(abs) {
		return
	}
	if vm.requestFetch == nil {
		return
	}

	newOffset := int(abs) - vm.pageSize/2
	if newOffset < 0 {
		newOffset = 0
	}
	if vm.totalRows > vm.pageSize && newOffset+vm.pageSize > vm.totalRows {
		newOffset = vm.totalRows - vm.pageSize
	}

	vm.pendingTarget = abs
	vm.hasPending = true
	vm.loading = true
	vm.notify(ChangeLoading)
	vm.requestFetch(PageRequest{Offset: newOffset, Limit: vm.pageSize})
}

// maybePrefetch requests the adjacent page while the cursor is near a window
// edge with more rows beyond it, so navigation never stalls on I/O.
func (vm *TableViewModel) maybePrefetch() {
	if vm.loading || vm.data == nil || vm.requestFetch == nil {
		return
	}
	count := vm.data.NumRows()
	if count == 0 {
		return
	}
	cur := int(vm.AbsoluteCursor())

	if vm.loadedOffset > 0 && cur-vm.loadedOffset < loadThreshold {
		offset := vm.loadedOffset - vm.pageSize
		if offset < 0 {
			offset = 0
		}
		vm.loading = true
		vm.notify(ChangeLoading)
		vm.requestFetch(PageRequest{Offset: offset, Limit: vm.loadedOffset - offset})
		return
	}

	end := vm.loadedOffset + count
	if end < vm.totalRows && end-1-cur < loadThreshold {
		vm.loading = true
		vm.notify(ChangeLoading)
		vm.requestFetch(PageRequest{Offset: end, Limit: vm.pageSize})
	}
}

// ApplyPage ingests a completed page. Pages adjacent to the current window
// merge into it; anything else replaces the window wholesale. The
// offset/count/data triple changes as a unit and cursor/scroll are re-derived
// from absolute coordinates afterwards.
func (vm *TableViewModel) ApplyPage(rs *ResultSet, offset int) {
	if rs == nil {
		return
	}
	flags := ChangeData | ChangeLoading
	vm.loading = false

	prevCursorAbs := vm.AbsoluteCursor()
	prevScrollAbs := vm.loadedOffset + int(vm.scrollRow)

	switch {
	case vm.data == nil:
		vm.data = rs
		vm.loadedOffset = offset
	case offset == vm.loadedOffset+vm.data.NumRows():
		vm.data.Rows = append(vm.data.Rows, rs.Rows...)
	case offset+rs.NumRows() == vm.loadedOffset:
		merged := make([]Row, 0, rs.NumRows()+vm.data.NumRows())
		merged = append(merged, rs.Rows...)
		merged = append(merged, vm.data.Rows...)
		vm.data.Rows = merged
		vm.loadedOffset = offset
	default:
		vm.data = rs
		vm.loadedOffset = offset
	}

	// The pending target belongs to the load that was asked to cover it. A
	// page completing out of order (a prefetch queued before a long jump)
	// must not consume it, or the cursor would settle on the old window's
	// edge instead of the requested row.
	target := prevCursorAbs
	if vm.hasPending && vm.windowContains(vm.pendingTarget) {
		target = vm.pendingTarget
		vm.hasPending = false
	}
	if vm.reclampCursor(target) {
		flags |= ChangeCursor
	}
	if vm.reclampScroll(AbsoluteRow(prevScrollAbs)) {
		flags |= ChangeScroll
	}

	if vm.trim() {
		flags |= ChangeScroll
	}
	if vm.recomputeColumnWidths() {
		flags |= ChangeColumnWidths
	}
	vm.notify(flags)
}

// ApplyLoadError clears the loading state and keeps the last-known-good
// window untouched.
func (vm *TableViewModel) ApplyLoadError() {
	vm.loading = false
	vm.hasPending = false
	vm.notify(ChangeLoading)
}

// ApplyRowCount installs a fresh total, clamping the cursor if the table
// shrank under us.
func (vm *TableViewModel) ApplyRowCount(total int64, approximate bool) {
	vm.totalRows = int(total)
	vm.countApprox = approximate
	flags := ChangeData
	if vm.reclampCursor(vm.AbsoluteCursor()) {
		flags |= ChangeCursor
	}
	vm.notify(flags)
}

func (vm *TableViewModel) reclampCursor(target AbsoluteRow) bool {
	count := vm.data.NumRows()
	rel := WindowRow(0)
	if count > 0 {
		r := int(target) - vm.loadedOffset
		if r < 0 {
			r = 0
		}
		if r >= count {
			r = count - 1
		}
		rel = WindowRow(r)
	}
	if rel != vm.cursorRow {
		vm.cursorRow = rel
		return true
	}
	return false
}

func (vm *TableViewModel) reclampScroll(target AbsoluteRow) bool {
	count := vm.data.NumRows()
	rel := WindowRow(0)
	if count > 0 {
		r := int(target) - vm.loadedOffset
		if r < 0 {
			r = 0
		}
		if r >= count {
			r = count - 1
		}
		rel = WindowRow(r)
	}
	if rel != vm.scrollRow {
		vm.scrollRow = rel
		return true
	}
	return false
}

// trim drops rows farther than trimDistancePages from the cursor, bounding
// retention to maxLoadedPages pages. Only rows are discarded; totalRows is
// untouched.
func (vm *TableViewModel) trim() bool {
	if vm.data == nil {
		return false
	}
	count := vm.data.NumRows()
	if count <= vm.pageSize {
		return false
	}
	cur := int(vm.AbsoluteCursor())

	keepLo := cur - trimDistancePages*vm.pageSize
	if keepLo < vm.loadedOffset {
		keepLo = vm.loadedOffset
	}
	keepHi := cur + (maxLoadedPages-trimDistancePages)*vm.pageSize
	if keepHi > vm.loadedOffset+count {
		keepHi = vm.loadedOffset + count
	}

	dropFront := keepLo - vm.loadedOffset
	dropBack := vm.loadedOffset + count - keepHi
	if dropFront <= 0 && dropBack <= 0 {
		return false
	}

	kept := make([]Row, keepHi-keepLo)
	copy(kept, vm.data.Rows[dropFront:count-dropBack])
	vm.data.Rows = kept
	vm.loadedOffset = keepLo

	vm.reclampCursor(AbsoluteRow(cur))
	scrollAbs := vm.loadedOffset + int(vm.scrollRow)
	vm.reclampScroll(AbsoluteRow(scrollAbs))
	return true
}

func (vm *TableViewModel) recomputeColumnWidths() bool {
	cols := vm.ColumnCount()
	widths := make([]int, cols)
	for c := 0; c < cols; c++ {
		w := len(vm.ColumnName(c))
		if vm.data != nil {
			for r := range vm.data.Rows {
				if v, ok := vm.data.Cell(r, c); ok {
					if l := len(v.Text()); l > w {
						w = l
					}
				}
			}
		}
		if w < minColumnWidth {
			w = minColumnWidth
		}
		if w > maxColumnWidth {
			w = maxColumnWidth
		}
		widths[c] = w
	}
	changed := len(widths) != len(vm.colWidths)
	if !changed {
		for i := range widths {
			if widths[i] != vm.colWidths[i] {
				changed = true
				break
			}
		}
	}
	vm.colWidths = widths
	return changed
}

// EnsureCursorVisible scrolls minimally so the cursor re-enters the visible
// viewport; it never over-scrolls.
func (vm *TableViewModel) EnsureCursorVisible(visibleRows, visibleCols int) {
	if visibleRows < 1 {
		visibleRows = 1
	}
	if visibleCols < 1 {
		visibleCols = 1
	}
	var flags ChangeFlags
	if vm.cursorRow < vm.scrollRow {
		vm.scrollRow = vm.cursorRow
		flags |= ChangeScroll
	} else if vm.cursorRow >= vm.scrollRow+WindowRow(visibleRows) {
		vm.scrollRow = vm.cursorRow - WindowRow(visibleRows) + 1
		flags |= ChangeScroll
	}
	if vm.cursorCol < vm.scrollCol {
		vm.scrollCol = vm.cursorCol
		flags |= ChangeScroll
	} else if vm.cursorCol >= vm.scrollCol+visibleCols {
		vm.scrollCol = vm.cursorCol - visibleCols + 1
		flags |= ChangeScroll
	}
	vm.notify(flags)
}

func (vm *TableViewModel) SortEntries() []SortEntry {
	out := make([]SortEntry, len(vm.sortEntries))
	copy(out, vm.sortEntries)
	return out
}

// ToggleSort flips direction when the table is already sorted solely by col,
// otherwise replaces the whole spec with a single ascending entry.
func (vm *TableViewModel) ToggleSort(col int) {
	if col < 0 || col >= vm.ColumnCount() {
		return
	}
	if len(vm.sortEntries) == 1 && vm.sortEntries[0].Column == col {
		vm.sortEntries[0].Desc = !vm.sortEntries[0].Desc
	} else {
		vm.sortEntries = []SortEntry{{Column: col}}
	}
	vm.notify(ChangeSort)
	vm.invalidateWindow(false)
}

// AddSort appends a tie-break entry (or updates in place), preserving the
// relative order of existing entries; entry 0 stays the primary key.
func (vm *TableViewModel) AddSort(col int, desc bool) {
	if col < 0 || col >= vm.ColumnCount() {
		return
	}
	for i := range vm.sortEntries {
		if vm.sortEntries[i].Column == col {
			vm.sortEntries[i].Desc = desc
			vm.notify(ChangeSort)
			vm.invalidateWindow(false)
			return
		}
	}
	if len(vm.sortEntries) >= MaxSortColumns {
		return
	}
	vm.sortEntries = append(vm.sortEntries, SortEntry{Column: col, Desc: desc})
	vm.notify(ChangeSort)
	vm.invalidateWindow(false)
}

func (vm *TableViewModel) ClearSort() {
	if len(vm.sortEntries) == 0 {
		return
	}
	vm.sortEntries = nil
	vm.notify(ChangeSort)
	vm.invalidateWindow(false)
}

func (vm *TableViewModel) Filters() []FilterEntry {
	out := make([]FilterEntry, len(vm.filters))
	copy(out, vm.filters)
	return out
}

func (vm *TableViewModel) AddFilter(f FilterEntry) {
	if f.Column < 0 || f.Column >= vm.ColumnCount() {
		return
	}
	vm.filters = append(vm.filters, f)
	vm.invalidateWindow(true)
}

func (vm *TableViewModel) SetFilters(filters []FilterEntry) {
	vm.filters = append([]FilterEntry(nil), filters...)
	vm.invalidateWindow(true)
}

func (vm *TableViewModel) ClearFilters() {
	if len(vm.filters) == 0 {
		return
	}
	vm.filters = nil
	vm.invalidateWindow(true)
}

// invalidateWindow drops the loaded window after a sort or filter change: the
// old rows no longer correspond to any stable absolute ordering. The reload
// starts back at offset zero; a filter change additionally needs a fresh row
// count. The selection is cleared because absolute indices now name different
// rows.
func (vm *TableViewModel) invalidateWindow(recount bool) {
	vm.data = nil
	vm.loadedOffset = 0
	vm.cursorRow = 0
	vm.scrollRow = 0
	vm.hasPending = false
	if len(vm.selection) > 0 || vm.hasAnchor {
		vm.selection = make(map[AbsoluteRow]struct{})
		vm.hasAnchor = false
		vm.notify(ChangeSelection)
	}
	vm.notify(ChangeData)
	if vm.requestFetch != nil {
		vm.loading = true
		vm.notify(ChangeLoading)
		vm.requestFetch(PageRequest{Offset: 0, Limit: vm.pageSize, NeedCount: recount, Invalidate: true})
	}
}

func (vm *TableViewModel) IsSelected(abs AbsoluteRow) bool {
	_, ok := vm.selection[abs]
	return ok
}

func (vm *TableViewModel) SelectionCount() int { return len(vm.selection) }

func (vm *TableViewModel) ToggleRowSelection(abs AbsoluteRow) {
	if abs < 0 {
		return
	}
	if _, ok := vm.selection[abs]; ok {
		delete(vm.selection, abs)
	} else {
		vm.selection[abs] = struct{}{}
	}
	vm.notify(ChangeSelection)
}

// ExtendSelection pins an anchor at the cursor on first use, then reselects
// the inclusive anchor..to range from scratch on every call (shift-click
// semantics: the range recomputes, it does not accumulate).
func (vm *TableViewModel) ExtendSelection(to AbsoluteRow) {
	if !vm.hasAnchor {
		vm.anchor = vm.AbsoluteCursor()
		vm.hasAnchor = true
	}
	lo, hi := vm.anchor, to
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	vm.selection = make(map[AbsoluteRow]struct{}, int(hi-lo)+1)
	for r := lo; r <= hi; r++ {
		vm.selection[r] = struct{}{}
	}
	vm.notify(ChangeSelection)
}

// SelectAll covers the loaded window only, a deliberate scope limit under the
// windowed model.
func (vm *TableViewModel) SelectAll() {
	count := vm.data.NumRows()
	for i := 0; i < count; i++ {
		vm.selection[AbsoluteRow(vm.loadedOffset+i)] = struct{}{}
	}
	vm.notify(ChangeSelection)
}

func (vm *TableViewModel) ClearSelection() {
	if len(vm.selection) == 0 && !vm.hasAnchor {
		return
	}
	vm.selection = make(map[AbsoluteRow]struct{})
	vm.hasAnchor = false
	vm.notify(ChangeSelection)
}

func (vm *TableViewModel) Editing() bool { return vm.edit != nil }

func (vm *TableViewModel) EditText() string {
	if vm.edit == nil {
		return ""
	}
	return string(vm.edit.text)
}

func (vm *TableViewModel) EditCursor() int {
	if vm.edit == nil {
		return 0
	}
	return vm.edit.cursor
}

func (vm *TableViewModel) EditTarget() (AbsoluteRow, int) {
	return vm.editRow, vm.editCol
}

// StartEdit snapshots the cell text and seeds the buffer with the cursor at
// the end. A prior active edit is cancelled first; out-of-window indices fail
// with no side effects.
func (vm *TableViewModel) StartEdit(row WindowRow, col int) bool {
	if vm.data == nil || int(row) < 0 || int(row) >= vm.data.NumRows() {
		return false
	}
	if col < 0 || col >= vm.ColumnCount() {
		return false
	}
	if vm.edit != nil {
		vm.edit = nil
	}
	original := vm.CellText(row, col)
	vm.edit = &EditBuffer{
		original: original,
		text:     []rune(original),
		cursor:   len([]rune(original)),
	}
	vm.editRow = AbsoluteRow(vm.loadedOffset + int(row))
	vm.editCol = col
	vm.notify(ChangeEditing)
	return true
}

func (vm *TableViewModel) EditInsertRune(r rune) {
	if vm.edit == nil {
		return
	}
	b := vm.edit
	b.text = append(b.text[:b.cursor], append([]rune{r}, b.text[b.cursor:]...)...)
	b.cursor++
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditInsertText(s string) {
	if vm.edit == nil || s == "" {
		return
	}
	b := vm.edit
	ins := []rune(s)
	b.text = append(b.text[:b.cursor], append(ins, b.text[b.cursor:]...)...)
	b.cursor += len(ins)
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditBackspace() {
	if vm.edit == nil || vm.edit.cursor == 0 {
		return
	}
	b := vm.edit
	b.text = append(b.text[:b.cursor-1], b.text[b.cursor:]...)
	b.cursor--
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditDelete() {
	if vm.edit == nil || vm.edit.cursor >= len(vm.edit.text) {
		return
	}
	b := vm.edit
	b.text = append(b.text[:b.cursor], b.text[b.cursor+1:]...)
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditMoveCursor(delta int) {
	if vm.edit == nil {
		return
	}
	b := vm.edit
	b.cursor += delta
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor > len(b.text) {
		b.cursor = len(b.text)
	}
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditMoveHome() {
	if vm.edit == nil {
		return
	}
	vm.edit.cursor = 0
	vm.notify(ChangeEditing)
}

func (vm *TableViewModel) EditMoveEnd() {
	if vm.edit == nil {
		return
	}
	vm.edit.cursor = len(vm.edit.text)
	vm.notify(ChangeEditing)
}

// CommitEdit hands the payload to the owner, which performs the actual write
// and reports back through CompleteEdit. The buffer stays alive until then so
// a failed write can be retried or cancelled.
func (vm *TableViewModel) CommitEdit() (EditCommit, bool) {
	if vm.edit == nil {
		return EditCommit{}, false
	}
	return EditCommit{
		Row:      vm.editRow,
		Col:      vm.editCol,
		Text:     string(vm.edit.text),
		Original: vm.edit.original,
	}, true
}

// CompleteEdit finishes a commit attempt. On success the new text is written
// through to the loaded cell so the view reflects it without a reload; on
// failure the buffer stays active so the edit can be retried or cancelled.
func (vm *TableViewModel) CompleteEdit(ok bool, errMsg string) {
	if vm.edit == nil {
		return
	}
	flags := ChangeEditing
	if ok {
		if vm.windowContains(vm.editRow) {
			col := vm.editCol
			typ := TypeText
			if vm.schema != nil && col < len(vm.schema.Columns) {
				typ = vm.schema.Columns[col].ValueType
			}
			vm.data.SetCell(int(vm.toWindow(vm.editRow)), col, ParseCellInput(string(vm.edit.text), typ))
			flags |= ChangeData
		}
		vm.edit = nil
	}
	if vm.onEditComplete != nil {
		vm.onEditComplete(ok, errMsg)
	}
	vm.notify(flags)
}

// CancelEdit discards the buffer; the data model was never touched, so there
// is nothing to restore.
func (vm *TableViewModel) CancelEdit() {
	if vm.edit == nil {
		return
	}
	vm.edit = nil
	vm.notify(ChangeEditing)
}
