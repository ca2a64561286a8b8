package main

import (
	"fmt"
	"testing"
)

func gridSchema(cols ...string) *TableSchema {
	s := &TableSchema{Table: "t"}
	for i, name := range cols {
		def := ColumnDef{Name: name, DeclaredType: "text", ValueType: TypeText}
		if i == 0 {
			def = ColumnDef{Name: name, DeclaredType: "integer", ValueType: TypeInt, PrimaryKey: true}
		}
		s.Columns = append(s.Columns, def)
	}
	return s
}

func makePage(schema *TableSchema, offset, n int) *ResultSet {
	rs := NewResultSet(schema.Columns)
	for i := 0; i < n; i++ {
		cells := make([]DbValue, len(schema.Columns))
		cells[0] = IntValue(int64(offset + i))
		for c := 1; c < len(schema.Columns); c++ {
			cells[c] = TextValue(fmt.Sprintf("r%dc%d", offset+i, c))
		}
		if err := rs.AppendRow(cells); err != nil {
			panic(err)
		}
	}
	return rs
}

type fetchRecorder struct {
	reqs []PageRequest
}

func (fr *fetchRecorder) fetch(req PageRequest) {
	fr.reqs = append(fr.reqs, req)
}

func newTestVM(t *testing.T, totalRows, pageSize int, cols ...string) (*TableViewModel, *fetchRecorder) {
	t.Helper()
	if len(cols) == 0 {
		cols = []string{"id", "name"}
	}
	vm := NewTableViewModel(gridSchema(cols...), pageSize)
	rec := &fetchRecorder{}
	vm.SetFetchFunc(rec.fetch)
	vm.ApplyRowCount(int64(totalRows), false)
	return vm, rec
}

func TestPageSizeClamped(t *testing.T) {
	if got := NewTableViewModel(nil, 0).PageSize(); got != DefaultPageSize {
		t.Fatalf("zero page size: got %d, want %d", got, DefaultPageSize)
	}
	if got := NewTableViewModel(nil, 3).PageSize(); got != MinPageSize {
		t.Fatalf("tiny page size: got %d, want %d", got, MinPageSize)
	}
	if got := NewTableViewModel(nil, 1<<20).PageSize(); got != MaxPageSize {
		t.Fatalf("huge page size: got %d, want %d", got, MaxPageSize)
	}
}

func TestEnsureRowLoadedCentersWindow(t *testing.T) {
	vm, rec := newTestVM(t, 10000, 500)

	vm.EnsureRowLoaded(5000)
	if len(rec.reqs) != 1 {
		t.Fatalf("expected one fetch, got %d", len(rec.reqs))
	}
	req := rec.reqs[0]
	if req.Offset != 4750 || req.Limit != 500 {
		t.Fatalf("expected centered fetch {4750 500}, got {%d %d}", req.Offset, req.Limit)
	}
	if !vm.Loading() {
		t.Fatalf("expected loading state during fetch")
	}

	vm.ApplyPage(makePage(vm.Schema(), 4750, 500), 4750)
	if vm.Loading() {
		t.Fatalf("loading should clear after ApplyPage")
	}
	if vm.AbsoluteCursor() != 5000 {
		t.Fatalf("cursor should land on target row, got %d", vm.AbsoluteCursor())
	}
}

func TestEnsureRowLoadedClampsAtTableEnd(t *testing.T) {
	vm, rec := newTestVM(t, 10000, 500)

	vm.EnsureRowLoaded(9990)
	if len(rec.reqs) != 1 {
		t.Fatalf("expected one fetch, got %d", len(rec.reqs))
	}
	if rec.reqs[0].Offset != 9500 {
		t.Fatalf("expected window clamped to 9500, got %d", rec.reqs[0].Offset)
	}
}

func TestEnsureRowLoadedClampsAtTableStart(t *testing.T) {
	vm, rec := newTestVM(t, 10000, 500)

	vm.EnsureRowLoaded(10)
	if rec.reqs[0].Offset != 0 {
		t.Fatalf("expected window clamped to 0, got %d", rec.reqs[0].Offset)
	}
}

func TestApplyPageAppendsAdjacent(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.ApplyPage(makePage(vm.Schema(), 10, 10), 10)

	if vm.LoadedOffset() != 0 || vm.LoadedCount() != 20 {
		t.Fatalf("expected merged window [0,20), got offset %d count %d", vm.LoadedOffset(), vm.LoadedCount())
	}
	if v, ok := vm.Cell(15, 0); !ok || v.Int() != 15 {
		t.Fatalf("appended rows misplaced: %v %v", v, ok)
	}
}

func TestApplyPagePrependsAdjacent(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 20, 10), 20)
	vm.SetCursor(25, 0)
	vm.ApplyPage(makePage(vm.Schema(), 10, 10), 10)

	if vm.LoadedOffset() != 10 || vm.LoadedCount() != 20 {
		t.Fatalf("expected merged window [10,30), got offset %d count %d", vm.LoadedOffset(), vm.LoadedCount())
	}
	if vm.AbsoluteCursor() != 25 {
		t.Fatalf("cursor should stay on the same absolute row, got %d", vm.AbsoluteCursor())
	}
	if v, ok := vm.Cell(0, 0); !ok || v.Int() != 10 {
		t.Fatalf("prepended rows misplaced: %v %v", v, ok)
	}
}

func TestApplyPageReplacesNonAdjacent(t *testing.T) {
	vm, _ := newTestVM(t, 10000, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.ApplyPage(makePage(vm.Schema(), 500, 10), 500)

	if vm.LoadedOffset() != 500 || vm.LoadedCount() != 10 {
		t.Fatalf("expected replacement window [500,510), got offset %d count %d", vm.LoadedOffset(), vm.LoadedCount())
	}
}

func TestTrimDropsRowsFarAheadOfCursor(t *testing.T) {
	vm, _ := newTestVM(t, 1000, 10)
	for offset := 0; offset < 40; offset += 10 {
		vm.ApplyPage(makePage(vm.Schema(), offset, 10), offset)
	}

	// Cursor stayed at row 0, so everything beyond three pages ahead is
	// dropped.
	if vm.LoadedOffset() != 0 || vm.LoadedCount() != 30 {
		t.Fatalf("expected trimmed window [0,30), got offset %d count %d", vm.LoadedOffset(), vm.LoadedCount())
	}
}

func TestTrimKeepsCursorNeighborhood(t *testing.T) {
	vm, _ := newTestVM(t, 1000, 10)
	for offset := 0; offset < 40; offset += 10 {
		vm.ApplyPage(makePage(vm.Schema(), offset, 10), offset)
	}
	// Window is now [0,30) after the first trim.
	vm.SetCursor(25, 0)
	vm.ApplyPage(makePage(vm.Schema(), 30, 10), 30)

	if vm.AbsoluteCursor() != 25 {
		t.Fatalf("cursor moved during trim: %d", vm.AbsoluteCursor())
	}
	if !vm.windowContains(25) {
		t.Fatalf("cursor row fell out of the window")
	}
	if vm.LoadedOffset() != 5 {
		t.Fatalf("expected rows more than two pages behind the cursor dropped, offset %d", vm.LoadedOffset())
	}
	if vm.LoadedCount() > maxLoadedPages*vm.PageSize() {
		t.Fatalf("window exceeds retention bound: %d rows", vm.LoadedCount())
	}
}

func TestCursorNearEdgePrefetches(t *testing.T) {
	vm, rec := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	rec.reqs = nil

	vm.SetCursor(5, 0)
	if len(rec.reqs) != 1 {
		t.Fatalf("expected a prefetch, got %d requests", len(rec.reqs))
	}
	if rec.reqs[0].Offset != 10 || rec.reqs[0].Limit != 10 {
		t.Fatalf("expected next-page prefetch {10 10}, got {%d %d}", rec.reqs[0].Offset, rec.reqs[0].Limit)
	}

	// The prefetched page merges without disturbing the cursor.
	vm.ApplyPage(makePage(vm.Schema(), 10, 10), 10)
	if vm.AbsoluteCursor() != 5 {
		t.Fatalf("cursor moved on prefetch merge: %d", vm.AbsoluteCursor())
	}
}

func TestSetCursorOutsideWindowLoadsTarget(t *testing.T) {
	vm, rec := newTestVM(t, 1000, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	rec.reqs = nil

	vm.SetCursor(500, 0)
	if len(rec.reqs) != 1 {
		t.Fatalf("expected one fetch, got %d", len(rec.reqs))
	}
	if rec.reqs[0].Offset != 495 {
		t.Fatalf("expected centered fetch at 495, got %d", rec.reqs[0].Offset)
	}

	vm.ApplyPage(makePage(vm.Schema(), 495, 10), 495)
	if vm.AbsoluteCursor() != 500 {
		t.Fatalf("cursor should land on 500, got %d", vm.AbsoluteCursor())
	}
}

func TestPrefetchDoesNotStealJumpTarget(t *testing.T) {
	vm, rec := newTestVM(t, 100000, 500)
	vm.ApplyPage(makePage(vm.Schema(), 0, 500), 0)
	rec.reqs = nil

	// Near the window's trailing edge: queues a prefetch of the next page.
	vm.SetCursor(480, 0)
	if len(rec.reqs) != 1 || rec.reqs[0].Offset != 500 {
		t.Fatalf("expected prefetch at 500, got %+v", rec.reqs)
	}

	// A long jump while the prefetch is still in flight.
	vm.SetCursor(99999, 0)
	if len(rec.reqs) != 2 || rec.reqs[1].Offset != 99500 {
		t.Fatalf("expected centered fetch at 99500, got %+v", rec.reqs)
	}

	// The prefetch completes first. Its merge must not claim the jump
	// target; the cursor stays pinned at the old window's edge.
	vm.ApplyPage(makePage(vm.Schema(), 500, 500), 500)
	if vm.AbsoluteCursor() != 499 {
		t.Fatalf("out-of-order merge moved the cursor to %d", vm.AbsoluteCursor())
	}

	// The jump's own page lands the cursor on the requested row.
	vm.ApplyPage(makePage(vm.Schema(), 99500, 500), 99500)
	if vm.AbsoluteCursor() != 99999 {
		t.Fatalf("cursor should land on the jump target 99999, got %d", vm.AbsoluteCursor())
	}
	if !vm.windowContains(99999) {
		t.Fatalf("target row not loaded")
	}
}

func TestMoveCursorSaturates(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	vm.MoveCursor(-5, -5)
	if vm.AbsoluteCursor() != 0 || vm.CursorCol() != 0 {
		t.Fatalf("cursor should saturate at origin, got row %d col %d", vm.AbsoluteCursor(), vm.CursorCol())
	}

	vm.MoveCursor(0, 99)
	if vm.CursorCol() != vm.ColumnCount()-1 {
		t.Fatalf("cursor col should clamp to last column, got %d", vm.CursorCol())
	}
}

func TestToggleSortSemantics(t *testing.T) {
	vm, rec := newTestVM(t, 100, 10, "id", "name", "age")
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	rec.reqs = nil

	vm.ToggleSort(1)
	entries := vm.SortEntries()
	if len(entries) != 1 || entries[0].Column != 1 || entries[0].Desc {
		t.Fatalf("expected single ascending sort on col 1, got %+v", entries)
	}
	if vm.LoadedCount() != 0 {
		t.Fatalf("sort change should drop the window")
	}
	if len(rec.reqs) != 1 || rec.reqs[0].NeedCount || !rec.reqs[0].Invalidate {
		t.Fatalf("sort change should reload without recount, invalidating the queue, got %+v", rec.reqs)
	}

	vm.ToggleSort(1)
	if entries := vm.SortEntries(); !entries[0].Desc {
		t.Fatalf("second toggle should flip to descending")
	}

	vm.ToggleSort(2)
	entries = vm.SortEntries()
	if len(entries) != 1 || entries[0].Column != 2 || entries[0].Desc {
		t.Fatalf("toggling another column should replace the spec, got %+v", entries)
	}
}

func TestAddSortOrderAndCap(t *testing.T) {
	cols := make([]string, 12)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	vm, _ := newTestVM(t, 100, 10, cols...)

	for i := 0; i < 12; i++ {
		vm.AddSort(i, false)
	}
	entries := vm.SortEntries()
	if len(entries) != MaxSortColumns {
		t.Fatalf("expected sort capped at %d, got %d", MaxSortColumns, len(entries))
	}
	for i, e := range entries {
		if e.Column != i {
			t.Fatalf("tie-break order not preserved: entry %d is column %d", i, e.Column)
		}
	}

	// Updating an existing entry keeps its position.
	vm.AddSort(0, true)
	entries = vm.SortEntries()
	if entries[0].Column != 0 || !entries[0].Desc {
		t.Fatalf("in-place update failed: %+v", entries[0])
	}
}

func TestFilterChangeReloadsAndRecounts(t *testing.T) {
	vm, rec := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.ToggleRowSelection(3)
	rec.reqs = nil

	vm.AddFilter(FilterEntry{Column: 1, Op: FilterEq, Value: "x"})
	if vm.LoadedCount() != 0 {
		t.Fatalf("filter change should drop the window")
	}
	if len(rec.reqs) != 1 || !rec.reqs[0].NeedCount || !rec.reqs[0].Invalidate {
		t.Fatalf("filter change should reload with recount, invalidating the queue, got %+v", rec.reqs)
	}
	if vm.SelectionCount() != 0 {
		t.Fatalf("filter change should clear the selection")
	}
}

func TestFilterOutOfRangeColumnIgnored(t *testing.T) {
	vm, rec := newTestVM(t, 100, 10)
	rec.reqs = nil
	vm.AddFilter(FilterEntry{Column: 99, Op: FilterEq, Value: "x"})
	if len(vm.Filters()) != 0 || len(rec.reqs) != 0 {
		t.Fatalf("out-of-range filter should be rejected")
	}
}

func TestSelectionPersistsAcrossSlides(t *testing.T) {
	vm, _ := newTestVM(t, 1000, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.ToggleRowSelection(3)

	vm.ApplyPage(makePage(vm.Schema(), 500, 10), 500)
	if !vm.IsSelected(3) {
		t.Fatalf("selection should survive sliding away")
	}

	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	if !vm.IsSelected(3) {
		t.Fatalf("selection should survive sliding back")
	}
	if vm.SelectionCount() != 1 {
		t.Fatalf("expected exactly one selected row, got %d", vm.SelectionCount())
	}
}

func TestExtendSelectionRecomputesRange(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.SetCursor(2, 0)

	vm.ExtendSelection(5)
	for r := AbsoluteRow(2); r <= 5; r++ {
		if !vm.IsSelected(r) {
			t.Fatalf("row %d should be selected", r)
		}
	}

	// A second extend reselects from the same anchor, it does not accumulate.
	vm.ExtendSelection(0)
	if vm.IsSelected(4) {
		t.Fatalf("rows outside the new range should be deselected")
	}
	for r := AbsoluteRow(0); r <= 2; r++ {
		if !vm.IsSelected(r) {
			t.Fatalf("row %d should be selected after re-extend", r)
		}
	}
}

func TestSelectAllCoversLoadedWindowOnly(t *testing.T) {
	vm, _ := newTestVM(t, 1000, 10)
	vm.ApplyPage(makePage(vm.Schema(), 20, 10), 20)

	vm.SelectAll()
	if vm.SelectionCount() != 10 {
		t.Fatalf("expected 10 selected rows, got %d", vm.SelectionCount())
	}
	if !vm.IsSelected(20) || !vm.IsSelected(29) || vm.IsSelected(30) {
		t.Fatalf("selection should cover exactly the loaded window")
	}
}

func TestEditLifecycle(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	if !vm.StartEdit(2, 1) {
		t.Fatalf("StartEdit should succeed inside the window")
	}
	if got := vm.EditText(); got != "r2c1" {
		t.Fatalf("edit buffer should start from the cell text, got %q", got)
	}

	vm.EditMoveEnd()
	vm.EditInsertRune('!')
	commit, ok := vm.CommitEdit()
	if !ok {
		t.Fatalf("CommitEdit should produce a payload")
	}
	if commit.Row != 2 || commit.Col != 1 || commit.Text != "r2c1!" || commit.Original != "r2c1" {
		t.Fatalf("unexpected commit payload: %+v", commit)
	}
	if !vm.Editing() {
		t.Fatalf("buffer should stay alive until the write completes")
	}

	vm.CompleteEdit(true, "")
	if vm.Editing() {
		t.Fatalf("successful completion should end the edit")
	}
	if got := vm.CellText(2, 1); got != "r2c1!" {
		t.Fatalf("successful write should reach the cell, got %q", got)
	}
}

func TestEditFailureKeepsBuffer(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	var gotOK bool
	var gotErr string
	vm.SetEditCompleteFunc(func(ok bool, errMsg string) {
		gotOK = ok
		gotErr = errMsg
	})

	vm.StartEdit(1, 1)
	vm.CompleteEdit(false, "constraint violation")
	if !vm.Editing() {
		t.Fatalf("failed completion should keep the buffer for retry")
	}
	if gotOK || gotErr != "constraint violation" {
		t.Fatalf("completion callback not fired correctly: %v %q", gotOK, gotErr)
	}
	if got := vm.CellText(1, 1); got != "r1c1" {
		t.Fatalf("failed write must not touch the cell, got %q", got)
	}

	vm.CancelEdit()
	if vm.Editing() {
		t.Fatalf("cancel should discard the buffer")
	}
}

func TestStartEditOutOfWindowFails(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	if vm.StartEdit(10, 0) {
		t.Fatalf("StartEdit past the window should fail")
	}
	if vm.StartEdit(0, 99) {
		t.Fatalf("StartEdit past the columns should fail")
	}
	if vm.Editing() {
		t.Fatalf("failed StartEdit must not leave a buffer")
	}
}

func TestStartEditReplacesPriorEdit(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	vm.StartEdit(0, 1)
	vm.EditInsertRune('x')
	vm.StartEdit(3, 1)

	if got := vm.EditText(); got != "r3c1" {
		t.Fatalf("second StartEdit should replace the buffer, got %q", got)
	}
	row, col := vm.EditTarget()
	if row != 3 || col != 1 {
		t.Fatalf("edit target not updated: %d %d", row, col)
	}
}

func TestEditBufferOps(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)

	vm.StartEdit(0, 1)
	vm.EditMoveHome()
	vm.EditInsertText("ab")
	vm.EditBackspace()
	vm.EditDelete()
	if got := vm.EditText(); got != "a0c1" {
		t.Fatalf("buffer ops mismatch, got %q", got)
	}
	if vm.EditCursor() != 1 {
		t.Fatalf("cursor mismatch, got %d", vm.EditCursor())
	}
}

func TestEnsureCursorVisibleScrollsMinimally(t *testing.T) {
	vm, _ := newTestVM(t, 100, 100)
	vm.ApplyPage(makePage(vm.Schema(), 0, 100), 0)

	vm.SetCursor(50, 0)
	vm.EnsureCursorVisible(10, 5)
	if vm.ScrollRow() != 41 {
		t.Fatalf("expected scroll 41 (cursor on last visible line), got %d", vm.ScrollRow())
	}

	vm.SetCursor(30, 0)
	vm.EnsureCursorVisible(10, 5)
	if vm.ScrollRow() != 30 {
		t.Fatalf("expected scroll 30 (cursor on first visible line), got %d", vm.ScrollRow())
	}

	// Already visible: no movement.
	vm.SetCursor(35, 0)
	vm.EnsureCursorVisible(10, 5)
	if vm.ScrollRow() != 30 {
		t.Fatalf("visible cursor should not scroll, got %d", vm.ScrollRow())
	}
}

func TestApplyRowCountShrinkClampsCursor(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	vm.SetCursor(9, 0)

	vm.ApplyRowCount(5, false)
	if vm.TotalRows() != 5 {
		t.Fatalf("total not applied")
	}
	if int(vm.AbsoluteCursor()) >= vm.LoadedCount() {
		t.Fatalf("cursor should clamp into the remaining rows, got %d", vm.AbsoluteCursor())
	}
}

func TestChangeNotificationsCoalescePerCall(t *testing.T) {
	vm, _ := newTestVM(t, 100, 10)
	var events []ChangeFlags
	vm.SetChangeFunc(func(f ChangeFlags) { events = append(events, f) })

	vm.ApplyPage(makePage(vm.Schema(), 0, 10), 0)
	if len(events) != 1 {
		t.Fatalf("ApplyPage should notify once, got %d events", len(events))
	}
	if events[0]&ChangeData == 0 {
		t.Fatalf("ApplyPage notification should carry ChangeData, got %b", events[0])
	}

	events = nil
	vm.SetCursor(vm.AbsoluteCursor(), vm.CursorCol())
	for _, f := range events {
		if f&ChangeCursor != 0 {
			t.Fatalf("no-op cursor move must not report a cursor change")
		}
	}
}

// Simulates the full navigation loop against a synthetic 10,000 row table
// with a synchronous backend: every fetch request is served immediately.
func TestScrollThroughLargeTable(t *testing.T) {
	schema := gridSchema("id", "name")
	vm := NewTableViewModel(schema, 500)
	vm.SetFetchFunc(func(req PageRequest) {
		n := req.Limit
		if req.Offset+n > 10000 {
			n = 10000 - req.Offset
		}
		vm.ApplyPage(makePage(schema, req.Offset, n), req.Offset)
	})
	vm.ApplyRowCount(10000, false)

	vm.EnsureRowLoaded(0)
	if vm.LoadedCount() == 0 {
		t.Fatalf("initial load did not happen")
	}

	// Jump to the end.
	vm.SetCursor(9999, 0)
	if vm.AbsoluteCursor() != 9999 {
		t.Fatalf("cursor should reach the last row, got %d", vm.AbsoluteCursor())
	}
	if !vm.windowContains(9999) {
		t.Fatalf("last row not loaded")
	}

	// Jump back to the start.
	vm.SetCursor(0, 0)
	if vm.AbsoluteCursor() != 0 || !vm.windowContains(0) {
		t.Fatalf("cursor should return to row 0 with the window following")
	}

	// Walk in coarse steps; the cursor row must always be loaded and the
	// window bounded.
	for abs := 0; abs < 10000; abs += 777 {
		vm.SetCursor(AbsoluteRow(abs), 0)
		if !vm.windowContains(vm.AbsoluteCursor()) {
			t.Fatalf("cursor row %d not loaded (window [%d,%d))",
				abs, vm.LoadedOffset(), vm.LoadedOffset()+vm.LoadedCount())
		}
		if vm.LoadedCount() > maxLoadedPages*vm.PageSize() {
			t.Fatalf("window exceeds retention bound at %d: %d rows", abs, vm.LoadedCount())
		}
	}
}
