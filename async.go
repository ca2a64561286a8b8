package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type OpState int

const (
	OpIdle OpState = iota
	OpRunning
	OpCompleted
	OpError
	OpCancelled
)

func (s OpState) String() string {
	switch s {
	case OpIdle:
		return "idle"
	case OpRunning:
		return "running"
	case OpCompleted:
		return "completed"
	case OpError:
		return "error"
	case OpCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type OpKind int

const (
	OpConnect OpKind = iota
	OpListTables
	OpGetSchema
	OpQueryPage
	OpQueryPageWhere
	OpCountRows
	OpCountRowsWhere
	OpRawQuery
	OpRawExec
	OpUpdateCell
	OpDeleteRow
)

// An estimate below this is cheap to verify, so the engine transparently
// re-runs an exact count and reports it as non-approximate.
const approxCountThreshold = 1_000_000

type OpRequest struct {
	Kind OpKind

	// Connect
	Info     *ConnectionInfo
	MaxField int

	// Everything else
	Conn        *Conn
	Table       string
	Offset      int
	Limit       int
	Where       string
	OrderBy     string
	SQL         string
	Approximate bool

	// UpdateCell / DeleteRow
	PKCols   []string
	PKVals   []DbValue
	Column   string
	NewValue DbValue
}

type OpResult struct {
	Kind             OpKind
	Conn             *Conn
	Tables           []string
	Schema           *TableSchema
	Rows             *ResultSet
	Count            int64
	CountApproximate bool
	Affected         int64
	Updated          bool
}

var ErrOpRunning = errors.New("an operation is already running on this handle")

// AsyncOp runs one driver call at a time on its own goroutine. The caller
// polls for a terminal state; cancellation is cooperative via the context
// handed to the driver call plus a flag checked at completion.
type AsyncOp struct {
	run func(ctx context.Context, req OpRequest) (*OpResult, error)

	mu        sync.Mutex
	state     OpState
	req       OpRequest
	result    *OpResult
	err       error
	cancelled bool
	cancelFn  context.CancelFunc
	done      chan struct{}
}

func NewAsyncOp() *AsyncOp {
	return &AsyncOp{run: execOp}
}

// Start dispatches the request to a worker. Fails if an operation is still
// running; a handle in any terminal state is reusable.
func (a *AsyncOp) Start(req OpRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == OpRunning {
		return ErrOpRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.state = OpRunning
	a.req = req
	a.result = nil
	a.err = nil
	a.cancelled = false
	a.cancelFn = cancel
	a.done = make(chan struct{})

	go a.worker(ctx, req, a.done)
	return nil
}

func (a *AsyncOp) worker(ctx context.Context, req OpRequest, done chan struct{}) {
	res, err := a.run(ctx, req)

	a.mu.Lock()
	if a.cancelFn != nil {
		a.cancelFn()
		a.cancelFn = nil
	}
	switch {
	case a.cancelled:
		a.state = OpCancelled
		disposeResult(res)
	case err != nil:
		a.state = OpError
		a.err = err
	default:
		a.state = OpCompleted
		a.result = res
	}
	a.mu.Unlock()
	close(done)
}

// Poll never blocks.
func (a *AsyncOp) Poll() OpState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Wait blocks until the operation leaves Running or the timeout expires.
// A zero timeout is poll-once. Reports whether a terminal state was reached.
func (a *AsyncOp) Wait(timeout time.Duration) bool {
	a.mu.Lock()
	if a.state != OpRunning {
		a.mu.Unlock()
		return true
	}
	done := a.done
	a.mu.Unlock()

	if timeout <= 0 {
		return false
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Cancel is advisory: the worker may finish its driver call, but the caller
// will never observe a completed result after this returns.
func (a *AsyncOp) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled = true
	if a.result != nil {
		disposeResult(a.result)
		a.result = nil
		a.state = OpCancelled
	}
	if a.cancelFn != nil {
		a.cancelFn()
	}
}

// TakeResult returns the completed result exactly once and resets the handle
// to idle.
func (a *AsyncOp) TakeResult() *OpResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != OpCompleted {
		return nil
	}
	res := a.result
	a.result = nil
	a.state = OpIdle
	return res
}

// TakeError returns the failure exactly once and resets the handle to idle.
func (a *AsyncOp) TakeError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != OpError {
		return nil
	}
	err := a.err
	a.err = nil
	a.state = OpIdle
	return err
}

// Acknowledge clears a cancelled terminal state.
func (a *AsyncOp) Acknowledge() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == OpCancelled {
		a.state = OpIdle
	}
}

func (a *AsyncOp) Kind() OpKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.req.Kind
}

// disposeResult frees whatever a discarded result holds. Only live
// connections need explicit teardown; the rest is garbage collected.
func disposeResult(res *OpResult) {
	if res == nil {
		return
	}
	if res.Kind == OpConnect && res.Conn != nil {
		res.Conn.Close()
	}
}

func execOp(ctx context.Context, req OpRequest) (*OpResult, error) {
	switch req.Kind {
	case OpConnect:
		conn, err := OpenConnection(ctx, req.Info, req.MaxField)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Conn: conn}, nil

	case OpListTables:
		tables, err := req.Conn.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Tables: tables}, nil

	case OpGetSchema:
		schema, err := req.Conn.TableSchema(ctx, req.Table)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Schema: schema}, nil

	case OpQueryPage:
		rows, err := req.Conn.QueryPage(ctx, req.Table, req.Offset, req.Limit, req.OrderBy)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Rows: rows}, nil

	case OpQueryPageWhere:
		rows, err := req.Conn.QueryPageWhere(ctx, req.Table, req.Offset, req.Limit, req.Where, req.OrderBy)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Rows: rows}, nil

	case OpCountRows:
		return execCountRows(ctx, req)

	case OpCountRowsWhere:
		count, err := req.Conn.CountRowsWhere(ctx, req.Table, req.Where)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Count: count}, nil

	case OpRawQuery:
		rows, err := req.Conn.Query(ctx, req.SQL)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Rows: rows}, nil

	case OpRawExec:
		affected, err := req.Conn.Exec(ctx, req.SQL)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Affected: affected}, nil

	case OpUpdateCell:
		updated, err := req.Conn.UpdateCell(ctx, req.Table, req.PKCols, req.PKVals, req.Column, valueArg(req.NewValue))
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Updated: updated}, nil

	case OpDeleteRow:
		deleted, err := req.Conn.DeleteRow(ctx, req.Table, req.PKCols, req.PKVals)
		if err != nil {
			return nil, err
		}
		return &OpResult{Kind: req.Kind, Updated: deleted}, nil

	default:
		return nil, fmt.Errorf("unknown operation kind %d", req.Kind)
	}
}

func execCountRows(ctx context.Context, req OpRequest) (*OpResult, error) {
	if req.Approximate {
		estimate, err := req.Conn.EstimateRowCount(ctx, req.Table)
		if err == nil && estimate >= approxCountThreshold {
			return &OpResult{Kind: req.Kind, Count: estimate, CountApproximate: true}, nil
		}
		// Small or failed estimate: fall through to the exact count.
	}
	count, err := req.Conn.CountRows(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	return &OpResult{Kind: req.Kind, Count: count}, nil
}
