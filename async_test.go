package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newStubOp builds a handle whose worker runs the given function instead of a
// real driver call.
func newStubOp(run func(ctx context.Context, req OpRequest) (*OpResult, error)) *AsyncOp {
	return &AsyncOp{run: run}
}

func TestOpCompletesAndResultConsumedOnce(t *testing.T) {
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		return &OpResult{Kind: req.Kind, Count: 42}, nil
	})

	if err := op.Start(OpRequest{Kind: OpCountRows}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !op.Wait(time.Second) {
		t.Fatalf("operation did not finish")
	}
	if got := op.Poll(); got != OpCompleted {
		t.Fatalf("expected completed, got %v", got)
	}

	res := op.TakeResult()
	if res == nil || res.Count != 42 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := op.Poll(); got != OpIdle {
		t.Fatalf("TakeResult should reset to idle, got %v", got)
	}
	if op.TakeResult() != nil {
		t.Fatalf("result must be consumable only once")
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	release := make(chan struct{})
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		<-release
		return &OpResult{Kind: req.Kind}, nil
	})

	if err := op.Start(OpRequest{Kind: OpListTables}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := op.Start(OpRequest{Kind: OpListTables}); !errors.Is(err, ErrOpRunning) {
		t.Fatalf("expected ErrOpRunning, got %v", err)
	}

	close(release)
	if !op.Wait(time.Second) {
		t.Fatalf("operation did not finish")
	}

	// Terminal handles are reusable.
	op.TakeResult()
	if err := op.Start(OpRequest{Kind: OpListTables}); err != nil {
		t.Fatalf("restart after completion failed: %v", err)
	}
	if !op.Wait(time.Second) {
		t.Fatalf("second run did not finish")
	}
}

func TestErrorPath(t *testing.T) {
	boom := errors.New("boom")
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		return nil, boom
	})

	if err := op.Start(OpRequest{Kind: OpRawExec}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !op.Wait(time.Second) {
		t.Fatalf("operation did not finish")
	}
	if got := op.Poll(); got != OpError {
		t.Fatalf("expected error state, got %v", got)
	}
	if err := op.TakeError(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := op.Poll(); got != OpIdle {
		t.Fatalf("TakeError should reset to idle, got %v", got)
	}
	if op.TakeError() != nil {
		t.Fatalf("error must be consumable only once")
	}
}

func TestCancelledResultNeverObserved(t *testing.T) {
	started := make(chan struct{})
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		close(started)
		<-ctx.Done()
		// The worker finished anyway; its result must still be discarded.
		return &OpResult{Kind: req.Kind, Count: 99}, nil
	})

	if err := op.Start(OpRequest{Kind: OpCountRows}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-started
	op.Cancel()

	if !op.Wait(time.Second) {
		t.Fatalf("worker did not finish after cancel")
	}
	if got := op.Poll(); got != OpCancelled {
		t.Fatalf("expected cancelled, got %v", got)
	}
	if op.TakeResult() != nil {
		t.Fatalf("a cancelled operation must never yield a result")
	}

	op.Acknowledge()
	if got := op.Poll(); got != OpIdle {
		t.Fatalf("Acknowledge should reset to idle, got %v", got)
	}
}

func TestCancelAfterCompletionDiscardsResult(t *testing.T) {
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		return &OpResult{Kind: req.Kind, Count: 7}, nil
	})

	if err := op.Start(OpRequest{Kind: OpCountRows}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !op.Wait(time.Second) {
		t.Fatalf("operation did not finish")
	}

	op.Cancel()
	if got := op.Poll(); got != OpCancelled {
		t.Fatalf("cancel of a completed handle should flip to cancelled, got %v", got)
	}
	if op.TakeResult() != nil {
		t.Fatalf("result must be unobservable after cancel")
	}
}

func TestWaitZeroTimeoutPollsOnce(t *testing.T) {
	release := make(chan struct{})
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		<-release
		return &OpResult{Kind: req.Kind}, nil
	})

	if err := op.Start(OpRequest{Kind: OpListTables}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if op.Wait(0) {
		t.Fatalf("zero-timeout wait on a running op should report false")
	}
	close(release)
	if !op.Wait(time.Second) {
		t.Fatalf("operation did not finish")
	}
}

func TestKindReflectsLastRequest(t *testing.T) {
	op := newStubOp(func(ctx context.Context, req OpRequest) (*OpResult, error) {
		return &OpResult{Kind: req.Kind}, nil
	})
	if err := op.Start(OpRequest{Kind: OpGetSchema}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if got := op.Kind(); got != OpGetSchema {
		t.Fatalf("expected OpGetSchema, got %v", got)
	}
	op.Wait(time.Second)
}
