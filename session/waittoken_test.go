package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/momentics/sessionmux/session"
)

func TestWaitTokenSourceGatesAndReleases(t *testing.T) {
	src := session.NewWaitTokenSource(false)
	if src.Waiting() {
		t.Fatal("new source should not be waiting")
	}
	if !src.Wait() {
		t.Fatal("Wait should perform the transition")
	}
	if !src.Waiting() {
		t.Fatal("source should report waiting after Wait")
	}

	tok := src.Token()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tok.WaitUntilContinue()
	}()

	time.Sleep(10 * time.Millisecond)
	if !src.Continue() {
		t.Fatal("Continue should perform the transition")
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitUntilContinue did not unblock after Continue")
	}
}

func TestWaitUntilContinueOrTimeoutExpires(t *testing.T) {
	src := session.NewWaitTokenSource(true)
	tok := src.Token()

	start := time.Now()
	continued, err := tok.WaitUntilContinueOrTimeout(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if continued {
		t.Error("expected timeout, got continued=true")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("returned before the timeout elapsed")
	}
}

func TestWaitUntilContinueOrTimeoutRejectsNonPositive(t *testing.T) {
	src := session.NewWaitTokenSource(true)
	tok := src.Token()
	if _, err := tok.WaitUntilContinueOrTimeout(0); err != session.ErrInvalidTimeout {
		t.Errorf("expected ErrInvalidTimeout, got %v", err)
	}
}

func TestZeroValueTokenNeverBlocks(t *testing.T) {
	var tok session.WaitToken
	if tok.Waiting() {
		t.Fatal("zero-value token should report not waiting")
	}
	tok.WaitUntilContinue() // must return immediately
}
