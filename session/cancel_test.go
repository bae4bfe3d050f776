package session_test

import (
	"testing"

	"github.com/momentics/sessionmux/session"
)

func TestCancellationSourceOneShot(t *testing.T) {
	src := session.NewCancellationSource()
	if src.Cancelled() {
		t.Fatal("new source reports cancelled")
	}
	if !src.Cancel() {
		t.Fatal("first Cancel should report true")
	}
	if src.Cancel() {
		t.Error("second Cancel should report false")
	}
	if !src.Cancelled() {
		t.Error("source should report cancelled after Cancel")
	}
}

func TestCancellationTokenTracksSource(t *testing.T) {
	src := session.NewCancellationSource()
	tok := src.Token()
	if tok.Cancelled() {
		t.Fatal("fresh token reports cancelled")
	}
	src.Cancel()
	if !tok.Cancelled() {
		t.Error("token did not observe source cancellation")
	}
}

func TestZeroValueTokenIsCancelled(t *testing.T) {
	var tok session.CancellationToken
	if !tok.Cancelled() {
		t.Error("zero-value token should report cancelled")
	}
}
