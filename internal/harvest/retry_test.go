package harvest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryStateBacksOffExponentially(t *testing.T) {
	state := newRetryState(4)

	d1, ok := state.next()
	if !ok || d1 != retryBaseDelay {
		t.Fatalf("expected first delay %s, got %s ok=%v", retryBaseDelay, d1, ok)
	}
	d2, ok := state.next()
	if !ok || d2 != 2*retryBaseDelay {
		t.Fatalf("expected second delay %s, got %s ok=%v", 2*retryBaseDelay, d2, ok)
	}
	d3, ok := state.next()
	if !ok || d3 != 4*retryBaseDelay {
		t.Fatalf("expected third delay %s, got %s ok=%v", 4*retryBaseDelay, d3, ok)
	}
	if _, ok := state.next(); ok {
		t.Fatalf("expected attempts exhausted after max")
	}
}

func TestRetryStateCapsDelay(t *testing.T) {
	state := newRetryState(100)
	var last time.Duration
	for i := 0; i < 20; i++ {
		d, ok := state.next()
		if !ok {
			t.Fatalf("unexpected exhaustion at attempt %d", i)
		}
		last = d
	}
	if last != retryMaxDelay {
		t.Fatalf("expected delay capped at %s, got %s", retryMaxDelay, last)
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"refused", errors.New("dial tcp: connection refused"), true},
		{"reset", errors.New("read: connection reset by peer"), true},
		{"server error", &StatusError{Code: 503}, true},
		{"not found", &StatusError{Code: 404}, false},
		{"forbidden", &StatusError{Code: 403}, false},
		{"other", errors.New("no such host"), false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Fatalf("%s: isTransient=%v, want %v", tc.name, got, tc.want)
		}
	}
}
