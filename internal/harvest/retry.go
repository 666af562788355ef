package harvest

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// retryState tracks attempts and the next backoff delay for one fetch. Each
// call to next doubles the delay up to retryMaxDelay.
type retryState struct {
	attempt     int
	maxAttempts int
	delay       time.Duration
}

func newRetryState(maxAttempts int) retryState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return retryState{maxAttempts: maxAttempts, delay: retryBaseDelay}
}

// next reports whether another attempt is allowed and returns the delay to
// wait before it.
func (s *retryState) next() (time.Duration, bool) {
	s.attempt++
	if s.attempt >= s.maxAttempts {
		return 0, false
	}
	delay := s.delay
	s.delay *= 2
	if s.delay > retryMaxDelay {
		s.delay = retryMaxDelay
	}
	return delay, true
}

// isTransient reports whether a fetch error is worth retrying. Client-side
// 4xx responses are never transient.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
