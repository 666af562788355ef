package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError reports a non-200 HTTP response from a harvest target.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Fetcher retrieves spec documents over HTTP. Each fetch runs under its own
// timeout and retries transient failures with exponential backoff; 4xx
// responses fail immediately.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
	Retries int
}

// NewFetcher constructs a Fetcher with the given per-fetch timeout and
// maximum attempt count.
func NewFetcher(timeout time.Duration, retries int) *Fetcher {
	return &Fetcher{
		Client:  &http.Client{},
		Timeout: timeout,
		Retries: retries,
	}
}

// Fetch retrieves the document at url, retrying per the fetcher's policy.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	state := newRetryState(f.Retries)
	for {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		if !isTransient(err) {
			return nil, err
		}
		delay, ok := state.next()
		if !ok {
			return nil, fmt.Errorf("retries exhausted: %w", err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	fetchCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

// Probe reports whether a health endpoint answers 200. It shares the
// fetcher's HTTP client but never retries.
func (f *Fetcher) Probe(ctx context.Context, url string) bool {
	probeCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
