package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/sitegraph"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*sitegraph.Response, error)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// FetchResult is the final outcome of a fetch with retries.
type FetchResult struct {
	Response *sitegraph.Response
	Outcome  Outcome
	Attempts int

	// Reason describes a non-success outcome.
	Reason string
}

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// FetchWithRetry fetches url, retrying transient outcomes with exponential
// backoff. It makes at most 3 attempts with delays of 1s and 2s.
// The logger function, if provided, is called for each retry attempt.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger LogFunc) FetchResult {
	return FetchWithRetryDelays(ctx, url, fetch, logger, DefaultRetryDelays())
}

// FetchWithRetryDelays is like FetchWithRetry but allows configurable delays.
// Only transient outcomes are retried; permanent failures and non-document
// responses return after the first attempt.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger LogFunc, delays []time.Duration) FetchResult {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var result FetchResult
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := fetch(ctx, url)
		result = FetchResult{
			Response: resp,
			Outcome:  Classify(resp, err),
			Attempts: attempt + 1,
		}
		if result.Outcome != OutcomeSuccess {
			result.Reason = describe(resp, err)
		}
		if result.Outcome != OutcomeTransient {
			return result
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %s", url, attempt+2, result.Reason)
		}

		select {
		case <-ctx.Done():
			result.Outcome = OutcomePermanent
			result.Reason = ctx.Err().Error()
			return result
		case <-time.After(delays[attempt]):
		}
	}

	return result
}
