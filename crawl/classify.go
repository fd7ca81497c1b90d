package crawl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/fwojciec/sitegraph"
)

// Outcome classifies the result of a single fetch attempt.
type Outcome int

const (
	// OutcomeSuccess is a 2xx or 3xx document response.
	OutcomeSuccess Outcome = iota
	// OutcomeTransient is a timeout, network error, 5xx, or 429. Retried.
	OutcomeTransient
	// OutcomePermanent is any other 4xx or unrecoverable error. Never retried.
	OutcomePermanent
	// OutcomeSkip is a response that is not a markup document.
	OutcomeSkip
)

// String returns a lower-case name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient"
	case OutcomePermanent:
		return "permanent"
	case OutcomeSkip:
		return "skip"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps a fetch result onto an Outcome.
func Classify(resp *sitegraph.Response, err error) Outcome {
	if err != nil {
		return classifyError(err)
	}
	if resp == nil {
		return OutcomePermanent
	}

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests || code >= 500:
		return OutcomeTransient
	case code >= 400:
		return OutcomePermanent
	case code < 200:
		return OutcomePermanent
	}

	if !resp.IsDocument() {
		return OutcomeSkip
	}
	return OutcomeSuccess
}

func classifyError(err error) Outcome {
	if errors.Is(err, context.Canceled) {
		return OutcomePermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTransient
	}
	switch sitegraph.ErrorCode(err) {
	case sitegraph.EUNAVAILABLE, sitegraph.ERATELIMIT:
		return OutcomeTransient
	case sitegraph.EINVALID, sitegraph.ENOTFOUND:
		return OutcomePermanent
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeTransient
	}
	return OutcomePermanent
}

// describe returns a short failure reason for the failed set.
func describe(resp *sitegraph.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	if resp == nil {
		return "no response"
	}
	if resp.StatusCode >= 300 || resp.StatusCode < 200 {
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return fmt.Sprintf("unsupported content type %q", resp.ContentType)
}
