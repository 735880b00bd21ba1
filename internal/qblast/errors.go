package qblast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

var (
	// ErrNoRID means the submission response carried no request identifier.
	ErrNoRID = errors.New("no RID in submission response")

	// ErrNoRTOE means the submission response carried no usable estimate.
	ErrNoRTOE = errors.New("no RTOE in submission response")

	// ErrNoInfo means a response had no QBlastInfo block.
	ErrNoInfo = errors.New("no QBlastInfo block in response")

	// ErrSearchFailed is reported when the service says Status=FAILED.
	ErrSearchFailed = errors.New("search failed")

	// ErrSearchExpired is reported for Status=UNKNOWN: the RID has expired
	// or was never known to the service.
	ErrSearchExpired = errors.New("search expired or unknown")

	// ErrPollTimeout is returned when a configured MaxWait elapses first.
	ErrPollTimeout = errors.New("gave up waiting for search")

	// ErrNotReady is returned by Fetch when the service answers with a
	// status page instead of results.
	ErrNotReady = errors.New("results not ready")
)

// HTTPError is a non-2xx answer from the service.
type HTTPError struct {
	Op         string // "submit", "status" or "fetch"
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected HTTP status %s", e.Op, e.Status)
}

// IsTransient reports whether err is worth retrying: transport failures
// (including per-request timeouts), 5xx answers and 429. Cancellation and
// malformed answers are not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= http.StatusInternalServerError || he.StatusCode == http.StatusTooManyRequests
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
