package remotes

import (
	"errors"

	"github.com/reusee/hanalyzer/codecs"
)

var (
	// ErrTransport covers connection and protocol failures.
	ErrTransport = errors.New("transport error")
	// ErrTimeout is a transport failure caused by the per-operation deadline.
	ErrTimeout = errors.New("timeout")
	// ErrDecode means the payload arrived but the codec rejected it.
	ErrDecode = codecs.ErrDecode
	// ErrNotFound and ErrDenied are reported by the backend.
	ErrNotFound = errors.New("not found")
	ErrDenied   = errors.New("denied")
	// ErrStale marks a result for a canceled or superseded operation. It is
	// dropped, never shown.
	ErrStale = errors.New("stale result")
)

// Kind names the category of err for display.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStale):
		return "stale"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrDenied):
		return "denied"
	}
	return "transport"
}

// Retryable reports whether repeating the operation may succeed. Semantic
// errors reported by the backend will not heal on their own.
func Retryable(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrDenied) &&
		!errors.Is(err, ErrStale)
}
