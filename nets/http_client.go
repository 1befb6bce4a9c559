package nets

import (
	"net/http"
	"time"
)

type HTTPClient = *http.Client

// HTTPClient has no overall timeout: streaming transfers may be long, and each
// request carries its own deadline in its context.
func (Module) HTTPClient(
	dialer Dialer,
) HTTPClient {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: time.Minute,
		},
	}
}
