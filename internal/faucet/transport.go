package faucet

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

var retryStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// retryTransport re-sends a request up to retries more times when the
// upstream answers with a throttling or gateway status, or the connection
// fails. The n-th retry waits backoff*n.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
	sleep   sleepFunc
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r := req
		if attempt > 0 {
			var err error
			if r, err = rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err := t.base.RoundTrip(r)
		if attempt >= t.retries || !shouldRetry(req, resp, err) {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if err := t.sleep(req.Context(), t.backoff*time.Duration(attempt+1)); err != nil {
			return nil, err
		}
	}
}

func shouldRetry(req *http.Request, resp *http.Response, err error) bool {
	if req.Context().Err() != nil {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	if err != nil {
		return true
	}
	_, ok := retryStatuses[resp.StatusCode]
	return ok
}

func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.GetBody == nil {
		return r, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	r.Body = body
	return r, nil
}
