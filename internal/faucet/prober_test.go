package faucet

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"rotchain-bot/internal/domain"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type fixedJitter float64

func (f fixedJitter) Float64() float64 { return float64(f) }

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func response(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
	}
}

func newTestProber(t *testing.T, base http.RoundTripper) (*Prober, *sleepRecorder) {
	t.Helper()
	opts := DefaultOptions()
	opts.Rand = fixedJitter(0.5)
	p := newProber(noop.NewTracerProvider().Tracer("test"), base, opts)
	rec := &sleepRecorder{}
	p.sleep = rec.sleep
	return p, rec
}

func TestNormalize(t *testing.T) {
	spec := Normalize(domain.EndpointSpec{
		URL:     " https://a.test ",
		Method:  "post",
		Headers: map[string]string{"Accept": "text/plain", "X-Key": "1"},
	})

	require.Equal(t, "https://a.test", spec.URL)
	require.Equal(t, http.MethodPost, spec.Method)
	require.Equal(t, DefaultTimeout, spec.Timeout)
	require.Equal(t, "text/plain", spec.Headers["Accept"])
	require.Equal(t, "1", spec.Headers["X-Key"])
	require.Equal(t, DefaultHeaders["User-Agent"], spec.Headers["User-Agent"])
	require.Equal(t, "application/json, */*;q=0.8", DefaultHeaders["Accept"])

	require.Equal(t, http.MethodGet, Normalize(domain.EndpointSpec{URL: "x"}).Method)
}

func TestRunRetriesAndKeepsOrder(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		calls[r.URL.Host]++
		n := calls[r.URL.Host]
		mu.Unlock()

		switch r.URL.Host {
		case "a.test":
			if n == 1 {
				return response(http.StatusInternalServerError), nil
			}
			return response(http.StatusOK), nil
		default:
			return nil, errors.New("connection refused")
		}
	})
	p, rec := newTestProber(t, base)

	report := p.Run(context.Background(), []domain.EndpointSpec{{URL: "http://a.test/claim"}, {URL: "http://b.test/claim"}})

	require.Len(t, report.Results, 2)
	require.Equal(t, "http://a.test/claim", report.Results[0].URL)
	require.True(t, report.Results[0].OK)
	require.Equal(t, http.StatusOK, report.Results[0].Status)

	require.False(t, report.Results[1].OK)
	require.Equal(t, domain.ProbeStatusTransportError, report.Results[1].Status)
	require.Contains(t, report.Results[1].Error, "connection refused")

	require.Equal(t, 2, calls["a.test"])
	require.Equal(t, 3, calls["b.test"])
	require.Equal(t, 1, report.Succeeded())
	require.NotEqual(t, report.ID.String(), "00000000-0000-0000-0000-000000000000")

	// a.test: one backoff; jitter between probes; b.test: two growing backoffs
	require.Equal(t, []time.Duration{
		600 * time.Millisecond,
		1200 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
	}, rec.waits)

	require.Contains(t, FormatReport(report), "OK 1/2")
}

func TestProbeDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	p, _ := newTestProber(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return response(http.StatusNotFound), nil
	}))

	res := p.Probe(context.Background(), domain.EndpointSpec{URL: "http://a.test"})
	require.Equal(t, 1, calls)
	require.Equal(t, http.StatusNotFound, res.Status)
	require.False(t, res.OK)
	require.Empty(t, res.Error)
}

func TestProbePostSendsPayloadOnEveryAttempt(t *testing.T) {
	var bodies []string
	p, _ := newTestProber(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "abc", r.Header.Get("X-Key"))
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			return response(http.StatusTooManyRequests), nil
		}
		return response(http.StatusCreated), nil
	}))

	res := p.Probe(context.Background(), domain.EndpointSpec{
		URL:     "http://a.test",
		Method:  "POST",
		Payload: []byte(`{"addr":"0x1"}`),
		Headers: map[string]string{"X-Key": "abc"},
	})
	require.True(t, res.OK)
	require.Equal(t, []string{`{"addr":"0x1"}`, `{"addr":"0x1"}`}, bodies)
}

func TestProbePostDefaultsToEmptyObject(t *testing.T) {
	var body string
	p, _ := newTestProber(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		return response(http.StatusOK), nil
	}))

	p.Probe(context.Background(), domain.EndpointSpec{URL: "http://a.test", Method: "post"})
	require.Equal(t, "{}", body)
}

func TestProbeOtherMethodsSendGet(t *testing.T) {
	p, _ := newTestProber(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		return response(http.StatusOK), nil
	}))

	res := p.Probe(context.Background(), domain.EndpointSpec{URL: "http://a.test", Method: "put"})
	require.True(t, res.OK)
	require.Equal(t, "PUT", res.Method)
}

func TestRunWithCancelledContextStillReportsEveryEndpoint(t *testing.T) {
	p, _ := newTestProber(t, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := p.Run(ctx, []domain.EndpointSpec{{URL: "http://a.test"}, {URL: "http://b.test"}, {URL: "http://c.test"}})
	require.Len(t, report.Results, 3)
	for _, r := range report.Results {
		require.Equal(t, domain.ProbeStatusTransportError, r.Status)
	}
}

func TestNewProberRejectsBadProxy(t *testing.T) {
	_, err := NewProber(noop.NewTracerProvider().Tracer("test"), Options{Proxy: "://bad"})
	require.Error(t, err)

	p, err := NewProber(noop.NewTracerProvider().Tracer("test"), Options{Proxy: "http://127.0.0.1:3128"})
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestJitterStaysInRange(t *testing.T) {
	p := newProber(noop.NewTracerProvider().Tracer("test"), http.DefaultTransport, Options{
		JitterMin: time.Second,
		JitterMax: 2 * time.Second,
		Rand:      NewJitter(7),
	})
	for range 100 {
		d := p.jitter()
		require.GreaterOrEqual(t, d, time.Second)
		require.Less(t, d, 2*time.Second)
	}
}
