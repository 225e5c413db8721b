package faucet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"rotchain-bot/internal/domain"
	"rotchain-bot/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTimeout = 15 * time.Second

// DefaultHeaders are sent with every probe unless the endpoint overrides them.
var DefaultHeaders = map[string]string{
	"User-Agent": "ROTCHAIN/1.0 (+https://rotchain.click) Go-http-client",
	"Accept":     "application/json, */*;q=0.8",
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// Jitter yields uniform values in [0, 1).
type Jitter interface {
	Float64() float64
}

type lockedJitter struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedJitter) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewJitter returns a goroutine-safe Jitter seeded with seed.
func NewJitter(seed uint64) Jitter {
	return &lockedJitter{r: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

type Options struct {
	Proxy     string
	Retries   int
	Backoff   time.Duration
	JitterMin time.Duration
	JitterMax time.Duration
	Rand      Jitter
}

// DefaultOptions is two retries with 600ms linear backoff and a 0.8s to 1.6s
// pause between probes.
func DefaultOptions() Options {
	return Options{
		Retries:   2,
		Backoff:   600 * time.Millisecond,
		JitterMin: 800 * time.Millisecond,
		JitterMax: 1600 * time.Millisecond,
	}
}

// Prober checks faucet endpoints one at a time.
type Prober struct {
	tracer    trace.Tracer
	client    *http.Client
	jitterMin time.Duration
	jitterMax time.Duration
	rand      Jitter
	sleep     sleepFunc
	now       func() time.Time
}

func NewProber(tracer trace.Tracer, opts Options) (*Prober, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse faucet proxy: %w", err)
		}
		base.Proxy = http.ProxyURL(proxyURL)
	}
	return newProber(tracer, base, opts), nil
}

func newProber(tracer trace.Tracer, base http.RoundTripper, opts Options) *Prober {
	if opts.Rand == nil {
		opts.Rand = NewJitter(rand.Uint64())
	}
	if opts.JitterMax < opts.JitterMin {
		opts.JitterMax = opts.JitterMin
	}
	p := &Prober{
		tracer:    tracer,
		jitterMin: opts.JitterMin,
		jitterMax: opts.JitterMax,
		rand:      opts.Rand,
		sleep:     sleepCtx,
		now:       time.Now,
	}
	p.client = &http.Client{
		Transport: &retryTransport{
			base:    base,
			retries: max(0, opts.Retries),
			backoff: opts.Backoff,
			sleep:   func(ctx context.Context, d time.Duration) error { return p.sleep(ctx, d) },
		},
	}
	return p
}

// Normalize fills in the defaults of an endpoint: GET, the default headers
// under any entry headers, and a 15s timeout.
func Normalize(spec domain.EndpointSpec) domain.EndpointSpec {
	out := spec
	out.URL = strings.TrimSpace(spec.URL)
	out.Method = strings.ToUpper(strings.TrimSpace(spec.Method))
	if out.Method == "" {
		out.Method = http.MethodGet
	}
	out.Headers = maps.Clone(DefaultHeaders)
	maps.Copy(out.Headers, spec.Headers)
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Probe calls one endpoint. POST sends the JSON payload, or {} when there is
// none; every other method is sent as GET. Failures never escape as errors.
func (p *Prober) Probe(ctx context.Context, spec domain.EndpointSpec) domain.ProbeResult {
	spec = Normalize(spec)

	ctx, span := p.tracer.Start(ctx, "faucet.probe")
	defer span.End()
	span.SetAttributes(attribute.String("url", spec.URL), attribute.String("method", spec.Method))

	ctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	res := domain.ProbeResult{URL: spec.URL, Method: spec.Method}
	start := p.now()

	req, err := newProbeRequest(ctx, spec)
	if err == nil {
		var resp *http.Response
		resp, err = p.client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			resp.Body.Close()
			res.Status = resp.StatusCode
			res.OK = domain.StatusOK(resp.StatusCode)
		}
	}
	res.Elapsed = p.now().Sub(start)

	switch {
	case err != nil:
		res.Status = domain.ProbeStatusTransportError
		res.Error = err.Error()
		metrics.Probes.WithLabelValues("error").Inc()
		logrus.WithError(err).Warnf("Faucet probe %s %s failed", spec.Method, spec.URL)
	case res.OK:
		metrics.Probes.WithLabelValues("ok").Inc()
	default:
		metrics.Probes.WithLabelValues("fail").Inc()
	}
	span.SetAttributes(attribute.Int("status", res.Status))
	return res
}

func newProbeRequest(ctx context.Context, spec domain.EndpointSpec) (*http.Request, error) {
	var req *http.Request
	var err error
	if spec.Method == http.MethodPost {
		payload := bytes.TrimSpace(spec.Payload)
		if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
			payload = []byte("{}")
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, spec.URL, bytes.NewReader(payload))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Run probes every endpoint in order and returns one result per endpoint.
// A random pause separates consecutive probes; a cancelled context cuts the
// pause short and the remaining probes fail fast.
func (p *Prober) Run(ctx context.Context, specs []domain.EndpointSpec) domain.ProbeReport {
	ctx, span := p.tracer.Start(ctx, "faucet.run")
	defer span.End()
	span.SetAttributes(attribute.Int("endpoints", len(specs)))

	report := domain.ProbeReport{
		ID:        uuid.New(),
		StartedAt: p.now(),
		Results:   make([]domain.ProbeResult, 0, len(specs)),
	}
	for i, spec := range specs {
		if i > 0 {
			_ = p.sleep(ctx, p.jitter())
		}
		report.Results = append(report.Results, p.Probe(ctx, spec))
	}
	report.FinishedAt = p.now()

	logrus.Infof("Faucet run %s: %d/%d endpoints ok", report.ID, report.Succeeded(), len(report.Results))
	return report
}

func (p *Prober) jitter() time.Duration {
	span := p.jitterMax - p.jitterMin
	if span <= 0 {
		return p.jitterMin
	}
	return p.jitterMin + time.Duration(p.rand.Float64()*float64(span))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
