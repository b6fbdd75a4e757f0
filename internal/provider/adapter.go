package provider

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/infrastructure/monitoring"
	"github.com/hovershell/core/internal/infrastructure/resilience"
	"github.com/hovershell/core/internal/shared/types"
)

// Request is one completion call. Model overrides the provider's configured
// model when set.
type Request struct {
	Prompt string
	Model  string
}

// Adapter executes completion requests against one configured backend.
type Adapter interface {
	Complete(ctx context.Context, req Request) (string, types.Usage, error)
	Stream(ctx context.Context, req Request, onFragment func(string)) error
}

// Factory builds and caches adapters per provider id so breaker state
// survives across requests.
type Factory struct {
	metrics *monitoring.Metrics
	log     *logging.Logger

	mu       sync.Mutex
	adapters map[string]Adapter
}

// NewFactory creates an adapter factory.
func NewFactory(metrics *monitoring.Metrics, log *logging.Logger) *Factory {
	return &Factory{
		metrics:  metrics,
		log:      log,
		adapters: make(map[string]Adapter),
	}
}

// For returns the adapter for a provider, constructing it on first use.
func (f *Factory) For(p types.Provider) (Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.adapters[p.ID]; ok {
		return a, nil
	}

	b := newBase(p, f.metrics, f.log)
	var a Adapter
	switch p.Kind {
	case types.ProviderOpenAI:
		a = &openaiAdapter{base: b}
	case types.ProviderAnthropic:
		a = &anthropicAdapter{base: b}
	case types.ProviderOllama:
		a = &ollamaAdapter{base: b}
	case types.ProviderCohere:
		a = &cohereAdapter{base: b}
	default:
		return nil, types.Validationf("unknown provider kind %q", p.Kind)
	}
	f.adapters[p.ID] = a
	return a, nil
}

// base carries the HTTP machinery shared by all backends: a resty client for
// request/response calls, a retrying client for streams, a rate limiter, and
// a circuit breaker keyed to the provider id.
type base struct {
	provider types.Provider
	rest     *resty.Client
	stream   *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

func newBase(p types.Provider, metrics *monitoring.Metrics, log *logging.Logger) *base {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil

	rest := resty.New().
		SetTimeout(60*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(30*time.Second).
		SetHeader("User-Agent", "hovershell/1.0")

	return &base{
		provider: p,
		rest:     rest,
		stream:   retryClient.StandardClient(),
		limiter:  rate.NewLimiter(rate.Inf, 0),
		breaker:  resilience.New(p.ID, resilience.Settings{}),
		metrics:  metrics,
		log:      log,
	}
}

// model resolves the effective model name for a request.
func (b *base) model(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return b.provider.Model
}

// endpoint resolves the configured endpoint, falling back to the backend
// default when the config leaves it empty.
func (b *base) endpoint(fallback string) string {
	if b.provider.Endpoint != "" {
		return b.provider.Endpoint
	}
	return fallback
}

// guard runs fn under the rate limiter and circuit breaker, recording the
// request metric.
func (b *base) guard(ctx context.Context, fn func() error) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return types.Providerf("rate limit wait: %v", err)
	}

	start := time.Now()
	err := b.breaker.Execute(fn)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	b.metrics.ObserveProvider(b.provider.ID, outcome, time.Since(start))
	return err
}

// streamRequest issues a streaming POST and hands each body line to decode.
// decode returns the text fragment carried by the line, or done to stop.
func (b *base) streamRequest(ctx context.Context, url string, body []byte, headers map[string]string, decode func(line string) (fragment string, done bool, err error), onFragment func(string)) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return types.Providerf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.stream.Do(httpReq)
	if err != nil {
		return types.Providerf("%s: %v", b.provider.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Providerf("%s: unexpected status %s", b.provider.ID, resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fragment, done, err := decode(line)
		if err != nil {
			return err
		}
		if fragment != "" {
			b.metrics.StreamFragments.WithLabelValues(b.provider.ID).Inc()
			onFragment(fragment)
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return types.Providerf("%s: stream read: %v", b.provider.ID, err)
	}
	return nil
}

// sseData strips the SSE framing from a line, returning the data payload and
// whether the line carried one.
func sseData(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
}
