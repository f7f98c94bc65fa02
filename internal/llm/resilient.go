package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var (
	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "LLM completion attempts by provider, task and outcome.",
		},
		[]string{"provider", "task", "outcome"},
	)
	llmLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of successful LLM completions in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "task"},
	)
)

func init() {
	prometheus.MustRegister(llmCalls, llmLat)
}

// ResilientOptions tunes the decorator. Zero values pick defaults.
type ResilientOptions struct {
	Provider      string
	MaxRetries    int           // retries after the first attempt
	Timeout       time.Duration // per attempt
	RPS           float64       // 0 = unlimited
	MaxConcurrent int64         // 0 = 4

	InitialInterval time.Duration // first backoff
	MaxInterval     time.Duration

	FailureThreshold int           // consecutive transient failures before opening
	SuccessThreshold int           // half-open successes before closing
	OpenTimeout      time.Duration // how long the circuit stays open
}

func (o *ResilientOptions) defaults() {
	if o.Provider == "" {
		o.Provider = "unknown"
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 10 * time.Second
	}
	if o.FailureThreshold <= 0 {
		o.FailureThreshold = 5
	}
	if o.SuccessThreshold <= 0 {
		o.SuccessThreshold = 1
	}
	if o.OpenTimeout <= 0 {
		o.OpenTimeout = 30 * time.Second
	}
}

// Resilient wraps a Client with rate limiting, a concurrency cap, retries
// for transient failures and a circuit breaker.
type Resilient struct {
	next    Client
	opts    ResilientOptions
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	breaker *CircuitBreaker
	log     zerolog.Logger
}

// NewResilient decorates next.
func NewResilient(next Client, opts ResilientOptions, log zerolog.Logger) *Resilient {
	opts.defaults()
	r := &Resilient{
		next:    next,
		opts:    opts,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
		breaker: NewCircuitBreaker(opts.FailureThreshold, opts.SuccessThreshold, opts.OpenTimeout),
		log:     log.With().Str("component", "llm").Str("provider", opts.Provider).Logger(),
	}
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return r
}

// Breaker exposes the circuit breaker for health reporting.
func (r *Resilient) Breaker() *CircuitBreaker { return r.breaker }

func (r *Resilient) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("llm %s: acquire slot: %w", req.Task, err)
	}
	defer r.sem.Release(1)

	task := string(req.Task)
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.opts.InitialInterval
	eb.MaxInterval = r.opts.MaxInterval

	attempt := 0
	op := func() (string, error) {
		attempt++
		if err := r.breaker.Allow(); err != nil {
			llmCalls.WithLabelValues(r.opts.Provider, task, "rejected").Inc()
			return "", backoff.Permanent(err)
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", backoff.Permanent(err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		start := time.Now()
		out, err := r.next.Complete(attemptCtx, req)
		cancel()

		if err == nil {
			r.breaker.RecordSuccess()
			llmCalls.WithLabelValues(r.opts.Provider, task, "ok").Inc()
			llmLat.WithLabelValues(r.opts.Provider, task).Observe(time.Since(start).Seconds())
			return out, nil
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		if !IsRetriable(err) {
			llmCalls.WithLabelValues(r.opts.Provider, task, "error").Inc()
			return "", backoff.Permanent(err)
		}
		r.breaker.RecordFailure()
		llmCalls.WithLabelValues(r.opts.Provider, task, "retry").Inc()
		r.log.Warn().Err(err).Str("task", task).Int("attempt", attempt).Msg("llm call failed, retrying")
		return "", err
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(r.opts.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return "", fmt.Errorf("llm %s failed after %d attempt(s): %w", task, attempt, err)
	}
	return out, nil
}

// IsRetriable reports whether err is a transient provider failure: timeouts,
// 429s, 5xx answers and connection problems.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrUnsupportedTask) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return retriableStatus(se.StatusCode)
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return retriableStatus(ae.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused", "connection reset", "timeout", "temporary failure",
		"eof", "broken pipe", "no such host",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func retriableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// ----------------------------------------------------------------------------
// Circuit breaker

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker fails fast after a run of transient failures and probes
// for recovery once OpenTimeout has passed.
type CircuitBreaker struct {
	mu sync.Mutex

	state            CircuitState
	failures         int
	successes        int
	openedAt         time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration

	now func() time.Time
}

func NewCircuitBreaker(failureThreshold, successThreshold int, openTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
		now:              time.Now,
	}
}

// Allow returns ErrCircuitOpen while the circuit is open.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) >= cb.openTimeout {
			cb.state = CircuitHalfOpen
			cb.successes = 0
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures = 0
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CircuitClosed
			cb.failures = 0
			cb.successes = 0
		}
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.open()
		}
	case CircuitHalfOpen:
		cb.open()
	}
}

// open must be called with mu held.
func (cb *CircuitBreaker) open() {
	cb.state = CircuitOpen
	cb.successes = 0
	cb.openedAt = cb.now()
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
