// Package orchestrator coordinates a generation: safety guard, provider
// resolution, sequential fallback across candidates and normalization of the
// result.
//
// Guard validation always precedes any provider call. Candidates are tried
// one at a time in registry order, each under its own deadline, and the
// first usable response wins. Every outcome, including panics, is returned
// as an [abapforge.Result]; Generate never returns an error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/guard"
	"github.com/spetersoncode/abapforge/internal/metrics"
	"github.com/spetersoncode/abapforge/model"
	"github.com/spetersoncode/abapforge/registry"
	"github.com/spetersoncode/abapforge/usage"
)

// DefaultAttemptTimeout bounds a single provider attempt.
const DefaultAttemptTimeout = 90 * time.Second

const internalErrorMessage = "internal error while generating, please try again"

// Validator decides whether a request may be served.
type Validator interface {
	Validate(ctx context.Context, userID string, payload ai.GuardPayload) guard.Verdict
}

// Resolver returns the ordered providers to try for a user.
type Resolver interface {
	Resolve(ctx context.Context, userID string, preference ai.Provider) ([]registry.Candidate, error)
}

// Request is one generation or chat request.
type Request struct {
	UserID string
	Intent ai.Intent
	// Guard is the snapshot classified by the safety guard. When empty it
	// is derived from Intent.
	Guard ai.GuardPayload
	// Preference optionally names the provider to use. An unconfigured
	// preference falls back to the default order.
	Preference ai.Provider
	Options    ai.GenerationOptions
}

// Validate checks the request before any external call.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if err := r.Intent.Validate(); err != nil {
		return err
	}
	if r.Preference != "" && !r.Preference.Valid() {
		return fmt.Errorf("%w: %q", ai.ErrUnknownProvider, r.Preference)
	}
	return r.Options.Validate()
}

// Orchestrator runs generations. It keeps no per-request state and is safe
// for concurrent use.
type Orchestrator struct {
	guard          Validator
	registry       Resolver
	factory        ai.ClientFactory
	rates          model.Rates
	attemptTimeout time.Duration
	usage          usage.Reporter
	metrics        *metrics.Metrics
	events         chan<- Event
	logger         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRates overrides the cost table.
func WithRates(r model.Rates) Option {
	return func(o *Orchestrator) {
		o.rates = r
	}
}

// WithAttemptTimeout bounds each provider attempt independently of the
// guard call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.attemptTimeout = d
	}
}

// WithUsageReporter sets where usage records go. Reporters must not block.
func WithUsageReporter(r usage.Reporter) Option {
	return func(o *Orchestrator) {
		o.usage = r
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithEvents sets a channel for generation events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) Option {
	return func(o *Orchestrator) {
		o.events = ch
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// New creates an Orchestrator.
func New(g Validator, r Resolver, factory ai.ClientFactory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		guard:          g,
		registry:       r,
		factory:        factory,
		rates:          model.DefaultRates(),
		attemptTimeout: DefaultAttemptTimeout,
		usage:          usage.Discard{},
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs req to completion and returns the normalized result.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (res ai.Result) {
	start := time.Now()
	requestID := uuid.NewString()
	log := o.logger.With("request_id", requestID, "user_id", req.UserID, "kind", req.Intent.Kind)

	emit(o.events, Event{Type: EventGenerationStart, RequestID: requestID})

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "generation panicked", "panic", r, "stack", string(debug.Stack()))
			res = ai.Failure(ai.ReasonInternal, internalErrorMessage)
		}

		outcome := "success"
		if !res.Success {
			outcome = string(res.Reason)
		}
		elapsed := time.Since(start)
		o.metrics.ObserveRequest(string(req.Intent.Kind), outcome, elapsed)
		log.InfoContext(ctx, "generation finished",
			"outcome", outcome,
			"provider", res.Provider,
			"model", res.Model,
			"tokens", res.TokensUsed,
			"duration", elapsed)

		final := res
		emit(o.events, Event{Type: EventGenerationComplete, RequestID: requestID, Duration: elapsed, Result: &final})
	}()

	if err := req.Validate(); err != nil {
		return ai.Failure(ai.ReasonInvalidRequest, err.Error())
	}

	payload := req.Guard
	if strings.TrimSpace(payload.Description) == "" {
		payload = ai.PayloadFromIntent(req.Intent)
	}

	verdict := o.guard.Validate(ctx, req.UserID, payload)
	o.observeVerdict(verdict)
	emit(o.events, Event{Type: EventGuardVerdict, RequestID: requestID, Approved: verdict.Approved, Error: verdict.Err()})

	if !verdict.Approved {
		if verdict.Unavailable && o.hasNoCandidates(ctx, req) {
			return ai.Failure(ai.ReasonNoProvider, ai.ErrNoProviderConfigured.Error())
		}
		reason := ai.ReasonGuardRejected
		if verdict.Unavailable {
			reason = ai.ReasonGuardUnavailable
		}
		return ai.Failure(reason, verdict.Message)
	}

	candidates, err := o.registry.Resolve(ctx, req.UserID, req.Preference)
	if err != nil {
		log.ErrorContext(ctx, "provider resolution failed", "error", err)
		return ai.Failure(ai.ReasonInternal, fmt.Sprintf("failed to load provider configuration: %v", err))
	}
	if len(candidates) == 0 {
		return ai.Failure(ai.ReasonNoProvider, ai.ErrNoProviderConfigured.Error())
	}

	messages := BuildMessages(req.Intent)
	opts := req.Options.ChatOptions()

	var lastErr error
	for i, c := range candidates {
		attempt := i + 1
		attemptStart := time.Now()
		emit(o.events, Event{Type: EventAttemptStart, RequestID: requestID, Provider: c.Provider, Attempt: attempt})

		result, resp, err := o.attempt(ctx, c, req.Intent.Kind, messages, opts)
		if err != nil {
			lastErr = err
			o.metrics.ObserveAttempt(string(c.Provider), attemptOutcome(err))
			log.WarnContext(ctx, "provider attempt failed",
				"provider", c.Provider,
				"attempt", attempt,
				"candidates", len(candidates),
				"kind", ai.KindOf(err),
				"error", err)
			emit(o.events, Event{
				Type:      EventAttemptFailed,
				RequestID: requestID,
				Provider:  c.Provider,
				Attempt:   attempt,
				Duration:  time.Since(attemptStart),
				Error:     err,
			})
			if ctx.Err() != nil {
				break
			}
			continue
		}

		o.metrics.ObserveAttempt(string(c.Provider), "success")
		o.metrics.ObserveUsage(string(c.Provider), result.TokensUsed, result.EstimatedCostCents)
		o.usage.Report(ctx, usage.NewRecord(req.UserID, req.Intent.Kind, resp))
		emit(o.events, Event{
			Type:      EventAttemptSucceeded,
			RequestID: requestID,
			Provider:  c.Provider,
			Model:     result.Model,
			Attempt:   attempt,
			Duration:  time.Since(attemptStart),
		})
		return result
	}

	return ai.Failure(ai.ReasonProviderFailure, lastErr.Error())
}

// attempt calls one candidate under its own deadline and normalizes the
// response.
func (o *Orchestrator) attempt(ctx context.Context, c registry.Candidate, kind ai.Kind, messages []ai.Message, opts []ai.Option) (ai.Result, *ai.Response, error) {
	client, err := o.factory.Client(ctx, c.Credential)
	if err != nil {
		return ai.Result{}, nil, ai.NewProviderError(c.Provider, ai.KindInvalidRequest, "client setup failed", 0, err)
	}

	attemptCtx := ctx
	if o.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		defer cancel()
	}

	resp, err := client.Chat(attemptCtx, messages, opts...)
	if err != nil {
		return ai.Result{}, nil, ai.TransportError(c.Provider, err)
	}
	if resp == nil {
		return ai.Result{}, nil, ai.MalformedResponse(c.Provider, "nil response")
	}

	res := ai.Result{
		Success:    true,
		Provider:   c.Provider,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed(),
	}
	if res.Model == "" {
		res.Model = model.Resolve(c.Provider, "", c.Credential.DefaultModel, ai.PromptChars(messages))
	}
	if !applyOutput(&res, kind, resp.Content) {
		return ai.Result{}, nil, ai.MalformedResponse(c.Provider, "empty output after normalization")
	}

	res.EstimatedCostCents = o.rates.EstimateCents(c.Provider)
	resp.Provider = c.Provider
	resp.Model = res.Model
	resp.CostCents = res.EstimatedCostCents
	return res, resp, nil
}

// hasNoCandidates reports whether the user has no usable provider at all.
// Resolution errors count as "has candidates" so the guard verdict stands.
func (o *Orchestrator) hasNoCandidates(ctx context.Context, req Request) bool {
	candidates, err := o.registry.Resolve(ctx, req.UserID, req.Preference)
	return err == nil && len(candidates) == 0
}

func (o *Orchestrator) observeVerdict(v guard.Verdict) {
	switch {
	case v.Approved:
		o.metrics.ObserveGuard("approved")
	case v.Unavailable:
		o.metrics.ObserveGuard("unavailable")
	default:
		o.metrics.ObserveGuard("rejected")
	}
}

func attemptOutcome(err error) string {
	if k := ai.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
