// Package guard implements the fail-closed safety classifier that runs
// before every generation.
//
// The guard asks one designated provider for a binary verdict. Only a reply
// starting with [ApprovalToken] admits the request; any other reply, error,
// timeout or missing configuration rejects it with a fixed message.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/model"
)

// ApprovalToken is the verdict prefix that admits a request.
const ApprovalToken = "APROVADO"

const (
	// RejectedMessage is shown for every rejection. The model's own
	// explanation is never surfaced.
	RejectedMessage = "Sua solicitação não está dentro do escopo de desenvolvimento ABAP/SAP suportado. Reformule o pedido e tente novamente."

	// UnavailableMessage is shown when the guard provider is not configured.
	UnavailableMessage = "A validação de segurança está indisponível: configure e habilite o provedor de validação para continuar."
)

const (
	DefaultProvider  = ai.ProviderGroq
	DefaultTimeout   = 15 * time.Second
	DefaultMaxTokens = 10
)

// DefaultModel is the small, fast model used for classification.
var DefaultModel = model.Llama31Instant.String()

// Verdict is the outcome of a validation.
type Verdict struct {
	Approved bool
	Message  string
	// Unavailable is set when the guard could not run because its
	// provider is not configured.
	Unavailable bool
}

// Err returns nil for an approval, otherwise ErrGuardUnavailable or
// ErrGuardRejected.
func (v Verdict) Err() error {
	switch {
	case v.Approved:
		return nil
	case v.Unavailable:
		return ai.ErrGuardUnavailable
	default:
		return ai.ErrGuardRejected
	}
}

func approved() Verdict { return Verdict{Approved: true} }

func rejected() Verdict { return Verdict{Message: RejectedMessage} }

func unavailable() Verdict { return Verdict{Message: UnavailableMessage, Unavailable: true} }

// Guard validates requests against the content policy. It holds no
// per-request state and is safe for concurrent use.
type Guard struct {
	store     ai.CredentialStore
	factory   ai.ClientFactory
	provider  ai.Provider
	model     string
	timeout   time.Duration
	maxTokens int
	fallback  *ai.Credential
	logger    *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithProvider sets the designated guard provider.
func WithProvider(p ai.Provider) Option {
	return func(g *Guard) {
		g.provider = p
	}
}

// WithModel sets the classification model.
func WithModel(m string) Option {
	return func(g *Guard) {
		g.model = m
	}
}

// WithTimeout bounds the classification call. It is applied on top of the
// caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(g *Guard) {
		g.timeout = d
	}
}

// WithMaxTokens caps the verdict length.
func WithMaxTokens(n int) Option {
	return func(g *Guard) {
		g.maxTokens = n
	}
}

// WithPlatformCredential configures a guard credential that is used when
// the user has not configured the guard provider themselves.
func WithPlatformCredential(c ai.Credential) Option {
	return func(g *Guard) {
		g.fallback = &c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New creates a Guard.
func New(store ai.CredentialStore, factory ai.ClientFactory, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		factory:   factory,
		provider:  DefaultProvider,
		model:     DefaultModel,
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the designated guard provider.
func (g *Guard) Provider() ai.Provider {
	return g.provider
}

// Validate classifies payload for userID. It never returns an error: every
// failure is a rejection.
func (g *Guard) Validate(ctx context.Context, userID string, payload ai.GuardPayload) (v Verdict) {
	log := g.logger.With("user_id", userID, "guard_provider", g.provider)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "guard panicked", "panic", r)
			v = rejected()
		}
	}()

	cred, err := g.credential(ctx, userID)
	if errors.Is(err, ai.ErrGuardUnavailable) {
		log.WarnContext(ctx, "guard unavailable", "error", err)
		return unavailable()
	}
	if err != nil {
		log.ErrorContext(ctx, "guard credential lookup failed", "error", err)
		return rejected()
	}

	client, err := g.factory.Client(ctx, cred)
	if err != nil {
		log.WarnContext(ctx, "guard client init failed", "error", err)
		return rejected()
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := client.Chat(callCtx, BuildMessages(payload),
		ai.WithModel(g.model),
		ai.WithTemperature(0),
		ai.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		log.WarnContext(ctx, "guard call failed", "error", err, "kind", ai.KindOf(err))
		return rejected()
	}

	if !IsApproval(resp.Content) {
		log.InfoContext(ctx, "guard rejected request", "kind", payload.Kind)
		return rejected()
	}
	return approved()
}

// credential returns the guard credential for userID, falling back to the
// platform credential. A missing, disabled or keyless credential wraps
// ErrGuardUnavailable; store failures do not.
func (g *Guard) credential(ctx context.Context, userID string) (ai.Credential, error) {
	cred, err := g.store.ProviderCredential(ctx, userID, g.provider)
	if err == nil && cred.Usable() {
		cred.Provider = g.provider
		return cred, nil
	}
	if g.fallback != nil && g.fallback.Usable() {
		cred := *g.fallback
		cred.Provider = g.provider
		return cred, nil
	}
	switch {
	case err == nil:
		return ai.Credential{}, fmt.Errorf("%s credential disabled or missing key: %w", g.provider, ai.ErrGuardUnavailable)
	case errors.Is(err, ai.ErrNotFound):
		return ai.Credential{}, fmt.Errorf("%s credential not found: %w", g.provider, ai.ErrGuardUnavailable)
	default:
		return ai.Credential{}, fmt.Errorf("load %s credential: %w", g.provider, err)
	}
}

// IsApproval reports whether a verdict text admits the request.
func IsApproval(content string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(content)), ApprovalToken)
}
