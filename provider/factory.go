// Package provider builds concrete chat clients for resolved credentials.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/internal/provider/anthropic"
	"github.com/spetersoncode/abapforge/internal/provider/google"
	"github.com/spetersoncode/abapforge/internal/provider/openai"
)

// ErrMissingAPIKey is returned when a credential has no API key.
type ErrMissingAPIKey struct {
	Provider ai.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// Factory creates a fresh ai.ChatProvider per credential. It holds only
// immutable configuration and is safe for concurrent use.
type Factory struct {
	baseURLs   map[ai.Provider]string
	httpClient *http.Client
}

// Option configures a Factory.
type Option func(*Factory)

// WithBaseURL overrides the endpoint used for one provider, e.g. to route
// through a proxy or a test server.
func WithBaseURL(p ai.Provider, url string) Option {
	return func(f *Factory) {
		f.baseURLs[p] = url
	}
}

// WithHTTPClient sets the HTTP client shared by all created clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Factory) {
		f.httpClient = hc
	}
}

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{baseURLs: make(map[ai.Provider]string)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns a chat client for cred. The credential's default model
// becomes the client's default.
func (f *Factory) Client(ctx context.Context, cred ai.Credential) (ai.ChatProvider, error) {
	if strings.TrimSpace(cred.APIKey) == "" {
		return nil, &ErrMissingAPIKey{Provider: cred.Provider}
	}
	baseURL := f.baseURLs[cred.Provider]

	switch cred.Provider {
	case ai.ProviderGroq, ai.ProviderArcee, ai.ProviderOpenAI:
		opts := []openai.ClientOption{
			openai.WithProvider(cred.Provider),
			openai.WithModel(cred.DefaultModel),
		}
		if baseURL == "" {
			baseURL = defaultOpenAICompatibleURL(cred.Provider)
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		if f.httpClient != nil {
			opts = append(opts, openai.WithHTTPClient(f.httpClient))
		}
		return openai.New(cred.APIKey, opts...), nil

	case ai.ProviderAnthropic:
		opts := []anthropic.ClientOption{anthropic.WithModel(cred.DefaultModel)}
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		if f.httpClient != nil {
			opts = append(opts, anthropic.WithHTTPClient(f.httpClient))
		}
		return anthropic.New(cred.APIKey, opts...), nil

	case ai.ProviderGoogle:
		opts := []google.ClientOption{google.WithModel(cred.DefaultModel)}
		if baseURL != "" {
			opts = append(opts, google.WithBaseURL(baseURL))
		}
		if f.httpClient != nil {
			opts = append(opts, google.WithHTTPClient(f.httpClient))
		}
		client, err := google.New(ctx, cred.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, cred.Provider)
	}
}

func defaultOpenAICompatibleURL(p ai.Provider) string {
	switch p {
	case ai.ProviderGroq:
		return openai.GroqBaseURL
	case ai.ProviderArcee:
		return openai.ArceeBaseURL
	default:
		return ""
	}
}

var _ ai.ClientFactory = (*Factory)(nil)
