package openai

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/abapforge"
	"github.com/spetersoncode/abapforge/model"
)

// Base URLs of the OpenAI-compatible vendors served by this client.
const (
	GroqBaseURL  = "https://api.groq.com/openai/v1/"
	ArceeBaseURL = "https://conductor.arcee.ai/v1/"
)

// Client wraps the OpenAI SDK to implement ai.ChatProvider for any vendor
// speaking the chat-completions protocol.
type Client struct {
	client   *openai.Client
	provider ai.Provider
	model    string
}

type clientConfig struct {
	provider   ai.Provider
	baseURL    string
	model      string
	httpClient *http.Client
}

// ClientOption configures the client.
type ClientOption func(*clientConfig)

// WithProvider sets the provider identity reported in responses and errors.
func WithProvider(p ai.Provider) ClientOption {
	return func(c *clientConfig) {
		c.provider = p
	}
}

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithModel sets the default model used when a request does not name one.
func WithModel(m string) ClientOption {
	return func(c *clientConfig) {
		c.model = m
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// New creates a client with the given API key. Without options it talks to
// OpenAI itself.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{provider: ai.ProviderOpenAI}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	client := openai.NewClient(reqOpts...)
	return &Client{
		client:   &client,
		provider: cfg.provider,
		model:    cfg.model,
	}
}

// NewGroq creates a client for Groq's OpenAI-compatible API.
func NewGroq(apiKey string, opts ...ClientOption) *Client {
	base := []ClientOption{WithProvider(ai.ProviderGroq), WithBaseURL(GroqBaseURL)}
	return New(apiKey, append(base, opts...)...)
}

// NewArcee creates a client for Arcee Conductor's OpenAI-compatible API.
func NewArcee(apiKey string, opts ...ClientOption) *Client {
	base := []ClientOption{WithProvider(ai.ProviderArcee), WithBaseURL(ArceeBaseURL)}
	return New(apiKey, append(base, opts...)...)
}

// Provider returns the vendor this client talks to.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if err := ai.ValidateMessages(c.provider, messages); err != nil {
		return nil, err
	}

	options := ai.ApplyOptions(opts...)
	modelID := model.Resolve(c.provider, options.Model, c.model, ai.PromptChars(messages))

	params := openai.ChatCompletionNewParams{
		Model:    modelID,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, ai.MalformedResponse(c.provider, "response has no choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, ai.MalformedResponse(c.provider, "response has no content")
	}

	respModel := resp.Model
	if respModel == "" {
		respModel = modelID
	}

	return &ai.Response{
		Content:  content,
		Model:    respModel,
		Provider: c.provider,
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
