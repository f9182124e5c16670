package abapforge

import "context"

// ChatProvider defines the interface for AI chat providers.
//
// Implementations issue exactly one outbound request per call and never retry
// internally. Failures are reported as *ProviderError.
type ChatProvider interface {
	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// ClientFactory builds a ChatProvider for a resolved credential.
type ClientFactory interface {
	Client(ctx context.Context, cred Credential) (ChatProvider, error)
}

// ClientFactoryFunc adapts a function to the ClientFactory interface.
type ClientFactoryFunc func(ctx context.Context, cred Credential) (ChatProvider, error)

// Client calls f(ctx, cred).
func (f ClientFactoryFunc) Client(ctx context.Context, cred Credential) (ChatProvider, error) {
	return f(ctx, cred)
}
