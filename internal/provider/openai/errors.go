package openai

import (
	"errors"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/abapforge"
)

// wrapError translates an OpenAI SDK error into the ProviderError taxonomy.
// API errors are classified by status code; anything else (network,
// deadline) by TransportError.
func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ai.StatusError(c.provider, apiErr.StatusCode, apiErr.Response, err)
	}
	return ai.TransportError(c.provider, err)
}
