package google

import (
	"errors"

	ai "github.com/spetersoncode/abapforge"
	"google.golang.org/genai"
)

// wrapError translates a GenAI error into the ProviderError taxonomy.
// genai.APIError does not expose headers, so Retry-After is not available.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.StatusError(ai.ProviderGoogle, apiErr.Code, nil, err)
	}
	return ai.TransportError(ai.ProviderGoogle, err)
}
