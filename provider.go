package abapforge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned when a provider name is not supported.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderGroq      Provider = "groq"
	ProviderArcee     Provider = "arcee"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// Providers returns every supported provider in default priority order.
func Providers() []Provider {
	return []Provider{
		ProviderGroq,
		ProviderArcee,
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGoogle,
	}
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	for _, known := range Providers() {
		if p == known {
			return true
		}
	}
	return false
}

// ParseProvider converts a provider name into a Provider.
// Names are matched case-insensitively after trimming whitespace.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// ParseProviders parses a list of provider names, rejecting duplicates.
func ParseProviders(names []string) ([]Provider, error) {
	seen := make(map[Provider]bool, len(names))
	result := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := ParseProvider(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("duplicate provider %q", p)
		}
		seen[p] = true
		result = append(result, p)
	}
	return result, nil
}
