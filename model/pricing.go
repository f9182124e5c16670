package model

import (
	"fmt"

	ai "github.com/spetersoncode/abapforge"
)

// Rates is a flat per-generation cost table in cents, keyed by provider.
//
// The numbers are an approximation: each successful generation is charged
// one fixed amount regardless of tokens. They are not billed usage.
type Rates map[ai.Provider]int

// DefaultRates returns the built-in rate table.
func DefaultRates() Rates {
	return Rates{
		ai.ProviderGroq:      1,
		ai.ProviderArcee:     2,
		ai.ProviderOpenAI:    5,
		ai.ProviderAnthropic: 6,
		ai.ProviderGoogle:    2,
	}
}

// EstimateCents returns the flat cost for one generation on p.
// Unknown providers and negative entries cost 0.
func (r Rates) EstimateCents(p ai.Provider) int {
	cents, ok := r[p]
	if !ok || cents < 0 {
		return 0
	}
	return cents
}

// With returns a copy of r with the given overrides applied.
func (r Rates) With(overrides Rates) Rates {
	out := make(Rates, len(r)+len(overrides))
	for p, c := range r {
		out[p] = c
	}
	for p, c := range overrides {
		out[p] = c
	}
	return out
}

// Validate rejects unknown providers and negative rates.
func (r Rates) Validate() error {
	for p, c := range r {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", ai.ErrUnknownProvider, p)
		}
		if c < 0 {
			return fmt.Errorf("rate for %s must not be negative, got %d", p, c)
		}
	}
	return nil
}
