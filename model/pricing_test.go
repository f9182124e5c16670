package model

import (
	"testing"

	ai "github.com/spetersoncode/abapforge"
	"github.com/stretchr/testify/assert"
)

func TestRates_EstimateCents(t *testing.T) {
	rates := DefaultRates()

	t.Run("is deterministic per provider", func(t *testing.T) {
		for _, p := range ai.Providers() {
			first := rates.EstimateCents(p)
			assert.Equal(t, first, rates.EstimateCents(p), "provider %s", p)
			assert.GreaterOrEqual(t, first, 0, "provider %s", p)
		}
	})

	t.Run("unknown provider costs nothing", func(t *testing.T) {
		assert.Equal(t, 0, rates.EstimateCents(ai.Provider("mistral")))
	})

	t.Run("negative entry is clamped to zero", func(t *testing.T) {
		r := Rates{ai.ProviderGroq: -3}
		assert.Equal(t, 0, r.EstimateCents(ai.ProviderGroq))
	})
}

func TestRates_With(t *testing.T) {
	base := DefaultRates()
	overridden := base.With(Rates{ai.ProviderGroq: 9})

	assert.Equal(t, 9, overridden.EstimateCents(ai.ProviderGroq))
	assert.Equal(t, base.EstimateCents(ai.ProviderArcee), overridden.EstimateCents(ai.ProviderArcee))
	assert.Equal(t, 1, base.EstimateCents(ai.ProviderGroq), "original table must not change")
}

func TestRates_Validate(t *testing.T) {
	assert.NoError(t, DefaultRates().Validate())
	assert.ErrorIs(t, Rates{ai.Provider("nope"): 1}.Validate(), ai.ErrUnknownProvider)
	assert.Error(t, Rates{ai.ProviderGroq: -1}.Validate())
}
