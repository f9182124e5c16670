package model

import (
	"testing"

	ai "github.com/spetersoncode/abapforge"
	"github.com/stretchr/testify/assert"
)

func TestAuto(t *testing.T) {
	tests := []struct {
		provider ai.Provider
		chars    int
		expected string
	}{
		{ai.ProviderGroq, 10, "llama-3.1-8b-instant"},
		{ai.ProviderGroq, ShortPromptChars, "llama-3.3-70b-versatile"},
		{ai.ProviderArcee, 10, "auto"},
		{ai.ProviderArcee, 50000, "auto"},
		{ai.ProviderOpenAI, 10, "gpt-4o-mini"},
		{ai.ProviderOpenAI, 50000, "gpt-4o"},
		{ai.ProviderAnthropic, 10, "claude-haiku-4-5"},
		{ai.ProviderGoogle, 50000, "gemini-2.5-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			m := Auto(tt.provider, tt.chars)
			assert.Equal(t, tt.expected, m.String())
			assert.Equal(t, tt.provider, m.Provider())
		})
	}

	t.Run("unknown provider yields zero model", func(t *testing.T) {
		assert.Equal(t, "", Auto(ai.Provider("x"), 10).String())
	})
}

func TestResolve(t *testing.T) {
	t.Run("explicit model wins", func(t *testing.T) {
		assert.Equal(t, "custom", Resolve(ai.ProviderGroq, "custom", "default", 10))
	})

	t.Run("empty request uses credential default", func(t *testing.T) {
		assert.Equal(t, "default", Resolve(ai.ProviderGroq, "", "default", 10))
	})

	t.Run("explicit auto ignores credential default", func(t *testing.T) {
		assert.Equal(t, "llama-3.1-8b-instant", Resolve(ai.ProviderGroq, ai.ModelAuto, "default", 10))
	})

	t.Run("falls back to auto rule", func(t *testing.T) {
		assert.Equal(t, "gpt-4o", Resolve(ai.ProviderOpenAI, "", "", 5000))
	})
}
