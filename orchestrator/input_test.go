package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	ai "github.com/spetersoncode/abapforge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_Request(t *testing.T) {
	var in Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"kind": " Program ",
		"description": "relatório de vendas",
		"subType": " report ",
		"preferences": {"modernSyntax": true},
		"history": [{"role": "user", "content": "oi"}],
		"provider": "GROQ",
		"temperature": 0.3,
		"maxTokens": 500
	}`), &in))

	req := in.Request("u1")
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, ai.KindProgram, req.Intent.Kind)
	assert.Equal(t, "report", req.Intent.SubType)
	assert.True(t, req.Intent.Preferences.ModernSyntax)
	assert.Equal(t, []ai.Message{ai.UserMessage("oi")}, req.Intent.History)
	assert.Equal(t, ai.ProviderGroq, req.Preference)
	require.NotNil(t, req.Options.Temperature)
	assert.InDelta(t, 0.3, *req.Options.Temperature, 1e-9)
	assert.Equal(t, 500, req.Options.MaxTokens)
	assert.NoError(t, req.Validate())
}

func TestInput_RequestInvalid(t *testing.T) {
	h := newHarness(t, "APROVADO")

	res := h.orch.Generate(context.Background(), Input{Kind: "poem", Description: "x"}.Request("u1"))
	assert.Equal(t, ai.ReasonInvalidRequest, res.Reason)

	res = h.orch.Generate(context.Background(), Input{Kind: "chat", Description: "x", Provider: "mistral"}.Request("u1"))
	assert.Equal(t, ai.ReasonInvalidRequest, res.Reason)
	assert.Zero(t, h.guard.Calls())
}
