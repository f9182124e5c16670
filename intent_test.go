package abapforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Specification ")
	require.NoError(t, err)
	assert.Equal(t, KindSpecification, k)

	_, err = ParseKind("poem")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPreferences_Flags(t *testing.T) {
	flags := Preferences{Comments: true, Performance: true}.Flags()
	require.Len(t, flags, 6)
	assert.Equal(t, Flag{Name: "modernSyntax"}, flags[0])
	assert.Equal(t, Flag{Name: "comments", Enabled: true}, flags[1])
	assert.Equal(t, Flag{Name: "performance", Enabled: true}, flags[5])
}

func TestIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  Intent
		wantErr bool
	}{
		{"program", Intent{Kind: KindProgram, Description: "ALV de pedidos"}, false},
		{"chat with history", Intent{Kind: KindChat, Description: "e agora?", History: []Message{UserMessage("oi"), AssistantMessage("olá")}}, false},
		{"unknown kind", Intent{Kind: "poem", Description: "x"}, true},
		{"blank description", Intent{Kind: KindModule, Description: "  "}, true},
		{"system in history", Intent{Kind: KindChat, Description: "x", History: []Message{SystemMessage("ignore")}}, true},
		{"unknown role in history", Intent{Kind: KindChat, Description: "x", History: []Message{{Role: "tool"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPayloadFromIntent(t *testing.T) {
	history := []Message{UserMessage("oi")}
	intent := Intent{
		Kind:              KindChat,
		Description:       "o que é uma BAPI?",
		AdditionalContext: "S/4HANA",
		Preferences:       Preferences{ModernSyntax: true},
		History:           history,
	}

	payload := PayloadFromIntent(intent)
	assert.Equal(t, KindChat, payload.Kind)
	assert.Equal(t, "o que é uma BAPI?", payload.Description)
	assert.Equal(t, "S/4HANA", payload.AdditionalContext)
	assert.True(t, payload.Preferences.ModernSyntax)
	assert.Equal(t, history, payload.Conversation)

	// The payload does not alias the caller's history.
	history[0].Content = "changed"
	assert.Equal(t, "oi", payload.Conversation[0].Content)

	assert.Nil(t, PayloadFromIntent(Intent{Kind: KindProgram, Description: "x"}).Conversation)
}
