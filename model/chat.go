package model

import ai "github.com/spetersoncode/abapforge"

// ShortPromptChars is the prompt length below which "auto" picks the
// fastest tier of a provider.
const ShortPromptChars = 2000

// ChatModel represents a chat/completion model from any provider.
type ChatModel struct {
	id       string
	provider ai.Provider
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() ai.Provider { return m.provider }

// Groq models (OpenAI-compatible endpoint).
var (
	Llama31Instant   = ChatModel{id: "llama-3.1-8b-instant", provider: ai.ProviderGroq}
	Llama33Versatile = ChatModel{id: "llama-3.3-70b-versatile", provider: ai.ProviderGroq}
)

// Arcee models. The Conductor router accepts "auto" and routes internally.
var (
	ArceeAuto     = ChatModel{id: "auto", provider: ai.ProviderArcee}
	ArceeVirtuoso = ChatModel{id: "virtuoso-large", provider: ai.ProviderArcee}
)

// OpenAI models.
var (
	GPT4o     = ChatModel{id: "gpt-4o", provider: ai.ProviderOpenAI}
	GPT4oMini = ChatModel{id: "gpt-4o-mini", provider: ai.ProviderOpenAI}
)

// Anthropic models.
var (
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: ai.ProviderAnthropic}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: ai.ProviderAnthropic}
)

// Google models.
var (
	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: ai.ProviderGoogle}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: ai.ProviderGoogle}
)

// tiers maps each provider to its {fast, capable} models.
var tiers = map[ai.Provider][2]ChatModel{
	ai.ProviderGroq:      {Llama31Instant, Llama33Versatile},
	ai.ProviderArcee:     {ArceeAuto, ArceeAuto},
	ai.ProviderOpenAI:    {GPT4oMini, GPT4o},
	ai.ProviderAnthropic: {ClaudeHaiku45, ClaudeSonnet45},
	ai.ProviderGoogle:    {Gemini25FlashLite, Gemini25Flash},
}

// Auto returns the model a provider uses when the caller asks for "auto".
// Short prompts get the lowest-latency tier; longer prompts get the more
// capable one. Arcee always defers to its own router.
func Auto(p ai.Provider, promptChars int) ChatModel {
	t, ok := tiers[p]
	if !ok {
		return ChatModel{}
	}
	if promptChars < ShortPromptChars {
		return t[0]
	}
	return t[1]
}

// Resolve picks the concrete model id for a request: an explicit model wins,
// then the credential's default model, then the provider's auto rule.
func Resolve(p ai.Provider, requested, credentialDefault string, promptChars int) string {
	if requested != "" && requested != ai.ModelAuto {
		return requested
	}
	if requested == "" && credentialDefault != "" && credentialDefault != ai.ModelAuto {
		return credentialDefault
	}
	return Auto(p, promptChars).String()
}
