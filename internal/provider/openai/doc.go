// Package openai provides a chat client for every vendor that speaks the
// OpenAI chat-completions protocol: OpenAI itself, Groq and Arcee Conductor.
//
// The client wraps the official openai-go SDK with SDK retries disabled, so
// each Chat call is exactly one HTTP request. Vendor failures are translated
// into [abapforge.ProviderError].
//
//	groq := openai.NewGroq(os.Getenv("GROQ_API_KEY"))
//	resp, err := groq.Chat(ctx, messages, ai.WithModel(ai.ModelAuto))
package openai
