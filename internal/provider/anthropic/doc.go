// Package anthropic provides an Anthropic Claude client implementing
// [abapforge.ChatProvider].
//
// System messages are sent through the Messages API's separate system field.
// SDK retries are disabled; retry and fallback policy belongs to the caller.
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//	resp, err := client.Chat(ctx, messages, ai.WithModel("claude-sonnet-4-5"))
package anthropic
