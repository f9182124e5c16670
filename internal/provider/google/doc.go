// Package google provides a Gemini client implementing
// [abapforge.ChatProvider] on the google.golang.org/genai SDK.
package google
