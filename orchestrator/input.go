package orchestrator

import (
	"strings"

	ai "github.com/spetersoncode/abapforge"
)

// Input is the wire form of a generation request shared by the HTTP and MCP
// front ends. Names are normalized but not validated; Generate rejects
// unknown kinds or providers with ReasonInvalidRequest.
type Input struct {
	Kind              string         `json:"kind"`
	Description       string         `json:"description"`
	SubType           string         `json:"subType,omitempty"`
	AdditionalContext string         `json:"additionalContext,omitempty"`
	Preferences       ai.Preferences `json:"preferences"`
	History           []ai.Message   `json:"history,omitempty"`
	Provider          string         `json:"provider,omitempty"`
	Temperature       *float64       `json:"temperature,omitempty"`
	MaxTokens         int            `json:"maxTokens,omitempty"`
}

// Request converts in into a Request for userID.
func (in Input) Request(userID string) Request {
	intent := ai.Intent{
		Kind:              ai.Kind(strings.ToLower(strings.TrimSpace(in.Kind))),
		Description:       in.Description,
		SubType:           strings.TrimSpace(in.SubType),
		AdditionalContext: in.AdditionalContext,
		Preferences:       in.Preferences,
		History:           in.History,
	}
	return Request{
		UserID:     userID,
		Intent:     intent,
		Preference: ai.Provider(strings.ToLower(strings.TrimSpace(in.Provider))),
		Options: ai.GenerationOptions{
			Temperature: in.Temperature,
			MaxTokens:   in.MaxTokens,
		},
	}
}
