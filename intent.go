package abapforge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a generation kind is not supported.
var ErrUnknownKind = errors.New("unknown generation kind")

// Kind identifies what a generation request produces.
type Kind string

const (
	KindModule        Kind = "module"
	KindProgram       Kind = "program"
	KindSpecification Kind = "specification"
	KindChat          Kind = "chat"
)

// String returns the kind identifier.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindModule, KindProgram, KindSpecification, KindChat:
		return true
	}
	return false
}

// ParseKind converts a kind name into a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// Preferences are the boolean flags that shape the generation prompt.
type Preferences struct {
	ModernSyntax      bool `json:"modernSyntax"`
	Comments          bool `json:"comments"`
	ErrorHandling     bool `json:"errorHandling"`
	NamingConventions bool `json:"namingConventions"`
	UnitTests         bool `json:"unitTests"`
	Performance       bool `json:"performance"`
}

// Flag is a named preference value.
type Flag struct {
	Name    string
	Enabled bool
}

// Flags returns the preferences in a fixed order so prompts built from
// them are deterministic.
func (p Preferences) Flags() []Flag {
	return []Flag{
		{Name: "modernSyntax", Enabled: p.ModernSyntax},
		{Name: "comments", Enabled: p.Comments},
		{Name: "errorHandling", Enabled: p.ErrorHandling},
		{Name: "namingConventions", Enabled: p.NamingConventions},
		{Name: "unitTests", Enabled: p.UnitTests},
		{Name: "performance", Enabled: p.Performance},
	}
}

// Intent is a generation or chat request. It is passed by value and not
// modified after submission.
type Intent struct {
	Kind        Kind   `json:"kind"`
	Description string `json:"description"`
	// SubType is the module type or program type, e.g. "function module"
	// or "report".
	SubType           string      `json:"subType,omitempty"`
	AdditionalContext string      `json:"additionalContext,omitempty"`
	Preferences       Preferences `json:"preferences"`
	// History holds prior chat turns, oldest first. Only used by KindChat.
	History []Message `json:"history,omitempty"`
}

// Validate checks that the intent can be turned into a prompt.
func (i Intent) Validate() error {
	if !i.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, i.Kind)
	}
	if strings.TrimSpace(i.Description) == "" {
		return errors.New("description is required")
	}
	for _, m := range i.History {
		if m.Role == RoleSystem {
			return errors.New("history must not contain system messages")
		}
		if !m.Role.Valid() {
			return fmt.Errorf("history has unknown role %q", m.Role)
		}
	}
	return nil
}

// GuardPayload is the snapshot of a request that the safety guard
// classifies. It is used for a single validation call only.
type GuardPayload struct {
	Kind              Kind        `json:"type"`
	Description       string      `json:"description"`
	AdditionalContext string      `json:"context,omitempty"`
	Preferences       Preferences `json:"preferences"`
	Conversation      []Message   `json:"conversation,omitempty"`
}

// PayloadFromIntent snapshots an intent for the guard. The history slice is
// copied so the payload does not alias the caller's data.
func PayloadFromIntent(i Intent) GuardPayload {
	var conversation []Message
	if len(i.History) > 0 {
		conversation = make([]Message, len(i.History))
		copy(conversation, i.History)
	}
	return GuardPayload{
		Kind:              i.Kind,
		Description:       i.Description,
		AdditionalContext: i.AdditionalContext,
		Preferences:       i.Preferences,
		Conversation:      conversation,
	}
}
