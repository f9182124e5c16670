package abapforge

// Reason classifies a failed Result so callers can map it onto a response
// status without parsing messages.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonGuardRejected    Reason = "guard_rejected"
	ReasonGuardUnavailable Reason = "guard_unavailable"
	ReasonNoProvider       Reason = "no_provider"
	ReasonInvalidRequest   Reason = "invalid_request"
	ReasonProviderFailure  Reason = "provider_failure"
	ReasonInternal         Reason = "internal"
)

// Result is the normalized outcome of a generation. It is returned once and
// persisted, if at all, by the caller.
type Result struct {
	Success bool `json:"success"`

	// Exactly one of Code, Specification or Reply is set on success,
	// depending on the request kind.
	Code          string `json:"code,omitempty"`
	Specification string `json:"specification,omitempty"`
	Reply         string `json:"reply,omitempty"`

	Provider           Provider `json:"provider,omitempty"`
	Model              string   `json:"model,omitempty"`
	TokensUsed         int      `json:"tokensUsed"`
	EstimatedCostCents int      `json:"estimatedCost"`

	Error         string `json:"error,omitempty"`
	Reason        Reason `json:"reason,omitempty"`
	GuardRejected bool   `json:"guardRejected"`
}

// Output returns whichever output field is populated.
func (r Result) Output() string {
	switch {
	case r.Code != "":
		return r.Code
	case r.Specification != "":
		return r.Specification
	default:
		return r.Reply
	}
}

// Failure builds a failed Result. Guard reasons set GuardRejected.
func Failure(reason Reason, msg string) Result {
	return Result{
		Success:       false,
		Error:         msg,
		Reason:        reason,
		GuardRejected: reason == ReasonGuardRejected || reason == ReasonGuardUnavailable,
	}
}
