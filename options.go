package abapforge

import "fmt"

// ModelAuto delegates model choice to the provider's default selection rule.
const ModelAuto = "auto"

// Options contains configuration for a chat request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IsAuto reports whether the model choice is left to the provider.
func (o *Options) IsAuto() bool {
	return o.Model == "" || o.Model == ModelAuto
}

// GenerationOptions is the closed set of sampling settings a caller may
// supply for a generation. The zero value means provider defaults.
type GenerationOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"maxTokens,omitempty"`
}

// Validate checks the option ranges.
func (g GenerationOptions) Validate() error {
	if g.Temperature != nil && (*g.Temperature < 0 || *g.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *g.Temperature)
	}
	if g.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative, got %d", g.MaxTokens)
	}
	return nil
}

// ChatOptions converts g into per-call options.
func (g GenerationOptions) ChatOptions() []Option {
	var opts []Option
	if g.Temperature != nil {
		opts = append(opts, WithTemperature(*g.Temperature))
	}
	if g.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(g.MaxTokens))
	}
	return opts
}
