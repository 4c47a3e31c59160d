package scholar

// Options contains configuration for a chat request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64

	// Tools are the functions the model may call.
	Tools []Tool
	// ToolChoice controls how the model uses Tools.
	ToolChoice ToolChoice
	// ParallelToolCalls allows more than one tool call per turn.
	// Nil leaves the provider default in place.
	ParallelToolCalls *bool

	// ResponseSchema requests structured JSON output matching the schema.
	ResponseSchema *ResponseSchema
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

// WithTools makes the given tools available to the model.
func WithTools(tools ...Tool) Option {
	return func(o *Options) {
		o.Tools = append(o.Tools, tools...)
	}
}

// WithToolChoice sets the tool selection mode.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) {
		o.ToolChoice = choice
	}
}

// WithParallelToolCalls enables or disables parallel tool calls.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = &enabled
	}
}

// WithResponseSchema requests a JSON response conforming to schema.
func WithResponseSchema(schema ResponseSchema) Option {
	return func(o *Options) {
		o.ResponseSchema = &schema
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
