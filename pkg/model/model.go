package model

import "slices"

// Capability is an operation a model can be invoked for.
type Capability string

const (
	Text2Text   Capability = "text2text"
	Text2Data   Capability = "text2data"
	Text2Image  Capability = "text2image"
	Image2Text  Capability = "image2text"
	Image2Image Capability = "image2image"
)

// Capabilities lists every known capability in dispatch order.
var Capabilities = []Capability{Text2Text, Text2Data, Text2Image, Image2Text, Image2Image}

// OutputType declares how a provider encodes a model's output.
type OutputType string

const (
	OutputText   OutputType = "text"
	OutputBytes  OutputType = "bytes"
	OutputBase64 OutputType = "base64"
)

// Model describes one invokable model variant on a platform. It is
// immutable after construction.
type Model struct {
	name          string
	internalName  string
	capabilities  []Capability
	defaultParams map[string]any
	outputType    OutputType
}

type Option func(*Model)

// WithOutputType overrides the default text output type.
func WithOutputType(t OutputType) Option {
	return func(m *Model) {
		m.outputType = t
	}
}

func New(name, internalName string, capabilities []Capability, defaultParams map[string]any, opts ...Option) *Model {
	m := &Model{
		name:          name,
		internalName:  internalName,
		capabilities:  slices.Clone(capabilities),
		defaultParams: CloneParams(defaultParams),
		outputType:    OutputText,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name is the public name used for lookups.
func (m *Model) Name() string { return m.name }

// InternalName is the identifier the provider expects on the wire.
func (m *Model) InternalName() string { return m.internalName }

func (m *Model) OutputType() OutputType { return m.outputType }

func (m *Model) Capabilities() []Capability {
	return slices.Clone(m.capabilities)
}

func (m *Model) Supports(c Capability) bool {
	return slices.Contains(m.capabilities, c)
}

// DefaultParams returns a deep copy of the invocation defaults. Callers may
// mutate the result freely.
func (m *Model) DefaultParams() map[string]any {
	return CloneParams(m.defaultParams)
}

// CloneParams deep-copies a parameter map, including nested maps and slices.
func CloneParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneParams(t)
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, m := range t {
			out[i] = CloneParams(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
