package platform

import (
	"encoding/json"
	"maps"

	"github.com/nulzo/polymage/pkg/model"
)

// reserved keys are consumed by adapters and never forwarded in payloads
var reserved = []string{ParamSystemPrompt}

// MergeParams returns a fresh map holding defaults overlaid with overrides.
// Neither input is modified.
func MergeParams(defaults, overrides map[string]any) map[string]any {
	out := model.CloneParams(defaults)
	maps.Copy(out, model.CloneParams(overrides))
	return out
}

// StripReserved returns a copy of params without reserved keys.
func StripReserved(params map[string]any) map[string]any {
	out := model.CloneParams(params)
	for _, k := range reserved {
		delete(out, k)
	}
	return out
}

// Payload builds a provider request body: model defaults, then caller
// params without reserved keys.
func Payload(m *model.Model, params map[string]any) map[string]any {
	return MergeParams(m.DefaultParams(), StripReserved(params))
}

func ParamString(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	return v, ok
}

func ParamFloat(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func ParamInt(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	}
	return 0, false
}
