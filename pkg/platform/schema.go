package platform

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/nulzo/polymage/pkg/domain"
)

const defaultSchemaName = "response"

var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

// Schema derives the JSON schema attached to a structured-output request.
// Go types are reflected; schema documents are passed through untouched.
func Schema(responseModel any) (string, json.Marshaler, error) {
	switch v := responseModel.(type) {
	case nil:
		return "", nil, domain.InvalidInput("response model is nil")
	case *jsonschema.Schema:
		return schemaName(v.Title), v, nil
	case json.RawMessage:
		if !json.Valid(v) {
			return "", nil, domain.InvalidInput("response schema is not valid JSON")
		}
		var doc struct {
			Title string `json:"title"`
		}
		_ = json.Unmarshal(v, &doc)
		return schemaName(doc.Title), v, nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", nil, domain.InvalidInput("encode response schema: %v", err)
		}
		title, _ := v["title"].(string)
		return schemaName(title), json.RawMessage(raw), nil
	}

	t := reflect.TypeOf(responseModel)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return "", nil, domain.InvalidInput("response model must be a struct or a schema, got %s", t.Kind())
	}
	return schemaName(t.Name()), reflector.ReflectFromType(t), nil
}

func schemaName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultSchemaName
	}
	return name
}

// DecodeData parses model output into a generic object. Markdown code fences
// around the JSON are tolerated.
func DecodeData(raw string) (map[string]any, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", domain.ErrMalformedOutput)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: content is not a JSON object", domain.ErrMalformedOutput)
	}
	return data, nil
}
