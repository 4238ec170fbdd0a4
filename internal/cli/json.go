package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// keys (quoted strings followed by a colon), string values, literals, numbers
var jsonTokenRegex = regexp.MustCompile(`("(\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?|\b(true|false|null)\b|-?\d+(?:\.\d*)?(?:[eE][+\-]?\d+)?)`)

// HighlightJSON applies ANSI colors to a JSON string, minified or indented.
func HighlightJSON(jsonStr string) string {
	if !enabled {
		return jsonStr
	}

	return jsonTokenRegex.ReplaceAllStringFunc(jsonStr, func(token string) string {
		switch {
		case strings.HasSuffix(token, ":"):
			key := strings.TrimRight(token[:len(token)-1], " \t")
			return Blue + key + Reset + ":"
		case strings.HasPrefix(token, `"`):
			return Green + token + Reset
		case token == "true" || token == "false":
			return Yellow + token + Reset
		case token == "null":
			return Dim + token + Reset
		default:
			return Purple + token + Reset
		}
	})
}

// PrettyFormat marshals v to indented JSON and colorizes it. Strings and
// byte slices are assumed to already hold JSON.
func PrettyFormat(v any) string {
	var str string
	switch t := v.(type) {
	case []byte:
		str = string(t)
	case string:
		str = t
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		str = string(b)
	}
	return HighlightJSON(str)
}

func PrettyPrint(v any) {
	fmt.Println(PrettyFormat(v))
}
