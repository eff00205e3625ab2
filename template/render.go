// Package template interpolates request bodies into endpoint message rules.
//
// A rule is a JSON document containing ${body.path} placeholders. Each
// placeholder is replaced by the value found at path in the request body,
// escaped so that it can sit inside a JSON string literal.
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidOutput = errors.New("rendered template is not valid JSON")

	placeholder = regexp.MustCompile(`\$\{\s*([A-Za-z0-9_.\[\]-]+)\s*\}`)
)

// Render fills rule from body and returns the resulting JSON document.
// Placeholders whose path does not resolve are replaced with an empty string.
func Render(rule string, body interface{}) ([]byte, error) {
	scope := map[string]interface{}{"body": body}

	out := placeholder.ReplaceAllStringFunc(rule, func(m string) string {
		path := placeholder.FindStringSubmatch(m)[1]
		v, ok := lookup(scope, path)
		if !ok {
			return ""
		}

		return escape(v)
	})

	if !json.Valid([]byte(out)) {
		return nil, ErrInvalidOutput
	}

	return []byte(out), nil
}

// lookup walks a dotted path, also accepting a[0] for list indices.
func lookup(v interface{}, path string) (interface{}, bool) {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)

	for _, key := range strings.Split(path, ".") {
		if key == "" {
			continue
		}

		switch node := v.(type) {
		case map[string]interface{}:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			v = next
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}

	return v, v != nil
}

func escape(v interface{}) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		s = string(b)
	}

	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
