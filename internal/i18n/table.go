// Package i18n holds the active language of a session and its translation
// table.
package i18n

import (
	"regexp"
	"strings"
)

// Table is a decoded translation document. Values are strings or nested
// tables.
type Table map[string]any

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Lookup resolves key in t. A key stored verbatim at the top level wins over
// the dotted path; anything that does not resolve to a non-empty string
// yields the key itself.
func Lookup(t Table, key string) string {
	if s, ok := t[key].(string); ok && s != "" {
		return s
	}

	var node any = map[string]any(t)
	for _, segment := range strings.Split(key, ".") {
		m, ok := asMap(node)
		if !ok {
			return key
		}
		node, ok = m[segment]
		if !ok {
			return key
		}
	}
	if s, ok := node.(string); ok && s != "" {
		return s
	}
	return key
}

func asMap(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case Table:
		return m, true
	}
	return nil, false
}

// Interpolate replaces {{name}} placeholders with params. Placeholders with
// no matching or an empty param are left intact.
func Interpolate(text string, params map[string]string) string {
	if len(params) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if value := params[name]; value != "" {
			return value
		}
		return match
	})
}

// Translate looks key up in t and interpolates params into the result
func Translate(t Table, key string, params map[string]string) string {
	return Interpolate(Lookup(t, key), params)
}

func cloneTable(t Table) Table {
	if t == nil {
		return Table{}
	}
	return Table(cloneMap(t))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := asMap(v); ok {
			out[k] = cloneMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}
