package service

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{ key }} with arbitrary whitespace inside the
// braces. This is the only template syntax the engine understands.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Substitute replaces every {{key}} placeholder whose key (matched literally,
// case-sensitive) is present in variables. Placeholders for absent keys are
// left untouched: partially-filled templates are valid intermediate states.
// With an empty variable map the template is returned unchanged.
func Substitute(template string, variables map[string]string) string {
	if len(variables) == 0 {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}"))
		if value, ok := variables[key]; ok {
			return value
		}
		return match
	})
}
