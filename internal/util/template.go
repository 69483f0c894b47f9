package util

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// bareVar matches placeholders written without the leading dot, e.g. {{name}}.
var bareVar = regexp.MustCompile(`{{-?\s*([A-Za-z_][A-Za-z0-9_]*)\s*-?}}`)

var templateKeywords = map[string]bool{
	"end": true, "else": true, "if": true, "range": true, "with": true,
	"define": true, "template": true, "block": true, "break": true,
	"continue": true, "nil": true, "true": true, "false": true,
}

// normalizePlaceholders rewrites {{name}} into {{.name}} so prompt authors can
// use the short form alongside regular text/template syntax.
func normalizePlaceholders(text string) string {
	return bareVar.ReplaceAllStringFunc(text, func(m string) string {
		sub := bareVar.FindStringSubmatch(m)
		if templateKeywords[sub[1]] {
			return m
		}
		return strings.Replace(m, sub[1], "."+sub[1], 1)
	})
}

// RenderTemplate replaces template variables using Go's text/template package.
// Missing variables render as empty strings.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}

	tmpl, err := template.New("prompt").Option("missingkey=zero").Funcs(template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": func(s string) string {
			if len(s) == 0 {
				return s
			}
			return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
		},
		"join": func(sep string, items []interface{}) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}).Parse(normalizePlaceholders(text))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", err
	}

	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
