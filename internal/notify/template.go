// Package notify owns the notification outbox: Liquid rendering of message
// bodies, the dispatch worker pool that drains the outbox over email and
// push, the scheduler that promotes scheduled messages, and the recovery
// and cleanup sweepers that keep the queue healthy.
package notify

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// TemplateService renders Liquid message bodies. Render is lax (a broken
// template falls back to its raw text so a send is never lost over a typo);
// ValidateVariables is the strict pass behind message previews.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // template text -> *liquid.Template
}

// NewTemplateService creates a template service with the school-messaging
// filter set registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// Fallback value: {{ first_name | default: "there" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// Capitalize first letter: {{ name | capitalize }}
	ts.engine.RegisterFilter("capitalize", func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	})

	// Title case: {{ school_name | titlecase }}
	ts.engine.RegisterFilter("titlecase", func(s string) string {
		return strings.Title(strings.ToLower(s))
	})

	// Truncate with ellipsis: {{ body | truncate: 80 }}
	ts.engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	// HTML escape: {{ user_input | escape }}
	ts.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
}

// Parse compiles a template string and returns any syntax error.
func (ts *TemplateService) Parse(templateStr string) error {
	_, err := ts.engine.ParseString(templateStr)
	return err
}

// Render processes a template in lax mode. On parse or render failure the
// raw template text is returned alongside the error so the caller can keep
// going with the unrendered body.
func (ts *TemplateService) Render(templateStr string, ctx map[string]interface{}) (string, error) {
	if cached, ok := ts.cache.Load(templateStr); ok {
		tpl := cached.(*liquid.Template)
		out, err := tpl.RenderString(ctx)
		if err != nil {
			return templateStr, err
		}
		return out, nil
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return templateStr, err
	}
	ts.cache.Store(templateStr, tpl)

	out, err := tpl.RenderString(ctx)
	if err != nil {
		return templateStr, err
	}
	return out, nil
}

// varPattern matches {{ var }}, {{ var | filter }} and {{ var.nested }}.
var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*?)(?:\s*\||\s*\}\})`)

// ValidateVariables reports template variables that are absent from the
// given context. Liquid renders those as empty strings in lax mode, which
// is exactly what a preview should warn about.
func (ts *TemplateService) ValidateVariables(templateStr string, ctx map[string]interface{}) []string {
	var warnings []string
	seen := make(map[string]bool)

	for _, match := range varPattern.FindAllStringSubmatch(templateStr, -1) {
		if len(match) < 2 {
			continue
		}
		name := strings.TrimSpace(match[1])
		if seen[name] || isLiquidKeyword(name) {
			continue
		}
		seen[name] = true

		if !variableExists(name, ctx) {
			warnings = append(warnings, fmt.Sprintf("variable %q may not be defined for all recipients", name))
		}
	}
	return warnings
}

// variableExists walks a dotted variable path through the context.
func variableExists(varPath string, ctx map[string]interface{}) bool {
	parts := strings.Split(varPath, ".")

	var current interface{} = ctx
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return false
		}
		val, ok := m[part]
		if !ok {
			return false
		}
		current = val
	}
	return true
}

func isLiquidKeyword(name string) bool {
	keywords := map[string]bool{
		"if": true, "elsif": true, "else": true, "endif": true,
		"unless": true, "endunless": true,
		"case": true, "when": true, "endcase": true,
		"for": true, "endfor": true, "break": true, "continue": true,
		"capture": true, "endcapture": true,
		"comment": true, "endcomment": true,
		"raw": true, "endraw": true,
		"assign": true, "increment": true, "decrement": true,
		"forloop": true, "limit": true, "offset": true,
		"true": true, "false": true, "nil": true, "null": true,
		"empty": true, "blank": true,
		"and": true, "or": true, "not": true,
		"contains": true, "in": true,
	}
	return keywords[strings.ToLower(name)]
}
