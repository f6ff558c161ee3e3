package notify

import (
	"strings"
	"testing"
)

func TestRenderBasic(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("Hello {{ first_name }}, welcome to {{ school_name }}!",
		map[string]interface{}{"first_name": "Thandi", "school_name": "Greenfield Primary"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hello Thandi, welcome to Greenfield Primary!" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRenderMissingVariableIsLax(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render("Hi {{ nickname }}.", map[string]interface{}{"first_name": "Thandi"})
	if err != nil {
		t.Fatalf("lax render should not error on missing vars: %v", err)
	}
	if out != "Hi ." {
		t.Fatalf("expected missing var to render empty, got %q", out)
	}
}

func TestRenderBadTemplateReturnsRaw(t *testing.T) {
	ts := NewTemplateService()

	raw := "Hello {% if %} broken"
	out, err := ts.Render(raw, map[string]interface{}{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if out != raw {
		t.Fatalf("expected raw template back, got %q", out)
	}
}

func TestDefaultFilter(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render(`Hi {{ first_name | default: "there" }}!`,
		map[string]interface{}{"first_name": ""})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Hi there!" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestTruncateFilter(t *testing.T) {
	ts := NewTemplateService()

	out, err := ts.Render(`{{ note | truncate: 10 }}`,
		map[string]interface{}{"note": "a very long announcement body"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "a very ..." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestValidateVariablesFlagsUndefined(t *testing.T) {
	ts := NewTemplateService()

	warnings := ts.ValidateVariables(
		"Dear {{ first_name }}, {{ homeroom }} starts at {{ start_time }}.",
		map[string]interface{}{"first_name": "Thandi"})

	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %v", len(warnings), warnings)
	}
	joined := strings.Join(warnings, "; ")
	if !strings.Contains(joined, "homeroom") || !strings.Contains(joined, "start_time") {
		t.Fatalf("warnings missing variable names: %v", warnings)
	}
}

func TestValidateVariablesSkipsKeywords(t *testing.T) {
	ts := NewTemplateService()

	warnings := ts.ValidateVariables(
		"{% if first_name %}Hello {{ first_name }}{% endif %}",
		map[string]interface{}{"first_name": "Thandi"})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestValidateVariablesNestedPath(t *testing.T) {
	ts := NewTemplateService()

	ctx := map[string]interface{}{
		"learner": map[string]interface{}{"first_name": "Sipho"},
	}
	if w := ts.ValidateVariables("{{ learner.first_name }}", ctx); len(w) != 0 {
		t.Fatalf("expected nested path to resolve, got %v", w)
	}
	if w := ts.ValidateVariables("{{ learner.grade }}", ctx); len(w) != 1 {
		t.Fatalf("expected missing nested path warning, got %v", w)
	}
}
