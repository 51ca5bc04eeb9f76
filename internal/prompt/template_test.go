package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	tmpl := Template{
		Name:     "greeting",
		Version:  "1.0.0",
		User:     "Hello {{name}}, your goal is {{goal}}.",
		Required: []string{"name", "goal"},
	}

	got, err := tmpl.Render(map[string]string{"name": "worker", "goal": "ship it"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	want := "Hello worker, your goal is ship it."
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderMissingVariable(t *testing.T) {
	tmpl := Template{
		Name:     "greeting",
		User:     "Hello {{name}}.",
		Required: []string{"name"},
	}

	_, err := tmpl.Render(map[string]string{})
	if err == nil {
		t.Fatal("expected error for missing variable")
	}
	mve, ok := err.(*MissingVariableError)
	if !ok {
		t.Fatalf("error type = %T, want *MissingVariableError", err)
	}
	if mve.Variable != "name" {
		t.Errorf("missing variable = %q, want %q", mve.Variable, "name")
	}
}

func TestRenderIdempotent(t *testing.T) {
	catalog := NewCatalog()
	tmpl, err := catalog.Get(TemplateGoalAnalysis)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	vars := map[string]string{"goal": "Build a CLI todo app"}
	first, err := tmpl.Render(vars)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := tmpl.Render(vars)
		if err != nil {
			t.Fatalf("Render() error on pass %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("render pass %d differs from first render", i)
		}
	}
}

func TestCatalogHasAllTemplates(t *testing.T) {
	catalog := NewCatalog()
	names := []string{
		TemplateGoalAnalysis, TemplateTeamFormation, TemplateTaskDecomposition,
		TemplateTaskExecution, TemplateTaskReview,
	}

	for _, name := range names {
		tmpl, err := catalog.Get(name)
		if err != nil {
			t.Errorf("Get(%q) error: %v", name, err)
			continue
		}
		if tmpl.Version == "" {
			t.Errorf("template %q has no version", name)
		}
		if tmpl.System == "" || tmpl.User == "" {
			t.Errorf("template %q has empty prompt bodies", name)
		}
	}

	if _, err := catalog.Get("nonexistent"); err == nil {
		t.Error("Get of unknown template should fail")
	}
}

func TestExecutionTemplateRendersWorkerContext(t *testing.T) {
	catalog := NewCatalog()
	tmpl, err := catalog.Get(TemplateTaskExecution)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	vars := map[string]string{
		"specialization":      "backend-developer",
		"skills":              "Go, SQL",
		"responsibilities":    "implement APIs",
		"tools":               "go toolchain",
		"title":               "Add endpoint",
		"description":         "Add the /health endpoint",
		"acceptance_criteria": "- returns 200",
	}

	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		t.Fatalf("RenderSystem() error: %v", err)
	}
	if !strings.Contains(system, "backend-developer") {
		t.Error("system prompt should carry the specialization")
	}
	if !strings.Contains(system, "Go, SQL") {
		t.Error("system prompt should carry the skills")
	}

	user, err := tmpl.Render(vars)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(user, "Add endpoint") || !strings.Contains(user, "returns 200") {
		t.Error("user prompt should carry title and acceptance criteria")
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := `templates:
  - name: goal_analysis
    version: "1.1.0"
    user: "Analyze this goal: {{goal}}"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	catalog := NewCatalog()
	if err := catalog.LoadOverrides(path); err != nil {
		t.Fatalf("LoadOverrides() error: %v", err)
	}

	tmpl, err := catalog.Get(TemplateGoalAnalysis)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if tmpl.Version != "1.1.0" {
		t.Errorf("version = %q, want 1.1.0", tmpl.Version)
	}
	got, err := tmpl.Render(map[string]string{"goal": "x"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got != "Analyze this goal: x" {
		t.Errorf("Render() = %q", got)
	}
	// Required list survives the override.
	if _, err := tmpl.Render(nil); err == nil {
		t.Error("override must keep required-variable checks")
	}
}

func TestLoadOverridesRejectsSameVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := `templates:
  - name: goal_analysis
    version: "1.0.0"
    user: "changed"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	catalog := NewCatalog()
	if err := catalog.LoadOverrides(path); err == nil {
		t.Error("override without a version bump should fail")
	}
}

func TestLoadOverridesUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := `templates:
  - name: no_such_template
    version: "2.0.0"
    user: "body"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	catalog := NewCatalog()
	if err := catalog.LoadOverrides(path); err == nil {
		t.Error("override of unknown template should fail")
	}
}
