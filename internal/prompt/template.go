// Package prompt provides the versioned prompt catalog for Foreman agents.
// Rendering is a pure function of the template and its variables, so a
// stored template version fully reproduces the prompt that was sent.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// MissingVariableError is returned when Render is called without a variable
// the template requires.
type MissingVariableError struct {
	Template string
	Variable string
}

// Error implements the error interface.
func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %s: missing required variable %q", e.Template, e.Variable)
}

// Template is one versioned, parameterized prompt. Placeholders use the
// {{name}} form.
type Template struct {
	// Name identifies the template in the catalog.
	Name string `yaml:"name"`
	// Version is recorded on reviews and usage records for reproducibility.
	Version string `yaml:"version"`
	// System is the system prompt, rendered with the same variables.
	System string `yaml:"system"`
	// User is the user message template.
	User string `yaml:"user"`
	// Required lists variables that must be present at render time.
	Required []string `yaml:"required"`
}

// Render substitutes variables into the user template. Missing required
// variables fail; re-rendering with identical variables is byte-identical.
func (t Template) Render(vars map[string]string) (string, error) {
	if err := t.checkRequired(vars); err != nil {
		return "", err
	}
	return substitute(t.User, vars), nil
}

// RenderSystem substitutes variables into the system prompt.
func (t Template) RenderSystem(vars map[string]string) (string, error) {
	if err := t.checkRequired(vars); err != nil {
		return "", err
	}
	return substitute(t.System, vars), nil
}

func (t Template) checkRequired(vars map[string]string) error {
	for _, name := range t.Required {
		if _, ok := vars[name]; !ok {
			return &MissingVariableError{Template: t.Name, Variable: name}
		}
	}
	return nil
}

// substitute replaces {{name}} placeholders. Substitution is applied in
// sorted key order so the result does not depend on map iteration.
func substitute(text string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text = strings.ReplaceAll(text, "{{"+k+"}}", vars[k])
	}
	return text
}

// Catalog holds the prompt templates by name.
type Catalog struct {
	templates map[string]Template
}

// NewCatalog returns the built-in template library.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[string]Template)}
	for _, t := range builtinTemplates() {
		c.templates[t.Name] = t
	}
	return c
}

// Get returns the template with the given name.
func (c *Catalog) Get(name string) (Template, error) {
	t, ok := c.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown prompt template %q", name)
	}
	return t, nil
}

// Names returns the sorted template names in the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
