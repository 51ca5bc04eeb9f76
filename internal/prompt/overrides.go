package prompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the YAML shape for prompt overrides: a list of templates
// keyed by name. Only known templates may be overridden, and an override
// must bump the version so records stay attributable.
type overrideFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadOverrides applies template overrides from a YAML file to the catalog.
// An override replaces the template body but keeps the built-in required
// variable list, so callers' render contracts cannot be broken by config.
func (c *Catalog) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompt overrides: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse prompt overrides: %w", err)
	}

	for _, override := range file.Templates {
		builtin, ok := c.templates[override.Name]
		if !ok {
			return fmt.Errorf("prompt override for unknown template %q", override.Name)
		}
		if override.Version == "" || override.Version == builtin.Version {
			return fmt.Errorf("prompt override for %q must carry a new version", override.Name)
		}

		updated := builtin
		updated.Version = override.Version
		if override.System != "" {
			updated.System = override.System
		}
		if override.User != "" {
			updated.User = override.User
		}
		c.templates[override.Name] = updated
	}

	return nil
}
