package aig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk rule table layout
type document struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads and validates a YAML rule table
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML rule table
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	t := NewTable(doc.Rules)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("rule table validation failed: %w", err)
	}
	return t, nil
}

// Marshal encodes a table, shadowed entries included, as YAML
func Marshal(t *Table) ([]byte, error) {
	data, err := yaml.Marshal(document{Rules: t.rules})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rules: %w", err)
	}
	return data, nil
}
