package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Decode parses a schema document. YAML is a superset of JSON, but JSON input
// goes through the JSON decoder so numbers keep their JSON types.
func Decode(data []byte, format string) (*Schema, error) {
	var s Schema
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode json schema: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode yaml schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadDir reads every *.json, *.yaml and *.yml file in dir. Each schema is
// keyed by its file name without extension. Subdirectories are ignored.
func LoadDir(dir string) (map[string]*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}
	out := make(map[string]*Schema)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		format := strings.TrimPrefix(strings.ToLower(ext), ".")
		if format != "json" && format != "yaml" && format != "yml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("duplicate schema name %q in %s", name, dir)
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		s, err := Decode(data, format)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", entry.Name(), err)
		}
		out[name] = s
	}
	return out, nil
}
