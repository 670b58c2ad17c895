package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NewProvider returns a provider for the given backend. An empty backend is
// inferred from the file extension, defaulting to YAML.
func NewProvider(filename, backend string) (ConfigProvider, error) {
	if backend == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".toml":
			backend = "toml"
		default:
			backend = "yaml"
		}
	}

	switch backend {
	case "yaml":
		return NewYAMLProvider(filename), nil
	case "toml":
		return NewTOMLProvider(filename), nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'toml'", backend)
	}
}
