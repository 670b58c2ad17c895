package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TOMLProvider implements ConfigProvider for TOML configuration files
type TOMLProvider struct {
	filename string
	config   *ConfigData
}

// NewTOMLProvider creates a new TOML configuration provider
func NewTOMLProvider(filename string) *TOMLProvider {
	return &TOMLProvider{filename: filename}
}

// LoadConfig loads and caches the configuration. Unknown keys are rejected.
func (p *TOMLProvider) LoadConfig() (*ConfigData, error) {
	if p.config != nil {
		return p.config, nil
	}

	file, err := os.Open(p.filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw fileConfig
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.filename, err)
	}

	config := raw.toConfigData()
	if err := finalize(config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", p.filename, err)
	}

	p.config = config
	return config, nil
}

func (p *TOMLProvider) GetEngineConfig() (*EngineData, error) {
	config, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Engine, nil
}

func (p *TOMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

func (p *TOMLProvider) GetRESTServerConfig() (*RESTServerData, error) {
	config, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.REST, nil
}

func (p *TOMLProvider) IsReadOnly() bool {
	return true
}

func (p *TOMLProvider) Close() error {
	return nil
}
