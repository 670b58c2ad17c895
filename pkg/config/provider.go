package config

import (
	"errors"
	"fmt"

	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetEngineConfig() (*EngineData, error)
	GetStorageConfig() (*StorageData, error)
	GetRESTServerConfig() (*RESTServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Engine    EngineData     `json:"engine"`
	Storage   StorageData    `json:"storage,omitempty"`
	REST      RESTServerData `json:"rest,omitempty"`
	Recompute RecomputeData  `json:"recompute,omitempty"`
}

// EngineData holds the policy values of the exposure calculator
type EngineData struct {
	CalibrationDriftTolerance     float64 `json:"calibration_drift_tolerance,omitempty"`
	FallbackInstrumentUncertainty float64 `json:"fallback_instrument_uncertainty,omitempty"`
}

// Options converts the engine section into calculator options
func (e EngineData) Options() exposure.Options {
	return exposure.Options{
		CalibrationDriftTolerance:     e.CalibrationDriftTolerance,
		FallbackInstrumentUncertainty: e.FallbackInstrumentUncertainty,
	}
}

// StorageData holds the configuration for the investigation store. At most one
// backend may be configured.
type StorageData struct {
	SQLite   *SQLiteData   `json:"sqlite,omitempty"`
	Postgres *PostgresData `json:"postgres,omitempty"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type PostgresData struct {
	ConnectionString string `json:"connection_string"`
}

// RESTServerData configures the HTTP API
type RESTServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	HTTPPort    int    `json:"http_port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// RecomputeData bounds the parallelism of batch recomputation
type RecomputeData struct {
	Workers int `json:"workers,omitempty"`
}

const (
	DefaultListenAddr = "0.0.0.0"
	DefaultHTTPPort   = 8080
	DefaultWorkers    = 4
)

// ApplyDefaults fills zero values with their defaults
func (c *ConfigData) ApplyDefaults() {
	opts := c.Engine.Options()
	if opts.CalibrationDriftTolerance <= 0 {
		c.Engine.CalibrationDriftTolerance = exposure.DefaultCalibrationDriftTolerance
	}
	if opts.FallbackInstrumentUncertainty <= 0 {
		c.Engine.FallbackInstrumentUncertainty = exposure.DefaultFallbackInstrumentUncertainty
	}
	if c.REST.ListenAddr == "" {
		c.REST.ListenAddr = DefaultListenAddr
	}
	if c.REST.HTTPPort == 0 {
		c.REST.HTTPPort = DefaultHTTPPort
	}
	if c.Recompute.Workers <= 0 {
		c.Recompute.Workers = DefaultWorkers
	}
}

// Validate checks the configuration for contradictions
func (c *ConfigData) Validate() error {
	var errs []error
	if c.Storage.SQLite != nil && c.Storage.Postgres != nil {
		errs = append(errs, errors.New("storage: configure either sqlite or postgres, not both"))
	}
	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		errs = append(errs, errors.New("storage.sqlite.path is required"))
	}
	if c.Storage.Postgres != nil && c.Storage.Postgres.ConnectionString == "" {
		errs = append(errs, errors.New("storage.postgres.connection_string is required"))
	}
	if c.REST.HTTPPort < 0 || c.REST.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("rest.http_port %d is out of range", c.REST.HTTPPort))
	}
	if (c.REST.TLSCertPath == "") != (c.REST.TLSKeyPath == "") {
		errs = append(errs, errors.New("rest: tls_cert_path and tls_key_path must be set together"))
	}
	return errors.Join(errs...)
}
