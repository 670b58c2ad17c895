package config

// fileConfig is the on-disk layout shared by the YAML and TOML providers
type fileConfig struct {
	Engine struct {
		CalibrationDriftTolerance     float64 `yaml:"calibration_drift_tolerance,omitempty" toml:"calibration_drift_tolerance"`
		FallbackInstrumentUncertainty float64 `yaml:"fallback_instrument_uncertainty,omitempty" toml:"fallback_instrument_uncertainty"`
	} `yaml:"engine,omitempty" toml:"engine"`
	Storage struct {
		SQLite *struct {
			Path string `yaml:"path" toml:"path"`
		} `yaml:"sqlite,omitempty" toml:"sqlite"`
		Postgres *struct {
			ConnectionString string `yaml:"connection_string" toml:"connection_string"`
		} `yaml:"postgres,omitempty" toml:"postgres"`
	} `yaml:"storage,omitempty" toml:"storage"`
	REST struct {
		ListenAddr  string `yaml:"listen_addr,omitempty" toml:"listen_addr"`
		HTTPPort    int    `yaml:"http_port,omitempty" toml:"http_port"`
		TLSCertPath string `yaml:"tls_cert_path,omitempty" toml:"tls_cert_path"`
		TLSKeyPath  string `yaml:"tls_key_path,omitempty" toml:"tls_key_path"`
	} `yaml:"rest,omitempty" toml:"rest"`
	Recompute struct {
		Workers int `yaml:"workers,omitempty" toml:"workers"`
	} `yaml:"recompute,omitempty" toml:"recompute"`
}

func (f *fileConfig) toConfigData() *ConfigData {
	config := &ConfigData{
		Engine: EngineData{
			CalibrationDriftTolerance:     f.Engine.CalibrationDriftTolerance,
			FallbackInstrumentUncertainty: f.Engine.FallbackInstrumentUncertainty,
		},
		REST: RESTServerData{
			ListenAddr:  f.REST.ListenAddr,
			HTTPPort:    f.REST.HTTPPort,
			TLSCertPath: f.REST.TLSCertPath,
			TLSKeyPath:  f.REST.TLSKeyPath,
		},
		Recompute: RecomputeData{Workers: f.Recompute.Workers},
	}
	if f.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{Path: f.Storage.SQLite.Path}
	}
	if f.Storage.Postgres != nil {
		config.Storage.Postgres = &PostgresData{ConnectionString: f.Storage.Postgres.ConnectionString}
	}
	return config
}

func finalize(config *ConfigData) error {
	config.ApplyDefaults()
	return config.Validate()
}
