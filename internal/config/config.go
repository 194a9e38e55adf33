package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/garyjia/pharmacy-audit/internal/report"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Spatial   SpatialConfig   `mapstructure:"spatial"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxUploadMB caps the multipart body of a generate request
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// StorageConfig holds generated workbook storage
type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// GeneratorConfig tunes template generation
type GeneratorConfig struct {
	StrictSchema bool `mapstructure:"strict_schema"`
	// RulesFile is an optional YAML AIG rule table; stored overrides win
	RulesFile string `mapstructure:"rules_file"`
}

// SpatialConfig selects the distance bands each spatial block counts
type SpatialConfig struct {
	Top10              report.BandRange `mapstructure:"top10"`
	PharmacyPrescriber report.BandRange `mapstructure:"pharmacy_prescriber"`
	PharmacyPatient    report.BandRange `mapstructure:"pharmacy_patient"`
	PrescriberPatient  report.BandRange `mapstructure:"prescriber_patient"`
}

// Load reads an optional .env file, then the YAML config, then environment
// overrides.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_mb", 64)

	// Database defaults
	v.SetDefault("database.path", "data/pharmacy_audit.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("storage.output_dir", "generated_templates")

	v.SetDefault("generator.strict_schema", true)
	v.SetDefault("generator.rules_file", "")

	for _, key := range []string{"top10", "pharmacy_prescriber", "pharmacy_patient", "prescriber_patient"} {
		v.SetDefault("spatial."+key+".start", report.FullRange.Start)
		v.SetDefault("spatial."+key+".end", report.FullRange.End)
	}
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "RXTEMPLATE_PORT")
	v.BindEnv("database.path", "RXTEMPLATE_DB_PATH")
	v.BindEnv("storage.output_dir", "RXTEMPLATE_OUTPUT_DIR")
	v.BindEnv("generator.rules_file", "RXTEMPLATE_RULES_FILE")
	v.BindEnv("logger.level", "RXTEMPLATE_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}

	ranges := map[string]report.BandRange{
		"spatial.top10":               c.Spatial.Top10,
		"spatial.pharmacy_prescriber": c.Spatial.PharmacyPrescriber,
		"spatial.pharmacy_patient":    c.Spatial.PharmacyPatient,
		"spatial.prescriber_patient":  c.Spatial.PrescriberPatient,
	}
	for key, r := range ranges {
		if r.Start < 1 || r.End > report.Bands || r.Start > r.End {
			return fmt.Errorf("%s must satisfy 1 <= start <= end <= %d, got %d..%d", key, report.Bands, r.Start, r.End)
		}
	}
	return nil
}

// ReportConfig maps generator and spatial settings onto report loading
func (c *Config) ReportConfig() report.Config {
	return report.Config{
		Top10:              c.Spatial.Top10,
		PharmacyPrescriber: c.Spatial.PharmacyPrescriber,
		PharmacyPatient:    c.Spatial.PharmacyPatient,
		PrescriberPatient:  c.Spatial.PrescriberPatient,
		StrictSchema:       c.Generator.StrictSchema,
	}
}
