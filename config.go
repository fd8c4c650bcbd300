package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultMarker    = "TrialStart"
	defaultPrecision = 6
)

// AppConfig is the contents of config.yml.
type AppConfig struct {
	ConfigVersion int    `yaml:"config_version"`
	Format        string `yaml:"format"`
	Template      string `yaml:"template"`
	Marker        string `yaml:"marker"`
	Precision     *int   `yaml:"precision"`
	Highlight     bool   `yaml:"highlight"`
}

// DefaultAppConfig returns the settings used when no config.yml exists.
func DefaultAppConfig() *AppConfig {
	precision := defaultPrecision
	return &AppConfig{
		ConfigVersion: latestConfigVersion,
		Format:        defaultFormat,
		Template:      defaultTemplate,
		Marker:        defaultMarker,
		Precision:     &precision,
	}
}

// LoadAppConfig reads dir/config.yml. A missing file yields the defaults;
// keys absent from the file keep their default values.
func LoadAppConfig(dir string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	// Files without config_version predate migrations.
	cfg.ConfigVersion = 0

	data, err := os.ReadFile(filepath.Join(dir, "config.yml"))
	if os.IsNotExist(err) {
		cfg.ConfigVersion = latestConfigVersion
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config.yml: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config.yml: %w", err)
	}
	if cfg.Precision == nil || *cfg.Precision < 0 {
		p := defaultPrecision
		cfg.Precision = &p
	}
	return cfg, nil
}

// Settings is the fully resolved configuration for one run: config file
// values overridden by command-line flags.
type Settings struct {
	Format    string
	Template  string
	Marker    string
	Precision int
	Highlight bool
	Relative  bool
	Since     string
}

// Settings flattens the config into run settings.
func (c *AppConfig) Settings() Settings {
	s := Settings{
		Format:    c.Format,
		Template:  c.Template,
		Marker:    c.Marker,
		Precision: defaultPrecision,
		Highlight: c.Highlight,
	}
	if c.Precision != nil {
		s.Precision = *c.Precision
	}
	return s.withDefaults()
}

func (s Settings) withDefaults() Settings {
	if s.Format == "" {
		s.Format = defaultFormat
	}
	if s.Template == "" {
		s.Template = defaultTemplate
	}
	return s
}
