package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

type Config struct {
	Addr     string `yaml:"addr"`
	Home     string `yaml:"home"`
	DataDir  string `yaml:"data_dir"`
	LogDir   string `yaml:"log_dir"`
	UserFile string `yaml:"user_file"`
	LogLevel string `yaml:"log_level"`
	// Journal, when set, records every flash operation to this file.
	Journal string `yaml:"journal"`

	EnableTLS bool   `yaml:"enable_tls"`
	TLSCert   string `yaml:"tls_cert"`
	TLSKey    string `yaml:"tls_key"`

	Flash  FlashConfig  `yaml:"flash"`
	EEPROM EEPROMConfig `yaml:"eeprom"`
	Mirror MirrorConfig `yaml:"mirror"`
}

// ---- FLASH DEVICE ----

type FlashConfig struct {
	Image            string `yaml:"image"`
	Base             uint32 `yaml:"base"`
	PageSize         uint32 `yaml:"page_size"`
	PagesPerInstance uint32 `yaml:"pages_per_instance"`
	Pages            uint32 `yaml:"pages"`
}

// ---- EMULATED EEPROM ----

type EEPROMConfig struct {
	Base       uint32 `yaml:"base"`
	Pages      int    `yaml:"pages"`
	AutoFormat bool   `yaml:"auto_format"`
}

// ---- MODBUS MIRROR ----

type MirrorConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	IntervalMs int    `yaml:"interval_ms"`
	Address    uint16 `yaml:"address"`
	Quantity   uint16 `yaml:"quantity"`
	// Base is the first virtual address the registers are stored at.
	Base uint16 `yaml:"base"`
}

// LoadConfig resolves the home directory, applies defaults, and decodes
// config.yaml over them when it exists.
func LoadConfig(homeOverride, configOverride string) (*Config, error) {
	paths, err := ResolvePaths(homeOverride, configOverride)
	if err != nil {
		return nil, err
	}

	cfg := Default(paths)

	if f, err := os.Open(paths.Config); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	if cfg.Flash.Image == "" {
		cfg.Flash.Image = filepath.Join(cfg.DataDir, "flash.img")
	}

	_ = os.MkdirAll(cfg.DataDir, 0o755)
	_ = os.MkdirAll(cfg.LogDir, 0o755)

	return cfg, nil
}

// Default is the configuration used when no config file overrides it.
func Default(paths *Paths) *Config {
	return &Config{
		Addr:     "127.0.0.1:57084",
		Home:     paths.Home,
		DataDir:  paths.DataDir,
		LogDir:   paths.LogDir,
		UserFile: paths.UserFile,
		LogLevel: "info",
		Flash: FlashConfig{
			Base:             0,
			PageSize:         8192,
			PagesPerInstance: 64,
			Pages:            8,
		},
		EEPROM: EEPROMConfig{
			Base:  0,
			Pages: 2,
		},
		Mirror: MirrorConfig{
			TimeoutMs:  1000,
			IntervalMs: 1000,
			Base:       0x1000,
		},
	}
}
