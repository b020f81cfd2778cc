// Package config loads the serialterm configuration file.
//
// Values are resolved in order: built-in defaults, the YAML file, then SERIALTERM_* environment
// variables. Command line flags are applied on top by the binary.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/miroslavpetrov/Serial-Console-Pro/codec"
	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/miroslavpetrov/Serial-Console-Pro/session"
	"github.com/miroslavpetrov/Serial-Console-Pro/transport"
)

// Environment variables recognized by ApplyEnvOverrides.
const (
	EnvPort     = "SERIALTERM_PORT"
	EnvBaud     = "SERIALTERM_BAUD"
	EnvFormat   = "SERIALTERM_FORMAT"
	EnvLogLevel = "SERIALTERM_LOG_LEVEL"
)

// Config is the resolved configuration.
type Config struct {
	Port     PortConfig
	Terminal TerminalConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// PortConfig holds the serial port settings.
type PortConfig struct {
	Path     string
	BaudRate int
	DataBits int
	StopBits string
	Parity   string
}

// TerminalConfig holds the session and rendering settings.
type TerminalConfig struct {
	Format         string
	AppendCRLF     bool
	LocalEcho      bool
	Timestamps     bool
	Language       string
	RecordDir      string
	StatusInterval time.Duration
	// LineRate limits sent lines per second. Zero disables the limit.
	LineRate float64
}

// LogConfig holds the diagnostics logger settings.
type LogConfig struct {
	Level     string
	AddSource bool
}

// MetricsConfig holds the metrics endpoint settings. An empty Listen address disables it.
type MetricsConfig struct {
	Listen string
}

// Default returns the built-in defaults: 9600 baud 8N1, ASCII with CRLF and local echo.
func Default() Config {
	return Config{
		Port: PortConfig{
			BaudRate: transport.DefaultBaudRate,
			DataBits: int(transport.DefaultDataBits),
			StopBits: transport.DefaultStopBits.String(),
			Parity:   transport.DefaultParity.String(),
		},
		Terminal: TerminalConfig{
			Format:     codec.ASCII.String(),
			AppendCRLF: true,
			LocalEcho:  true,
			Timestamps: true,
			Language:   "en",
		},
		Log: LogConfig{
			Level: logger.InfoLevel.String(),
		},
	}
}

// FileConfig mirrors the YAML file layout. Unset fields keep their defaults.
type FileConfig struct {
	Port     FilePortConfig     `yaml:"port"`
	Terminal FileTerminalConfig `yaml:"terminal"`
	Log      FileLogConfig      `yaml:"log"`
	Metrics  FileMetricsConfig  `yaml:"metrics"`
}

type FilePortConfig struct {
	Path     string `yaml:"path"`
	BaudRate int    `yaml:"baudRate"`
	DataBits int    `yaml:"dataBits"`
	StopBits string `yaml:"stopBits"`
	Parity   string `yaml:"parity"`
}

type FileTerminalConfig struct {
	Format         string        `yaml:"format"`
	AppendCRLF     *bool         `yaml:"appendCRLF"`
	LocalEcho      *bool         `yaml:"localEcho"`
	Timestamps     *bool         `yaml:"timestamps"`
	Language       string        `yaml:"language"`
	RecordDir      string        `yaml:"recordDir"`
	StatusInterval time.Duration `yaml:"statusInterval"`
	LineRate       float64       `yaml:"lineRate"`
}

type FileLogConfig struct {
	Level     string `yaml:"level"`
	AddSource *bool  `yaml:"addSource"`
}

type FileMetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load resolves the configuration from the file at path. An empty path skips the file.
//
// The result is not validated, so callers can apply further overrides before calling Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		defer f.Close()

		parsed, err := Parse(f)
		if err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
		Merge(&cfg, parsed)
	}

	ApplyEnvOverrides(&cfg)

	return cfg, nil
}

// Parse decodes a YAML document. Unknown keys are rejected; an empty document is valid.
func Parse(r io.Reader) (FileConfig, error) {
	var parsed FileConfig

	data, err := io.ReadAll(r)
	if err != nil {
		return parsed, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return parsed, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil {
		return parsed, err
	}

	return parsed, nil
}

// Merge copies every set field of src into dst.
func Merge(dst *Config, src FileConfig) {
	if src.Port.Path != "" {
		dst.Port.Path = src.Port.Path
	}
	if src.Port.BaudRate != 0 {
		dst.Port.BaudRate = src.Port.BaudRate
	}
	if src.Port.DataBits != 0 {
		dst.Port.DataBits = src.Port.DataBits
	}
	if src.Port.StopBits != "" {
		dst.Port.StopBits = src.Port.StopBits
	}
	if src.Port.Parity != "" {
		dst.Port.Parity = src.Port.Parity
	}

	if src.Terminal.Format != "" {
		dst.Terminal.Format = src.Terminal.Format
	}
	if src.Terminal.AppendCRLF != nil {
		dst.Terminal.AppendCRLF = *src.Terminal.AppendCRLF
	}
	if src.Terminal.LocalEcho != nil {
		dst.Terminal.LocalEcho = *src.Terminal.LocalEcho
	}
	if src.Terminal.Timestamps != nil {
		dst.Terminal.Timestamps = *src.Terminal.Timestamps
	}
	if src.Terminal.Language != "" {
		dst.Terminal.Language = src.Terminal.Language
	}
	if src.Terminal.RecordDir != "" {
		dst.Terminal.RecordDir = src.Terminal.RecordDir
	}
	if src.Terminal.StatusInterval != 0 {
		dst.Terminal.StatusInterval = src.Terminal.StatusInterval
	}
	if src.Terminal.LineRate != 0 {
		dst.Terminal.LineRate = src.Terminal.LineRate
	}

	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.AddSource != nil {
		dst.Log.AddSource = *src.Log.AddSource
	}

	if src.Metrics.Listen != "" {
		dst.Metrics.Listen = src.Metrics.Listen
	}
}

// ApplyEnvOverrides applies the SERIALTERM_* environment variables. Malformed numbers are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv(EnvPort)); port != "" {
		cfg.Port.Path = port
	}
	if raw := strings.TrimSpace(os.Getenv(EnvBaud)); raw != "" {
		if baud, err := strconv.Atoi(raw); err == nil {
			cfg.Port.BaudRate = baud
		}
	}
	if format := strings.TrimSpace(os.Getenv(EnvFormat)); format != "" {
		cfg.Terminal.Format = format
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Log.Level = level
	}
}

// Validate checks every field that later conversions would reject.
func (c Config) Validate() error {
	var errs []error

	if c.Port.Path != "" {
		if _, err := c.PortConfig(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.SessionOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Terminal.StatusInterval < 0 {
		errs = append(errs, fmt.Errorf("config: negative status interval %s", c.Terminal.StatusInterval))
	}
	if c.Terminal.LineRate < 0 {
		errs = append(errs, fmt.Errorf("config: negative line rate %g", c.Terminal.LineRate))
	}

	return errors.Join(errs...)
}

// PortConfig converts the port section into a transport.PortConfig.
func (c Config) PortConfig() (*transport.PortConfig, error) {
	stopBits, err := transport.ParseStopBits(c.Port.StopBits)
	if err != nil {
		return nil, err
	}
	parity, err := transport.ParseParity(c.Port.Parity)
	if err != nil {
		return nil, err
	}

	return transport.NewPortConfig(c.Port.Path,
		transport.WithBaudRate(c.Port.BaudRate),
		transport.WithDataBits(c.Port.DataBits),
		transport.WithStopBits(stopBits),
		transport.WithParity(parity),
	)
}

// SessionOptions converts the terminal section into session options.
func (c Config) SessionOptions() ([]session.Option, error) {
	format, err := codec.ParseFormat(c.Terminal.Format)
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(c.Terminal.Language)
	if err != nil {
		return nil, fmt.Errorf("config: invalid language %q: %w", c.Terminal.Language, err)
	}

	return []session.Option{
		session.WithFormat(format),
		session.WithAppendCRLF(c.Terminal.AppendCRLF),
		session.WithLocalEcho(c.Terminal.LocalEcho),
		session.WithLanguage(tag),
	}, nil
}

// LogLevel parses the configured log level.
func (c Config) LogLevel() (logger.Level, error) {
	return logger.ParseLevel(c.Log.Level)
}
