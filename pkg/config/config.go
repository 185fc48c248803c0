// Package config loads calcgraph settings from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/chazu/calcgraph/pkg/calc"
	"github.com/chazu/calcgraph/pkg/smooth"
)

// Environment variables that override the file.
const (
	EnvLogLevel  = "CALCGRAPH_LOG_LEVEL"
	EnvLogFormat = "CALCGRAPH_LOG_FORMAT"
)

type Config struct {
	Log      LogConfig    `yaml:"log"`
	Eval     EvalConfig   `yaml:"eval"`
	Smooth   SmoothConfig `yaml:"smooth"`
	Viewport Viewport     `yaml:"viewport"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

type EvalConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

type SmoothConfig struct {
	Position smooth.Limits `yaml:"position"`
	Rotation smooth.Limits `yaml:"rotation"`
}

// Viewport overrides the world's render size when both sides are set.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (v Viewport) IsSet() bool { return v.Width > 0 && v.Height > 0 }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:  LogConfig{Level: "info", Format: "console"},
		Eval: EvalConfig{MaxDepth: calc.DefaultMaxDepth},
		Smooth: SmoothConfig{
			Position: smooth.DefaultPosition,
			Rotation: smooth.DefaultRotation,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
}

// Validate rejects unknown log settings and non-positive limits.
func (c Config) Validate() error {
	var errs []error
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Eval.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("eval.max_depth: must be positive, got %d", c.Eval.MaxDepth))
	}
	for _, l := range []struct {
		name string
		v    smooth.Limits
	}{
		{"smooth.position", c.Smooth.Position},
		{"smooth.rotation", c.Smooth.Rotation},
	} {
		if l.v.MaxVelocity <= 0 || l.v.MaxAcceleration <= 0 {
			errs = append(errs, fmt.Errorf("%s: limits must be positive", l.name))
		}
	}
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		errs = append(errs, fmt.Errorf("viewport: negative size %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	return errors.Join(errs...)
}

// NewLogger builds a zap logger: production JSON output for "json",
// development console output otherwise.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if strings.EqualFold(c.Format, "json") {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
