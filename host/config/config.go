// Package config loads the TOML configuration of the host tools
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"imcmotor/host/imc"
	"imcmotor/host/serial"
	"imcmotor/protocol"
)

// Config is the whole configuration file
type Config struct {
	Controller ControllerConfig `toml:"controller"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// ControllerConfig describes one iMC controller and its serial line
type ControllerConfig struct {
	Name         string `toml:"name"`
	Device       string `toml:"device"`
	Baud         int    `toml:"baud"`
	NumAxes      int    `toml:"num_axes"`
	MovingPollMs int    `toml:"moving_poll_ms"`
	IdlePollMs   int    `toml:"idle_poll_ms"`
	TimeoutMs    int    `toml:"timeout_ms"`
	TravelUnitMs int    `toml:"travel_unit_ms"`
}

// LogConfig selects the log level and output format
type LogConfig struct {
	Level   string `toml:"level"`
	Console bool   `toml:"console"`
}

// MetricsConfig holds the /metrics listen address; empty disables it
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	cfg := Config{Log: LogConfig{Console: true}}
	applyDefaults(&cfg)
	return cfg
}

// Load reads, defaults and validates the file at path
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data, then applies defaults and validates
func Parse(data []byte) (Config, error) {
	cfg := Config{Log: LogConfig{Console: true}}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config has unknown keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	c := &cfg.Controller
	if c.Name == "" {
		c.Name = "imc1"
	}
	if c.Device == "" {
		c.Device = "/dev/ttyUSB0"
	}
	if c.Baud == 0 {
		c.Baud = 19200
	}
	if c.NumAxes == 0 {
		c.NumAxes = 1
	}
	if c.MovingPollMs == 0 {
		c.MovingPollMs = 100
	}
	if c.IdlePollMs == 0 {
		c.IdlePollMs = 1000
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 2000
	}
	if c.TravelUnitMs == 0 {
		c.TravelUnitMs = 1000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks ranges after defaults are applied
func (cfg Config) Validate() error {
	c := cfg.Controller
	var errs []error

	if c.NumAxes < 1 || c.NumAxes > protocol.MaxAxes {
		errs = append(errs, fmt.Errorf("num_axes must be 1..%d, got %d", protocol.MaxAxes, c.NumAxes))
	}
	if c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud must be positive, got %d", c.Baud))
	}
	for name, v := range map[string]int{
		"moving_poll_ms": c.MovingPollMs,
		"idle_poll_ms":   c.IdlePollMs,
		"timeout_ms":     c.TimeoutMs,
		"travel_unit_ms": c.TravelUnitMs,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Imc converts the controller section into an imc.Config
func (c ControllerConfig) Imc() imc.Config {
	return imc.Config{
		Name:             c.Name,
		NumAxes:          c.NumAxes,
		MovingPollPeriod: ms(c.MovingPollMs),
		IdlePollPeriod:   ms(c.IdlePollMs),
		Timeout:          ms(c.TimeoutMs),
		TravelUnit:       ms(c.TravelUnitMs),
	}
}

// Serial converts the controller section into a serial.Config
func (c ControllerConfig) Serial() *serial.Config {
	sc := serial.DefaultConfig(c.Device)
	sc.Baud = c.Baud
	return sc
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
