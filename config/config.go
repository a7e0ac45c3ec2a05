// Package config loads the robot's YAML configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the complete robot configuration
type Config struct {
	TicksPerSecond float64      `yaml:"ticks_per_second"`
	Serial         SerialConfig `yaml:"serial"`
	Log            LogConfig    `yaml:"log"`
	GPIO           GPIOConfig   `yaml:"gpio"`
	Drive          DriveConfig  `yaml:"drive"`
	Pixels         PixelsConfig `yaml:"pixels"`
}

// SerialConfig describes the remote-control UART
type SerialConfig struct {
	Device          string `yaml:"device"`
	Baud            int    `yaml:"baud"`
	ReadTimeoutMs   int    `yaml:"read_timeout_ms"`
	RetryIntervalMs int    `yaml:"retry_interval_ms"`
	MaxRetries      int    `yaml:"max_retries"` // attempts per backoff round
}

// LogConfig controls log level and optional rotated file output
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// GPIOConfig maps board inputs and motor outputs to GPIO numbers. A
// negative number leaves the input or motor unwired.
type GPIOConfig struct {
	ButtonA     int `yaml:"button_a"`
	ButtonB     int `yaml:"button_b"`
	Switch      int `yaml:"switch"`
	LeftMotorA  int `yaml:"left_motor_a"`
	LeftMotorB  int `yaml:"left_motor_b"`
	RightMotorA int `yaml:"right_motor_a"`
	RightMotorB int `yaml:"right_motor_b"`
}

// DriveConfig holds throttle settings for the drivetrain
type DriveConfig struct {
	Forward   float64    `yaml:"forward"`
	Reverse   float64    `yaml:"reverse"`
	TurnRatio float64    `yaml:"turn_ratio"`
	Ramp      RampConfig `yaml:"ramp"`
}

// RampConfig holds PID gains for easing motors toward their target throttle
type RampConfig struct {
	Enabled bool    `yaml:"enabled"`
	Kp      float64 `yaml:"kp"`
	Ki      float64 `yaml:"ki"`
	Kd      float64 `yaml:"kd"`
}

// PixelsConfig describes the NeoPixel ring animation
type PixelsConfig struct {
	Count           int     `yaml:"count"`
	PixelsPerSecond float64 `yaml:"pixels_per_second"`
}

// LoadConfig parses YAML configuration over the defaults
func LoadConfig(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML configuration file
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return LoadConfig(data)
}

// Default returns the built-in configuration
func Default() *Config {
	var cfg Config
	cfg.GPIO = GPIOConfig{
		ButtonA:     -1,
		ButtonB:     -1,
		Switch:      -1,
		LeftMotorA:  -1,
		LeftMotorB:  -1,
		RightMotorA: -1,
		RightMotorB: -1,
	}
	// Zero is a meaningful throttle or speed, so these are only seeded here
	// and never re-defaulted after parsing.
	cfg.Drive = DriveConfig{
		Forward:   -1.0,
		Reverse:   0.7,
		TurnRatio: 0.5,
		Ramp:      RampConfig{Kp: 0.5},
	}
	cfg.Pixels.PixelsPerSecond = 3
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in zero values for settings where zero cannot be
// meant. GPIO numbers are left alone since zero is a valid pin.
func (c *Config) applyDefaults() {
	if c.TicksPerSecond == 0 {
		c.TicksPerSecond = 30
	}

	if c.Serial.Baud == 0 {
		c.Serial.Baud = 9600
	}
	if c.Serial.ReadTimeoutMs == 0 {
		c.Serial.ReadTimeoutMs = 100
	}
	if c.Serial.RetryIntervalMs == 0 {
		c.Serial.RetryIntervalMs = 1000
	}
	if c.Serial.MaxRetries == 0 {
		c.Serial.MaxRetries = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}

	if c.Pixels.Count == 0 {
		c.Pixels.Count = 10
	}
}

// Validate rejects settings the robot cannot run with
func (c *Config) Validate() error {
	if c.TicksPerSecond <= 0 {
		return errors.New("ticks_per_second must be positive")
	}
	if c.Serial.Baud <= 0 {
		return errors.New("serial.baud must be positive")
	}
	if c.Serial.MaxRetries < 0 {
		return errors.New("serial.max_retries cannot be negative")
	}
	if c.Pixels.Count <= 0 {
		return errors.New("pixels.count must be positive")
	}
	if c.Drive.TurnRatio < 0 || c.Drive.TurnRatio > 1 {
		return fmt.Errorf("drive.turn_ratio %v out of range [0, 1]", c.Drive.TurnRatio)
	}
	return nil
}

// ReadTimeout returns the serial read timeout
func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// RetryInterval returns the base interval between connection attempts
func (s SerialConfig) RetryInterval() time.Duration {
	return time.Duration(s.RetryIntervalMs) * time.Millisecond
}
