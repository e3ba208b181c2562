// Package config loads the configuration of the ndstream command from a YAML
// file, with environment variables taking precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/RobertWHurst/ndstream"
)

const (
	TransportKafka = "kafka"
	TransportNATS  = "nats"

	EncodingFlatbuffer = "flatbuffer"
	EncodingMsgpack    = "msgpack"
	EncodingJSON       = "json"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NDSTREAM"

var (
	transports = []string{TransportKafka, TransportNATS}
	encodings  = []string{EncodingFlatbuffer, EncodingMsgpack, EncodingJSON}
)

// Config is the complete configuration of one ndstream process.
type Config struct {
	PortName   string            `yaml:"portName"`
	SourceName string            `yaml:"sourceName"`
	Transport  string            `yaml:"transport"`
	Encoding   string            `yaml:"encoding"`
	LogLevel   string            `yaml:"logLevel"`
	QueueSize  int               `yaml:"queueSize"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Producer   ndstream.Settings `yaml:"producer"`

	// Kafka holds extra librdkafka properties, applied before the ones
	// derived from Producer.
	Kafka map[string]string `yaml:"kafka"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// Default returns the configuration used for anything a file or the
// environment does not set.
func Default() *Config {
	return &Config{
		PortName:   "NDS1",
		SourceName: "ndstream",
		Transport:  TransportKafka,
		Encoding:   EncodingFlatbuffer,
		LogLevel:   zerolog.LevelInfoValue,
		Metrics:    MetricsConfig{Path: "/metrics"},
		Producer:   ndstream.DefaultSettings(),
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further overrides
// of their own before validating.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if val := os.Getenv(EnvPrefix + "_BROKER"); val != "" {
		c.Producer.Broker = val
	}
	if val := os.Getenv(EnvPrefix + "_TOPIC"); val != "" {
		c.Producer.Topic = val
	}
	if val := os.Getenv(EnvPrefix + "_SOURCE_NAME"); val != "" {
		c.SourceName = val
	}
	if val := os.Getenv(EnvPrefix + "_TRANSPORT"); val != "" {
		c.Transport = val
	}
	if val := os.Getenv(EnvPrefix + "_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if c.PortName == "" {
		errs = append(errs, errors.New("portName is required"))
	}
	if c.SourceName == "" {
		errs = append(errs, errors.New("sourceName is required"))
	}
	if !slices.Contains(transports, c.Transport) {
		errs = append(errs, fmt.Errorf("transport %q is not one of %v", c.Transport, transports))
	}
	if !slices.Contains(encodings, c.Encoding) {
		errs = append(errs, fmt.Errorf("encoding %q is not one of %v", c.Encoding, encodings))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queueSize %d is negative", c.QueueSize))
	}
	if c.Producer.Broker == "" {
		errs = append(errs, errors.New("producer.broker is required"))
	}
	if c.Producer.Topic == "" {
		errs = append(errs, errors.New("producer.topic is required"))
	}
	if err := c.Producer.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ndstream.ErrInvalidConfig, errors.Join(errs...))
}

// Level returns the parsed log level, info when it does not parse.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
