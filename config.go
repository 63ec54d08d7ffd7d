package venom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the engine options.
type Config struct {
	Name           string            `yaml:"name"`
	UserAgent      string            `yaml:"user_agent"`
	Delay          time.Duration     `yaml:"delay"`
	Timeout        time.Duration     `yaml:"timeout"`
	AllowedDomains []string          `yaml:"allowed_domains"`
	Headers        map[string]string `yaml:"headers"`
	Auth           *AuthConfig       `yaml:"auth"`
	Log            LogConfig         `yaml:"log"`
}

type LogConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
}

type fileReader interface {
	ReadFile(name string) ([]byte, error)
}

// DecodeConfigFile decodes the YAML file at path into out. Unknown keys are rejected.
func DecodeConfigFile(path string, out interface{}) error {
	return decodeConfigFile(FileSystem{}, path, out)
}

func decodeConfigFile(fs fileReader, path string, out interface{}) error {
	data, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	c := &Config{}
	if err := DecodeConfigFile(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Logger() (*DefaultLogger, error) {
	consoleLevel, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	fileLevel, err := ParseLogLevel(getOrDefault(&c.Log.FileLevel, c.Log.Level))
	if err != nil {
		return nil, err
	}

	return NewLogger(LoggerConfig{
		ID:           "venom",
		Name:         getOrDefault(&c.Name, "venom"),
		ConsoleLevel: consoleLevel,
		FileLevel:    fileLevel,
		LogDir:       c.Log.Dir,
	})
}

// Options converts the file settings; zero values keep the engine defaults.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	if c.UserAgent != "" {
		opts = append(opts, UserAgent(c.UserAgent))
	}
	if c.Delay != 0 {
		opts = append(opts, Delay(c.Delay))
	}
	if c.Timeout != 0 {
		opts = append(opts, Timeout(c.Timeout))
	}
	if len(c.AllowedDomains) > 0 {
		opts = append(opts, AllowedDomains(c.AllowedDomains...))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, Headers(c.Headers))
	}
	if c.Auth != nil {
		opts = append(opts, Auth(*c.Auth))
	}
	return opts
}
