// Package config loads jpp settings from YAML with environment overrides.
//
// Precedence, lowest first: Default(), the YAML file, environment variables
// (HOST, PORT, GRPC_PORT, JPP_PROGRAMS_DIR), then command-line flags applied by the
// caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/runtime"
	"github.com/lemonberrylabs/jpp/pkg/semantic"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "JPP_CONFIG"

// Config is the full configuration.
type Config struct {
	Checker     CheckerConfig     `yaml:"checker"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Server      ServerConfig      `yaml:"server"`
}

// CheckerConfig configures the semantic checker.
type CheckerConfig struct {
	ReportTypeMismatch bool `yaml:"report_type_mismatch"`
}

// InterpreterConfig configures the interpreter.
type InterpreterConfig struct {
	PopBlockScopes bool `yaml:"pop_block_scopes"`
	MaxCallDepth   int  `yaml:"max_call_depth"`
}

// ServerConfig configures `jpp serve`.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        string        `yaml:"port"`
	GRPCPort    string        `yaml:"grpc_port"`
	ProgramsDir string        `yaml:"programs_dir"`
	RunTimeout  time.Duration `yaml:"run_timeout"`
	AccessLog   bool          `yaml:"access_log"`
}

// Default returns a working configuration.
func Default() *Config {
	return &Config{
		Checker: CheckerConfig{ReportTypeMismatch: true},
		Interpreter: InterpreterConfig{
			PopBlockScopes: true,
			MaxCallDepth:   runtime.DefaultMaxCallDepth,
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       "8787",
			GRPCPort:   "8788",
			RunTimeout: 10 * time.Second,
			AccessLog:  true,
		},
	}
}

// Load reads the file at path, or at $JPP_CONFIG when path is empty, on
// top of the defaults and then applies environment overrides. With no file
// at all it returns the defaults with overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides server settings from HOST, PORT, GRPC_PORT and
// JPP_PROGRAMS_DIR.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("GRPC_PORT"); v != "" {
		c.Server.GRPCPort = v
	}
	if v := os.Getenv("JPP_PROGRAMS_DIR"); v != "" {
		c.Server.ProgramsDir = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Interpreter.MaxCallDepth < 0 {
		return fmt.Errorf("interpreter.max_call_depth must not be negative, got %d", c.Interpreter.MaxCallDepth)
	}
	if c.Server.RunTimeout < 0 {
		return fmt.Errorf("server.run_timeout must not be negative, got %s", c.Server.RunTimeout)
	}
	if !validPort(c.Server.Port) {
		return fmt.Errorf("server.port must be a port number, got %q", c.Server.Port)
	}
	if !validPort(c.Server.GRPCPort) {
		return fmt.Errorf("server.grpc_port must be a port number, got %q", c.Server.GRPCPort)
	}
	return nil
}

func validPort(s string) bool {
	p, err := strconv.Atoi(s)
	return err == nil && p >= 0 && p <= 65535
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.GRPCPort)
}

// PipelineOptions converts the checker and interpreter settings.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Checker: semantic.Options{ReportTypeMismatch: c.Checker.ReportTypeMismatch},
		Interpreter: runtime.Options{
			PopBlockScopes: c.Interpreter.PopBlockScopes,
			MaxCallDepth:   c.Interpreter.MaxCallDepth,
		},
	}
}
