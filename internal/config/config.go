package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bungeesim/internal/dynamo"
	"github.com/san-kum/bungeesim/internal/jump"
)

// Form defaults of the jump parameters.
const (
	DefaultStartHeight   = 80.0
	DefaultDuration      = 20.0
	DefaultK             = 150.0
	DefaultRopeLength    = 50.0
	DefaultMass          = 100.0
	DefaultDragLinear    = 1.0
	DefaultDragQuadratic = 1.0
)

const (
	DefaultIntegrator = "rk45"
	DefaultDataDir    = ".bungeesim"
	DefaultImageDir   = "static"
	DefaultWidthIn    = 10.0
	DefaultHeightIn   = 5.0
	DefaultLogLevel   = "info"
	DefaultAddr       = ":8080"
)

type Config struct {
	Jump    jump.Inputs   `yaml:"jump"`
	Solver  SolverConfig  `yaml:"solver"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

type SolverConfig struct {
	Integrator string  `yaml:"integrator"`
	RelTol     float64 `yaml:"rel_tol"`
	AbsTol     float64 `yaml:"abs_tol"`
	MinStep    float64 `yaml:"min_step"`
	MaxSteps   int     `yaml:"max_steps"`
	Substeps   int     `yaml:"substeps"`
}

type OutputConfig struct {
	DataDir  string  `yaml:"data_dir"`
	ImageDir string  `yaml:"image_dir"`
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultInputs() jump.Inputs {
	return jump.Inputs{
		StartHeight:   DefaultStartHeight,
		Duration:      DefaultDuration,
		K:             DefaultK,
		RopeLength:    DefaultRopeLength,
		Mass:          DefaultMass,
		DragLinear:    DefaultDragLinear,
		DragQuadratic: DefaultDragQuadratic,
	}
}

func DefaultConfig() *Config {
	def := dynamo.DefaultSolverOptions()
	return &Config{
		Jump: DefaultInputs(),
		Solver: SolverConfig{
			Integrator: DefaultIntegrator,
			RelTol:     def.Tolerance.Rel,
			AbsTol:     def.Tolerance.Abs,
			MinStep:    def.MinStep,
			MaxSteps:   def.MaxSteps,
			Substeps:   def.Substeps,
		},
		Output: OutputConfig{
			DataDir:  DefaultDataDir,
			ImageDir: DefaultImageDir,
			WidthIn:  DefaultWidthIn,
			HeightIn: DefaultHeightIn,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
		Server:  ServerConfig{Addr: DefaultAddr},
	}
}

// Load reads a YAML file on top of the defaults, so a file only needs the
// keys it changes.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := Overlay(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay reads a YAML file on top of cfg. Keys missing from the file keep
// their current values.
func Overlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Inputs() jump.Inputs {
	return c.Jump
}

// SolverOptions converts the solver section. Zero values fall back to the
// solver defaults when the solver is built.
func (c *Config) SolverOptions() dynamo.SolverOptions {
	return dynamo.SolverOptions{
		Tolerance: dynamo.Tolerance{Rel: c.Solver.RelTol, Abs: c.Solver.AbsTol},
		MinStep:   c.Solver.MinStep,
		MaxSteps:  c.Solver.MaxSteps,
		Substeps:  c.Solver.Substeps,
	}
}
