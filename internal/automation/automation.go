package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bungeesim/internal/config"
	"github.com/san-kum/bungeesim/internal/jump"
)

// Scenario defines a scripted set of jumps. Every step starts from Base
// (or the form defaults) and overrides the named parameters.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        *jump.Inputs   `yaml:"base"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single jump in a scenario
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
	Save   bool               `yaml:"save"`
}

type StepResult struct {
	Step   ScenarioStep
	Result *jump.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Inputs resolves the inputs of every step.
func (sc *Scenario) Inputs() ([]jump.Inputs, error) {
	base := config.DefaultInputs()
	if sc.Base != nil {
		base = *sc.Base
	}

	inputs := make([]jump.Inputs, len(sc.Steps))
	for i, step := range sc.Steps {
		in := base
		names := make([]string, 0, len(step.Params))
		for name := range step.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := SetParam(&in, name, step.Params[name]); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
			}
		}
		inputs[i] = in
	}
	return inputs, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, batch *jump.Batch) ([]StepResult, error) {
	inputs, err := scenario.Inputs()
	if err != nil {
		return nil, err
	}

	results, err := batch.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	out := make([]StepResult, len(results))
	for i, res := range results {
		out[i] = StepResult{Step: scenario.Steps[i], Result: res}
	}
	return out, nil
}

// Params are the names accepted by SetParam.
var Params = []string{"start_height", "duration", "k", "rope_length", "mass", "drag_linear", "drag_quadratic"}

func SetParam(in *jump.Inputs, name string, value float64) error {
	switch name {
	case "start_height":
		in.StartHeight = value
	case "duration":
		in.Duration = value
	case "k":
		in.K = value
	case "rope_length":
		in.RopeLength = value
	case "mass":
		in.Mass = value
	case "drag_linear":
		in.DragLinear = value
	case "drag_quadratic":
		in.DragQuadratic = value
	default:
		return fmt.Errorf("unknown parameter %q (available: %v)", name, Params)
	}
	return nil
}

func GetParam(in jump.Inputs, name string) (float64, error) {
	switch name {
	case "start_height":
		return in.StartHeight, nil
	case "duration":
		return in.Duration, nil
	case "k":
		return in.K, nil
	case "rope_length":
		return in.RopeLength, nil
	case "mass":
		return in.Mass, nil
	case "drag_linear":
		return in.DragLinear, nil
	case "drag_quadratic":
		return in.DragQuadratic, nil
	}
	return 0, fmt.Errorf("unknown parameter %q (available: %v)", name, Params)
}

// ParameterSweep runs jumps across evenly spaced values of one parameter
type ParameterSweep struct {
	Param string
	Min   float64
	Max   float64
	Steps int
	Base  jump.Inputs
}

// SweepResult holds the outcome for one parameter value
type SweepResult struct {
	Value      float64
	Outcome    jump.Outcome
	MinHeight  float64
	ImpactTime float64
}

// Values lists the swept values, Min and Max included.
func (s *ParameterSweep) Values() ([]float64, error) {
	if s.Steps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", s.Steps)
	}
	if s.Steps == 1 {
		return []float64{s.Min}, nil
	}
	step := (s.Max - s.Min) / float64(s.Steps-1)
	values := make([]float64, s.Steps)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	values[s.Steps-1] = s.Max
	return values, nil
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, batch *jump.Batch) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}

	inputs := make([]jump.Inputs, len(values))
	for i, v := range values {
		in := sweep.Base
		if err := SetParam(&in, sweep.Param, v); err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	results, err := batch.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, res := range results {
		out[i] = SweepResult{
			Value:      values[i],
			Outcome:    res.Outcome,
			MinHeight:  res.Metrics["min_height"],
			ImpactTime: res.ImpactTime,
		}
	}
	return out, nil
}

// MonteCarloConfig perturbs the named parameters of Base by a uniform
// relative amount in [-Perturbation, +Perturbation].
type MonteCarloConfig struct {
	Base         jump.Inputs
	Params       []string
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds one perturbed jump
type MonteCarloResult struct {
	TrialID int
	Inputs  jump.Inputs
	Outcome jump.Outcome
}

// RunMonteCarlo executes multiple trials with random perturbations
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, batch *jump.Batch) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}

	params := cfg.Params
	if len(params) == 0 {
		params = []string{"k", "rope_length", "mass"}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	inputs := make([]jump.Inputs, cfg.NumTrials)
	for trial := range inputs {
		in := cfg.Base
		for _, name := range params {
			v, err := GetParam(in, name)
			if err != nil {
				return nil, err
			}
			v *= 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			if err := SetParam(&in, name, v); err != nil {
				return nil, err
			}
		}
		inputs[trial] = in
	}

	results, err := batch.Run(ctx, inputs)
	if err != nil {
		return nil, err
	}

	out := make([]MonteCarloResult, len(results))
	for i, res := range results {
		out[i] = MonteCarloResult{TrialID: i, Inputs: inputs[i], Outcome: res.Outcome}
	}
	return out, nil
}

// MonteCarloStats counts trials per outcome
func MonteCarloStats(results []MonteCarloResult) map[jump.Outcome]int {
	counts := make(map[jump.Outcome]int)
	for _, r := range results {
		counts[r.Outcome]++
	}
	return counts
}
