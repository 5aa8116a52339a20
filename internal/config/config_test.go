package config

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/san-kum/bungeesim/internal/jump"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Jump.StartHeight != 80 {
		t.Errorf("expected start height 80, got %f", cfg.Jump.StartHeight)
	}
	if cfg.Jump.K != 150 || cfg.Jump.RopeLength != 50 || cfg.Jump.Mass != 100 {
		t.Errorf("unexpected jump defaults: %+v", cfg.Jump)
	}
	if cfg.Jump.DragLinear != 1 || cfg.Jump.DragQuadratic != 1 {
		t.Errorf("expected unit drag, got %+v", cfg.Jump)
	}
	if cfg.Solver.Integrator != "rk45" {
		t.Errorf("expected integrator rk45, got %s", cfg.Solver.Integrator)
	}
	if cfg.Solver.RelTol <= 0 || cfg.Solver.AbsTol <= 0 {
		t.Error("tolerances should be positive")
	}
	if cfg.Server.Addr == "" {
		t.Error("server address should be set")
	}
}

func TestSolverOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Solver.RelTol = 1e-4
	cfg.Solver.MaxSteps = 42

	opts := cfg.SolverOptions()
	if opts.Tolerance.Rel != 1e-4 {
		t.Errorf("expected rel tol 1e-4, got %g", opts.Tolerance.Rel)
	}
	if opts.MaxSteps != 42 {
		t.Errorf("expected max steps 42, got %d", opts.MaxSteps)
	}
	if opts.Substeps != cfg.Solver.Substeps {
		t.Errorf("expected substeps %d, got %d", cfg.Solver.Substeps, opts.Substeps)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bungee.yaml")

	cfg := DefaultConfig()
	cfg.Jump.K = 90
	cfg.Solver.Integrator = "rk4"
	cfg.Logging.Level = "debug"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "jump:\n  k: 60\n  rope_length: 30\nserver:\n  addr: 127.0.0.1:9000\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Jump.K != 60 || cfg.Jump.RopeLength != 30 {
		t.Errorf("file values not applied: %+v", cfg.Jump)
	}
	if cfg.Jump.StartHeight != DefaultStartHeight || cfg.Jump.Mass != DefaultMass {
		t.Errorf("defaults lost: %+v", cfg.Jump)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr 127.0.0.1:9000, got %s", cfg.Server.Addr)
	}
	if cfg.Solver.Integrator != DefaultIntegrator {
		t.Errorf("expected default integrator, got %s", cfg.Solver.Integrator)
	}
}

func TestOverlay_OnPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mass.yaml")
	if err := os.WriteFile(path, []byte("jump:\n  mass: 70\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("slack_rope")
	if err := Overlay(cfg, path); err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	if cfg.Jump.Mass != 70 {
		t.Errorf("expected mass 70, got %g", cfg.Jump.Mass)
	}
	if cfg.Jump.K != 5 || cfg.Jump.RopeLength != 5 {
		t.Errorf("preset values lost: %+v", cfg.Jump)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("jump: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("slack_rope")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Jump.K != 5 {
		t.Errorf("expected k 5, got %f", cfg.Jump.K)
	}
	if cfg.Solver.Integrator != DefaultIntegrator {
		t.Errorf("preset should keep default solver settings, got %+v", cfg.Solver)
	}

	cfg.Jump.K = 1000
	if Presets["slack_rope"].Jump.K != 5 {
		t.Error("modifying a preset config changed the preset table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	if !sort.StringsAreSorted(presets) {
		t.Errorf("expected sorted names, got %v", presets)
	}
}

func TestPresetOutcomes(t *testing.T) {
	tests := []struct {
		preset   string
		expected jump.Outcome
	}{
		{"safe", jump.Safe},
		{"feather", jump.Safe},
		{"weak_spring", jump.GroundImpactWeakSpring},
		{"slack_rope", jump.GroundImpactSlackRope},
		{"taut_start", jump.GroundImpactSlackRope},
	}

	for _, tt := range tests {
		res, err := jump.Simulate(context.Background(), GetPreset(tt.preset).Inputs())
		if err != nil {
			t.Fatalf("%s: %v", tt.preset, err)
		}
		if res.Outcome != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.preset, tt.expected, res.Outcome)
		}
	}
}
