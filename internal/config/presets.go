package config

import (
	"sort"

	"github.com/san-kum/bungeesim/internal/jump"
)

type Preset struct {
	Description string
	Jump        jump.Inputs
}

var Presets = map[string]Preset{
	"safe": {
		Description: "rope and spring stop the jumper well above the ground",
		Jump:        jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 50, Mass: 100, DragLinear: 1, DragQuadratic: 1},
	},
	"weak_spring": {
		Description: "rope engages early but the spring is too soft",
		Jump:        jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 60, Mass: 100, DragLinear: 1, DragQuadratic: 1},
	},
	"slack_rope": {
		Description: "rope too long to ever lift the jumper off the ground",
		Jump:        jump.Inputs{StartHeight: 80, Duration: 20, K: 5, RopeLength: 5, Mass: 100, DragLinear: 1, DragQuadratic: 1},
	},
	"taut_start": {
		Description: "rope longer than the drop",
		Jump:        jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 100, Mass: 100, DragLinear: 1, DragQuadratic: 1},
	},
	"feather": {
		Description: "light jumper on a stiff rope",
		Jump:        jump.Inputs{StartHeight: 80, Duration: 20, K: 150, RopeLength: 40, Mass: 50, DragLinear: 1, DragQuadratic: 1},
	},
}

// GetPreset returns the default configuration with the preset's jump
// parameters, or nil for an unknown name.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Jump = p.Jump
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
