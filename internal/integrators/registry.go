package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/bungeesim/internal/dynamo"
)

// Default is the integrator used when none is configured.
const Default = "rk45"

var registry = map[string]func() dynamo.Integrator{
	"rk45": func() dynamo.Integrator { return NewRK45() },
	"rk4":  func() dynamo.Integrator { return NewRK4() },
}

// Factory returns a constructor for the named integrator.
func Factory(name string) (func() dynamo.Integrator, error) {
	if name == "" {
		name = Default
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
