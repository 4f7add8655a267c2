// Package plant provides simulated systems for the engine to lock.
package plant

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/engine"
	"github.com/san-kum/lockbox/internal/fixed"
)

var (
	ErrUnknownPlant = errors.New("plant: unknown plant")
	ErrBadParam     = errors.New("plant: bad parameter")
)

var constructors = map[string]func(config.PlantConfig, int64) (engine.Plant, error){
	"lag": func(c config.PlantConfig, seed int64) (engine.Plant, error) {
		return NewLag(c, seed)
	},
	"cavity": func(c config.PlantConfig, seed int64) (engine.Plant, error) {
		return NewCavity(c, seed)
	},
}

// New builds the named plant.
func New(name string, cfg config.PlantConfig, seed int64) (engine.Plant, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlant, name)
	}
	return ctor(cfg, seed)
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// toSample rounds v and pins it to the ADC range.
func toSample(v float64) fixed.Sample {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= fixed.SampleMax:
		return fixed.SampleMax
	case v <= fixed.SampleMin:
		return fixed.SampleMin
	}
	return fixed.Sample(math.Round(v))
}
