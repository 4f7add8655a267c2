package automation

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/lockbox/internal/config"
	"github.com/san-kum/lockbox/internal/logger"
	"gopkg.in/yaml.v3"
)

var log = logger.New("automation")

// Scenario is a scripted sequence of parameter writes
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Writes      []Write `yaml:"writes"`

	next int
	last uint64
}

// Write sets one parameter before the given tick runs
type Write struct {
	Tick    uint64 `yaml:"tick"`
	Channel int    `yaml:"channel"`
	Name    string `yaml:"name"`
	Value   int64  `yaml:"value"`
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
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	scenario.sort()
	return &scenario, nil
}

// Validate checks parameter names and channels without touching a store.
func (s *Scenario) Validate() error {
	for i, w := range s.Writes {
		n := config.Channels(w.Name)
		if n == 0 {
			return fmt.Errorf("write %d: %q: %w", i+1, w.Name, config.ErrUnknownParameter)
		}
		if w.Channel < 0 || w.Channel >= n {
			return fmt.Errorf("write %d: %s[%d]: %w", i+1, w.Name, w.Channel, config.ErrInvalidChannel)
		}
	}
	return nil
}

func (s *Scenario) sort() {
	sort.SliceStable(s.Writes, func(i, j int) bool { return s.Writes[i].Tick < s.Writes[j].Tick })
}

// BeforeTick applies every write scheduled at or before tick that has not
// run yet. A tick counter that goes backwards restarts the scenario.
func (s *Scenario) BeforeTick(tick uint64, store *config.Store) error {
	if tick < s.last {
		s.next = 0
	}
	s.last = tick
	if s.next == 0 {
		s.sort()
	}
	for s.next < len(s.Writes) && s.Writes[s.next].Tick <= tick {
		w := s.Writes[s.next]
		s.next++
		if err := store.Set(w.Channel, w.Name, w.Value); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		log.Debug("tick %d: %s[%d]=%d", tick, w.Name, w.Channel, w.Value)
	}
	return nil
}
