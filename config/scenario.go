package config

import (
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Scenario is the top-level YAML document: a GameConfig plus the map it
// applies to, grounded on the teacher's FromYaml OuterConfig/inner-config
// split (viper reads the file; yaml.v3 re-marshals the generic result
// into this strongly-typed struct). Only ScenarioGame's scalar fields and
// the map are loaded; GameConfig's map- and handler-valued fields are not.
type Scenario struct {
	Game ScenarioGame `yaml:"game"`
	Map  [][]string   `yaml:"map"`
}

// ScenarioGame is the YAML-shaped mirror of GameConfig's scalar fields;
// the richer nested structures (objects, events, queries) are filled in
// by the caller after loading, the same way a host driver supplies
// Go-native handler/filter/mutation trees that YAML cannot express.
type ScenarioGame struct {
	NumAgents            int  `yaml:"num_agents"`
	ObsHeight            int  `yaml:"obs_height"`
	ObsWidth             int  `yaml:"obs_width"`
	MaxSteps             int  `yaml:"max_steps"`
	EpisodeTruncates     bool `yaml:"episode_truncates"`
	NumObservationTokens int  `yaml:"num_observation_tokens"`
	TokenValueBase       int  `yaml:"token_value_base"`
}

// LoadScenario reads a YAML scenario file via viper (for config-path
// resolution) and re-marshals it into Scenario via yaml.v3, mirroring the
// teacher's reinforcement.FromYaml two-step load.
func LoadScenario(path string) (*Scenario, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	raw := map[string]any{}
	if err := vp.Unmarshal(&raw); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}

	scenario := &Scenario{}
	if err := yaml.Unmarshal(spec, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}
