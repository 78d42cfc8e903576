package pumper

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Configs contain multiple configurations keyed by pipeline name.
type Configs map[string]Config

// Config details for a single pipeline.
type Config struct {
	Sources      []map[string]interface{} `yaml:"sources"`
	Destinations []map[string]interface{} `yaml:"destinations"`
	Processors   []Stage                  `yaml:"processors"`
}

// Stage holds the stage order and Step definitions.
type Stage struct {
	Stage int    `yaml:"stage"`
	Steps []Step `yaml:"steps"`
}

// Step holds the processing instructions.
type Step struct {
	Step     int                    `yaml:"step"`
	Workflow map[string]interface{} `yaml:"workflow"`
}

// ConfigFromFile loads and returns Configs from a local file.
func ConfigFromFile(path string) (Configs, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Configs{}, errors.Wrap(err, "unable to read config")
	}
	return ParseConfig(b)
}

// ParseConfig decodes Configs from yaml, rejecting unknown fields.
func ParseConfig(b []byte) (Configs, error) {
	cfgs := Configs{}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfgs); err != nil && err != io.EOF {
		return Configs{}, errors.Wrap(err, "invalid config")
	}
	for name, c := range cfgs {
		switch {
		case len(c.Sources) < 1:
			return Configs{}, errors.Errorf("pipeline %s has no sources", name)
		case len(c.Destinations) < 1:
			return Configs{}, errors.Errorf("pipeline %s has no destinations", name)
		}
	}
	return cfgs, nil
}
