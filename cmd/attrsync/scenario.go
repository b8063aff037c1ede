package main

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/attrsync/internal/config"
	"github.com/vango-dev/attrsync/internal/errors"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Scenario is a scripted sequence of desired states for one element.
//
//	tag: input
//	strategies:
//	  aria-pressed: boolean
//	steps:
//	  - attrs: {id: a, class: foo, disabled: null}
//	  - name: user types
//	    focus: true
//	    attrs: {value: typed}
//	  - blur: true
//	    addClass: [touched]
//	    attrs: {value: typed, class: foo bar}
type Scenario struct {
	Tag        string            `yaml:"tag"`
	Strategies map[string]string `yaml:"strategies"`
	Steps      []Step            `yaml:"steps"`
}

// Step changes client-side state, then optionally reconciles.
type Step struct {
	Name string `yaml:"name"`

	// Focus and Blur move focus before the update.
	Focus bool `yaml:"focus"`
	Blur  bool `yaml:"blur"`

	// AddClass and RemoveClass edit the live class list the way client code
	// would, without going through the reconciler.
	AddClass    []string `yaml:"addClass"`
	RemoveClass []string `yaml:"removeClass"`

	// Attrs is the desired state. An omitted attrs key skips the update;
	// an empty map removes everything.
	Attrs map[string]any `yaml:"attrs"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").WithDetail(err.Error()).Wrap(err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML. Unknown keys are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.New("E141").WithDetail(err.Error()).Wrap(err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario structure. Attribute values are left for
// the reconciler to judge.
func (sc *Scenario) Validate() error {
	if sc.Tag == "" {
		return errors.New("E141").WithDetail("missing tag")
	}
	if len(sc.Steps) == 0 {
		return errors.New("E141").WithDetail("no steps")
	}
	for name, kind := range sc.Strategies {
		if _, err := config.ParseKind(kind); err != nil {
			return err.WithAttribute(name)
		}
	}
	for i, step := range sc.Steps {
		if step.Focus && step.Blur {
			return errors.New("E141").WithDetailf("step %d both focuses and blurs", i+1)
		}
	}
	return nil
}

// Options returns reconciler options for the scenario's strategy pins.
func (sc *Scenario) Options() []reconcile.Option {
	var opts []reconcile.Option
	for name, kind := range sc.Strategies {
		k, _ := config.ParseKind(kind)
		opts = append(opts, reconcile.WithStrategy(name, k))
	}
	return opts
}
