// Package config resolves the engine's configuration from either a YAML
// file or the flat property map the embedding API accepts, validating
// the result before any engine state is built.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gokando/tempnet/internal/engine"
)

// Config is the typed form of the property map: every recognised key has
// a field here, and unknown keys fail FromMap rather than being silently
// dropped.
type Config struct {
	AllowViolations       bool   `yaml:"allowViolations"`
	UseTemporalPropagator bool   `yaml:"useTemporalPropagator"`
	PriorityPreference    string `yaml:"priorityPreference" validate:"oneof=HIGH LOW"`
	MaxChoices            int    `yaml:"maxChoices" validate:"gte=0"`

	// AllowPushBeyondHorizon enables the push-beyond-horizon resource
	// choice; off by default because an unbounded horizon makes the
	// choice meaningless.
	AllowPushBeyondHorizon bool `yaml:"allowPushBeyondHorizon"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig controls the prometheus instrumentation; when disabled
// the telemetry package returns a no-op collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration the engine assumes when given
// nothing: strict propagation, temporal propagation on, HIGH priority
// preference, no choice cap.
func Default() Config {
	return Config{
		UseTemporalPropagator: true,
		PriorityPreference:    "HIGH",
		Metrics:               MetricsConfig{Namespace: "tempnet"},
	}
}

var validate = validator.New()

// Load reads a YAML configuration file, layering it over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: reading %s: %v", engine.ErrConfigError, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", engine.ErrConfigError, path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", engine.ErrConfigError, err)
	}
	return cfg, nil
}

// FromMap builds a Config from the flat property map the public API
// accepts. Recognised keys follow the original dotted naming
// ("ConstraintEngine.allowViolations", etc.); an unknown key or an
// unparseable value is a configuration error.
func FromMap(props map[string]string) (Config, error) {
	cfg := Default()
	for key, raw := range props {
		switch key {
		case "ConstraintEngine.allowViolations":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s: %v", engine.ErrConfigError, key, err)
			}
			cfg.AllowViolations = b
		case "TemporalNetwork.useTemporalPropagator":
			// The original accepts "N" (and only "N") to disable.
			cfg.UseTemporalPropagator = raw != "N"
		case "PriorityPreference":
			cfg.PriorityPreference = raw
		case "MaxChoices":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s: %v", engine.ErrConfigError, key, err)
			}
			cfg.MaxChoices = n
		case "Resource.allowPushBeyondHorizon":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s: %v", engine.ErrConfigError, key, err)
			}
			cfg.AllowPushBeyondHorizon = b
		default:
			return cfg, fmt.Errorf("%w: unrecognised property %q", engine.ErrConfigError, key)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", engine.ErrConfigError, err)
	}
	return cfg, nil
}

// Engine projects this configuration down to the fields the constraint
// engine itself consumes.
func (c Config) Engine() engine.Config {
	return engine.Config{
		AllowViolations:        c.AllowViolations,
		UseTemporalPropagator:  c.UseTemporalPropagator,
		PriorityPreference:     c.PriorityPreference,
		MaxChoices:             c.MaxChoices,
		AllowPushBeyondHorizon: c.AllowPushBeyondHorizon,
	}
}
