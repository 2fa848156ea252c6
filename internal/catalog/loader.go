package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"apogeecore/pkg/domain"
)

// LoadMotorSpec decodes a stored motor description into a validated
// MotorSpec. Unknown fields are rejected so typos in hand-edited documents
// surface at the load boundary rather than as silent physics changes. Missing
// config values are filled from the defaults.
func LoadMotorSpec(r io.Reader) (domain.MotorSpec, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var spec domain.MotorSpec
	if err := dec.Decode(&spec); err != nil {
		return domain.MotorSpec{}, fmt.Errorf("decode motor spec: %w", err)
	}
	spec.Config = withConfigDefaults(spec.Config)
	if err := spec.Validate(); err != nil {
		return domain.MotorSpec{}, err
	}
	return spec, nil
}

// LoadMotorSpecFile reads and decodes a motor description file.
func LoadMotorSpecFile(path string) (domain.MotorSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.MotorSpec{}, fmt.Errorf("open motor spec: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadMotorSpec(f)
}

func withConfigDefaults(cfg domain.MotorConfig) domain.MotorConfig {
	def := domain.DefaultMotorConfig()
	if cfg.AmbientPressure <= 0 {
		cfg.AmbientPressure = def.AmbientPressure
	}
	if cfg.Timestep <= 0 {
		cfg.Timestep = def.Timestep
	}
	if cfg.MaxPressure <= 0 {
		cfg.MaxPressure = def.MaxPressure
	}
	if cfg.BurnoutWebThreshold <= 0 {
		cfg.BurnoutWebThreshold = def.BurnoutWebThreshold
	}
	if cfg.BurnoutThrustThreshold <= 0 {
		cfg.BurnoutThrustThreshold = def.BurnoutThrustThreshold
	}
	if cfg.MinPortThroatRatio <= 0 {
		cfg.MinPortThroatRatio = def.MinPortThroatRatio
	}
	return cfg
}
