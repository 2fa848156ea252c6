// Package domain defines the immutable value types, result records, and
// error taxonomy shared by the apogeecore simulation and search subsystems.
package domain

import "math"

// Physical constants used across the combustion relations.
const (
	// UniversalGasConstant is R in J/(mol*K).
	UniversalGasConstant = 8.31446
	// StandardGravity is g0 in m/s^2, used for specific impulse.
	StandardGravity = 9.80665
)

// PropellantTab holds the burn-rate law coefficients and gas properties valid
// over one chamber-pressure range. Tabs are immutable once constructed.
type PropellantTab struct {
	// BurnRateCoef is `a` in r = a*P^n, with P in Pa and r in m/s.
	BurnRateCoef float64 `json:"burn_rate_coef"`
	// BurnRateExp is `n` in r = a*P^n.
	BurnRateExp float64 `json:"burn_rate_exp"`
	// SpecificHeatRatio is k, the ratio of specific heats of the exhaust.
	SpecificHeatRatio float64 `json:"specific_heat_ratio"`
	// MolarMass of the exhaust gas in kg/mol.
	MolarMass float64 `json:"molar_mass"`
	// CombustionTemp is the adiabatic flame temperature in K.
	CombustionTemp float64 `json:"combustion_temp"`
	// MinPressure and MaxPressure bound the valid chamber pressure range in Pa.
	MinPressure float64 `json:"min_pressure"`
	MaxPressure float64 `json:"max_pressure"`
}

// Contains reports whether the tab's pressure range covers p.
func (t PropellantTab) Contains(p float64) bool {
	return p >= t.MinPressure && p <= t.MaxPressure
}

// CharacteristicVelocity returns c* for the tab's gas properties.
func (t PropellantTab) CharacteristicVelocity() float64 {
	k := t.SpecificHeatRatio
	rs := UniversalGasConstant / t.MolarMass
	gamma := k * math.Sqrt(math.Pow(2/(k+1), (k+1)/(k-1)))
	return math.Sqrt(k*rs*t.CombustionTemp) / gamma
}

// PropellantSpec identifies a physical propellant formulation: its density and
// the ordered list of pressure-range tabs describing its burn behaviour.
type PropellantSpec struct {
	Name string `json:"name"`
	// Family groups formulations for allow-list filtering (e.g. "AP", "KN").
	Family string `json:"family,omitempty"`
	// Density in kg/m^3.
	Density float64         `json:"density"`
	Tabs    []PropellantTab `json:"tabs"`
}

// TabForPressure selects the tab whose pressure range contains p, falling back
// to the last tab when none matches.
func (p PropellantSpec) TabForPressure(pressure float64) PropellantTab {
	for _, tab := range p.Tabs {
		if tab.Contains(pressure) {
			return tab
		}
	}
	return p.Tabs[len(p.Tabs)-1]
}

// Validate checks the formulation for structural problems. Violations are
// configuration errors: they indicate an unusable catalog entry, not a
// recoverable simulation condition.
func (p PropellantSpec) Validate() error {
	if p.Name == "" {
		return ConfigError{Field: "propellant.name", Reason: "must not be empty"}
	}
	if p.Density <= 0 {
		return ConfigError{Field: "propellant.density", Reason: "must be positive"}
	}
	if len(p.Tabs) == 0 {
		return ConfigError{Field: "propellant.tabs", Reason: "at least one pressure tab required"}
	}
	for i, tab := range p.Tabs {
		switch {
		case tab.BurnRateCoef <= 0:
			return ConfigError{Field: "propellant.tabs", Reason: "burn rate coefficient must be positive", Index: i}
		case tab.SpecificHeatRatio <= 1:
			return ConfigError{Field: "propellant.tabs", Reason: "specific heat ratio must exceed 1", Index: i}
		case tab.MolarMass <= 0:
			return ConfigError{Field: "propellant.tabs", Reason: "molar mass must be positive", Index: i}
		case tab.CombustionTemp <= 0:
			return ConfigError{Field: "propellant.tabs", Reason: "combustion temperature must be positive", Index: i}
		case tab.MaxPressure < tab.MinPressure:
			return ConfigError{Field: "propellant.tabs", Reason: "pressure range inverted", Index: i}
		}
	}
	return nil
}
