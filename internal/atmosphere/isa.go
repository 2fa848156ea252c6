// Package atmosphere implements the International Standard Atmosphere model
// and the interchangeable drag-coefficient policies used by the flight
// integrator.
package atmosphere

import "math"

// ISA layer constants.
const (
	// SeaLevelTemp is the default sea-level temperature in K.
	SeaLevelTemp = 288.15
	// SeaLevelPressure in Pa.
	SeaLevelPressure = 101325.0
	// TropopauseAltitude is the troposphere/stratosphere boundary in m.
	TropopauseAltitude = 11000.0
	// TropopauseTemp is the isothermal layer temperature above 11 km in K.
	TropopauseTemp = 216.65
	// LapseRate is the tropospheric temperature lapse in K/m.
	LapseRate = -6.5e-3

	gasConstantAir = 287.053 // J/(kg*K)
	gravity        = 9.80665
	gammaAir       = 1.4
)

// Model evaluates the ISA from a configurable sea-level temperature. The zero
// value is not usable; construct with NewModel.
type Model struct {
	seaLevelTemp float64
}

// NewModel returns an ISA model. A non-positive seaLevelTemp selects the
// standard 288.15 K.
func NewModel(seaLevelTemp float64) Model {
	if seaLevelTemp <= 0 {
		seaLevelTemp = SeaLevelTemp
	}
	return Model{seaLevelTemp: seaLevelTemp}
}

// temperature returns static air temperature at altitude (m, clamped at 0).
func (m Model) temperature(altitude float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	if altitude <= TropopauseAltitude {
		return m.seaLevelTemp + LapseRate*altitude
	}
	return TropopauseTemp
}

// pressure returns static pressure at altitude using the barometric relation:
// power law in the troposphere, exponential decay in the isothermal layer.
func (m Model) pressure(altitude float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	if altitude <= TropopauseAltitude {
		t := m.temperature(altitude)
		return SeaLevelPressure * math.Pow(t/m.seaLevelTemp, -gravity/(LapseRate*gasConstantAir))
	}
	tropopausePressure := SeaLevelPressure * math.Pow(TropopauseTemp/m.seaLevelTemp, -gravity/(LapseRate*gasConstantAir))
	return tropopausePressure * math.Exp(-gravity*(altitude-TropopauseAltitude)/(gasConstantAir*TropopauseTemp))
}

// Density returns air density at altitude from the ideal-gas law (kg/m^3).
func (m Model) Density(altitude float64) float64 {
	return m.pressure(altitude) / (gasConstantAir * m.temperature(altitude))
}

// SpeedOfSound returns the local speed of sound at altitude (m/s).
func (m Model) SpeedOfSound(altitude float64) float64 {
	return math.Sqrt(gammaAir * gasConstantAir * m.temperature(altitude))
}
