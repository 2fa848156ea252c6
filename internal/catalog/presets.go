package catalog

import (
	"context"

	"apogeecore/pkg/domain"
)

// BuiltinPropellants returns the stock preset formulations. Burn-rate laws
// use SI units throughout: r = a*P^n with P in Pa and r in m/s.
func BuiltinPropellants() []domain.PropellantSpec {
	return []domain.PropellantSpec{
		{
			Name:    "AP/HTPB",
			Family:  "AP",
			Density: 1680,
			Tabs: []domain.PropellantTab{{
				BurnRateCoef:      2.83e-5,
				BurnRateExp:       0.35,
				SpecificHeatRatio: 1.21,
				MolarMass:         0.0238,
				CombustionTemp:    3200,
				MinPressure:       0,
				MaxPressure:       1.5e7,
			}},
		},
		{
			Name:    "AP/HTPB/Al",
			Family:  "AP",
			Density: 1780,
			Tabs: []domain.PropellantTab{{
				BurnRateCoef:      3.5e-5,
				BurnRateExp:       0.33,
				SpecificHeatRatio: 1.18,
				MolarMass:         0.0266,
				CombustionTemp:    3500,
				MinPressure:       0,
				MaxPressure:       1.5e7,
			}},
		},
		{
			Name:    "KNSB",
			Family:  "KN",
			Density: 1841,
			// Sorbitol-based sugar propellant with a pressure-dependent slope
			// change, hence the two tabs.
			Tabs: []domain.PropellantTab{
				{
					BurnRateCoef:      1.1e-4,
					BurnRateExp:       0.26,
					SpecificHeatRatio: 1.137,
					MolarMass:         0.0399,
					CombustionTemp:    1600,
					MinPressure:       0,
					MaxPressure:       5e6,
				},
				{
					BurnRateCoef:      1.97e-4,
					BurnRateExp:       0.22,
					SpecificHeatRatio: 1.137,
					MolarMass:         0.0399,
					CombustionTemp:    1600,
					MinPressure:       5e6,
					MaxPressure:       1.2e7,
				},
			},
		},
		{
			Name:    "KNSU",
			Family:  "KN",
			Density: 1889,
			Tabs: []domain.PropellantTab{{
				BurnRateCoef:      5.27e-5,
				BurnRateExp:       0.319,
				SpecificHeatRatio: 1.133,
				MolarMass:         0.0419,
				CombustionTemp:    1720,
				MinPressure:       0,
				MaxPressure:       1.2e7,
			}},
		},
	}
}

// SeedPresets upserts the builtin formulations into the store. Existing
// entries with the same names are overwritten with the stock values.
func SeedPresets(ctx context.Context, store Store) error {
	for _, spec := range BuiltinPropellants() {
		if err := store.PutPropellant(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}
