package domain

// SimulationEngine tags which integrator path produced a result.
type SimulationEngine string

// Engine tags distinguish authoritative output from relaxed best-effort reruns.
const (
	// EnginePrimary is the configured integrator with all thresholds active.
	EnginePrimary SimulationEngine = "primary"
	// EngineFallback is the locally relaxed rerun used when the primary pass
	// fails cleanly on a marginal geometry.
	EngineFallback SimulationEngine = "fallback"
)

// TimeStep is one sample of the simulated thrust curve. A thrust curve is an
// ordered, time-ascending sequence; an empty sequence means ignition never
// sustained.
type TimeStep struct {
	// Time since ignition (s).
	Time float64 `json:"time"`
	// ChamberPressure in Pa.
	ChamberPressure float64 `json:"chamber_pressure"`
	// Thrust in N.
	Thrust float64 `json:"thrust"`
	// MassFlow through the nozzle (kg/s).
	MassFlow float64 `json:"mass_flow"`
	// Kn is the burning-area to throat-area ratio.
	Kn float64 `json:"kn"`
	// PortArea is the open core flow area (m^2).
	PortArea float64 `json:"port_area"`
}

// AggregateMetrics is the scalar rollup of a thrust curve.
type AggregateMetrics struct {
	// TotalImpulse by trapezoidal integration of the thrust curve (N*s).
	TotalImpulse float64 `json:"total_impulse"`
	// BurnTime is the time of the final sample (s).
	BurnTime float64 `json:"burn_time"`
	// AveragePressure and PeakPressure of the chamber (Pa).
	AveragePressure float64 `json:"average_pressure"`
	PeakPressure    float64 `json:"peak_pressure"`
	// AverageThrust and PeakThrust (N).
	AverageThrust float64 `json:"average_thrust"`
	PeakThrust    float64 `json:"peak_thrust"`
	// InitialKn and PeakKn bracket the burning-area ratio over the burn.
	InitialKn float64 `json:"initial_kn"`
	PeakKn    float64 `json:"peak_kn"`
	// IdealCf is the vacuum-side thrust coefficient before nozzle efficiency;
	// DeliveredCf includes it.
	IdealCf     float64 `json:"ideal_cf"`
	DeliveredCf float64 `json:"delivered_cf"`
	// PropellantMass loaded (kg) and PropellantLength of the grain stack (m).
	PropellantMass   float64 `json:"propellant_mass"`
	PropellantLength float64 `json:"propellant_length"`
	// PortThroatRatio at ignition.
	PortThroatRatio float64 `json:"port_throat_ratio"`
	// VolumeLoading is the propellant volume over the chamber envelope volume.
	VolumeLoading float64 `json:"volume_loading"`
	// PeakMassFlux through the port (kg/(m^2*s)).
	PeakMassFlux float64 `json:"peak_mass_flux"`
	// DeliveredIsp in seconds.
	DeliveredIsp float64 `json:"delivered_isp"`
}

// StageResult is one evaluated grid point: the scaled spec, its rollup, a
// unit-annotated log line, and the scales that produced it.
type StageResult struct {
	Spec    MotorSpec        `json:"spec"`
	Metrics AggregateMetrics `json:"metrics"`
	Engine  SimulationEngine `json:"engine"`
	Log     string           `json:"log,omitempty"`
	Scales  *StageScales     `json:"scales,omitempty"`
}

// ApogeeResult is the flight integrator output for one configuration.
type ApogeeResult struct {
	// Apogee altitude (m).
	Apogee float64 `json:"apogee"`
	// MaxVelocity (m/s) and MaxAccel (m/s^2) over the whole flight.
	MaxVelocity float64 `json:"max_velocity"`
	MaxAccel    float64 `json:"max_accel"`
	// BurnoutTime is elapsed time when the final stage stops producing thrust (s).
	BurnoutTime float64 `json:"burnout_time"`
	// Implausible marks flights that hit the step cap before apogee.
	Implausible bool `json:"implausible,omitempty"`
}

// Candidate is a fully evaluated design as consumed by the scorer.
type Candidate struct {
	Name string `json:"name"`
	// Metrics combines stage rollups (single stage: that stage's metrics).
	Metrics AggregateMetrics `json:"metrics"`
	// Steps is the thrust curve of the (first) stage.
	Steps []TimeStep `json:"steps,omitempty"`
	// Apogee predicted by the flight integrator.
	Apogee ApogeeResult `json:"apogee"`
	// StageLength and VehicleLength/VehicleDiameter describe packaging (m).
	StageLength     float64 `json:"stage_length"`
	VehicleLength   float64 `json:"vehicle_length"`
	VehicleDiameter float64 `json:"vehicle_diameter"`
	// Engine tags whether any stage needed the fallback integrator.
	Engine SimulationEngine `json:"engine"`
	// Stages carries the per-stage grid results behind the candidate.
	Stages []StageResult `json:"stages,omitempty"`
	// Score and Label are filled by the ranker.
	Score float64 `json:"score"`
	Label string  `json:"label,omitempty"`
}

// ScoreWeights are the seven non-negative objective weights. They informally
// sum to 1.0; the ranker does not renormalize.
type ScoreWeights struct {
	Apogee            float64 `json:"apogee"`
	Efficiency        float64 `json:"efficiency"`
	ThrustQuality     float64 `json:"thrust_quality"`
	PressureMargin    float64 `json:"pressure_margin"`
	KnMargin          float64 `json:"kn_margin"`
	Packaging         float64 `json:"packaging"`
	Manufacturability float64 `json:"manufacturability"`
}

// DefaultScoreWeights returns the stock weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Apogee:            0.30,
		Efficiency:        0.15,
		ThrustQuality:     0.10,
		PressureMargin:    0.15,
		KnMargin:          0.10,
		Packaging:         0.10,
		Manufacturability: 0.10,
	}
}

// Sum returns the total weight, the composite score of a degenerate
// single-candidate ranking.
func (w ScoreWeights) Sum() float64 {
	return w.Apogee + w.Efficiency + w.ThrustQuality + w.PressureMargin + w.KnMargin + w.Packaging + w.Manufacturability
}

// RejectionReason is a machine-readable code explaining why a grid point or
// candidate was filtered out.
type RejectionReason string

// Rejection reason codes recorded in the search log.
const (
	ReasonSimulationFailed  RejectionReason = "simulation_failed"
	ReasonPressureExceeded  RejectionReason = "pressure_exceeded"
	ReasonKnExceeded        RejectionReason = "kn_exceeded"
	ReasonStackTooLong      RejectionReason = "motor stack exceeds vehicle length"
	ReasonLengthRatio       RejectionReason = "stage length ratio exceeded"
	ReasonDiameterMismatch  RejectionReason = "stage diameters differ"
	ReasonOutsideTolerance  RejectionReason = "objective_outside_tolerance"
	ReasonFlightImplausible RejectionReason = "flight_implausible"
)

// Rejection couples a reason code with free-text detail for diagnosis.
type Rejection struct {
	Reason RejectionReason `json:"reason"`
	Detail string          `json:"detail,omitempty"`
	// Propellant and Scales identify the rejected grid point when applicable.
	Propellant string       `json:"propellant,omitempty"`
	Scales     *StageScales `json:"scales,omitempty"`
}

// SearchStatus summarizes an entire search invocation.
type SearchStatus string

// Search outcome statuses.
const (
	// StatusOK means at least one candidate met every constraint and objective.
	StatusOK SearchStatus = "ok"
	// StatusBestEffort means candidates exist but the best relied on the
	// fallback integrator or missed the objective tolerance.
	StatusBestEffort SearchStatus = "best_effort"
	// StatusNoViableCandidates means nothing survived the constraint filters.
	StatusNoViableCandidates SearchStatus = "no_viable_candidates"
)

// SearchSummary is the outward result envelope of one search invocation.
type SearchSummary struct {
	Status SearchStatus `json:"status"`
	// Evaluated counts simulated grid points; CacheHits counts memoized reuse.
	Evaluated int `json:"evaluated"`
	CacheHits int `json:"cache_hits"`
	// Seed echoes the RNG seed for reproducibility.
	Seed int64 `json:"seed"`
	// Detail carries a human-readable explanation of the status.
	Detail string `json:"detail,omitempty"`
}
