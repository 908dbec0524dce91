package domain

import "math"

const (
	IntensityPow    = 1.8
	IntensityFactor = 5.0

	StyleBase      = 1.0
	OverhangFactor = 1.25

	SuccessBonus    = 1.2
	FlashEfficiency = 1.1
	EfficiencyDecay = 0.01
	EfficiencyFloor = 1.0

	BaseEffort      = 0.30
	AttemptLoadStep = 0.05
	AttemptLoadCap  = 0.50
	MaxEffortFactor = 0.80
)

// Score converts a bloc's attributes into points.
// Level and attempts are expected to be validated by the caller (see NewBloc).
func Score(level int, completed bool, attempts int, overhang bool) float64 {
	baseIntensity := math.Pow(float64(level), IntensityPow) * IntensityFactor

	styleMultiplier := StyleBase
	if overhang {
		styleMultiplier = OverhangFactor
	}

	rawScore := baseIntensity * styleMultiplier

	if completed {
		efficiencyBonus := math.Max(EfficiencyFloor, FlashEfficiency-float64(attempts-1)*EfficiencyDecay)
		return rawScore * SuccessBonus * efficiencyBonus
	}

	// Effort credit for a failed bloc, capped so failure never outscores success.
	attemptLoad := math.Min(AttemptLoadCap, float64(attempts)*AttemptLoadStep)
	totalEffortFactor := math.Min(MaxEffortFactor, BaseEffort+attemptLoad)

	return rawScore * totalEffortFactor
}
