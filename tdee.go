package main

import (
	"errors"
	"math"
)

// ErrInsufficientData is returned when the profile lacks weight, height, age
// or gender. No partial plan is produced.
var ErrInsufficientData = errors.New("insufficient profile data")

// activityMultipliers maps activity levels to their TDEE multiplier.
// Also the source of truth for activity_level validation on profile updates.
var activityMultipliers = map[string]float64{
	"sedentary":         1.2,
	"lightly_active":    1.375,
	"moderately_active": 1.55,
	"very_active":       1.725,
	"extremely_active":  1.9,
}

// defaultActivityMultiplier applies when the level is missing or unknown.
const defaultActivityMultiplier = 1.55

// goalAdjustments is the kcal delta applied to TDEE per fitness goal.
// Goals not listed are maintained at TDEE.
var goalAdjustments = map[string]float64{
	"weight_loss": -500,
	"muscle_gain": 300,
}

// energyInput is the validated subset of a profile the calculator needs.
type energyInput struct {
	WeightKG      float64
	HeightCM      float64
	Age           int
	Gender        string
	ActivityLevel string
	FitnessGoal   string
}

// newEnergyInput extracts calculator inputs from a profile. Activity level
// and goal are optional; the four body measurements are not.
func newEnergyInput(p *userProfile) (energyInput, error) {
	if p == nil || p.WeightKG == nil || p.HeightCM == nil || p.Age == nil || p.Gender == nil {
		return energyInput{}, ErrInsufficientData
	}
	in := energyInput{
		WeightKG: *p.WeightKG,
		HeightCM: *p.HeightCM,
		Age:      *p.Age,
		Gender:   *p.Gender,
	}
	if p.ActivityLevel != nil {
		in.ActivityLevel = *p.ActivityLevel
	}
	if p.FitnessGoal != nil {
		in.FitnessGoal = *p.FitnessGoal
	}
	return in, nil
}

// computeBMR returns basal metabolic rate via Mifflin-St Jeor.
func computeBMR(in energyInput) float64 {
	bmr := 10*in.WeightKG + 6.25*in.HeightCM - 5*float64(in.Age)
	if in.Gender == "male" {
		return bmr + 5
	}
	return bmr - 161
}

func activityMultiplier(level string) float64 {
	if mult, ok := activityMultipliers[level]; ok {
		return mult
	}
	return defaultActivityMultiplier
}

// computeEnergy returns rounded BMR, TDEE and the goal-adjusted calorie target.
func computeEnergy(in energyInput) (bmr, tdee, calories int) {
	bmrF := computeBMR(in)
	tdeeF := bmrF * activityMultiplier(in.ActivityLevel)
	target := tdeeF + goalAdjustments[in.FitnessGoal]
	// math.Round rounds half away from zero, which matches the displayed targets.
	return int(math.Round(bmrF)), int(math.Round(tdeeF)), int(math.Round(target))
}

// isFinite reports whether f is neither NaN nor ±Inf.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// roundTo rounds f to the given number of decimal places.
func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
