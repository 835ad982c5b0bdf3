package main

import (
	"fmt"
	"sort"
	"strings"
)

// validationError is returned by request validation before anything is written.
type validationError struct {
	Field   string
	Message string
}

func (e *validationError) Error() string {
	return e.Field + " " + e.Message
}

func invalid(field, format string, args ...any) *validationError {
	return &validationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	validGenders          = setOf("male", "female", "other")
	validFitnessGoals     = setOf("weight_loss", "muscle_gain", "maintenance", "endurance", "general_fitness")
	validExperienceLevels = setOf("beginner", "intermediate", "advanced")
	validEquipment        = setOf("bodyweight", "dumbbells", "barbell", "kettlebell",
		"resistance_bands", "pull_up_bar", "machines", "cardio_machines")
)

// experienceRank orders experience levels for template filtering.
var experienceRank = map[string]int{"beginner": 0, "intermediate": 1, "advanced": 2}

func setOf(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

func keysOf[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// validate checks ranges and enum membership of every field that was sent.
// It returns a *validationError (as error) or nil.
func (r *patchProfileRequest) validate() error {
	if r.DisplayName != nil && len(strings.TrimSpace(*r.DisplayName)) > 80 {
		return invalid("display_name", "must be at most 80 characters")
	}
	if r.WeightKG != nil && (!isFinite(*r.WeightKG) || *r.WeightKG < 20 || *r.WeightKG > 500) {
		return invalid("weight_kg", "must be between 20 and 500")
	}
	if r.HeightCM != nil && (!isFinite(*r.HeightCM) || *r.HeightCM < 50 || *r.HeightCM > 280) {
		return invalid("height_cm", "must be between 50 and 280")
	}
	if r.Age != nil && (*r.Age < 13 || *r.Age > 120) {
		return invalid("age", "must be between 13 and 120")
	}
	if r.Gender != nil && !validGenders[*r.Gender] {
		return invalid("gender", "must be one of: %s", keysOf(validGenders))
	}
	if r.FitnessGoal != nil && !validFitnessGoals[*r.FitnessGoal] {
		return invalid("fitness_goal", "must be one of: %s", keysOf(validFitnessGoals))
	}
	// An unknown level would silently fall back to the default multiplier.
	if r.ActivityLevel != nil {
		if _, ok := activityMultipliers[*r.ActivityLevel]; !ok {
			return invalid("activity_level", "must be one of: %s", keysOf(activityMultipliers))
		}
	}
	if r.ExperienceLevel != nil && !validExperienceLevels[*r.ExperienceLevel] {
		return invalid("experience_level", "must be one of: %s", keysOf(validExperienceLevels))
	}
	if r.Equipment != nil {
		for _, e := range *r.Equipment {
			if !validEquipment[e] {
				return invalid("equipment", "unknown item %q", e)
			}
		}
	}
	if r.Units != nil && !unitSystem(*r.Units).valid() {
		return invalid("units", "must be one of: metric, imperial")
	}
	return nil
}
