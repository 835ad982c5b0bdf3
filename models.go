package main

import "time"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

// UnmarshalText parses a bare "YYYY-MM-DD" as midnight UTC.
func (d *DateOnly) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01-02", string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// parseDateOnly reads a YYYY-MM-DD query parameter.
func parseDateOnly(s string) (DateOnly, error) {
	var d DateOnly
	err := d.UnmarshalText([]byte(s))
	return d, err
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID          int        `json:"id" db:"id"`
	Username    string     `json:"username" db:"username"`
	Email       string     `json:"email" db:"email"`
	AuthToken   string     `json:"-" db:"auth_token"`
	Password    string     `json:"-" db:"password"`
	FirebaseUID *string    `json:"-" db:"firebase_uid"`
	CreatedAt   *time.Time `json:"created_at" db:"created_at"`
}

// userProfile maps to user_profiles. One row per user; physical fields are
// nullable so a fresh account still loads.
type userProfile struct {
	UserID          int        `json:"user_id"          db:"user_id"`
	DisplayName     *string    `json:"display_name"     db:"display_name"`
	WeightKG        *float64   `json:"weight_kg"        db:"weight_kg"`
	HeightCM        *float64   `json:"height_cm"        db:"height_cm"`
	Age             *int       `json:"age"              db:"age"`
	Gender          *string    `json:"gender"           db:"gender"`
	FitnessGoal     *string    `json:"fitness_goal"     db:"fitness_goal"`
	ActivityLevel   *string    `json:"activity_level"   db:"activity_level"`
	ExperienceLevel *string    `json:"experience_level" db:"experience_level"`
	Equipment       []string   `json:"equipment"        db:"equipment"`
	Units           unitSystem `json:"units"            db:"units"`
	SetupComplete   bool       `json:"setup_complete"   db:"setup_complete"`
	CreatedAt       *time.Time `json:"created_at"       db:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"       db:"updated_at"`

	// Computed fields, never stored.
	DisplayWeight     *float64       `json:"display_weight,omitempty"      db:"-"`
	DisplayWeightUnit weightUnit     `json:"display_weight_unit,omitempty" db:"-"`
	NutritionPlan     *nutritionPlan `json:"nutrition_plan,omitempty"      db:"-"`
}

// healthMetric maps to health_metrics. Rows are never updated.
type healthMetric struct {
	ID         int        `json:"id"          db:"id"`
	UserID     int        `json:"user_id"     db:"user_id"`
	Type       string     `json:"type"        db:"type"`
	Value      float64    `json:"value"       db:"value"`
	Unit       string     `json:"unit"        db:"unit"`
	RecordedAt time.Time  `json:"recorded_at" db:"recorded_at"`
	Source     *string    `json:"source"      db:"source"`
	Notes      *string    `json:"notes"       db:"notes"`
	CreatedAt  *time.Time `json:"created_at"  db:"created_at"`
}

// exerciseSet is one set of an exercise. Strength sets use reps/weight,
// cardio uses duration/distance.
type exerciseSet struct {
	Reps            *int     `json:"reps,omitempty"`
	WeightKG        *float64 `json:"weight_kg,omitempty"`
	DurationSeconds *int     `json:"duration_seconds,omitempty"`
	DistanceKM      *float64 `json:"distance_km,omitempty"`
}

// workoutExercise is stored inside workout_sessions.exercises (jsonb).
type workoutExercise struct {
	Name     string        `json:"name"`
	Category string        `json:"category,omitempty"`
	Sets     []exerciseSet `json:"sets"`
	Notes    string        `json:"notes,omitempty"`
}

// workoutSession maps to workout_sessions.
type workoutSession struct {
	ID        int               `json:"id"         db:"id"`
	UserID    int               `json:"user_id"    db:"user_id"`
	Name      string            `json:"name"       db:"name"`
	Exercises []workoutExercise `json:"exercises"  db:"exercises"`
	StartTime time.Time         `json:"start_time" db:"start_time"`
	EndTime   *time.Time        `json:"end_time"   db:"end_time"`
	Notes     *string           `json:"notes"      db:"notes"`
	CreatedAt *time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at" db:"updated_at"`

	DurationMinutes *int `json:"duration_minutes,omitempty" db:"-"`
}

// userGoals maps to user_goals, one row per user.
type userGoals struct {
	UserID                int        `json:"user_id"                 db:"user_id"`
	TargetWeightKG        *float64   `json:"target_weight_kg"        db:"target_weight_kg"`
	DailyWaterML          *int       `json:"daily_water_ml"          db:"daily_water_ml"`
	SleepHours            *float64   `json:"sleep_hours"             db:"sleep_hours"`
	DailySteps            *int       `json:"daily_steps"             db:"daily_steps"`
	WeeklyExerciseMinutes *int       `json:"weekly_exercise_minutes" db:"weekly_exercise_minutes"`
	UpdatedAt             *time.Time `json:"updated_at"              db:"updated_at"`
}

// friendRequest is a pending friendships row joined with the requester's name.
type friendRequest struct {
	ID                int        `json:"id"                 db:"id"`
	RequesterID       int        `json:"requester_id"       db:"requester_id"`
	RequesterUsername string     `json:"requester_username" db:"requester_username"`
	CreatedAt         *time.Time `json:"created_at"         db:"created_at"`
}

// friend is one accepted friend of the caller.
type friend struct {
	UserID   int        `json:"user_id"  db:"user_id"`
	Username string     `json:"username" db:"username"`
	Since    *time.Time `json:"since"    db:"since"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers so only the fields the client sent get written.
type patchProfileRequest struct {
	DisplayName     *string   `json:"display_name"`
	WeightKG        *float64  `json:"weight_kg"`
	HeightCM        *float64  `json:"height_cm"`
	Age             *int      `json:"age"`
	Gender          *string   `json:"gender"`
	FitnessGoal     *string   `json:"fitness_goal"`
	ActivityLevel   *string   `json:"activity_level"`
	ExperienceLevel *string   `json:"experience_level"`
	Equipment       *[]string `json:"equipment"`
	Units           *string   `json:"units"`
	SetupComplete   *bool     `json:"setup_complete"`
}

// workoutRequest is the body for POST /api/workouts and PUT /api/workouts/:id.
// On PUT, nil fields keep their stored values.
type workoutRequest struct {
	Name      *string            `json:"name"`
	Exercises *[]workoutExercise `json:"exercises"`
	StartTime *time.Time         `json:"start_time"`
	EndTime   *time.Time         `json:"end_time"`
	Notes     *string            `json:"notes"`
}

// createHealthMetricRequest is the body for POST /api/health-metrics.
type createHealthMetricRequest struct {
	Type       string     `json:"type"`
	Value      *float64   `json:"value"`
	Unit       string     `json:"unit"`
	RecordedAt *time.Time `json:"recorded_at"`
	Source     *string    `json:"source"`
	Notes      *string    `json:"notes"`
}

// putGoalsRequest is the body for PUT /api/goals. The whole row is replaced.
type putGoalsRequest struct {
	TargetWeightKG        *float64 `json:"target_weight_kg"`
	DailyWaterML          *int     `json:"daily_water_ml"`
	SleepHours            *float64 `json:"sleep_hours"`
	DailySteps            *int     `json:"daily_steps"`
	WeeklyExerciseMinutes *int     `json:"weekly_exercise_minutes"`
}
