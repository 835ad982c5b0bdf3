package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (r *putGoalsRequest) validate() error {
	if r.TargetWeightKG != nil && (!isFinite(*r.TargetWeightKG) || *r.TargetWeightKG < 20 || *r.TargetWeightKG > 500) {
		return invalid("target_weight_kg", "must be between 20 and 500")
	}
	if r.DailyWaterML != nil && (*r.DailyWaterML < 0 || *r.DailyWaterML > 10000) {
		return invalid("daily_water_ml", "must be between 0 and 10000")
	}
	if r.SleepHours != nil && (!isFinite(*r.SleepHours) || *r.SleepHours < 0 || *r.SleepHours > 24) {
		return invalid("sleep_hours", "must be between 0 and 24")
	}
	if r.DailySteps != nil && (*r.DailySteps < 0 || *r.DailySteps > 200000) {
		return invalid("daily_steps", "must be between 0 and 200000")
	}
	if r.WeeklyExerciseMinutes != nil && (*r.WeeklyExerciseMinutes < 0 || *r.WeeklyExerciseMinutes > 10080) {
		return invalid("weekly_exercise_minutes", "must be between 0 and 10080")
	}
	return nil
}

// getGoals returns the caller's goals. Users created before goals existed get
// an empty row back.
// GET /api/goals.
func (h *Handler) getGoals(c *gin.Context) {
	userID := c.GetInt("user_id")

	g, err := queryOne[userGoals](h, c,
		"SELECT * FROM user_goals WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, userGoals{UserID: userID})
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to fetch goals")
		return
	}

	c.JSON(http.StatusOK, g)
}

// putGoals replaces the caller's goals as one document (last write wins).
// PUT /api/goals.
func (h *Handler) putGoals(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body putGoalsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	g, err := queryOne[userGoals](h, c,
		`INSERT INTO user_goals (user_id, target_weight_kg, daily_water_ml, sleep_hours, daily_steps, weekly_exercise_minutes, updated_at)
		 VALUES (@userID, @targetWeightKG, @dailyWaterML, @sleepHours, @dailySteps, @weeklyExerciseMinutes, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			target_weight_kg        = EXCLUDED.target_weight_kg,
			daily_water_ml          = EXCLUDED.daily_water_ml,
			sleep_hours             = EXCLUDED.sleep_hours,
			daily_steps             = EXCLUDED.daily_steps,
			weekly_exercise_minutes = EXCLUDED.weekly_exercise_minutes,
			updated_at              = now()
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "targetWeightKG": body.TargetWeightKG, "dailyWaterML": body.DailyWaterML,
			"sleepHours": body.SleepHours, "dailySteps": body.DailySteps,
			"weeklyExerciseMinutes": body.WeeklyExerciseMinutes,
		})
	if err != nil {
		h.log.Error("upsert goals", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to save goals")
		return
	}

	c.JSON(http.StatusOK, g)
}
