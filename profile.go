package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// loadProfile fetches the caller's profile row.
func (h *Handler) loadProfile(ctx context.Context, userID int) (userProfile, error) {
	return queryOne[userProfile](h, ctx,
		"SELECT * FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

// populateComputedProfile fills the display weight (in the profile's own unit
// preference) and, when the body measurements are present, the nutrition plan.
func populateComputedProfile(p *userProfile) {
	if p.WeightKG != nil {
		unit := p.Units.weightUnit()
		if w, err := convertWeight(*p.WeightKG, unitKG, unit); err == nil {
			w = roundTo(w, 1)
			p.DisplayWeight = &w
			p.DisplayWeightUnit = unit
		}
	}
	if plan, err := calculateNutritionPlan(p); err == nil {
		p.NutritionPlan = &plan
	}
}

// getProfile returns the caller's profile with computed fields.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.loadProfile(c, userID)
	if err != nil {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}

	populateComputedProfile(&p)

	c.JSON(http.StatusOK, p)
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile. The body is validated as a whole before any write;
// concurrent writers resolve as last write wins.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	setClauses, args := body.setClauses()
	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}
	args["userID"] = userID

	query := "UPDATE user_profiles SET " +
		strings.Join(setClauses, ", ") +
		", updated_at = now() WHERE user_id = @userID RETURNING *"

	p, err := queryOne[userProfile](h, c, query, args)
	if err != nil {
		h.log.Error("update profile", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	populateComputedProfile(&p)

	c.JSON(http.StatusOK, p)
}

// setClauses builds the SET list for the fields the client actually sent.
func (r *patchProfileRequest) setClauses() ([]string, pgx.NamedArgs) {
	clauses := []string{}
	args := pgx.NamedArgs{}
	add := func(column, arg string, value any) {
		clauses = append(clauses, column+" = @"+arg)
		args[arg] = value
	}

	if r.DisplayName != nil {
		add("display_name", "displayName", strings.TrimSpace(*r.DisplayName))
	}
	if r.WeightKG != nil {
		add("weight_kg", "weightKG", *r.WeightKG)
	}
	if r.HeightCM != nil {
		add("height_cm", "heightCM", *r.HeightCM)
	}
	if r.Age != nil {
		add("age", "age", *r.Age)
	}
	if r.Gender != nil {
		add("gender", "gender", *r.Gender)
	}
	if r.FitnessGoal != nil {
		add("fitness_goal", "fitnessGoal", *r.FitnessGoal)
	}
	if r.ActivityLevel != nil {
		add("activity_level", "activityLevel", *r.ActivityLevel)
	}
	if r.ExperienceLevel != nil {
		add("experience_level", "experienceLevel", *r.ExperienceLevel)
	}
	if r.Equipment != nil {
		add("equipment", "equipment", *r.Equipment)
	}
	if r.Units != nil {
		add("units", "units", *r.Units)
	}
	if r.SetupComplete != nil {
		add("setup_complete", "setupComplete", *r.SetupComplete)
	}
	return clauses, args
}
