package main

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// kcal per gram of each macronutrient.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

const (
	fatRatio             = 0.25
	proteinRatio         = 0.25
	proteinRatioMuscle   = 0.30
	fiberGramsPer1000    = 14
	waterMLPerKGBodyMass = 35
)

// nutritionPlan is the daily target derived from a profile.
type nutritionPlan struct {
	BMR      int `json:"bmr"`
	TDEE     int `json:"tdee"`
	Calories int `json:"calories"`
	ProteinG int `json:"protein"`
	CarbsG   int `json:"carbs"`
	FatG     int `json:"fat"`
	FiberG   int `json:"fiber"`
	WaterML  int `json:"water"`
}

// allocateMacros splits a calorie target into grams. Protein is raised for
// muscle gain, fat is fixed, carbohydrates take the remainder.
func allocateMacros(calories int, goal string, weightKG float64) nutritionPlan {
	pRatio := proteinRatio
	if goal == "muscle_gain" {
		pRatio = proteinRatioMuscle
	}
	cRatio := 1 - pRatio - fatRatio
	kcal := float64(calories)

	return nutritionPlan{
		Calories: calories,
		ProteinG: int(math.Round(kcal * pRatio / kcalPerGramProtein)),
		CarbsG:   int(math.Round(kcal * cRatio / kcalPerGramCarbs)),
		FatG:     int(math.Round(kcal * fatRatio / kcalPerGramFat)),
		FiberG:   int(math.Round(kcal / 1000 * fiberGramsPer1000)),
		WaterML:  int(math.Round(weightKG * waterMLPerKGBodyMass)),
	}
}

// calculateNutritionPlan runs the energy calculator and macro allocator.
func calculateNutritionPlan(p *userProfile) (nutritionPlan, error) {
	in, err := newEnergyInput(p)
	if err != nil {
		return nutritionPlan{}, err
	}
	bmr, tdee, calories := computeEnergy(in)
	plan := allocateMacros(calories, in.FitnessGoal, in.WeightKG)
	plan.BMR = bmr
	plan.TDEE = tdee
	return plan, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// getNutritionPlan returns the plan for the caller's stored profile.
// GET /api/nutrition/plan. 422 when weight, height, age or gender is missing.
func (h *Handler) getNutritionPlan(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.loadProfile(c, userID)
	if err != nil {
		h.log.Error("load profile", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}

	plan, err := calculateNutritionPlan(&p)
	if err != nil {
		apiError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, plan)
}

// calculateNutrition is the stateless calculator.
// POST /api/nutrition/calculate with profile-shaped fields in the body.
func (h *Handler) calculateNutrition(c *gin.Context) {
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	p := userProfile{
		WeightKG:      body.WeightKG,
		HeightCM:      body.HeightCM,
		Age:           body.Age,
		Gender:        body.Gender,
		ActivityLevel: body.ActivityLevel,
		FitnessGoal:   body.FitnessGoal,
	}
	plan, err := calculateNutritionPlan(&p)
	if err != nil {
		apiError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, plan)
}
