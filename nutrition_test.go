package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

/* ─── Macro allocation ───────────────────────────────────────────────── */

// TestAllocateMacros_Reference checks the macro split for a 2056 kcal
// weight-loss target at 70 kg.
func TestAllocateMacros_Reference(t *testing.T) {
	plan := allocateMacros(2056, "weight_loss", 70)

	want := nutritionPlan{Calories: 2056, ProteinG: 129, CarbsG: 257, FatG: 57, FiberG: 29, WaterML: 2450}
	if plan != want {
		t.Errorf("expected %+v, got %+v", want, plan)
	}
}

// TestAllocateMacros_MuscleGain verifies protein is raised to 30% and carbs
// shrink to compensate.
func TestAllocateMacros_MuscleGain(t *testing.T) {
	base := allocateMacros(2800, "maintenance", 80)
	gain := allocateMacros(2800, "muscle_gain", 80)

	if gain.ProteinG != 210 {
		t.Errorf("expected 210g protein, got %d", gain.ProteinG)
	}
	if gain.ProteinG <= base.ProteinG {
		t.Errorf("muscle gain protein %d should exceed maintenance %d", gain.ProteinG, base.ProteinG)
	}
	if gain.CarbsG >= base.CarbsG {
		t.Errorf("muscle gain carbs %d should be below maintenance %d", gain.CarbsG, base.CarbsG)
	}
	if gain.FatG != base.FatG {
		t.Errorf("fat should not depend on goal: %d vs %d", gain.FatG, base.FatG)
	}
}

// TestAllocateMacros_SumsToCalories verifies the grams add back up to the
// target within rounding (at most half a gram per macro).
func TestAllocateMacros_SumsToCalories(t *testing.T) {
	for _, goal := range []string{"weight_loss", "muscle_gain", "maintenance"} {
		for kcal := 1200; kcal <= 4000; kcal += 137 {
			p := allocateMacros(kcal, goal, 75)
			total := p.ProteinG*kcalPerGramProtein + p.CarbsG*kcalPerGramCarbs + p.FatG*kcalPerGramFat
			if diff := total - kcal; diff < -9 || diff > 9 {
				t.Errorf("%s %d kcal: macros sum to %d", goal, kcal, total)
			}
		}
	}
}

func TestCalculateNutritionPlan(t *testing.T) {
	plan, err := calculateNutritionPlan(makeProfile("male", 30, 175, 70, "moderately_active", "weight_loss"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.BMR != 1649 || plan.TDEE != 2556 || plan.Calories != 2056 {
		t.Errorf("unexpected energy figures: %+v", plan)
	}

	p := makeProfile("male", 30, 175, 70, "moderately_active", "weight_loss")
	p.Age = nil
	if _, err := calculateNutritionPlan(p); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

/* ─── Stateless calculator endpoint ──────────────────────────────────── */

func doCalculate(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := Handler{log: zap.NewNop()}
	router := gin.New()
	router.POST("/api/nutrition/calculate", h.calculateNutrition)

	req := httptest.NewRequest("POST", "/api/nutrition/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateNutrition_Handler(t *testing.T) {
	w := doCalculate(t, `{"weight_kg":70,"height_cm":175,"age":30,"gender":"male","activity_level":"moderately_active","fitness_goal":"weight_loss"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var plan nutritionPlan
	if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if plan.Calories != 2056 || plan.ProteinG != 129 {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestCalculateNutrition_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing gender", `{"weight_kg":70,"height_cm":175,"age":30}`, http.StatusUnprocessableEntity},
		{"weight out of range", `{"weight_kg":5,"height_cm":175,"age":30,"gender":"male"}`, http.StatusBadRequest},
		{"unknown activity", `{"weight_kg":70,"height_cm":175,"age":30,"gender":"male","activity_level":"couch"}`, http.StatusBadRequest},
		{"not json", `nope`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doCalculate(t, tc.body)
			if w.Code != tc.code {
				t.Errorf("expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
		})
	}
}
