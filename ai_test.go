package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

// setupAITest creates a Gin engine backed by a mock Gemini server and returns
// the router, the handler and a function to set the mock response. No DB is
// needed; prompts fall back to the generic profile.
func setupAITest(t *testing.T) (*gin.Engine, *Handler, func(int, any)) {
	t.Helper()
	var mockStatus int
	var mockBody any

	mockGemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
			return
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(mockStatus)
		json.NewEncoder(w).Encode(mockBody)
	}))
	t.Cleanup(mockGemini.Close)

	gin.SetMode(gin.TestMode)
	h := &Handler{
		log:     zap.NewNop(),
		gemini:  geminiConfig{BaseURL: mockGemini.URL, APIKey: "test-key", Model: "gemini-test"},
		metrics: newTestMetricsManager(),
	}
	router := gin.New()
	// Skip auth middleware for tests and set a dummy user_id
	setUser := func(c *gin.Context) { c.Set("user_id", 1); c.Next() }
	router.POST("/api/ai/workout-plan", setUser, h.generateWorkoutPlan)
	router.POST("/api/ai/nutrition-advice", setUser, h.generateNutritionAdvice)

	setMock := func(status int, body any) {
		mockStatus = status
		mockBody = body
	}
	return router, h, setMock
}

func doAIRequest(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// geminiResponse wraps text in the generateContent response shape
// (candidates[0].content.parts[0].text).
func geminiResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

/* ─── Workout plan ───────────────────────────────────────────────────── */

func TestWorkoutPlan_Success(t *testing.T) {
	router, h, setMock := setupAITest(t)

	plan := `{"title":"Quick Legs","summary":"Lower body","duration_minutes":30,"exercises":[{"name":"Air Squat","sets":3,"reps":"15","rest_seconds":60}]}`
	setMock(http.StatusOK, geminiResponse(plan))

	w := doAIRequest(router, "/api/ai/workout-plan", `{"focus":"legs","duration_minutes":30}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp workoutPlan
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Title != "Quick Legs" {
		t.Errorf("expected title 'Quick Legs', got '%s'", resp.Title)
	}
	if len(resp.Exercises) != 1 || resp.Exercises[0].Sets != 3 {
		t.Errorf("unexpected exercises: %+v", resp.Exercises)
	}
	if got := testutil.ToFloat64(h.metrics.CounterAIRequests.WithLabelValues("workout_plan", "ok")); got != 1 {
		t.Errorf("expected 1 successful ai request, got %v", got)
	}
}

// An empty body is allowed; the model gets the profile context only.
func TestWorkoutPlan_EmptyBody(t *testing.T) {
	router, _, setMock := setupAITest(t)
	setMock(http.StatusOK, geminiResponse(`{"title":"Full Body","summary":"","duration_minutes":20,"exercises":[{"name":"Push-up","sets":2,"reps":"10","rest_seconds":45}]}`))

	req := httptest.NewRequest("POST", "/api/ai/workout-plan", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWorkoutPlan_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
	}{
		{"upstream error", http.StatusInternalServerError, map[string]any{"error": map[string]any{"message": "boom"}}},
		{"no candidates", http.StatusOK, map[string]any{"candidates": []any{}}},
		{"malformed json", http.StatusOK, geminiResponse(`not json`)},
		{"no exercises", http.StatusOK, geminiResponse(`{"title":"Empty","summary":"","duration_minutes":10,"exercises":[]}`)},
		{"zero sets", http.StatusOK, geminiResponse(`{"title":"Bad","summary":"","duration_minutes":10,"exercises":[{"name":"Plank","sets":0,"reps":"30s","rest_seconds":30}]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, h, setMock := setupAITest(t)
			setMock(tt.status, tt.body)

			w := doAIRequest(router, "/api/ai/workout-plan", `{}`)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), "ai request failed") {
				t.Errorf("expected generic error body, got %s", w.Body.String())
			}
			if got := testutil.ToFloat64(h.metrics.CounterAIRequests.WithLabelValues("workout_plan", "error")); got != 1 {
				t.Errorf("expected 1 failed ai request, got %v", got)
			}
		})
	}
}

func TestWorkoutPlan_MissingAPIKey(t *testing.T) {
	router, h, setMock := setupAITest(t)
	setMock(http.StatusOK, geminiResponse(`{}`))
	h.gemini.APIKey = ""

	w := doAIRequest(router, "/api/ai/workout-plan", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestWorkoutPlan_BadDuration(t *testing.T) {
	router, _, _ := setupAITest(t)

	w := doAIRequest(router, "/api/ai/workout-plan", `{"duration_minutes":500}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

/* ─── Nutrition advice ───────────────────────────────────────────────── */

func TestNutritionAdvice_Success(t *testing.T) {
	router, _, setMock := setupAITest(t)

	advice := `{"summary":"Eat more protein","recommendations":["Add eggs at breakfast"],"sample_meals":[{"name":"Omelette","calories":350,"protein_g":24,"carbs_g":4,"fat_g":25}]}`
	setMock(http.StatusOK, geminiResponse(advice))

	w := doAIRequest(router, "/api/ai/nutrition-advice", `{"question":"How do I hit my protein?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp nutritionAdvice
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Summary != "Eat more protein" {
		t.Errorf("expected summary 'Eat more protein', got '%s'", resp.Summary)
	}
	if len(resp.SampleMeals) != 1 || resp.SampleMeals[0].Calories != 350 {
		t.Errorf("unexpected sample meals: %+v", resp.SampleMeals)
	}
}

func TestNutritionAdvice_NoRecommendations(t *testing.T) {
	router, _, setMock := setupAITest(t)
	setMock(http.StatusOK, geminiResponse(`{"summary":"ok","recommendations":[]}`))

	w := doAIRequest(router, "/api/ai/nutrition-advice", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

/* ─── Prompt context ─────────────────────────────────────────────────── */

func TestDescribeProfile(t *testing.T) {
	p := userProfile{
		WeightKG:      ptr(70.0),
		HeightCM:      ptr(175.0),
		Age:           ptr(30),
		Gender:        ptr("male"),
		ActivityLevel: ptr("moderately_active"),
		FitnessGoal:   ptr("weight_loss"),
		Equipment:     []string{"dumbbells"},
	}
	got := describeProfile(&p)

	for _, want := range []string{"Age: 30", "Weight: 70.0 kg", "Equipment: dumbbells", "Daily targets: 2056 kcal"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}

	empty := describeProfile(&userProfile{})
	if !strings.Contains(empty, "bodyweight only") || strings.Contains(empty, "Daily targets") {
		t.Errorf("unexpected description for empty profile:\n%s", empty)
	}
}
