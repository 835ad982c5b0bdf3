package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

/* ─── Request / Response types ───────────────────────────────────────── */

// workoutPlanRequest is the body for POST /api/ai/workout-plan. All optional.
type workoutPlanRequest struct {
	Focus           string `json:"focus"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

// nutritionAdviceRequest is the body for POST /api/ai/nutrition-advice.
type nutritionAdviceRequest struct {
	Question string `json:"question"`
}

type plannedExercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
	Notes       string `json:"notes,omitempty"`
}

// workoutPlan is the structured plan decoded from the model response.
type workoutPlan struct {
	Title           string            `json:"title"`
	Summary         string            `json:"summary"`
	DurationMinutes int               `json:"duration_minutes"`
	Exercises       []plannedExercise `json:"exercises"`
}

func (p *workoutPlan) validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return errors.New("plan has no title")
	}
	if len(p.Exercises) == 0 {
		return errors.New("plan has no exercises")
	}
	for i, ex := range p.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("exercise %d has no name", i)
		}
		if ex.Sets <= 0 {
			return fmt.Errorf("exercise %q has %d sets", ex.Name, ex.Sets)
		}
	}
	return nil
}

type sampleMeal struct {
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// nutritionAdvice is the structured advice decoded from the model response.
type nutritionAdvice struct {
	Summary         string       `json:"summary"`
	Recommendations []string     `json:"recommendations"`
	SampleMeals     []sampleMeal `json:"sample_meals"`
}

func (a *nutritionAdvice) validate() error {
	if strings.TrimSpace(a.Summary) == "" {
		return errors.New("advice has no summary")
	}
	if len(a.Recommendations) == 0 {
		return errors.New("advice has no recommendations")
	}
	return nil
}

/* ─── Prompts and response schemas ───────────────────────────────────── */

const workoutSystemPrompt = `You are a certified personal trainer. Design one workout session for the user described below.
Only use equipment the user has. Match volume and exercise difficulty to their experience level.
Keep every exercise name short and standard (e.g. "Goblet Squat"). Reps may be a count ("10") or a duration ("30s").`

const nutritionSystemPrompt = `You are a registered dietitian. Give practical, specific nutrition advice for the user described below.
Respect their daily targets when they are given. Do not give medical diagnoses.`

// Schemas use the Gemini OpenAPI subset; the model is constrained to them.
var workoutPlanSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"title":            map[string]any{"type": "STRING"},
		"summary":          map[string]any{"type": "STRING"},
		"duration_minutes": map[string]any{"type": "INTEGER"},
		"exercises": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":         map[string]any{"type": "STRING"},
					"sets":         map[string]any{"type": "INTEGER"},
					"reps":         map[string]any{"type": "STRING"},
					"rest_seconds": map[string]any{"type": "INTEGER"},
					"notes":        map[string]any{"type": "STRING"},
				},
				"required": []string{"name", "sets", "reps", "rest_seconds"},
			},
		},
	},
	"required": []string{"title", "summary", "duration_minutes", "exercises"},
}

var nutritionAdviceSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"summary": map[string]any{"type": "STRING"},
		"recommendations": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"sample_meals": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"name":      map[string]any{"type": "STRING"},
					"calories":  map[string]any{"type": "INTEGER"},
					"protein_g": map[string]any{"type": "NUMBER"},
					"carbs_g":   map[string]any{"type": "NUMBER"},
					"fat_g":     map[string]any{"type": "NUMBER"},
				},
				"required": []string{"name", "calories"},
			},
		},
	},
	"required": []string{"summary", "recommendations"},
}

/* ─── Gemini HTTP client ─────────────────────────────────────────────── */

// geminiConfig points at the generateContent endpoint.
type geminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

var geminiHTTPClient = &http.Client{Timeout: 30 * time.Second}

// callGemini sends one generateContent request constrained to schema and
// returns the text of the first candidate. Uses raw net/http; the request
// body is small and the SDK would pull in gRPC.
func callGemini(ctx context.Context, cfg geminiConfig, system, prompt string, schema map[string]any) (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY not set")
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.4,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", cfg.BaseURL, cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", cfg.APIKey)

	resp, err := geminiHTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(respBytes))
	}

	var result struct {
		Candidates []struct {
			Content      geminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no candidates in response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// generate calls the model and decodes its JSON answer into out.
func (h *Handler) generate(ctx context.Context, kind, system, prompt string, schema map[string]any, out interface{ validate() error }) error {
	content, err := callGemini(ctx, h.gemini, system, prompt, schema)
	if err == nil {
		if err = json.Unmarshal([]byte(content), out); err != nil {
			err = fmt.Errorf("decode %s: %w", kind, err)
		} else {
			err = out.validate()
		}
	}
	h.metrics.observeAI(kind, err)
	return err
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// generateWorkoutPlan handles POST /api/ai/workout-plan.
func (h *Handler) generateWorkoutPlan(c *gin.Context) {
	var req workoutPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > 180 {
		apiError(c, http.StatusBadRequest, "duration_minutes must be between 0 and 180")
		return
	}

	var prompt strings.Builder
	prompt.WriteString(h.profileContext(c))
	if req.Focus != "" {
		fmt.Fprintf(&prompt, "\nFocus: %s", req.Focus)
	}
	if req.DurationMinutes > 0 {
		fmt.Fprintf(&prompt, "\nSession length: %d minutes", req.DurationMinutes)
	}
	if req.Notes != "" {
		fmt.Fprintf(&prompt, "\nUser notes: %s", req.Notes)
	}

	var plan workoutPlan
	if err := h.generate(c.Request.Context(), "workout_plan", workoutSystemPrompt, prompt.String(), workoutPlanSchema, &plan); err != nil {
		h.log.Error("ai workout plan", zap.Int("user_id", c.GetInt("user_id")), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "ai request failed")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// generateNutritionAdvice handles POST /api/ai/nutrition-advice.
func (h *Handler) generateNutritionAdvice(c *gin.Context) {
	var req nutritionAdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Question) > 1000 {
		apiError(c, http.StatusBadRequest, "question must be at most 1000 characters")
		return
	}

	prompt := h.profileContext(c)
	if q := strings.TrimSpace(req.Question); q != "" {
		prompt += "\nQuestion: " + q
	} else {
		prompt += "\nGive a general daily eating strategy."
	}

	var advice nutritionAdvice
	if err := h.generate(c.Request.Context(), "nutrition_advice", nutritionSystemPrompt, prompt, nutritionAdviceSchema, &advice); err != nil {
		h.log.Error("ai nutrition advice", zap.Int("user_id", c.GetInt("user_id")), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "ai request failed")
		return
	}

	c.JSON(http.StatusOK, advice)
}

// profileContext describes the caller for the prompt. Falls back to a generic
// adult description when there is no database or no usable profile.
func (h *Handler) profileContext(c *gin.Context) string {
	const fallback = "No profile is available; assume a healthy adult beginner with bodyweight only."
	if h.db == nil {
		return fallback
	}
	p, err := h.loadProfile(c, c.GetInt("user_id"))
	if err != nil {
		return fallback
	}
	return describeProfile(&p)
}

// describeProfile renders the known profile fields, one per line.
func describeProfile(p *userProfile) string {
	var b strings.Builder
	b.WriteString("User profile:")
	if p.Gender != nil {
		fmt.Fprintf(&b, "\n- Gender: %s", *p.Gender)
	}
	if p.Age != nil {
		fmt.Fprintf(&b, "\n- Age: %d", *p.Age)
	}
	if p.WeightKG != nil {
		fmt.Fprintf(&b, "\n- Weight: %.1f kg", *p.WeightKG)
	}
	if p.HeightCM != nil {
		fmt.Fprintf(&b, "\n- Height: %.0f cm", *p.HeightCM)
	}
	if p.FitnessGoal != nil {
		fmt.Fprintf(&b, "\n- Goal: %s", *p.FitnessGoal)
	}
	if p.ActivityLevel != nil {
		fmt.Fprintf(&b, "\n- Activity level: %s", *p.ActivityLevel)
	}
	if p.ExperienceLevel != nil {
		fmt.Fprintf(&b, "\n- Experience: %s", *p.ExperienceLevel)
	}
	if len(p.Equipment) > 0 {
		fmt.Fprintf(&b, "\n- Equipment: %s", strings.Join(p.Equipment, ", "))
	} else {
		b.WriteString("\n- Equipment: bodyweight only")
	}
	if plan, err := calculateNutritionPlan(p); err == nil {
		fmt.Fprintf(&b, "\n- Daily targets: %d kcal, %dg protein, %dg carbs, %dg fat",
			plan.Calories, plan.ProteinG, plan.CarbsG, plan.FatG)
	}
	return b.String()
}
