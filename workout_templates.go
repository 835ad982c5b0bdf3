package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/workouts.json
var embeddedTemplates embed.FS

type templateExercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        string `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
}

type workoutTemplate struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Goals           []string           `json:"goals"`
	ExperienceLevel string             `json:"experience_level"`
	Equipment       []string           `json:"equipment"`
	DurationMinutes int                `json:"duration_minutes"`
	Exercises       []templateExercise `json:"exercises"`
}

// templateFilter narrows the catalog. Zero values do not filter;
// a nil Equipment means "any equipment".
type templateFilter struct {
	Goal            string
	ExperienceLevel string
	Equipment       []string
}

// loadWorkoutTemplates parses the embedded catalog and checks every entry
// against the profile enums.
func loadWorkoutTemplates() ([]workoutTemplate, error) {
	raw, err := embeddedTemplates.ReadFile("templates/workouts.json")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	var templates []workoutTemplate
	if err := json.Unmarshal(raw, &templates); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for _, t := range templates {
		if _, ok := experienceRank[t.ExperienceLevel]; !ok {
			return nil, fmt.Errorf("template %s: unknown experience level %q", t.ID, t.ExperienceLevel)
		}
		for _, e := range t.Equipment {
			if !validEquipment[e] {
				return nil, fmt.Errorf("template %s: unknown equipment %q", t.ID, e)
			}
		}
		for _, g := range t.Goals {
			if !validFitnessGoals[g] {
				return nil, fmt.Errorf("template %s: unknown goal %q", t.ID, g)
			}
		}
	}
	return templates, nil
}

// filterTemplates returns the templates matching f, easiest first then by name.
// A template matches a goal when it lists it or lists general_fitness; it
// matches an experience level at or below the requested one; it matches
// equipment when every item it needs is available (bodyweight always is).
func filterTemplates(templates []workoutTemplate, f templateFilter) []workoutTemplate {
	var available map[string]bool
	if f.Equipment != nil {
		available = setOf(f.Equipment...)
		available["bodyweight"] = true
	}
	maxRank, rankSet := experienceRank[f.ExperienceLevel]

	out := []workoutTemplate{}
	for _, t := range templates {
		if f.Goal != "" && !slices.Contains(t.Goals, f.Goal) && !slices.Contains(t.Goals, "general_fitness") {
			continue
		}
		if rankSet && experienceRank[t.ExperienceLevel] > maxRank {
			continue
		}
		if available != nil && !allAvailable(t.Equipment, available) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := experienceRank[out[i].ExperienceLevel], experienceRank[out[j].ExperienceLevel]
		if ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func allAvailable(needed []string, available map[string]bool) bool {
	for _, e := range needed {
		if !available[e] {
			return false
		}
	}
	return true
}

// listWorkoutTemplates returns the catalog filtered by query params, or by the
// caller's profile with ?recommended=true.
// GET /api/workout-templates?goal=&experience_level=&equipment=dumbbells,barbell
func (h *Handler) listWorkoutTemplates(c *gin.Context) {
	templates, err := loadWorkoutTemplates()
	if err != nil {
		h.log.Error("load workout templates", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to load templates")
		return
	}

	var f templateFilter
	if c.Query("recommended") == "true" {
		userID := c.GetInt("user_id")
		p, err := h.loadProfile(c, userID)
		if err != nil {
			apiError(c, http.StatusNotFound, "profile not found")
			return
		}
		if p.FitnessGoal != nil {
			f.Goal = *p.FitnessGoal
		}
		if p.ExperienceLevel != nil {
			f.ExperienceLevel = *p.ExperienceLevel
		}
		f.Equipment = p.Equipment
		if f.Equipment == nil {
			f.Equipment = []string{}
		}
	} else {
		f.Goal = c.Query("goal")
		f.ExperienceLevel = c.Query("experience_level")
		if f.Goal != "" && !validFitnessGoals[f.Goal] {
			apiError(c, http.StatusBadRequest, "unknown goal")
			return
		}
		if f.ExperienceLevel != "" && !validExperienceLevels[f.ExperienceLevel] {
			apiError(c, http.StatusBadRequest, "unknown experience_level")
			return
		}
		if eq, ok := c.GetQuery("equipment"); ok {
			f.Equipment = []string{}
			for _, e := range strings.Split(eq, ",") {
				if e = strings.TrimSpace(e); e != "" {
					f.Equipment = append(f.Equipment, e)
				}
			}
		}
	}

	c.JSON(http.StatusOK, filterTemplates(templates, f))
}
