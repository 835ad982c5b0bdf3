package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const maxWorkoutDuration = 24 * time.Hour

// validate checks a create/update body. On create, name and start_time
// default later; here only values that were sent are checked.
func (r *workoutRequest) validate() error {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		if n == "" || len(n) > 120 {
			return invalid("name", "must be 1-120 characters")
		}
	}
	if r.Exercises != nil {
		for i, ex := range *r.Exercises {
			if strings.TrimSpace(ex.Name) == "" {
				return invalid("exercises", "exercise %d has no name", i)
			}
			for _, s := range ex.Sets {
				if s.Reps != nil && *s.Reps < 0 {
					return invalid("exercises", "%s: reps must not be negative", ex.Name)
				}
				if s.WeightKG != nil && (!isFinite(*s.WeightKG) || *s.WeightKG < 0) {
					return invalid("exercises", "%s: weight_kg must be a non-negative number", ex.Name)
				}
				if s.DurationSeconds != nil && *s.DurationSeconds < 0 {
					return invalid("exercises", "%s: duration_seconds must not be negative", ex.Name)
				}
				if s.DistanceKM != nil && (!isFinite(*s.DistanceKM) || *s.DistanceKM < 0) {
					return invalid("exercises", "%s: distance_km must be a non-negative number", ex.Name)
				}
			}
		}
	}
	if r.StartTime != nil && r.EndTime != nil {
		if r.EndTime.Before(*r.StartTime) {
			return invalid("end_time", "must not be before start_time")
		}
		if r.EndTime.Sub(*r.StartTime) > maxWorkoutDuration {
			return invalid("end_time", "workout cannot exceed 24 hours")
		}
	}
	return nil
}

// fillTimes completes a partial time range from the stored session so the
// range checks in validate see both ends.
func (r *workoutRequest) fillTimes(stored workoutSession) {
	if r.StartTime == nil {
		start := stored.StartTime
		r.StartTime = &start
	}
	if r.EndTime == nil && stored.EndTime != nil {
		end := *stored.EndTime
		r.EndTime = &end
	}
}

// exercisesJSON encodes exercises for the jsonb column. nil means "not sent".
func exercisesJSON(ex *[]workoutExercise) (*string, error) {
	if ex == nil {
		return nil, nil
	}
	list := *ex
	if list == nil {
		list = []workoutExercise{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// withDuration sets DurationMinutes when the session has ended.
func withDuration(s workoutSession) workoutSession {
	if s.EndTime != nil {
		m := int(s.EndTime.Sub(s.StartTime).Round(time.Minute) / time.Minute)
		s.DurationMinutes = &m
	}
	if s.Exercises == nil {
		s.Exercises = []workoutExercise{}
	}
	return s
}

func withDurations(sessions []workoutSession) []workoutSession {
	out := make([]workoutSession, len(sessions))
	for i, s := range sessions {
		out[i] = withDuration(s)
	}
	return out
}

// listWorkouts returns the caller's sessions, newest first.
// GET /api/workouts?start=YYYY-MM-DD&end=YYYY-MM-DD&limit=N. The range is
// optional; end is inclusive.
func (h *Handler) listWorkouts(c *gin.Context) {
	userID := c.GetInt("user_id")

	args := pgx.NamedArgs{"userID": userID, "limit": 100}
	where := "user_id = @userID"
	if s := c.Query("start"); s != "" {
		d, err := parseDateOnly(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
			return
		}
		where += " AND start_time >= @start"
		args["start"] = d.Time
	}
	if s := c.Query("end"); s != "" {
		d, err := parseDateOnly(s)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
			return
		}
		where += " AND start_time < @end"
		args["end"] = d.AddDate(0, 0, 1)
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			apiError(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		args["limit"] = n
	}

	sessions, err := queryMany[workoutSession](h, c,
		"SELECT * FROM workout_sessions WHERE "+where+" ORDER BY start_time DESC LIMIT @limit", args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch workouts")
		return
	}

	c.JSON(http.StatusOK, withDurations(sessions))
}

// getWorkout returns one of the caller's sessions.
// GET /api/workouts/:id.
func (h *Handler) getWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")

	s, err := queryOne[workoutSession](h, c,
		"SELECT * FROM workout_sessions WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		apiError(c, http.StatusNotFound, "workout not found")
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch workout")
		return
	}

	c.JSON(http.StatusOK, withDuration(s))
}

// createWorkout logs a session. start_time defaults to now, name to "Workout".
// POST /api/workouts.
func (h *Handler) createWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body workoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == nil {
		name := "Workout"
		body.Name = &name
	}
	if body.StartTime == nil {
		now := h.clock()
		body.StartTime = &now
	}
	if body.Exercises == nil {
		body.Exercises = &[]workoutExercise{}
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	exercises, err := exercisesJSON(body.Exercises)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid exercises")
		return
	}

	s, err := queryOne[workoutSession](h, c,
		`INSERT INTO workout_sessions (user_id, name, exercises, start_time, end_time, notes)
		 VALUES (@userID, @name, @exercises::jsonb, @startTime, @endTime, @notes)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "name": strings.TrimSpace(*body.Name), "exercises": exercises,
			"startTime": *body.StartTime, "endTime": body.EndTime, "notes": body.Notes,
		})
	if err != nil {
		h.log.Error("create workout", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create workout")
		return
	}

	c.JSON(http.StatusCreated, withDuration(s))
}

// updateWorkout edits an existing session. Omitted fields keep their value.
// PUT /api/workouts/:id.
func (h *Handler) updateWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")
	id := c.Param("id")

	var body workoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if (body.StartTime == nil) != (body.EndTime == nil) {
		stored, err := queryOne[workoutSession](h, c,
			"SELECT * FROM workout_sessions WHERE id = @id AND user_id = @userID",
			pgx.NamedArgs{"id": id, "userID": userID})
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "workout not found")
			return
		}
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to update workout")
			return
		}
		body.fillTimes(stored)
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	exercises, err := exercisesJSON(body.Exercises)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid exercises")
		return
	}
	var name *string
	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		name = &n
	}

	s, err := queryOne[workoutSession](h, c,
		`UPDATE workout_sessions SET
			name       = COALESCE(@name, name),
			exercises  = COALESCE(@exercises::jsonb, exercises),
			start_time = COALESCE(@startTime, start_time),
			end_time   = COALESCE(@endTime, end_time),
			notes      = COALESCE(@notes, notes),
			updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "userID": userID, "name": name, "exercises": exercises,
			"startTime": body.StartTime, "endTime": body.EndTime, "notes": body.Notes,
		})
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			apiError(c, http.StatusNotFound, "workout not found")
		case errors.As(err, &pgErr) && pgErr.Code == "23514":
			// The stored row changed between the read and the update.
			apiError(c, http.StatusBadRequest, "end_time must be within 24 hours after start_time")
		default:
			apiError(c, http.StatusInternalServerError, "failed to update workout")
		}
		return
	}

	c.JSON(http.StatusOK, withDuration(s))
}

// deleteWorkout removes a session and its share link. Returns 204.
// DELETE /api/workouts/:id.
func (h *Handler) deleteWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")

	result, err := h.db.Exec(c,
		"DELETE FROM workout_sessions WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete workout")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "workout not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// getWorkoutCalendar returns the 42-cell grid for a month.
// GET /api/workouts/calendar?year=2026&month=10&tz=Europe/Berlin. Year and
// month default to the current month; tz defaults to UTC.
func (h *Handler) getWorkoutCalendar(c *gin.Context) {
	userID := c.GetInt("user_id")

	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid tz")
			return
		}
		loc = l
	}

	now := h.clock().In(loc)
	year, month := now.Year(), now.Month()
	if s := c.Query("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1970 || y > 9999 {
			apiError(c, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if s := c.Query("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			apiError(c, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = time.Month(m)
	}

	from := startOfDay(year, month, 1, loc)
	to := startOfDay(year, month+1, 1, loc)
	sessions, err := queryMany[workoutSession](h, c,
		`SELECT * FROM workout_sessions
		 WHERE user_id = @userID AND start_time >= @from AND start_time < @to
		 ORDER BY start_time`,
		pgx.NamedArgs{"userID": userID, "from": from, "to": to})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch workouts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":  year,
		"month": int(month),
		"days":  buildMonthGrid(year, month, loc, withDurations(sessions)),
	})
}
