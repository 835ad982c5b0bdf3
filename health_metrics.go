package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// validate checks the body and normalises it: unit defaults to the type's
// unit, weights sent in lbs are stored in kg.
func (r *createHealthMetricRequest) validate() error {
	unit, err := validateMetricType(r.Type)
	if err != nil {
		return err
	}
	if r.Value == nil || !isFinite(*r.Value) {
		return invalid("value", "must be a number")
	}
	if *r.Value < 0 {
		return invalid("value", "must not be negative")
	}

	switch {
	case r.Unit == "" || r.Unit == unit:
		r.Unit = unit
	case r.Type == "weight" && weightUnit(r.Unit).valid():
		kg, err := convertWeight(*r.Value, weightUnit(r.Unit), unitKG)
		if err != nil {
			return invalid("unit", "%v", err)
		}
		kg = roundTo(kg, 2)
		r.Value = &kg
		r.Unit = unit
	default:
		return invalid("unit", "must be %s for %s", unit, r.Type)
	}
	return nil
}

// listHealthMetrics returns the caller's samples within [start, end], oldest first.
// GET /api/health-metrics?start=YYYY-MM-DD&end=YYYY-MM-DD&type=weight.
// Both dates are required; type is optional.
func (h *Handler) listHealthMetrics(c *gin.Context) {
	userID := c.GetInt("user_id")
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	startD, err := parseDateOnly(start)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	endD, err := parseDateOnly(end)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if startD.After(endD.Time) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	args := pgx.NamedArgs{"userID": userID, "start": startD.Time, "end": endD.AddDate(0, 0, 1)}
	typeFilter := ""
	if t := c.Query("type"); t != "" {
		if _, err := validateMetricType(t); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		typeFilter = " AND type = @type"
		args["type"] = t
	}

	metrics, err := queryMany[healthMetric](h, c,
		`SELECT * FROM health_metrics
		 WHERE user_id = @userID AND recorded_at >= @start AND recorded_at < @end`+typeFilter+`
		 ORDER BY recorded_at ASC`, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch health metrics")
		return
	}
	if metrics == nil {
		metrics = []healthMetric{}
	}

	c.JSON(http.StatusOK, metrics)
}

// createHealthMetric appends a sample. recorded_at defaults to now.
// POST /api/health-metrics.
func (h *Handler) createHealthMetric(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body createHealthMetricRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.validate(); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	recordedAt := h.clock()
	if body.RecordedAt != nil {
		recordedAt = *body.RecordedAt
	}

	m, err := queryOne[healthMetric](h, c,
		`INSERT INTO health_metrics (user_id, type, value, unit, recorded_at, source, notes)
		 VALUES (@userID, @type, @value, @unit, @recordedAt, @source, @notes)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "type": body.Type, "value": *body.Value, "unit": body.Unit,
			"recordedAt": recordedAt, "source": body.Source, "notes": body.Notes,
		})
	if err != nil {
		h.log.Error("create health metric", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create health metric")
		return
	}

	c.JSON(http.StatusCreated, m)
}

// deleteHealthMetric removes a sample by ID. Ownership is enforced by
// requiring both id and user_id to match.
// DELETE /api/health-metrics/:id.
func (h *Handler) deleteHealthMetric(c *gin.Context) {
	userID := c.GetInt("user_id")

	result, err := h.db.Exec(c,
		"DELETE FROM health_metrics WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete health metric")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "health metric not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// getHealthStats summarises the caller's samples over a period.
// GET /api/health-metrics/stats?period=week|month|year&type=weight.
// period defaults to month.
func (h *Handler) getHealthStats(c *gin.Context) {
	userID := c.GetInt("user_id")
	period := statsPeriod(c.DefaultQuery("period", string(periodMonth)))
	metricType := c.Query("type")

	now := h.clock()
	from, err := period.start(now)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if metricType != "" {
		if _, err := validateMetricType(metricType); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	samples, err := queryMany[healthMetric](h, c,
		`SELECT * FROM health_metrics
		 WHERE user_id = @userID AND recorded_at >= @from AND recorded_at <= @to
		 ORDER BY recorded_at ASC`,
		pgx.NamedArgs{"userID": userID, "from": from, "to": now})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch health metrics")
		return
	}

	stats, err := aggregateHealthStats(samples, period, metricType, now)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, stats)
}
