package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Handler holds shared dependencies (db pool, logger, upstream clients) for
// all route handlers.
type Handler struct {
	db       *pgxpool.Pool
	log      *zap.Logger
	gemini   geminiConfig    // base URL is overridable for tests
	firebase idTokenVerifier // nil when Firebase auth is not configured
	metrics  *metricsManager
	now      func() time.Time
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors (e.g. struct/column mismatches).
func queryOne[T any](h *Handler, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := h.db.Query(ctx, sql, args)
	if err != nil {
		h.log.Warn("queryOne: query", zap.Error(err))
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && err != pgx.ErrNoRows {
		h.log.Warn("queryOne: scan", zap.Error(err))
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](h *Handler, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := h.db.Query(ctx, sql, args)
	if err != nil {
		h.log.Warn("queryMany: query", zap.Error(err))
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		h.log.Warn("queryMany: scan", zap.Error(err))
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func (h *Handler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newDBPool creates a connection pool. A pool (not a single conn) survives
// the provider closing idle connections.
func newDBPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" after
	// migrations alter a table under a running server.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/api/register", h.register)
	router.POST("/api/login", h.login)
	router.GET("/api/shared/:token", h.getSharedWorkout)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)

	api.GET("/nutrition/plan", h.getNutritionPlan)
	api.POST("/nutrition/calculate", h.calculateNutrition)
	api.GET("/units/convert", h.convertUnits)

	api.GET("/workouts", h.listWorkouts)
	api.POST("/workouts", h.createWorkout)
	api.GET("/workouts/calendar", h.getWorkoutCalendar)
	api.GET("/workouts/:id", h.getWorkout)
	api.PUT("/workouts/:id", h.updateWorkout)
	api.DELETE("/workouts/:id", h.deleteWorkout)
	api.POST("/workouts/:id/share", h.shareWorkout)
	api.DELETE("/workouts/:id/share", h.unshareWorkout)
	api.GET("/workout-templates", h.listWorkoutTemplates)

	api.GET("/health-metrics", h.listHealthMetrics)
	api.POST("/health-metrics", h.createHealthMetric)
	api.GET("/health-metrics/stats", h.getHealthStats)
	api.DELETE("/health-metrics/:id", h.deleteHealthMetric)

	api.GET("/goals", h.getGoals)
	api.PUT("/goals", h.putGoals)

	api.POST("/ai/workout-plan", h.generateWorkoutPlan)
	api.POST("/ai/nutrition-advice", h.generateNutritionAdvice)

	api.GET("/friends", h.listFriends)
	api.DELETE("/friends/:userId", h.removeFriend)
	api.GET("/friends/requests", h.listFriendRequests)
	api.POST("/friends/requests", h.sendFriendRequest)
	api.POST("/friends/requests/:id/accept", h.acceptFriendRequest)
	api.GET("/leaderboard", h.getLeaderboard)
}
