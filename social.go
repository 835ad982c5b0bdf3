package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// friendship maps to friendships. A row is directional until accepted.
type friendship struct {
	ID          int        `db:"id"`
	RequesterID int        `db:"requester_id"`
	AddresseeID int        `db:"addressee_id"`
	Status      string     `db:"status"`
	CreatedAt   *time.Time `db:"created_at"`
	AcceptedAt  *time.Time `db:"accepted_at"`
}

// workoutShare maps to workout_shares, one public link per workout.
type workoutShare struct {
	ID        int        `json:"-"          db:"id"`
	WorkoutID int        `json:"workout_id" db:"workout_id"`
	UserID    int        `json:"-"          db:"user_id"`
	Token     string     `json:"token"      db:"token"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// sharedWorkout is what an anonymous viewer of a share link sees.
type sharedWorkout struct {
	workoutSession
	Username string `json:"username" db:"username"`
}

// friendIDsSQL selects the ids of the caller's accepted friends.
const friendIDsSQL = `SELECT CASE WHEN requester_id = @userID THEN addressee_id ELSE requester_id END
	FROM friendships
	WHERE status = 'accepted' AND (requester_id = @userID OR addressee_id = @userID)`

/* ─── Friends ────────────────────────────────────────────────────────── */

// listFriends returns the caller's accepted friends by username.
// GET /api/friends.
func (h *Handler) listFriends(c *gin.Context) {
	userID := c.GetInt("user_id")

	friends, err := queryMany[friend](h, c,
		`SELECT u.id AS user_id, u.username, COALESCE(f.accepted_at, f.created_at) AS since
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.requester_id = @userID THEN f.addressee_id ELSE f.requester_id END
		 WHERE f.status = 'accepted' AND (f.requester_id = @userID OR f.addressee_id = @userID)
		 ORDER BY u.username`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch friends")
		return
	}
	if friends == nil {
		friends = []friend{}
	}

	c.JSON(http.StatusOK, friends)
}

// removeFriend ends an accepted friendship in either direction.
// DELETE /api/friends/:userId.
func (h *Handler) removeFriend(c *gin.Context) {
	userID := c.GetInt("user_id")
	friendID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	result, err := h.db.Exec(c,
		`DELETE FROM friendships
		 WHERE status = 'accepted'
		   AND ((requester_id = @userID AND addressee_id = @friendID)
		     OR (requester_id = @friendID AND addressee_id = @userID))`,
		pgx.NamedArgs{"userID": userID, "friendID": friendID})
	if err != nil {
		h.log.Error("remove friend", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to remove friend")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "friend not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// listFriendRequests returns pending requests addressed to the caller, newest first.
// GET /api/friends/requests.
func (h *Handler) listFriendRequests(c *gin.Context) {
	userID := c.GetInt("user_id")

	requests, err := queryMany[friendRequest](h, c,
		`SELECT f.id, f.requester_id, u.username AS requester_username, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = f.requester_id
		 WHERE f.addressee_id = @userID AND f.status = 'pending'
		 ORDER BY f.created_at DESC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch friend requests")
		return
	}
	if requests == nil {
		requests = []friendRequest{}
	}

	c.JSON(http.StatusOK, requests)
}

// sendFriendRequest asks another user, by username, to be friends. If that
// user already asked the caller, their request is accepted instead.
// POST /api/friends/requests {"username": "..."}.
func (h *Handler) sendFriendRequest(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Username) == "" {
		apiError(c, http.StatusBadRequest, "username is required")
		return
	}

	target, err := queryOne[participant](h, c,
		"SELECT id AS user_id, username FROM users WHERE username = @username",
		pgx.NamedArgs{"username": strings.TrimSpace(body.Username)})
	if err != nil {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}
	if target.UserID == userID {
		apiError(c, http.StatusBadRequest, "cannot befriend yourself")
		return
	}

	existing, err := queryOne[friendship](h, c,
		`SELECT * FROM friendships
		 WHERE (requester_id = @userID AND addressee_id = @targetID)
		    OR (requester_id = @targetID AND addressee_id = @userID)`,
		pgx.NamedArgs{"userID": userID, "targetID": target.UserID})
	switch {
	case err == nil && existing.Status == "accepted":
		apiError(c, http.StatusConflict, "already friends")
		return
	case err == nil && existing.RequesterID == userID:
		apiError(c, http.StatusConflict, "request already sent")
		return
	case err == nil:
		// The target asked first; accept their request.
		if _, err := h.db.Exec(c,
			"UPDATE friendships SET status = 'accepted', accepted_at = now() WHERE id = @id",
			pgx.NamedArgs{"id": existing.ID}); err != nil {
			h.log.Error("accept reverse friend request", zap.Int("user_id", userID), zap.Error(err))
			apiError(c, http.StatusInternalServerError, "failed to send friend request")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
		return
	case !errors.Is(err, pgx.ErrNoRows):
		apiError(c, http.StatusInternalServerError, "failed to send friend request")
		return
	}

	if _, err := h.db.Exec(c,
		`INSERT INTO friendships (requester_id, addressee_id, status)
		 VALUES (@userID, @targetID, 'pending')
		 ON CONFLICT (requester_id, addressee_id) DO NOTHING`,
		pgx.NamedArgs{"userID": userID, "targetID": target.UserID}); err != nil {
		h.log.Error("insert friend request", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to send friend request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "pending"})
}

// acceptFriendRequest accepts a pending request addressed to the caller.
// POST /api/friends/requests/:id/accept.
func (h *Handler) acceptFriendRequest(c *gin.Context) {
	userID := c.GetInt("user_id")

	_, err := queryOne[friendship](h, c,
		`UPDATE friendships SET status = 'accepted', accepted_at = now()
		 WHERE id = @id AND addressee_id = @userID AND status = 'pending'
		 RETURNING *`,
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "friend request not found")
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to accept friend request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

/* ─── Sharing ────────────────────────────────────────────────────────── */

// shareWorkout creates (or returns the existing) public link for a workout.
// POST /api/workouts/:id/share.
func (h *Handler) shareWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")

	share, err := queryOne[workoutShare](h, c,
		`INSERT INTO workout_shares (workout_id, user_id, token)
		 SELECT id, user_id, @token::uuid FROM workout_sessions WHERE id = @id AND user_id = @userID
		 ON CONFLICT (workout_id) DO UPDATE SET workout_id = EXCLUDED.workout_id
		 RETURNING *`,
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID, "token": uuid.New().String()})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "workout not found")
			return
		}
		h.log.Error("share workout", zap.Int("user_id", userID), zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to share workout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workout_id": share.WorkoutID,
		"token":      share.Token,
		"url":        "/api/shared/" + share.Token,
		"created_at": share.CreatedAt,
	})
}

// unshareWorkout revokes a workout's public link.
// DELETE /api/workouts/:id/share.
func (h *Handler) unshareWorkout(c *gin.Context) {
	userID := c.GetInt("user_id")

	result, err := h.db.Exec(c,
		"DELETE FROM workout_shares WHERE workout_id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": c.Param("id"), "userID": userID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to unshare workout")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "share not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// getSharedWorkout is the public view of a shared workout. No auth.
// GET /api/shared/:token.
func (h *Handler) getSharedWorkout(c *gin.Context) {
	token, err := uuid.Parse(c.Param("token"))
	if err != nil {
		apiError(c, http.StatusNotFound, "shared workout not found")
		return
	}

	s, err := queryOne[sharedWorkout](h, c,
		`SELECT w.*, u.username
		 FROM workout_shares s
		 JOIN workout_sessions w ON w.id = s.workout_id
		 JOIN users u ON u.id = w.user_id
		 WHERE s.token = @token`,
		pgx.NamedArgs{"token": token.String()})
	if err != nil {
		apiError(c, http.StatusNotFound, "shared workout not found")
		return
	}
	s.workoutSession = withDuration(s.workoutSession)
	s.Notes = nil

	c.JSON(http.StatusOK, s)
}

/* ─── Leaderboard ────────────────────────────────────────────────────── */

// getLeaderboard ranks the caller and their friends.
// GET /api/leaderboard?metric=workouts|minutes|active_days&period=week|month.
func (h *Handler) getLeaderboard(c *gin.Context) {
	userID := c.GetInt("user_id")
	metric := c.DefaultQuery("metric", boardWorkouts)
	period := statsPeriod(c.DefaultQuery("period", string(periodWeek)))

	if !validBoardMetrics[metric] {
		apiError(c, http.StatusBadRequest, "metric must be one of: "+keysOf(validBoardMetrics))
		return
	}
	now := h.clock()
	from, err := boardPeriodStart(period, now)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	args := pgx.NamedArgs{"userID": userID, "from": from, "to": now}
	participants, err := queryMany[participant](h, c,
		"SELECT id AS user_id, username FROM users WHERE id = @userID OR id IN ("+friendIDsSQL+")", args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}
	sessions, err := queryMany[workoutSession](h, c,
		`SELECT * FROM workout_sessions
		 WHERE (user_id = @userID OR user_id IN (`+friendIDsSQL+`))
		   AND start_time >= @from AND start_time <= @to`, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to build leaderboard")
		return
	}

	entries, err := rankLeaderboard(participants, sessions, metric, userID)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric":  metric,
		"period":  period,
		"from":    from,
		"to":      now,
		"entries": entries,
	})
}
