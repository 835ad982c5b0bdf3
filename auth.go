package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// idTokenVerifier is the part of the Firebase auth client the middleware uses.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// dummyHash is a pre-computed bcrypt hash used when a login username isn't found.
// Comparing against it keeps response time constant so usernames can't be
// enumerated by timing.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// firebaseUsernamePrefix namespaces usernames of provisioned Firebase users.
// register refuses it so a password account can never claim one first.
const firebaseUsernamePrefix = "fb_"

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// register creates a user with a bcrypt-hashed password, an opaque auth
// token and empty profile/goals rows.
// POST /api/register (public).
func (h *Handler) register(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Username = strings.TrimSpace(body.Username)
	if err := validateUsername(body.Username); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(body.Password) < 8 {
		apiError(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	u, err := h.createUser(c, body.Username, strings.TrimSpace(body.Email), string(hash), nil)
	if err != nil {
		if isUniqueViolation(err) {
			apiError(c, http.StatusConflict, "username already taken")
			return
		}
		h.log.Error("create user", zap.Error(err))
		apiError(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": u.AuthToken, "user_id": u.ID})
}

func validateUsername(name string) error {
	if len(name) < 3 || len(name) > 40 {
		return errors.New("username must be 3-40 characters")
	}
	if strings.HasPrefix(strings.ToLower(name), firebaseUsernamePrefix) {
		return errors.New("username must not start with " + firebaseUsernamePrefix)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// createUser inserts the user and its one-per-user rows in one transaction.
func (h *Handler) createUser(ctx context.Context, username, email, passwordHash string, firebaseUID *string) (user, error) {
	tx, err := h.db.Begin(ctx)
	if err != nil {
		return user{}, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`INSERT INTO users (username, email, password, auth_token, firebase_uid)
		 VALUES (@username, @email, @password, @token, @firebaseUID)
		 RETURNING *`,
		pgx.NamedArgs{
			"username": username, "email": email, "password": passwordHash,
			"token": uuid.New().String(), "firebaseUID": firebaseUID,
		})
	if err != nil {
		return user{}, err
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[user])
	if err != nil {
		return user{}, err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO user_profiles (user_id) VALUES (@userID)",
		pgx.NamedArgs{"userID": u.ID}); err != nil {
		return user{}, err
	}
	if _, err := tx.Exec(ctx, "INSERT INTO user_goals (user_id) VALUES (@userID)",
		pgx.NamedArgs{"userID": u.ID}); err != nil {
		return user{}, err
	}

	return u, tx.Commit(ctx)
}

// login verifies username/password and returns the user's auth token.
// POST /api/login (public).
func (h *Handler) login(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](h, c,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": body.Username})

	// Always run bcrypt, found or not.
	hashToCheck := string(dummyHash)
	if lookupErr == nil && u.Password != "" {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil || u.Password == "" {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": u.AuthToken, "user_id": u.ID})
}

// looksLikeJWT distinguishes Firebase ID tokens from our opaque uuid tokens.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// authMiddleware validates the Bearer token and sets user_id on the context.
// Opaque tokens are looked up in users; JWTs go to Firebase when configured.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		var userID int
		var err error
		if looksLikeJWT(token) {
			userID, err = h.firebaseUser(c, token)
		} else {
			err = h.db.QueryRow(c, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID)
		}
		if err != nil {
			h.log.Debug("auth rejected", zap.Error(err))
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

var errFirebaseDisabled = errors.New("firebase auth not configured")

// firebaseUser verifies a Firebase ID token and returns the local user id,
// provisioning a user on first sight.
func (h *Handler) firebaseUser(ctx context.Context, idToken string) (int, error) {
	if h.firebase == nil {
		return 0, errFirebaseDisabled
	}
	tok, err := h.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return 0, err
	}

	var userID int
	err = h.db.QueryRow(ctx, "SELECT id FROM users WHERE firebase_uid = $1", tok.UID).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	email, _ := tok.Claims["email"].(string)
	// Firebase users never log in with a password; the username only needs to be unique.
	u, err := h.createUser(ctx, firebaseUsernamePrefix+tok.UID, email, "", &tok.UID)
	if isUniqueViolation(err) {
		// A concurrent request provisioned the same uid.
		err = h.db.QueryRow(ctx, "SELECT id FROM users WHERE firebase_uid = $1", tok.UID).Scan(&userID)
		return userID, err
	}
	if err != nil {
		return 0, err
	}
	h.log.Info("provisioned firebase user", zap.Int("user_id", u.ID))
	return u.ID, nil
}
