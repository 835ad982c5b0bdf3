// CLI tool to create a user with a bcrypt-hashed password plus empty profile
// and goals rows.
// Usage: go run ./cmd/create-user
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()
	log := zap.Must(zap.NewDevelopment()).Sugar()
	defer log.Sync()

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		log.Fatalw("unable to connect to database", "error", err)
	}
	defer conn.Close(ctx)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label + ": ")
		s, _ := reader.ReadString('\n')
		return strings.TrimSpace(s)
	}

	username := prompt("Username")
	email := prompt("Email")
	password := prompt("Password")
	if len(username) < 3 || len(password) < 8 {
		log.Fatal("username needs 3+ characters and password 8+")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalw("hash password", "error", err)
	}
	authToken := uuid.New().String()

	tx, err := conn.Begin(ctx)
	if err != nil {
		log.Fatalw("begin", "error", err)
	}
	defer tx.Rollback(ctx)

	var userID int
	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password, auth_token)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		username, email, string(hash), authToken,
	).Scan(&userID)
	if err != nil {
		log.Fatalw("create user", "error", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO user_profiles (user_id, display_name) VALUES ($1, $2)", userID, username); err != nil {
		log.Fatalw("create profile", "error", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO user_goals (user_id) VALUES ($1)", userID); err != nil {
		log.Fatalw("create goals", "error", err)
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatalw("commit", "error", err)
	}

	fmt.Printf("\nUser created successfully!\n")
	fmt.Printf("  ID:         %d\n", userID)
	fmt.Printf("  Username:   %s\n", username)
	fmt.Printf("  Auth Token: %s\n", authToken)
}
