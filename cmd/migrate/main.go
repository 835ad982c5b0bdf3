// CLI tool to run pending database migrations from db/.
// Checks the migrations table to skip already-applied files and wraps each
// migration plus its record insert in a single transaction.
// Usage: go run ./cmd/migrate [-dir db] [-status]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var migrationPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{3}-`)

func main() {
	dir := flag.String("dir", "db", "directory holding *.sql migrations")
	status := flag.Bool("status", false, "list migrations without applying them")
	flag.Parse()

	_ = godotenv.Load()
	log := zap.Must(zap.NewDevelopment()).Sugar()
	defer log.Sync()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL is required")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalw("unable to connect to database", "error", err)
	}
	defer conn.Close(ctx)

	files, err := migrationFiles(*dir)
	if err != nil {
		log.Fatalw("list migrations", "dir", *dir, "error", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		log.Fatalw("read migrations table", "error", err)
	}

	if *status {
		for _, f := range files {
			state := "pending"
			if applied[filepath.Base(f)] {
				state = "applied"
			}
			fmt.Printf("  %-8s %s\n", state, filepath.Base(f))
		}
		return
	}

	ran := 0
	for _, f := range files {
		filename := filepath.Base(f)
		if applied[filename] {
			log.Debugw("skip", "migration", filename)
			continue
		}
		if err := apply(ctx, conn, f); err != nil {
			log.Fatalw("migration failed", "migration", filename, "error", err)
		}
		log.Infow("applied", "migration", filename)
		ran++
	}

	if ran == 0 {
		log.Info("no pending migrations")
	} else {
		log.Infof("%d migration(s) applied", ran)
	}
}

// migrationFiles returns the *.sql files in dir in lexical (= date) order.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migration files found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// appliedMigrations reads the migrations table. A missing table means
// nothing has been applied yet.
func appliedMigrations(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, "SELECT migration FROM migrations")
	if err != nil {
		return applied, nil
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return applied, nil
		}
		return nil, err
	}
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

func apply(ctx context.Context, conn *pgx.Conn, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	filename := filepath.Base(path)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO migrations (migration, description) VALUES ($1, $2)",
		filename, descriptionFromFilename(filename)); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit(ctx)
}

// descriptionFromFilename strips the YYYY-MM-DD-NNN- prefix and .sql suffix.
func descriptionFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".sql")
	name = migrationPrefix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "-", " ")
}
