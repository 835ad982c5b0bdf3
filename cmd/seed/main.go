// CLI tool to fill a development database with fake users, profiles,
// workouts, health metrics and friendships.
// Usage: go run ./cmd/seed [-users 10] [-days 28]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jaswdr/faker"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password123"

var (
	seedGenders     = []string{"male", "female", "other"}
	seedGoals       = []string{"weight_loss", "muscle_gain", "maintenance", "endurance", "general_fitness"}
	seedActivity    = []string{"sedentary", "lightly_active", "moderately_active", "very_active", "extremely_active"}
	seedExperience  = []string{"beginner", "intermediate", "advanced"}
	seedEquipment   = []string{"dumbbells", "barbell", "kettlebell", "resistance_bands", "pull_up_bar", "machines", "cardio_machines"}
	seedExercises   = []string{"Push-up", "Squat", "Deadlift", "Bench Press", "Row", "Lunge", "Plank", "Overhead Press"}
	seedWorkoutName = []string{"Morning Lift", "Leg Day", "Upper Body", "Full Body", "Quick Circuit"}
)

// seedUser is one generated account with its profile.
type seedUser struct {
	Username   string
	Email      string
	WeightKG   float64
	HeightCM   float64
	Age        int
	Gender     string
	Goal       string
	Activity   string
	Experience string
	Equipment  []string
	Units      string
}

// seedExercise mirrors the jsonb shape stored in workout_sessions.exercises.
type seedExercise struct {
	Name string           `json:"name"`
	Sets []map[string]int `json:"sets"`
}

func newSeedUser(fake faker.Faker, n int) seedUser {
	first := fake.Person().FirstName()
	last := fake.Person().LastName()
	username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, n))

	var equipment []string
	for _, e := range seedEquipment {
		if fake.IntBetween(0, 2) == 0 {
			equipment = append(equipment, e)
		}
	}
	units := "metric"
	if fake.IntBetween(0, 1) == 1 {
		units = "imperial"
	}

	return seedUser{
		Username:   username,
		Email:      fake.Internet().Email(),
		WeightKG:   float64(fake.IntBetween(500, 1100)) / 10,
		HeightCM:   float64(fake.IntBetween(150, 200)),
		Age:        fake.IntBetween(18, 70),
		Gender:     fake.RandomStringElement(seedGenders),
		Goal:       fake.RandomStringElement(seedGoals),
		Activity:   fake.RandomStringElement(seedActivity),
		Experience: fake.RandomStringElement(seedExperience),
		Equipment:  equipment,
		Units:      units,
	}
}

func newSeedExercises(fake faker.Faker) []seedExercise {
	count := fake.IntBetween(2, 5)
	out := make([]seedExercise, 0, count)
	for i := 0; i < count; i++ {
		ex := seedExercise{Name: fake.RandomStringElement(seedExercises)}
		for j, n := 0, fake.IntBetween(2, 4); j < n; j++ {
			ex.Sets = append(ex.Sets, map[string]int{"reps": fake.IntBetween(5, 15)})
		}
		out = append(out, ex)
	}
	return out
}

func main() {
	users := flag.Int("users", 10, "number of users to create")
	days := flag.Int("days", 28, "days of history per user")
	flag.Parse()

	_ = godotenv.Load()
	log := zap.Must(zap.NewDevelopment()).Sugar()
	defer log.Sync()

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		log.Fatalw("unable to connect to database", "error", err)
	}
	defer conn.Close(ctx)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalw("hash password", "error", err)
	}

	fake := faker.New()
	now := time.Now().UTC()
	var ids []int

	for i, n := 0, *users; i < n; i++ {
		u := newSeedUser(fake, i)
		id, err := insertSeedUser(ctx, conn, u, string(hash), fake, now, *days)
		if err != nil {
			log.Fatalw("seed user", "username", u.Username, "error", err)
		}
		ids = append(ids, id)
		log.Infow("seeded", "user_id", id, "username", u.Username)
	}

	// Ring of accepted friendships so every leaderboard has neighbours.
	for i := range ids {
		if i == len(ids)-1 && len(ids) < 3 {
			break
		}
		a, b := ids[i], ids[(i+1)%len(ids)]
		if _, err := conn.Exec(ctx,
			`INSERT INTO friendships (requester_id, addressee_id, status, accepted_at)
			 VALUES ($1, $2, 'accepted', now()) ON CONFLICT DO NOTHING`, a, b); err != nil {
			log.Fatalw("seed friendship", "error", err)
		}
	}

	log.Infof("seeded %d users; password for all: %s", len(ids), seedPassword)
}

func insertSeedUser(ctx context.Context, conn *pgx.Conn, u seedUser, hash string, fake faker.Faker, now time.Time, days int) (int, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int
	if err := tx.QueryRow(ctx,
		`INSERT INTO users (username, email, password, auth_token) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.Username, u.Email, hash, uuid.New().String()).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	if u.Equipment == nil {
		u.Equipment = []string{}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO user_profiles (user_id, display_name, weight_kg, height_cm, age, gender, fitness_goal,
		   activity_level, experience_level, equipment, units, setup_complete)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)`,
		id, u.Username, u.WeightKG, u.HeightCM, u.Age, u.Gender, u.Goal,
		u.Activity, u.Experience, u.Equipment, u.Units); err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO user_goals (user_id, daily_steps) VALUES ($1, $2)",
		id, fake.IntBetween(6, 12)*1000); err != nil {
		return 0, fmt.Errorf("insert goals: %w", err)
	}

	weight := u.WeightKG
	for d := days; d > 0; d-- {
		day := now.AddDate(0, 0, -d)

		weight += float64(fake.IntBetween(-4, 3)) / 10
		if _, err := tx.Exec(ctx,
			`INSERT INTO health_metrics (user_id, type, value, unit, recorded_at, source)
			 VALUES ($1, 'weight', $2, 'kg', $3, 'seed'), ($1, 'steps', $4, 'steps', $3, 'seed')`,
			id, weight, day, fake.IntBetween(2000, 15000)); err != nil {
			return 0, fmt.Errorf("insert metrics: %w", err)
		}

		if fake.IntBetween(0, 2) != 0 {
			continue
		}
		exercises, err := json.Marshal(newSeedExercises(fake))
		if err != nil {
			return 0, err
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), fake.IntBetween(6, 19), 0, 0, 0, time.UTC)
		end := start.Add(time.Duration(fake.IntBetween(20, 90)) * time.Minute)
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_sessions (user_id, name, exercises, start_time, end_time)
			 VALUES ($1, $2, $3::jsonb, $4, $5)`,
			id, fake.RandomStringElement(seedWorkoutName), string(exercises), start, end); err != nil {
			return 0, fmt.Errorf("insert workout: %w", err)
		}
	}

	return id, tx.Commit(ctx)
}
