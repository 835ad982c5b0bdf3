package main

import (
	"sort"
	"time"
)

// Leaderboard metrics.
const (
	boardWorkouts   = "workouts"
	boardMinutes    = "minutes"
	boardActiveDays = "active_days"
)

var validBoardMetrics = setOf(boardWorkouts, boardMinutes, boardActiveDays)

// participant is a user eligible for the caller's leaderboard.
type participant struct {
	UserID   int    `db:"user_id"`
	Username string `db:"username"`
}

type leaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Value    int    `json:"value"`
	IsMe     bool   `json:"is_me"`
}

// boardPeriodStart returns the start of a leaderboard window ending at now.
// Only week and month are offered.
func boardPeriodStart(period statsPeriod, now time.Time) (time.Time, error) {
	if period != periodWeek && period != periodMonth {
		return time.Time{}, invalid("period", "must be one of: week, month")
	}
	return period.start(now)
}

// rankLeaderboard scores every participant on metric using their sessions
// and assigns standard competition ranks (1, 2, 2, 4). Equal scores are
// ordered by username. Participants without sessions score 0.
func rankLeaderboard(participants []participant, sessions []workoutSession, metric string, callerID int) ([]leaderboardEntry, error) {
	if !validBoardMetrics[metric] {
		return nil, invalid("metric", "must be one of: %s", keysOf(validBoardMetrics))
	}

	byUser := map[int][]workoutSession{}
	for _, s := range sessions {
		byUser[s.UserID] = append(byUser[s.UserID], s)
	}

	entries := make([]leaderboardEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, leaderboardEntry{
			UserID:   p.UserID,
			Username: p.Username,
			Value:    score(byUser[p.UserID], metric),
			IsMe:     p.UserID == callerID,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		if i > 0 && entries[i].Value == entries[i-1].Value {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}

func score(sessions []workoutSession, metric string) int {
	switch metric {
	case boardMinutes:
		total := 0
		for _, s := range sessions {
			if d := withDuration(s).DurationMinutes; d != nil {
				total += *d
			}
		}
		return total
	case boardActiveDays:
		days := map[string]bool{}
		for _, s := range sessions {
			days[s.StartTime.UTC().Format("2006-01-02")] = true
		}
		return len(days)
	}
	return len(sessions)
}
