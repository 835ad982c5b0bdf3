package main

import (
	"testing"
	"time"
)

var boardDay = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)

// session builds a finished session starting hoursIn hours after boardDay.
func session(userID int, hoursIn, minutes int) workoutSession {
	start := boardDay.Add(time.Duration(hoursIn) * time.Hour)
	end := start.Add(time.Duration(minutes) * time.Minute)
	return workoutSession{UserID: userID, StartTime: start, EndTime: &end}
}

var boardPeople = []participant{
	{UserID: 1, Username: "carol"},
	{UserID: 2, Username: "alice"},
	{UserID: 3, Username: "bob"},
	{UserID: 4, Username: "dave"},
}

func TestRankLeaderboard_Workouts(t *testing.T) {
	sessions := []workoutSession{
		session(1, 1, 30), session(1, 30, 30),
		session(2, 2, 45), session(2, 50, 45),
		session(3, 3, 60),
	}

	got, err := rankLeaderboard(boardPeople, sessions, boardWorkouts, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		rank     int
		username string
		value    int
	}{
		{1, "alice", 2},
		{1, "carol", 2},
		{3, "bob", 1},
		{4, "dave", 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Rank != w.rank || got[i].Username != w.username || got[i].Value != w.value {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, got[i])
		}
	}
	if !got[2].IsMe {
		t.Error("bob should be flagged as the caller")
	}
}

func TestRankLeaderboard_Minutes(t *testing.T) {
	open := workoutSession{UserID: 3, StartTime: boardDay}
	sessions := []workoutSession{session(1, 1, 30), session(1, 5, 25), session(2, 2, 60), open}

	got, err := rankLeaderboard(boardPeople[:3], sessions, boardMinutes, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Username != "alice" || got[0].Value != 60 {
		t.Errorf("expected alice with 60, got %+v", got[0])
	}
	if got[1].Username != "carol" || got[1].Value != 55 {
		t.Errorf("expected carol with 55, got %+v", got[1])
	}
	if got[2].Value != 0 {
		t.Errorf("open sessions should count 0 minutes, got %d", got[2].Value)
	}
}

// TestRankLeaderboard_ActiveDays verifies two sessions on one UTC day count once.
func TestRankLeaderboard_ActiveDays(t *testing.T) {
	sessions := []workoutSession{
		session(1, 1, 30), session(1, 20, 30), // same day
		session(2, 1, 30), session(2, 25, 30), // two days
	}
	got, err := rankLeaderboard(boardPeople[:2], sessions, boardActiveDays, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Username != "alice" || got[0].Value != 2 || got[1].Value != 1 {
		t.Errorf("unexpected ranking %+v", got)
	}
}

func TestRankLeaderboard_Validation(t *testing.T) {
	if _, err := rankLeaderboard(boardPeople, nil, "calories", 1); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := boardPeriodStart(periodYear, boardDay); err == nil {
		t.Error("expected error for year period")
	}
	if from, err := boardPeriodStart(periodWeek, boardDay); err != nil || !from.Equal(boardDay.AddDate(0, 0, -7)) {
		t.Errorf("unexpected week start %v (%v)", from, err)
	}
}

func TestRankLeaderboard_Empty(t *testing.T) {
	got, err := rankLeaderboard(nil, nil, boardWorkouts, 1)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty board, got %v (%v)", got, err)
	}
}
