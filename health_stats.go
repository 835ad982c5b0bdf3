package main

import (
	"sort"
	"time"
)

// Trend directions.
const (
	trendIncreasing = "increasing"
	trendDecreasing = "decreasing"
	trendStable     = "stable"
)

// minTrendSamples is the smallest group that gets a two-half trend.
const minTrendSamples = 4

// metricTypeUnits lists accepted metric types with their default unit.
var metricTypeUnits = map[string]string{
	"weight":                   "kg",
	"body_fat":                 "%",
	"heart_rate":               "bpm",
	"resting_heart_rate":       "bpm",
	"blood_pressure_systolic":  "mmHg",
	"blood_pressure_diastolic": "mmHg",
	"steps":                    "steps",
	"sleep_hours":              "hours",
	"water_intake":             "ml",
	"calories_burned":          "kcal",
	"active_minutes":           "min",
}

// statsPeriod is the window a statistics request covers, ending now.
type statsPeriod string

const (
	periodWeek  statsPeriod = "week"
	periodMonth statsPeriod = "month"
	periodYear  statsPeriod = "year"
)

// start returns the first instant of the window ending at now.
func (p statsPeriod) start(now time.Time) (time.Time, error) {
	switch p {
	case periodWeek:
		return now.AddDate(0, 0, -7), nil
	case periodMonth:
		return now.AddDate(0, -1, 0), nil
	case periodYear:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, invalid("period", "must be one of: week, month, year")
}

type metricTrend struct {
	FirstHalfAverage  float64 `json:"first_half_average"`
	SecondHalfAverage float64 `json:"second_half_average"`
	Change            float64 `json:"change"`
	ChangePercent     float64 `json:"change_percent"`
	Direction         string  `json:"direction"`
}

type metricSummary struct {
	Count   int          `json:"count"`
	Average float64      `json:"average"`
	Min     float64      `json:"min"`
	Max     float64      `json:"max"`
	Sum     float64      `json:"sum"`
	Unit    string       `json:"unit"`
	Latest  float64      `json:"latest"`
	Trend   *metricTrend `json:"trend,omitempty"`
}

type healthStats struct {
	Period  statsPeriod              `json:"period"`
	From    time.Time                `json:"from"`
	To      time.Time                `json:"to"`
	Metrics map[string]metricSummary `json:"metrics"`
	Daily   map[string]int           `json:"daily"`
}

// aggregateHealthStats summarises samples recorded in [now-period, now],
// optionally for one metric type. Types with no samples in the window are
// left out of Metrics.
func aggregateHealthStats(samples []healthMetric, period statsPeriod, metricType string, now time.Time) (healthStats, error) {
	from, err := period.start(now)
	if err != nil {
		return healthStats{}, err
	}

	kept := make([]healthMetric, 0, len(samples))
	for _, s := range samples {
		if metricType != "" && s.Type != metricType {
			continue
		}
		if s.RecordedAt.Before(from) || s.RecordedAt.After(now) {
			continue
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].RecordedAt.Before(kept[j].RecordedAt) })

	stats := healthStats{
		Period:  period,
		From:    from,
		To:      now,
		Metrics: map[string]metricSummary{},
		Daily:   map[string]int{},
	}

	groups := map[string][]healthMetric{}
	for _, s := range kept {
		groups[s.Type] = append(groups[s.Type], s)
		stats.Daily[s.RecordedAt.UTC().Format("2006-01-02")]++
	}
	for t, group := range groups {
		stats.Metrics[t] = summarize(group)
	}
	return stats, nil
}

// summarize computes the summary of a non-empty, chronologically ordered group.
func summarize(group []healthMetric) metricSummary {
	values := make([]float64, len(group))
	for i, s := range group {
		values[i] = s.Value
	}

	sum, lo, hi := values[0], values[0], values[0]
	for _, v := range values[1:] {
		sum += v
		lo = min(lo, v)
		hi = max(hi, v)
	}

	last := group[len(group)-1]
	summary := metricSummary{
		Count:   len(values),
		Average: roundTo(sum/float64(len(values)), 2),
		Min:     roundTo(lo, 2),
		Max:     roundTo(hi, 2),
		Sum:     roundTo(sum, 2),
		Unit:    last.Unit,
		Latest:  roundTo(last.Value, 2),
	}
	if len(values) >= minTrendSamples {
		t := computeTrend(values)
		summary.Trend = &t
	}
	return summary
}

// computeTrend compares the mean of the first ⌊n/2⌋ values with the rest.
// Direction is stable only when the two means are exactly equal.
func computeTrend(values []float64) metricTrend {
	half := len(values) / 2
	first, second := mean(values[:half]), mean(values[half:])
	change := second - first

	var pct float64
	if first != 0 {
		pct = change / first * 100
	}

	dir := trendStable
	switch {
	case change > 0:
		dir = trendIncreasing
	case change < 0:
		dir = trendDecreasing
	}

	return metricTrend{
		FirstHalfAverage:  roundTo(first, 2),
		SecondHalfAverage: roundTo(second, 2),
		Change:            roundTo(change, 2),
		ChangePercent:     roundTo(pct, 2),
		Direction:         dir,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// validateMetricType returns the default unit for t.
func validateMetricType(t string) (string, error) {
	unit, ok := metricTypeUnits[t]
	if !ok {
		return "", invalid("type", "must be one of: %s", keysOf(metricTypeUnits))
	}
	return unit, nil
}
