package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestConvertWeight(t *testing.T) {
	cases := []struct {
		value    float64
		from, to weightUnit
		want     float64
	}{
		{100, unitKG, unitLBS, 220.462},
		{220.462, unitLBS, unitKG, 100},
		{72.5, unitKG, unitKG, 72.5},
		{0, unitLBS, unitKG, 0},
	}
	for _, tc := range cases {
		got, err := convertWeight(tc.value, tc.from, tc.to)
		if err != nil {
			t.Fatalf("convertWeight(%v, %s, %s): %v", tc.value, tc.from, tc.to, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("convertWeight(%v, %s, %s) = %v, want %v", tc.value, tc.from, tc.to, got, tc.want)
		}
	}
}

// TestConvertWeight_RoundTrip verifies kg -> lbs -> kg returns the input.
func TestConvertWeight_RoundTrip(t *testing.T) {
	for v := 20.0; v <= 300; v += 3.7 {
		lbs, _ := convertWeight(v, unitKG, unitLBS)
		kg, _ := convertWeight(lbs, unitLBS, unitKG)
		if math.Abs(kg-v) > 1e-9 {
			t.Errorf("round trip of %v gave %v", v, kg)
		}
	}
}

func TestConvertWeight_UnknownUnit(t *testing.T) {
	if _, err := convertWeight(1, "stone", unitKG); err == nil {
		t.Error("expected error for unknown source unit")
	}
	if _, err := convertWeight(1, unitKG, "g"); err == nil {
		t.Error("expected error for unknown target unit")
	}
}

func TestUnitSystem_WeightUnit(t *testing.T) {
	if unitsImperial.weightUnit() != unitLBS {
		t.Error("imperial should display lbs")
	}
	if unitsMetric.weightUnit() != unitKG {
		t.Error("metric should display kg")
	}
	if unitSystem("").weightUnit() != unitKG {
		t.Error("unset preference should display kg")
	}
}

func TestConvertUnits_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := Handler{}
	router := gin.New()
	router.GET("/api/units/convert", h.convertUnits)

	cases := []struct {
		query string
		code  int
		value float64
	}{
		{"value=80&from=kg&to=lbs", http.StatusOK, 176.37},
		{"value=176.37&from=lbs&to=kg", http.StatusOK, 80},
		{"value=abc&from=kg&to=lbs", http.StatusBadRequest, 0},
		{"value=80&from=kg&to=stone", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/units/convert?"+tc.query, nil))
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, w.Code, w.Body.String())
			}
			if tc.code != http.StatusOK {
				return
			}
			var resp struct {
				Value float64 `json:"value"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Value != tc.value {
				t.Errorf("expected %v, got %v", tc.value, resp.Value)
			}
		})
	}
}
