package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// lbsPerKG is the fixed kg -> lbs factor used everywhere weights are converted.
const lbsPerKG = 2.20462

// weightUnit is a linear unit of body weight.
type weightUnit string

const (
	unitKG  weightUnit = "kg"
	unitLBS weightUnit = "lbs"
)

// unitSystem is a user's display preference. It lives on the profile and is
// passed into every conversion explicitly.
type unitSystem string

const (
	unitsMetric   unitSystem = "metric"
	unitsImperial unitSystem = "imperial"
)

func (u unitSystem) valid() bool {
	return u == unitsMetric || u == unitsImperial
}

// weightUnit returns the weight unit displayed for the preference.
// Anything other than imperial displays kilograms.
func (u unitSystem) weightUnit() weightUnit {
	if u == unitsImperial {
		return unitLBS
	}
	return unitKG
}

// convertWeight converts value between kg and lbs.
func convertWeight(value float64, from, to weightUnit) (float64, error) {
	if !from.valid() {
		return 0, fmt.Errorf("unsupported unit %q", from)
	}
	if !to.valid() {
		return 0, fmt.Errorf("unsupported unit %q", to)
	}
	if from == to {
		return value, nil
	}
	if from == unitKG {
		return value * lbsPerKG, nil
	}
	return value / lbsPerKG, nil
}

func (w weightUnit) valid() bool {
	return w == unitKG || w == unitLBS
}

// convertUnits handles GET /api/units/convert?value=80&from=kg&to=lbs.
func (h *Handler) convertUnits(c *gin.Context) {
	value, err := strconv.ParseFloat(c.Query("value"), 64)
	if err != nil || !isFinite(value) {
		apiError(c, http.StatusBadRequest, "value must be a number")
		return
	}
	from, to := weightUnit(c.Query("from")), weightUnit(c.Query("to"))
	converted, err := convertWeight(value, from, to)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": roundTo(converted, 2), "unit": to})
}
