package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"tnr_clinic_go/db"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type dosageChartRowInput struct {
	Weight float64           `json:"wt"`
	Doses  map[string]string `json:"doses"`
}

// GetDosageChartHandler returns the full chart, lightest row first
func GetDosageChartHandler(c echo.Context) error {
	rows, err := services.GetDosageChart(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dosage chart")
	}
	return c.JSON(http.StatusOK, rows)
}

// LookupDosageHandler resolves a dose for the entry form, before save
func LookupDosageHandler(c echo.Context) error {
	weight, err := strconv.ParseFloat(c.QueryParam("weight"), 64)
	if err != nil || weight <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "A positive weight is required"})
	}
	drug := c.QueryParam("drug")
	if drug == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "A drug name is required"})
	}

	dosage, err := services.LookupDosage(db.DB, weight, drug)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve dosage")
	}
	return c.JSON(http.StatusOK, map[string]string{"dosage": dosage})
}

// AddDosageChartRowHandler adds a weight row to the chart (admin)
func AddDosageChartRowHandler(c echo.Context) error {
	var input dosageChartRowInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if input.Weight <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Weight must be positive"})
	}

	row, err := services.AddDosageChartRow(db.DB, input.Weight, input.Doses)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, row)
}

// UpdateDosageChartRowHandler replaces a row's weight and doses (admin)
func UpdateDosageChartRowHandler(c echo.Context) error {
	var input dosageChartRowInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if input.Weight <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Weight must be positive"})
	}

	row, err := services.UpdateDosageChartRow(db.DB, c.Param("id"), input.Weight, input.Doses)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Chart row not found"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, row)
}

// DeleteDosageChartRowHandler removes a row from the chart (admin)
func DeleteDosageChartRowHandler(c echo.Context) error {
	if err := services.DeleteDosageChartRow(db.DB, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Chart row not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete chart row")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Chart row deleted"})
}
