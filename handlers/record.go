package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ListRecordsHandler returns a page of clinic records, newest cat number
// first. cursor is the last cat number of the previous page.
func ListRecordsHandler(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	var cursor *int64
	if raw := c.QueryParam("cursor"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid cursor"})
		}
		cursor = &n
	}

	records, err := services.ListRecords(db.DB, cursor, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load records")
	}
	return c.JSON(http.StatusOK, records)
}

// GetRecordHandler returns one clinic record
func GetRecordHandler(c echo.Context) error {
	var record models.Record
	if err := db.DB.First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load record")
	}
	return c.JSON(http.StatusOK, record)
}

// CreateRecordHandler runs the form-submission pipeline for a new record
func CreateRecordHandler(c echo.Context) error {
	var input services.RecordInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	cfg := c.Get("config").(*config.Config)
	record, err := services.CreateRecord(c.Request().Context(), db.DB, cfg, input)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		log.Printf("[WARNING] Record create failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create record")
	}
	return c.JSON(http.StatusCreated, record)
}

// UpdateRecordHandler applies an edit-form submission
func UpdateRecordHandler(c echo.Context) error {
	var input services.RecordInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	cfg := c.Get("config").(*config.Config)
	record, err := services.UpdateRecord(c.Request().Context(), db.DB, cfg, c.Param("id"), input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		if errors.Is(err, services.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		log.Printf("[WARNING] Record update failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update record")
	}
	return c.JSON(http.StatusOK, record)
}

// DeleteRecordHandler removes a record. Admin only, and the client must
// echo the record's cat ID as confirmation.
func DeleteRecordHandler(c echo.Context) error {
	var record models.Record
	if err := db.DB.First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load record")
	}

	if c.QueryParam("confirm") != record.CatID {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Confirmation does not match. Pass the record's cat ID as ?confirm=",
		})
	}

	if err := db.DB.Delete(&record).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete record")
	}

	log.Printf("[INFO] Record %s (cat %s) deleted by %s",
		record.ID, record.CatID, middleware.GetCurrentUser(c).Email)
	return c.JSON(http.StatusOK, map[string]string{"message": "Record deleted"})
}

type evaluateTIPRequest struct {
	TrapperID string `json:"trapper_id"`
	Service   string `json:"service"`
	Override  *bool  `json:"override"`
}

// EvaluateTIPHandler computes eligibility for the entry form, before save
func EvaluateTIPHandler(c echo.Context) error {
	var req evaluateTIPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	var trapper models.Trapper
	if err := db.DB.First(&trapper, "id = ?", req.TrapperID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trapper not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trapper")
	}

	eval := services.EvaluateTIP(trapper.Qualifies, req.Service, req.Override)
	return c.JSON(http.StatusOK, eval)
}

// RegenerateTIPFormHandler re-runs certificate generation for an eligible
// record whose form failed at creation time
func RegenerateTIPFormHandler(c echo.Context) error {
	cfg := c.Get("config").(*config.Config)

	record, err := services.RegenerateTIPForm(c.Request().Context(), db.DB, cfg, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Record not found"})
		}
		if errors.Is(err, services.ErrValidation) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		log.Printf("[WARNING] TIP form regeneration failed for record %s: %v", c.Param("id"), err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to regenerate TIP form")
	}
	return c.JSON(http.StatusOK, record)
}
