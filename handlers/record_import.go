package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetImportTemplateHandler generates and serves the Excel import template
func GetImportTemplateHandler(c echo.Context) error {
	buf, err := services.GenerateImportTemplate()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate template")
	}

	c.Response().Header().Set("Content-Disposition", "attachment; filename=record_import_template.xlsx")
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportRecordsHandler handles the spreadsheet upload and batch import.
// The format is picked by file extension: .csv or .xlsx.
func ImportRecordsHandler(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Only .csv and .xlsx files are supported"})
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open file")
	}
	defer src.Close()

	cfg := c.Get("config").(*config.Config)
	ctx := c.Request().Context()
	user := middleware.GetCurrentUser(c)

	progress := func(processed, total int) {
		if processed%25 == 0 || processed == total {
			log.Printf("[INFO] Import %s by %s: %d/%d rows", file.Filename, user.Email, processed, total)
		}
	}

	var result *services.ImportResult
	if ext == ".csv" {
		result, err = services.ImportRecordsCSV(ctx, db.DB, cfg, src, progress)
	} else {
		result, err = services.ImportRecordsXLSX(ctx, db.DB, cfg, src, progress)
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}
