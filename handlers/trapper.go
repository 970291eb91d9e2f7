package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// TrapperInput is the create/edit payload for a trapper profile. Structured
// address and name fields win; the combined fields are parsed only when the
// structured ones are absent (legacy form and import preview both send the
// combined shape).
type TrapperInput struct {
	TrapperID string `json:"trapper_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Address   string `json:"address"`

	Qualifies *bool `json:"qualifies"`
}

// ListTrappersHandler returns a page of trapper profiles ordered by creation
// time descending. Cursor is the previous page's last profile id.
func ListTrappersHandler(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	query := db.DB.Order("created_at DESC, id DESC").Limit(limit)

	if cursor := c.QueryParam("cursor"); cursor != "" {
		var pivot models.Trapper
		if err := db.DB.First(&pivot, "id = ?", cursor).Error; err == nil {
			query = query.Where(
				"(created_at < ?) OR (created_at = ? AND id < ?)",
				pivot.CreatedAt, pivot.CreatedAt, pivot.ID,
			)
		}
	}

	if search := strings.TrimSpace(c.QueryParam("q")); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"trapper_id LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			like, like, like,
		)
	}

	var trappers []models.Trapper
	if err := query.Find(&trappers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trappers")
	}
	return c.JSON(http.StatusOK, trappers)
}

// GetTrapperHandler returns one trapper profile
func GetTrapperHandler(c echo.Context) error {
	var trapper models.Trapper
	if err := db.DB.First(&trapper, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trapper not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trapper")
	}
	return c.JSON(http.StatusOK, trapper)
}

// CreateTrapperHandler creates a trapper profile
func CreateTrapperHandler(c echo.Context) error {
	var input TrapperInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	trapper := models.Trapper{}
	if err := applyTrapperInput(&trapper, &input, c); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := db.DB.Create(&trapper).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create trapper")
	}
	return c.JSON(http.StatusCreated, trapper)
}

// UpdateTrapperHandler updates a trapper profile. Existing records keep
// their snapshot of the old values; only future records see the change.
func UpdateTrapperHandler(c echo.Context) error {
	var trapper models.Trapper
	if err := db.DB.First(&trapper, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trapper not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trapper")
	}

	var input TrapperInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if err := applyTrapperInput(&trapper, &input, c); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := db.DB.Save(&trapper).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update trapper")
	}
	return c.JSON(http.StatusOK, trapper)
}

// DeleteTrapperHandler removes a trapper profile. Admin only, and the
// client must echo the profile's external code as confirmation.
func DeleteTrapperHandler(c echo.Context) error {
	var trapper models.Trapper
	if err := db.DB.First(&trapper, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trapper not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trapper")
	}

	confirm := c.QueryParam("confirm")
	expected := trapper.TrapperID
	if expected == "" {
		expected = trapper.FullName()
	}
	if confirm != expected {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Confirmation does not match. Pass the trapper's ID (or full name) as ?confirm=",
		})
	}

	if err := db.DB.Delete(&trapper).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete trapper")
	}

	log.Printf("[INFO] Trapper %s (%s) deleted by %s",
		trapper.ID, trapper.FullName(), middleware.GetCurrentUser(c).Email)
	return c.JSON(http.StatusOK, map[string]string{"message": "Trapper deleted"})
}

// UploadTrapperSignatureHandler stores a signature image on the profile
func UploadTrapperSignatureHandler(c echo.Context) error {
	var trapper models.Trapper
	if err := db.DB.First(&trapper, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Trapper not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trapper")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	key, err := services.SaveSignature(c.Request().Context(), file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := db.DB.Model(&trapper).Update("signature_key", key).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save signature reference")
	}

	trapper.SignatureKey = key
	return c.JSON(http.StatusOK, trapper)
}

// applyTrapperInput copies a payload onto the profile, parsing the combined
// name/address fields when the structured ones are empty. The qualifies flag
// is admin-gated.
func applyTrapperInput(trapper *models.Trapper, input *TrapperInput, c echo.Context) error {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" && input.FullName != "" {
		first, last = services.SplitName(input.FullName)
	}
	if first == "" {
		return errors.New("first name is required")
	}

	trapper.TrapperID = strings.TrimSpace(input.TrapperID)
	trapper.FirstName = first
	trapper.LastName = last
	trapper.Email = strings.TrimSpace(input.Email)
	trapper.Phone = strings.TrimSpace(input.Phone)

	if input.Street == "" && input.Address != "" {
		parsed, ok := services.ParseAddress(input.Address)
		if !ok {
			log.Printf("[WARNING] Trapper address %q did not parse; stored as street only", input.Address)
		}
		trapper.Street = parsed.Street
		trapper.Apartment = parsed.Apartment
		trapper.City = parsed.City
		trapper.State = parsed.State
		trapper.Zip = parsed.Zip
	} else {
		trapper.Street = strings.TrimSpace(input.Street)
		trapper.Apartment = strings.TrimSpace(input.Apartment)
		trapper.City = strings.TrimSpace(input.City)
		trapper.State = strings.TrimSpace(input.State)
		trapper.Zip = strings.TrimSpace(input.Zip)
	}

	if input.Qualifies != nil && *input.Qualifies != trapper.Qualifies {
		if !middleware.IsAdmin(c) {
			return errors.New("only admins can change program eligibility")
		}
		trapper.Qualifies = *input.Qualifies
	}
	return nil
}
