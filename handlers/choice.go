package handlers

import (
	"errors"
	"net/http"
	"strings"

	"tnr_clinic_go/db"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ListChoicesHandler returns every dropdown category with its active
// options, for the entry form to populate all selects in one request
func ListChoicesHandler(c echo.Context) error {
	categories, err := services.GetChoiceCategories(db.DB)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load choice sets")
	}
	return c.JSON(http.StatusOK, categories)
}

// GetChoiceOptionsHandler returns the active options of one category
func GetChoiceOptionsHandler(c echo.Context) error {
	options, err := services.GetChoiceOptions(db.DB, c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load options")
	}
	return c.JSON(http.StatusOK, options)
}

type choiceOptionInput struct {
	Label string `json:"label"`
}

// AddChoiceOptionHandler appends an option to a category (admin)
func AddChoiceOptionHandler(c echo.Context) error {
	var input choiceOptionInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	label := strings.TrimSpace(input.Label)
	if label == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Label is required"})
	}

	option, err := services.AddChoiceOption(db.DB, c.Param("key"), label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Category not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to add option")
	}
	return c.JSON(http.StatusCreated, option)
}

type choiceOptionUpdate struct {
	Label    *string `json:"label"`
	IsActive *bool   `json:"is_active"`
}

// UpdateChoiceOptionHandler renames or retires an option (admin).
// Deactivation hides the option from new entries; stored records keep the
// literal value they were saved with.
func UpdateChoiceOptionHandler(c echo.Context) error {
	var option models.ChoiceOption
	if err := db.DB.First(&option, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Option not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load option")
	}

	var input choiceOptionUpdate
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if input.Label != nil {
		label := strings.TrimSpace(*input.Label)
		if label == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Label cannot be empty"})
		}
		updates["label"] = label
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusOK, option)
	}

	if err := db.DB.Model(&option).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update option")
	}
	return c.JSON(http.StatusOK, option)
}

type reorderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

// ReorderChoiceOptionsHandler rewrites a category's display order (admin)
func ReorderChoiceOptionsHandler(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if err := services.ReorderChoiceOptions(db.DB, c.Param("key"), req.OrderedIDs); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	options, err := services.GetChoiceOptions(db.DB, c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load options")
	}
	return c.JSON(http.StatusOK, options)
}
