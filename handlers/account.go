package handlers

import (
	"errors"
	"log"
	"net/http"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ProvisionAccountHandler creates a user account on behalf of an admin.
// The service's failure taxonomy maps onto HTTP statuses one to one.
func ProvisionAccountHandler(c echo.Context) error {
	var input services.ProvisionAccountInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	callerID := ""
	if user := middleware.GetCurrentUser(c); user != nil {
		callerID = user.ID
	}

	cfg := c.Get("config").(*config.Config)
	id, err := services.ProvisionAccount(db.DB, cfg, callerID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		case errors.Is(err, services.ErrCallerNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, services.ErrPermissionDenied):
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidArgument):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		log.Printf("[WARNING] Account provisioning failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load created account")
	}
	return c.JSON(http.StatusCreated, user)
}

// ListAccountsHandler returns all user accounts (admin)
func ListAccountsHandler(c echo.Context) error {
	var users []models.User
	if err := db.DB.Order("created_at ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load accounts")
	}
	return c.JSON(http.StatusOK, users)
}

// DeactivateAccountHandler disables an account and revokes its sessions
// (admin). Accounts are never hard-deleted; their name stays attached to
// the records they entered.
func DeactivateAccountHandler(c echo.Context) error {
	caller := middleware.GetCurrentUser(c)
	targetID := c.Param("id")

	if caller.ID == targetID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "You cannot deactivate your own account"})
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Account not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load account")
	}

	if err := db.DB.Model(&user).Update("is_active", false).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to deactivate account")
	}
	if err := services.DeleteAllUserSessions(db.DB, user.ID); err != nil {
		log.Printf("[WARNING] Failed to revoke sessions for %s: %v", user.Email, err)
	}

	log.Printf("[INFO] Account %s deactivated by %s", user.Email, caller.Email)
	return c.JSON(http.StatusOK, map[string]string{"message": "Account deactivated"})
}
