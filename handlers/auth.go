package handlers

import (
	"net/http"
	"strings"
	"time"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
)

var globalDummyHash string

func init() {
	// Generate a real dummy hash at startup so failed lookups and failed
	// password checks take the same time
	if hash, err := services.HashPassword("dummy-password-for-timing"); err == nil {
		globalDummyHash = hash
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates a user and sets the session cookie
func LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
	}

	var user models.User
	err := db.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		// Timing attack mitigation: always run the bcrypt check
		services.CheckPassword(req.Password, globalDummyHash)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	if !services.CheckPassword(req.Password, user.Password) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
	}

	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Your account has been deactivated"})
	}

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	cfg := c.Get("config").(*config.Config)
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(services.DefaultSessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})

	now := time.Now()
	user.LastLoginAt = &now
	db.DB.Model(&user).Update("last_login_at", now)

	return c.JSON(http.StatusOK, user)
}

// LogoutHandler deletes the session and clears the cookie
func LogoutHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
		services.DeleteSession(db.DB, cookie.Value)
	}

	cfg := c.Get("config").(*config.Config)
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetCurrentUserHandler returns the authenticated user's profile
func GetCurrentUserHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, user)
}
