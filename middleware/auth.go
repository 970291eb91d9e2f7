package middleware

import (
	"net/http"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "tnr_clinic_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// RequireAuth validates the session cookie and loads the user into context.
// The frontend is a separate single-page app, so failures are JSON 401s,
// never redirects.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			session, err := services.ValidateSession(db.DB, cookie.Value)
			if err != nil {
				clearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired")
			}

			if !session.User.IsActive {
				clearSessionCookie(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "Account is disabled")
			}

			c.Set(ContextKeyUser, &session.User)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireRole is middleware that requires specific roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// IsAdmin reports whether the current user holds the admin role
func IsAdmin(c echo.Context) bool {
	user := GetCurrentUser(c)
	return user != nil && user.Role == models.RoleAdmin
}

// clearSessionCookie clears the session cookie
func clearSessionCookie(c echo.Context) {
	var isProduction bool
	if cfg, ok := c.Get("config").(*config.Config); ok {
		isProduction = cfg.Environment == "production"
	}

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	}
	c.SetCookie(cookie)
}
