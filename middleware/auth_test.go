package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"tnr_clinic_go/db"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := testDB.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// Set the global DB variable used by middleware
	db.DB = testDB
	return testDB
}

func createUser(t *testing.T, testDB *gorm.DB, role string) *models.User {
	user := &models.User{
		Email:     role + "@clinic.test",
		Password:  "hash",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	if err := testDB.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestRequireAuth(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()

	user := createUser(t, testDB, models.RoleStaff)
	session, err := services.CreateSession(testDB, user.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)

	okHandler := RequireAuth()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	t.Run("ValidSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, okHandler(c))
		loaded := GetCurrentUser(c)
		assert.NotNil(t, loaded)
		assert.Equal(t, user.Email, loaded.Email)
	})

	t.Run("NoCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := okHandler(c)
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := okHandler(c)
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("DeactivatedUser", func(t *testing.T) {
		inactive := createUser(t, testDB, models.RoleTrapper)
		staleSession, err := services.CreateSession(testDB, inactive.ID, "127.0.0.1", "test-agent")
		assert.NoError(t, err)
		// Explicit update because of the GORM default:true tag
		assert.NoError(t, testDB.Model(inactive).Update("is_active", false).Error)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: staleSession.Token})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err = okHandler(c)
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestRequireRole(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()

	admin := createUser(t, testDB, models.RoleAdmin)
	staff := createUser(t, testDB, models.RoleStaff)

	handler := RequireRole(models.RoleAdmin)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUser, admin)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("StaffForbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUser, staff)

		err := handler(c)
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestIsAdmin(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	assert.False(t, IsAdmin(c))

	c.Set(ContextKeyUser, &models.User{Role: models.RoleStaff})
	assert.False(t, IsAdmin(c))

	c.Set(ContextKeyUser, &models.User{Role: models.RoleAdmin})
	assert.True(t, IsAdmin(c))
}
