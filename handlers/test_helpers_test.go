package handlers

import (
	"io"
	"net/http/httptest"
	"testing"

	"tnr_clinic_go/config"
	"tnr_clinic_go/db"
	"tnr_clinic_go/middleware"
	"tnr_clinic_go/models"
	"tnr_clinic_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)

	// Initialize Storage for tests if not already set
	if services.Storage == nil {
		services.Storage = services.NewLocalStorage(t.TempDir())
	}

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Trapper{},
		&models.Record{},
		&models.DosageChartRow{},
		&models.ChoiceCategory{},
		&models.ChoiceOption{},
	)
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Set("config", testConfig())

	return e, c, rec
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:            "test",
		EmailTestMode:          true,
		InitialAccountPassword: "ChangeMe!2024",
		TIPCoordinatorName:     "Maria Delgado, TIP Coordinator",
	}
}

// actAs places a user in the request context the way RequireAuth would
func actAs(c echo.Context, user *models.User) {
	c.Set(middleware.ContextKeyUser, user)
}

func createTestAdmin(t *testing.T, testDB *gorm.DB) *models.User {
	hash, err := services.HashPassword("test-password")
	assert.NoError(t, err)

	admin := &models.User{
		Email:     "admin@clinic.org",
		Password:  hash,
		FirstName: "Ada",
		Role:      models.RoleAdmin,
		IsActive:  true,
	}
	assert.NoError(t, testDB.Create(admin).Error)
	return admin
}

func createTestTrapper(t *testing.T, testDB *gorm.DB, qualifies bool) *models.Trapper {
	trapper := &models.Trapper{
		TrapperID: "MD-1042",
		FirstName: "Jane",
		LastName:  "Doe",
		Street:    "123 Main St",
		City:      "Miami",
		State:     "FL",
		Zip:       "33101",
		Qualifies: qualifies,
	}
	assert.NoError(t, testDB.Create(trapper).Error)
	return trapper
}
