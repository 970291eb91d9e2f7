package services

import (
	"testing"
	"time"

	"tnr_clinic_go/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, database.AutoMigrate(&models.User{}, &models.Session{}))
	return database
}

func authTestUser(t *testing.T, db *gorm.DB) *models.User {
	hash, err := HashPassword("SecretPass123!")
	assert.NoError(t, err)
	user := &models.User{
		Email:     "vet@clinic.test",
		Password:  hash,
		FirstName: "Priya",
		LastName:  "Nair",
		Role:      models.RoleStaff,
	}
	assert.NoError(t, db.Create(user).Error)
	return user
}

func TestPasswordHashing(t *testing.T) {
	password := "SecretPass123!"

	hash, err := HashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, CheckPassword(password, hash))
	assert.False(t, CheckPassword("WrongPass", hash))
}

func TestGenerateSessionToken(t *testing.T) {
	token1, err := GenerateSessionToken()
	assert.NoError(t, err)
	assert.Len(t, token1, SessionTokenLength*2)

	token2, err := GenerateSessionToken()
	assert.NoError(t, err)
	assert.NotEqual(t, token1, token2)
}

func TestSessionLifecycle(t *testing.T) {
	db := setupAuthTestDB(t)
	user := authTestUser(t, db)

	session, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	t.Run("Validate Known Token", func(t *testing.T) {
		found, err := ValidateSession(db, session.Token)
		assert.NoError(t, err)
		assert.Equal(t, session.ID, found.ID)
		assert.Equal(t, user.Email, found.User.Email)
	})

	t.Run("Validate Unknown Token", func(t *testing.T) {
		_, err := ValidateSession(db, "no-such-token")
		assert.Error(t, err)
	})

	t.Run("Delete Session", func(t *testing.T) {
		assert.NoError(t, DeleteSession(db, session.Token))
		_, err := ValidateSession(db, session.Token)
		assert.Error(t, err)
	})
}

func TestValidateExpiredSession(t *testing.T) {
	db := setupAuthTestDB(t)
	user := authTestUser(t, db)

	session, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)

	// Backdate the expiry so validation treats it as stale
	assert.NoError(t, db.Model(session).Update("expires_at", time.Now().Add(-time.Hour)).Error)

	_, err = ValidateSession(db, session.Token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expired")

	// Expired sessions are removed on validation
	var count int64
	db.Model(&models.Session{}).Where("token = ?", session.Token).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := setupAuthTestDB(t)
	user := authTestUser(t, db)

	live, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
	stale, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)
	assert.NoError(t, db.Model(stale).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	assert.NoError(t, CleanupExpiredSessions(db))

	var tokens []string
	db.Model(&models.Session{}).Pluck("token", &tokens)
	assert.Equal(t, []string{live.Token}, tokens)
}

func TestDeleteAllUserSessions(t *testing.T) {
	db := setupAuthTestDB(t)
	user := authTestUser(t, db)
	other := &models.User{
		Email:     "admin@clinic.test",
		Password:  "x",
		FirstName: "Alex",
		LastName:  "Romero",
		Role:      models.RoleAdmin,
	}
	assert.NoError(t, db.Create(other).Error)

	for i := 0; i < 3; i++ {
		_, err := CreateSession(db, user.ID, "127.0.0.1", "test-agent")
		assert.NoError(t, err)
	}
	kept, err := CreateSession(db, other.ID, "127.0.0.1", "test-agent")
	assert.NoError(t, err)

	assert.NoError(t, DeleteAllUserSessions(db, user.ID))

	var remaining []models.Session
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, kept.Token, remaining[0].Token)
}
