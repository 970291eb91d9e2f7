package services

import (
	"testing"

	"tnr_clinic_go/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupChoiceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.ChoiceCategory{}, &models.ChoiceOption{}))
	return db
}

func TestSeedDefaultChoices(t *testing.T) {
	db := setupChoiceTestDB(t)

	assert.NoError(t, SeedDefaultChoices(db))

	categories, err := GetChoiceCategories(db)
	assert.NoError(t, err)
	assert.Len(t, categories, len(defaultChoices))

	services, err := GetChoiceOptions(db, models.ChoiceCategoryKeyServices)
	assert.NoError(t, err)
	assert.Equal(t, "MD-TNVR", services[0].Label)

	t.Run("Idempotent", func(t *testing.T) {
		assert.NoError(t, SeedDefaultChoices(db))

		options, err := GetChoiceOptions(db, models.ChoiceCategoryKeyServices)
		assert.NoError(t, err)
		assert.Len(t, options, len(services))
	})
}

func TestChoiceOptions(t *testing.T) {
	db := setupChoiceTestDB(t)
	assert.NoError(t, SeedDefaultChoices(db))

	t.Run("Add Appends To The End", func(t *testing.T) {
		before, err := GetChoiceOptions(db, models.ChoiceCategoryKeyDrugs)
		assert.NoError(t, err)

		added, err := AddChoiceOption(db, models.ChoiceCategoryKeyDrugs, "Meloxicam")
		assert.NoError(t, err)
		assert.Equal(t, len(before), added.SortOrder)

		after, err := GetChoiceOptions(db, models.ChoiceCategoryKeyDrugs)
		assert.NoError(t, err)
		assert.Equal(t, "Meloxicam", after[len(after)-1].Label)
	})

	t.Run("Unknown Category", func(t *testing.T) {
		_, err := AddChoiceOption(db, "no_such_category", "X")
		assert.Error(t, err)
	})

	t.Run("Inactive Options Are Hidden", func(t *testing.T) {
		options, err := GetChoiceOptions(db, models.ChoiceCategoryKeyBreeds)
		assert.NoError(t, err)

		retired := options[len(options)-1]
		// Explicit update because of the GORM default:true tag
		assert.NoError(t, db.Model(&retired).Update("is_active", false).Error)

		visible, err := GetChoiceOptions(db, models.ChoiceCategoryKeyBreeds)
		assert.NoError(t, err)
		assert.Len(t, visible, len(options)-1)
		for _, opt := range visible {
			assert.NotEqual(t, retired.ID, opt.ID)
		}
	})
}

func TestReorderChoiceOptions(t *testing.T) {
	db := setupChoiceTestDB(t)
	assert.NoError(t, SeedDefaultChoices(db))

	options, err := GetChoiceOptions(db, models.ChoiceCategoryKeyOutcomes)
	assert.NoError(t, err)

	t.Run("Reversed", func(t *testing.T) {
		reversed := make([]string, len(options))
		for i, opt := range options {
			reversed[len(options)-1-i] = opt.ID
		}
		assert.NoError(t, ReorderChoiceOptions(db, models.ChoiceCategoryKeyOutcomes, reversed))

		after, err := GetChoiceOptions(db, models.ChoiceCategoryKeyOutcomes)
		assert.NoError(t, err)
		assert.Equal(t, options[0].ID, after[len(after)-1].ID)
		assert.Equal(t, options[len(options)-1].ID, after[0].ID)
	})

	t.Run("Incomplete List Rejected", func(t *testing.T) {
		err := ReorderChoiceOptions(db, models.ChoiceCategoryKeyOutcomes, []string{options[0].ID})
		assert.Error(t, err)
	})

	t.Run("Foreign Option Rejected", func(t *testing.T) {
		foreign, err := GetChoiceOptions(db, models.ChoiceCategoryKeyDrugs)
		assert.NoError(t, err)

		ids := make([]string, len(options))
		for i, opt := range options {
			ids[i] = opt.ID
		}
		ids[0] = foreign[0].ID
		assert.Error(t, ReorderChoiceOptions(db, models.ChoiceCategoryKeyOutcomes, ids))
	})
}
