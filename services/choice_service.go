package services

import (
	"fmt"
	"log"

	"tnr_clinic_go/models"

	"gorm.io/gorm"
)

// GetChoiceCategories returns all dropdown categories with their active
// options in display order
func GetChoiceCategories(db *gorm.DB) ([]models.ChoiceCategory, error) {
	var categories []models.ChoiceCategory
	err := db.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Find(&categories).Error
	return categories, err
}

// GetChoiceOptions fetches active options for a category key, in display order
func GetChoiceOptions(db *gorm.DB, categoryKey string) ([]models.ChoiceOption, error) {
	var options []models.ChoiceOption

	err := db.
		Joins("JOIN choice_categories ON choice_categories.id = choice_options.category_id").
		Where("choice_categories.key = ?", categoryKey).
		Where("choice_options.is_active = ?", true).
		Order("choice_options.sort_order ASC").
		Find(&options).Error

	return options, err
}

// AddChoiceOption appends a new option to the end of a category's list
func AddChoiceOption(db *gorm.DB, categoryKey string, label string) (*models.ChoiceOption, error) {
	var category models.ChoiceCategory
	if err := db.First(&category, "key = ?", categoryKey).Error; err != nil {
		return nil, fmt.Errorf("category %q not found: %w", categoryKey, err)
	}

	var maxOrder int
	db.Model(&models.ChoiceOption{}).
		Where("category_id = ?", category.ID).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&maxOrder)

	option := models.ChoiceOption{
		CategoryID: category.ID,
		Label:      label,
		SortOrder:  maxOrder + 1,
		IsActive:   true,
	}
	if err := db.Create(&option).Error; err != nil {
		return nil, fmt.Errorf("failed to create option: %w", err)
	}
	return &option, nil
}

// ReorderChoiceOptions rewrites the display order of a category's options.
// orderedIDs must contain every active option of the category exactly once.
// Two admins reordering at once is last-write-wins; there is no conflict
// detection at this deployment size.
func ReorderChoiceOptions(db *gorm.DB, categoryKey string, orderedIDs []string) error {
	var category models.ChoiceCategory
	if err := db.First(&category, "key = ?", categoryKey).Error; err != nil {
		return fmt.Errorf("category %q not found: %w", categoryKey, err)
	}

	var count int64
	db.Model(&models.ChoiceOption{}).
		Where("category_id = ? AND is_active = ?", category.ID, true).
		Count(&count)
	if int(count) != len(orderedIDs) {
		return fmt.Errorf("order list has %d entries, category has %d active options", len(orderedIDs), count)
	}

	for i, id := range orderedIDs {
		result := db.Model(&models.ChoiceOption{}).
			Where("id = ? AND category_id = ?", id, category.ID).
			Update("sort_order", i)
		if result.Error != nil {
			return fmt.Errorf("failed to reorder options: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("option %s does not belong to category %q", id, categoryKey)
		}
	}
	return nil
}

// defaultChoices are seeded once on first boot; admins edit from there
var defaultChoices = []struct {
	key     string
	name    string
	options []string
}{
	{models.ChoiceCategoryKeyServices, "Services", []string{"MD-TNVR", "TNR", "Rescue", "Owned Cat SX"}},
	{models.ChoiceCategoryKeySurgeries, "Surgeries", []string{"Spay (Female)", "Neuter (Male)", "Already Altered", "Cryptorchid Neuter (Male)", "In-Heat Spay (Female)", "Pregnant Spay (Female)"}},
	{models.ChoiceCategoryKeyColors, "Colors", []string{"Black", "White", "Brown", "Orange", "Grey", "Tabby", "Calico", "Tortoiseshell", "Tuxedo", "Siamese Points"}},
	{models.ChoiceCategoryKeyBreeds, "Breeds", []string{"DSH", "DMH", "DLH", "Siamese", "Maine Coon"}},
	{models.ChoiceCategoryKeyAges, "Estimated Ages", []string{"< 4 months", "4-6 months", "6-12 months", "1-3 years", "3-5 years", "5+ years"}},
	{models.ChoiceCategoryKeyDrugs, "Drugs", []string{"TKX", "Ketamine", "Buprenorphine", "Onsior"}},
	{models.ChoiceCategoryKeyOutcomes, "Outcomes", []string{"Returned", "Rescue", "Adopted", "Deceased", "DOA"}},
	{models.ChoiceCategoryKeySurgicalNotes, "Surgical Notes", []string{"Ear Tip", "Hernia Repair", "Lactating", "Pregnant", "Pyometra", "Cryptorchid"}},
}

// SeedDefaultChoices creates the clinic dropdown categories that do not
// exist yet. Safe to run on every boot.
func SeedDefaultChoices(db *gorm.DB) error {
	for _, def := range defaultChoices {
		var existing models.ChoiceCategory
		if err := db.First(&existing, "key = ?", def.key).Error; err == nil {
			continue // Already seeded
		}

		category := models.ChoiceCategory{
			Key:      def.key,
			Name:     def.name,
			IsSystem: true,
		}
		if err := db.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to seed category %q: %w", def.key, err)
		}

		for i, label := range def.options {
			option := models.ChoiceOption{
				CategoryID: category.ID,
				Label:      label,
				SortOrder:  i,
				IsActive:   true,
			}
			if err := db.Create(&option).Error; err != nil {
				return fmt.Errorf("failed to seed option %q: %w", label, err)
			}
		}
		log.Printf("Seeded choice category %q with %d options", def.key, len(def.options))
	}
	return nil
}
