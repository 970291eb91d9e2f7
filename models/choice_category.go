package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Choice category keys for the clinic dropdowns
const (
	ChoiceCategoryKeyServices      = "services"
	ChoiceCategoryKeySurgeries     = "surgeries"
	ChoiceCategoryKeyColors        = "colors"
	ChoiceCategoryKeyBreeds        = "breeds"
	ChoiceCategoryKeyAges          = "ages"
	ChoiceCategoryKeyDrugs         = "drugs"
	ChoiceCategoryKeyOutcomes      = "outcomes"
	ChoiceCategoryKeySurgicalNotes = "surgical_notes"
)

// ChoiceCategory represents a configurable dropdown category
type ChoiceCategory struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Key      string `gorm:"not null;uniqueIndex" json:"key"` // e.g. "services", "breeds"
	Name     string `gorm:"not null" json:"name"`            // Human-readable name
	IsSystem bool   `gorm:"not null;default:false" json:"is_system"` // Prevents deletion of system categories

	// Relationships
	Options []ChoiceOption `gorm:"foreignKey:CategoryID" json:"options,omitempty"`
}

// BeforeCreate hook to generate UUID
func (cc *ChoiceCategory) BeforeCreate(tx *gorm.DB) error {
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ChoiceCategory model
func (ChoiceCategory) TableName() string {
	return "choice_categories"
}
