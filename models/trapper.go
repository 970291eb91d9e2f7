package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trapper represents a trapper/rescue client profile
type Trapper struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TrapperID string `gorm:"index" json:"trapper_id"` // External code, e.g. "MD-1042"
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`

	// Incentive-program eligibility flag, admin-editable
	Qualifies bool `gorm:"not null;default:false" json:"qualifies"`

	// Storage key of the signature image, empty if none uploaded
	SignatureKey string `json:"signature_key"`
}

// BeforeCreate hook to generate UUID
func (t *Trapper) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// FullName returns the display name for the trapper
func (t *Trapper) FullName() string {
	if t.LastName == "" {
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}

// TableName specifies the table name for Trapper model
func (Trapper) TableName() string {
	return "trappers"
}
