package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is one clinic visit for one cat.
//
// Trapper fields are a snapshot copied at time of entry, not a live
// reference: later edits to the trapper profile do not rewrite history.
type Record struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Trapper snapshot
	TrapperRefID     string `gorm:"type:uuid;index" json:"trapper_ref_id"` // Source profile, informational only
	TrapperID        string `json:"trapper_id"`                            // External code, "No ID" when unknown
	TrapperFirstName string `json:"trapper_first_name"`
	TrapperLastName  string `json:"trapper_last_name"`
	TrapperStreet    string `json:"trapper_street"`
	TrapperApartment string `json:"trapper_apartment"`
	TrapperCity      string `json:"trapper_city"`
	TrapperState     string `json:"trapper_state"`
	TrapperZip       string `json:"trapper_zip"`
	TrapperSignature string `json:"trapper_signature"` // Signature image storage key at time of entry

	// Visit
	IntakePickupDate string    `json:"intake_pickup_date"` // Display string MM/DD/YYYY
	IntakeTimestamp  time.Time `gorm:"index" json:"intake_timestamp"`
	Service          string    `json:"service"`

	// Identity
	CatID string `gorm:"not null" json:"cat_id"` // Human-entered composite "M/D/YY- N"
	// Sortable integer YYYYMMDDNNN derived from CatID, null when CatID
	// does not match the expected pattern. Always recomputed from CatID,
	// never trusted from input.
	CatNumber *int64 `gorm:"index" json:"cat_number"`

	CatName string   `json:"cat_name"`
	Breed   string   `json:"breed"`
	Color   []string `gorm:"serializer:json" json:"color"` // Ordered
	Sex     string   `json:"sex"`
	Age     string   `json:"age"`

	// Medical
	Microchip     string   `json:"microchip"`
	Rabies        string   `json:"rabies"`
	FVRCP         string   `gorm:"column:fvrcp" json:"fvrcp"`
	FeLVFIV       string   `gorm:"column:felv_fiv" json:"felv_fiv"`
	Weight        float64  `json:"weight"` // Pounds
	Drug          string   `json:"drug"`
	Dosage        string   `json:"dosage"`
	Surgeries     []string `gorm:"serializer:json" json:"surgeries"`
	SurgicalNotes []string `gorm:"serializer:json" json:"surgical_notes"`
	Notes         string   `json:"notes"`
	Veterinarian  string   `json:"veterinarian"`

	CrossStreet string `json:"cross_street"` // TNR trap location
	ZipTrapped  string `json:"zip_trapped"`

	Outcome string `json:"outcome"`

	// Immutable after creation
	QualifiesForTIP bool `gorm:"column:qualifies_for_tip;not null;default:false" json:"qualifies_for_tip"`
	// Download reference for the generated TIP form, nil when no form
	// exists (not eligible, or generation/upload failed)
	PdfURL *string `json:"pdf_url"`
}

// BeforeCreate hook to generate UUID
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TrapperFullName returns the snapshot trapper display name
func (r *Record) TrapperFullName() string {
	if r.TrapperLastName == "" {
		return r.TrapperFirstName
	}
	return r.TrapperFirstName + " " + r.TrapperLastName
}

// TableName specifies the table name for Record model
func (Record) TableName() string {
	return "records"
}
