package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DosageChartRow is one weight row of the clinic-wide dosage chart.
// Doses maps drug name (whitespace stripped) to the dose for that weight.
// The chart is a global singleton: all rows together, ordered by weight,
// form the reference table.
type DosageChartRow struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Weight float64           `gorm:"not null;uniqueIndex" json:"wt"` // Pounds
	Doses  map[string]string `gorm:"serializer:json" json:"doses"`
}

// BeforeCreate hook to generate UUID
func (d *DosageChartRow) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for DosageChartRow model
func (DosageChartRow) TableName() string {
	return "dosage_chart_rows"
}
