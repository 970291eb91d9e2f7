package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"tnr_clinic_go/models"

	"gorm.io/gorm"
)

// NoDosageAvailable is the sentinel returned when the chart is empty or the
// requested drug has no entry on the nearest row.
const NoDosageAvailable = "no dosage available"

// ResolveDosage selects the chart row whose weight has minimum absolute
// difference from the given weight, then returns that row's dose for the
// drug. Nearest-neighbor only, no interpolation. Ties resolve to the first
// row in table order; with the chart kept sorted ascending that is the
// lighter row (accepted behavior, not a defect).
func ResolveDosage(rows []models.DosageChartRow, weight float64, drug string) string {
	if len(rows) == 0 {
		return NoDosageAvailable
	}

	key := strings.ReplaceAll(drug, " ", "")

	best := 0
	bestDiff := math.Abs(rows[0].Weight - weight)
	for i := 1; i < len(rows); i++ {
		diff := math.Abs(rows[i].Weight - weight)
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}

	for drugName, dose := range rows[best].Doses {
		if strings.ReplaceAll(drugName, " ", "") == key {
			return dose
		}
	}
	return NoDosageAvailable
}

// GetDosageChart returns all chart rows ordered by weight ascending
func GetDosageChart(db *gorm.DB) ([]models.DosageChartRow, error) {
	var rows []models.DosageChartRow
	err := db.Order("weight ASC").Find(&rows).Error
	return rows, err
}

// LookupDosage resolves a dosage against the stored chart
func LookupDosage(db *gorm.DB, weight float64, drug string) (string, error) {
	rows, err := GetDosageChart(db)
	if err != nil {
		return "", fmt.Errorf("failed to load dosage chart: %w", err)
	}
	return ResolveDosage(rows, weight, drug), nil
}

// AddDosageChartRow adds a weight row to the chart. Weights must be unique.
func AddDosageChartRow(db *gorm.DB, weight float64, doses map[string]string) (*models.DosageChartRow, error) {
	var count int64
	db.Model(&models.DosageChartRow{}).Where("weight = ?", weight).Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("a chart row for weight %g already exists", weight)
	}

	row := models.DosageChartRow{
		Weight: weight,
		Doses:  normalizeDoseKeys(doses),
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to create chart row: %w", err)
	}
	return &row, nil
}

// UpdateDosageChartRow replaces the weight and doses of an existing row
func UpdateDosageChartRow(db *gorm.DB, id string, weight float64, doses map[string]string) (*models.DosageChartRow, error) {
	var row models.DosageChartRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if weight != row.Weight {
		var count int64
		db.Model(&models.DosageChartRow{}).Where("weight = ? AND id != ?", weight, id).Count(&count)
		if count > 0 {
			return nil, fmt.Errorf("a chart row for weight %g already exists", weight)
		}
	}

	row.Weight = weight
	row.Doses = normalizeDoseKeys(doses)
	if err := db.Save(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to update chart row: %w", err)
	}
	return &row, nil
}

// DeleteDosageChartRow removes a weight row from the chart. The delete is
// permanent: a soft-deleted row would still hold the weight's unique index
// and block the weight from ever being re-added.
func DeleteDosageChartRow(db *gorm.DB, id string) error {
	result := db.Unscoped().Delete(&models.DosageChartRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete chart row: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SortChartRows orders rows by weight ascending, in place.
// Kept exported so in-memory charts (import previews, tests) match the
// stored ordering.
func SortChartRows(rows []models.DosageChartRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Weight < rows[j].Weight
	})
}

// normalizeDoseKeys strips whitespace from drug names so lookups match
// regardless of how the drug was typed
func normalizeDoseKeys(doses map[string]string) map[string]string {
	normalized := make(map[string]string, len(doses))
	for drug, dose := range doses {
		normalized[strings.ReplaceAll(drug, " ", "")] = dose
	}
	return normalized
}
