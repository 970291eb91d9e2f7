package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tnr_clinic_go/config"
	"tnr_clinic_go/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRecordTestDB(t *testing.T) (*gorm.DB, *models.Trapper) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Trapper{}, &models.Record{}, &models.DosageChartRow{}))

	trapper := &models.Trapper{
		TrapperID: "MD-1042", FirstName: "Jane", LastName: "Doe",
		Street: "123 Main St", City: "Miami", State: "FL", Zip: "33101",
		Qualifies: true,
	}
	assert.NoError(t, db.Create(trapper).Error)
	return db, trapper
}

func recordTestInput(trapperID string) RecordInput {
	falseVal := false
	return RecordInput{
		TrapperID:        trapperID,
		IntakePickupDate: "3/5/2024",
		Service:          TIPQualifyingService,
		CatID:            "3/5/24- 7",
		Breed:            "DSH",
		Color:            []string{"Black"},
		FeLVFIV:          "Negative",
		Weight:           7.0,
		Drug:             "TKX",
		Surgeries:        []string{"Spay (Female)", "Ear Tip"},
		Outcome:          "Returned",
		// Keep the artifact pipeline out of these tests
		TIPOverride: &falseVal,
	}
}

func TestCreateRecord(t *testing.T) {
	db, trapper := setupRecordTestDB(t)
	cfg := &config.Config{TIPCoordinatorName: "Coordinator"}
	_, err := AddDosageChartRow(db, 7, map[string]string{"TKX": "0.28 ml"})
	assert.NoError(t, err)

	t.Run("Validation", func(t *testing.T) {
		input := recordTestInput(trapper.ID)
		input.CatID = "  "
		_, err := CreateRecord(context.Background(), db, cfg, input)
		assert.ErrorIs(t, err, ErrValidation)

		input = recordTestInput(trapper.ID)
		input.Service = ""
		_, err = CreateRecord(context.Background(), db, cfg, input)
		assert.ErrorIs(t, err, ErrValidation)

		input = recordTestInput("")
		_, err = CreateRecord(context.Background(), db, cfg, input)
		assert.ErrorIs(t, err, ErrValidation)

		input = recordTestInput("no-such-trapper")
		_, err = CreateRecord(context.Background(), db, cfg, input)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Derived Fields", func(t *testing.T) {
		record, err := CreateRecord(context.Background(), db, cfg, recordTestInput(trapper.ID))
		assert.NoError(t, err)

		assert.Equal(t, "MD-1042", record.TrapperID)
		assert.Equal(t, trapper.ID, record.TrapperRefID)
		assert.Equal(t, "123 Main St", record.TrapperStreet)
		assert.NotNil(t, record.CatNumber)
		assert.Equal(t, int64(20240305007), *record.CatNumber)
		assert.Equal(t, 2024, record.IntakeTimestamp.Year())
		assert.Equal(t, "0.28 ml", record.Dosage)
		assert.Equal(t, "Female", record.Sex)

		// Acronym-heavy fields keep their spelled-out column names
		var count int64
		assert.NoError(t, db.Model(&models.Record{}).
			Where("felv_fiv = ? AND qualifies_for_tip = ?", "Negative", false).
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Intake Falls Back To Cat ID Date", func(t *testing.T) {
		input := recordTestInput(trapper.ID)
		input.CatID = "3/7/24- 1"
		input.IntakePickupDate = "early March"
		record, err := CreateRecord(context.Background(), db, cfg, input)
		assert.NoError(t, err)

		// Unparseable display date, so the timestamp comes from the cat ID
		assert.Equal(t, 2024, record.IntakeTimestamp.Year())
		assert.Equal(t, time.March, record.IntakeTimestamp.Month())
		assert.Equal(t, 7, record.IntakeTimestamp.Day())
	})

	t.Run("Override Forces Ineligibility", func(t *testing.T) {
		// Qualifying trapper and service, flipped off manually
		input := recordTestInput(trapper.ID)
		input.CatID = "3/6/24- 1"
		record, err := CreateRecord(context.Background(), db, cfg, input)
		assert.NoError(t, err)
		assert.False(t, record.QualifiesForTIP)
		assert.Nil(t, record.PdfURL)
	})

	t.Run("Non Qualifying Service", func(t *testing.T) {
		input := recordTestInput(trapper.ID)
		input.CatID = "3/6/24- 2"
		input.Service = "Private"
		input.TIPOverride = nil
		record, err := CreateRecord(context.Background(), db, cfg, input)
		assert.NoError(t, err)
		assert.False(t, record.QualifiesForTIP)
	})
}

func TestUpdateRecord(t *testing.T) {
	db, trapper := setupRecordTestDB(t)
	cfg := &config.Config{TIPCoordinatorName: "Coordinator"}

	record, err := CreateRecord(context.Background(), db, cfg, recordTestInput(trapper.ID))
	assert.NoError(t, err)
	originalNumber := *record.CatNumber

	t.Run("Cat Number Stable When Cat ID Unchanged", func(t *testing.T) {
		input := recordTestInput(trapper.ID)
		input.Breed = "DLH"
		updated, err := UpdateRecord(context.Background(), db, cfg, record.ID, input)
		assert.NoError(t, err)
		assert.Equal(t, "DLH", updated.Breed)
		assert.Equal(t, originalNumber, *updated.CatNumber)
	})

	t.Run("Cat Number Recomputed When Cat ID Changes", func(t *testing.T) {
		input := recordTestInput(trapper.ID)
		input.CatID = "12/31/24- 12"
		updated, err := UpdateRecord(context.Background(), db, cfg, record.ID, input)
		assert.NoError(t, err)
		assert.Equal(t, int64(20241231012), *updated.CatNumber)
	})

	t.Run("Eligibility Immutable On Edit", func(t *testing.T) {
		// Flag was stored at creation; edits never recompute it
		assert.NoError(t, db.Model(&models.Record{}).Where("id = ?", record.ID).
			Update("qualifies_for_tip", true).Error)

		input := recordTestInput(trapper.ID)
		input.Service = "Private"
		updated, err := UpdateRecord(context.Background(), db, cfg, record.ID, input)
		assert.NoError(t, err)
		assert.True(t, updated.QualifiesForTIP)
	})

	t.Run("Missing Record", func(t *testing.T) {
		_, err := UpdateRecord(context.Background(), db, cfg, "no-such-id", recordTestInput(trapper.ID))
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestRegenerateTIPFormRequiresEligibility(t *testing.T) {
	db, trapper := setupRecordTestDB(t)
	cfg := &config.Config{TIPCoordinatorName: "Coordinator"}

	record, err := CreateRecord(context.Background(), db, cfg, recordTestInput(trapper.ID))
	assert.NoError(t, err)

	_, err = RegenerateTIPForm(context.Background(), db, cfg, record.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListRecords(t *testing.T) {
	db, _ := setupRecordTestDB(t)

	for i := 1; i <= 5; i++ {
		number := int64(20240300000 + i)
		record := models.Record{
			CatID:     fmt.Sprintf("3/%d/24- %d", i, i),
			CatNumber: &number,
			TrapperID: NoTrapperID,
		}
		assert.NoError(t, db.Create(&record).Error)
	}

	t.Run("Newest First", func(t *testing.T) {
		records, err := ListRecords(db, nil, 3)
		assert.NoError(t, err)
		assert.Len(t, records, 3)
		assert.Equal(t, int64(20240300005), *records[0].CatNumber)
		assert.Equal(t, int64(20240300003), *records[2].CatNumber)
	})

	t.Run("Cursor Continues The Page", func(t *testing.T) {
		first, err := ListRecords(db, nil, 3)
		assert.NoError(t, err)

		cursor := first[len(first)-1].CatNumber
		second, err := ListRecords(db, cursor, 3)
		assert.NoError(t, err)
		assert.Len(t, second, 2)
		assert.Equal(t, int64(20240300002), *second[0].CatNumber)
		assert.Equal(t, int64(20240300001), *second[1].CatNumber)
	})

	t.Run("Limit Bounds", func(t *testing.T) {
		records, err := ListRecords(db, nil, 0)
		assert.NoError(t, err)
		assert.Len(t, records, 5) // Defaults to 50, well above the row count
	})
}
