package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tnr_clinic_go/config"
	"tnr_clinic_go/models"

	"gorm.io/gorm"
)

// ErrValidation marks a missing or malformed required field in an
// interactive submission. Nothing is persisted when it is returned.
var ErrValidation = errors.New("validation failed")

// RecordInput is the interactive form payload for creating or editing a
// record
type RecordInput struct {
	TrapperID        string   `json:"trapper_id"` // Trapper profile UUID
	IntakePickupDate string   `json:"intake_pickup_date"`
	Service          string   `json:"service"`
	CatID            string   `json:"cat_id"`
	CatName          string   `json:"cat_name"`
	Breed            string   `json:"breed"`
	Color            []string `json:"color"`
	Age              string   `json:"age"`
	Microchip        string   `json:"microchip"`
	Rabies           string   `json:"rabies"`
	FVRCP            string   `json:"fvrcp"`
	FeLVFIV          string   `json:"felv_fiv"`
	Weight           float64  `json:"weight"`
	Drug             string   `json:"drug"`
	Surgeries        []string `json:"surgeries"`
	SurgicalNotes    []string `json:"surgical_notes"`
	Notes            string   `json:"notes"`
	Veterinarian     string   `json:"veterinarian"`
	CrossStreet      string   `json:"cross_street"`
	ZipTrapped       string   `json:"zip_trapped"`
	Outcome          string   `json:"outcome"`
	// Manual eligibility override; nil means keep the computed value
	TIPOverride *bool `json:"tip_override"`
}

// CreateRecord runs the normalization pipeline for one interactive form
// submit: trapper snapshot, cat-ID derivation, dosage lookup, eligibility,
// then the record write, then (independently) the TIP form.
func CreateRecord(ctx context.Context, db *gorm.DB, cfg *config.Config, input RecordInput) (*models.Record, error) {
	if strings.TrimSpace(input.CatID) == "" {
		return nil, fmt.Errorf("%w: cat ID is required", ErrValidation)
	}
	if strings.TrimSpace(input.Service) == "" {
		return nil, fmt.Errorf("%w: service is required", ErrValidation)
	}
	if input.TrapperID == "" {
		return nil, fmt.Errorf("%w: trapper is required", ErrValidation)
	}

	var trapper models.Trapper
	if err := db.First(&trapper, "id = ?", input.TrapperID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: trapper not found", ErrValidation)
		}
		return nil, fmt.Errorf("failed to load trapper: %w", err)
	}

	record := models.Record{}
	applyInput(&record, input)
	applyTrapperSnapshot(&record, &trapper)

	// Derived values are computed here, at the point of save, not kept in
	// sync reactively
	record.CatNumber = CatNumberFromID(record.CatID)
	record.IntakeTimestamp = intakeTimestamp(record.IntakePickupDate, record.CatID)

	if record.Drug != "" && record.Weight > 0 {
		dosage, err := LookupDosage(db, record.Weight, record.Drug)
		if err != nil {
			return nil, err
		}
		record.Dosage = dosage
	}

	eval := EvaluateTIP(trapper.Qualifies, record.Service, input.TIPOverride)
	record.QualifiesForTIP = eval.Effective

	if err := db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	if record.QualifiesForTIP {
		attachTIPForm(ctx, db, cfg, &record)
	}

	return &record, nil
}

// UpdateRecord applies an edit-form submission. QualifiesForTIP is
// immutable after creation; CatNumber is recomputed whenever CatID changes.
func UpdateRecord(ctx context.Context, db *gorm.DB, cfg *config.Config, id string, input RecordInput) (*models.Record, error) {
	var record models.Record
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.CatID) == "" {
		return nil, fmt.Errorf("%w: cat ID is required", ErrValidation)
	}

	catIDChanged := input.CatID != record.CatID
	applyInput(&record, input)

	if catIDChanged {
		// Never trust a stale sort key once the source string moved
		record.CatNumber = CatNumberFromID(record.CatID)
	}
	record.IntakeTimestamp = intakeTimestamp(record.IntakePickupDate, record.CatID)

	if record.Drug != "" && record.Weight > 0 {
		dosage, err := LookupDosage(db, record.Weight, record.Drug)
		if err != nil {
			return nil, err
		}
		record.Dosage = dosage
	}

	if err := db.Save(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}
	return &record, nil
}

// RegenerateTIPForm re-runs generation and upload for a stored eligible
// record. This is the manual reconciliation path for records whose form
// failed to render or upload at creation time.
func RegenerateTIPForm(ctx context.Context, db *gorm.DB, cfg *config.Config, id string) (*models.Record, error) {
	var record models.Record
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if !record.QualifiesForTIP {
		return nil, fmt.Errorf("%w: record does not qualify for TIP", ErrValidation)
	}

	url, err := GenerateAndUploadTIPForm(ctx, &record, cfg.TIPCoordinatorName, time.Now())
	if err != nil {
		return nil, err
	}

	record.PdfURL = &url
	if err := db.Model(&record).Update("pdf_url", url).Error; err != nil {
		return nil, fmt.Errorf("failed to attach form reference: %w", err)
	}
	return &record, nil
}

// ListRecords returns a page of records ordered by cat number descending.
// cursor is the last cat number of the previous page (cursor pagination is
// stable under concurrent appends, unlike offsets).
func ListRecords(db *gorm.DB, cursor *int64, limit int) ([]models.Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := db.Order("cat_number DESC").Limit(limit)
	if cursor != nil {
		query = query.Where("cat_number < ?", *cursor)
	}

	var records []models.Record
	err := query.Find(&records).Error
	return records, err
}

// applyInput copies the editable form fields onto the record
func applyInput(record *models.Record, input RecordInput) {
	record.IntakePickupDate = strings.TrimSpace(input.IntakePickupDate)
	record.Service = strings.TrimSpace(input.Service)
	record.CatID = strings.TrimSpace(input.CatID)
	record.CatName = strings.TrimSpace(input.CatName)
	record.Breed = strings.TrimSpace(input.Breed)
	record.Color = input.Color
	record.Age = strings.TrimSpace(input.Age)
	record.Microchip = strings.TrimSpace(input.Microchip)
	record.Rabies = strings.TrimSpace(input.Rabies)
	record.FVRCP = strings.TrimSpace(input.FVRCP)
	record.FeLVFIV = strings.TrimSpace(input.FeLVFIV)
	record.Weight = input.Weight
	record.Drug = strings.TrimSpace(input.Drug)
	record.Surgeries = input.Surgeries
	record.SurgicalNotes = input.SurgicalNotes
	record.Notes = input.Notes
	record.Veterinarian = strings.TrimSpace(input.Veterinarian)
	record.CrossStreet = strings.TrimSpace(input.CrossStreet)
	record.ZipTrapped = strings.TrimSpace(input.ZipTrapped)
	record.Outcome = strings.TrimSpace(input.Outcome)
	record.Sex = inferSex(record.Surgeries)
}

// applyTrapperSnapshot copies profile fields at time of entry
func applyTrapperSnapshot(record *models.Record, trapper *models.Trapper) {
	record.TrapperRefID = trapper.ID
	record.TrapperID = trapper.TrapperID
	if record.TrapperID == "" {
		record.TrapperID = NoTrapperID
	}
	record.TrapperFirstName = trapper.FirstName
	record.TrapperLastName = trapper.LastName
	record.TrapperStreet = trapper.Street
	record.TrapperApartment = trapper.Apartment
	record.TrapperCity = trapper.City
	record.TrapperState = trapper.State
	record.TrapperZip = trapper.Zip
	record.TrapperSignature = trapper.SignatureKey
}

// attachTIPForm generates and uploads the certificate for a just-created
// record. Failures are logged with their step and leave pdf_url null; the
// record write has already succeeded and is not rolled back.
func attachTIPForm(ctx context.Context, db *gorm.DB, cfg *config.Config, record *models.Record) {
	url, err := GenerateAndUploadTIPForm(ctx, record, cfg.TIPCoordinatorName, time.Now())
	if err != nil {
		if errors.Is(err, ErrPDFRender) {
			log.Printf("[WARNING] Record %s: TIP form rendering failed: %v", record.ID, err)
		} else {
			log.Printf("[WARNING] Record %s: TIP form upload failed: %v", record.ID, err)
		}
		return
	}

	record.PdfURL = &url
	if err := db.Model(record).Update("pdf_url", url).Error; err != nil {
		log.Printf("[WARNING] Record %s: failed to attach form reference: %v", record.ID, err)
	}
}

// intakeTimestamp parses the MM/DD/YYYY display date into a sortable
// instant. When the display string is unparseable it falls back to the
// date encoded in the cat ID, the same fallback the batch importer uses;
// zero only when both are unusable.
func intakeTimestamp(display string, catIDRaw string) time.Time {
	for _, layout := range []string{"1/2/2006", "01/02/2006"} {
		if t, err := time.Parse(layout, display); err == nil {
			return t
		}
	}
	if catID, err := NormalizeCatID(catIDRaw); err == nil {
		return catID.Date()
	}
	return time.Time{}
}
