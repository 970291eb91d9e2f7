package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"tnr_clinic_go/config"
	"tnr_clinic_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Recognized spreadsheet columns. The export format is fixed upstream;
// unknown columns are ignored.
const (
	colCatID         = "Cat ID"
	colTrapper       = "Trapper/ Rescue ID and Address"
	colQualifies     = "Qualifies for TIP?"
	colIntakeDate    = "Intake, SX & Pickup DATE"
	colService       = "Service"
	colCatName       = "RESCUE- Cat Name"
	colBreed         = "Breed"
	colColor         = "Color"
	colAge           = "Estimated Age"
	colSurgery       = "Surgery Performed"
	colCrossStreet   = "TNR-Cross Street Trapped"
	colZipTrapped    = "TNR- Zip Code Trapped"
	colMicrochip     = "Microchip"
	colMicrochipAlt  = "Microchip #"
	colRabies        = "Rabies"
	colRabiesNoCert  = "TNR Rabies Given- No Certificate"
	colFVRCP         = "FVRCP"
	colFeLVFIV       = "FeLV/FIV"
	colWeight        = "Wt (lb)"
	colDrugs         = "Additional Drugs"
	colSurgicalNotes = "Surgical Notes"
	colNotes         = "Additional Notes/ Medications"
	colVeterinarian  = "Veterinarian"
	colOutcome       = "Outcome"
)

// NoTrapperID is the sentinel external code for rows whose trapper could
// not be matched to the roster
const NoTrapperID = "No ID"

// Row outcome statuses
const (
	RowCreated = "created"
	RowSkipped = "skipped"
	RowFailed  = "failed"
)

// RowResult is the per-row outcome of a batch import. Skips and failures
// carry a reason instead of being logged and forgotten.
type RowResult struct {
	Row    int    `json:"row"` // 1-based spreadsheet row number (header is row 1)
	Status string `json:"status"`
	CatID  string `json:"cat_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ImportResult contains the summary of the import process
type ImportResult struct {
	Total     int         `json:"total"`     // Rows with a non-empty Cat ID
	Processed int         `json:"processed"` // Monotonic, updated after each row
	Created   int         `json:"created"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Results   []RowResult `json:"results"`
}

// ProgressFunc is called after each row completes with the running counts
type ProgressFunc func(processed, total int)

// ImportRecordsCSV imports clinic records from a CSV export (header row
// plus data rows)
func ImportRecordsCSV(ctx context.Context, db *gorm.DB, cfg *config.Config, file io.Reader, progress ProgressFunc) (*ImportResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Exports pad rows unevenly

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return importRows(ctx, db, cfg, rows, progress)
}

// ImportRecordsXLSX imports clinic records from the first sheet of an XLSX
// workbook
func ImportRecordsXLSX(ctx context.Context, db *gorm.DB, cfg *config.Config, file io.Reader, progress ProgressFunc) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid excel format: no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return importRows(ctx, db, cfg, rows, progress)
}

// importRows drives the normalization pipeline over every data row. Rows
// are written strictly sequentially (each row's record write and optional
// PDF upload complete before the next row begins) so the progress counter
// is meaningful. One bad row never aborts the batch.
func importRows(ctx context.Context, db *gorm.DB, cfg *config.Config, rows [][]string, progress ProgressFunc) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	header := newHeaderIndex(rows[0])
	if !header.has(colCatID) {
		return nil, fmt.Errorf("missing required column %q", colCatID)
	}

	roster, err := loadTrapperRoster(db)
	if err != nil {
		return nil, err
	}

	chart, err := GetDosageChart(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load dosage chart: %w", err)
	}

	result := &ImportResult{}

	// Count importable rows up front so progress is reported against a
	// fixed total
	for _, row := range rows[1:] {
		if strings.TrimSpace(header.get(row, colCatID)) != "" {
			result.Total++
		}
	}

	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after header

		catIDRaw := strings.TrimSpace(header.get(row, colCatID))
		if catIDRaw == "" {
			continue // Blank padding row
		}

		rowResult := importRow(ctx, db, cfg, header, row, rowNum, catIDRaw, roster, chart)
		result.Results = append(result.Results, rowResult)
		switch rowResult.Status {
		case RowCreated:
			result.Created++
		case RowSkipped:
			result.Skipped++
		default:
			result.Failed++
		}

		result.Processed++
		if progress != nil {
			progress(result.Processed, result.Total)
		}
	}

	log.Printf("Import complete: %d created, %d skipped, %d failed of %d rows",
		result.Created, result.Skipped, result.Failed, result.Total)
	return result, nil
}

// importRow normalizes and persists a single spreadsheet row
func importRow(ctx context.Context, db *gorm.DB, cfg *config.Config, header headerIndex, row []string, rowNum int, catIDRaw string, roster *trapperRoster, chart []models.DosageChartRow) RowResult {
	catID, err := NormalizeCatID(catIDRaw)
	if err != nil {
		return RowResult{Row: rowNum, Status: RowSkipped, CatID: catIDRaw, Reason: err.Error()}
	}

	record := models.Record{
		CatID:     catIDRaw,
		CatNumber: &catID.Number,
	}

	// Trapper reference: "ID - Name", name only, or nothing at all
	trapperRef := strings.TrimSpace(header.get(row, colTrapper))
	snapshotTrapper(&record, trapperRef, roster)

	record.IntakePickupDate = strings.TrimSpace(header.get(row, colIntakeDate))
	record.IntakeTimestamp = parseIntakeDate(record.IntakePickupDate, catID)
	record.Service = strings.TrimSpace(header.get(row, colService))

	record.CatName = strings.TrimSpace(header.get(row, colCatName))
	record.Breed = strings.TrimSpace(header.get(row, colBreed))
	record.Color = splitList(header.get(row, colColor))
	record.Age = strings.TrimSpace(header.get(row, colAge))

	record.Surgeries = splitList(header.get(row, colSurgery))
	record.Sex = inferSex(record.Surgeries)

	record.CrossStreet = strings.TrimSpace(header.get(row, colCrossStreet))
	record.ZipTrapped = strings.TrimSpace(header.get(row, colZipTrapped))

	record.Microchip = strings.TrimSpace(header.get(row, colMicrochip))
	if record.Microchip == "" {
		record.Microchip = strings.TrimSpace(header.get(row, colMicrochipAlt))
	}

	record.Rabies = strings.TrimSpace(header.get(row, colRabies))
	if record.Rabies == "" && isTrue(header.get(row, colRabiesNoCert)) {
		record.Rabies = "Given- No Certificate"
	}

	record.FVRCP = strings.TrimSpace(header.get(row, colFVRCP))
	record.FeLVFIV = strings.TrimSpace(header.get(row, colFeLVFIV))

	if wt, err := strconv.ParseFloat(strings.TrimSpace(header.get(row, colWeight)), 64); err == nil {
		record.Weight = wt
	}
	record.Drug = strings.TrimSpace(header.get(row, colDrugs))
	if record.Drug != "" && record.Weight > 0 {
		record.Dosage = ResolveDosage(chart, record.Weight, record.Drug)
	}

	record.SurgicalNotes = splitOutsideQuotes(header.get(row, colSurgicalNotes))
	record.Notes = strings.TrimSpace(header.get(row, colNotes))
	record.Veterinarian = strings.TrimSpace(header.get(row, colVeterinarian))
	record.Outcome = strings.TrimSpace(header.get(row, colOutcome))

	trapperQualifies := isTrue(header.get(row, colQualifies))
	record.QualifiesForTIP = QualifiesForTIP(trapperQualifies, record.Service)

	reason := ""
	if record.QualifiesForTIP {
		// PDF runs before the record write, but its failure never blocks
		// the write: the record lands with a null artifact reference for
		// manual reconciliation
		url, err := GenerateAndUploadTIPForm(ctx, &record, cfg.TIPCoordinatorName, time.Now())
		if err != nil {
			if errors.Is(err, ErrPDFRender) {
				log.Printf("[WARNING] Row %d: TIP form rendering failed: %v", rowNum, err)
			} else {
				log.Printf("[WARNING] Row %d: TIP form upload failed: %v", rowNum, err)
			}
			reason = err.Error()
		} else {
			record.PdfURL = &url
		}
	}

	if err := db.Create(&record).Error; err != nil {
		return RowResult{Row: rowNum, Status: RowFailed, CatID: catIDRaw, Reason: fmt.Sprintf("failed to save record: %v", err)}
	}

	return RowResult{Row: rowNum, Status: RowCreated, CatID: catIDRaw, Reason: reason}
}

// trapperRoster indexes existing trapper profiles for snapshot lookups
type trapperRoster struct {
	byID   map[string]*models.Trapper
	byName map[string]*models.Trapper
}

func loadTrapperRoster(db *gorm.DB) (*trapperRoster, error) {
	var trappers []models.Trapper
	if err := db.Find(&trappers).Error; err != nil {
		return nil, fmt.Errorf("failed to load trapper roster: %w", err)
	}

	roster := &trapperRoster{
		byID:   make(map[string]*models.Trapper, len(trappers)),
		byName: make(map[string]*models.Trapper, len(trappers)),
	}
	for i := range trappers {
		t := &trappers[i]
		if t.TrapperID != "" {
			roster.byID[strings.ToUpper(t.TrapperID)] = t
		}
		roster.byName[strings.ToLower(t.FullName())] = t
	}
	return roster, nil
}

// snapshotTrapper fills the record's trapper snapshot from the roster when
// the reference matches, otherwise from the reference text itself with the
// "No ID" sentinel
func snapshotTrapper(record *models.Record, ref string, roster *trapperRoster) {
	id, name := ref, ""
	if before, after, found := strings.Cut(ref, " - "); found {
		id = strings.TrimSpace(before)
		name = strings.TrimSpace(after)
	}

	var t *models.Trapper
	if id != "" {
		t = roster.byID[strings.ToUpper(id)]
	}
	if t == nil && name != "" {
		t = roster.byName[strings.ToLower(name)]
	}
	if t == nil {
		// Reference with no separator may be a bare name
		t = roster.byName[strings.ToLower(ref)]
	}

	if t != nil {
		record.TrapperRefID = t.ID
		record.TrapperID = t.TrapperID
		record.TrapperFirstName = t.FirstName
		record.TrapperLastName = t.LastName
		record.TrapperStreet = t.Street
		record.TrapperApartment = t.Apartment
		record.TrapperCity = t.City
		record.TrapperState = t.State
		record.TrapperZip = t.Zip
		record.TrapperSignature = t.SignatureKey
		if record.TrapperID == "" {
			record.TrapperID = NoTrapperID
		}
		return
	}

	// Unmatched: keep whatever the row carried
	record.TrapperID = NoTrapperID
	if name == "" {
		name = ref
	}
	record.TrapperFirstName, record.TrapperLastName = SplitName(name)
}

// headerIndex maps column names to their positions in the header row
type headerIndex map[string]int

func newHeaderIndex(headerRow []string) headerIndex {
	index := make(headerIndex, len(headerRow))
	for i, name := range headerRow {
		index[strings.TrimSpace(name)] = i
	}
	return index
}

func (h headerIndex) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h headerIndex) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// isTrue reports whether a boolean column carries the literal "TRUE"
func isTrue(cell string) bool {
	return strings.TrimSpace(cell) == "TRUE"
}

// splitList splits a comma-separated cell into trimmed, non-empty items
func splitList(cell string) []string {
	var items []string
	for _, part := range strings.Split(cell, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// splitOutsideQuotes splits on commas that are not inside double quotes,
// for cells like `Ear Tip, "Hernia, umbilical", Lactating`
func splitOutsideQuotes(cell string) []string {
	var items []string
	var current strings.Builder
	inQuotes := false

	for _, r := range cell {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
				items = append(items, trimmed)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		items = append(items, trimmed)
	}
	return items
}

// inferSex derives sex from the surgery list by substring match. "Female"
// is checked first because it contains "Male".
func inferSex(surgeries []string) string {
	for _, s := range surgeries {
		if strings.Contains(s, "Female") {
			return "Female"
		}
	}
	for _, s := range surgeries {
		if strings.Contains(s, "Male") {
			return "Male"
		}
	}
	return ""
}

// parseIntakeDate parses the display date, falling back to the date encoded
// in the cat ID when the cell is malformed or empty
func parseIntakeDate(display string, catID *CatID) time.Time {
	for _, layout := range []string{"1/2/2006", "01/02/2006", "1/2/06"} {
		if t, err := time.Parse(layout, display); err == nil {
			return t
		}
	}
	return catID.Date()
}

// GenerateImportTemplate builds an XLSX workbook with the recognized
// columns and one example row, for download from the import page
func GenerateImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{
		colCatID, colTrapper, colQualifies, colIntakeDate, colService,
		colCatName, colBreed, colColor, colAge, colSurgery,
		colCrossStreet, colZipTrapped, colMicrochip, colRabies,
		colRabiesNoCert, colFVRCP, colFeLVFIV, colWeight, colDrugs,
		colSurgicalNotes, colNotes, colVeterinarian, colOutcome,
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	example := []string{
		"3/5/24- 7", "MD-1042 - Jane Doe", "TRUE", "03/05/2024", "MD-TNVR",
		"", "DSH", "Black, White", "1-3 years", "Spay (Female)",
		"Main St & 5th Ave", "33101", "985112000000000", "RV-2024-0305",
		"", "Given", "Negative", "7.5", "TKX",
		"Ear Tip", "", "Dr. Rivera", "Returned",
	}
	for i, value := range example {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, value)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", last, headerStyle)
	f.SetColWidth(sheet, "A", "W", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}
