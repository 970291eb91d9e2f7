package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"tnr_clinic_go/models"

	"github.com/microcosm-cc/bluemonday"
)

// Generation and upload are sequential steps with independent failure
// reporting: a render failure aborts only the PDF step, an upload failure
// leaves the record without an artifact reference. Neither rolls back the
// record write.
var (
	ErrPDFRender = errors.New("TIP form rendering failed")
	ErrPDFUpload = errors.New("TIP form upload failed")
)

// tipFormTemplate is the fixed single-page certificate layout. Free-text
// fields are sanitized before execution; html/template escapes the rest.
var tipFormTemplate = template.Must(template.New("tip_form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; color: #000; }
  h1 { font-size: 15pt; text-align: center; margin-bottom: 2pt; }
  h2 { font-size: 12pt; text-align: center; font-weight: normal; margin-top: 0; }
  table { width: 100%; border-collapse: collapse; margin: 10pt 0; }
  td { border: 1px solid #444; padding: 4pt 6pt; vertical-align: top; }
  .label { font-weight: bold; width: 30%; background: #f0f0f0; }
  .terms { font-size: 9pt; text-align: justify; margin: 10pt 0; }
  .sigblock { margin-top: 18pt; }
  .sigline { border-top: 1px solid #000; width: 45%; display: inline-block; margin-right: 5%; padding-top: 2pt; font-size: 9pt; }
  img.signature { max-height: 48pt; }
</style>
</head>
<body>
<h1>Trapper Incentive Program</h1>
<h2>TNVR Service Certificate &mdash; {{.Date}}</h2>

<table>
  <tr><td class="label">Trapper</td><td>{{.TrapperName}} ({{.TrapperID}})</td></tr>
  <tr><td class="label">Address</td><td>{{.Address}}</td></tr>
  <tr><td class="label">Cat ID</td><td>{{.CatID}}</td></tr>
  <tr><td class="label">Cat</td><td>{{.CatSummary}}</td></tr>
  <tr><td class="label">Intake / Pickup</td><td>{{.IntakeDate}}</td></tr>
  <tr><td class="label">Service</td><td>{{.Service}}</td></tr>
  <tr><td class="label">Medical</td><td>{{.MedicalSummary}}</td></tr>
  <tr><td class="label">Surgeries</td><td>{{.Surgeries}}</td></tr>
</table>

<p class="terms">This certificate confirms that the cat identified above was
presented under the Trapper Incentive Program and received
trap-neuter-vaccinate-return services at this clinic. Incentive payment is
issued once per cat, to the enrolled trapper named above, upon submission of
this form. Forms are void if altered, and payment requests must be received
within ninety (90) days of the service date. The program applies to
community cats only; owned or previously altered animals do not qualify.</p>

<div class="sigblock">
  <div>
    {{if .SignatureURL}}<img class="signature" src="{{.SignatureURL}}" alt="trapper signature">{{end}}
  </div>
  <span class="sigline">Trapper Signature</span>
  <span class="sigline">{{.Coordinator}}</span>
</div>
</body>
</html>
`))

type tipFormData struct {
	Date           string
	TrapperName    string
	TrapperID      string
	Address        string
	CatID          string
	CatSummary     string
	IntakeDate     string
	Service        string
	MedicalSummary string
	Surgeries      string
	SignatureURL   string
	Coordinator    string
}

// BuildTIPFormHTML renders the certificate HTML for a record. The current
// date is passed in so output is reproducible in tests.
func BuildTIPFormHTML(record *models.Record, coordinator string, signatureURL string, now time.Time) (string, error) {
	p := bluemonday.StrictPolicy()

	address := record.TrapperStreet
	if record.TrapperApartment != "" {
		address += ", " + record.TrapperApartment
	}
	if record.TrapperCity != "" {
		address += ", " + record.TrapperCity
	}
	if record.TrapperState != "" || record.TrapperZip != "" {
		address += ", " + strings.TrimSpace(record.TrapperState+" "+record.TrapperZip)
	}

	catSummary := strings.TrimSpace(strings.Join([]string{
		p.Sanitize(record.CatName),
		p.Sanitize(record.Breed),
		p.Sanitize(strings.Join(record.Color, ", ")),
		record.Sex,
		p.Sanitize(record.Age),
	}, " / "))

	medical := fmt.Sprintf("Microchip: %s; Rabies: %s; FVRCP: %s; FeLV/FIV: %s; Wt: %g lb; %s %s",
		p.Sanitize(record.Microchip), p.Sanitize(record.Rabies), p.Sanitize(record.FVRCP),
		p.Sanitize(record.FeLVFIV), record.Weight, p.Sanitize(record.Drug), p.Sanitize(record.Dosage))

	data := tipFormData{
		Date:           now.Format("01/02/2006"),
		TrapperName:    p.Sanitize(record.TrapperFullName()),
		TrapperID:      p.Sanitize(record.TrapperID),
		Address:        p.Sanitize(address),
		CatID:          p.Sanitize(record.CatID),
		CatSummary:     catSummary,
		IntakeDate:     record.IntakePickupDate,
		Service:        p.Sanitize(record.Service),
		MedicalSummary: medical,
		Surgeries:      p.Sanitize(strings.Join(record.Surgeries, ", ")),
		SignatureURL:   signatureURL,
		Coordinator:    p.Sanitize(coordinator),
	}

	var buf bytes.Buffer
	if err := tipFormTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFRender, err)
	}
	return buf.String(), nil
}

// GenerateTIPForm renders the certificate PDF for a record. A nil or empty
// result from the renderer is reported as a render failure.
func GenerateTIPForm(record *models.Record, coordinator string, signatureURL string, now time.Time) ([]byte, error) {
	html, err := BuildTIPFormHTML(record, coordinator, signatureURL, now)
	if err != nil {
		return nil, err
	}

	pdf, err := GeneratePDF(html, DefaultPDFOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFRender, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: renderer returned empty document", ErrPDFRender)
	}
	return pdf, nil
}

// UploadTIPForm stores a generated certificate and returns its download
// reference. The key is derived from the record's normalized cat ID.
func UploadTIPForm(ctx context.Context, pdf []byte, record *models.Record) (string, error) {
	catID, err := NormalizeCatID(record.CatID)
	if err != nil {
		// An eligible record always carries a well-formed cat ID; hitting
		// this means the caller skipped normalization
		return "", fmt.Errorf("%w: %v", ErrPDFUpload, err)
	}

	// An unparseable pickup date leaves the timestamp zero; the cat ID
	// always carries the service date, so the key never lands in year 1
	intake := record.IntakeTimestamp
	if intake.IsZero() {
		intake = catID.Date()
	}

	key := TIPFormKey(catID.Key, intake)
	result, err := Storage.UploadReader(ctx, bytes.NewReader(pdf), key, "application/pdf", int64(len(pdf)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPDFUpload, err)
	}

	url := result.URL
	if url == "" {
		// Bucket without a public URL: fall back to a long-lived signed link
		url, err = Storage.GetSignedURL(ctx, key, 365*24*time.Hour)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPDFUpload, err)
		}
	}
	return url, nil
}

// GenerateAndUploadTIPForm runs both steps for an eligible record and
// returns the artifact URL. Callers distinguish the failure point with
// errors.Is against ErrPDFRender / ErrPDFUpload.
func GenerateAndUploadTIPForm(ctx context.Context, record *models.Record, coordinator string, now time.Time) (string, error) {
	signatureURL := ""
	if record.TrapperSignature != "" {
		if u, err := Storage.GetSignedURL(ctx, record.TrapperSignature, time.Hour); err == nil {
			signatureURL = u
		}
	}

	pdf, err := GenerateTIPForm(record, coordinator, signatureURL, now)
	if err != nil {
		return "", err
	}
	return UploadTIPForm(ctx, pdf, record)
}
