package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tnr_clinic_go/models"

	"github.com/stretchr/testify/assert"
)

func tipTestRecord() *models.Record {
	return &models.Record{
		TrapperID:        "T-042",
		TrapperFirstName: "Jane",
		TrapperLastName:  "Doe",
		TrapperStreet:    "123 Main St",
		TrapperApartment: "Apt 4B",
		TrapperCity:      "Miami",
		TrapperState:     "FL",
		TrapperZip:       "33101",
		IntakePickupDate: "3/5/2024",
		IntakeTimestamp:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Service:          TIPQualifyingService,
		CatID:            "3/5/24- 7",
		CatName:          "Shadow",
		Breed:            "DSH",
		Color:            []string{"Black", "White"},
		Sex:              "Female",
		Age:              "Adult",
		Microchip:        "985112004567890",
		Rabies:           "RV-2024-100",
		FVRCP:            "Given",
		FeLVFIV:          "Negative",
		Weight:           6.5,
		Drug:             "TKX",
		Dosage:           "0.25 ml",
		Surgeries:        []string{"Spay (Female)", "Ear Tip"},
		QualifiesForTIP:  true,
	}
}

func TestBuildTIPFormHTML(t *testing.T) {
	now := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	t.Run("Includes Record Fields", func(t *testing.T) {
		html, err := BuildTIPFormHTML(tipTestRecord(), "Maria Delgado, TIP Coordinator", "", now)
		assert.NoError(t, err)
		assert.Contains(t, html, "Jane Doe (T-042)")
		assert.Contains(t, html, "123 Main St, Apt 4B, Miami, FL 33101")
		assert.Contains(t, html, "3/5/24- 7")
		assert.Contains(t, html, "Black, White")
		assert.Contains(t, html, "Spay (Female), Ear Tip")
		assert.Contains(t, html, "Wt: 6.5 lb")
		assert.Contains(t, html, "Maria Delgado, TIP Coordinator")
		assert.Contains(t, html, "03/06/2024")
	})

	t.Run("Strips Markup From Free Text", func(t *testing.T) {
		record := tipTestRecord()
		record.CatName = `<script>alert("x")</script>Shadow`
		html, err := BuildTIPFormHTML(record, "Coordinator", "", now)
		assert.NoError(t, err)
		assert.NotContains(t, html, "<script>")
		assert.Contains(t, html, "Shadow")
	})

	t.Run("Signature Image Only When Present", func(t *testing.T) {
		withSig, err := BuildTIPFormHTML(tipTestRecord(), "Coordinator", "https://example.com/sig.png", now)
		assert.NoError(t, err)
		assert.Contains(t, withSig, `img class="signature"`)

		withoutSig, err := BuildTIPFormHTML(tipTestRecord(), "Coordinator", "", now)
		assert.NoError(t, err)
		assert.NotContains(t, withoutSig, `img class="signature"`)
	})
}

func TestTIPFormKey(t *testing.T) {
	intake := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	key := TIPFormKey("03_05_2024- 007", intake)
	assert.Equal(t, "pdfs/2024-03/03_05_2024- 007_MDAS_TIP_Form.pdf", key)

	// One folder per month, zero-padded
	december := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.True(t, strings.HasPrefix(TIPFormKey("12_31_2023- 001", december), "pdfs/2023-12/"))
}

func TestUploadTIPForm(t *testing.T) {
	prev := Storage
	t.Cleanup(func() { Storage = prev })

	fakePDF := []byte("%PDF-1.4 fake certificate body")

	t.Run("Round Trip", func(t *testing.T) {
		Storage = NewLocalStorage(t.TempDir())

		url, err := UploadTIPForm(context.Background(), fakePDF, tipTestRecord())
		assert.NoError(t, err)
		assert.NotEmpty(t, url)

		reader, contentType, err := Storage.Get(context.Background(),
			"pdfs/2024-03/03_05_2024- 007_MDAS_TIP_Form.pdf")
		assert.NoError(t, err)
		defer reader.Close()
		assert.Equal(t, "application/pdf", contentType)

		data, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, fakePDF, data)
	})

	t.Run("Key Falls Back To Cat ID Date", func(t *testing.T) {
		Storage = NewLocalStorage(t.TempDir())
		record := tipTestRecord()
		record.IntakePickupDate = "sometime in March"
		record.IntakeTimestamp = time.Time{}

		_, err := UploadTIPForm(context.Background(), fakePDF, record)
		assert.NoError(t, err)

		reader, _, err := Storage.Get(context.Background(),
			"pdfs/2024-03/03_05_2024- 007_MDAS_TIP_Form.pdf")
		assert.NoError(t, err)
		reader.Close()
	})

	t.Run("Upload Failure", func(t *testing.T) {
		// A regular file as the storage root makes every write fail
		blocked := filepath.Join(t.TempDir(), "blocked")
		assert.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))
		Storage = NewLocalStorage(blocked)

		_, err := UploadTIPForm(context.Background(), fakePDF, tipTestRecord())
		assert.ErrorIs(t, err, ErrPDFUpload)
		assert.NotErrorIs(t, err, ErrPDFRender)
	})

	t.Run("Malformed Cat ID", func(t *testing.T) {
		Storage = NewLocalStorage(t.TempDir())
		record := tipTestRecord()
		record.CatID = "not-a-cat-id"

		_, err := UploadTIPForm(context.Background(), fakePDF, record)
		assert.ErrorIs(t, err, ErrPDFUpload)
	})
}

func TestSignatureKey(t *testing.T) {
	now := time.Unix(1709650800, 0)
	assert.Equal(t, "signatures/1709650800_sig.png", SignatureKey("sig.png", now))

	// Path components from the client are discarded
	assert.Equal(t, "signatures/1709650800_sig.png", SignatureKey("../../etc/sig.png", now))
}
