package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tnr_clinic_go/services"

	"github.com/stretchr/testify/assert"
)

func TestDosageChartHandlers(t *testing.T) {
	database := setupTestDB(t)
	_, err := services.AddDosageChartRow(database, 2, map[string]string{"TKX": "0.08 ml"})
	assert.NoError(t, err)
	row4, err := services.AddDosageChartRow(database, 4, map[string]string{"TKX": "0.16 ml"})
	assert.NoError(t, err)

	t.Run("Get Chart", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/dosage-chart", nil)

		assert.NoError(t, GetDosageChartHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "0.08 ml")
	})

	t.Run("Lookup", func(t *testing.T) {
		lookup := func(query string) *httptest.ResponseRecorder {
			_, c, rec := setupEcho(http.MethodGet, "/api/dosage-chart/lookup?"+query, nil)
			assert.NoError(t, LookupDosageHandler(c))
			return rec
		}

		rec := lookup("weight=3.5&drug=TKX")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "0.16 ml")

		rec = lookup("weight=3.5&drug=Unknown")
		assert.Contains(t, rec.Body.String(), services.NoDosageAvailable)

		rec = lookup("weight=abc&drug=TKX")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Add Row Rejects Duplicate Weight", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/dosage-chart",
			strings.NewReader(`{"wt":4,"doses":{"TKX":"0.17 ml"}}`))

		assert.NoError(t, AddDosageChartRowHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Update Row", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPut, "/api/dosage-chart/"+row4.ID,
			strings.NewReader(`{"wt":5,"doses":{"TKX":"0.20 ml"}}`))
		c.SetParamNames("id")
		c.SetParamValues(row4.ID)

		assert.NoError(t, UpdateDosageChartRowHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "0.20 ml")
	})

	t.Run("Delete Row", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodDelete, "/api/dosage-chart/"+row4.ID, nil)
		c.SetParamNames("id")
		c.SetParamValues(row4.ID)

		assert.NoError(t, DeleteDosageChartRowHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		rows, err := services.GetDosageChart(database)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}
