package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"montana-id-verifier/models"

	"github.com/stretchr/testify/require"
)

func TestSeedlingClientBareArrayFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"Tanggal": "2026-08-30", "Bibit": " Meranti ", "Masuk": 120, "Keluar": "40", "Mati": 2, "Tujuan Bibit": "Blok A"},
			{"tanggal": "2026-08-31", "bibit": "Ulin", "masuk": "80", "keluar": 15, "mati": 1}
		]`))
	}))
	defer server.Close()

	client := NewSheetSeedlingClient(server.URL)
	records, err := client.FetchRecords()
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "Meranti", records[0].Variety)
	require.Equal(t, 120, records[0].In)
	require.Equal(t, 40, records[0].Out)
	require.Equal(t, "Blok A", records[0].Destination)

	require.Equal(t, "Ulin", records[1].Variety)
	require.Equal(t, 80, records[1].In)
	require.Equal(t, "Nursery", records[1].Destination)
}

func TestSeedlingClientKeyedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Bibit": [{"Tanggal": "2026-08-31", "Bibit": "Gaharu", "Masuk": 50}]}`))
	}))
	defer server.Close()

	client := NewSheetSeedlingClient(server.URL)
	records, err := client.FetchRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Gaharu", records[0].Variety)
	require.Equal(t, 50, records[0].In)
}

func TestSeedlingClientRejectsUnexpectedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"just a string"`))
	}))
	defer server.Close()

	client := NewSheetSeedlingClient(server.URL)
	_, err := client.FetchRecords()
	require.Error(t, err)
}

func TestSeedlingClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "script error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSheetSeedlingClient(server.URL)
	_, err := client.FetchRecords()
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestDailySummaryAggregatesToday(t *testing.T) {
	now, err := time.Parse("2006-01-02", "2026-08-31")
	require.NoError(t, err)

	records := []models.SeedlingRecord{
		{Date: "2026-08-30", Variety: "Meranti", In: 100, Out: 20, Dead: 5},
		{Date: "2026-08-31", Variety: "Ulin", In: 40, Out: 10, Dead: 1},
		{Date: "31/08/2026", Variety: "Gaharu", In: 60, Out: 5, Dead: 2},
	}

	summary := DailySummary(records, now)
	require.NotNil(t, summary)
	require.True(t, summary.Aggregated)
	require.Equal(t, 100, summary.In)
	require.Equal(t, 15, summary.Out)
	require.Equal(t, 3, summary.Dead)
	require.Equal(t, "Gaharu", summary.Variety)
}

func TestDailySummaryEchoesLatestWhenNoRowsToday(t *testing.T) {
	now, err := time.Parse("2006-01-02", "2026-08-31")
	require.NoError(t, err)

	records := []models.SeedlingRecord{
		{Date: "2026-08-29", Variety: "Meranti", In: 100, Out: 20, Dead: 5},
		{Date: "2026-08-30", Variety: "Ulin", In: 40, Out: 10, Dead: 1},
	}

	summary := DailySummary(records, now)
	require.NotNil(t, summary)
	require.False(t, summary.Aggregated)
	require.Equal(t, "Ulin", summary.Variety)
	require.Equal(t, 40, summary.In)
}

func TestDailySummaryEmptyFeed(t *testing.T) {
	require.Nil(t, DailySummary(nil, time.Now()))
}
