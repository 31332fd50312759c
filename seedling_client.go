package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"montana-id-verifier/models"
)

// SeedlingClient fetches the seedling ("bibit") stock feed backing the
// dashboard notifications and the daily summary.
type SeedlingClient interface {
	FetchRecords() ([]models.SeedlingRecord, error)
}

// SheetSeedlingClient reads the spreadsheet-backed feed. The upstream is an
// Apps Script endpoint returning either a bare array of rows or an object
// keyed by sheet name, with loosely cased column names.
type SheetSeedlingClient struct {
	feedURL    string
	httpClient *http.Client
}

func NewSheetSeedlingClient(feedURL string) *SheetSeedlingClient {
	return &SheetSeedlingClient{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *SheetSeedlingClient) FetchRecords() ([]models.SeedlingRecord, error) {
	resp, err := c.httpClient.Get(c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seedling feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("seedling feed failed with status %d: %s", resp.StatusCode, string(body))
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode seedling feed: %w", err)
	}

	rows, err := extractRows(raw)
	if err != nil {
		return nil, err
	}

	records := make([]models.SeedlingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalizeRow(row))
	}

	slog.Debug("Seedling feed fetched", "rows", len(records))
	return records, nil
}

// extractRows accepts either a bare array or an object holding the rows
// under a sheet-name key.
func extractRows(raw json.RawMessage) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("seedling feed has an unexpected shape")
	}
	for _, key := range []string{"Bibit", "bibit"} {
		if inner, ok := keyed[key]; ok {
			if err := json.Unmarshal(inner, &rows); err != nil {
				return nil, fmt.Errorf("failed to decode %q rows: %w", key, err)
			}
			return rows, nil
		}
	}
	return nil, fmt.Errorf("seedling feed carries no row data")
}

// normalizeRow tolerates the feed's loosely cased column names and
// stringly-typed numbers.
func normalizeRow(row map[string]any) models.SeedlingRecord {
	rec := models.SeedlingRecord{
		Date:        pickString(row, "Tanggal", "tanggal"),
		Variety:     strings.TrimSpace(pickString(row, "Bibit", "bibit")),
		In:          pickInt(row, "Masuk", "masuk"),
		Out:         pickInt(row, "Keluar", "keluar"),
		Dead:        pickInt(row, "Mati", "mati"),
		Destination: pickString(row, "Tujuan Bibit", "Tujuan", "tujuan"),
	}
	if rec.Destination == "" {
		rec.Destination = "Nursery"
	}
	return rec
}

func pickString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func pickInt(row map[string]any, keys ...string) int {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// DailySummary aggregates today's rows into the dashboard summary: sums of
// in/out/dead over today's entries, carrying the latest variety and date.
// With no rows for today it echoes the latest row unaggregated; with no rows
// at all it returns nil.
func DailySummary(records []models.SeedlingRecord, now time.Time) *models.SeedlingSummary {
	if len(records) == 0 {
		return nil
	}

	today := now.Format("2006-01-02")
	var todays []models.SeedlingRecord
	for _, rec := range records {
		if sameDay(rec.Date, today) {
			todays = append(todays, rec)
		}
	}

	if len(todays) == 0 {
		last := records[len(records)-1]
		return &models.SeedlingSummary{
			Date:    last.Date,
			Variety: last.Variety,
			In:      last.In,
			Out:     last.Out,
			Dead:    last.Dead,
		}
	}

	summary := &models.SeedlingSummary{
		Date:       todays[len(todays)-1].Date,
		Variety:    todays[len(todays)-1].Variety,
		Aggregated: true,
	}
	for _, rec := range todays {
		summary.In += rec.In
		summary.Out += rec.Out
		summary.Dead += rec.Dead
	}
	return summary
}

// sameDay compares a feed date string against a yyyy-mm-dd day, tolerating
// the handful of formats the spreadsheet emits.
func sameDay(feedDate, day string) bool {
	feedDate = strings.TrimSpace(feedDate)
	if feedDate == "" {
		return false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "02/01/2006", "2/1/2006"} {
		if parsed, err := time.Parse(layout, feedDate); err == nil {
			return parsed.Format("2006-01-02") == day
		}
	}
	return strings.HasPrefix(feedDate, day)
}
