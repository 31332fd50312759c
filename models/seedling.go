package models

// SeedlingRecord is one normalized row of the seedling ("bibit") feed. The
// JSON keys follow the upstream spreadsheet columns.
type SeedlingRecord struct {
	Date        string `json:"tanggal"`
	Variety     string `json:"bibit"`
	In          int    `json:"masuk"`
	Out         int    `json:"keluar"`
	Dead        int    `json:"mati"`
	Destination string `json:"tujuan"`
}

// SeedlingSummary is the daily aggregate shown on the dashboard. Aggregated
// is false when no rows exist for today and the latest row is echoed as-is.
type SeedlingSummary struct {
	Date       string `json:"tanggal"`
	Variety    string `json:"bibit"`
	In         int    `json:"masuk"`
	Out        int    `json:"keluar"`
	Dead       int    `json:"mati"`
	Aggregated bool   `json:"aggregated"`
}
