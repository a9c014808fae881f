// Package models defines the domain types for the CPI dashboard.
package models

import "time"

// RawRecord is one CSV data row as read from the source, before any coercion.
type RawRecord struct {
	Line        int    `json:"line"` // 1-based CSV line; the header is line 1
	Region      string `json:"region"`
	Item        string `json:"item"`
	PeriodLabel string `json:"period_label"`
	PeriodCode  string `json:"period_code"`
	Index       string `json:"index"`
	YoY         string `json:"yoy"`
}

// Record is a normalized CPI observation.
// Index and YoY are nil when the source cell was not numeric; nil means
// "no data", never zero.
type Record struct {
	Region      string   `json:"region"`
	Item        string   `json:"item"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Index       *float64 `json:"index"`
	YoY         *float64 `json:"yoy_percent"`
	PeriodLabel string   `json:"period_label"`
}

// Source is the raw content of one CSV load.
type Source struct {
	Path     string
	Checksum string
	Encoding string
	Rows     []RawRecord
}

// LoadInfo describes one successful load of the source file.
type LoadInfo struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Checksum  string    `json:"checksum"`
	Encoding  string    `json:"encoding"`
	Rows      int       `json:"rows"`
	Skipped   int       `json:"skipped"`
	NullIndex int       `json:"null_index"`
	NullYoY   int       `json:"null_yoy"`
	LoadedAt  time.Time `json:"loaded_at"`
}
