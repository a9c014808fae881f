// Package storage reads the CPI source file.
package storage

import "github.com/starford/cpidash/internal/models"

// Provider is the interface for the CSV source.
type Provider interface {
	// Path returns the absolute path of the source file.
	Path() string
	// Load reads and decodes the whole file into raw rows.
	Load() (*models.Source, error)
}

// Columns maps RawRecord fields to CSV header names.
type Columns struct {
	Region     string `yaml:"region"`
	Item       string `yaml:"item"`
	Period     string `yaml:"period"`
	PeriodCode string `yaml:"period_code"`
	Index      string `yaml:"index"`
	YoY        string `yaml:"yoy"`
}

// DefaultColumns returns the e-Stat CPI (2020 base) header names.
func DefaultColumns() Columns {
	return Columns{
		Region:     "地域（2020年基準）",
		Item:       "2020年基準品目",
		Period:     "時間軸（年・月）",
		PeriodCode: "時間軸（年・月）コード",
		Index:      "指数",
		YoY:        "前年同月比【%】",
	}
}
