// Package dataset holds the normalized CPI table and the slice queries over it.
package dataset

import (
	"slices"

	"github.com/starford/cpidash/internal/models"
)

// Table is an immutable, (year, month)-sorted set of normalized records.
// It is safe for concurrent readers; nothing mutates it after Normalize.
type Table struct {
	records []models.Record
	items   []string
	regions []string
	years   []int
}

func newTable(records []models.Record) *Table {
	t := &Table{records: records}

	seenItem := make(map[string]struct{})
	seenRegion := make(map[string]struct{})
	seenYear := make(map[int]struct{})
	for _, r := range records {
		if _, ok := seenItem[r.Item]; !ok {
			seenItem[r.Item] = struct{}{}
			t.items = append(t.items, r.Item)
		}
		if _, ok := seenRegion[r.Region]; !ok {
			seenRegion[r.Region] = struct{}{}
			t.regions = append(t.regions, r.Region)
		}
		if _, ok := seenYear[r.Year]; !ok {
			seenYear[r.Year] = struct{}{}
			t.years = append(t.years, r.Year)
		}
	}
	slices.Sort(t.years)
	return t
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of all records in table order.
func (t *Table) Records() []models.Record {
	out := make([]models.Record, len(t.records))
	for i, r := range t.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Items returns the distinct item names in first-appearance order.
func (t *Table) Items() []string { return slices.Clone(t.items) }

// Regions returns the distinct region names in first-appearance order.
func (t *Table) Regions() []string { return slices.Clone(t.regions) }

// Years returns the distinct years in ascending order.
func (t *Table) Years() []int { return slices.Clone(t.years) }

// YearBounds returns the smallest and largest year. ok is false for an empty table.
func (t *Table) YearBounds() (minYear, maxYear int, ok bool) {
	if len(t.years) == 0 {
		return 0, 0, false
	}
	return t.years[0], t.years[len(t.years)-1], true
}
