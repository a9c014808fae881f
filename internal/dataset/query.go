package dataset

import (
	"fmt"
	"strings"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/models"
)

// Period is a half-year observation slot.
type Period string

const (
	H1 Period = "H1" // June
	H2 Period = "H2" // December
)

// Month returns the observation month of p, or 0 for an unknown period.
func (p Period) Month() int {
	switch p {
	case H1:
		return 6
	case H2:
		return 12
	}
	return 0
}

// Label returns the dashboard label, e.g. "6月(上期)".
func (p Period) Label() string {
	switch p {
	case H1:
		return "6月(上期)"
	case H2:
		return "12月(下期)"
	}
	return string(p)
}

// ParsePeriod accepts H1/H2, the month number, or the Japanese labels.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H1", "6", "上期", "6月(上期)":
		return H1, nil
	case "H2", "12", "下期", "12月(下期)":
		return H2, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", apperr.ErrInvalidQuery, s)
}

// FilterPoint returns records matching item, region, year and month exactly,
// in table order. The result is never nil.
func FilterPoint(t *Table, item, region string, year, month int) []models.Record {
	out := []models.Record{}
	for _, r := range t.records {
		if r.Item == item && r.Region == region && r.Year == year && r.Month == month {
			out = append(out, cloneRecord(r))
		}
	}
	return out
}

// FilterRange returns records for item whose region is in regions and whose
// year lies in [yearMin, yearMax], in table order. The result is never nil.
func FilterRange(t *Table, item string, regions map[string]struct{}, yearMin, yearMax int) []models.Record {
	out := []models.Record{}
	for _, r := range t.records {
		if r.Item != item || r.Year < yearMin || r.Year > yearMax {
			continue
		}
		if _, ok := regions[r.Region]; !ok {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	return out
}

// cloneRecord copies r including its numeric pointers so callers cannot
// reach back into the table.
func cloneRecord(r models.Record) models.Record {
	if r.Index != nil {
		v := *r.Index
		r.Index = &v
	}
	if r.YoY != nil {
		v := *r.YoY
		r.YoY = &v
	}
	return r
}

// RegionSet builds the set argument for FilterRange.
func RegionSet(regions ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		set[r] = struct{}{}
	}
	return set
}
