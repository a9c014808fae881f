// Package parser turns raw CPI CSV rows into typed records.
package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/models"
)

var (
	itemCodeRe = regexp.MustCompile(`^\p{Nd}+[\s\p{Z}]+`)
	yearRe     = regexp.MustCompile(`(\d{4})`)
	monthRe    = regexp.MustCompile(`(\d{1,2})月`)
)

// Fields that can fail extraction.
const (
	FieldYear  = "year"
	FieldMonth = "month"
)

// ExtractionError reports a period label from which year or month could not
// be extracted.
type ExtractionError struct {
	Line  int
	Field string
	Value string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("line %d: no %s in period label %q", e.Line, e.Field, e.Value)
}

// Unwrap lets errors.Is match apperr.ErrMalformedInput.
func (e *ExtractionError) Unwrap() error { return apperr.ErrMalformedInput }

// Parse normalizes a single raw row.
func Parse(raw models.RawRecord) (models.Record, error) {
	year, month, err := ParsePeriod(raw.PeriodLabel)
	if err != nil {
		if ee, ok := err.(*ExtractionError); ok {
			ee.Line = raw.Line
		}
		return models.Record{}, err
	}
	return models.Record{
		Region:      NormalizeRegion(raw.Region),
		Item:        NormalizeItem(raw.Item),
		Year:        year,
		Month:       month,
		Index:       ParseNumber(raw.Index),
		YoY:         ParseNumber(raw.YoY),
		PeriodLabel: raw.PeriodLabel,
	}, nil
}

// NormalizeRegion trims surrounding whitespace.
func NormalizeRegion(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeItem removes a leading "<digits><space>" code prefix and trims.
// Digits and separators may be any Unicode digit or space, e.g. "０００１　総合".
// "0001 総合" becomes "総合"; values without a code pass through.
func NormalizeItem(s string) string {
	return strings.TrimSpace(itemCodeRe.ReplaceAllString(s, ""))
}

// ParsePeriod extracts year and month from a label such as "2020年6月".
// Full-width digits are folded to ASCII before matching.
func ParsePeriod(label string) (year, month int, err error) {
	folded := norm.NFKC.String(label)

	m := yearRe.FindStringSubmatch(folded)
	if m == nil {
		return 0, 0, &ExtractionError{Field: FieldYear, Value: label}
	}
	year, _ = strconv.Atoi(m[1])

	m = monthRe.FindStringSubmatch(folded)
	if m == nil {
		return 0, 0, &ExtractionError{Field: FieldMonth, Value: label}
	}
	month, _ = strconv.Atoi(m[1])
	return year, month, nil
}

// ParseNumber coerces s to a float, returning nil when it is not a finite number.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
