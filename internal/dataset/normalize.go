package dataset

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/models"
	"github.com/starford/cpidash/internal/parser"
)

// MalformedPolicy decides what happens to rows whose period label has no
// year or month.
type MalformedPolicy string

const (
	// PolicyFail rejects the whole load.
	PolicyFail MalformedPolicy = "fail"
	// PolicySkip drops the offending rows and reports them.
	PolicySkip MalformedPolicy = "skip"
)

// maxReportedLines caps the line list carried by MalformedInputError.
const maxReportedLines = 20

// MalformedInputError is returned by Normalize under PolicyFail.
type MalformedInputError struct {
	Failures []*parser.ExtractionError
	Total    int
}

func (e *MalformedInputError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	msg := fmt.Sprintf("%d row(s) with unparseable period label: %s", e.Total, strings.Join(parts, "; "))
	if e.Total > len(e.Failures) {
		msg += "; ..."
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return apperr.ErrMalformedInput }

// Report summarizes one Normalize run.
type Report struct {
	Rows         int
	Skipped      int
	SkippedLines []int
	NullIndex    int
	NullYoY      int
}

// Normalize converts raw rows into a Table stable-sorted by (year, month).
// Non-numeric index/YoY cells become nil and the row is kept.
func Normalize(rows []models.RawRecord, policy MalformedPolicy) (*Table, Report, error) {
	var (
		rep      Report
		failures []*parser.ExtractionError
		total    int
	)
	out := make([]models.Record, 0, len(rows))

	for _, raw := range rows {
		rec, err := parser.Parse(raw)
		if err != nil {
			var ee *parser.ExtractionError
			if !errors.As(err, &ee) {
				return nil, rep, err
			}
			total++
			if policy == PolicySkip {
				rep.Skipped++
				rep.SkippedLines = append(rep.SkippedLines, ee.Line)
				continue
			}
			if len(failures) < maxReportedLines {
				failures = append(failures, ee)
			}
			continue
		}
		if rec.Index == nil {
			rep.NullIndex++
		}
		if rec.YoY == nil {
			rep.NullYoY++
		}
		out = append(out, rec)
	}

	if policy != PolicySkip && total > 0 {
		return nil, rep, &MalformedInputError{Failures: failures, Total: total}
	}

	slices.SortStableFunc(out, func(a, b models.Record) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})

	rep.Rows = len(out)
	return newTable(out), rep, nil
}
