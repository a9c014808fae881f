// Package cpiservice answers dashboard queries against the current dataset
// snapshot and exposes the load history.
package cpiservice

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/dataset"
	"github.com/starford/cpidash/internal/index"
	"github.com/starford/cpidash/internal/models"
)

// Messages returned alongside empty results.
const (
	pointEmptyFormat = "指定された条件（%s、%d年%d月）に該当するデータが見つかりません。"
	RangeEmptyMsg    = "選択した条件に該当するデータがありません。"
)

// defaultRegions are preselected for range queries when present in the data.
var defaultRegions = []string{"全国", "東京都区部"}

// PointQuery selects one item, region, year and half-year period.
type PointQuery struct {
	Item   string
	Region string
	Year   int
	Period dataset.Period
}

// Validate implements validation.Validatable.
func (q PointQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Item, validation.Required),
		validation.Field(&q.Region, validation.Required),
		validation.Field(&q.Year, validation.Required, validation.Min(1)),
		validation.Field(&q.Period, validation.Required, validation.In(dataset.H1, dataset.H2)),
	)
}

// RangeQuery selects one item over a set of regions and an inclusive year span.
type RangeQuery struct {
	Item    string
	Regions []string
	YearMin int
	YearMax int
}

// Validate implements validation.Validatable.
func (q RangeQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Item, validation.Required),
		validation.Field(&q.Regions, validation.Required, validation.Each(validation.Required)),
		validation.Field(&q.YearMin, validation.Required, validation.Min(1)),
		validation.Field(&q.YearMax, validation.Required, validation.Min(q.YearMin).Error("must not be less than year_min")),
	)
}

// PointResult is the bar-chart data for a PointQuery.
type PointResult struct {
	Item    string          `json:"item"`
	Region  string          `json:"region"`
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Period  dataset.Period  `json:"period"`
	Title   string          `json:"title"`
	Records []models.Record `json:"records"`
	Empty   bool            `json:"empty"`
	Message string          `json:"message,omitempty"`
	LoadID  string          `json:"load_id"`
}

// RangeResult is the line-chart series for a RangeQuery.
type RangeResult struct {
	Item    string          `json:"item"`
	Regions []string        `json:"regions"`
	YearMin int             `json:"year_min"`
	YearMax int             `json:"year_max"`
	Records []models.Record `json:"records"`
	Empty   bool            `json:"empty"`
	Message string          `json:"message,omitempty"`
	LoadID  string          `json:"load_id"`
}

// PeriodOption describes one selectable half-year period.
type PeriodOption struct {
	Value dataset.Period `json:"value"`
	Month int            `json:"month"`
	Label string         `json:"label"`
}

// Meta lists the selectable dimensions of the current snapshot.
type Meta struct {
	Items          []string        `json:"items"`
	Regions        []string        `json:"regions"`
	DefaultRegions []string        `json:"default_regions"`
	Years          []int           `json:"years"`
	YearMin        int             `json:"year_min"`
	YearMax        int             `json:"year_max"`
	Periods        []PeriodOption  `json:"periods"`
	Load           models.LoadInfo `json:"load"`
}

// Service coordinates the snapshot holder and the load ledger.
type Service struct {
	holder *dataset.Holder
	ledger index.LoadLedger
}

// NewService creates a new query service.
func NewService(holder *dataset.Holder, ledger index.LoadLedger) *Service {
	return &Service{holder: holder, ledger: ledger}
}

func (s *Service) snapshot() (*dataset.Snapshot, error) {
	snap := s.holder.Current()
	if snap == nil {
		return nil, apperr.ErrNoSnapshot
	}
	return snap, nil
}

// Ready reports whether a snapshot has been installed.
func (s *Service) Ready() bool {
	return s.holder.Current() != nil
}

// Meta returns the selectable items, regions, years and periods.
func (s *Service) Meta(_ context.Context) (*Meta, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	t := snap.Table
	lo, hi, _ := t.YearBounds()
	regions := t.Regions()

	present := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		present[r] = struct{}{}
	}
	defaults := []string{}
	for _, r := range defaultRegions {
		if _, ok := present[r]; ok {
			defaults = append(defaults, r)
		}
	}
	if len(defaults) == 0 && len(regions) > 0 {
		defaults = append(defaults, regions[0])
	}

	return &Meta{
		Items:          nonNilSlice(t.Items()),
		Regions:        nonNilSlice(regions),
		DefaultRegions: defaults,
		Years:          nonNilSlice(t.Years()),
		YearMin:        lo,
		YearMax:        hi,
		Periods: []PeriodOption{
			{Value: dataset.H1, Month: dataset.H1.Month(), Label: dataset.H1.Label()},
			{Value: dataset.H2, Month: dataset.H2.Month(), Label: dataset.H2.Label()},
		},
		Load: snap.Info,
	}, nil
}

// Point runs a point query. An empty match is a successful result with
// Empty set, not an error.
func (s *Service) Point(_ context.Context, q PointQuery) (*PointResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidQuery, err)
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	month := q.Period.Month()
	recs := dataset.FilterPoint(snap.Table, q.Item, q.Region, q.Year, month)
	res := &PointResult{
		Item:    q.Item,
		Region:  q.Region,
		Year:    q.Year,
		Month:   month,
		Period:  q.Period,
		Title:   fmt.Sprintf("%d年%sの指数および前年同月比", q.Year, q.Period.Label()),
		Records: recs,
		Empty:   len(recs) == 0,
		LoadID:  snap.Info.ID,
	}
	if res.Empty {
		res.Message = fmt.Sprintf(pointEmptyFormat, q.Region, q.Year, month)
	}
	return res, nil
}

// Range runs a range query. Zero year bounds default to the table's
// smallest and largest year.
func (s *Service) Range(_ context.Context, q RangeQuery) (*RangeResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if lo, hi, ok := snap.Table.YearBounds(); ok {
		if q.YearMin == 0 {
			q.YearMin = lo
		}
		if q.YearMax == 0 {
			q.YearMax = hi
		}
	}
	q.Regions = dedupe(q.Regions)
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidQuery, err)
	}

	recs := dataset.FilterRange(snap.Table, q.Item, dataset.RegionSet(q.Regions...), q.YearMin, q.YearMax)
	res := &RangeResult{
		Item:    q.Item,
		Regions: q.Regions,
		YearMin: q.YearMin,
		YearMax: q.YearMax,
		Records: recs,
		Empty:   len(recs) == 0,
		LoadID:  snap.Info.ID,
	}
	if res.Empty {
		res.Message = RangeEmptyMsg
	}
	return res, nil
}

// Loads returns the most recent loads, newest first.
func (s *Service) Loads(_ context.Context, limit int) ([]models.LoadInfo, error) {
	return s.ledger.ListLoads(limit)
}

// Overview returns the dashboard introduction text.
func (s *Service) Overview() string {
	return Overview
}

// dedupe drops repeated regions, keeping first occurrence order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
