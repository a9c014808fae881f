// Package chart renders query results as SVG bar and line charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"math"
	"slices"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/starford/cpidash/internal/models"
)

// ErrNothingToPlot is returned when every value in the input is null.
var ErrNothingToPlot = errors.New("chart: nothing to plot")

// Axis labels.
const (
	LabelIndex = "指数"
	LabelYoY   = "前年同月比【%】"
	LabelRange = "消費者物価指数（2020年=100）"
)

const (
	barMin = -10.0
	barMax = 140.0
	width  = 800
	height = 480
)

var (
	indexColor = drawing.ColorFromHex("636efa")
	yoyColor   = drawing.ColorFromHex("ef553b")
)

// PointBar renders the index and year-over-year change of each record as
// a pair of bars on a -10..140 axis with a zero baseline. Duplicate matches
// get a pair each. Null values are omitted.
func PointBar(records ...models.Record) ([]byte, error) {
	var bars []chart.Value
	hi, lo := barMax, barMin
	for i, rec := range records {
		suffix := ""
		if len(records) > 1 {
			suffix = fmt.Sprintf(" #%d", i+1)
		}
		if rec.Index != nil {
			bars = append(bars, chart.Value{
				Label: fmt.Sprintf("%s %.1f%s", LabelIndex, *rec.Index, suffix),
				Value: *rec.Index,
				Style: chart.Style{FillColor: indexColor, StrokeColor: indexColor},
			})
			hi, lo = math.Max(hi, *rec.Index), math.Min(lo, *rec.Index)
		}
		if rec.YoY != nil {
			bars = append(bars, chart.Value{
				Label: fmt.Sprintf("%s %.1f%s", LabelYoY, *rec.YoY, suffix),
				Value: *rec.YoY,
				Style: chart.Style{FillColor: yoyColor, StrokeColor: yoyColor},
			})
			hi, lo = math.Max(hi, *rec.YoY), math.Min(lo, *rec.YoY)
		}
	}
	if len(bars) == 0 {
		return nil, ErrNothingToPlot
	}
	rec := records[0]

	bc := chart.BarChart{
		Title:        esc(rec.Region + " - " + rec.Item),
		Width:        width,
		Height:       height,
		BarWidth:     120,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render bar: %w", err)
	}
	return buf.Bytes(), nil
}

// esc escapes text for the SVG renderer, which writes labels verbatim.
func esc(s string) string { return html.EscapeString(s) }

type periodKey struct{ year, month int }

// RangeLine renders one index series per region over the sorted distinct
// periods of records. Points with a null index are skipped; a region with no
// points is left out of the chart.
func RangeLine(records []models.Record) ([]byte, error) {
	// x axis: distinct periods in (year, month) order
	labels := make(map[periodKey]string)
	var keys []periodKey
	for _, r := range records {
		k := periodKey{r.Year, r.Month}
		if _, ok := labels[k]; !ok {
			labels[k] = r.PeriodLabel
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, func(a, b periodKey) int {
		if a.year != b.year {
			return a.year - b.year
		}
		return a.month - b.month
	})
	// Unlabeled half-step ticks at both ends keep the axis range non-zero
	// when only one period is selected.
	pos := make(map[periodKey]float64, len(keys))
	ticks := []chart.Tick{{Value: -0.5}}
	for i, k := range keys {
		pos[k] = float64(i)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: esc(labels[k])})
	}
	ticks = append(ticks, chart.Tick{Value: float64(len(keys)) - 0.5})

	type points struct{ xs, ys []float64 }
	byRegion := make(map[string]*points)
	var regions []string
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for _, r := range records {
		if r.Index == nil {
			continue
		}
		p, ok := byRegion[r.Region]
		if !ok {
			p = &points{}
			byRegion[r.Region] = p
			regions = append(regions, r.Region)
		}
		p.xs = append(p.xs, pos[periodKey{r.Year, r.Month}])
		p.ys = append(p.ys, *r.Index)
		minY, maxY = math.Min(minY, *r.Index), math.Max(maxY, *r.Index)
	}
	if len(regions) == 0 {
		return nil, ErrNothingToPlot
	}

	series := make([]chart.Series, 0, len(regions))
	for i, region := range regions {
		col := chart.GetDefaultColor(i)
		series = append(series, chart.ContinuousSeries{
			Name:    esc(region),
			XValues: byRegion[region].xs,
			YValues: byRegion[region].ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    4,
			},
		})
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 16, Bottom: 48}},
		XAxis: chart.XAxis{
			Name:  "期間",
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  LabelRange,
			Range: &chart.ContinuousRange{Min: math.Floor(minY) - 1, Max: math.Ceil(maxY) + 1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render line: %w", err)
	}
	return buf.Bytes(), nil
}
