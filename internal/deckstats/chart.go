package deckstats

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartConfig holds configuration for rendered charts.
type ChartConfig struct {
	Title  string
	Width  string // e.g. "900px"
	Height string
	Theme  string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
	}
}

// colorHex maps distribution buckets to their display colors.
var colorHex = map[string]string{
	"W": "#F8E7B9",
	"U": "#0E68AB",
	"B": "#150B00",
	"R": "#D3202A",
	"G": "#00733E",
	"C": "#9E9E9E",
}

var colorNames = map[string]string{
	"W": "White",
	"U": "Blue",
	"B": "Black",
	"R": "Red",
	"G": "Green",
	"C": "Colorless",
}

// RenderHTML writes an interactive HTML page with the mana curve and color
// distribution charts of stats.
func RenderHTML(w io.Writer, stats Stats, config ChartConfig) error {
	page := components.NewPage()
	page.PageTitle = config.Title
	if page.PageTitle == "" {
		page.PageTitle = "Deck statistics"
	}
	page.AddCharts(manaCurveChart(stats, config), colorChart(stats, config))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func manaCurveChart(stats Stats, config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Mana Curve",
			Subtitle: fmt.Sprintf("Average mana value %.1f", stats.AverageCMC),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
	)

	points := stats.CurvePoints()
	xLabels := make([]string, len(points))
	yData := make([]opts.BarData, len(points))
	for i, p := range points {
		xLabels[i] = p.Label
		yData[i] = opts.BarData{Value: p.Count}
	}

	bar.SetXAxis(xLabels).
		AddSeries("Cards", yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)
	return bar
}

func colorChart(stats Stats, config ChartConfig) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Color Distribution",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)

	var data []opts.PieData
	for _, p := range stats.ColorPoints() {
		data = append(data, opts.PieData{
			Name:      p.Name,
			Value:     p.Count,
			ItemStyle: &opts.ItemStyle{Color: colorHex[p.Color]},
		})
	}
	pie.AddSeries("Colors", data)
	return pie
}

// ColorPoint is one non-empty slice of the color distribution.
type ColorPoint struct {
	Color string `json:"color"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ColorPoints returns the non-zero color buckets in WUBRG order followed by
// colorless.
func (s Stats) ColorPoints() []ColorPoint {
	d := s.Colors
	buckets := []struct {
		color string
		count int
	}{
		{"W", d.W}, {"U", d.U}, {"B", d.B}, {"R", d.R}, {"G", d.G}, {"C", d.C},
	}

	var points []ColorPoint
	for _, b := range buckets {
		if b.count > 0 {
			points = append(points, ColorPoint{Color: b.color, Name: colorNames[b.color], Count: b.count})
		}
	}
	return points
}
