package charts

import (
	"bytes"
	"errors"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartHeight   = 480
	minChartWidth = 640
	barWidth      = 40
	barSpacing    = 24
)

var errNothingToDraw = errors.New("nothing to draw")

// Placeholder is written whenever a figure has nothing to draw.
const Placeholder = `<svg xmlns="http://www.w3.org/2000/svg" width="640" height="480" viewBox="0 0 640 480"></svg>`

func barStyle(col drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   col,
		StrokeColor: col,
		StrokeWidth: 1,
	}
}

// RenderSVG draws fig as SVG into w. Empty figures and figures go-chart
// refuses to draw come out as the blank placeholder; the only errors
// returned are write errors.
func RenderSVG(fig Figure, w io.Writer) error {
	var buf bytes.Buffer
	if !fig.Empty() && render(fig, &buf) == nil {
		_, err := w.Write(buf.Bytes())
		return err
	}
	_, err := io.WriteString(w, Placeholder)
	return err
}

func render(fig Figure, w io.Writer) error {
	if fig.Type == TypeGroupedBar {
		return renderStacked(fig, w)
	}

	pts := fig.Series[0].Points
	bars := make([]chart.Value, 0, len(pts))
	var peak float64
	for _, p := range pts {
		v := float64(p.Value)
		bars = append(bars, chart.Value{Label: p.Label, Value: v, Style: barStyle(chart.GetDefaultColor(0))})
		peak = max(peak, v)
	}

	bc := chart.BarChart{
		Title:      fig.Title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      widthFor(len(bars)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Name:  fig.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: max(peak, 1)},
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// renderStacked draws one stacked bar per label with one segment per series.
// Labels whose segments sum to zero are left out.
func renderStacked(fig Figure, w io.Writer) error {
	var bars []chart.StackedBar
	for i, p := range fig.Series[0].Points {
		var total int64
		values := make([]chart.Value, 0, len(fig.Series))
		for s, series := range fig.Series {
			v := series.Points[i].Value
			total += v
			values = append(values, chart.Value{
				Label: series.Name,
				Value: float64(v),
				Style: barStyle(chart.GetDefaultColor(s)),
			})
		}
		if total == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{Name: p.Label, Width: barWidth, Values: values})
	}
	if len(bars) == 0 {
		return errNothingToDraw
	}

	sbc := chart.StackedBarChart{
		Title:      fig.Title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      widthFor(len(bars)),
		Height:     chartHeight,
		BarSpacing: barSpacing,
		Bars:       bars,
	}
	return sbc.Render(chart.SVG, w)
}

func widthFor(n int) int {
	return max(minChartWidth, n*(barWidth+barSpacing)+160)
}
