// Package plotting renders pipeline results as charts with gonum/plot.
package plotting

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Default chart size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

// Series is one named set of bar heights, aligned with the chart categories.
type Series struct {
	Name   string
	Values []float64
}

// CoefficientChart draws one group of bars per feature, one bar per series.
func CoefficientChart(title string, features []string, series []Series) (*plot.Plot, error) {
	if len(features) == 0 || len(series) == 0 {
		return nil, errors.NewValueError("CoefficientChart", "nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "coefficient"
	p.Legend.Top = true

	barWidth := vg.Points(40 / float64(len(series)))
	for i, s := range series {
		if len(s.Values) != len(features) {
			return nil, errors.NewDimensionError("CoefficientChart", len(features), len(s.Values), 0)
		}
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth)
		if err != nil {
			return nil, errors.Wrapf(err, "series %s", s.Name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(features...)
	p.Add(plotter.NewGrid())
	return p, nil
}

// FoldScoreChart plots the score of each fold with a horizontal line at the mean.
func FoldScoreChart(title string, scores []float64, mean float64) (*plot.Plot, error) {
	if len(scores) == 0 {
		return nil, errors.NewValueError("FoldScoreChart", "nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "fold"
	p.Y.Label.Text = "accuracy"
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(scores))
	for i, s := range scores {
		pts[i].X = float64(i + 1)
		pts[i].Y = s
	}
	meanLine := plotter.XYs{{X: 1, Y: mean}, {X: float64(len(scores)), Y: mean}}
	if err := plotutil.AddLinePoints(p, "fold score", pts); err != nil {
		return nil, err
	}
	line, err := plotter.NewLine(meanLine)
	if err != nil {
		return nil, err
	}
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("mean %.3f", mean), line)

	ticks := make([]plot.Tick, len(scores))
	for i := range scores {
		ticks[i] = plot.Tick{Value: float64(i + 1), Label: fmt.Sprint(i + 1)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	return p, nil
}

// Save writes p to path; the format follows the extension (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "saving chart to %s", path)
	}
	return nil
}

// Write renders p in the given format ("png", "svg", ...) to w.
func Write(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(Width, Height, strings.TrimPrefix(format, "."))
	if err != nil {
		return errors.Wrapf(err, "unsupported chart format %q", format)
	}
	_, err = wt.WriteTo(w)
	return err
}

// FormatOf returns the chart format implied by a file name.
func FormatOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "png"
	}
	return ext
}
