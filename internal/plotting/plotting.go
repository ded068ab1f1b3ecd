// Package plotting renders simulation logs with Gonum Plot.
//
// All figures share one style: large fonts, thick axes, at most ten tick
// labels per axis, and a 300 DPI PNG canvas.
package plotting

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI of every saved PNG.
const DPI = 300

// Series is one named curve of a line plot.
type Series struct {
	Name string
	X, Y []float64
}

// seriesColors cycles through distinguishable line colors.
var seriesColors = []color.RGBA{
	{40, 140, 255, 255},
	{240, 70, 70, 255},
	{60, 180, 90, 255},
	{255, 170, 30, 255},
}

// LimitedTicker returns a tick generator producing at most maxLabels evenly
// spaced ticks formatted with labelFmt (e.g. "%.1f").
func LimitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// DefaultTickFormat labels both axes of plots made by New.
const DefaultTickFormat = "%.2f"

// New creates a styled plot with the given title and axis labels.
func New(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	Style(p, DefaultTickFormat, DefaultTickFormat)
	return p
}

// Style applies the shared fonts and line widths to p and labels at most ten
// ticks per axis with xFmt and yFmt.
func Style(p *plot.Plot, xFmt, yFmt string) {
	p.Title.TextStyle.Font.Size = vg.Points(22)
	p.Title.Padding = vg.Points(12)

	for _, a := range []struct {
		axis *plot.Axis
		fmt  string
	}{{&p.X, xFmt}, {&p.Y, yFmt}} {
		ax := a.axis
		ax.Label.TextStyle.Font.Size = vg.Points(18)
		ax.Label.Padding = vg.Points(10)
		ax.LineStyle.Width = vg.Points(2.2)
		ax.Padding = vg.Points(20)
		ax.Tick.LineStyle.Width = vg.Points(2.0)
		ax.Tick.Length = vg.Points(8)
		ax.Tick.Label.Font.Size = vg.Points(14)
		ax.Tick.Marker = LimitedTicker(10, a.fmt)
	}
}

// SavePNG renders p onto a widthIn x heightIn inch canvas and writes it to
// filename, creating the parent directory.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// Lines builds a styled plot holding every series, with a legend when more
// than one series is given.
func Lines(title, xlabel, ylabel string, series ...Series) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("plot %q: no series", title)
	}
	p := New(title, xlabel, ylabel)
	for k, s := range series {
		if len(s.X) != len(s.Y) || len(s.X) == 0 {
			return nil, fmt.Errorf("plot %q: series %q has %d x and %d y values", title, s.Name, len(s.X), len(s.Y))
		}
		pts := make(plotter.XYs, len(s.X))
		for i := range s.X {
			pts[i].X = s.X[i]
			pts[i].Y = s.Y[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(3.0)
		line.LineStyle.Color = seriesColors[k%len(seriesColors)]
		p.Add(line)
		if len(series) > 1 {
			p.Legend.Add(s.Name, line)
		}
	}
	if len(series) > 1 {
		p.Legend.Top = true
		p.Legend.TextStyle.Font.Size = vg.Points(14)
	}
	return p, nil
}

// SaveLines writes an 8x6 inch line plot to outDir/filename.
func SaveLines(outDir, filename, title, xlabel, ylabel string, series ...Series) error {
	p, err := Lines(title, xlabel, ylabel, series...)
	if err != nil {
		return err
	}
	return SavePNG(p, 8.0, 6.0, filepath.Join(outDir, filename))
}

// SaveHeatMap writes an 8x6.5 inch heatmap of grid using the Kindlmann
// palette.
func SaveHeatMap(filename, title, xlabel, ylabel string, grid plotter.GridXYZ) error {
	p := New(title, xlabel, ylabel)
	pal := moreland.Kindlmann().Palette(255)
	p.Add(plotter.NewHeatMap(grid, pal))
	return SavePNG(p, 8.0, 6.5, filename)
}
