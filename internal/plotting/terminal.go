package plotting

import (
	"github.com/guptarohit/asciigraph"
)

// Terminal renders ys as a small ASCII chart for console summaries. Long
// series are resampled to width columns.
func Terminal(ys []float64, caption string, width, height int) string {
	if len(ys) == 0 {
		return ""
	}
	return asciigraph.Plot(ys,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}
