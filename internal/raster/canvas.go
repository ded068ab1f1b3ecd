// Package raster draws simple filled primitives into an RGBA buffer and
// turns numbered PNG frames into an MP4 with ffmpeg.
package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// Canvas is a reusable frame buffer in pixel coordinates, origin top-left.
type Canvas struct {
	img *image.RGBA
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (cv *Canvas) Image() *image.RGBA { return cv.img }

func (cv *Canvas) Size() (w, h int) {
	b := cv.img.Bounds()
	return b.Dx(), b.Dy()
}

func (cv *Canvas) Fill(c color.RGBA) {
	b := cv.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cv.img.SetRGBA(x, y, c)
		}
	}
}

// clip bounds a pixel range to the image.
func (cv *Canvas) clip(minX, maxX, minY, maxY int) (int, int, int, int) {
	b := cv.img.Bounds()
	if minX < b.Min.X {
		minX = b.Min.X
	}
	if maxX > b.Max.X {
		maxX = b.Max.X
	}
	if minY < b.Min.Y {
		minY = b.Min.Y
	}
	if maxY > b.Max.Y {
		maxY = b.Max.Y
	}
	return minX, maxX, minY, maxY
}

// Rect fills a w x h rectangle centred on (cx, cy).
func (cv *Canvas) Rect(cx, cy, w, h float64, c color.RGBA) {
	minX, maxX, minY, maxY := cv.clip(
		int(math.Round(cx-w/2)), int(math.Round(cx+w/2)),
		int(math.Round(cy-h/2)), int(math.Round(cy+h/2)),
	)
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			cv.img.SetRGBA(x, y, c)
		}
	}
}

// Circle fills every pixel whose centre lies within r of (cx, cy).
func (cv *Canvas) Circle(cx, cy, r float64, c color.RGBA) {
	minX, maxX, minY, maxY := cv.clip(
		int(math.Floor(cx-r)), int(math.Ceil(cx+r))+1,
		int(math.Floor(cy-r)), int(math.Ceil(cy+r))+1,
	)
	rsq := r * r
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			dx := (float64(x) + 0.5) - cx
			dy := (float64(y) + 0.5) - cy
			if dx*dx+dy*dy <= rsq {
				cv.img.SetRGBA(x, y, c)
			}
		}
	}
}

// Line stamps circles of the given width along the segment.
func (cv *Canvas) Line(x1, y1, x2, y2, width float64, c color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	dist := math.Hypot(dx, dy)
	if dist < 1e-6 {
		cv.Circle(x1, y1, width/2, c)
		return
	}
	steps := int(dist / 0.8)
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cv.Circle(x1+t*dx, y1+t*dy, width/2, c)
	}
}

// Triangle fills a triangle of either winding with a barycentric test.
func (cv *Canvas) Triangle(ax, ay, bx, by, cx, cy float64, col color.RGBA) {
	minX, maxX, minY, maxY := cv.clip(
		int(math.Floor(math.Min(ax, math.Min(bx, cx)))),
		int(math.Ceil(math.Max(ax, math.Max(bx, cx)))),
		int(math.Floor(math.Min(ay, math.Min(by, cy)))),
		int(math.Ceil(math.Max(ay, math.Max(by, cy)))),
	)

	edge := func(x0, y0, x1, y1, x, y float64) float64 {
		return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
	}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			px := float64(x) + 0.5
			py := float64(y) + 0.5

			w0 := edge(bx, by, cx, cy, px, py)
			w1 := edge(cx, cy, ax, ay, px, py)
			w2 := edge(ax, ay, bx, by, px, py)

			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				cv.img.SetRGBA(x, y, col)
			}
		}
	}
}

// Arrow draws a shaft from (x1, y1) with a filled head at (x2, y2).
func (cv *Canvas) Arrow(x1, y1, x2, y2 float64, col color.RGBA) {
	cv.Line(x1, y1, x2, y2, 4.0, col)

	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		return
	}
	ux, uy := dx/length, dy/length
	nx, ny := -uy, ux

	const headLen, headW = 16.0, 8.0
	baseX := x2 - ux*headLen
	baseY := y2 - uy*headLen
	cv.Triangle(x2, y2,
		baseX+nx*headW, baseY+ny*headW,
		baseX-nx*headW, baseY-ny*headW,
		col)
}

// WritePNG encodes the current buffer to filename.
func (cv *Canvas) WritePNG(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create frame: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := png.Encode(bw, cv.img); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cannot write png: %w", err)
	}
	return f.Close()
}
