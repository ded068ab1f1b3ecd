package raster

import (
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Shade scales base by a Lambert term. Normals facing away are lit as if
// flipped so both sides of a sheet are visible.
func Shade(base color.RGBA, normal, toLight mgl64.Vec3) color.RGBA {
	k := 0.3 + 0.7*math.Abs(normal.Dot(toLight))
	if k > 1 {
		k = 1
	}
	return color.RGBA{
		R: uint8(math.Round(float64(base.R) * k)),
		G: uint8(math.Round(float64(base.G) * k)),
		B: uint8(math.Round(float64(base.B) * k)),
		A: base.A,
	}
}

type tri struct {
	v     [3]mgl64.Vec3
	n     mgl64.Vec3
	depth float64
}

// Sheet draws a particle grid as shaded triangles, farthest first. grid and
// normals are indexed [row][col].
func (cv *Canvas) Sheet(cam *Camera, grid, normals [][]mgl64.Vec3, base color.RGBA, toLight mgl64.Vec3) {
	if len(grid) < 2 || len(grid[0]) < 2 {
		return
	}
	tris := make([]tri, 0, 2*(len(grid)-1)*(len(grid[0])-1))
	add := func(a, b, c [2]int) {
		v := [3]mgl64.Vec3{grid[a[0]][a[1]], grid[b[0]][b[1]], grid[c[0]][c[1]]}
		n := normals[a[0]][a[1]].Add(normals[b[0]][b[1]]).Add(normals[c[0]][c[1]])
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		centroid := v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3)
		tris = append(tris, tri{v: v, n: n, depth: centroid.Sub(cam.Eye).Len()})
	}
	for i := 0; i+1 < len(grid); i++ {
		for j := 0; j+1 < len(grid[i]); j++ {
			add([2]int{i, j}, [2]int{i + 1, j}, [2]int{i, j + 1})
			add([2]int{i + 1, j + 1}, [2]int{i, j + 1}, [2]int{i + 1, j})
		}
	}
	sort.Slice(tris, func(a, b int) bool { return tris[a].depth > tris[b].depth })

	for _, t := range tris {
		ax, ay, ok1 := cam.Project(t.v[0])
		bx, by, ok2 := cam.Project(t.v[1])
		cx, cy, ok3 := cam.Project(t.v[2])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		cv.Triangle(ax, ay, bx, by, cx, cy, Shade(base, t.n, toLight))
	}
}

// boxEdges index the corners produced by boxCorners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// WireBox draws the edges of the unit cube [-1, 1]^3 under transform m.
func (cv *Canvas) WireBox(cam *Camera, m mgl64.Mat4, width float64, c color.RGBA) {
	var px [8][2]float64
	for k := 0; k < 8; k++ {
		corner := mgl64.Vec3{
			float64(k&1)*2 - 1,
			float64(k>>1&1)*2 - 1,
			float64(k>>2&1)*2 - 1,
		}
		x, y, ok := cam.Project(mgl64.TransformCoordinate(corner, m))
		if !ok {
			return
		}
		px[k] = [2]float64{x, y}
	}
	for _, e := range boxEdges {
		a, b := px[e[0]], px[e[1]]
		cv.Line(a[0], a[1], b[0], b[1], width, c)
	}
}

// Ball draws a sphere as a disc whose radius follows the perspective scale.
func (cv *Canvas) Ball(cam *Camera, center mgl64.Vec3, radius float64, c color.RGBA) {
	x, y, ok := cam.Project(center)
	if !ok {
		return
	}
	r := radius * cam.PixelsPerUnit(center.Sub(cam.Eye).Len())
	cv.Circle(x, y, math.Max(r, 1), c)
}
