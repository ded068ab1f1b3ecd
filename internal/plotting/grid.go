package plotting

import "gonum.org/v1/gonum/mat"

// Grid exposes a matrix as a plotter.GridXYZ. Row r of Values is drawn at
// Y0 + r*DY and column c at X0 + c*DX.
type Grid struct {
	Values         mat.Matrix
	X0, Y0, DX, DY float64
}

func (g Grid) Dims() (c, r int) {
	r, c = g.Values.Dims()
	return c, r
}

func (g Grid) Z(c, r int) float64 { return g.Values.At(r, c) }
func (g Grid) X(c int) float64    { return g.X0 + float64(c)*g.DX }
func (g Grid) Y(r int) float64    { return g.Y0 + float64(r)*g.DY }
