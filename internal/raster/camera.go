package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a pinhole camera projecting world points onto a Canvas.
type Camera struct {
	Eye, Center, Up mgl64.Vec3
	FovY            float64 // radians
	Near, Far       float64

	viewProj mgl64.Mat4
	w, h     float64
}

// NewCamera builds a perspective camera for a w x h pixel canvas.
func NewCamera(eye, center, up mgl64.Vec3, fovY float64, w, h int) *Camera {
	c := &Camera{Eye: eye, Center: center, Up: up, FovY: fovY, Near: 0.1, Far: 100}
	c.Resize(w, h)
	return c
}

// Resize recomputes the projection after a change of canvas size or pose.
func (c *Camera) Resize(w, h int) {
	c.w, c.h = float64(w), float64(h)
	view := mgl64.LookAtV(c.Eye, c.Center, c.Up)
	proj := mgl64.Perspective(c.FovY, c.w/c.h, c.Near, c.Far)
	c.viewProj = proj.Mul4(view)
}

// Project maps p to pixel coordinates. ok is false for points behind the
// eye.
func (c *Camera) Project(p mgl64.Vec3) (x, y float64, ok bool) {
	clip := c.viewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 1e-9 {
		return 0, 0, false
	}
	ndcX := clip.X() / clip.W()
	ndcY := clip.Y() / clip.W()
	x = (ndcX + 1) * 0.5 * c.w
	y = (1 - ndcY) * 0.5 * c.h
	return x, y, true
}

// PixelsPerUnit is the approximate on-screen size of one world unit at
// distance d from the eye.
func (c *Camera) PixelsPerUnit(d float64) float64 {
	if d <= 1e-9 {
		return 0
	}
	return c.h / (2 * d * math.Tan(c.FovY/2))
}
