package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"vkcad/internal/graphics/scene"
)

// flipY maps the right-handed y-up camera onto Vulkan's y-down framebuffer.
var flipY = mgl32.Scale3D(1, -1, 1)

// OrbitCamera circles a target point.
type OrbitCamera struct {
	Target   mgl32.Vec3
	Yaw      float32 // degrees around +Y
	Pitch    float32 // degrees above the horizon
	Distance float32
	FovY     float32 // degrees
	Near     float32
	Far      float32
}

func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Target:   mgl32.Vec3{0, 0.5, 0},
		Yaw:      35,
		Pitch:    25,
		Distance: 9,
		FovY:     45,
		Near:     0.1,
		Far:      200,
	}
}

// Eye returns the camera position.
func (c *OrbitCamera) Eye() mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	offset := mgl32.Vec3{
		float32(math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Cos(yaw) * math.Cos(pitch)),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// ViewProj returns the combined matrix for a viewport of the given aspect.
func (c *OrbitCamera) ViewProj(aspect float32) mgl32.Mat4 {
	vp := scene.ViewProj(c.Eye(), c.Target, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	return flipY.Mul4(vp)
}

// Orbit rotates by a cursor delta in pixels.
func (c *OrbitCamera) Orbit(dx, dy float64) {
	c.Yaw -= float32(dx) * 0.3
	c.Pitch = mgl32.Clamp(c.Pitch+float32(dy)*0.3, -89, 89)
}

// Zoom scales the distance by scroll steps.
func (c *OrbitCamera) Zoom(steps float64) {
	c.Distance = mgl32.Clamp(c.Distance*float32(math.Pow(0.9, steps)), 1, 100)
}
