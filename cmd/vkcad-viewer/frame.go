package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"vkcad/internal/config"
	"vkcad/internal/graphics/scene"
	"vkcad/internal/graphics/ui"
)

var axes = []struct {
	dir   mgl32.Vec3
	color [3]float32
}{
	{mgl32.Vec3{1, 0, 0}, [3]float32{0.9, 0.2, 0.2}},
	{mgl32.Vec3{0, 1, 0}, [3]float32{0.2, 0.8, 0.3}},
	{mgl32.Vec3{0, 0, 1}, [3]float32{0.25, 0.4, 0.95}},
}

// buildFrame assembles the submission for a width x height pixel target.
func buildFrame(doc *Document, cam *OrbitCamera, lighting config.LightingSettings, width, height int) *scene.FrameSubmission {
	frame := scene.NewFrameSubmission()
	aspect := float32(width) / float32(max(height, 1))
	frame.ViewProj = cam.ViewProj(aspect)
	frame.CameraPos = cam.Eye()
	frame.Lighting = lighting.ToLighting()
	frame.Bodies = doc.Bodies
	frame.Overlays = axisOverlays(frame.ViewProj, float32(width), float32(height))
	return frame
}

// axisOverlays draws the world axes from the origin, one unit long.
func axisOverlays(viewProj mgl32.Mat4, width, height float32) []ui.Overlay {
	origin, ok := toPixels(viewProj, mgl32.Vec3{}, width, height)
	if !ok {
		return nil
	}
	out := make([]ui.Overlay, 0, len(axes))
	for _, a := range axes {
		end, ok := toPixels(viewProj, a.dir, width, height)
		if !ok {
			continue
		}
		out = append(out, ui.Overlay{Start: origin, End: end, Color: a.color, Thickness: 2})
	}
	return out
}

// toPixels projects p into viewport pixels. ok is false behind the camera.
func toPixels(viewProj mgl32.Mat4, p mgl32.Vec3, width, height float32) ([2]float32, bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return [2]float32{}, false
	}
	return [2]float32{
		(clip[0]/clip[3] + 1) / 2 * width,
		(clip[1]/clip[3] + 1) / 2 * height,
	}, true
}
