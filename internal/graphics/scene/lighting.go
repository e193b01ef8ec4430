package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPULight matches the std430 layout of a directional light in the mesh shader.
type GPULight struct {
	DirectionIntensity [4]float32
	ColorEnabled       [4]float32
}

// NewGPULight packs a light. enabled is stored as 1.0 or 0.0 in ColorEnabled[3].
func NewGPULight(direction, color [3]float32, intensity float32, enabled bool) GPULight {
	var e float32
	if enabled {
		e = 1
	}
	return GPULight{
		DirectionIntensity: [4]float32{direction[0], direction[1], direction[2], intensity},
		ColorEnabled:       [4]float32{color[0], color[1], color[2], e},
	}
}

// Enabled reports whether the shader will evaluate this light.
func (l GPULight) Enabled() bool {
	return l.ColorEnabled[3] != 0
}

// LightingData holds the three directional lights and the ambient term.
type LightingData struct {
	MainLight        GPULight
	Backlight        GPULight
	FillLight        GPULight
	AmbientColor     [3]float32
	AmbientIntensity float32
}

// Ambient returns the premultiplied ambient term with w=1.
func (l LightingData) Ambient() [4]float32 {
	return [4]float32{
		l.AmbientColor[0] * l.AmbientIntensity,
		l.AmbientColor[1] * l.AmbientIntensity,
		l.AmbientColor[2] * l.AmbientIntensity,
		1,
	}
}

// DisabledLight is a light the shader skips.
func DisabledLight() GPULight {
	return GPULight{}
}

// LightDirection converts horizontal/vertical angles in degrees into a unit
// direction. Horizontal 0 faces +Z and 90 faces +X; vertical 90 points down -Y.
func LightDirection(horizontalDeg, verticalDeg float32) [3]float32 {
	h := float64(mgl32.DegToRad(horizontalDeg))
	v := float64(mgl32.DegToRad(verticalDeg))
	cv := math.Cos(v)
	return [3]float32{
		float32(math.Sin(h) * cv),
		float32(-math.Sin(v)),
		float32(math.Cos(h) * cv),
	}
}

// DefaultLighting is the three-point studio rig used when no settings are loaded.
func DefaultLighting() LightingData {
	return LightingData{
		MainLight:        NewGPULight(LightDirection(100, -46), [3]float32{0.9, 0.9, 0.9}, 0.9, true),
		Backlight:        NewGPULight(LightDirection(-130, -10), [3]float32{0.8, 0.8, 0.85}, 0.6, true),
		FillLight:        NewGPULight(LightDirection(-40, 5), [3]float32{0.7, 0.8, 1.0}, 0.4, true),
		AmbientColor:     [3]float32{1, 1, 1},
		AmbientIntensity: 0.2,
	}
}
