package scene

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MeshPushConstantSize is viewProj + cameraPos + three lights + ambient.
	MeshPushConstantSize = 64 + 16 + 3*32 + 16
	// PickPushConstantSize is viewProj + the four object ID words.
	PickPushConstantSize = 64 + 16
)

// MeshPushConstants is the per-frame block consumed by the mesh shader stages.
type MeshPushConstants struct {
	ViewProj  mgl32.Mat4
	CameraPos [4]float32
	Lights    [3]GPULight
	Ambient   [4]float32
}

// NewMeshPushConstants builds the mesh block. cameraPos gets w=1 and the
// ambient term is premultiplied by its intensity.
func NewMeshPushConstants(viewProj mgl32.Mat4, cameraPos mgl32.Vec3, l LightingData) MeshPushConstants {
	return MeshPushConstants{
		ViewProj:  viewProj,
		CameraPos: [4]float32{cameraPos[0], cameraPos[1], cameraPos[2], 1},
		Lights:    [3]GPULight{l.MainLight, l.Backlight, l.FillLight},
		Ambient:   l.Ambient(),
	}
}

// Bytes encodes the block little-endian in shader declaration order.
func (p *MeshPushConstants) Bytes() []byte {
	w := floatWriter{buf: make([]byte, 0, MeshPushConstantSize)}
	w.floats(p.ViewProj[:]...)
	w.floats(p.CameraPos[:]...)
	for _, l := range p.Lights {
		w.floats(l.DirectionIntensity[:]...)
		w.floats(l.ColorEnabled[:]...)
	}
	w.floats(p.Ambient[:]...)
	return w.buf
}

// PickPushConstants is the per-draw block of the pick pipeline.
type PickPushConstants struct {
	ViewProj mgl32.Mat4
	ObjectID [4]uint32
}

// Bytes encodes the block little-endian.
func (p *PickPushConstants) Bytes() []byte {
	w := floatWriter{buf: make([]byte, 0, PickPushConstantSize)}
	w.floats(p.ViewProj[:]...)
	for _, v := range p.ObjectID {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	}
	return w.buf
}

type floatWriter struct {
	buf []byte
}

func (w *floatWriter) floats(fs ...float32) {
	for _, f := range fs {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
	}
}
