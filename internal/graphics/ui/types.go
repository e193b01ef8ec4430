package ui

import (
	"encoding/binary"
	"image"
	"math"
)

// TextureID names a UI texture. WhiteTexture is always resident.
type TextureID uint64

const WhiteTexture TextureID = 0

// VertexStride is the byte size of one Vertex on the GPU: pos, uv, rgba8.
const VertexStride = 20

// Vertex is one tessellated UI vertex in points.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]uint8
}

// Rect is an axis-aligned rectangle in points.
type Rect struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// Mesh is a textured triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Texture  TextureID
}

// ClippedPrimitive is a mesh drawn with a scissor rectangle.
type ClippedPrimitive struct {
	ClipRect Rect
	Mesh     Mesh
}

// TextureUpdate uploads Image into texture ID. A nil Pos replaces the whole
// texture; otherwise Image is written at Pos inside the existing texture.
type TextureUpdate struct {
	ID    TextureID
	Image image.Image
	Pos   *image.Point
}

// TexturesDelta lists the texture changes of one frame.
type TexturesDelta struct {
	Set  []TextureUpdate
	Free []TextureID
}

// Submission is the 2D payload produced by the immediate-mode UI each frame.
type Submission struct {
	PixelsPerPoint float32
	Primitives     []ClippedPrimitive
	Textures       TexturesDelta
}

// Scale returns PixelsPerPoint, treating unset as 1.
func (s *Submission) Scale() float32 {
	if s == nil || s.PixelsPerPoint <= 0 {
		return 1
	}
	return s.PixelsPerPoint
}

// TextureOps is the number of texture uploads and frees in the delta.
func (s *Submission) TextureOps() int {
	if s == nil {
		return 0
	}
	return len(s.Textures.Set) + len(s.Textures.Free)
}

// VertexBytes encodes mesh vertices in GPU layout.
func (m *Mesh) VertexBytes() []byte {
	out := make([]byte, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		for _, f := range [4]float32{v.Pos[0], v.Pos[1], v.UV[0], v.UV[1]} {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		out = append(out, v.Color[:]...)
	}
	return out
}

// IndexBytes encodes mesh indices little-endian.
func (m *Mesh) IndexBytes() []byte {
	out := make([]byte, 0, len(m.Indices)*4)
	for _, i := range m.Indices {
		out = binary.LittleEndian.AppendUint32(out, i)
	}
	return out
}

// ScissorPixels converts a clip rect in points to a pixel rectangle clamped
// to a width x height target. ok is false when nothing remains visible.
func (r Rect) ScissorPixels(pixelsPerPoint float32, width, height uint32) (x, y int32, w, h uint32, ok bool) {
	minX := clampf(float32(math.Round(float64(r.MinX*pixelsPerPoint))), 0, float32(width))
	minY := clampf(float32(math.Round(float64(r.MinY*pixelsPerPoint))), 0, float32(height))
	maxX := clampf(float32(math.Round(float64(r.MaxX*pixelsPerPoint))), minX, float32(width))
	maxY := clampf(float32(math.Round(float64(r.MaxY*pixelsPerPoint))), minY, float32(height))
	w = uint32(maxX - minX)
	h = uint32(maxY - minY)
	if w == 0 || h == 0 {
		return 0, 0, 0, 0, false
	}
	return int32(minX), int32(minY), w, h, true
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
