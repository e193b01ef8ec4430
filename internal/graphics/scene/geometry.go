package scene

import (
	"encoding/binary"
	"math"
	"math/bits"
)

const (
	// VertexStride is the byte size of one Vertex as laid out in GPU memory.
	VertexStride = 36
	// IndexSize is the byte size of one uint32 index.
	IndexSize = 4
	// MinBufferCapacity is the smallest allocation a growable buffer makes.
	MinBufferCapacity = 1024
)

// Vertex is the shared layout of the mesh and pick pipelines:
// position at offset 0, normal at 12, color at 24.
type Vertex struct {
	Pos    [3]float32
	Normal [3]float32
	Color  [3]float32
}

var defaultNormal = [3]float32{0, 1, 0}

// IndexRange locates one body inside the concatenated index stream.
type IndexRange struct {
	First uint32
	Count uint32
}

// Geometry is the concatenation of all bodies in submission order.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
	Ranges   []IndexRange
}

// BuildGeometry concatenates bodies into one vertex and one index stream.
// Indices are rebased onto each body's first vertex; bodies without indices
// get a sequential run covering whole triangles only. When highlight is false
// the base color is used as-is, which is what the pick pass wants.
func BuildGeometry(bodies []BodySubmission, highlight bool) Geometry {
	var nv, ni int
	for i := range bodies {
		nv += len(bodies[i].Mesh.Positions)
		ni += bodies[i].Mesh.IndexCount()
	}
	g := Geometry{
		Vertices: make([]Vertex, 0, nv),
		Indices:  make([]uint32, 0, ni),
		Ranges:   make([]IndexRange, 0, len(bodies)),
	}
	for i := range bodies {
		b := &bodies[i]
		base := uint32(len(g.Vertices))
		first := uint32(len(g.Indices))

		color := b.Color
		if highlight {
			color = BlendHighlight(b.Color, b.Highlight)
		}
		for j, p := range b.Mesh.Positions {
			n := defaultNormal
			if j < len(b.Mesh.Normals) {
				n = b.Mesh.Normals[j]
			}
			g.Vertices = append(g.Vertices, Vertex{Pos: p, Normal: n, Color: color})
		}

		if len(b.Mesh.Indices) > 0 {
			for _, idx := range b.Mesh.Indices {
				g.Indices = append(g.Indices, base+idx)
			}
		} else {
			n := uint32(b.Mesh.IndexCount())
			for j := uint32(0); j < n; j++ {
				g.Indices = append(g.Indices, base+j)
			}
		}
		g.Ranges = append(g.Ranges, IndexRange{First: first, Count: uint32(len(g.Indices)) - first})
	}
	return g
}

// VertexBytes encodes the vertex stream little-endian, VertexStride bytes per vertex.
func (g *Geometry) VertexBytes() []byte {
	out := make([]byte, len(g.Vertices)*VertexStride)
	off := 0
	for i := range g.Vertices {
		v := &g.Vertices[i]
		off = putVec3(out, off, v.Pos)
		off = putVec3(out, off, v.Normal)
		off = putVec3(out, off, v.Color)
	}
	return out
}

// IndexBytes encodes the index stream little-endian.
func (g *Geometry) IndexBytes() []byte {
	out := make([]byte, len(g.Indices)*IndexSize)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint32(out[i*IndexSize:], idx)
	}
	return out
}

func putVec3(dst []byte, off int, v [3]float32) int {
	for _, f := range v {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(f))
		off += 4
	}
	return off
}

// GrowCapacity returns the byte capacity a buffer must have to hold required
// bytes. The result never shrinks below current; growth jumps to the next
// power of two, with MinBufferCapacity as the floor.
func GrowCapacity(current, required int) int {
	if required <= current {
		return current
	}
	next := 1
	if required > 1 {
		next = 1 << bits.Len(uint(required-1))
	}
	return max(next, MinBufferCapacity)
}
