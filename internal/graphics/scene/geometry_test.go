package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/google/uuid"
)

func triangleBody(color [3]float32, h HighlightState) BodySubmission {
	return BodySubmission{
		ID: uuid.New(),
		Mesh: Mesh{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Normals:   [][3]float32{{0, 0, 1}},
		},
		Color:     color,
		Highlight: h,
	}
}

func TestGrowCapacity(t *testing.T) {
	tests := []struct {
		current, required, want int
	}{
		{0, 0, 0},
		{0, 1, MinBufferCapacity},
		{0, 1024, 1024},
		{0, 1025, 2048},
		{1024, 10, 1024},
		{2048, 1500, 2048},
		{2048, 4097, 8192},
		{0, 3000, 4096},
	}
	for _, tt := range tests {
		if got := GrowCapacity(tt.current, tt.required); got != tt.want {
			t.Errorf("GrowCapacity(%d, %d) = %d, want %d", tt.current, tt.required, got, tt.want)
		}
	}
}

func TestGrowCapacityMonotonic(t *testing.T) {
	capacity := 0
	for _, bodies := range []int{3, 0, 40, 7, 400, 1, 0, 1200, 5} {
		required := bodies * 3 * VertexStride
		next := GrowCapacity(capacity, required)
		if next < capacity {
			t.Fatalf("capacity shrank from %d to %d", capacity, next)
		}
		if next < required {
			t.Fatalf("capacity %d below required %d", next, required)
		}
		capacity = next
	}
}

func TestBuildGeometryConcatenates(t *testing.T) {
	indexed := BodySubmission{
		ID: uuid.New(),
		Mesh: Mesh{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
			Indices:   []uint32{0, 1, 2, 0, 2, 3},
		},
	}
	plain := triangleBody([3]float32{1, 0, 0}, HighlightNone)

	g := BuildGeometry([]BodySubmission{indexed, plain}, false)
	if len(g.Vertices) != 7 {
		t.Fatalf("vertices = %d, want 7", len(g.Vertices))
	}
	wantIdx := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6}
	if len(g.Indices) != len(wantIdx) {
		t.Fatalf("indices = %v, want %v", g.Indices, wantIdx)
	}
	for i := range wantIdx {
		if g.Indices[i] != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", g.Indices, wantIdx)
		}
	}
	wantRanges := []IndexRange{{First: 0, Count: 6}, {First: 6, Count: 3}}
	for i, r := range wantRanges {
		if g.Ranges[i] != r {
			t.Errorf("range %d = %+v, want %+v", i, g.Ranges[i], r)
		}
	}
}

func TestBuildGeometryDefaultNormals(t *testing.T) {
	g := BuildGeometry([]BodySubmission{triangleBody([3]float32{}, HighlightNone)}, false)
	if g.Vertices[0].Normal != [3]float32{0, 0, 1} {
		t.Errorf("explicit normal lost: %v", g.Vertices[0].Normal)
	}
	for _, v := range g.Vertices[1:] {
		if v.Normal != [3]float32{0, 1, 0} {
			t.Errorf("missing normal should default to +Y, got %v", v.Normal)
		}
	}
}

func TestBuildGeometryPartialTriangleDropped(t *testing.T) {
	b := BodySubmission{Mesh: Mesh{Positions: make([][3]float32, 5)}}
	g := BuildGeometry([]BodySubmission{b}, false)
	if len(g.Indices) != 3 {
		t.Errorf("indices = %d, want 3", len(g.Indices))
	}
	if len(g.Vertices) != 5 {
		t.Errorf("vertices = %d, want 5", len(g.Vertices))
	}
}

func TestMeshIndexCount(t *testing.T) {
	tests := []struct {
		name string
		mesh Mesh
		want int
	}{
		{"empty", Mesh{}, 0},
		{"indexed", Mesh{Positions: make([][3]float32, 4), Indices: []uint32{0, 1, 2, 0, 2, 3}}, 6},
		{"sequential", Mesh{Positions: make([][3]float32, 6)}, 6},
		{"partial triangle", Mesh{Positions: make([][3]float32, 8)}, 6},
	}
	for _, tt := range tests {
		if got := tt.mesh.IndexCount(); got != tt.want {
			t.Errorf("%s: IndexCount = %d, want %d", tt.name, got, tt.want)
		}
	}
	g := BuildGeometry([]BodySubmission{{Mesh: tests[3].mesh}}, false)
	if len(g.Indices) != tests[3].mesh.IndexCount() {
		t.Errorf("BuildGeometry emitted %d indices, IndexCount says %d", len(g.Indices), tests[3].mesh.IndexCount())
	}
}

func TestBuildGeometryHighlight(t *testing.T) {
	base := [3]float32{0.5, 0.5, 0.5}
	b := triangleBody(base, HighlightSelected)

	if got := BuildGeometry([]BodySubmission{b}, false).Vertices[0].Color; got != base {
		t.Errorf("pick geometry color = %v, want base %v", got, base)
	}
	want := BlendHighlight(base, HighlightSelected)
	if got := BuildGeometry([]BodySubmission{b}, true).Vertices[0].Color; got != want {
		t.Errorf("mesh geometry color = %v, want %v", got, want)
	}
}

func TestGeometryBytes(t *testing.T) {
	g := BuildGeometry([]BodySubmission{triangleBody([3]float32{0.25, 0.5, 0.75}, HighlightNone)}, false)
	vb := g.VertexBytes()
	if len(vb) != 3*VertexStride {
		t.Fatalf("vertex bytes = %d, want %d", len(vb), 3*VertexStride)
	}
	// second vertex, position x at offset 36, colour b at offset 36+32
	if x := math.Float32frombits(binary.LittleEndian.Uint32(vb[36:])); x != 1 {
		t.Errorf("vertex 1 x = %f, want 1", x)
	}
	if b := math.Float32frombits(binary.LittleEndian.Uint32(vb[36+32:])); b != 0.75 {
		t.Errorf("vertex 1 blue = %f, want 0.75", b)
	}
	ib := g.IndexBytes()
	if len(ib) != 3*IndexSize || binary.LittleEndian.Uint32(ib[8:]) != 2 {
		t.Errorf("index bytes = %v", ib)
	}
}

func TestBlendHighlight(t *testing.T) {
	tests := []struct {
		name string
		in   [3]float32
		h    HighlightState
		want [3]float32
	}{
		{"none", [3]float32{0.2, 0.4, 0.6}, HighlightNone, [3]float32{0.2, 0.4, 0.6}},
		{"hovered", [3]float32{0.5, 0.5, 0.5}, HighlightHovered, [3]float32{0.7, 0.75, 0.8}},
		{"hovered clamps", [3]float32{1, 1, 1}, HighlightHovered, [3]float32{1, 1, 1}},
		{"selected", [3]float32{0.5, 0.5, 0.5}, HighlightSelected, [3]float32{0.65, 0.55, 0.25}},
		{"both", [3]float32{0.5, 0.5, 0.5}, HighlightHoveredAndSelected, [3]float32{0.7, 0.65, 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlendHighlight(tt.in, tt.h)
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Fatalf("BlendHighlight(%v, %s) = %v, want %v", tt.in, tt.h, got, tt.want)
				}
			}
		})
	}
}

func BenchmarkBuildGeometry(b *testing.B) {
	bodies := make([]BodySubmission, 200)
	for i := range bodies {
		bodies[i] = triangleBody([3]float32{0.5, 0.5, 0.5}, HighlightState(i%4))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g := BuildGeometry(bodies, true)
		_ = g.VertexBytes()
	}
}
