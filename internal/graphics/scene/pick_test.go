package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

func TestEncodeDecodeID(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")
	w := EncodeID(id)
	if w[0] != 0x33221100 || w[3] != 0xffeeddcc {
		t.Errorf("EncodeID = %#x, want little-endian words", w)
	}
	if got := DecodeID(w); got != id {
		t.Errorf("DecodeID(EncodeID(%s)) = %s", id, got)
	}
	if IsEmptyID(w) {
		t.Errorf("non-nil id reported empty")
	}
	if !IsEmptyID(EncodeID(uuid.Nil)) {
		t.Errorf("nil uuid should encode to the empty sentinel")
	}
}

func TestUnprojectInvertsProjection(t *testing.T) {
	viewProj := ViewProj(mgl32.Vec3{1, 2, 6}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(50), 1.6, 0.1, 100)
	vp := ViewportRect{X: 40, Y: 10, Width: 800, Height: 500}
	capture := PickCapture{ViewProj: viewProj, Viewport: vp}

	for _, world := range []mgl32.Vec3{{0, 0, 0}, {0.5, -0.3, 0.2}, {-1, 1, -2}} {
		clip := viewProj.Mul4x1(world.Vec4(1))
		ndc := clip.Vec3().Mul(1 / clip[3])
		x := float32(vp.X) + (ndc[0]+1)/2*float32(vp.Width)
		y := float32(vp.Y) + (ndc[1]+1)/2*float32(vp.Height)

		got, ok := Unproject(x, y, ndc[2], capture)
		if !ok {
			t.Fatalf("Unproject(%v) failed", world)
		}
		if got.Sub(world).Len() > 1e-3 {
			t.Errorf("Unproject round trip: got %v, want %v", got, world)
		}
	}
}

func TestUnprojectEmptyViewport(t *testing.T) {
	if _, ok := Unproject(1, 1, 0.5, PickCapture{ViewProj: mgl32.Ident4()}); ok {
		t.Errorf("empty viewport should not unproject")
	}
}

func TestUnprojectNoYFlip(t *testing.T) {
	capture := PickCapture{ViewProj: mgl32.Ident4(), Viewport: ViewportRect{Width: 100, Height: 100}}
	got, ok := Unproject(0, 0, 0.5, capture)
	if !ok {
		t.Fatal("Unproject failed")
	}
	if want := (mgl32.Vec3{-1, -1, 0.5}); got != want {
		t.Errorf("top-left pixel unprojects to %v, want %v", got, want)
	}
}

func TestResolvePick(t *testing.T) {
	capture := PickCapture{ViewProj: mgl32.Ident4(), Viewport: ViewportRect{Width: 10, Height: 10}}
	if res := ResolvePick(5, 5, [4]uint32{}, 0.25, capture); res.Hit() || res.WorldPosition != nil {
		t.Errorf("empty words: got %s, want no hit", res)
	}

	id := uuid.New()
	res := ResolvePick(5, 5, EncodeID(id), 0.25, capture)
	if !res.Hit() || *res.BodyID != id {
		t.Fatalf("got %s, want %s", res, id)
	}
	if res.Depth != 0.25 {
		t.Errorf("depth = %f, want 0.25", res.Depth)
	}
	if res.WorldPosition == nil || *res.WorldPosition != (mgl32.Vec3{0, 0, 0.25}) {
		t.Errorf("world position = %v", res.WorldPosition)
	}
}

func TestPerspectiveZODepthRange(t *testing.T) {
	p := PerspectiveZO(mgl32.DegToRad(60), 1, 0.5, 20)
	for _, tt := range []struct {
		z, want float32
	}{
		{-0.5, 0},
		{-20, 1},
	} {
		c := p.Mul4x1(mgl32.Vec4{0, 0, tt.z, 1})
		if d := c[2] / c[3]; math.Abs(float64(d-tt.want)) > 1e-6 {
			t.Errorf("depth at z=%f is %f, want %f", tt.z, d, tt.want)
		}
	}
}

func TestMeshPushConstantsLayout(t *testing.T) {
	l := DefaultLighting()
	l.FillLight = DisabledLight()
	p := NewMeshPushConstants(mgl32.Ident4(), mgl32.Vec3{1, 2, 3}, l)
	b := p.Bytes()
	if len(b) != MeshPushConstantSize || MeshPushConstantSize != 192 {
		t.Fatalf("mesh block is %d bytes, want 192", len(b))
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[off:])) }
	if f(0) != 1 || f(20) != 1 || f(4) != 0 {
		t.Errorf("viewProj not packed column-major identity")
	}
	if f(64) != 1 || f(68) != 2 || f(72) != 3 || f(76) != 1 {
		t.Errorf("camera position = %v %v %v %v", f(64), f(68), f(72), f(76))
	}
	// main light colour-enabled w at 80+16+12
	if f(108) != 1 {
		t.Errorf("main light should be enabled")
	}
	// fill light is the third light
	if f(80+2*32+28) != 0 {
		t.Errorf("fill light should be disabled")
	}
	if f(176) != 0.2 || f(188) != 1 {
		t.Errorf("ambient = %v w=%v", f(176), f(188))
	}
}

func TestPickPushConstantsLayout(t *testing.T) {
	id := uuid.New()
	p := PickPushConstants{ViewProj: mgl32.Ident4(), ObjectID: EncodeID(id)}
	b := p.Bytes()
	if len(b) != PickPushConstantSize || PickPushConstantSize != 80 {
		t.Fatalf("pick block is %d bytes, want 80", len(b))
	}
	var got BodyID
	copy(got[:], b[64:])
	if got != id {
		t.Errorf("object id bytes = %s, want %s", got, id)
	}
}

func TestLightDirection(t *testing.T) {
	tests := []struct {
		h, v float32
		want [3]float32
	}{
		{0, 0, [3]float32{0, 0, 1}},
		{90, 0, [3]float32{1, 0, 0}},
		{0, 90, [3]float32{0, -1, 0}},
		{180, 0, [3]float32{0, 0, -1}},
	}
	for _, tt := range tests {
		got := LightDirection(tt.h, tt.v)
		for i := range got {
			if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
				t.Errorf("LightDirection(%v, %v) = %v, want %v", tt.h, tt.v, got, tt.want)
				break
			}
		}
	}
}

func TestViewportOr(t *testing.T) {
	f := NewFrameSubmission()
	if got := f.ViewportOr(640, 480); got != (ViewportRect{Width: 640, Height: 480}) {
		t.Errorf("default viewport = %+v", got)
	}
	f.Viewport = &ViewportRect{X: 10, Y: 20, Width: 30, Height: 40}
	if got := f.ViewportOr(640, 480); got != *f.Viewport {
		t.Errorf("explicit viewport ignored: %+v", got)
	}
}
