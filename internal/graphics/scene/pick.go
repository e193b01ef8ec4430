package scene

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// EncodeID splits an identifier into the four little-endian words written to
// the ID attachment.
func EncodeID(id BodyID) [4]uint32 {
	var w [4]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(id[i*4:])
	}
	return w
}

// DecodeID reverses EncodeID.
func DecodeID(w [4]uint32) BodyID {
	var id BodyID
	for i, v := range w {
		binary.LittleEndian.PutUint32(id[i*4:], v)
	}
	return id
}

// IsEmptyID reports whether the words hold the cleared "no object" value.
func IsEmptyID(w [4]uint32) bool {
	return w == [4]uint32{}
}

// PickCapture is the view state in effect when a pick pass was recorded.
// Readback always unprojects with the capture of the pass that produced the
// buffer, which may be one frame behind the latest submission.
type PickCapture struct {
	ViewProj mgl32.Mat4
	Viewport ViewportRect
}

// Unproject maps a window pixel and a depth-buffer value back to world space.
// Device coordinates have a top-left origin, so there is no Y flip.
func Unproject(x, y float32, depth float32, c PickCapture) (mgl32.Vec3, bool) {
	vp := c.Viewport
	if vp.Empty() {
		return mgl32.Vec3{}, false
	}
	lx := x - float32(vp.X)
	ly := y - float32(vp.Y)
	ndcX := lx/float32(vp.Width)*2 - 1
	ndcY := ly/float32(vp.Height)*2 - 1

	inv := c.ViewProj.Inv()
	p := inv.Mul4x1(mgl32.Vec4{ndcX, ndcY, depth, 1})
	w := p[3]
	if w == 0 || math.IsNaN(float64(w)) || math.IsInf(float64(w), 0) {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{p[0] / w, p[1] / w, p[2] / w}, true
}

// ResolvePick turns raw readback values into a PickResult. Empty ID words
// produce the zero result regardless of depth.
func ResolvePick(x, y float32, words [4]uint32, depth float32, c PickCapture) PickResult {
	if IsEmptyID(words) {
		return PickResult{}
	}
	id := DecodeID(words)
	res := PickResult{BodyID: &id, Depth: depth}
	if pos, ok := Unproject(x, y, depth, c); ok {
		res.WorldPosition = &pos
	}
	return res
}
