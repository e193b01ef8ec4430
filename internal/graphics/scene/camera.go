package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveZO builds a right-handed perspective projection with depth in
// [0, 1], the range the depth attachment and pick readback use.
// mgl32.Perspective maps depth to [-1, 1] and is not suitable here.
func PerspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	r := far / (near - far)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, r, -1,
		0, 0, r * near, 0,
	}
}

// ViewProj combines a look-at camera with PerspectiveZO.
func ViewProj(eye, target, up mgl32.Vec3, fovy, aspect, near, far float32) mgl32.Mat4 {
	return PerspectiveZO(fovy, aspect, near, far).Mul4(mgl32.LookAtV(eye, target, up))
}
