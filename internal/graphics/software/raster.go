package software

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"vkcad/internal/graphics/scene"
)

// targets are the CPU ID and depth attachments.
type targets struct {
	width, height int
	ids           [][4]uint32
	depth         []float32
}

func newTargets(width, height int) *targets {
	t := &targets{
		width:  width,
		height: height,
		ids:    make([][4]uint32, width*height),
		depth:  make([]float32, width*height),
	}
	t.clear()
	return t
}

// clear resets IDs to the empty sentinel and depth to the far plane.
func (t *targets) clear() {
	for i := range t.ids {
		t.ids[i] = [4]uint32{}
		t.depth[i] = 1
	}
}

func (t *targets) at(x, y int) ([4]uint32, float32, bool) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return [4]uint32{}, 0, false
	}
	i := y*t.width + x
	return t.ids[i], t.depth[i], true
}

// screenVertex is a vertex after the viewport transform.
type screenVertex struct {
	x, y, z float32
}

// project maps a world position into the viewport. ok is false behind the
// eye, where the triangle is dropped instead of clipped.
func project(p [3]float32, viewProj mgl32.Mat4, vp scene.ViewportRect) (screenVertex, bool) {
	c := viewProj.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	if c[3] <= 0 {
		return screenVertex{}, false
	}
	ndcX, ndcY, ndcZ := c[0]/c[3], c[1]/c[3], c[2]/c[3]
	return screenVertex{
		x: float32(vp.X) + (ndcX+1)/2*float32(vp.Width),
		y: float32(vp.Y) + (ndcY+1)/2*float32(vp.Height),
		z: ndcZ,
	}, true
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// drawBodies rasterizes every body with its ID. Samples sit on integer pixel
// coordinates, the same positions pick readback unprojects. Both windings
// are drawn and depth uses LESS.
func (t *targets) drawBodies(bodies []scene.BodySubmission, viewProj mgl32.Mat4, vp scene.ViewportRect) int {
	g := scene.BuildGeometry(bodies, false)
	drawn := 0
	for bi, r := range g.Ranges {
		id := scene.EncodeID(bodies[bi].ID)
		for i := r.First; i+2 < r.First+r.Count; i += 3 {
			a, okA := project(g.Vertices[g.Indices[i]].Pos, viewProj, vp)
			b, okB := project(g.Vertices[g.Indices[i+1]].Pos, viewProj, vp)
			c, okC := project(g.Vertices[g.Indices[i+2]].Pos, viewProj, vp)
			if !okA || !okB || !okC {
				continue
			}
			if t.triangle(a, b, c, id, vp) {
				drawn++
			}
		}
	}
	return drawn
}

// triangle fills one triangle and reports whether it covered any sample.
func (t *targets) triangle(a, b, c screenVertex, id [4]uint32, vp scene.ViewportRect) bool {
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return false
	}
	minX := max(int(math.Ceil(float64(min(a.x, b.x, c.x)))), int(vp.X), 0)
	minY := max(int(math.Ceil(float64(min(a.y, b.y, c.y)))), int(vp.Y), 0)
	maxX := min(int(math.Floor(float64(max(a.x, b.x, c.x)))), int(vp.X+vp.Width)-1, t.width-1)
	maxY := min(int(math.Floor(float64(max(a.y, b.y, c.y)))), int(vp.Y+vp.Height)-1, t.height-1)

	covered := false
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x), float32(y)
			w0 := edge(b, c, px, py) / area
			w1 := edge(c, a, px, py) / area
			w2 := edge(a, b, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a.z + w1*b.z + w2*c.z
			if z < 0 || z > 1 {
				continue
			}
			i := y*t.width + x
			if z < t.depth[i] {
				t.depth[i] = z
				t.ids[i] = id
				covered = true
			}
		}
	}
	return covered
}
