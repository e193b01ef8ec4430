package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"vkcad/internal/graphics/scene"
)

// flatMesh builds an unindexed mesh with one normal per face. Triangles
// are counter-clockwise seen from outside.
func flatMesh(tris [][3]mgl32.Vec3) scene.Mesh {
	m := scene.Mesh{
		Positions: make([][3]float32, 0, len(tris)*3),
		Normals:   make([][3]float32, 0, len(tris)*3),
	}
	for _, t := range tris {
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Normalize()
		for _, p := range t {
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, n)
		}
	}
	return m
}

func pyramidMesh(center mgl32.Vec3, half, height float32) scene.Mesh {
	b := [4]mgl32.Vec3{
		center.Add(mgl32.Vec3{-half, 0, half}),
		center.Add(mgl32.Vec3{half, 0, half}),
		center.Add(mgl32.Vec3{half, 0, -half}),
		center.Add(mgl32.Vec3{-half, 0, -half}),
	}
	apex := center.Add(mgl32.Vec3{0, height, 0})
	return flatMesh([][3]mgl32.Vec3{
		{b[0], b[1], apex},
		{b[1], b[2], apex},
		{b[2], b[3], apex},
		{b[3], b[0], apex},
		{b[0], b[3], b[2]},
		{b[0], b[2], b[1]},
	})
}

func boxMesh(lo, hi mgl32.Vec3) scene.Mesh {
	c := func(x, y, z int) mgl32.Vec3 {
		p := lo
		if x == 1 {
			p[0] = hi[0]
		}
		if y == 1 {
			p[1] = hi[1]
		}
		if z == 1 {
			p[2] = hi[2]
		}
		return p
	}
	quad := func(a, b, cc, d mgl32.Vec3) [][3]mgl32.Vec3 {
		return [][3]mgl32.Vec3{{a, b, cc}, {a, cc, d}}
	}
	var tris [][3]mgl32.Vec3
	tris = append(tris, quad(c(0, 0, 1), c(1, 0, 1), c(1, 1, 1), c(0, 1, 1))...) // +z
	tris = append(tris, quad(c(1, 0, 0), c(0, 0, 0), c(0, 1, 0), c(1, 1, 0))...) // -z
	tris = append(tris, quad(c(1, 0, 1), c(1, 0, 0), c(1, 1, 0), c(1, 1, 1))...) // +x
	tris = append(tris, quad(c(0, 0, 0), c(0, 0, 1), c(0, 1, 1), c(0, 1, 0))...) // -x
	tris = append(tris, quad(c(0, 1, 1), c(1, 1, 1), c(1, 1, 0), c(0, 1, 0))...) // +y
	tris = append(tris, quad(c(0, 0, 0), c(1, 0, 0), c(1, 0, 1), c(0, 0, 1))...) // -y
	return flatMesh(tris)
}

// groundMesh is an indexed square at y=0 facing up. Normals are left to
// the +Y default.
func groundMesh(half float32) scene.Mesh {
	return scene.Mesh{
		Positions: [][3]float32{
			{-half, 0, half}, {half, 0, half}, {half, 0, -half}, {-half, 0, -half},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Document is the set of bodies the viewer shows, with hover and selection
// state driven by pick results.
type Document struct {
	Bodies   []scene.BodySubmission
	names    map[scene.BodyID]string
	hovered  *scene.BodyID
	selected *scene.BodyID
}

// NewDemoDocument returns a ground plate with a pyramid and two boxes.
func NewDemoDocument() *Document {
	d := &Document{names: make(map[scene.BodyID]string)}
	d.add("ground", groundMesh(4), [3]float32{0.35, 0.37, 0.4})
	d.add("pyramid", pyramidMesh(mgl32.Vec3{0, 0, 0}, 1, 1.4), [3]float32{0.75, 0.72, 0.68})
	d.add("block", boxMesh(mgl32.Vec3{1.6, 0, -0.6}, mgl32.Vec3{2.6, 0.8, 0.4}), [3]float32{0.45, 0.6, 0.8})
	d.add("pillar", boxMesh(mgl32.Vec3{-2.4, 0, 0.8}, mgl32.Vec3{-1.9, 2.2, 1.3}), [3]float32{0.7, 0.5, 0.4})
	return d
}

func (d *Document) add(name string, m scene.Mesh, color [3]float32) {
	id := uuid.New()
	d.names[id] = name
	d.Bodies = append(d.Bodies, scene.BodySubmission{ID: id, Mesh: m, Color: color})
}

// Name returns the display name of id, or "" when it is not in the document.
func (d *Document) Name(id *scene.BodyID) string {
	if id == nil {
		return ""
	}
	return d.names[*id]
}

// SetHovered updates the hover target and reports whether it changed.
func (d *Document) SetHovered(id *scene.BodyID) bool {
	if sameID(d.hovered, id) {
		return false
	}
	d.hovered = id
	d.refresh()
	return true
}

// Select sets the selection. Selecting empty space clears it.
func (d *Document) Select(id *scene.BodyID) {
	d.selected = id
	d.refresh()
}

func (d *Document) refresh() {
	for i := range d.Bodies {
		id := d.Bodies[i].ID
		hovered := d.hovered != nil && *d.hovered == id
		selected := d.selected != nil && *d.selected == id
		switch {
		case hovered && selected:
			d.Bodies[i].Highlight = scene.HighlightHoveredAndSelected
		case selected:
			d.Bodies[i].Highlight = scene.HighlightSelected
		case hovered:
			d.Bodies[i].Highlight = scene.HighlightHovered
		default:
			d.Bodies[i].Highlight = scene.HighlightNone
		}
	}
}

func sameID(a, b *scene.BodyID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
