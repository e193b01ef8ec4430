package main

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"vkcad/internal/graphics/ui"
)

const (
	hudTexture ui.TextureID = 1
	hudPadding              = 6
)

var hudFace = basicfont.Face7x13

// HUD draws status lines into a texture and emits the quad that shows it.
// The texture is only re-uploaded when the text changes.
type HUD struct {
	lines    []string
	uploaded string
	size     image.Point
}

func NewHUD() *HUD {
	return &HUD{}
}

// SetLines replaces the status text.
func (h *HUD) SetLines(lines ...string) {
	h.lines = lines
}

// render rasterizes the lines with a translucent backing.
func (h *HUD) render() *image.RGBA {
	lineHeight := hudFace.Metrics().Height.Ceil()
	width := 0
	for _, l := range h.lines {
		width = max(width, font.MeasureString(hudFace, l).Ceil())
	}
	img := image.NewRGBA(image.Rect(0, 0, width+2*hudPadding, len(h.lines)*lineHeight+2*hudPadding))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{A: 160}), image.Point{}, draw.Src)

	d := font.Drawer{Dst: img, Src: image.White, Face: hudFace}
	for i, l := range h.lines {
		d.Dot = fixed.P(hudPadding, hudPadding+i*lineHeight+hudFace.Metrics().Ascent.Ceil())
		d.DrawString(l)
	}
	return img
}

// Submission returns this frame's UI payload. pixelsPerPoint maps the
// texture's pixels to points.
func (h *HUD) Submission(pixelsPerPoint float32) *ui.Submission {
	sub := &ui.Submission{PixelsPerPoint: pixelsPerPoint}
	if len(h.lines) == 0 {
		if h.uploaded != "" {
			sub.Textures.Free = []ui.TextureID{hudTexture}
			h.uploaded = ""
		}
		return sub
	}

	text := strings.Join(h.lines, "\n")
	if text != h.uploaded {
		img := h.render()
		sub.Textures.Set = []ui.TextureUpdate{{ID: hudTexture, Image: img}}
		h.uploaded = text
		h.size = img.Bounds().Size()
	}

	w := float32(h.size.X) / pixelsPerPoint
	ht := float32(h.size.Y) / pixelsPerPoint
	x0, y0 := float32(10), float32(10)
	white := [4]uint8{255, 255, 255, 255}
	sub.Primitives = []ui.ClippedPrimitive{{
		ClipRect: ui.Rect{MinX: x0, MinY: y0, MaxX: x0 + w, MaxY: y0 + ht},
		Mesh: ui.Mesh{
			Vertices: []ui.Vertex{
				{Pos: [2]float32{x0, y0}, UV: [2]float32{0, 0}, Color: white},
				{Pos: [2]float32{x0 + w, y0}, UV: [2]float32{1, 0}, Color: white},
				{Pos: [2]float32{x0 + w, y0 + ht}, UV: [2]float32{1, 1}, Color: white},
				{Pos: [2]float32{x0, y0 + ht}, UV: [2]float32{0, 1}, Color: white},
			},
			Indices: []uint32{0, 1, 2, 0, 2, 3},
			Texture: hudTexture,
		},
	}}
	return sub
}
