package ui

import (
	"image"

	"golang.org/x/image/draw"
)

// ToRGBA returns img as a tightly packed RGBA image with a zero origin.
// Images that already satisfy that are returned as-is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FitTexture downsamples img so neither side exceeds maxDim. Smaller images
// are only converted.
func FitTexture(img image.Image, maxDim int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return ToRGBA(img)
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WhitePixel is the 1x1 image backing WhiteTexture.
func WhitePixel() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(img.Pix, []byte{255, 255, 255, 255})
	return img
}

// FreeQueue defers releases by one frame-in-flight slot: items queued while
// recording slot s are released the next time slot s comes around, after its
// fence has signalled.
type FreeQueue[T any] struct {
	slots [][]T
}

// NewFreeQueue creates a queue for n frame slots.
func NewFreeQueue[T any](n int) *FreeQueue[T] {
	return &FreeQueue[T]{slots: make([][]T, n)}
}

// Defer records items to release when slot is next reused.
func (q *FreeQueue[T]) Defer(slot int, items ...T) {
	if len(items) == 0 {
		return
	}
	q.slots[slot] = append(q.slots[slot], items...)
}

// Take returns and clears the items pending on slot.
func (q *FreeQueue[T]) Take(slot int) []T {
	items := q.slots[slot]
	q.slots[slot] = nil
	return items
}

// Pending is the number of items waiting across all slots.
func (q *FreeQueue[T]) Pending() int {
	n := 0
	for _, s := range q.slots {
		n += len(s)
	}
	return n
}

// Registry maps texture ids to backend objects. Freed and replaced objects
// are retired to the slot that last used them, so an id can be set again
// right away without the new object being released with the old one.
type Registry[T any] struct {
	live    map[TextureID]T
	retired *FreeQueue[T]
}

func NewRegistry[T any](slots int) *Registry[T] {
	return &Registry[T]{live: make(map[TextureID]T), retired: NewFreeQueue[T](slots)}
}

func (r *Registry[T]) Get(id TextureID) (T, bool) {
	t, ok := r.live[id]
	return t, ok
}

// Set stores t under id and returns the object it replaced, if any. The
// caller either retires the old object or releases it immediately.
func (r *Registry[T]) Set(id TextureID, t T) (old T, replaced bool) {
	old, replaced = r.live[id]
	r.live[id] = t
	return old, replaced
}

// Retire queues t for release when slot is next reused.
func (r *Registry[T]) Retire(slot int, t T) {
	r.retired.Defer(slot, t)
}

// Free removes ids and retires their objects on slot. Unknown ids are skipped.
func (r *Registry[T]) Free(slot int, ids []TextureID) {
	for _, id := range ids {
		if t, ok := r.live[id]; ok {
			delete(r.live, id)
			r.retired.Defer(slot, t)
		}
	}
}

// Collect returns the objects retired on slot.
func (r *Registry[T]) Collect(slot int) []T {
	return r.retired.Take(slot)
}

// Pending is the number of retired objects not yet collected.
func (r *Registry[T]) Pending() int {
	return r.retired.Pending()
}

// Drain empties the registry, returning every live and retired object.
func (r *Registry[T]) Drain() []T {
	var out []T
	for slot := range r.retired.slots {
		out = append(out, r.retired.Take(slot)...)
	}
	for id, t := range r.live {
		out = append(out, t)
		delete(r.live, id)
	}
	return out
}
