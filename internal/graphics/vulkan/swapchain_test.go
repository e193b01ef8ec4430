package vulkan

import (
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

func TestChooseSurfaceFormat(t *testing.T) {
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgba := vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	if got := chooseSurfaceFormat([]vk.SurfaceFormat{unorm, srgb}); got != srgb {
		t.Errorf("preferred sRGB format not chosen: %+v", got)
	}
	if got := chooseSurfaceFormat([]vk.SurfaceFormat{rgba, unorm}); got != rgba {
		t.Errorf("fallback should be the first format, got %+v", got)
	}
}

func TestChoosePresentMode(t *testing.T) {
	tests := []struct {
		name      string
		available []vk.PresentMode
		want      vk.PresentMode
	}{
		{"mailbox", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{"fifo fallback", []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, vk.PresentModeFifo},
		{"empty", nil, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		if got := choosePresentMode(tt.available); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestChooseExtent(t *testing.T) {
	fixed := vk.SurfaceCapabilities{CurrentExtent: vk.Extent2D{Width: 800, Height: 600}}
	if got := chooseExtent(fixed, renderer.Extent{Width: 1024, Height: 768}); got != fixed.CurrentExtent {
		t.Errorf("current extent ignored: %+v", got)
	}

	free := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 2048},
	}
	tests := []struct {
		requested renderer.Extent
		want      vk.Extent2D
	}{
		{renderer.Extent{Width: 1024, Height: 768}, vk.Extent2D{Width: 1024, Height: 768}},
		{renderer.Extent{Width: 8000, Height: 4000}, vk.Extent2D{Width: 4096, Height: 2048}},
		{renderer.Extent{Width: 1, Height: 1}, vk.Extent2D{Width: 16, Height: 16}},
	}
	for _, tt := range tests {
		if got := chooseExtent(free, tt.requested); got != tt.want {
			t.Errorf("chooseExtent(%+v) = %+v, want %+v", tt.requested, got, tt.want)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want uint32
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
		{1, 2, 2},
	}
	for _, tt := range tests {
		caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := chooseImageCount(caps); got != tt.want {
			t.Errorf("chooseImageCount(min=%d, max=%d) = %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}
