package vulkan

import (
	"io"
	"log"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

func TestChooseDepthFormat(t *testing.T) {
	tests := []struct {
		name      string
		supported []vk.Format
		want      vk.Format
	}{
		{"all", []vk.Format{vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint, vk.FormatD32Sfloat}, vk.FormatD32Sfloat},
		{"stencil float", []vk.Format{vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint}, vk.FormatD32SfloatS8Uint},
		{"d24 only", []vk.Format{vk.FormatD24UnormS8Uint}, vk.FormatD24UnormS8Uint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chooseDepthFormat(func(f vk.Format) bool {
				for _, s := range tt.supported {
					if s == f {
						return true
					}
				}
				return false
			})
			if err != nil || got != tt.want {
				t.Errorf("got %v, %v; want %v", got, err, tt.want)
			}
		})
	}

	if _, err := chooseDepthFormat(func(vk.Format) bool { return false }); renderer.KindOf(err) != renderer.KindInitialization {
		t.Errorf("no depth format: got %v, want an initialization error", err)
	}
}

func TestHasStencil(t *testing.T) {
	if hasStencil(vk.FormatD32Sfloat) || !hasStencil(vk.FormatD24UnormS8Uint) || !hasStencil(vk.FormatD32SfloatS8Uint) {
		t.Errorf("hasStencil misclassifies depth formats")
	}
}

func TestDepthViewAspect(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	both := depth | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	tests := []struct {
		format vk.Format
		want   vk.ImageAspectFlags
	}{
		{vk.FormatD32Sfloat, depth},
		{vk.FormatD32SfloatS8Uint, both},
		{vk.FormatD24UnormS8Uint, both},
	}
	for _, tt := range tests {
		if got := depthViewAspect(tt.format); got != tt.want {
			t.Errorf("depthViewAspect(%d) = %#x, want %#x", tt.format, got, tt.want)
		}
	}
}

func TestRequestedSamples(t *testing.T) {
	tests := []struct {
		n      int
		want   vk.SampleCountFlagBits
		wantOK bool
	}{
		{1, vk.SampleCount1Bit, true},
		{2, vk.SampleCount2Bit, true},
		{4, vk.SampleCount4Bit, true},
		{8, vk.SampleCount8Bit, true},
		{0, vk.SampleCount4Bit, false},
		{3, vk.SampleCount4Bit, false},
		{16, vk.SampleCount4Bit, false},
	}
	for _, tt := range tests {
		got, ok := requestedSamples(tt.n)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("requestedSamples(%d) = %v, %v; want %v, %v", tt.n, got, ok, tt.want, tt.wantOK)
		}
	}
}

func flags(bits ...vk.SampleCountFlagBits) vk.SampleCountFlags {
	var f vk.SampleCountFlags
	for _, b := range bits {
		f |= vk.SampleCountFlags(b)
	}
	return f
}

func TestClampSamples(t *testing.T) {
	upTo4 := flags(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit)
	upTo8 := flags(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit, vk.SampleCount8Bit)
	tests := []struct {
		name         string
		requested    vk.SampleCountFlagBits
		color, depth vk.SampleCountFlags
		want         vk.SampleCountFlagBits
	}{
		{"supported", vk.SampleCount4Bit, upTo8, upTo8, vk.SampleCount4Bit},
		{"8 falls to 4", vk.SampleCount8Bit, upTo4, upTo8, vk.SampleCount4Bit},
		{"depth limits", vk.SampleCount8Bit, upTo8, flags(vk.SampleCount1Bit, vk.SampleCount2Bit), vk.SampleCount2Bit},
		{"single only", vk.SampleCount4Bit, flags(vk.SampleCount1Bit), flags(vk.SampleCount1Bit), vk.SampleCount1Bit},
		{"none reported", vk.SampleCount8Bit, 0, 0, vk.SampleCount1Bit},
		{"1 stays 1", vk.SampleCount1Bit, upTo8, upTo8, vk.SampleCount1Bit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampSamples(tt.requested, tt.color, tt.depth); got != tt.want {
				t.Errorf("clampSamples = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChooseSamples(t *testing.T) {
	quiet := renderer.NewLogger(log.New(io.Discard, "", 0), false)
	limits := vk.PhysicalDeviceLimits{
		FramebufferColorSampleCounts: flags(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit),
		FramebufferDepthSampleCounts: flags(vk.SampleCount1Bit, vk.SampleCount2Bit, vk.SampleCount4Bit),
	}
	tests := []struct {
		configured int
		want       int
	}{
		{8, 4},
		{2, 2},
		{1, 1},
		{5, 4},
	}
	for _, tt := range tests {
		if got := sampleCount(chooseSamples(quiet, tt.configured, limits)); got != tt.want {
			t.Errorf("chooseSamples(%d) = %d, want %d", tt.configured, got, tt.want)
		}
	}
}
