package vulkan

import (
	"encoding/binary"
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestDecodeReadback(t *testing.T) {
	data := make([]byte, stagingSize)
	words := [4]uint32{0x33221100, 0x77665544, 0xbbaa9988, 0xffeeddcc}
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	binary.LittleEndian.PutUint32(data[depthOffset:], math.Float32bits(0.375))

	gotWords, depth := decodeReadback(data, vk.FormatD32Sfloat)
	if gotWords != words {
		t.Errorf("words = %#x, want %#x", gotWords, words)
	}
	if depth != 0.375 {
		t.Errorf("depth = %f, want 0.375", depth)
	}
}

func TestDecodeDepth(t *testing.T) {
	tests := []struct {
		name   string
		raw    uint32
		format vk.Format
		want   float32
	}{
		{"d32 far", math.Float32bits(1), vk.FormatD32Sfloat, 1},
		{"d32 stencil", math.Float32bits(0.5), vk.FormatD32SfloatS8Uint, 0.5},
		{"d24 far", 0xFFFFFF, vk.FormatD24UnormS8Uint, 1},
		{"d24 near", 0, vk.FormatD24UnormS8Uint, 0},
		{"d24 ignores high byte", 0xAB000000 | 0x7FFFFF, vk.FormatD24UnormS8Uint, float32(0x7FFFFF) / float32(0xFFFFFF)},
	}
	for _, tt := range tests {
		if got := decodeDepth(tt.raw, tt.format); got != tt.want {
			t.Errorf("%s: got %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestInBounds(t *testing.T) {
	extent := vk.Extent2D{Width: 640, Height: 480}
	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{639, 479, true},
		{640, 0, false},
		{0, 480, false},
		{-1, 10, false},
		{10, -1, false},
	}
	for _, tt := range tests {
		if got := inBounds(tt.x, tt.y, extent); got != tt.want {
			t.Errorf("inBounds(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
