package vulkan

import (
	"encoding/binary"
	"math"

	vk "github.com/vulkan-go/vulkan"
)

const (
	// stagingSize is the host-visible readback buffer.
	stagingSize = 64
	// depthOffset is where the depth texel lands in the staging buffer.
	depthOffset = 32
	// readbackBytes covers the ID texel and the depth texel.
	readbackBytes = depthOffset + 4
)

// decodeReadback splits the staging bytes into the ID words and the depth
// value, interpreting depth according to the attachment format.
func decodeReadback(data []byte, depthFormat vk.Format) (words [4]uint32, depth float32) {
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, decodeDepth(binary.LittleEndian.Uint32(data[depthOffset:]), depthFormat)
}

// decodeDepth converts one depth-aspect texel to [0,1]. D24 formats store
// a 24-bit normalized value in the low bits of the copied word.
func decodeDepth(raw uint32, format vk.Format) float32 {
	if format == vk.FormatD24UnormS8Uint {
		return float32(raw&0xFFFFFF) / float32(0xFFFFFF)
	}
	return math.Float32frombits(raw)
}

// inBounds reports whether pixel (x, y) lies inside extent.
func inBounds(x, y int, extent vk.Extent2D) bool {
	return x >= 0 && y >= 0 && x < int(extent.Width) && y < int(extent.Height)
}
