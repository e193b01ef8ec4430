package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/scene"
)

var hostMemory = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) |
	vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)

// hostBuffer is a host-visible, coherent buffer that grows to the next
// power of two and never shrinks.
type hostBuffer struct {
	usage    vk.BufferUsageFlags
	buffer   vk.Buffer
	memory   vk.DeviceMemory
	capacity int
}

func newHostBuffer(usage vk.BufferUsageFlagBits) *hostBuffer {
	return &hostBuffer{usage: vk.BufferUsageFlags(usage)}
}

// ensure reallocates when required exceeds the current capacity. The caller
// guarantees the GPU is no longer reading the old buffer.
func (b *hostBuffer) ensure(c *gpuContext, required int) error {
	capacity := scene.GrowCapacity(b.capacity, max(required, 1))
	if capacity == b.capacity && b.buffer != vk.NullBuffer {
		return nil
	}
	buffer, memory, err := c.createBuffer(capacity, b.usage, hostMemory)
	if err != nil {
		return err
	}
	if b.buffer != vk.NullBuffer {
		c.log.Debugf("growing buffer %d -> %d bytes", b.capacity, capacity)
	}
	b.destroy(c)
	b.buffer, b.memory, b.capacity = buffer, memory, capacity
	return nil
}

// write grows the buffer as needed and copies data to offset 0.
func (b *hostBuffer) write(c *gpuContext, data []byte) error {
	if err := b.ensure(c, len(data)); err != nil {
		return err
	}
	return c.upload(b.memory, data)
}

func (b *hostBuffer) destroy(c *gpuContext) {
	if b.buffer != vk.NullBuffer {
		vk.DestroyBuffer(c.device, b.buffer, nil)
		b.buffer = vk.NullBuffer
	}
	if b.memory != vk.NullDeviceMemory {
		vk.FreeMemory(c.device, b.memory, nil)
		b.memory = vk.NullDeviceMemory
	}
	b.capacity = 0
}

// geometryBuffers is one vertex/index buffer pair per frame slot, so a slot
// can be rewritten while the other is still being read by the GPU.
type geometryBuffers struct {
	vertex [framesInFlight]*hostBuffer
	index  [framesInFlight]*hostBuffer
}

func newGeometryBuffers() *geometryBuffers {
	g := &geometryBuffers{}
	for i := 0; i < framesInFlight; i++ {
		g.vertex[i] = newHostBuffer(vk.BufferUsageVertexBufferBit)
		g.index[i] = newHostBuffer(vk.BufferUsageIndexBufferBit)
	}
	return g
}

func (g *geometryBuffers) write(c *gpuContext, slot int, vertices, indices []byte) error {
	if err := g.vertex[slot].write(c, vertices); err != nil {
		return err
	}
	return g.index[slot].write(c, indices)
}

func (g *geometryBuffers) bind(cb vk.CommandBuffer, slot int) {
	vk.CmdBindVertexBuffers(cb, 0, 1, []vk.Buffer{g.vertex[slot].buffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cb, g.index[slot].buffer, 0, vk.IndexTypeUint32)
}

func (g *geometryBuffers) destroy(c *gpuContext) {
	for i := 0; i < framesInFlight; i++ {
		g.vertex[i].destroy(c)
		g.index[i].destroy(c)
	}
}
