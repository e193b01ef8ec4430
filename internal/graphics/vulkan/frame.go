package vulkan

import (
	"math"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/scene"
	"vkcad/internal/profiling"
)

// DrawFrame records and presents one frame: pick pass, main pass, UI pass.
// It returns renderer.ErrSwapchainOutOfDate when the swapchain needs to be
// rebuilt; the frame may still have been presented in that case.
func (c *Core) DrawFrame(frame *scene.FrameSubmission) error {
	if !c.life.ready() {
		return renderer.ErrNotReady
	}
	slot := c.slots.current
	fence := c.sync.inFlight[slot]
	if err := c.waitFence(fence); err != nil {
		return err
	}
	c.ui.collect(slot)

	var index uint32
	res := vk.AcquireNextImage(c.device, c.swap.handle, math.MaxUint64,
		c.sync.imageAvailable[slot], vk.NullFence, &index)
	suboptimal := false
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		// The semaphore is signalled; finish the frame and rebuild after.
		suboptimal = true
	case vk.ErrorOutOfDate:
		return renderer.ErrSwapchainOutOfDate
	default:
		return vkErr(res, "acquire swapchain image")
	}

	if prev, wait := c.slots.claim(int(index)); wait && prev != slot {
		if err := c.waitFence(c.sync.inFlight[prev]); err != nil {
			c.abandon(slot)
			return err
		}
	}

	if err := c.prepare(slot, frame); err != nil {
		c.abandon(slot)
		return err
	}

	cb := c.commandBuffers[slot]
	vk.ResetCommandBuffer(cb, 0)
	if err := c.record(cb, slot, index, frame); err != nil {
		c.abandon(slot)
		return err
	}

	vk.ResetFences(c.device, 1, []vk.Fence{fence})
	signal := []vk.Semaphore{c.sync.renderFinished[slot]}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.sync.imageAvailable[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb},
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}
	if err := vkErr(vk.QueueSubmit(c.graphicsQueue, 1, []vk.SubmitInfo{submit}, fence), "submit frame"); err != nil {
		return err
	}
	c.ui.deferFrees(slot, frame.UI)

	presentErr := c.present(slot, index)
	c.servicePick(slot)
	c.slots.advance()

	if presentErr != nil {
		return presentErr
	}
	if suboptimal {
		return renderer.ErrSwapchainOutOfDate
	}
	return nil
}

// abandon consumes the slot's acquire semaphore after prepare or record
// failed, signalling the slot's fence so the next frame on it can wait as
// usual. The acquired image is not presented.
func (c *Core) abandon(slot int) {
	fence := c.sync.inFlight[slot]
	vk.ResetFences(c.device, 1, []vk.Fence{fence})
	submit := acquireRelease(c.sync.imageAvailable[slot])
	if err := vkErr(vk.QueueSubmit(c.graphicsQueue, 1, []vk.SubmitInfo{submit}, fence), "release acquire semaphore"); err != nil {
		c.log.Warnf("%v", err)
	}
	c.slots.advance()
}

// prepare uploads texture changes and every slot-owned vertex and index buffer.
func (c *Core) prepare(slot int, frame *scene.FrameSubmission) error {
	if err := c.ui.applyTextures(slot, frame.UI); err != nil {
		return err
	}
	if err := c.mesh.prepare(slot, frame); err != nil {
		return err
	}
	if err := c.picker.prepare(slot, frame); err != nil {
		return err
	}
	return c.ui.prepare(slot, frame, c.swap.extent)
}

func (c *Core) record(cb vk.CommandBuffer, slot int, index uint32, frame *scene.FrameSubmission) error {
	defer profiling.Track("vulkan.record")()
	begin := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if err := vkErr(vk.BeginCommandBuffer(cb, &begin), "begin command buffer"); err != nil {
		return err
	}

	c.picker.record(cb, slot, frame)

	extent := c.swap.extent
	clear := mainClearValues(c.samples)
	vk.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      c.renderPass,
		Framebuffer:     c.framebuffers[index],
		RenderArea:      vk.Rect2D{Extent: extent},
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}, vk.SubpassContentsInline)
	c.mesh.draw(cb, slot, frame, extent)
	vk.CmdEndRenderPass(cb)

	vk.CmdBeginRenderPass(cb, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  c.uiRenderPass,
		Framebuffer: c.uiFramebuffers[index],
		RenderArea:  vk.Rect2D{Extent: extent},
	}, vk.SubpassContentsInline)
	c.ui.draw(cb, slot, frame, extent)
	vk.CmdEndRenderPass(cb)

	return vkErr(vk.EndCommandBuffer(cb), "end command buffer")
}

func (c *Core) present(slot int, index uint32) error {
	defer profiling.Track("vulkan.present")()
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{c.sync.renderFinished[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{c.swap.handle},
		PImageIndices:      []uint32{index},
	}
	switch res := vk.QueuePresent(c.presentQueue, &info); res {
	case vk.Success:
		return nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return renderer.ErrSwapchainOutOfDate
	default:
		return vkErr(res, "present")
	}
}

// servicePick reads back a pending pick from the pass just submitted on
// slot. Failures are logged and leave the previous result in place.
func (c *Core) servicePick(slot int) {
	if c.pickRequest == nil {
		return
	}
	x, y := c.pickRequest[0], c.pickRequest[1]
	c.pickRequest = nil
	if err := c.waitFence(c.sync.inFlight[slot]); err != nil {
		c.log.Warnf("pick at (%d, %d): %v", x, y, err)
		return
	}
	res, err := c.picker.readPixel(x, y)
	if err != nil {
		c.log.Warnf("pick at (%d, %d): %v", x, y, err)
		return
	}
	if res.Hit() {
		c.log.Debugf("pick at (%d, %d): %s", x, y, res)
	}
	c.lastPick = res
}
