package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/scene"
	"vkcad/internal/profiling"
)

const pickIDFormat = vk.FormatR32g32b32a32Uint

var pickStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// picker renders body IDs and depth into offscreen targets and reads single
// pixels back on request.
type picker struct {
	ctx         *gpuContext
	depthFormat vk.Format

	renderPass  vk.RenderPass
	layout      vk.PipelineLayout
	pipeline    vk.Pipeline
	ids         *gpuImage
	depth       *gpuImage
	framebuffer vk.Framebuffer
	extent      vk.Extent2D

	buffers *geometryBuffers
	ranges  [framesInFlight][]scene.IndexRange
	bodyIDs [framesInFlight][]scene.BodyID

	stagingBuffer vk.Buffer
	stagingMemory vk.DeviceMemory

	// capture is the view state of the most recently recorded pick pass.
	capture scene.PickCapture
}

func newPicker(ctx *gpuContext, depthFormat vk.Format) (*picker, error) {
	p := &picker{ctx: ctx, depthFormat: depthFormat, buffers: newGeometryBuffers()}
	var err error
	if p.renderPass, err = ctx.createPickRenderPass(depthFormat); err != nil {
		return nil, err
	}
	if p.layout, err = ctx.createPipelineLayout(nil, scene.PickPushConstantSize, pickStages); err != nil {
		p.destroy()
		return nil, err
	}
	if p.pipeline, err = ctx.createPipeline(pipelineSpec{
		name:       "pick",
		vert:       PickVertShader,
		frag:       PickFragShader,
		renderPass: p.renderPass,
		layout:     p.layout,
		stride:     scene.VertexStride,
		attributes: meshAttributes[:1],
		cullMode:   vk.CullModeBackBit,
		depthTest:  true,
	}); err != nil {
		p.destroy()
		return nil, err
	}
	usage := vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	if p.stagingBuffer, p.stagingMemory, err = ctx.createBuffer(stagingSize, usage, hostMemory); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

// resize recreates the ID and depth targets at extent.
func (p *picker) resize(extent vk.Extent2D) error {
	p.destroyTargets()
	ids, err := p.ctx.createImage(imageSpec{
		width:  extent.Width,
		height: extent.Height,
		format: pickIDFormat,
		usage: vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return err
	}
	p.ids = ids
	depth, err := p.ctx.createImage(imageSpec{
		width:  extent.Width,
		height: extent.Height,
		format: p.depthFormat,
		usage: vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
		aspect: depthViewAspect(p.depthFormat),
	})
	if err != nil {
		p.destroyTargets()
		return err
	}
	p.depth = depth
	fb, err := p.ctx.createFramebuffer(p.renderPass, []vk.ImageView{p.ids.view, p.depth.view}, extent)
	if err != nil {
		p.destroyTargets()
		return err
	}
	p.framebuffer = fb
	p.extent = extent
	return nil
}

// prepare uploads base-colour geometry for the slot.
func (p *picker) prepare(slot int, frame *scene.FrameSubmission) error {
	g := scene.BuildGeometry(frame.Bodies, false)
	p.ranges[slot] = g.Ranges
	p.bodyIDs[slot] = p.bodyIDs[slot][:0]
	for i := range frame.Bodies {
		p.bodyIDs[slot] = append(p.bodyIDs[slot], frame.Bodies[i].ID)
	}
	if len(g.Indices) == 0 {
		return nil
	}
	return p.buffers.write(p.ctx, slot, g.VertexBytes(), g.IndexBytes())
}

// record draws each body with its ID into the pick targets and captures
// the view state used for this pass.
func (p *picker) record(cb vk.CommandBuffer, slot int, frame *scene.FrameSubmission) {
	vp := frame.ViewportOr(p.extent.Width, p.extent.Height)
	p.capture = scene.PickCapture{ViewProj: frame.ViewProj, Viewport: vp}

	clear := []vk.ClearValue{{}, vk.NewClearDepthStencil(1, 0)}
	begin := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      p.renderPass,
		Framebuffer:     p.framebuffer,
		RenderArea:      vk.Rect2D{Extent: p.extent},
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}
	vk.CmdBeginRenderPass(cb, &begin, vk.SubpassContentsInline)
	defer vk.CmdEndRenderPass(cb)

	ranges := p.ranges[slot]
	if len(ranges) == 0 || vp.Empty() {
		return
	}
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, p.pipeline)
	setViewport(cb, float32(vp.X), float32(vp.Y), vp.Width, vp.Height)
	setScissor(cb, int32(vp.X), int32(vp.Y), vp.Width, vp.Height)
	p.buffers.bind(cb, slot)

	for i, r := range ranges {
		if r.Count == 0 {
			continue
		}
		push := scene.PickPushConstants{ViewProj: frame.ViewProj, ObjectID: scene.EncodeID(p.bodyIDs[slot][i])}
		data := push.Bytes()
		vk.CmdPushConstants(cb, p.layout, pickStages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
		vk.CmdDrawIndexed(cb, r.Count, 1, r.First, 0, 0)
	}
}

// readPixel copies one ID texel and one depth texel to the staging buffer
// and resolves them against the captured view state. The caller has waited
// for the frame that rendered the pick targets.
func (p *picker) readPixel(x, y int) (scene.PickResult, error) {
	defer profiling.Track("vulkan.pick")()
	if !inBounds(x, y, p.extent) || p.ids == nil {
		return scene.PickResult{}, nil
	}
	offset := vk.Offset3D{X: int32(x), Y: int32(y)}
	one := vk.Extent3D{Width: 1, Height: 1, Depth: 1}
	err := p.ctx.oneTimeCommands(func(cb vk.CommandBuffer) {
		vk.CmdCopyImageToBuffer(cb, p.ids.handle, vk.ImageLayoutTransferSrcOptimal, p.stagingBuffer, 1, []vk.BufferImageCopy{{
			BufferOffset: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			ImageOffset: offset,
			ImageExtent: one,
		}})
		vk.CmdCopyImageToBuffer(cb, p.depth.handle, vk.ImageLayoutTransferSrcOptimal, p.stagingBuffer, 1, []vk.BufferImageCopy{{
			BufferOffset: depthOffset,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
				LayerCount: 1,
			},
			ImageOffset: offset,
			ImageExtent: one,
		}})
	})
	if err != nil {
		return scene.PickResult{}, err
	}
	data, err := p.ctx.download(p.stagingMemory, readbackBytes)
	if err != nil {
		return scene.PickResult{}, err
	}
	words, depth := decodeReadback(data, p.depthFormat)
	return scene.ResolvePick(float32(x), float32(y), words, depth, p.capture), nil
}

func (p *picker) destroyTargets() {
	if p.framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(p.ctx.device, p.framebuffer, nil)
		p.framebuffer = vk.NullFramebuffer
	}
	p.ctx.destroyImage(p.ids)
	p.ctx.destroyImage(p.depth)
	p.ids, p.depth = nil, nil
	p.extent = vk.Extent2D{}
}

func (p *picker) destroy() {
	d := p.ctx.device
	p.destroyTargets()
	p.buffers.destroy(p.ctx)
	if p.stagingBuffer != vk.NullBuffer {
		vk.DestroyBuffer(d, p.stagingBuffer, nil)
		vk.FreeMemory(d, p.stagingMemory, nil)
	}
	if p.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(d, p.pipeline, nil)
	}
	if p.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(d, p.layout, nil)
	}
	if p.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(d, p.renderPass, nil)
	}
}
