package vulkan

import (
	"image"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/scene"
	"vkcad/internal/graphics/ui"
	"vkcad/internal/profiling"
)

const (
	uiTextureFormat = vk.FormatR8g8b8a8Unorm
	uiMaxTextures   = 1024
	uiPushSize      = 8 // vec2 screenSize in points
)

var uiAttributes = []vk.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 0},
	{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 8},
	{Location: 2, Binding: 0, Format: vk.FormatR8g8b8a8Unorm, Offset: 16},
}

type uiTexture struct {
	img *gpuImage
	set vk.DescriptorSet
}

// uiCompositor draws the 2D payload on top of the resolved 3D image.
type uiCompositor struct {
	ctx       *gpuContext
	maxDim    int
	setLayout vk.DescriptorSetLayout
	pool      vk.DescriptorPool
	sampler   vk.Sampler
	layout    vk.PipelineLayout
	pipeline  vk.Pipeline
	textures  *ui.Registry[*uiTexture]
	buffers   *geometryBuffers
	draws     [framesInFlight][]uiDraw
}

// uiDraw is one recorded primitive: its scissor and index range.
type uiDraw struct {
	texture    ui.TextureID
	firstIndex uint32
	count      uint32
	baseVertex int32
	x, y       int32
	w, h       uint32
}

func newUICompositor(ctx *gpuContext, maxDim int) (*uiCompositor, error) {
	u := &uiCompositor{
		ctx:      ctx,
		maxDim:   maxDim,
		textures: ui.NewRegistry[*uiTexture](framesInFlight),
		buffers:  newGeometryBuffers(),
	}
	if err := u.createDescriptors(); err != nil {
		u.destroy()
		return nil, err
	}
	var err error
	if u.layout, err = ctx.createPipelineLayout([]vk.DescriptorSetLayout{u.setLayout}, uiPushSize,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit)); err != nil {
		u.destroy()
		return nil, err
	}
	if err := u.setTexture(ui.WhiteTexture, ui.WhitePixel(), nil); err != nil {
		u.destroy()
		return nil, err
	}
	return u, nil
}

func (u *uiCompositor) createDescriptors() error {
	d := u.ctx.device
	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}
	if err := vkErr(vk.CreateDescriptorSetLayout(d, &layoutInfo, nil, &u.setLayout), "create ui descriptor set layout"); err != nil {
		return err
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       uiMaxTextures,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: uiMaxTextures},
		},
	}
	if err := vkErr(vk.CreateDescriptorPool(d, &poolInfo, nil, &u.pool), "create ui descriptor pool"); err != nil {
		return err
	}
	samplerInfo := vk.SamplerCreateInfo{
		SType:         vk.StructureTypeSamplerCreateInfo,
		MagFilter:     vk.FilterLinear,
		MinFilter:     vk.FilterLinear,
		MipmapMode:    vk.SamplerMipmapModeLinear,
		AddressModeU:  vk.SamplerAddressModeClampToEdge,
		AddressModeV:  vk.SamplerAddressModeClampToEdge,
		AddressModeW:  vk.SamplerAddressModeClampToEdge,
		MaxAnisotropy: 1,
		BorderColor:   vk.BorderColorFloatTransparentBlack,
	}
	return vkErr(vk.CreateSampler(d, &samplerInfo, nil, &u.sampler), "create ui sampler")
}

// rebind recreates the pipeline against a new UI render pass.
func (u *uiCompositor) rebind(pass vk.RenderPass) error {
	u.destroyPipeline()
	p, err := u.ctx.createPipeline(pipelineSpec{
		name:       "ui",
		vert:       UIVertShader,
		frag:       UIFragShader,
		renderPass: pass,
		layout:     u.layout,
		stride:     ui.VertexStride,
		attributes: uiAttributes,
		cullMode:   vk.CullModeNone,
		blend:      true,
	})
	if err != nil {
		return err
	}
	u.pipeline = p
	return nil
}

// collect releases textures freed or replaced when slot last ran. The
// slot's fence has signalled, so nothing still samples them.
func (u *uiCompositor) collect(slot int) {
	for _, t := range u.textures.Collect(slot) {
		u.release(t)
	}
}

// applyTextures uploads this frame's texture set operations.
func (u *uiCompositor) applyTextures(slot int, sub *ui.Submission) error {
	if sub == nil {
		return nil
	}
	defer profiling.Track("vulkan.ui.textures")()
	for _, t := range sub.Textures.Set {
		if err := u.setTextureSlot(slot, t.ID, t.Image, t.Pos); err != nil {
			return err
		}
	}
	return nil
}

// deferFrees drops the frame's freed ids and retires their textures on slot.
func (u *uiCompositor) deferFrees(slot int, sub *ui.Submission) {
	if sub != nil {
		u.textures.Free(slot, sub.Textures.Free)
	}
}

func (u *uiCompositor) setTexture(id ui.TextureID, img image.Image, pos *image.Point) error {
	return u.setTextureSlot(-1, id, img, pos)
}

// setTextureSlot uploads a full or partial texture. A full replacement of a
// live texture retires the old one on slot instead of destroying it.
func (u *uiCompositor) setTextureSlot(slot int, id ui.TextureID, img image.Image, pos *image.Point) error {
	if pos != nil {
		t, ok := u.textures.Get(id)
		if !ok {
			u.ctx.log.Debugf("ui: partial update of unknown texture %d ignored", id)
			return nil
		}
		return u.writePixels(t.img, ui.ToRGBA(img), *pos, vk.ImageLayoutShaderReadOnlyOptimal)
	}

	rgba := ui.FitTexture(img, u.maxDim)
	b := rgba.Bounds()
	created, err := u.ctx.createImage(imageSpec{
		width:  uint32(b.Dx()),
		height: uint32(b.Dy()),
		format: uiTextureFormat,
		usage: vk.ImageUsageFlags(vk.ImageUsageSampledBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransferDstBit),
		aspect: vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		return err
	}
	if err := u.writePixels(created, rgba, image.Point{}, vk.ImageLayoutUndefined); err != nil {
		u.ctx.destroyImage(created)
		return err
	}
	set, err := u.allocateSet(created.view)
	if err != nil {
		u.ctx.destroyImage(created)
		return err
	}
	if old, ok := u.textures.Set(id, &uiTexture{img: created, set: set}); ok {
		if slot >= 0 {
			u.textures.Retire(slot, old)
		} else {
			u.release(old)
		}
	}
	return nil
}

// writePixels stages rgba and copies it into dst at pos, leaving dst ready
// for sampling.
func (u *uiCompositor) writePixels(dst *gpuImage, rgba *image.RGBA, pos image.Point, from vk.ImageLayout) error {
	b := rgba.Bounds()
	if b.Empty() {
		return nil
	}
	staging, memory, err := u.ctx.createBuffer(len(rgba.Pix), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostMemory)
	if err != nil {
		return err
	}
	defer func() {
		vk.DestroyBuffer(u.ctx.device, staging, nil)
		vk.FreeMemory(u.ctx.device, memory, nil)
	}()
	if err := u.ctx.upload(memory, rgba.Pix); err != nil {
		return err
	}

	color := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	return u.ctx.oneTimeCommands(func(cb vk.CommandBuffer) {
		srcAccess := vk.AccessFlags(0)
		srcStage := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		if from == vk.ImageLayoutShaderReadOnlyOptimal {
			srcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
			srcStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		}
		transition(cb, dst.handle, color, from, vk.ImageLayoutTransferDstOptimal,
			srcAccess, vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage, vk.PipelineStageFlags(vk.PipelineStageTransferBit))
		vk.CmdCopyBufferToImage(cb, staging, dst.handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{AspectMask: color, LayerCount: 1},
			ImageOffset:      vk.Offset3D{X: int32(pos.X), Y: int32(pos.Y)},
			ImageExtent:      vk.Extent3D{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Depth: 1},
		}})
		transition(cb, dst.handle, color, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
			vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))
	})
}

func (u *uiCompositor) allocateSet(view vk.ImageView) (vk.DescriptorSet, error) {
	var set vk.DescriptorSet
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     u.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{u.setLayout},
	}
	if err := vkErr(vk.AllocateDescriptorSets(u.ctx.device, &info, &set), "allocate ui descriptor set"); err != nil {
		return vk.NullDescriptorSet, err
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     u.sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}
	vk.UpdateDescriptorSets(u.ctx.device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return set, nil
}

func (u *uiCompositor) release(t *uiTexture) {
	if t.set != vk.NullDescriptorSet {
		vk.FreeDescriptorSets(u.ctx.device, u.pool, 1, &t.set)
	}
	u.ctx.destroyImage(t.img)
}

// primitives returns the UI primitives plus the overlay lines, which are
// drawn last inside the 3D viewport.
func primitives(frame *scene.FrameSubmission, extent vk.Extent2D) ([]ui.ClippedPrimitive, float32) {
	ppp := frame.UI.Scale()
	var prims []ui.ClippedPrimitive
	if frame.UI != nil {
		prims = append(prims, frame.UI.Primitives...)
	}
	if len(frame.Overlays) > 0 {
		vp := frame.ViewportOr(extent.Width, extent.Height)
		clip := ui.Rect{
			MinX: float32(vp.X) / ppp,
			MinY: float32(vp.Y) / ppp,
			MaxX: float32(vp.X+vp.Width) / ppp,
			MaxY: float32(vp.Y+vp.Height) / ppp,
		}
		if p, ok := ui.TessellateOverlays(frame.Overlays, float32(vp.X), float32(vp.Y), ppp, clip); ok {
			prims = append(prims, p)
		}
	}
	return prims, ppp
}

// prepare concatenates the frame's primitives into the slot's buffers and
// computes their scissors.
func (u *uiCompositor) prepare(slot int, frame *scene.FrameSubmission, extent vk.Extent2D) error {
	u.draws[slot] = u.draws[slot][:0]
	prims, ppp := primitives(frame, extent)
	var vertices, indices []byte
	var vertexCount, indexCount int
	for _, p := range prims {
		if len(p.Mesh.Indices) == 0 {
			continue
		}
		x, y, w, h, ok := p.ClipRect.ScissorPixels(ppp, extent.Width, extent.Height)
		if !ok {
			continue
		}
		u.draws[slot] = append(u.draws[slot], uiDraw{
			texture:    p.Mesh.Texture,
			firstIndex: uint32(indexCount),
			count:      uint32(len(p.Mesh.Indices)),
			baseVertex: int32(vertexCount),
			x:          x,
			y:          y,
			w:          w,
			h:          h,
		})
		vertices = append(vertices, p.Mesh.VertexBytes()...)
		indices = append(indices, p.Mesh.IndexBytes()...)
		vertexCount += len(p.Mesh.Vertices)
		indexCount += len(p.Mesh.Indices)
	}
	if indexCount == 0 {
		return nil
	}
	return u.buffers.write(u.ctx, slot, vertices, indices)
}

// draw records inside the UI render pass.
func (u *uiCompositor) draw(cb vk.CommandBuffer, slot int, frame *scene.FrameSubmission, extent vk.Extent2D) {
	draws := u.draws[slot]
	if len(draws) == 0 || u.pipeline == vk.NullPipeline {
		return
	}
	ppp := frame.UI.Scale()
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, u.pipeline)
	setViewport(cb, 0, 0, extent.Width, extent.Height)
	u.buffers.bind(cb, slot)
	screen := [2]float32{float32(extent.Width) / ppp, float32(extent.Height) / ppp}
	vk.CmdPushConstants(cb, u.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, uiPushSize, unsafe.Pointer(&screen[0]))

	for _, d := range draws {
		t, ok := u.textures.Get(d.texture)
		if !ok {
			u.ctx.log.Debugf("ui: primitive references missing texture %d", d.texture)
			continue
		}
		vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, u.layout, 0, 1, []vk.DescriptorSet{t.set}, 0, nil)
		setScissor(cb, d.x, d.y, d.w, d.h)
		vk.CmdDrawIndexed(cb, d.count, 1, d.firstIndex, d.baseVertex, 0)
	}
}

func (u *uiCompositor) destroyPipeline() {
	if u.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(u.ctx.device, u.pipeline, nil)
		u.pipeline = vk.NullPipeline
	}
}

func (u *uiCompositor) destroy() {
	d := u.ctx.device
	u.destroyPipeline()
	if n := u.textures.Pending(); n > 0 {
		u.ctx.log.Debugf("ui: releasing %d retired textures", n)
	}
	for _, t := range u.textures.Drain() {
		u.release(t)
	}
	u.buffers.destroy(u.ctx)
	if u.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(d, u.layout, nil)
	}
	if u.sampler != vk.NullSampler {
		vk.DestroySampler(d, u.sampler, nil)
	}
	if u.pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(d, u.pool, nil)
	}
	if u.setLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(d, u.setLayout, nil)
	}
}
