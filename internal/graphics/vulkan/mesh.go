package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/scene"
	"vkcad/internal/profiling"
)

var meshStages = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// meshAttributes matches scene.Vertex: position, normal, colour.
var meshAttributes = []vk.VertexInputAttributeDescription{
	{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
	{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
	{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 24},
}

// meshRenderer draws every body of a frame with one indexed draw.
type meshRenderer struct {
	ctx      *gpuContext
	layout   vk.PipelineLayout
	pipeline vk.Pipeline
	buffers  *geometryBuffers
	// indexCount is what the last prepare uploaded for each slot.
	indexCount [framesInFlight]uint32
}

func newMeshRenderer(ctx *gpuContext) (*meshRenderer, error) {
	layout, err := ctx.createPipelineLayout(nil, scene.MeshPushConstantSize, meshStages)
	if err != nil {
		return nil, err
	}
	return &meshRenderer{ctx: ctx, layout: layout, buffers: newGeometryBuffers()}, nil
}

// rebind recreates the pipeline against a new main render pass.
func (m *meshRenderer) rebind(pass vk.RenderPass, samples vk.SampleCountFlagBits) error {
	m.destroyPipeline()
	p, err := m.ctx.createPipeline(pipelineSpec{
		name:       "mesh",
		vert:       MeshVertShader,
		frag:       MeshFragShader,
		renderPass: pass,
		layout:     m.layout,
		stride:     scene.VertexStride,
		attributes: meshAttributes,
		cullMode:   vk.CullModeBackBit,
		depthTest:  true,
		samples:    samples,
	})
	if err != nil {
		return err
	}
	m.pipeline = p
	return nil
}

// prepare uploads the frame's geometry into the slot's buffers.
func (m *meshRenderer) prepare(slot int, frame *scene.FrameSubmission) error {
	defer profiling.Track("vulkan.mesh.upload")()
	g := scene.BuildGeometry(frame.Bodies, true)
	m.indexCount[slot] = uint32(len(g.Indices))
	if len(g.Indices) == 0 {
		return nil
	}
	return m.buffers.write(m.ctx, slot, g.VertexBytes(), g.IndexBytes())
}

// draw records inside the main render pass.
func (m *meshRenderer) draw(cb vk.CommandBuffer, slot int, frame *scene.FrameSubmission, extent vk.Extent2D) {
	count := m.indexCount[slot]
	if count == 0 || m.pipeline == vk.NullPipeline {
		return
	}
	vp := frame.ViewportOr(extent.Width, extent.Height)
	vk.CmdBindPipeline(cb, vk.PipelineBindPointGraphics, m.pipeline)
	setViewport(cb, float32(vp.X), float32(vp.Y), vp.Width, vp.Height)
	setScissor(cb, int32(vp.X), int32(vp.Y), vp.Width, vp.Height)
	m.buffers.bind(cb, slot)

	push := scene.NewMeshPushConstants(frame.ViewProj, frame.CameraPos, frame.Lighting)
	data := push.Bytes()
	vk.CmdPushConstants(cb, m.layout, meshStages, 0, uint32(len(data)), unsafe.Pointer(&data[0]))
	vk.CmdDrawIndexed(cb, count, 1, 0, 0, 0)
}

func (m *meshRenderer) destroyPipeline() {
	if m.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(m.ctx.device, m.pipeline, nil)
		m.pipeline = vk.NullPipeline
	}
}

func (m *meshRenderer) destroy() {
	m.destroyPipeline()
	m.buffers.destroy(m.ctx)
	vk.DestroyPipelineLayout(m.ctx.device, m.layout, nil)
}
