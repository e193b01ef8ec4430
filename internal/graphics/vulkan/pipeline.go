package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// pipelineSpec captures what differs between the mesh, pick and UI pipelines.
type pipelineSpec struct {
	name       string
	vert, frag string
	renderPass vk.RenderPass
	layout     vk.PipelineLayout
	stride     uint32
	attributes []vk.VertexInputAttributeDescription
	cullMode   vk.CullModeFlagBits
	depthTest  bool
	blend      bool
	samples    vk.SampleCountFlagBits
}

func (c *gpuContext) createPipelineLayout(setLayouts []vk.DescriptorSetLayout, pushSize uint32, stages vk.ShaderStageFlags) (vk.PipelineLayout, error) {
	info := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{
			{StageFlags: stages, Offset: 0, Size: pushSize},
		},
	}
	var layout vk.PipelineLayout
	if err := vkErr(vk.CreatePipelineLayout(c.device, &info, nil, &layout), "create pipeline layout"); err != nil {
		return vk.NullPipelineLayout, err
	}
	return layout, nil
}

func (c *gpuContext) createPipeline(spec pipelineSpec) (vk.Pipeline, error) {
	shaders, err := c.loadShaders(spec.vert, spec.frag)
	if err != nil {
		return vk.NullPipeline, err
	}
	defer c.destroyShaders(shaders)

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                         vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount: 1,
		PVertexBindingDescriptions: []vk.VertexInputBindingDescription{
			{Binding: 0, Stride: spec.stride, InputRate: vk.VertexInputRateVertex},
		},
		VertexAttributeDescriptionCount: uint32(len(spec.attributes)),
		PVertexAttributeDescriptions:    spec.attributes,
	}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1,
		CullMode:    vk.CullModeFlags(spec.cullMode),
		FrontFace:   vk.FrontFaceCounterClockwise,
	}
	samples := spec.samples
	if samples == 0 {
		samples = vk.SampleCount1Bit
	}
	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: samples,
		MinSampleShading:     1,
	}
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:          vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthCompareOp: vk.CompareOpLess,
		MaxDepthBounds: 1,
	}
	if spec.depthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthWriteEnable = vk.True
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
	if spec.blend {
		blendAttachment.BlendEnable = vk.True
		blendAttachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}
	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	stages := shaders.stages()
	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              spec.layout,
		RenderPass:          spec.renderPass,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(c.device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	if err := vkErr(res, "create "+spec.name+" pipeline"); err != nil {
		return vk.NullPipeline, err
	}
	return pipelines[0], nil
}

func setViewport(cb vk.CommandBuffer, x, y float32, w, h uint32) {
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{{
		X: x, Y: y, Width: float32(w), Height: float32(h), MinDepth: 0, MaxDepth: 1,
	}})
}

func setScissor(cb vk.CommandBuffer, x, y int32, w, h uint32) {
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: x, Y: y},
		Extent: vk.Extent2D{Width: w, Height: h},
	}})
}
