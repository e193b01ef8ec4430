package vulkan

import (
	vk "github.com/vulkan-go/vulkan"
)

// clearColor is the background of the main pass.
var clearColor = [4]float32{0.05, 0.08, 0.12, 1}

// mainPassAttachments describes the main render pass. With MSAA the
// multisampled colour resolves into the swapchain image; either way the
// swapchain image ends in ColorAttachmentOptimal for the UI pass.
func mainPassAttachments(colorFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) []vk.AttachmentDescription {
	depth := vk.AttachmentDescription{
		Format:         depthFormat,
		Samples:        samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	if samples == vk.SampleCount1Bit {
		return []vk.AttachmentDescription{{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		}, depth}
	}
	return []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
		depth,
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		},
	}
}

// mainClearValues matches mainPassAttachments; the resolve target is not cleared.
func mainClearValues(samples vk.SampleCountFlagBits) []vk.ClearValue {
	values := []vk.ClearValue{
		vk.NewClearValue(clearColor[:]),
		vk.NewClearDepthStencil(1, 0),
	}
	if samples != vk.SampleCount1Bit {
		values = append(values, vk.ClearValue{})
	}
	return values
}

var attachmentDependency = vk.SubpassDependency{
	SrcSubpass: vk.SubpassExternal,
	DstSubpass: 0,
	SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
		vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	DstStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
		vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
		vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
}

func (c *gpuContext) createMainRenderPass(colorFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) (vk.RenderPass, error) {
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	if samples != vk.SampleCount1Bit {
		subpass.PResolveAttachments = []vk.AttachmentReference{
			{Attachment: 2, Layout: vk.ImageLayoutColorAttachmentOptimal},
		}
	}
	return c.createRenderPass(mainPassAttachments(colorFormat, depthFormat, samples), subpass, "main render pass")
}

// createUIRenderPass builds the overlay pass: it loads the resolved image
// and hands it to the presentation engine.
func (c *gpuContext) createUIRenderPass(colorFormat vk.Format) (vk.RenderPass, error) {
	attachment := vk.AttachmentDescription{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpLoad,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
	}
	return c.createRenderPass([]vk.AttachmentDescription{attachment}, subpass, "ui render pass")
}

// createPickRenderPass clears and stores the ID and depth targets, leaving
// both ready for a transfer read.
func (c *gpuContext) createPickRenderPass(depthFormat vk.Format) (vk.RenderPass, error) {
	attachments := []vk.AttachmentDescription{
		{
			Format:         pickIDFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutTransferSrcOptimal,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutTransferSrcOptimal,
		},
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{
			{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal},
		},
		PDepthStencilAttachment: &vk.AttachmentReference{
			Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	return c.createRenderPass(attachments, subpass, "pick render pass")
}

func (c *gpuContext) createRenderPass(attachments []vk.AttachmentDescription, subpass vk.SubpassDescription, what string) (vk.RenderPass, error) {
	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{attachmentDependency},
	}
	var pass vk.RenderPass
	if err := vkErr(vk.CreateRenderPass(c.device, &info, nil, &pass), "create "+what); err != nil {
		return vk.NullRenderPass, err
	}
	return pass, nil
}

func (c *gpuContext) createFramebuffer(pass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if err := vkErr(vk.CreateFramebuffer(c.device, &info, nil, &fb), "create framebuffer"); err != nil {
		return vk.NullFramebuffer, err
	}
	return fb, nil
}

// mainFramebufferViews orders the attachment views like mainPassAttachments.
func mainFramebufferViews(swapView vk.ImageView, a attachments) []vk.ImageView {
	if a.color == nil {
		return []vk.ImageView{swapView, a.depth.view}
	}
	return []vk.ImageView{a.color.view, a.depth.view, swapView}
}
