package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

// depthCandidates is the probe order for the depth attachment format.
var depthCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// chooseDepthFormat returns the first candidate for which supported reports
// optimal-tiling depth-stencil attachment support.
func chooseDepthFormat(supported func(vk.Format) bool) (vk.Format, error) {
	for _, f := range depthCandidates {
		if supported(f) {
			return f, nil
		}
	}
	return vk.FormatUndefined, renderer.Initialization("no supported depth format")
}

func hasStencil(f vk.Format) bool {
	return f == vk.FormatD32SfloatS8Uint || f == vk.FormatD24UnormS8Uint
}

// depthViewAspect is the aspect mask for a depth attachment view. Combined
// formats must name the stencil aspect too.
func depthViewAspect(f vk.Format) vk.ImageAspectFlags {
	if hasStencil(f) {
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
}

func depthSupportProbe(gpu vk.PhysicalDevice) func(vk.Format) bool {
	return func(f vk.Format) bool {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(gpu, f, &props)
		props.Deref()
		want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
		return props.OptimalTilingFeatures&want == want
	}
}

// requestedSamples maps a configured sample count to a Vulkan flag. Values
// other than 1, 2, 4 and 8 map to 4; ok is false in that case.
func requestedSamples(n int) (bits vk.SampleCountFlagBits, ok bool) {
	switch n {
	case 1:
		return vk.SampleCount1Bit, true
	case 2:
		return vk.SampleCount2Bit, true
	case 4:
		return vk.SampleCount4Bit, true
	case 8:
		return vk.SampleCount8Bit, true
	}
	return vk.SampleCount4Bit, false
}

// clampSamples lowers requested to the highest count present in both the
// colour and depth framebuffer limits. It never returns less than 1.
func clampSamples(requested vk.SampleCountFlagBits, color, depth vk.SampleCountFlags) vk.SampleCountFlagBits {
	supported := color & depth
	for _, c := range []vk.SampleCountFlagBits{
		vk.SampleCount8Bit,
		vk.SampleCount4Bit,
		vk.SampleCount2Bit,
	} {
		if c <= requested && supported&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

// sampleCount is the numeric value of a single sample-count bit.
func sampleCount(bits vk.SampleCountFlagBits) int {
	return int(bits)
}

// chooseSamples resolves the configured sample count against device limits,
// logging when the request is changed.
func chooseSamples(log renderer.Logger, configured int, limits vk.PhysicalDeviceLimits) vk.SampleCountFlagBits {
	requested, ok := requestedSamples(configured)
	if !ok {
		log.Infof("unsupported msaa_samples %d, using 4", configured)
	}
	chosen := clampSamples(requested, limits.FramebufferColorSampleCounts, limits.FramebufferDepthSampleCounts)
	if chosen != requested {
		log.Infof("msaa %dx not supported, falling back to %dx", sampleCount(requested), sampleCount(chosen))
	}
	return chosen
}

// attachments are the per-swapchain depth and optional MSAA colour targets.
type attachments struct {
	depth *gpuImage
	color *gpuImage // nil without MSAA
}

func (c *gpuContext) createAttachments(extent vk.Extent2D, colorFormat, depthFormat vk.Format, samples vk.SampleCountFlagBits) (attachments, error) {
	var a attachments
	depth, err := c.createImage(imageSpec{
		width:   extent.Width,
		height:  extent.Height,
		format:  depthFormat,
		usage:   vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		samples: samples,
		aspect:  depthViewAspect(depthFormat),
	})
	if err != nil {
		return a, err
	}
	a.depth = depth
	if samples == vk.SampleCount1Bit {
		return a, nil
	}
	color, err := c.createImage(imageSpec{
		width:  extent.Width,
		height: extent.Height,
		format: colorFormat,
		usage: vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) |
			vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit),
		samples: samples,
		aspect:  vk.ImageAspectFlags(vk.ImageAspectColorBit),
	})
	if err != nil {
		c.destroyImage(a.depth)
		return attachments{}, err
	}
	a.color = color
	return a, nil
}

// destroy releases depth before colour.
func (c *gpuContext) destroyAttachments(a *attachments) {
	c.destroyImage(a.depth)
	c.destroyImage(a.color)
	*a = attachments{}
}
