package vulkan

import (
	"math"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

// surfaceSupport is what a physical device reports for the surface.
type surfaceSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func querySurfaceCapabilities(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vkErr(vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &caps), "query surface capabilities"); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

func querySurfaceSupport(gpu vk.PhysicalDevice, surface vk.Surface) (surfaceSupport, error) {
	var s surfaceSupport
	var err error
	if s.capabilities, err = querySurfaceCapabilities(gpu, surface); err != nil {
		return s, err
	}

	var formatCount uint32
	if err := vkErr(vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil), "query surface formats"); err != nil {
		return s, err
	}
	if formatCount > 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, formats)
		for _, f := range formats {
			f.Deref()
			s.formats = append(s.formats, f)
		}
	}

	var modeCount uint32
	if err := vkErr(vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, nil), "query present modes"); err != nil {
		return s, err
	}
	if modeCount > 0 {
		s.presentModes = make([]vk.PresentMode, modeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, s.presentModes)
	}
	return s, nil
}

func chooseSurfaceFormat(available []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range available {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

func choosePresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, m := range available {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent unless the platform leaves
// it to the application, in which case the requested size is clamped.
func chooseExtent(caps vk.SurfaceCapabilities, requested renderer.Extent) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// chooseImageCount asks for one more than the minimum, capped by a non-zero max.
func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	n := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func clamp(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}

// swapchain owns the presentable images and their views.
type swapchain struct {
	handle vk.Swapchain
	format vk.Format
	extent vk.Extent2D
	images []vk.Image
	views  []vk.ImageView
}

func (c *gpuContext) createSwapchain(surface vk.Surface, q queueFamilies, requested renderer.Extent) (*swapchain, error) {
	support, err := querySurfaceSupport(c.gpu, surface)
	if err != nil {
		return nil, err
	}
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		return nil, renderer.Initialization("surface reports no formats or present modes")
	}
	format := chooseSurfaceFormat(support.formats)
	mode := choosePresentMode(support.presentModes)
	extent := chooseExtent(support.capabilities, requested)
	if extent.Width == 0 || extent.Height == 0 {
		return nil, renderer.ErrSurfaceTooSmall
	}

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    chooseImageCount(support.capabilities),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      mode,
		Clipped:          vk.True,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if q.graphics != q.present {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{q.graphics, q.present}
	}

	sc := &swapchain{format: format.Format, extent: extent}
	if err := vkErr(vk.CreateSwapchain(c.device, &info, nil, &sc.handle), "create swapchain"); err != nil {
		return nil, err
	}

	var count uint32
	vk.GetSwapchainImages(c.device, sc.handle, &count, nil)
	sc.images = make([]vk.Image, count)
	vk.GetSwapchainImages(c.device, sc.handle, &count, sc.images)

	for _, img := range sc.images {
		view, err := c.createImageView(img, sc.format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			c.destroySwapchain(sc)
			return nil, err
		}
		sc.views = append(sc.views, view)
	}
	c.log.Debugf("swapchain %dx%d, %d images, present mode %d", extent.Width, extent.Height, count, mode)
	return sc, nil
}

// destroySwapchain releases the image views before the swapchain.
func (c *gpuContext) destroySwapchain(sc *swapchain) {
	if sc == nil {
		return
	}
	for _, v := range sc.views {
		vk.DestroyImageView(c.device, v, nil)
	}
	sc.views = nil
	if sc.handle != vk.NullSwapchain {
		vk.DestroySwapchain(c.device, sc.handle, nil)
		sc.handle = vk.NullSwapchain
	}
}
