package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/scene"
)

// Core is the Vulkan implementation of renderer.FrameCore. It is not safe
// for concurrent use; the render thread owns it.
type Core struct {
	*gpuContext

	inst         *instance
	surface      vk.Surface
	queues       queueFamilies
	presentQueue vk.Queue
	gpuName      string
	gpus         []string

	depthFormat vk.Format
	samples     vk.SampleCountFlagBits

	// swapchain-sized resources, rebuilt by the lifecycle
	swap           *swapchain
	attach         attachments
	renderPass     vk.RenderPass
	uiRenderPass   vk.RenderPass
	framebuffers   []vk.Framebuffer
	uiFramebuffers []vk.Framebuffer

	commandBuffers []vk.CommandBuffer
	sync           *frameSync
	slots          *frameSlots
	life           lifecycle

	mesh   *meshRenderer
	ui     *uiCompositor
	picker *picker

	pickRequest *[2]int
	lastPick    scene.PickResult
}

var _ renderer.FrameCore = (*Core)(nil)

// NewCore is a renderer.CoreFactory. On failure everything created so far
// is released.
func NewCore(w renderer.Window, extent renderer.Extent, settings config.RenderSettings, log renderer.Logger) (renderer.FrameCore, error) {
	if err := loadVulkan(); err != nil {
		return nil, err
	}
	c := &Core{gpuContext: &gpuContext{log: log}}
	if err := c.init(w, extent, settings); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Core) init(w renderer.Window, extent renderer.Extent, settings config.RenderSettings) error {
	var err error
	if c.inst, err = createInstance(w, settings, c.log); err != nil {
		return err
	}
	if c.surface, err = createSurface(c.inst, w); err != nil {
		return err
	}
	if err := c.pickDevice(settings.PreferredGPU); err != nil {
		return err
	}
	if c.device, c.graphicsQueue, c.presentQueue, err = logicalDevice(c.gpu, c.queues); err != nil {
		return err
	}
	vk.GetPhysicalDeviceMemoryProperties(c.gpu, &c.memProps)
	c.memProps.Deref()

	if err := c.createCommandPool(); err != nil {
		return err
	}
	if c.depthFormat, err = chooseDepthFormat(depthSupportProbe(c.gpu)); err != nil {
		return err
	}
	limits := deviceLimits(c.gpu)
	c.samples = chooseSamples(c.log, settings.MSAASamples, limits)
	c.log.Infof("using GPU %s (depth format %d, msaa %dx)", c.gpuName, c.depthFormat, sampleCount(c.samples))

	if c.sync, err = c.createFrameSync(); err != nil {
		return err
	}
	if c.commandBuffers, err = c.allocateCommandBuffers(framesInFlight); err != nil {
		return err
	}
	c.slots = newFrameSlots(0)

	if c.mesh, err = newMeshRenderer(c.gpuContext); err != nil {
		return err
	}
	if c.ui, err = newUICompositor(c.gpuContext, int(limits.MaxImageDimension2D)); err != nil {
		return err
	}
	if c.picker, err = newPicker(c.gpuContext, c.depthFormat); err != nil {
		return err
	}
	return c.life.create(c, extent)
}

// pickDevice enumerates physical devices and applies the GPU preference.
func (c *Core) pickDevice(preferred string) error {
	devices, err := physicalDevices(c.inst.handle)
	if err != nil {
		return err
	}
	candidates := make([]deviceCandidate, len(devices))
	for i, gpu := range devices {
		candidates[i] = describeDevice(gpu, c.surface, c.log)
	}
	sel, err := selectDevice(candidates, preferred)
	if err != nil {
		return err
	}
	if sel.warning != "" {
		c.log.Warnf("%s", sel.warning)
	}
	c.gpu = devices[sel.index]
	c.gpuName = candidates[sel.index].name
	c.gpus = sel.available
	c.queues = candidates[sel.index].queues()
	return nil
}

func (c *Core) createCommandPool() error {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: c.queues.graphics,
	}
	return vkErr(vk.CreateCommandPool(c.device, &info, nil, &c.commandPool), "create command pool")
}

func (c *Core) allocateCommandBuffers(n int) ([]vk.CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(n),
	}
	cbs := make([]vk.CommandBuffer, n)
	if err := vkErr(vk.AllocateCommandBuffers(c.device, &info, cbs), "allocate command buffers"); err != nil {
		return nil, err
	}
	return cbs, nil
}

func (c *Core) surfaceExtent(requested renderer.Extent) (renderer.Extent, error) {
	caps, err := querySurfaceCapabilities(c.gpu, c.surface)
	if err != nil {
		return renderer.Extent{}, err
	}
	e := chooseExtent(caps, requested)
	return renderer.Extent{Width: e.Width, Height: e.Height}, nil
}

func (c *Core) waitIdle() {
	if c.device != nil {
		vk.DeviceWaitIdle(c.device)
	}
}

// buildSwapchainResources creates the swapchain, its attachments, both
// render passes and their framebuffers.
func (c *Core) buildSwapchainResources(extent renderer.Extent) (renderer.Extent, error) {
	got, err := c.buildSwapchain(extent)
	if err != nil {
		c.destroySwapchainResources()
		return renderer.Extent{}, err
	}
	return got, nil
}

func (c *Core) buildSwapchain(extent renderer.Extent) (renderer.Extent, error) {
	var err error
	if c.swap, err = c.createSwapchain(c.surface, c.queues, extent); err != nil {
		return renderer.Extent{}, err
	}
	size := c.swap.extent
	if c.attach, err = c.createAttachments(size, c.swap.format, c.depthFormat, c.samples); err != nil {
		return renderer.Extent{}, err
	}
	if c.renderPass, err = c.createMainRenderPass(c.swap.format, c.depthFormat, c.samples); err != nil {
		return renderer.Extent{}, err
	}
	if c.uiRenderPass, err = c.createUIRenderPass(c.swap.format); err != nil {
		return renderer.Extent{}, err
	}
	for _, view := range c.swap.views {
		fb, err := c.createFramebuffer(c.renderPass, mainFramebufferViews(view, c.attach), size)
		if err != nil {
			return renderer.Extent{}, err
		}
		c.framebuffers = append(c.framebuffers, fb)
		fb, err = c.createFramebuffer(c.uiRenderPass, []vk.ImageView{view}, size)
		if err != nil {
			return renderer.Extent{}, err
		}
		c.uiFramebuffers = append(c.uiFramebuffers, fb)
	}
	c.slots.resize(len(c.swap.images))
	return renderer.Extent{Width: size.Width, Height: size.Height}, nil
}

// destroySwapchainResources releases in reverse creation order. Missing
// pieces from a partial build are skipped.
func (c *Core) destroySwapchainResources() {
	for _, fb := range c.uiFramebuffers {
		vk.DestroyFramebuffer(c.device, fb, nil)
	}
	c.uiFramebuffers = nil
	for _, fb := range c.framebuffers {
		vk.DestroyFramebuffer(c.device, fb, nil)
	}
	c.framebuffers = nil
	if c.uiRenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(c.device, c.uiRenderPass, nil)
		c.uiRenderPass = vk.NullRenderPass
	}
	if c.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(c.device, c.renderPass, nil)
		c.renderPass = vk.NullRenderPass
	}
	c.destroyAttachments(&c.attach)
	c.destroySwapchain(c.swap)
	c.swap = nil
}

// rebindDependents rebuilds the pipelines against the new render passes and
// resizes the pick targets.
func (c *Core) rebindDependents(extent renderer.Extent) error {
	if err := c.mesh.rebind(c.renderPass, c.samples); err != nil {
		return err
	}
	if err := c.ui.rebind(c.uiRenderPass); err != nil {
		return err
	}
	return c.picker.resize(vk.Extent2D{Width: extent.Width, Height: extent.Height})
}

// RecreateSwapchain rebuilds everything sized to the surface.
func (c *Core) RecreateSwapchain(extent renderer.Extent) error {
	if err := c.life.recreate(c, extent); err != nil {
		return err
	}
	c.log.Debugf("swapchain recreated at %dx%d (generation %d)", c.life.extent.Width, c.life.extent.Height, c.life.generation)
	return nil
}

func (c *Core) SwapchainExtent() renderer.Extent { return c.life.extent }

// RequestPick schedules a readback at (x, y) after the next frame. A newer
// request replaces an unserviced one.
func (c *Core) RequestPick(x, y int) {
	c.pickRequest = &[2]int{x, y}
}

func (c *Core) LastPick() scene.PickResult { return c.lastPick }

func (c *Core) GPUName() string { return c.gpuName }

func (c *Core) AvailableGPUs() []string {
	return append([]string(nil), c.gpus...)
}

// Destroy releases every GPU object. It is safe on a partially initialized
// core and on repeated calls.
func (c *Core) Destroy() {
	if c.device != nil {
		c.waitIdle()
		c.life.destroy(c)
		if c.picker != nil {
			c.picker.destroy()
			c.picker = nil
		}
		if c.ui != nil {
			c.ui.destroy()
			c.ui = nil
		}
		if c.mesh != nil {
			c.mesh.destroy()
			c.mesh = nil
		}
		c.destroyFrameSync(c.sync)
		c.sync = nil
		if c.commandPool != vk.NullCommandPool {
			if len(c.commandBuffers) > 0 {
				vk.FreeCommandBuffers(c.device, c.commandPool, uint32(len(c.commandBuffers)), c.commandBuffers)
				c.commandBuffers = nil
			}
			vk.DestroyCommandPool(c.device, c.commandPool, nil)
			c.commandPool = vk.NullCommandPool
		}
		vk.DestroyDevice(c.device, nil)
		c.device = nil
	}
	if c.inst != nil {
		if c.surface != vk.NullSurface {
			vk.DestroySurface(c.inst.handle, c.surface, nil)
			c.surface = vk.NullSurface
		}
		c.inst.destroy()
		c.inst = nil
	}
}
