package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

// gpuContext is the device-level state shared by the mesh renderer, the UI
// compositor and the picker.
type gpuContext struct {
	gpu           vk.PhysicalDevice
	device        vk.Device
	memProps      vk.PhysicalDeviceMemoryProperties
	graphicsQueue vk.Queue
	commandPool   vk.CommandPool
	log           renderer.Logger
}

// vkErr tags a failed vk.Result with call-site context.
func vkErr(res vk.Result, what string) error {
	if err := vk.Error(res); err != nil {
		return renderer.VkError(int32(res), errors.Wrap(err, what))
	}
	return nil
}

func (c *gpuContext) findMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i := uint32(0); i < c.memProps.MemoryTypeCount; i++ {
		memType := c.memProps.MemoryTypes[i]
		memType.Deref()
		if typeFilter&(1<<i) == 0 {
			continue
		}
		if memType.PropertyFlags&properties != properties {
			continue
		}
		return i, nil
	}
	return 0, renderer.Initialization("no memory type matches filter %#x with properties %#x", typeFilter, properties)
}

func (c *gpuContext) createBuffer(size int, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	var buffer vk.Buffer
	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if err := vkErr(vk.CreateBuffer(c.device, &info, nil, &buffer), "create buffer"); err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(c.device, buffer, &req)
	req.Deref()

	memory, err := c.allocate(req, properties)
	if err != nil {
		vk.DestroyBuffer(c.device, buffer, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	if err := vkErr(vk.BindBufferMemory(c.device, buffer, memory, 0), "bind buffer memory"); err != nil {
		vk.DestroyBuffer(c.device, buffer, nil)
		vk.FreeMemory(c.device, memory, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	return buffer, memory, nil
}

func (c *gpuContext) allocate(req vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	typeIndex, err := c.findMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		return vk.NullDeviceMemory, err
	}
	var memory vk.DeviceMemory
	info := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: typeIndex,
	}
	if err := vkErr(vk.AllocateMemory(c.device, &info, nil, &memory), "allocate memory"); err != nil {
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// upload copies data into host-visible memory at offset 0.
func (c *gpuContext) upload(memory vk.DeviceMemory, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var ptr unsafe.Pointer
	if err := vkErr(vk.MapMemory(c.device, memory, 0, vk.DeviceSize(len(data)), 0, &ptr), "map memory"); err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(c.device, memory)
	return nil
}

// download reads n bytes from host-visible memory at offset 0.
func (c *gpuContext) download(memory vk.DeviceMemory, n int) ([]byte, error) {
	var ptr unsafe.Pointer
	if err := vkErr(vk.MapMemory(c.device, memory, 0, vk.DeviceSize(n), 0, &ptr), "map memory"); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(ptr), n))
	vk.UnmapMemory(c.device, memory)
	return out, nil
}

// gpuImage is an owned image with its memory and a single view.
type gpuImage struct {
	handle vk.Image
	memory vk.DeviceMemory
	view   vk.ImageView
	format vk.Format
	width  uint32
	height uint32
}

type imageSpec struct {
	width, height uint32
	format        vk.Format
	usage         vk.ImageUsageFlags
	samples       vk.SampleCountFlagBits
	aspect        vk.ImageAspectFlags
}

func (c *gpuContext) createImage(spec imageSpec) (*gpuImage, error) {
	samples := spec.samples
	if samples == 0 {
		samples = vk.SampleCount1Bit
	}
	img := &gpuImage{format: spec.format, width: spec.width, height: spec.height}
	info := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        vk.Extent3D{Width: spec.width, Height: spec.height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        spec.format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         spec.usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       samples,
	}
	if err := vkErr(vk.CreateImage(c.device, &info, nil, &img.handle), "create image"); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(c.device, img.handle, &req)
	req.Deref()
	memory, err := c.allocate(req, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		vk.DestroyImage(c.device, img.handle, nil)
		return nil, err
	}
	img.memory = memory
	if err := vkErr(vk.BindImageMemory(c.device, img.handle, memory, 0), "bind image memory"); err != nil {
		c.destroyImage(img)
		return nil, err
	}

	view, err := c.createImageView(img.handle, spec.format, spec.aspect)
	if err != nil {
		c.destroyImage(img)
		return nil, err
	}
	img.view = view
	return img, nil
}

func (c *gpuContext) createImageView(handle vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	var view vk.ImageView
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	if err := vkErr(vk.CreateImageView(c.device, &info, nil, &view), "create image view"); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (c *gpuContext) destroyImage(img *gpuImage) {
	if img == nil {
		return
	}
	if img.view != vk.NullImageView {
		vk.DestroyImageView(c.device, img.view, nil)
	}
	if img.handle != vk.NullImage {
		vk.DestroyImage(c.device, img.handle, nil)
	}
	if img.memory != vk.NullDeviceMemory {
		vk.FreeMemory(c.device, img.memory, nil)
	}
}

// oneTimeCommands records with fn, submits to the graphics queue and waits
// for the queue to drain before freeing the command buffer.
func (c *gpuContext) oneTimeCommands(fn func(cb vk.CommandBuffer)) error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        c.commandPool,
		CommandBufferCount: 1,
	}
	cbs := make([]vk.CommandBuffer, 1)
	if err := vkErr(vk.AllocateCommandBuffers(c.device, &allocInfo, cbs), "allocate one-time command buffer"); err != nil {
		return err
	}
	defer vk.FreeCommandBuffers(c.device, c.commandPool, 1, cbs)

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vkErr(vk.BeginCommandBuffer(cbs[0], &beginInfo), "begin one-time command buffer"); err != nil {
		return err
	}
	fn(cbs[0])
	if err := vkErr(vk.EndCommandBuffer(cbs[0]), "end one-time command buffer"); err != nil {
		return err
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cbs,
	}
	if err := vkErr(vk.QueueSubmit(c.graphicsQueue, 1, []vk.SubmitInfo{submit}, vk.NullFence), "submit one-time commands"); err != nil {
		return err
	}
	return vkErr(vk.QueueWaitIdle(c.graphicsQueue), "wait graphics queue")
}

// transition records a full-image layout barrier.
func transition(cb vk.CommandBuffer, img vk.Image, aspect vk.ImageAspectFlags, from, to vk.ImageLayout,
	srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           from,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cb, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
