package vulkan

import (
	"strings"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/graphics/renderer"
)

const swapchainExtension = "VK_KHR_swapchain"

type queueFamilies struct {
	graphics uint32
	present  uint32
}

// deviceCandidate is what selection needs to know about one physical device.
type deviceCandidate struct {
	name           string
	graphicsFamily int // -1 when absent
	presentFamily  int // -1 when absent
	hasSwapchain   bool
	formats        int
	presentModes   int
}

func (d deviceCandidate) suitable() bool {
	return d.graphicsFamily >= 0 && d.presentFamily >= 0 && d.hasSwapchain &&
		d.formats > 0 && d.presentModes > 0
}

func (d deviceCandidate) queues() queueFamilies {
	return queueFamilies{graphics: uint32(d.graphicsFamily), present: uint32(d.presentFamily)}
}

// deviceSelection is the outcome of selectDevice.
type deviceSelection struct {
	index     int      // into the candidate slice
	available []string // names of every suitable device
	warning   string   // non-empty when the preference could not be honoured
}

// selectDevice picks the first suitable candidate whose name contains
// preferred (case-insensitive). Without a match the first suitable device
// wins and a warning is reported.
func selectDevice(candidates []deviceCandidate, preferred string) (deviceSelection, error) {
	sel := deviceSelection{index: -1}
	first := -1
	want := strings.ToLower(strings.TrimSpace(preferred))
	for i, c := range candidates {
		if !c.suitable() {
			continue
		}
		sel.available = append(sel.available, c.name)
		if first < 0 {
			first = i
		}
		if want != "" && sel.index < 0 && strings.Contains(strings.ToLower(c.name), want) {
			sel.index = i
		}
	}
	if first < 0 {
		return sel, renderer.Initialization("no suitable GPU found among %d devices", len(candidates))
	}
	if sel.index >= 0 {
		return sel, nil
	}
	sel.index = first
	if want == "" {
		sel.warning = "no preferred GPU configured, using " + candidates[first].name
	} else {
		sel.warning = "preferred GPU \"" + preferred + "\" not found, using " + candidates[first].name
	}
	return sel, nil
}

func physicalDevices(inst vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := vkErr(vk.EnumeratePhysicalDevices(inst, &count, nil), "enumerate physical devices"); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vkErr(vk.EnumeratePhysicalDevices(inst, &count, devices), "enumerate physical devices"); err != nil {
		return nil, err
	}
	return devices, nil
}

func deviceName(gpu vk.PhysicalDevice) string {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	return vk.ToString(props.DeviceName[:])
}

func deviceLimits(gpu vk.PhysicalDevice) vk.PhysicalDeviceLimits {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	props.Limits.Deref()
	return props.Limits
}

func hasDeviceExtension(gpu vk.PhysicalDevice, name string) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil) != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(gpu, "", &count, props) != vk.Success {
		return false
	}
	for _, p := range props {
		p.Deref()
		if vk.ToString(p.ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

// describeDevice queries everything deviceCandidate needs.
func describeDevice(gpu vk.PhysicalDevice, surface vk.Surface, log renderer.Logger) deviceCandidate {
	c := deviceCandidate{name: deviceName(gpu), graphicsFamily: -1, presentFamily: -1}

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, families)
	for i, f := range families {
		f.Deref()
		if c.graphicsFamily < 0 && f.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			c.graphicsFamily = i
		}
		var present vk.Bool32
		if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(gpu, uint32(i), surface, &present)); err != nil {
			log.Warnf("surface support query for %s family %d: %v", c.name, i, err)
		} else if c.presentFamily < 0 && present.B() {
			c.presentFamily = i
		}
	}

	c.hasSwapchain = hasDeviceExtension(gpu, swapchainExtension)
	if c.hasSwapchain {
		if support, err := querySurfaceSupport(gpu, surface); err == nil {
			c.formats = len(support.formats)
			c.presentModes = len(support.presentModes)
		}
	}
	log.Debugf("gpu %q: graphics=%d present=%d swapchain=%v formats=%d modes=%d",
		c.name, c.graphicsFamily, c.presentFamily, c.hasSwapchain, c.formats, c.presentModes)
	return c
}

// logicalDevice creates the device with one queue per unique family.
func logicalDevice(gpu vk.PhysicalDevice, q queueFamilies) (vk.Device, vk.Queue, vk.Queue, error) {
	unique := []uint32{q.graphics}
	if q.present != q.graphics {
		unique = append(unique, q.present)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(unique))
	for _, family := range unique {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}
	extensions := []string{safeString(swapchainExtension)}
	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}

	var device vk.Device
	if err := vkErr(vk.CreateDevice(gpu, &info, nil, &device), "create logical device"); err != nil {
		return nil, nil, nil, err
	}
	var graphics, present vk.Queue
	vk.GetDeviceQueue(device, q.graphics, 0, &graphics)
	vk.GetDeviceQueue(device, q.present, 0, &present)
	return device, graphics, present, nil
}
