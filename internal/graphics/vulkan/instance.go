package vulkan

import (
	"strings"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
)

const debugReportExtension = "VK_EXT_debug_report"

// safeString makes s usable as a C string for the loader.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// loadVulkan points vulkan-go at the GLFW loader. It fails with
// UnsupportedPlatform when no Vulkan loader is present.
func loadVulkan() error {
	if !glfw.VulkanSupported() {
		return renderer.UnsupportedPlatform("vulkan loader not found")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		return renderer.UnsupportedPlatform("vulkan init: %v", err)
	}
	return nil
}

func instanceLayers() []string {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return nil
	}
	props := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, props) != vk.Success {
		return nil
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names
}

func instanceExtensions() []string {
	var count uint32
	if vk.EnumerateInstanceExtensionProperties("", &count, nil) != vk.Success {
		return nil
	}
	props := make([]vk.ExtensionProperties, count)
	if vk.EnumerateInstanceExtensionProperties("", &count, props) != vk.Success {
		return nil
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names
}

func contains(list []string, name string) bool {
	name = strings.TrimSuffix(name, "\x00")
	for _, s := range list {
		if strings.TrimSuffix(s, "\x00") == name {
			return true
		}
	}
	return false
}

type instance struct {
	handle        vk.Instance
	debugCallback vk.DebugReportCallback
	hasCallback   bool
	validation    bool
}

func createInstance(w renderer.Window, settings config.RenderSettings, log renderer.Logger) (*instance, error) {
	extensions := w.GetRequiredInstanceExtensions()
	if len(extensions) == 0 {
		return nil, renderer.UnsupportedPlatform("window system reports no vulkan surface extensions")
	}

	var layers []string
	validation := false
	if settings.PreferValidationLayers {
		if contains(instanceLayers(), config.ValidationLayer) {
			layers = append(layers, config.ValidationLayer)
			validation = true
		} else {
			log.Infof("validation layer %s not available, continuing without it", config.ValidationLayer)
		}
	}
	if validation && contains(instanceExtensions(), debugReportExtension) {
		extensions = append(extensions, debugReportExtension)
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(settings.Window.Title),
		ApplicationVersion: vk.MakeVersion(0, 1, 0),
		PEngineName:        "vkcad\x00",
		EngineVersion:      vk.MakeVersion(0, 1, 0),
		ApiVersion:         vk.MakeVersion(1, 0, 0),
	}
	info := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	inst := &instance{validation: validation}
	if err := vkErr(vk.CreateInstance(&info, nil, &inst.handle), "create instance"); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(inst.handle); err != nil {
		vk.DestroyInstance(inst.handle, nil)
		return nil, renderer.Initialization("init instance: %v", err)
	}

	if validation && contains(extensions, debugReportExtension) {
		inst.installDebugCallback(log)
	}
	return inst, nil
}

// installDebugCallback forwards validation messages to log. Failure is
// logged and otherwise ignored.
func (i *instance) installDebugCallback(log renderer.Logger) {
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, layerPrefix string,
			message string, userData unsafe.Pointer) vk.Bool32 {
			switch {
			case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
				log.Warnf("vulkan [%s] error %d: %s", layerPrefix, messageCode, message)
			case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
				log.Warnf("vulkan [%s] %d: %s", layerPrefix, messageCode, message)
			default:
				log.Debugf("vulkan [%s] %d: %s", layerPrefix, messageCode, message)
			}
			return vk.False
		},
	}
	if res := vk.CreateDebugReportCallback(i.handle, &info, nil, &i.debugCallback); res != vk.Success {
		log.Warnf("debug report callback unavailable: %v", vk.Error(res))
		return
	}
	i.hasCallback = true
}

func (i *instance) destroy() {
	if i == nil || i.handle == nil {
		return
	}
	if i.hasCallback {
		vk.DestroyDebugReportCallback(i.handle, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.handle, nil)
	i.handle = nil
}

// createSurface asks the window system for a presentable surface.
func createSurface(inst *instance, w renderer.Window) (vk.Surface, error) {
	ptr, err := w.CreateWindowSurface(inst.handle, nil)
	if err != nil {
		return vk.NullSurface, renderer.UnsupportedPlatform("create window surface: %v", err)
	}
	return vk.SurfaceFromPointer(ptr), nil
}
