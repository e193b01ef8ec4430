package config

import (
	"fmt"
	"os"
	"sync"

	"vkcad/internal/graphics/scene"

	"gopkg.in/yaml.v3"
)

// ValidationLayer is the Khronos validation layer enabled when
// PreferValidationLayers is set and the loader reports it.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// RenderSettings holds renderer configuration
type RenderSettings struct {
	PreferValidationLayers bool             `yaml:"prefer_validation_layers"`
	PreferredGPU           string           `yaml:"preferred_gpu"` // case-insensitive substring, empty = first suitable
	MSAASamples            int              `yaml:"msaa_samples"`  // 1, 2, 4 or 8
	Debug                  bool             `yaml:"debug"`
	Lighting               LightingSettings `yaml:"lighting"`
	Window                 WindowSettings   `yaml:"window"`
}

// LightSource is a directional light given by angles in degrees.
type LightSource struct {
	Enabled         bool       `yaml:"enabled"`
	HorizontalAngle float32    `yaml:"horizontal_angle"` // 0 front, 90 right, 180 back
	VerticalAngle   float32    `yaml:"vertical_angle"`   // 0 horizon, 90 top
	Color           [3]float32 `yaml:"color"`
	Intensity       float32    `yaml:"intensity"`
}

// Direction returns the unit vector the light travels along.
func (l LightSource) Direction() [3]float32 {
	return scene.LightDirection(l.HorizontalAngle, l.VerticalAngle)
}

// GPU packs the light for the mesh shader.
func (l LightSource) GPU() scene.GPULight {
	return scene.NewGPULight(l.Direction(), l.Color, l.Intensity, l.Enabled)
}

// LightingSettings is the three-point rig plus ambient.
type LightingSettings struct {
	MainLight        LightSource `yaml:"main_light"`
	Backlight        LightSource `yaml:"backlight"`
	FillLight        LightSource `yaml:"fill_light"`
	AmbientIntensity float32     `yaml:"ambient_intensity"`
	AmbientColor     [3]float32  `yaml:"ambient_color"`
}

// ToLighting converts the settings into the per-frame lighting block.
func (l LightingSettings) ToLighting() scene.LightingData {
	return scene.LightingData{
		MainLight:        l.MainLight.GPU(),
		Backlight:        l.Backlight.GPU(),
		FillLight:        l.FillLight.GPU(),
		AmbientColor:     l.AmbientColor,
		AmbientIntensity: l.AmbientIntensity,
	}
}

// WindowSettings configures the viewer window.
type WindowSettings struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Default returns the settings used when no file is present.
func Default() RenderSettings {
	return RenderSettings{
		PreferValidationLayers: true,
		MSAASamples:            4,
		Lighting: LightingSettings{
			MainLight:        LightSource{Enabled: true, HorizontalAngle: 100, VerticalAngle: -46, Color: [3]float32{0.9, 0.9, 0.9}, Intensity: 0.9},
			Backlight:        LightSource{Enabled: true, HorizontalAngle: -130, VerticalAngle: -10, Color: [3]float32{0.8, 0.8, 0.85}, Intensity: 0.6},
			FillLight:        LightSource{Enabled: true, HorizontalAngle: -40, VerticalAngle: 5, Color: [3]float32{0.7, 0.8, 1.0}, Intensity: 0.4},
			AmbientIntensity: 0.2,
			AmbientColor:     [3]float32{1, 1, 1},
		},
		Window: WindowSettings{Width: 1280, Height: 800, Title: "vkcad"},
	}
}

// Load reads settings from a YAML file. Keys missing from the file keep
// their defaults; a missing file yields Default().
func Load(path string) (RenderSettings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes settings as YAML.
func (s RenderSettings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Validate rejects values no component can work with. Unsupported sample
// counts are not an error; the device layer falls back.
func (s RenderSettings) Validate() error {
	if s.MSAASamples < 0 {
		return fmt.Errorf("msaa_samples must not be negative, got %d", s.MSAASamples)
	}
	if s.Window.Width < 0 || s.Window.Height < 0 {
		return fmt.Errorf("window size must not be negative, got %dx%d", s.Window.Width, s.Window.Height)
	}
	return nil
}

var (
	currentMu sync.RWMutex
	current   = Default()
)

// Current returns the process-wide settings used by the viewer.
func Current() RenderSettings {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent replaces the process-wide settings.
func SetCurrent(s RenderSettings) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = s
}
