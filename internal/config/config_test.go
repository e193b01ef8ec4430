package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "render.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s != Default() {
		t.Errorf("missing file should yield defaults, got %+v", s)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeSettings(t, `
msaa_samples: 8
preferred_gpu: nvidia
lighting:
  fill_light:
    enabled: false
window:
  title: parts
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if s.MSAASamples != 8 || s.PreferredGPU != "nvidia" {
		t.Errorf("overrides lost: msaa=%d gpu=%q", s.MSAASamples, s.PreferredGPU)
	}
	if !s.PreferValidationLayers {
		t.Errorf("prefer_validation_layers default lost")
	}
	if s.Lighting.FillLight.Enabled {
		t.Errorf("fill light should be disabled")
	}
	if s.Lighting.FillLight.Intensity != def.Lighting.FillLight.Intensity {
		t.Errorf("fill light intensity = %v, want default %v", s.Lighting.FillLight.Intensity, def.Lighting.FillLight.Intensity)
	}
	if s.Lighting.MainLight != def.Lighting.MainLight {
		t.Errorf("main light changed: %+v", s.Lighting.MainLight)
	}
	if s.Window.Title != "parts" || s.Window.Width != def.Window.Width {
		t.Errorf("window = %+v", s.Window)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative msaa", "msaa_samples: -2\n"},
		{"negative window", "window:\n  width: -1\n"},
		{"malformed", "msaa_samples: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(writeSettings(t, tt.body))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if s != Default() {
				t.Errorf("failed load should return defaults")
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := Default()
	s.PreferredGPU = "radeon"
	s.Lighting.Backlight.Enabled = false
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got RenderSettings
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != s {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, s)
	}
}

func TestToLighting(t *testing.T) {
	l := Default().Lighting
	l.Backlight.Enabled = false
	data := l.ToLighting()
	if !data.MainLight.Enabled() || data.Backlight.Enabled() || !data.FillLight.Enabled() {
		t.Errorf("enabled flags not carried: %+v", data)
	}
	if data.AmbientIntensity != l.AmbientIntensity || data.AmbientColor != l.AmbientColor {
		t.Errorf("ambient = %v %v", data.AmbientColor, data.AmbientIntensity)
	}
}

func TestDirectionIsUnit(t *testing.T) {
	for _, ls := range []LightSource{
		Default().Lighting.MainLight,
		Default().Lighting.Backlight,
		{HorizontalAngle: 33, VerticalAngle: 71},
	} {
		d := ls.Direction()
		n := math.Sqrt(float64(d[0]*d[0] + d[1]*d[1] + d[2]*d[2]))
		if math.Abs(n-1) > 1e-5 {
			t.Errorf("direction %v has length %f", d, n)
		}
	}
}

func TestSetFPSLimitClamps(t *testing.T) {
	defer SetFPSLimit(GetFPSLimit())
	tests := []struct{ in, want int }{
		{-10, 0},
		{0, 0},
		{144, 144},
		{5000, 1000},
	}
	for _, tt := range tests {
		SetFPSLimit(tt.in)
		if got := GetFPSLimit(); got != tt.want {
			t.Errorf("SetFPSLimit(%d) -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToggleLogPanel(t *testing.T) {
	before := GetShowLogPanel()
	if ToggleLogPanel() == before {
		t.Errorf("toggle did not flip")
	}
	if ToggleLogPanel() != before {
		t.Errorf("second toggle did not restore")
	}
}
