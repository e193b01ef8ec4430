package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/scene"
)

func TestFlatMeshNormalsPointOutward(t *testing.T) {
	m := boxMesh(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	if len(m.Positions) != 36 || len(m.Normals) != 36 {
		t.Fatalf("box has %d positions, %d normals", len(m.Positions), len(m.Normals))
	}
	for i := 0; i < len(m.Positions); i += 3 {
		c := mgl32.Vec3(m.Positions[i]).Add(m.Positions[i+1]).Add(m.Positions[i+2]).Mul(1.0 / 3)
		if c.Dot(m.Normals[i]) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i/3, m.Normals[i])
		}
	}
}

func TestPyramidMesh(t *testing.T) {
	m := pyramidMesh(mgl32.Vec3{}, 1, 2)
	if len(m.Positions) != 18 {
		t.Fatalf("pyramid has %d positions", len(m.Positions))
	}
	// base faces down
	for i := 12; i < 18; i++ {
		if m.Normals[i] != [3]float32{0, -1, 0} {
			t.Errorf("base normal %d = %v", i, m.Normals[i])
		}
	}
}

func TestDocumentHighlight(t *testing.T) {
	d := NewDemoDocument()
	a, b := d.Bodies[1].ID, d.Bodies[2].ID

	if !d.SetHovered(&a) {
		t.Fatalf("first hover should report a change")
	}
	if d.SetHovered(&a) {
		t.Errorf("same hover reported a change")
	}
	d.Select(&b)
	if d.Bodies[1].Highlight != scene.HighlightHovered || d.Bodies[2].Highlight != scene.HighlightSelected {
		t.Errorf("highlights = %s, %s", d.Bodies[1].Highlight, d.Bodies[2].Highlight)
	}
	d.SetHovered(&b)
	if d.Bodies[1].Highlight != scene.HighlightNone || d.Bodies[2].Highlight != scene.HighlightHoveredAndSelected {
		t.Errorf("highlights = %s, %s", d.Bodies[1].Highlight, d.Bodies[2].Highlight)
	}
	d.Select(nil)
	d.SetHovered(nil)
	for _, body := range d.Bodies {
		if body.Highlight != scene.HighlightNone {
			t.Errorf("%s still highlighted", d.Name(&body.ID))
		}
	}
	if d.Name(&a) != "pyramid" || d.Name(nil) != "" {
		t.Errorf("names: %q %q", d.Name(&a), d.Name(nil))
	}
}

func TestLogRing(t *testing.T) {
	r := newLogRing(3)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(r, "line %d\n", i)
	}
	r.Write([]byte("a\nb\n"))
	got := r.Lines()
	want := []string{"line 4", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lines = %q, want %q", got, want)
		}
	}
}

func TestAxisOverlays(t *testing.T) {
	cam := NewOrbitCamera()
	vp := cam.ViewProj(1.5)
	overlays := axisOverlays(vp, 900, 600)
	if len(overlays) != 3 {
		t.Fatalf("got %d overlays, want 3", len(overlays))
	}
	// +Y points up the screen, which is toward smaller pixel rows
	if y := overlays[1]; y.End[1] >= y.Start[1] {
		t.Errorf("y axis runs from %v to %v", y.Start, y.End)
	}
	if _, ok := toPixels(vp, cam.Eye().Mul(2), 900, 600); ok {
		t.Errorf("point behind the camera projected")
	}
}

func TestHUDUploadsOnlyOnChange(t *testing.T) {
	h := NewHUD()
	h.SetLines("gpu  60 fps")
	first := h.Submission(1)
	if len(first.Textures.Set) != 1 || len(first.Primitives) != 1 {
		t.Fatalf("first frame: %d uploads, %d primitives", len(first.Textures.Set), len(first.Primitives))
	}
	if first.Primitives[0].Mesh.Texture != hudTexture {
		t.Errorf("quad texture = %d", first.Primitives[0].Mesh.Texture)
	}
	if again := h.Submission(1); len(again.Textures.Set) != 0 || len(again.Primitives) != 1 {
		t.Errorf("unchanged text re-uploaded")
	}
	h.SetLines()
	if gone := h.Submission(1); len(gone.Textures.Free) != 1 || len(gone.Primitives) != 0 {
		t.Errorf("cleared HUD: %+v", gone.Textures)
	}
}

func TestBuildFrame(t *testing.T) {
	doc := NewDemoDocument()
	frame := buildFrame(doc, NewOrbitCamera(), config.Default().Lighting, 800, 0)
	if len(frame.Bodies) != len(doc.Bodies) {
		t.Errorf("bodies = %d", len(frame.Bodies))
	}
	if !frame.Lighting.MainLight.Enabled() {
		t.Errorf("lighting not taken from settings")
	}
}

func TestReloadSettingsUpdatesLighting(t *testing.T) {
	defer config.SetCurrent(config.Default())
	config.SetCurrent(config.Default())

	path := filepath.Join(t.TempDir(), "vkcad.yaml")
	if err := os.WriteFile(path, []byte("lighting:\n  ambient_intensity: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	v := &ViewerLoop{log: renderer.NewLogger(log.New(io.Discard, "", 0), false), configPath: path}
	v.reloadSettings()
	if got := config.Current().Lighting.AmbientIntensity; got != 0.5 {
		t.Fatalf("ambient after reload = %v, want 0.5", got)
	}
	frame := buildFrame(NewDemoDocument(), NewOrbitCamera(), config.Current().Lighting, 800, 600)
	if frame.Lighting.AmbientIntensity != 0.5 {
		t.Errorf("frame ambient = %v, want the reloaded value", frame.Lighting.AmbientIntensity)
	}

	if err := os.WriteFile(path, []byte("msaa_samples: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	v.reloadSettings()
	if got := config.Current().Lighting.AmbientIntensity; got != 0.5 {
		t.Errorf("invalid file replaced settings: ambient = %v", got)
	}
}
