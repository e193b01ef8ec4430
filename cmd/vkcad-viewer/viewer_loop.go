package main

import (
	"fmt"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/profiling"
)

const slowFrame = 25 * time.Millisecond

// ViewerLoop owns the per-frame state of the interactive viewer.
type ViewerLoop struct {
	window     *glfw.Window
	renderer   *renderer.Renderer
	log        renderer.Logger
	doc        *Document
	camera     *OrbitCamera
	hud        *HUD
	logs       *logRing
	configPath string
	pacer      framePacer

	cursorX, cursorY float64
	orbiting         bool
	clicked          bool

	frames       int
	fps          int
	lastFPSCheck time.Time
}

func NewViewerLoop(window *glfw.Window, r *renderer.Renderer, log renderer.Logger, logs *logRing, configPath string) *ViewerLoop {
	return &ViewerLoop{
		window:       window,
		renderer:     r,
		log:          log,
		doc:          NewDemoDocument(),
		camera:       NewOrbitCamera(),
		hud:          NewHUD(),
		logs:         logs,
		configPath:   configPath,
		lastFPSCheck: time.Now(),
	}
}

// Run draws frames until the window closes or a frame fails.
func (v *ViewerLoop) Run() error {
	for !v.window.ShouldClose() {
		if err := v.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (v *ViewerLoop) tick() error {
	profiling.ResetFrame()
	start := time.Now()

	func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()

	width, height := v.window.GetFramebufferSize()
	idle := width == 0 || height == 0
	if !idle {
		px, py := v.cursorPixels()
		v.renderer.RequestPick(px, py)

		frame := buildFrame(v.doc, v.camera, config.Current().Lighting, width, height)
		frame.UI = v.hud.Submission(v.pixelsPerPoint())
		if err := v.renderer.Render(frame); err != nil {
			return err
		}
		v.applyPick(px, py)
	}

	v.frames++
	if time.Since(v.lastFPSCheck) >= time.Second {
		v.fps = v.frames
		v.frames = 0
		v.lastFPSCheck = time.Now()
	}
	v.updateHUD()

	if d := time.Since(start); d > slowFrame {
		v.log.Debugf("%s", slowFrameReport(d))
	}
	v.pace(idle)
	return nil
}

// pace blocks until the next frame is due. A minimized window waits on
// events so restoring it wakes the loop at once.
func (v *ViewerLoop) pace(idle bool) {
	if idle {
		v.pacer.reset()
		glfw.WaitEventsTimeout(idleWait.Seconds())
		return
	}
	if d := v.pacer.delay(time.Now(), config.GetFPSLimit()); d > 0 {
		time.Sleep(d)
	}
}

// slowFrameReport summarizes the profiling buckets of a long frame.
func slowFrameReport(d time.Duration) string {
	return fmt.Sprintf("frame took %.2fms (vulkan %.2fms, %d pick readbacks): %s",
		float64(d.Microseconds())/1000,
		float64(profiling.SumWithPrefix("vulkan.").Microseconds())/1000,
		profiling.Count("vulkan.pick"),
		profiling.TopN(4))
}

// reloadSettings rereads the settings file. Lighting applies from the next
// frame; device settings need a restart.
func (v *ViewerLoop) reloadSettings() {
	s, err := config.Load(v.configPath)
	if err != nil {
		v.log.Warnf("%v; keeping current settings", err)
		return
	}
	config.SetCurrent(s)
	v.log.Infof("settings reloaded from %s", v.configPath)
}

// applyPick turns the pick serviced this frame into hover and selection.
func (v *ViewerLoop) applyPick(px, py int) {
	res := v.renderer.PickAt(px, py)
	v.doc.SetHovered(res.BodyID)
	if !v.clicked {
		return
	}
	v.clicked = false
	v.doc.Select(res.BodyID)
	if res.Hit() {
		v.log.Infof("selected %s: %s", v.doc.Name(res.BodyID), res)
	} else {
		v.log.Infof("selection cleared")
	}
}

func (v *ViewerLoop) updateHUD() {
	lines := []string{
		fmt.Sprintf("%s  %d fps", v.renderer.GPUName(), v.fps),
	}
	if name := v.doc.Name(v.doc.hovered); name != "" {
		lines = append(lines, "hover: "+name)
	}
	if name := v.doc.Name(v.doc.selected); name != "" {
		lines = append(lines, "selected: "+name)
	}
	if config.GetShowLogPanel() {
		lines = append(lines, v.logs.Lines()...)
	}
	v.hud.SetLines(lines...)
}

// cursorPixels converts the cursor from window coordinates to framebuffer pixels.
func (v *ViewerLoop) cursorPixels() (int, int) {
	ww, wh := v.window.GetSize()
	fw, fh := v.window.GetFramebufferSize()
	if ww == 0 || wh == 0 {
		return -1, -1
	}
	return int(v.cursorX * float64(fw) / float64(ww)), int(v.cursorY * float64(fh) / float64(wh))
}

func (v *ViewerLoop) pixelsPerPoint() float32 {
	sx, _ := v.window.GetContentScale()
	if sx <= 0 {
		return 1
	}
	return sx
}

// bindInput installs the window callbacks.
func (v *ViewerLoop) bindInput() {
	v.window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		v.renderer.Resize(width, height)
	})
	v.window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if v.orbiting {
			v.camera.Orbit(x-v.cursorX, y-v.cursorY)
		}
		v.cursorX, v.cursorY = x, y
	})
	v.window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		switch button {
		case glfw.MouseButtonLeft:
			if action == glfw.Press {
				v.clicked = true
			}
		case glfw.MouseButtonRight, glfw.MouseButtonMiddle:
			v.orbiting = action == glfw.Press
		}
	})
	v.window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		v.camera.Zoom(yoff)
	})
	v.window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyL:
			config.ToggleLogPanel()
		case glfw.KeyF:
			if config.GetFPSLimit() == 0 {
				config.SetFPSLimit(60)
			} else {
				config.SetFPSLimit(0)
			}
			v.log.Infof("fps limit %d", config.GetFPSLimit())
		case glfw.KeyG:
			v.log.Infof("gpus: %v", v.renderer.AvailableGPUs())
		case glfw.KeyR:
			v.reloadSettings()
		}
	})
}
