package main

import (
	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/software"
	"vkcad/internal/profiling"
)

// runHeadless orbits the demo document on the software core and logs a
// pick at the centre of every frame.
func runHeadless(settings config.RenderSettings, log renderer.Logger, frames int) error {
	win := &software.Window{Width: settings.Window.Width, Height: settings.Window.Height}
	r := renderer.New(settings, software.NewCore, log)
	if err := r.Initialize(win); err != nil {
		return err
	}
	defer r.Dispose()

	doc := NewDemoDocument()
	cam := NewOrbitCamera()
	cx, cy := win.Width/2, win.Height/2
	for i := 0; i < frames; i++ {
		profiling.ResetFrame()
		r.RequestPick(cx, cy)
		if err := r.Render(buildFrame(doc, cam, config.Current().Lighting, win.Width, win.Height)); err != nil {
			return err
		}
		res := r.PickAt(cx, cy)
		if res.Hit() {
			log.Infof("frame %d: %s under (%d, %d): %s", i, doc.Name(res.BodyID), cx, cy, res)
		} else {
			log.Infof("frame %d: nothing under (%d, %d)", i, cx, cy)
		}
		cam.Orbit(float64(600/max(frames, 1)), 0)
	}
	log.Infof("last frame: %s", profiling.TopN(3))
	return nil
}
