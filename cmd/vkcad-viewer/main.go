package main

import (
	"flag"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/vulkan"
)

var (
	configPath = flag.String("config", "vkcad.yaml", "render settings file")
	headless   = flag.Bool("headless", false, "draw frames on the software core and exit")
	frames     = flag.Int("frames", 8, "frames to draw with -headless")
	debug      = flag.Bool("debug", false, "enable debug logging")
	fpsLimit   = flag.Int("fps", 0, "frame cap, 0 for uncapped")
	shaderDir  = flag.String("shaders", "", "load SPIR-V from this directory instead of the embedded copy")
)

func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Parse()
	defer closer.Close()

	logs := newLogRing(logPanelLines)
	out := log.New(io.MultiWriter(os.Stderr, logs), "", log.Ltime)
	settings, err := config.Load(*configPath)
	logger := renderer.NewLogger(out, settings.Debug || *debug)
	if err != nil {
		logger.Warnf("%v; using defaults", err)
	}
	if settings.Window.Width == 0 || settings.Window.Height == 0 {
		settings.Window = config.Default().Window
	}
	config.SetCurrent(settings)
	config.SetFPSLimit(*fpsLimit)
	if *shaderDir != "" {
		vulkan.Shaders = os.DirFS(*shaderDir)
	}

	if *headless {
		if err := runHeadless(settings, logger, *frames); err != nil {
			closer.Fatalln(err)
		}
		return
	}
	if err := runWindowed(settings, logger, logs, *configPath); err != nil {
		closer.Fatalln(err)
	}
}

func runWindowed(settings config.RenderSettings, log renderer.Logger, logs *logRing, configPath string) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	closer.Bind(glfw.Terminate)

	window, err := setupWindow(settings.Window)
	if err != nil {
		return err
	}
	closer.Bind(window.Destroy)

	r := renderer.New(settings, vulkan.NewCore, log)
	if err := r.Initialize(window); err != nil {
		return err
	}
	closer.Bind(r.Dispose)
	log.Infof("rendering on %s", r.GPUName())

	loop := NewViewerLoop(window, r, log, logs, configPath)
	loop.bindInput()
	return loop.Run()
}

func setupWindow(s config.WindowSettings) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	return glfw.CreateWindow(s.Width, s.Height, s.Title, nil, nil)
}
