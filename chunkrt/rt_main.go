package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/gekko3d/chunks"
	"github.com/gekko3d/chunks/chunkrt/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML options file (defaults to $CHUNKS_CONFIG)")
	debug := flag.Bool("debug", false, "Enable debug logging and section tinting")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :2112")
	seed := flag.Int64("seed", 1337, "World generator seed")
	flag.Parse()

	opts, err := chunks.LoadOptions(*configPath)
	if err != nil {
		log.Fatalf("options: %v", err)
	}
	opts.Debug = opts.Debug || *debug

	logger := chunks.NewDefaultLogger("chunkrt", opts.Debug)
	if *metricsAddr != "" {
		chunks.ServeMetrics(*metricsAddr, logger)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "chunkrt", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, opts, logger)
	application.Seed = *seed
	application.DebugMode = opts.Debug
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Close()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	var lastX, lastY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if application.MouseCaptured {
			application.Look(float32(xpos-lastX), float32(ypos-lastY))
		}
		lastX, lastY = xpos, ypos
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.MouseCaptured = !application.MouseCaptured
			if application.MouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		default:
			application.HandleKey(key)
		}
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleClick(button, action)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
