package app

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/gekko3d/chunks"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/debugview"
	"github.com/gekko3d/chunks/chunkrt/rt/editor"
	"github.com/gekko3d/chunks/chunkrt/rt/gpu"
	"github.com/gekko3d/chunks/chunkrt/rt/mesher"
	"github.com/gekko3d/chunks/chunkrt/rt/profiler"
	"github.com/gekko3d/chunks/chunkrt/rt/stream"
	"github.com/gekko3d/chunks/chunkrt/rt/world"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	initialRadius   = 3
	columnsPerFrame = 4
	statsInterval   = 1.0
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	DepthTexture *wgpu.Texture
	DepthView    *wgpu.TextureView

	Options  chunks.Options
	Logger   chunks.Logger
	Metrics  *chunks.Metrics
	Profiler *profiler.Profiler

	Renderer *gpu.ChunkRenderer
	Manager  *chunks.Manager
	World    *world.MemoryWorld
	Streamer *stream.Streamer
	Camera   *core.CameraState
	Editor   *editor.Editor

	Seed           int64
	Frame          uint32
	LastTime       float64
	LastRenderTime float64
	MouseCaptured  bool
	DebugMode      bool
	FogEnabled     bool

	FrameCount int
	FPS        float64
	FPSTime    float64
}

func NewApp(window *glfw.Window, opts chunks.Options, logger chunks.Logger) *App {
	if logger == nil {
		logger = chunks.NewDefaultLogger("chunkrt", opts.Debug)
	}
	return &App{
		Window:   window,
		Options:  opts,
		Logger:   logger,
		Camera:   core.NewCameraState(),
		Profiler: profiler.New(),
		World:    world.NewMemoryWorld(nil),
		Seed:     1337,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	if err := a.setupDepth(width, height); err != nil {
		return err
	}

	a.Renderer, err = gpu.NewChunkRenderer(a.Device, format)
	if err != nil {
		return err
	}

	gen, err := world.NewGenerator(a.World.Registry(), a.Seed)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := gen.GenerateArea(context.Background(), a.World, 0, 0, initialRadius, a.Options.Workers); err != nil {
		return err
	}
	a.Logger.Infof("generated %d columns in %s", len(a.World.Columns()), time.Since(start))

	a.Metrics, err = chunks.NewMetrics(nil, "")
	if err != nil {
		a.Logger.Warnf("metrics disabled: %v", err)
	}

	a.Manager, err = chunks.NewManager(a.Options, chunks.Deps{
		Backend:  a.Renderer,
		World:    a.World,
		Mesher:   mesher.New(),
		Fog:      a,
		Logger:   a.Logger,
		Metrics:  a.Metrics,
		Profiler: a.Profiler,
	})
	if err != nil {
		return err
	}
	a.Streamer = stream.New(a.World, gen, a.Manager, int32(a.Options.RenderDistance), columnsPerFrame)

	stone, _ := a.World.Registry().Lookup("stone")
	a.Editor = editor.NewEditor(stone)
	a.Camera.Position = mgl32.Vec3{8, float32(gen.Height(8, 8)) + 12, 8}

	a.LastTime = glfw.GetTime()
	return nil
}

func (a *App) setupDepth(w, h int) error {
	if w == 0 || h == 0 {
		return nil
	}
	if a.DepthTexture != nil {
		a.DepthView.Release()
		a.DepthTexture.Release()
	}

	var err error
	a.DepthTexture, a.DepthView, err = gpu.CreateDepthTexture(a.Device, uint32(w), uint32(h))
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}
	return nil
}

// FogEnd ties the fog distance to the render distance.
func (a *App) FogEnd() (float32, bool) {
	if !a.FogEnabled {
		return 0, false
	}
	return float32(a.Options.RenderDistance * core.SectionSize), true
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		if err := a.setupDepth(w, h); err != nil {
			a.Logger.Errorf("resize: %v", err)
		}
	}
}

func (a *App) aspect() float32 {
	if a.Config.Height == 0 {
		return 1
	}
	return float32(a.Config.Width) / float32(a.Config.Height)
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.LastTime)
	a.LastTime = now

	a.Profiler.Reset()
	a.Profiler.BeginScope("Frame")

	a.moveCamera(dt)

	a.Profiler.BeginScope("Stream")
	added, removed := a.Streamer.Update(a.Camera.Position)
	a.Profiler.EndScope("Stream")
	a.Profiler.SetCount("columns added", added)
	a.Profiler.SetCount("columns removed", removed)

	a.Frame++
	a.Manager.Update(a.Camera.Position, a.Camera.Frustum(a.aspect()), a.Frame, a.Camera.Spectator)
	a.Manager.TickVisibleRenders()

	a.Renderer.DebugMode = a.DebugMode
	a.Renderer.FogEnd, _ = a.FogEnd()
}

func (a *App) moveCamera(dt float32) {
	forward := a.Camera.GetForward()
	right := a.Camera.GetRight()
	speed := a.Camera.Speed * dt
	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		speed *= 4
	}

	move := mgl32.Vec3{}
	if a.Window.GetKey(glfw.KeyW) == glfw.Press {
		move = move.Add(forward)
	}
	if a.Window.GetKey(glfw.KeyS) == glfw.Press {
		move = move.Sub(forward)
	}
	if a.Window.GetKey(glfw.KeyD) == glfw.Press {
		move = move.Add(right)
	}
	if a.Window.GetKey(glfw.KeyA) == glfw.Press {
		move = move.Sub(right)
	}
	if a.Window.GetKey(glfw.KeySpace) == glfw.Press {
		move = move.Add(mgl32.Vec3{0, 1, 0})
	}
	if a.Window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		move = move.Sub(mgl32.Vec3{0, 1, 0})
	}
	if move.Len() > 0 {
		a.Camera.Position = a.Camera.Position.Add(move.Normalize().Mul(speed))
	}
}

// Look applies a mouse delta to the camera.
func (a *App) Look(dx, dy float32) {
	a.Camera.Yaw += dx * a.Camera.Sensitivity
	a.Camera.Pitch -= dy * a.Camera.Sensitivity

	limit := float32(math.Pi/2 - 0.01)
	a.Camera.Pitch = max(-limit, min(limit, a.Camera.Pitch))
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	a.Profiler.BeginScope("Draw")
	fog := a.Renderer.FogColor
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: float64(fog[0]), G: float64(fog[1]), B: float64(fog[2]), A: 1},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})

	viewProj := a.Camera.GetProjection(a.aspect()).Mul4(a.Camera.GetRelativeViewMatrix())
	a.Renderer.BeginFrame(rPass, viewProj)
	for _, pass := range core.AllPasses {
		a.Manager.RenderLayer(pass, a.Camera.Position)
	}
	a.Renderer.EndFrame()

	if err := rPass.End(); err != nil {
		a.Logger.Errorf("render pass End failed: %v", err)
	}
	a.Profiler.EndScope("Draw")

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Logger.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.Profiler.EndScope("Frame")
	a.Profiler.SetCount("draw calls", a.Renderer.Stats.DrawCalls)
	a.Profiler.SetCount("drawn sections", a.Renderer.Stats.Sections)
	a.updateStats()
}

func (a *App) updateStats() {
	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
	}
	a.LastRenderTime = now
	if a.FPSTime < statsInterval {
		return
	}
	a.FPS = float64(a.FrameCount) / a.FPSTime
	a.FrameCount = 0
	a.FPSTime = 0

	buffers, bytes := a.Renderer.BufferUsage()
	a.Window.SetTitle(fmt.Sprintf("chunkrt | %.0f fps | %d/%d sections | %d buffers %.1f MiB",
		a.FPS, a.Manager.VisibleChunkCount(), a.Manager.TotalSections(), buffers, float64(bytes)/(1<<20)))
	if a.DebugMode {
		a.Logger.Debugf("%s", a.Profiler.GetStatsString())
	}
}

// HandleClick removes (left) or places (right) a block under the cursor.
func (a *App) HandleClick(button glfw.MouseButton, action glfw.Action) {
	if action != glfw.Press {
		return
	}

	var ray editor.Ray
	if a.MouseCaptured {
		ray = editor.Ray{Origin: a.Camera.Position, Direction: a.Camera.GetForward()}
	} else {
		x, y := a.Window.GetCursorPos()
		w, h := a.Window.GetSize()
		ray = a.Editor.GetPickRay(x, y, w, h, a.Camera)
	}

	hit := a.Editor.Pick(a.World, ray)
	if hit == nil {
		return
	}
	for _, p := range a.Editor.ApplyBrush(a.World, hit, button == glfw.MouseButtonLeft) {
		a.Manager.ScheduleRebuild(p.X, p.Y, p.Z, true)
	}
}

func (a *App) HandleKey(key glfw.Key) {
	switch key {
	case glfw.KeyF1:
		a.DebugMode = !a.DebugMode
	case glfw.KeyF2:
		a.dumpMap()
	case glfw.KeyF3:
		a.FogEnabled = !a.FogEnabled
		a.Manager.MarkDirty()
	case glfw.KeyF4:
		a.Camera.Spectator = !a.Camera.Spectator
	case glfw.KeyF5:
		opts := a.Options
		opts.RequireNeighbors = !opts.RequireNeighbors
		a.reconfigure(opts)
	case glfw.KeyPageUp, glfw.KeyPageDown:
		opts := a.Options
		if key == glfw.KeyPageUp {
			opts.RenderDistance++
		} else {
			opts.RenderDistance--
		}
		a.reconfigure(opts)
	}
}

// reconfigure pushes options to the manager and, when accepted, to the streamer.
func (a *App) reconfigure(opts chunks.Options) {
	if err := a.Manager.Reconfigure(opts); err != nil {
		a.Logger.Warnf("options rejected: %v", err)
		return
	}
	a.Options = a.Manager.Options()
	a.Streamer.SetRadius(int32(a.Options.RenderDistance))
	a.Logger.Infof("render distance %d, require neighbors %v", a.Options.RenderDistance, a.Options.RequireNeighbors)
}

func (a *App) dumpMap() {
	img := debugview.Render(a.Manager, a.Camera.Position, int32(a.Options.RenderDistance)+2, 8)
	path := filepath.Join(".", fmt.Sprintf("chunks-%d.png", a.Frame))
	if err := debugview.WritePNG(path, img); err != nil {
		a.Logger.Errorf("%v", err)
		return
	}
	a.Logger.Infof("wrote %s", path)
}

func (a *App) Close() {
	if a.Manager != nil {
		if err := a.Manager.Destroy(); err != nil {
			a.Logger.Errorf("%v", err)
		}
	}
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.DepthTexture != nil {
		a.DepthView.Release()
		a.DepthTexture.Release()
	}
}
