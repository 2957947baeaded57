package gpu

import (
	"fmt"

	"github.com/gekko3d/chunks/chunkrt/rt/build"
	"github.com/gekko3d/chunks/chunkrt/rt/core"
	"github.com/gekko3d/chunks/chunkrt/rt/lists"
	"github.com/gekko3d/chunks/chunkrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const DepthFormat = wgpu.TextureFormatDepth24Plus

// SectionBuffer holds one pass of section geometry on the GPU.
type SectionBuffer struct {
	Buffer   *wgpu.Buffer
	Size     uint64
	Ranges   [core.FacingCount]core.Range
	Vertices uint32

	owner *ChunkRenderer
}

func (s *SectionBuffer) Delete() {
	if s.Buffer == nil {
		return
	}
	s.Buffer.Release()
	s.Buffer = nil
	if s.owner != nil {
		s.owner.bufferBytes -= s.Size
		s.owner.buffers--
	}
}

type DrawStats struct {
	Sections  int
	DrawCalls int
	Vertices  uint32
}

// ChunkRenderer uploads section meshes and draws render lists into a render pass opened
// by the caller.
type ChunkRenderer struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipelines    [core.PassCount]*wgpu.RenderPipeline
	CameraBuf    *wgpu.Buffer
	CameraBG     *wgpu.BindGroup
	FogEnd       float32
	FogColor     [4]float32
	DebugMode    bool
	ViewProj     mgl32.Mat4
	cameraLoaded bool

	pass    *wgpu.RenderPassEncoder
	current core.BlockRenderPass
	ranges  []core.Range

	Stats       DrawStats
	bufferBytes uint64
	buffers     int
}

func NewChunkRenderer(device *wgpu.Device, format wgpu.TextureFormat) (*ChunkRenderer, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "ChunkShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ChunkWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "ChunkCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: CameraUniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "ChunkPipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}

	r := &ChunkRenderer{
		Device:   device,
		Queue:    device.GetQueue(),
		FogColor: [4]float32{0.62, 0.76, 0.95, 1},
		ViewProj: mgl32.Ident4(),
	}

	for _, pass := range core.AllPasses {
		p, err := createPassPipeline(device, module, layout, format, pass)
		if err != nil {
			return nil, fmt.Errorf("%s pipeline: %w", pass, err)
		}
		r.Pipelines[pass] = p
	}

	r.CameraBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "ChunkCameraUB",
		Size:  CameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	r.CameraBG, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "ChunkCameraBG",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.CameraBuf, Size: CameraUniformSize},
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func createPassPipeline(device *wgpu.Device, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout, format wgpu.TextureFormat, pass core.BlockRenderPass) (*wgpu.RenderPipeline, error) {
	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	entry := "fs_main"
	depthWrite := true

	switch pass {
	case core.PassCutout, core.PassCutoutMipped:
		entry = "fs_cutout"
	case core.PassTranslucent:
		depthWrite = false
		target.Blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
		}
	}

	return device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Chunk" + pass.String(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: core.VertexStride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatUnorm8x4, Offset: 12, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: entry,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: depthWrite,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// Upload creates vertex buffers for finished builds and attaches them to their renders.
func (r *ChunkRenderer) Upload(uploads []build.Upload) error {
	for _, u := range uploads {
		for i, mesh := range u.Meshes {
			pass := core.BlockRenderPass(i)
			if mesh.IsEmpty() {
				u.Render.SetGraphicsState(pass, nil)
				continue
			}

			sb, err := r.createSectionBuffer(u.Render.Pos(), pass, mesh)
			if err != nil {
				return fmt.Errorf("upload section %v: %w", u.Render.Pos(), err)
			}
			u.Render.SetGraphicsState(pass, sb)
		}
	}
	return nil
}

func (r *ChunkRenderer) createSectionBuffer(pos core.SectionPos, pass core.BlockRenderPass, mesh *core.MeshData) (*SectionBuffer, error) {
	size := alignBuffer(uint64(len(mesh.Vertices)))
	buf, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("Section %d,%d,%d %s", pos.X, pos.Y, pos.Z, pass),
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}

	data := mesh.Vertices
	if uint64(len(data)) != size {
		data = append(make([]byte, 0, size), data...)
		data = data[:size]
	}
	r.Queue.WriteBuffer(buf, 0, data)

	r.bufferBytes += size
	r.buffers++
	return &SectionBuffer{
		Buffer:   buf,
		Size:     size,
		Ranges:   mesh.FaceRanges,
		Vertices: mesh.VertexCount(),
		owner:    r,
	}, nil
}

// BeginFrame binds the render pass that following Begin/Render/End calls draw into.
func (r *ChunkRenderer) BeginFrame(pass *wgpu.RenderPassEncoder, viewProj mgl32.Mat4) {
	r.pass = pass
	r.ViewProj = viewProj
	r.cameraLoaded = false
	r.Stats = DrawStats{}
}

func (r *ChunkRenderer) EndFrame() {
	r.pass = nil
}

func (r *ChunkRenderer) Begin(pass core.BlockRenderPass) {
	r.current = pass
	if r.pass == nil {
		return
	}
	r.pass.SetPipeline(r.Pipelines[pass])
	r.pass.SetBindGroup(0, r.CameraBG, nil)
}

func (r *ChunkRenderer) Render(it *lists.Iterator, cam core.CameraContext) {
	if r.pass == nil {
		return
	}
	if !r.cameraLoaded {
		r.Queue.WriteBuffer(r.CameraBuf, 0, encodeCamera(r.ViewProj, cam, r.FogEnd, r.FogColor, r.DebugMode))
		r.cameraLoaded = true
	}

	for it.Next() {
		sb, ok := it.State().(*SectionBuffer)
		if !ok || sb.Buffer == nil {
			continue
		}

		r.ranges = drawRanges(sb.Ranges, it.Faces(), r.ranges)
		if len(r.ranges) == 0 {
			continue
		}

		r.pass.SetVertexBuffer(0, sb.Buffer, 0, sb.Size)
		for _, rg := range r.ranges {
			r.pass.Draw(rg.Count, 1, rg.Start, 0)
			r.Stats.DrawCalls++
			r.Stats.Vertices += rg.Count
		}
		r.Stats.Sections++
	}
}

func (r *ChunkRenderer) End() {}

// BufferUsage reports live section buffers and their total size in bytes.
func (r *ChunkRenderer) BufferUsage() (int, uint64) {
	return r.buffers, r.bufferBytes
}

func (r *ChunkRenderer) Release() {
	for i, p := range r.Pipelines {
		if p != nil {
			p.Release()
			r.Pipelines[i] = nil
		}
	}
	if r.CameraBG != nil {
		r.CameraBG.Release()
		r.CameraBG = nil
	}
	if r.CameraBuf != nil {
		r.CameraBuf.Release()
		r.CameraBuf = nil
	}
}

// CreateDepthTexture allocates the depth target the chunk pipelines test against.
func CreateDepthTexture(device *wgpu.Device, width, height uint32) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Chunk Depth",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}
