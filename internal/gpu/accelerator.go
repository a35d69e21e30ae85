//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/demosaic"
	"github.com/gogpu/demosaic/internal/cfa"
	"github.com/gogpu/demosaic/internal/interp"
	"github.com/gogpu/demosaic/internal/plane"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// supportedOps are the kernels with a compute shader.
const supportedOps = demosaic.AccelLinear | demosaic.AccelPPG | demosaic.AccelPassthrough

// fenceTimeout bounds the wait for one tile.
const fenceTimeout = 5 * time.Second

// ComputeAccelerator runs demosaic tiles with wgpu/hal compute shaders.
// It implements demosaic.TileAccelerator.
//
// Tiles are submitted one at a time; each RunTile call blocks until the
// tile is read back.
type ComputeAccelerator struct {
	// MaxMemoryMB bounds the device memory of one tile. Zero uses
	// DefaultMaxMemoryMB.
	MaxMemoryMB int

	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	modules    map[string]hal.ShaderModule
	pipelines  map[stage]hal.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
	adapterName    string
}

var (
	_ demosaic.TileAccelerator     = (*ComputeAccelerator)(nil)
	_ demosaic.MemoryBudgeter      = (*ComputeAccelerator)(nil)
	_ demosaic.DeviceProviderAware = (*ComputeAccelerator)(nil)
)

func (a *ComputeAccelerator) Name() string { return "gpu-compute" }

// CanAccelerate reports whether op has a shader and a device is ready.
func (a *ComputeAccelerator) CanAccelerate(op demosaic.AcceleratedOp) bool {
	return op&supportedOps != 0 && a.Ready()
}

// Ready reports whether a device and pipelines are available.
func (a *ComputeAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Adapter returns the name of the device in use, or "" before Init.
func (a *ComputeAccelerator) Adapter() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.adapterName
}

// MemoryBudget returns the per-tile budget in the engine's arena units.
func (a *ComputeAccelerator) MemoryBudget() int64 {
	return hostBudget(budgetBytes(a.MaxMemoryMB))
}

// SetLogger receives the logger propagated by demosaic.SetLogger.
func (a *ComputeAccelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens a device. A machine without a usable GPU is not an error:
// the accelerator stays registered and declines every tile.
func (a *ComputeAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		slogger().Warn("gpu: init failed, tiles run on CPU", "err", err)
	}
	return nil
}

func (a *ComputeAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
	a.adapterName = ""
}

// SetDeviceProvider switches the accelerator to a shared GPU device from
// an external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *ComputeAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.adapterName = "shared"

	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("gpu: switched to shared device")
	return nil
}

// program is a kernel resolved for one tile.
type program struct {
	stages []stage
	border int  // pixels the host fills before upload
	quad   bool // border keeps the two bayer greens apart
	params tileParams
}

// programFor maps req onto shader stages. It reports false when no shader
// covers the op and CFA.
func programFor(req demosaic.TileRequest) (program, bool) {
	src := req.Source
	pat := src.CFA
	if pat == nil || src.Width <= 0 || src.Height <= 0 {
		return program{}, false
	}
	n := pat.Period()
	p := tileParams{
		Width:   uint32(src.Width),  //nolint:gosec // positive
		Height:  uint32(src.Height), //nolint:gosec // positive
		OriginX: wrap(src.X0, n),
		OriginY: wrap(src.Y0, n),
		Period:  uint32(n), //nolint:gosec // period <= 6
	}
	switch req.Op {
	case demosaic.AccelLinear:
		p.Colors = uint32(pat.QuadColors()) //nolint:gosec // <= 4
		if pat.Kind() == cfa.Bayer {
			p.MergeGreens = 1
		}
		return program{stages: linearStages, border: 1, quad: true, params: p}, true
	case demosaic.AccelPPG:
		if pat.Kind() != cfa.Bayer {
			return program{}, false
		}
		p.Colors = 3
		return program{stages: ppgStages, border: interp.PPGBorder, params: p}, true
	case demosaic.AccelPassthrough:
		p.Colors = uint32(pat.Colors()) //nolint:gosec // <= 4
		return program{stages: passthroughStages, params: p}, true
	}
	return program{}, false
}

// RunTile reconstructs one tile on the device.
func (a *ComputeAccelerator) RunTile(req demosaic.TileRequest) error {
	prog, ok := programFor(req)
	if !ok {
		return demosaic.ErrFallbackToCPU
	}
	src := req.Source
	if need, budget := deviceBytes(src.Width, src.Height), budgetBytes(a.MaxMemoryMB); need > budget {
		return fmt.Errorf("%w: %dx%d tile needs %d bytes, budget %d",
			ErrMemoryBudgetExceeded, src.Width, src.Height, need, budget)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return demosaic.ErrFallbackToCPU
	}

	win := plane.Mosaic{Pix: src.Pix, Stride: src.Stride, X0: src.X0, Y0: src.Y0, Width: src.Width, Height: src.Height}
	dst := plane.WrapImage(req.Target.Pix, src.Width, src.Height)
	if prog.border > 0 {
		interp.FillBorder(dst, win, src.CFA, prog.border, prog.quad)
	}
	raw := packWindow(src.Pix, src.Stride, src.Width, src.Height)
	if err := a.dispatch(prog, raw, colorTable(src.CFA), dst.Pix); err != nil {
		return fmt.Errorf("gpu: tile at (%d,%d): %w", src.X0, src.Y0, err)
	}
	return nil
}

// dispatch uploads one tile, runs every stage of prog as its own compute
// pass and reads the image back into img.
func (a *ComputeAccelerator) dispatch(prog program, raw, table []byte, img []float32) error {
	w, h := prog.params.Width, prog.params.Height
	imgSize := uint64(len(img)) * 4

	paramsBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "demosaic_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create params buffer: %w", err)
	}
	defer a.device.DestroyBuffer(paramsBuf)

	rawBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "demosaic_raw", Size: uint64(len(raw)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create raw buffer: %w", err)
	}
	defer a.device.DestroyBuffer(rawBuf)

	tableBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "demosaic_cfa", Size: tableSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create cfa buffer: %w", err)
	}
	defer a.device.DestroyBuffer(tableBuf)

	imgBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "demosaic_image", Size: imgSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create image buffer: %w", err)
	}
	defer a.device.DestroyBuffer(imgBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "demosaic_staging", Size: imgSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(paramsBuf, 0, prog.params.bytes())
	a.queue.WriteBuffer(rawBuf, 0, raw)
	a.queue.WriteBuffer(tableBuf, 0, table)
	a.queue.WriteBuffer(imgBuf, 0, packFloats(img))

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "demosaic_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: rawBuf.NativeHandle(), Offset: 0, Size: uint64(len(raw))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: tableBuf.NativeHandle(), Offset: 0, Size: tableSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: imgBuf.NativeHandle(), Offset: 0, Size: imgSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "demosaic_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("demosaic_tile"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	// One pass per stage; passes are ordered, so a stage sees the writes
	// of the previous one.
	for _, st := range prog.stages {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: st.entryPoint})
		pass.SetPipeline(a.pipelines[st])
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((w+workgroupSize-1)/workgroupSize, (h+workgroupSize-1)/workgroupSize, 1)
		pass.End()
	}
	encoder.CopyBufferToBuffer(imgBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: imgSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, imgSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackFloats(readback, img)
	return nil
}

func (a *ComputeAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.gpuReady = true
	a.adapterName = selected.Info.Name
	slogger().Info("gpu: accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *ComputeAccelerator) createPipelines() error {
	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "demosaic_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "demosaic_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	a.modules = make(map[string]hal.ShaderModule)
	a.pipelines = make(map[stage]hal.ComputePipeline)
	for _, stages := range [][]stage{linearStages, ppgStages, passthroughStages} {
		for _, st := range stages {
			mod, ok := a.modules[st.module]
			if !ok {
				mod, err = a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
					Label:  "demosaic_" + st.entryPoint,
					Source: hal.ShaderSource{WGSL: st.module},
				})
				if err != nil {
					return fmt.Errorf("compile %s shader: %w", st.entryPoint, err)
				}
				a.modules[st.module] = mod
			}
			pipe, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
				Label: "demosaic_" + st.entryPoint, Layout: a.pipeLayout,
				Compute: hal.ComputeState{Module: mod, EntryPoint: st.entryPoint},
			})
			if err != nil {
				return fmt.Errorf("create %s pipeline: %w", st.entryPoint, err)
			}
			a.pipelines[st] = pipe
		}
	}
	return nil
}

func (a *ComputeAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	for _, p := range a.pipelines {
		a.device.DestroyComputePipeline(p)
	}
	for _, m := range a.modules {
		a.device.DestroyShaderModule(m)
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
	}
	a.pipelines = nil
	a.modules = nil
	a.pipeLayout = nil
	a.bindLayout = nil
}
