//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (b *Backend) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if pipeline, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return pipeline
	}
	b.mu.RUnlock()

	pipeline := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = pipeline
	b.mu.Unlock()

	return pipeline
}

// createBuffer creates a GPU storage buffer and uploads initial data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (b *Backend) readBuffer(srcBuffer *wgpu.Buffer, size uint64) ([]byte, error) {
	stagingBuffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	err := stagingBuffer.MapAsync(b.device, wgpu.MapModeRead, 0, size)
	if err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)

	stagingBuffer.Unmap()

	return result, nil
}

// dispatch binds the input buffers plus a fresh result buffer and uniform
// params, runs the pipeline over the given 1D workgroup count, and returns
// the result bytes.
func (b *Backend) dispatch(
	shaderName, shaderCode string,
	inputs [][]byte,
	params []byte,
	resultSize uint64,
	workgroups uint32,
) ([]byte, error) {
	shader := b.compileShader(shaderName, shaderCode)
	pipeline := b.getOrCreatePipeline(shaderName, shader)

	entries := make([]wgpu.BindGroupEntry, 0, len(inputs)+2)
	binding := uint32(0)

	inputBuffers := make([]*wgpu.Buffer, 0, len(inputs))
	for _, data := range inputs {
		buf := b.createBuffer(data, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		inputBuffers = append(inputBuffers, buf)
		entries = append(entries, wgpu.BufferBindingEntry(binding, buf, 0, uint64(len(data))))
		binding++
	}
	defer func() {
		for _, buf := range inputBuffers {
			buf.Release()
		}
	}()

	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()
	entries = append(entries, wgpu.BufferBindingEntry(binding, bufferResult, 0, resultSize))
	binding++

	alignedParams := uint64(len(params)+15) &^ 15
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()
	entries = append(entries, wgpu.BufferBindingEntry(binding, bufferParams, 0, alignedParams))

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)
	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	return b.readBuffer(bufferResult, resultSize)
}

// runBinaryOp executes a binary element-wise operation (add, sub, mul, div)
// on GPU. Operands must share a shape; broadcast forms fall back to padded
// host-side expansion by the caller.
func (b *Backend) runBinaryOp(a, other *tensor.RawTensor, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", a.DType())
	}
	if !a.Shape().Equal(other.Shape()) {
		return nil, fmt.Errorf("webgpu: shape mismatch: %v vs %v", a.Shape(), other.Shape())
	}

	numElements := a.NumElements()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch(shaderName, shaderCode,
		[][]byte{a.Data(), other.Data()}, params, uint64(a.ByteSize()), workgroups)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runScalarOp executes an element-wise operation against a scalar constant.
func (b *Backend) runScalarOp(x *tensor.RawTensor, scalar float32, shaderName, shaderCode string) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	numElements := x.NumElements()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(numElements))
	binary.LittleEndian.PutUint32(params[4:8], math.Float32bits(scalar))

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch(shaderName, shaderCode,
		[][]byte{x.Data()}, params, uint64(x.ByteSize()), workgroups)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runConv2D executes grouped 2D cross-correlation on GPU, one thread per
// output element.
func (b *Backend) runConv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", input.DType())
	}

	inShape := input.Shape()
	kShape := kernel.Shape()
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	COut, KH, KW := kShape[0], kShape[2], kShape[3]

	hOut := (H+2*padding-KH)/stride + 1
	wOut := (W+2*padding-KW)/stride + 1
	outShape := tensor.Shape{N, COut, hOut, wOut}
	numElements := outShape.NumElements()

	params := make([]byte, 48)
	for i, v := range []int{N, C, H, W, COut, KH, KW, hOut, wOut, stride, padding, groups} {
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch("conv2d", conv2dShader,
		[][]byte{input.Data(), kernel.Data()}, params,
		uint64(numElements*tensor.Float32.Size()), workgroups)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runPadReflect pads the spatial dimensions of a [N, C, H, W] tensor with
// reflect-mode extension. Forward padding requires pad < H and pad < W, so a
// single mirror per side is enough.
func (b *Backend) runPadReflect(x *tensor.RawTensor, pad int) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	shape := x.Shape()
	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	outShape := tensor.Shape{N, C, H + 2*pad, W + 2*pad}
	numElements := outShape.NumElements()

	params := make([]byte, 16)
	for i, v := range []int{N * C, H, W, pad} {
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch("pad_reflect", padReflectShader,
		[][]byte{x.Data()}, params,
		uint64(numElements*tensor.Float32.Size()), workgroups)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runRoll circularly shifts a tensor of up to 4 dimensions. offset holds the
// normalized per-dimension shift, already reduced into [0, size).
func (b *Backend) runRoll(x *tensor.RawTensor, offset []int) (*tensor.RawTensor, error) {
	if x.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	shape := x.Shape()
	if len(shape) > 4 {
		return nil, fmt.Errorf("webgpu: roll supports up to 4 dimensions, got %d", len(shape))
	}

	// Left-pad shape and offsets to 4D; size-1 dimensions roll trivially.
	shape4 := [4]int{1, 1, 1, 1}
	offset4 := [4]int{}
	skip := 4 - len(shape)
	for i, s := range shape {
		shape4[skip+i] = s
		offset4[skip+i] = offset[i]
	}

	numElements := x.NumElements()

	params := make([]byte, 48)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(shape4[i]))
		binary.LittleEndian.PutUint32(params[16+i*4:16+i*4+4], uint32(offset4[i]))
	}
	binary.LittleEndian.PutUint32(params[32:36], uint32(numElements))

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch("roll", rollShader,
		[][]byte{x.Data()}, params, uint64(x.ByteSize()), workgroups)
	if err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(result.Data(), resultData)
	return result, nil
}

// runClampChannels clamps each channel plane of a [N, C, H, W] tensor into
// its per-channel bounds and writes the result back into x's buffer,
// preserving the in-place contract of the CPU backend.
func (b *Backend) runClampChannels(x *tensor.RawTensor, lo, hi []float32) error {
	if x.DType() != tensor.Float32 {
		return fmt.Errorf("webgpu: only float32 is supported, got %s", x.DType())
	}

	shape := x.Shape()
	C := shape[1]
	plane := shape[2] * shape[3]
	numElements := x.NumElements()

	loBytes := make([]byte, len(lo)*4)
	hiBytes := make([]byte, len(hi)*4)
	for i := range lo {
		binary.LittleEndian.PutUint32(loBytes[i*4:i*4+4], math.Float32bits(lo[i]))
		binary.LittleEndian.PutUint32(hiBytes[i*4:i*4+4], math.Float32bits(hi[i]))
	}

	params := make([]byte, 16)
	for i, v := range []int{numElements, C, plane} {
		binary.LittleEndian.PutUint32(params[i*4:i*4+4], uint32(v))
	}

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	resultData, err := b.dispatch("clamp_channels", clampChannelsShader,
		[][]byte{x.Data(), loBytes, hiBytes}, params, uint64(x.ByteSize()), workgroups)
	if err != nil {
		return err
	}

	copy(x.Data(), resultData)
	return nil
}
