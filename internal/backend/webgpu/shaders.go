//go:build windows

// Package webgpu provides embedded WGSL compute shaders for tensor operations.
package webgpu

// WGSL compute shaders for tensor operations.
// Using string constants instead of embed for simplicity.

// workgroupSize is the default number of threads per workgroup.
const workgroupSize = 256

// addShader performs element-wise addition: result = a + b.
const addShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] + b[idx];
    }
}
`

// subShader performs element-wise subtraction: result = a - b.
const subShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] - b[idx];
    }
}
`

// mulShader performs element-wise multiplication: result = a * b.
const mulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] * b[idx];
    }
}
`

// divShader performs element-wise division: result = a / b.
const divShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] / b[idx];
    }
}
`

// addScalarShader adds a scalar constant: result = x + s.
const addScalarShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = x[idx] + params.scalar;
    }
}
`

// subScalarShader subtracts a scalar constant: result = x - s.
const subScalarShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = x[idx] - params.scalar;
    }
}
`

// mulScalarShader multiplies by a scalar constant: result = x * s.
const mulScalarShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = x[idx] * params.scalar;
    }
}
`

// divScalarShader divides by a scalar constant: result = x / s.
const divScalarShader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = x[idx] / params.scalar;
    }
}
`

// conv2dShader performs grouped 2D cross-correlation, one thread per output
// element. Out-of-range taps read as zero (zero padding).
const conv2dShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> kernel: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    n: u32,
    c: u32,
    h: u32,
    w: u32,
    c_out: u32,
    kh: u32,
    kw: u32,
    h_out: u32,
    w_out: u32,
    stride: u32,
    padding: u32,
    groups: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let total = params.n * params.c_out * params.h_out * params.w_out;
    if (idx >= total) {
        return;
    }

    let ow = idx % params.w_out;
    let oh = (idx / params.w_out) % params.h_out;
    let co = (idx / (params.w_out * params.h_out)) % params.c_out;
    let n = idx / (params.w_out * params.h_out * params.c_out);

    let c_per_group = params.c / params.groups;
    let co_per_group = params.c_out / params.groups;
    let g = co / co_per_group;
    let c_start = g * c_per_group;

    var sum: f32 = 0.0;
    for (var ci: u32 = 0u; ci < c_per_group; ci = ci + 1u) {
        for (var kh: u32 = 0u; kh < params.kh; kh = kh + 1u) {
            let ih = i32(oh * params.stride + kh) - i32(params.padding);
            if (ih < 0 || ih >= i32(params.h)) {
                continue;
            }
            for (var kw: u32 = 0u; kw < params.kw; kw = kw + 1u) {
                let iw = i32(ow * params.stride + kw) - i32(params.padding);
                if (iw < 0 || iw >= i32(params.w)) {
                    continue;
                }
                let in_idx = ((n * params.c + c_start + ci) * params.h + u32(ih)) * params.w + u32(iw);
                let k_idx = ((co * c_per_group + ci) * params.kh + kh) * params.kw + kw;
                sum = sum + input[in_idx] * kernel[k_idx];
            }
        }
    }

    result[idx] = sum;
}
`

// padReflectShader pads the two spatial dimensions with reflect-mode
// extension (edge pixel not repeated). pad < h and pad < w, so one mirror
// per side suffices.
const padReflectShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    planes: u32,
    h: u32,
    w: u32,
    pad: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

fn reflect(i: i32, n: i32) -> u32 {
    var r = i;
    if (r < 0) {
        r = -r;
    }
    if (r >= n) {
        r = 2 * (n - 1) - r;
    }
    return u32(r);
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    let hp = params.h + 2u * params.pad;
    let wp = params.w + 2u * params.pad;
    let total = params.planes * hp * wp;
    if (idx >= total) {
        return;
    }

    let ow = idx % wp;
    let oh = (idx / wp) % hp;
    let plane = idx / (wp * hp);

    let ih = reflect(i32(oh) - i32(params.pad), i32(params.h));
    let iw = reflect(i32(ow) - i32(params.pad), i32(params.w));

    result[idx] = input[(plane * params.h + ih) * params.w + iw];
}
`

// rollShader circularly shifts a 4D tensor by a per-dimension offset already
// normalized into [0, size).
const rollShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    shape: vec4<u32>,
    offset: vec4<u32>,
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.size) {
        return;
    }

    let s = params.shape;
    let d3 = idx % s.w;
    let d2 = (idx / s.w) % s.z;
    let d1 = (idx / (s.w * s.z)) % s.y;
    let d0 = idx / (s.w * s.z * s.y);

    let r0 = (d0 + params.offset.x) % s.x;
    let r1 = (d1 + params.offset.y) % s.y;
    let r2 = (d2 + params.offset.z) % s.z;
    let r3 = (d3 + params.offset.w) % s.w;

    let dst = ((r0 * s.y + r1) * s.z + r2) * s.w + r3;
    result[dst] = input[idx];
}
`

// clampChannelsShader clamps each channel plane into its per-channel bounds.
const clampChannelsShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read> lo: array<f32>;
@group(0) @binding(2) var<storage, read> hi: array<f32>;
@group(0) @binding(3) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    channels: u32,
    plane: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let c = (idx / params.plane) % params.channels;
        result[idx] = clamp(input[idx], lo[c], hi[c]);
    }
}
`
