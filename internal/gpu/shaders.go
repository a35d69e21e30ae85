//go:build !nogpu

package gpu

import (
	_ "embed"
)

// Embedded WGSL shader sources.

//go:embed shaders/linear.wgsl
var linearShaderSource string

//go:embed shaders/ppg.wgsl
var ppgShaderSource string

//go:embed shaders/passthrough.wgsl
var passthroughShaderSource string

// stage is one compute dispatch of a kernel.
type stage struct {
	module     string // shader source
	entryPoint string
}

// Kernel stages in dispatch order.
var (
	linearStages      = []stage{{linearShaderSource, "main"}}
	ppgStages         = []stage{{ppgShaderSource, "green_pass"}, {ppgShaderSource, "chroma_pass"}}
	passthroughStages = []stage{{passthroughShaderSource, "main"}}
)

// workgroupSize matches @workgroup_size in every shader.
const workgroupSize = 8
