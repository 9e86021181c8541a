//go:build !nogpu

package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources, compiled to SPIR-V at device init.

//go:embed shaders/dab.wgsl
var dabShaderSource string

//go:embed shaders/composite.wgsl
var compositeShaderSource string

// ShaderModules holds the compiled shader code for the painting
// pipelines. Pipeline and bind group creation happens lazily when the
// wgpu compute path submits its first stroke.
type ShaderModules struct {
	// Dab is the per-dab stamping compute shader.
	Dab []uint32

	// Composite is the end-of-stroke commit compute shader.
	Composite []uint32
}

// IsValid reports whether all shader modules compiled.
func (s *ShaderModules) IsValid() bool {
	return len(s.Dab) > 0 && len(s.Composite) > 0
}

// CompileShaders compiles the embedded WGSL sources to SPIR-V.
func CompileShaders() (*ShaderModules, error) {
	if dabShaderSource == "" || compositeShaderSource == "" {
		return nil, errors.New("gpu: embedded shader source is empty")
	}

	dab, err := compileToSPIRV(dabShaderSource)
	if err != nil {
		return nil, fmt.Errorf("dab shader: %w", err)
	}
	composite, err := compileToSPIRV(compositeShaderSource)
	if err != nil {
		return nil, fmt.Errorf("composite shader: %w", err)
	}
	return &ShaderModules{Dab: dab, Composite: composite}, nil
}

// compileToSPIRV compiles WGSL source to a SPIR-V word slice.
// SPIR-V is little-endian 32-bit words.
func compileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
