package vulkan

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"

	vk "github.com/vulkan-go/vulkan"

	"vkcad/assets"
)

// Shaders is where compiled SPIR-V is read from: the files embedded in the
// binary unless replaced, e.g. with os.DirFS for shader development.
var Shaders fs.FS = assets.Shaders()

const (
	MeshVertShader = "mesh.vert.spv"
	MeshFragShader = "mesh.frag.spv"
	PickVertShader = "pick.vert.spv"
	PickFragShader = "pick.frag.spv"
	UIVertShader   = "ui.vert.spv"
	UIFragShader   = "ui.frag.spv"
)

const spirvMagic = 0x07230203

// readSPIRV loads a compiled shader and repacks it into words.
func readSPIRV(fsys fs.FS, name string) ([]uint32, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("shader %s not found; run go generate ./assets before building", name)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read shader file: %v", err)
	}
	return decodeSPIRV(name, data)
}

func decodeSPIRV(path string, data []byte) ([]uint32, error) {
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("shader %s: size %d is not a multiple of 4", path, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("shader %s: bad SPIR-V magic %#x", path, words[0])
	}
	return words, nil
}

// shaderPair is a loaded vertex and fragment module.
type shaderPair struct {
	vert, frag vk.ShaderModule
}

func (c *gpuContext) loadShaders(vertName, fragName string) (shaderPair, error) {
	var p shaderPair
	var err error
	if p.vert, err = c.shaderModule(vertName); err != nil {
		return p, err
	}
	if p.frag, err = c.shaderModule(fragName); err != nil {
		vk.DestroyShaderModule(c.device, p.vert, nil)
		return shaderPair{}, err
	}
	return p, nil
}

func (c *gpuContext) shaderModule(name string) (vk.ShaderModule, error) {
	code, err := readSPIRV(Shaders, name)
	if err != nil {
		return vk.NullShaderModule, err
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code) * 4),
		PCode:    code,
	}
	var module vk.ShaderModule
	if err := vkErr(vk.CreateShaderModule(c.device, &info, nil, &module), "create shader module "+name); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

func (c *gpuContext) destroyShaders(p shaderPair) {
	vk.DestroyShaderModule(c.device, p.vert, nil)
	vk.DestroyShaderModule(c.device, p.frag, nil)
}

func (p shaderPair) stages() []vk.PipelineShaderStageCreateInfo {
	return []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.vert,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.frag,
			PName:  "main\x00",
		},
	}
}
