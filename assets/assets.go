// Package assets embeds the shader sources and their compiled SPIR-V.
package assets

//go:generate sh -c "cd shaders && for s in *.vert *.frag; do glslangValidator -V $s -o $s.spv; done"

import (
	"embed"
	"io/fs"
)

//go:embed shaders
var files embed.FS

// Shaders returns the shader directory. The .spv files are present once
// go generate has run before the build.
func Shaders() fs.FS {
	sub, err := fs.Sub(files, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}
