package space

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/config"
)

// VertexToTool maps engine (x, y, z) to tool (-x, -z, y). Normals use the same mapping.
func VertexToTool(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-v[0], -v[2], v[1]}
}

func VertexToEngine(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-v[0], v[2], -v[1]}
}

// UVToTool flips v for formats that store it upside down. The mapping is its own inverse.
func UVToTool(uv mgl64.Vec2, format config.FileFormat) mgl64.Vec2 {
	if format.FlipsUV() {
		return mgl64.Vec2{uv[0], 1 - uv[1]}
	}
	return uv
}

func UVToEngine(uv mgl64.Vec2, format config.FileFormat) mgl64.Vec2 {
	return UVToTool(uv, format)
}
