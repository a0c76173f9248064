// Package meshtest builds binary STL fixtures for tests.
package meshtest

import (
	"bytes"

	"github.com/hschendel/stl"
)

// Vec is a fixture coordinate.
type Vec [3]float32

// quads lists the six faces of the unit cube, each wound counter-clockwise
// when seen from outside so that facet normals point outwards.
var quads = [6][4]Vec{
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, // -z
	{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // +z
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}, // -x
	{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}, // +x
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // -y
	{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}, // +y
}

var faceNormals = [6]Vec{
	{0, 0, -1}, {0, 0, 1}, {-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0},
}

// BoxSolid returns the 12-triangle solid of the axis-aligned box [lo, hi].
func BoxSolid(lo, hi Vec) *stl.Solid {
	solid := &stl.Solid{Name: "box"}
	for f, q := range quads {
		var corners [4]stl.Vec3
		for i, c := range q {
			for axis := 0; axis < 3; axis++ {
				corners[i][axis] = lo[axis] + c[axis]*(hi[axis]-lo[axis])
			}
		}
		n := stl.Vec3(faceNormals[f])
		solid.Triangles = append(solid.Triangles,
			stl.Triangle{Normal: n, Vertices: [3]stl.Vec3{corners[0], corners[1], corners[2]}},
			stl.Triangle{Normal: n, Vertices: [3]stl.Vec3{corners[0], corners[2], corners[3]}},
		)
	}
	return solid
}

// Encode writes solid in the binary STL format.
func Encode(solid *stl.Solid) []byte {
	var buf bytes.Buffer
	solid.IsAscii = false
	if err := solid.WriteAll(&buf); err != nil {
		panic("meshtest: encode solid: " + err.Error())
	}
	return buf.Bytes()
}

// Box returns a binary STL of the axis-aligned box [lo, hi].
func Box(lo, hi Vec) []byte {
	return Encode(BoxSolid(lo, hi))
}

// UnitCube returns a binary STL of the cube [0,1]³.
func UnitCube() []byte {
	return Box(Vec{0, 0, 0}, Vec{1, 1, 1})
}
