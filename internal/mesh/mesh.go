// Package mesh decodes binary triangle-mesh (STL) buffers and derives the
// geometric quantities the print estimator needs.
package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is the decoded form of a binary triangle-mesh file. It is built once
// per upload and must not be mutated afterwards.
type Mesh struct {
	// Header holds the 80 header bytes trimmed of trailing NULs and spaces.
	Header string

	// Vertices holds three points per triangle, in file order.
	Vertices []r3.Vec

	// Normals holds one normal per triangle as stored in the file. Only a
	// zero or non-finite stored normal is replaced by the facet normal.
	Normals []r3.Vec

	BoundingBox   r3.Box
	Volume        float64
	SurfaceArea   float64
	TriangleCount int
}

// Dimensions returns the extent of the bounding box on each axis.
func (m *Mesh) Dimensions() r3.Vec {
	return r3.Sub(m.BoundingBox.Max, m.BoundingBox.Min)
}

// Triangle returns the stored normal and the three vertices of triangle i.
func (m *Mesh) Triangle(i int) (normal, v1, v2, v3 r3.Vec) {
	return m.Normals[i], m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]
}

// Point is a JSON-friendly 3D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func pointOf(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// Box is a JSON-friendly axis-aligned bounding box.
type Box struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Summary is the geometry report returned to API and CLI callers. It leaves
// out the vertex and normal arrays.
type Summary struct {
	TriangleCount int     `json:"triangleCount"`
	BoundingBox   Box     `json:"boundingBox"`
	Dimensions    Point   `json:"dimensions"`
	Volume        float64 `json:"volume"`
	SurfaceArea   float64 `json:"surfaceArea"`
}

// Summary reports the derived geometry of m.
func (m *Mesh) Summary() Summary {
	return Summary{
		TriangleCount: m.TriangleCount,
		BoundingBox: Box{
			Min: pointOf(m.BoundingBox.Min),
			Max: pointOf(m.BoundingBox.Max),
		},
		Dimensions:  pointOf(m.Dimensions()),
		Volume:      m.Volume,
		SurfaceArea: m.SurfaceArea,
	}
}
