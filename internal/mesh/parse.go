package mesh

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	headerSize   = 80
	preambleSize = headerSize + 4
	recordSize   = 50

	// ctx is polled once per this many triangles.
	checkInterval = 4096
)

// MalformedFileError reports a buffer that does not hold a complete binary
// mesh: a short preamble, a triangle count that overruns the buffer, or a
// non-finite vertex coordinate.
type MalformedFileError struct {
	Size   int
	Reason string
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("malformed mesh file (%d bytes): %s", e.Size, e.Reason)
}

// ErrTriangleBudget is returned when the declared triangle count exceeds
// Limits.MaxTriangles.
var ErrTriangleBudget = errors.New("mesh exceeds triangle budget")

// Limits bounds the work a single parse may do. Zero values mean unlimited.
type Limits struct {
	MaxTriangles int
}

// Parse decodes a binary STL buffer without a processing budget.
func Parse(data []byte) (*Mesh, error) {
	return ParseContext(context.Background(), data, Limits{})
}

// ParseContext decodes a binary STL buffer in a single pass, accumulating the
// bounding box, the signed tetrahedron volume and the surface area.
//
// The volume is only meaningful for a closed, consistently wound mesh. That
// is assumed, not checked.
func ParseContext(ctx context.Context, data []byte, limits Limits) (*Mesh, error) {
	if len(data) < preambleSize {
		return nil, &MalformedFileError{
			Size:   len(data),
			Reason: fmt.Sprintf("shorter than the %d-byte header and triangle count", preambleSize),
		}
	}

	declared := binary.LittleEndian.Uint32(data[headerSize:preambleSize])
	need := uint64(preambleSize) + uint64(declared)*recordSize
	if uint64(len(data)) < need {
		return nil, &MalformedFileError{
			Size:   len(data),
			Reason: fmt.Sprintf("header declares %d triangles which need %d bytes", declared, need),
		}
	}
	if limits.MaxTriangles > 0 && uint64(declared) > uint64(limits.MaxTriangles) {
		return nil, fmt.Errorf("%d triangles declared, limit is %d: %w", declared, limits.MaxTriangles, ErrTriangleBudget)
	}

	count := int(declared)
	m := &Mesh{
		Header:        strings.TrimRight(string(data[:headerSize]), "\x00 "),
		Vertices:      make([]r3.Vec, 0, 3*count),
		Normals:       make([]r3.Vec, 0, count),
		TriangleCount: count,
	}

	bb := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	var (
		signedVolume float64
		area         float64
		rec          record
	)
	for i := 0; i < count; i++ {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		off := preambleSize + i*recordSize
		rec.get(data[off : off+recordSize])
		if bad3F32(rec.Vertex1) || bad3F32(rec.Vertex2) || bad3F32(rec.Vertex3) {
			return nil, &MalformedFileError{
				Size:   len(data),
				Reason: fmt.Sprintf("triangle %d has a non-finite vertex coordinate", i),
			}
		}

		v1, v2, v3 := widen(rec.Vertex1), widen(rec.Vertex2), widen(rec.Vertex3)
		c := r3.Cross(r3.Sub(v2, v1), r3.Sub(v3, v1))

		m.Normals = append(m.Normals, rec.normal(c))
		m.Vertices = append(m.Vertices, v1, v2, v3)

		for _, v := range [3]r3.Vec{v1, v2, v3} {
			bb.Min = minElem(bb.Min, v)
			bb.Max = maxElem(bb.Max, v)
		}

		signedVolume += r3.Dot(v1, c) / 6
		area += r3.Norm(c) / 2
	}
	if count == 0 {
		bb = r3.Box{}
	}

	m.BoundingBox = bb
	m.Volume = math.Abs(signedVolume)
	m.SurfaceArea = area
	return m, nil
}

// record is one 50-byte triangle record.
type record struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	// the trailing attribute byte count is ignored
}

func (r *record) get(b []byte) {
	_ = b[recordSize-1] // early bounds check
	get3F32(b, &r.Normal)
	get3F32(b[12:], &r.Vertex1)
	get3F32(b[24:], &r.Vertex2)
	get3F32(b[36:], &r.Vertex3)
}

// normal returns the stored normal, or the unit facet normal derived from
// cross when the stored one is zero or non-finite.
func (r *record) normal(cross r3.Vec) r3.Vec {
	n := r.Normal
	if !bad3F32(n) && (n[0] != 0 || n[1] != 0 || n[2] != 0) {
		return widen(n)
	}
	l := r3.Norm(cross)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, cross)
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func widen(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

func minElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
