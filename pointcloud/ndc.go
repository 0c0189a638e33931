// Package pointcloud projects decoded depth rasters into GPU-ready point clouds and hands them
// from the camera goroutine to the render thread.
package pointcloud

import (
	"unsafe"

	"go.viam.com/tofviewer/rimage"
)

const (
	// FloatsPerPoint is the number of floats per vertex and per color: x,y,z and r,g,b.
	FloatsPerPoint = 3
	// BytesPerPoint is the stride of one vertex or color triple.
	BytesPerPoint = FloatsPerPoint * 4
)

// Cloud is a flat point cloud: N (x_ndc, y_ndc, depth) vertices and N (c, c, c) colors. Only the
// first N triples are meaningful; the rest of each buffer is stale.
type Cloud struct {
	Vertices []float32
	Colors   []float32
	N        int
}

// NewCloud allocates a cloud able to hold capacity points.
func NewCloud(capacity int) *Cloud {
	return &Cloud{
		Vertices: make([]float32, capacity*FloatsPerPoint),
		Colors:   make([]float32, capacity*FloatsPerPoint),
	}
}

// Capacity returns the maximum number of points the cloud can hold.
func (c *Cloud) Capacity() int {
	return len(c.Vertices) / FloatsPerPoint
}

// VertexBytes returns the first N vertices in host byte order without copying.
func (c *Cloud) VertexBytes() []byte {
	return floatBytes(c.Vertices[:c.N*FloatsPerPoint])
}

// ColorBytes returns the first N colors in host byte order without copying.
func (c *Cloud) ColorBytes() []byte {
	return floatBytes(c.Colors[:c.N*FloatsPerPoint])
}

func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

// Build writes one point per pixel with positive range into dst, in row-major order, and returns
// the point count. A range of zero means no return. dst must have capacity for
// frame.Width*frame.Height points.
func Build(frame *rimage.DecodedFrame, dst *Cloud) int {
	w, h := frame.Width, frame.Height
	fw, fh := float32(w), float32(h)
	n := 0
	idx := 0
	for y := 0; y < h; y++ {
		yNDC := -2*(float32(y)+0.5)/fh + 1
		for x := 0; x < w; x++ {
			d := frame.Range[idx]
			if d > 0 {
				c := frame.Confidence[idx] * (d + 1)
				o := n * FloatsPerPoint
				dst.Vertices[o] = 2*(float32(x)+0.5)/fw - 1
				dst.Vertices[o+1] = yNDC
				dst.Vertices[o+2] = d
				dst.Colors[o] = c
				dst.Colors[o+1] = c
				dst.Colors[o+2] = c
				n++
			}
			idx++
		}
	}
	dst.N = n
	return n
}
