package render

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// Rotation is the display rotation relative to the device's natural orientation.
type Rotation int

// The four display rotations.
const (
	Rotation0 Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

// RotationFromDegrees maps 0, 90, 180 or 270 (mod 360) to a Rotation.
func RotationFromDegrees(degrees int) (Rotation, error) {
	normalized := ((degrees % 360) + 360) % 360
	if normalized%90 != 0 {
		return Rotation0, errors.Errorf("rotation must be a multiple of 90 degrees, got %d", degrees)
	}
	return Rotation(normalized / 90), nil
}

// Degrees returns the display rotation in degrees.
func (r Rotation) Degrees() int {
	return int(r) * 90
}

// UniformDegrees returns the in-plane rotation the vertex shader applies to NDC so the cloud stays
// upright: the opposite of the display rotation, except that 180 stays 180.
func (r Rotation) UniformDegrees() float32 {
	switch r {
	case Rotation90:
		return -90
	case Rotation180:
		return 180
	case Rotation270:
		return 90
	default:
		return 0
	}
}

func (r Rotation) String() string {
	return fmt.Sprintf("ROT_%d", r.Degrees())
}

// ComputeViewport returns the rectangle, in surface pixels, that letterboxes a depth image of size
// depth inside surface, scaled by zoom. The rectangle is centered and, for zoom in (0, 1], always
// lies within the surface.
func ComputeViewport(surface, depth image.Point, zoom float32) image.Rectangle {
	if surface.X <= 0 || surface.Y <= 0 || depth.X <= 0 || depth.Y <= 0 || zoom <= 0 {
		return image.Rectangle{}
	}
	sx, sy := float64(surface.X), float64(surface.Y)
	z := float64(zoom)

	var width, height float64
	if surface.X > surface.Y {
		aspect := sy / sx * float64(depth.X) / float64(depth.Y)
		width, height = sx*aspect*z, sy*z
	} else {
		aspect := sx / sy * float64(depth.X) / float64(depth.Y)
		width, height = sx*z, sy*aspect*z
	}

	// A surface whose own aspect is closer to square than the depth image's would overflow on the
	// long side; shrink both sides to fit instead.
	if width > sx {
		height *= sx / width
		width = sx
	}
	if height > sy {
		width *= sy / height
		height = sy
	}

	w, h := int(width), int(height)
	origin := image.Pt((surface.X-w)/2, (surface.Y-h)/2)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}

// PointSize returns the rasterized point size so neighbouring depth pixels touch when zoomed.
func PointSize(surface, depth image.Point, zoom float32) float32 {
	if depth.X <= 0 || depth.Y <= 0 {
		return 1
	}
	x := zoom * float32(surface.X) / float32(depth.X)
	y := zoom * float32(surface.Y) / float32(depth.Y)
	return max(x, y)
}
