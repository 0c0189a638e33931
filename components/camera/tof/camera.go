// Package tof describes the handset's time-of-flight depth camera: which camera to open, the depth
// resolution it delivers, and the interface frames arrive through.
package tof

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/tofviewer/rimage"
)

// ErrCameraUnavailable is returned when no rear-facing camera can be found.
var ErrCameraUnavailable = errors.New("no rear-facing camera available")

// LensFacing is the direction a camera faces.
type LensFacing int

// Lens directions.
const (
	LensFacingUnknown LensFacing = iota
	LensFacingFront
	LensFacingBack
	LensFacingExternal
)

// Capability is a capability a camera advertises.
type Capability int

// Capabilities relevant to depth viewing.
const (
	CapabilityBackwardCompatible Capability = iota
	CapabilityDepthOutput
)

// Characteristics are the static properties of one camera.
type Characteristics struct {
	Facing       LensFacing
	Capabilities []Capability
}

// A CameraManager enumerates the cameras on the device.
type CameraManager interface {
	CameraIDs(ctx context.Context) ([]string, error)
	Characteristics(ctx context.Context, id string) (Characteristics, error)
}

// SelectDepthCamera returns the last enumerated rear-facing camera advertising depth output, or the
// first rear-facing camera if none does. Cameras whose characteristics cannot be read are skipped.
func SelectDepthCamera(ctx context.Context, manager CameraManager) (string, error) {
	ids, err := manager.CameraIDs(ctx)
	if err != nil {
		return "", errors.Wrap(ErrCameraUnavailable, err.Error())
	}

	type candidate struct {
		id    string
		depth bool
	}
	var rear []candidate
	for _, id := range ids {
		chars, err := manager.Characteristics(ctx, id)
		if err != nil || chars.Facing != LensFacingBack {
			continue
		}
		rear = append(rear, candidate{id: id, depth: lo.Contains(chars.Capabilities, CapabilityDepthOutput)})
	}

	if depth, _, ok := lo.FindLastIndexOf(rear, func(c candidate) bool { return c.depth }); ok {
		return depth.id, nil
	}
	if len(rear) > 0 {
		return rear[0].id, nil
	}
	return "", ErrCameraUnavailable
}

// FrameHandler receives one borrowed frame. The frame's samples must not be retained after it
// returns.
type FrameHandler func(ctx context.Context, frame rimage.RawDepthFrame)

// DepthSource delivers DEPTH16 frames from its own goroutine.
type DepthSource interface {
	// Start begins delivering frames to handler until Close.
	Start(ctx context.Context, handler FrameHandler) error
	// Close stops delivery. No handler call is in flight once it returns.
	Close(ctx context.Context) error
}
