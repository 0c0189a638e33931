package fake

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/tofviewer/components/camera/tof"
)

// CameraID is the id the fake manager reports for its depth camera.
const CameraID = "fake-tof"

// CameraManager reports a front color camera and a rear depth camera.
type CameraManager struct{}

var _ tof.CameraManager = CameraManager{}

// CameraIDs lists the fake cameras.
func (CameraManager) CameraIDs(ctx context.Context) ([]string, error) {
	return []string{"fake-front", CameraID}, nil
}

// Characteristics describes a fake camera.
func (CameraManager) Characteristics(ctx context.Context, id string) (tof.Characteristics, error) {
	switch id {
	case "fake-front":
		return tof.Characteristics{
			Facing:       tof.LensFacingFront,
			Capabilities: []tof.Capability{tof.CapabilityBackwardCompatible},
		}, nil
	case CameraID:
		return tof.Characteristics{
			Facing:       tof.LensFacingBack,
			Capabilities: []tof.Capability{tof.CapabilityDepthOutput},
		}, nil
	default:
		return tof.Characteristics{}, errors.Errorf("unknown camera %q", id)
	}
}
