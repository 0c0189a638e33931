package tof_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/tofviewer/components/camera/tof"
	"go.viam.com/tofviewer/testutils/inject"
)

func newManager(chars map[string]tof.Characteristics, order ...string) *inject.CameraManager {
	return &inject.CameraManager{
		CameraIDsFunc: func(ctx context.Context) ([]string, error) {
			return order, nil
		},
		CharacteristicsFunc: func(ctx context.Context, id string) (tof.Characteristics, error) {
			c, ok := chars[id]
			if !ok {
				return tof.Characteristics{}, errors.Errorf("unknown camera %q", id)
			}
			return c, nil
		},
	}
}

var (
	front     = tof.Characteristics{Facing: tof.LensFacingFront, Capabilities: []tof.Capability{tof.CapabilityDepthOutput}}
	rearColor = tof.Characteristics{Facing: tof.LensFacingBack, Capabilities: []tof.Capability{tof.CapabilityBackwardCompatible}}
	rearDepth = tof.Characteristics{Facing: tof.LensFacingBack, Capabilities: []tof.Capability{tof.CapabilityDepthOutput}}
)

func TestSelectDepthCamera(t *testing.T) {
	ctx := context.Background()

	t.Run("prefers rear depth", func(t *testing.T) {
		m := newManager(map[string]tof.Characteristics{"0": rearColor, "1": front, "4": rearDepth}, "0", "1", "4")
		id, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, "4")
	})

	t.Run("last rear depth wins", func(t *testing.T) {
		m := newManager(map[string]tof.Characteristics{"0": rearColor, "2": rearDepth, "4": rearDepth}, "0", "2", "4")
		id, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, "4")
	})

	t.Run("falls back to first rear", func(t *testing.T) {
		m := newManager(map[string]tof.Characteristics{"1": front, "2": rearColor, "3": rearColor}, "1", "2", "3")
		id, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, "2")
	})

	t.Run("skips unreadable cameras", func(t *testing.T) {
		m := newManager(map[string]tof.Characteristics{"5": rearDepth}, "missing", "5")
		id, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, "5")
	})

	t.Run("front only", func(t *testing.T) {
		m := newManager(map[string]tof.Characteristics{"1": front}, "1")
		_, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, errors.Is(err, tof.ErrCameraUnavailable), test.ShouldBeTrue)
	})

	t.Run("enumeration fails", func(t *testing.T) {
		m := &inject.CameraManager{
			CameraIDsFunc: func(ctx context.Context) ([]string, error) {
				return nil, errors.New("camera service down")
			},
		}
		_, err := tof.SelectDepthCamera(ctx, m)
		test.That(t, errors.Is(err, tof.ErrCameraUnavailable), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "camera service down")
	})
}
