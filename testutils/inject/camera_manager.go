package inject

import (
	"context"

	"go.viam.com/tofviewer/components/camera/tof"
)

// CameraManager is an injected tof.CameraManager.
type CameraManager struct {
	tof.CameraManager
	CameraIDsFunc       func(ctx context.Context) ([]string, error)
	CharacteristicsFunc func(ctx context.Context, id string) (tof.Characteristics, error)
}

// CameraIDs calls the injected CameraIDs or the real version.
func (m *CameraManager) CameraIDs(ctx context.Context) ([]string, error) {
	if m.CameraIDsFunc == nil {
		return m.CameraManager.CameraIDs(ctx)
	}
	return m.CameraIDsFunc(ctx)
}

// Characteristics calls the injected Characteristics or the real version.
func (m *CameraManager) Characteristics(ctx context.Context, id string) (tof.Characteristics, error) {
	if m.CharacteristicsFunc == nil {
		return m.CameraManager.Characteristics(ctx, id)
	}
	return m.CharacteristicsFunc(ctx, id)
}

// DepthSource is an injected tof.DepthSource.
type DepthSource struct {
	tof.DepthSource
	StartFunc func(ctx context.Context, handler tof.FrameHandler) error
	CloseFunc func(ctx context.Context) error
}

// Start calls the injected Start or the real version.
func (s *DepthSource) Start(ctx context.Context, handler tof.FrameHandler) error {
	if s.StartFunc == nil {
		return s.DepthSource.Start(ctx, handler)
	}
	return s.StartFunc(ctx, handler)
}

// Close calls the injected Close or the real version.
func (s *DepthSource) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		return s.DepthSource.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
