package viewer

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/mobile/event/size"

	"go.viam.com/tofviewer/components/camera/tof"
	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/pointcloud"
	"go.viam.com/tofviewer/render"
	"go.viam.com/tofviewer/utils"
)

// DefaultZoom leaves a small margin around the letterboxed cloud.
const DefaultZoom = 0.95

// FollowSurface means the rotation is taken from the surface instead of being pinned.
const FollowSurface = -1

// Options tune a Viewer.
type Options struct {
	// Zoom scales the letterboxed rectangle, in (0, 1]. Zero means DefaultZoom.
	Zoom float32
	// StatsInterval is how often frame stats are logged. Zero disables reporting.
	StatsInterval time.Duration
	// Clock drives the stats reporter. Nil means the wall clock.
	Clock clock.Clock
}

// Surface is what the windowing system reports about the drawable.
type Surface struct {
	Size     image.Point
	Rotation render.Rotation
}

// SurfaceFromSize converts a size event. A rotationOverride of FollowSurface derives the rotation
// from the event's orientation: landscape is treated as a 90 degree rotation of a portrait device.
func SurfaceFromSize(e size.Event, rotationOverride int) (Surface, error) {
	surface := Surface{Size: image.Pt(e.WidthPx, e.HeightPx)}
	if rotationOverride != FollowSurface {
		rotation, err := render.RotationFromDegrees(rotationOverride)
		if err != nil {
			return surface, err
		}
		surface.Rotation = rotation
		return surface, nil
	}
	if e.Orientation == size.OrientationLandscape {
		surface.Rotation = render.Rotation90
	}
	return surface, nil
}

// Viewer owns the frame buffers shared by the producer pipeline and the renderer. Start and Stop
// may be called from any goroutine; the context and paint methods belong to the render thread.
type Viewer struct {
	profile  tof.DeviceProfile
	source   tof.DepthSource
	buffers  *pointcloud.FrameBuffers
	pipeline *Pipeline
	renderer *render.Renderer
	stats    *Stats
	opts     Options
	zoom     atomic.Float32
	logger   logging.Logger

	mu      sync.Mutex
	running bool
	workers utils.StoppableWorkers
}

// NewViewer returns a stopped viewer for profile reading frames from source.
func NewViewer(
	profile tof.DeviceProfile,
	source tof.DepthSource,
	assets render.AssetOpener,
	opts Options,
	logger logging.Logger,
) (*Viewer, error) {
	if profile.Width <= 0 || profile.Height <= 0 {
		return nil, errors.Errorf("invalid depth resolution %dx%d", profile.Width, profile.Height)
	}
	if opts.Zoom == 0 {
		opts.Zoom = DefaultZoom
	}
	if err := validateZoom(opts.Zoom); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	stats := NewStats()
	buffers := pointcloud.NewFrameBuffers(profile.Width, profile.Height)
	v := &Viewer{
		profile:  profile,
		source:   source,
		buffers:  buffers,
		pipeline: NewPipeline(profile, buffers, stats, logger.Sublogger("pipeline")),
		renderer: render.NewRenderer(buffers, profile.Width, profile.Height, assets, logger.Sublogger("render")),
		stats:    stats,
		opts:     opts,
		logger:   logger,
	}
	v.zoom.Store(opts.Zoom)
	return v, nil
}

func validateZoom(zoom float32) error {
	if zoom <= 0 || zoom > 1 {
		return errors.Errorf("zoom must be in (0, 1], got %v", zoom)
	}
	return nil
}

// Zoom returns the current zoom.
func (v *Viewer) Zoom() float32 {
	return v.zoom.Load()
}

// SetZoom changes the zoom used by the next Paint. It may be called from any goroutine.
func (v *Viewer) SetZoom(zoom float32) error {
	if err := validateZoom(zoom); err != nil {
		return err
	}
	v.zoom.Store(zoom)
	return nil
}

// Stats returns the viewer's frame counters.
func (v *Viewer) Stats() *Stats {
	return v.stats
}

// Start begins delivering frames from the depth source. Starting a running viewer does nothing.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.running {
		return nil
	}
	if v.buffers.Closed() {
		return pointcloud.ErrFrameBuffersClosed
	}

	if err := v.source.Start(ctx, v.pipeline.Handler()); err != nil {
		return errors.Wrap(err, "failed to start depth source")
	}
	v.running = true
	if v.opts.StatsInterval > 0 {
		logger := v.logger.Sublogger("stats")
		v.workers = utils.NewStoppableWorkers(reportStats(v.stats, v.opts.Clock, v.opts.StatsInterval, logger))
	}
	v.logger.Infow("viewer started", "camera_id", v.profile.CameraID)
	return nil
}

// Stop closes the depth source, then rejects any later publish. The last published cloud keeps
// rendering until the context goes away.
func (v *Viewer) Stop(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var err error
	if v.running {
		err = v.source.Close(ctx)
		v.running = false
	}
	v.buffers.Close()
	if v.workers != nil {
		v.workers.Stop()
		v.workers = nil
	}
	v.logger.Infow("viewer stopped", v.stats.Snapshot().keysAndValues()...)
	return err
}

// OnContextCreated builds the renderer's GL resources on a new context.
func (v *Viewer) OnContextCreated(glctx render.GL) error {
	return v.renderer.OnSurfaceCreated(glctx)
}

// OnContextLost forgets GL resources of a context that no longer exists.
func (v *Viewer) OnContextLost() {
	v.renderer.OnContextLost()
}

// ReleaseContext frees GL resources while their context is still current.
func (v *Viewer) ReleaseContext() error {
	return v.renderer.Close()
}

// Paint draws the latest cloud onto surface.
func (v *Viewer) Paint(surface Surface) error {
	if v.renderer.State() != render.Ready {
		return nil
	}
	err := v.renderer.Draw(render.Frame{
		Size:     surface.Size,
		Rotation: surface.Rotation,
		Zoom:     v.zoom.Load(),
	})
	if err != nil {
		v.stats.drawErrors.Inc()
		return err
	}
	v.stats.drawn.Inc()
	return nil
}
