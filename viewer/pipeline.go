// Package viewer wires a depth source, the producer pipeline and the renderer into a running
// point cloud viewer.
package viewer

import (
	"context"
	"time"

	"go.opencensus.io/trace"

	"go.viam.com/tofviewer/components/camera/tof"
	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/pointcloud"
	"go.viam.com/tofviewer/rimage"
)

// Pipeline turns raw depth frames into published point clouds. HandleFrame must only be called
// from one goroutine at a time.
type Pipeline struct {
	decoder *rimage.DepthDecoder
	buffers *pointcloud.FrameBuffers
	stats   *Stats
	logger  logging.Logger
}

// NewPipeline returns a pipeline decoding frames of the profile's nominal size into buffers.
func NewPipeline(profile tof.DeviceProfile, buffers *pointcloud.FrameBuffers, stats *Stats, logger logging.Logger) *Pipeline {
	if stats == nil {
		stats = NewStats()
	}
	return &Pipeline{
		decoder: rimage.NewDepthDecoder(profile.Width, profile.Height, profile.Sampling),
		buffers: buffers,
		stats:   stats,
		logger:  logger,
	}
}

// HandleFrame decodes frame, builds its point cloud and publishes it. A frame that fails any step
// is dropped and the error returned; the last published cloud is unaffected. A frame without
// samples is skipped.
func (p *Pipeline) HandleFrame(ctx context.Context, frame rimage.RawDepthFrame) error {
	ctx, span := trace.StartSpan(ctx, "tof::pipeline::HandleFrame")
	defer span.End()
	start := time.Now()

	ctx = logging.WithFields(ctx, "frame", p.stats.received.Inc())
	if len(frame.Samples) == 0 {
		p.stats.dropped.Inc()
		p.logger.CWarnw(ctx, "depth image unavailable, skipping frame", "width", frame.Width, "height", frame.Height)
		return nil
	}

	decoded, err := p.decoder.Decode(frame)
	if err != nil {
		p.drop(ctx, span, err)
		return err
	}

	n := pointcloud.Build(decoded, p.buffers.BeginProduce())
	if err := p.buffers.Publish(n); err != nil {
		p.drop(ctx, span, err)
		return err
	}
	p.stats.published.Inc()
	p.stats.points.Add(n)
	p.stats.recordLatency(time.Since(start))
	span.AddAttributes(trace.Int64Attribute("points", int64(n)))
	return nil
}

func (p *Pipeline) drop(ctx context.Context, span *trace.Span, err error) {
	p.stats.dropped.Inc()
	span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
	p.logger.CDebugw(ctx, "dropped depth frame", "error", err)
}

// Handler adapts the pipeline to a depth source. Errors are already counted and logged.
func (p *Pipeline) Handler() tof.FrameHandler {
	return func(ctx context.Context, frame rimage.RawDepthFrame) {
		_ = p.HandleFrame(ctx, frame)
	}
}
