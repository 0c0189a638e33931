// Package fake implements a synthetic DEPTH16 source for running the viewer without a depth sensor.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/tofviewer/components/camera/tof"
	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/rimage"
	"go.viam.com/tofviewer/utils"
)

// DefaultFPS matches the rate of the handset sensors.
const DefaultFPS = 30

// rowPadding is added to every row so consumers have to honor the stride.
const rowPadding = 8

// Config are the attributes of the synthetic source.
type Config struct {
	Width    int
	Height   int
	FPS      int
	Sampling rimage.SamplingPolicy
}

// Validate checks that the config describes a producible frame.
func (conf *Config) Validate(path string) error {
	if conf.Width <= 0 || conf.Height <= 0 {
		return errors.Errorf("%s: width and height must be positive, got %dx%d", path, conf.Width, conf.Height)
	}
	if conf.Sampling == rimage.RowHalving && conf.Height%2 != 0 {
		return errors.Errorf("%s: height must be even for %s sampling, got %d", path, conf.Sampling, conf.Height)
	}
	if conf.FPS < 0 {
		return errors.Errorf("%s: fps cannot be negative, got %d", path, conf.FPS)
	}
	return nil
}

// Source generates a moving ramp of depths with cycling confidence codes. Frames are laid out the
// way the configured sampling policy reads them.
type Source struct {
	cfg    Config
	clock  clock.Clock
	logger logging.Logger
	frame  rimage.RawDepthFrame
	count  atomic.Uint64

	mu      sync.Mutex
	workers utils.StoppableWorkers
	closed  bool
}

var _ tof.DepthSource = (*Source)(nil)

// NewSource returns a stopped source. A nil clock uses the wall clock.
func NewSource(cfg Config, clk clock.Clock, logger logging.Logger) (*Source, error) {
	if err := cfg.Validate("fake"); err != nil {
		return nil, err
	}
	if cfg.FPS == 0 {
		cfg.FPS = DefaultFPS
	}
	if clk == nil {
		clk = clock.New()
	}
	stride := cfg.Width + rowPadding
	rows := cfg.Height
	if cfg.Sampling == rimage.RowHalving {
		rows = cfg.Height / 2
	}
	return &Source{
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		frame: rimage.RawDepthFrame{
			Width:   cfg.Width,
			Height:  cfg.Height,
			Stride:  stride,
			Samples: make([]uint16, stride*rows),
		},
	}, nil
}

// Interval is the time between frames.
func (s *Source) Interval() time.Duration {
	return time.Second / time.Duration(s.cfg.FPS)
}

// FramesProduced returns how many frames have been handed to the handler.
func (s *Source) FramesProduced() uint64 {
	return s.count.Load()
}

// Start delivers one frame per interval to handler on a background goroutine.
func (s *Source) Start(ctx context.Context, handler tof.FrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("fake depth source is closed")
	}
	if s.workers != nil {
		return errors.New("fake depth source already started")
	}

	s.workers = utils.NewStoppableWorkersWithContext(ctx, utils.TickerWorker(s.clock, s.Interval(), func(ctx context.Context) {
		s.fill(s.count.Load())
		handler(ctx, s.frame)
		s.count.Inc()
	}))
	s.logger.Infow("started fake depth source",
		"width", s.cfg.Width, "height", s.cfg.Height, "fps", s.cfg.FPS, "sampling", s.cfg.Sampling.String())
	return nil
}

// Close stops delivery and waits for an in-flight handler call to return.
func (s *Source) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.workers != nil {
		s.workers.Stop()
	}
	return nil
}

// fill writes frame number n. Every 29th diagonal reports no return.
func (s *Source) fill(n uint64) {
	rows := len(s.frame.Samples) / s.frame.Stride
	shift := int(n % 256)
	for y := 0; y < rows; y++ {
		row := s.frame.Samples[y*s.frame.Stride : (y+1)*s.frame.Stride]
		for x := 0; x < s.frame.Width; x++ {
			if (x+y+shift)%29 == 0 {
				row[x] = 0
				continue
			}
			rangeMM := 300 + ((x+y+shift)%256)*16
			code := (x/8 + y/8 + shift) % 8
			row[x] = Sample(rangeMM, code)
		}
		for x := s.frame.Width; x < s.frame.Stride; x++ {
			row[x] = 0xFFFF
		}
	}
}

// Sample packs a range in millimetres and a confidence code into one DEPTH16 sample.
func Sample(rangeMM, code int) uint16 {
	return uint16(rangeMM&rimage.RangeMask) | uint16(code&rimage.ConfidenceMask)<<rimage.ConfidenceShift
}
