// Package main runs the depth point cloud viewer as an x/mobile app.
package main

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/atomic"
	"golang.org/x/mobile/app"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/gl"

	"go.viam.com/tofviewer/components/camera/tof"
	"go.viam.com/tofviewer/components/camera/tof/fake"
	"go.viam.com/tofviewer/config"
	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/render"
	"go.viam.com/tofviewer/utils"
	"go.viam.com/tofviewer/viewer"
)

const (
	flagConfig        = "config"
	flagDeviceModel   = "device-model"
	flagZoom          = "zoom"
	flagRotation      = "rotation"
	flagSampling      = "sampling"
	flagFake          = "fake"
	flagFakeFPS       = "fake-fps"
	flagStatsInterval = "stats-interval"
	flagDebug         = "debug"
)

func main() {
	app := &cli.App{
		Name:  "tofviewer",
		Usage: "render the time-of-flight depth camera as a live point cloud",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
				EnvVars: []string{"TOFVIEWER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagDeviceModel,
				Usage:   "device model code, detected from ro.product.device when empty",
				EnvVars: []string{"TOFVIEWER_DEVICE_MODEL"},
			},
			&cli.Float64Flag{
				Name:    flagZoom,
				Usage:   "fraction of the letterboxed rectangle to fill, in (0, 1]",
				Value:   config.DefaultZoom,
				EnvVars: []string{"TOFVIEWER_ZOOM"},
			},
			&cli.IntFlag{
				Name:    flagRotation,
				Usage:   "pin the display rotation to 0, 90, 180 or 270; -1 follows the surface",
				Value:   config.FollowSurface,
				EnvVars: []string{"TOFVIEWER_ROTATION"},
			},
			&cli.StringFlag{
				Name:    flagSampling,
				Usage:   "override the device's sampling policy: row-halving or full-rows",
				EnvVars: []string{"TOFVIEWER_SAMPLING"},
			},
			&cli.BoolFlag{
				Name:    flagFake,
				Usage:   "render synthetic depth frames",
				Value:   true,
				EnvVars: []string{"TOFVIEWER_FAKE"},
			},
			&cli.IntFlag{
				Name:    flagFakeFPS,
				Usage:   "synthetic frame rate",
				Value:   config.DefaultFakeFPS,
				EnvVars: []string{"TOFVIEWER_FAKE_FPS"},
			},
			&cli.DurationFlag{
				Name:    flagStatsInterval,
				Usage:   "log frame stats at debug level this often; 0 disables",
				Value:   config.DefaultStatsInterval,
				EnvVars: []string{"TOFVIEWER_STATS_INTERVAL"},
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
				EnvVars: []string{"TOFVIEWER_DEBUG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// configFromContext reads the optional config file and applies flags on top of it.
// overridesFromContext collects the flags that were given, including through their environment
// variables.
func overridesFromContext(c *cli.Context) config.Overrides {
	var o config.Overrides
	if c.IsSet(flagDeviceModel) {
		o.DeviceModel = lo.ToPtr(c.String(flagDeviceModel))
	}
	if c.IsSet(flagZoom) {
		o.Zoom = lo.ToPtr(float32(c.Float64(flagZoom)))
	}
	if c.IsSet(flagRotation) {
		o.Rotation = lo.ToPtr(c.Int(flagRotation))
	}
	if c.IsSet(flagSampling) {
		o.Sampling = lo.ToPtr(c.String(flagSampling))
	}
	if c.IsSet(flagFake) {
		o.Fake = lo.ToPtr(c.Bool(flagFake))
	}
	if c.IsSet(flagFakeFPS) {
		o.FakeFPS = lo.ToPtr(c.Int(flagFakeFPS))
	}
	if c.IsSet(flagStatsInterval) {
		o.StatsInterval = lo.ToPtr(c.Duration(flagStatsInterval))
	}
	o.Debug = c.Bool(flagDebug)
	return o
}

func configFromContext(c *cli.Context, overrides config.Overrides) (*config.Config, error) {
	conf := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if conf, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	overrides.Apply(conf)
	if err := conf.Validate("flags"); err != nil {
		return nil, err
	}
	return conf, nil
}

func run(c *cli.Context) error {
	overrides := overridesFromContext(c)
	conf, err := configFromContext(c, overrides)
	if err != nil {
		return err
	}

	var logger logging.Logger
	if conf.Debug {
		logger = logging.NewDebugLogger("tof")
	} else {
		logger = logging.NewLogger("tof")
	}
	logging.ReplaceGlobal(logger)
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	ctx := c.Context
	model := conf.DeviceModel
	if model == "" {
		if model, err = tof.DeviceModel(ctx, nil); err != nil {
			logger.Warnw("could not detect device model, using defaults", "error", err)
		}
	}

	if !conf.Fake {
		return errors.Wrap(tof.ErrCameraUnavailable, "no native depth camera binding in this build, run with --fake")
	}
	profile := tof.ResolveProfile(ctx, model, fake.CameraManager{}, logger.Sublogger("profile"))
	if policy, ok := conf.SamplingOverride(); ok {
		profile.Sampling = policy
	}

	source, err := fake.NewSource(fake.Config{
		Width:    profile.Width,
		Height:   profile.Height,
		FPS:      conf.FakeFPS,
		Sampling: profile.Sampling,
	}, nil, logger.Sublogger("source"))
	if err != nil {
		return err
	}

	v, err := viewer.NewViewer(profile, source, render.MobileAssets, viewer.Options{
		Zoom:          conf.Zoom,
		StatsInterval: conf.StatsInterval,
	}, logger)
	if err != nil {
		return err
	}

	rotation := atomic.NewInt64(int64(conf.Rotation))
	if path := c.String(flagConfig); path != "" {
		stop, err := watchConfig(ctx, path, overrides, v, rotation, logger.Sublogger("config"))
		if err != nil {
			return err
		}
		defer stop()
	}

	app.Main(func(a app.App) {
		loop(ctx, a, v, rotation, logger)
	})
	return nil
}

// watchConfig applies zoom and rotation changes from the config file while the app runs. Flags
// given at startup stay in force over the file. Other fields need a restart.
func watchConfig(
	ctx context.Context,
	path string,
	overrides config.Overrides,
	v *viewer.Viewer,
	rotation *atomic.Int64,
	logger logging.Logger,
) (func(), error) {
	watcher, err := config.NewWatcher(ctx, path, config.DefaultReloadDelay, logger)
	if err != nil {
		return nil, err
	}
	workers := utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case conf := <-watcher.Config():
				overrides.Apply(conf)
				if err := v.SetZoom(conf.Zoom); err != nil {
					logger.Warnw("ignoring zoom change", "error", err)
				}
				rotation.Store(int64(conf.Rotation))
			}
		}
	})
	return func() {
		workers.Stop()
		if err := watcher.Close(); err != nil {
			logger.Warnw("failed to close config watcher", "error", err)
		}
	}, nil
}

// loop drives the viewer from x/mobile events until the app dies.
func loop(ctx context.Context, a app.App, v *viewer.Viewer, rotation *atomic.Int64, logger logging.Logger) {
	var glctx gl.Context
	var sz size.Event
	for e := range a.Events() {
		switch e := a.Filter(e).(type) {
		case lifecycle.Event:
			if e.Crosses(lifecycle.StageAlive) == lifecycle.CrossOn {
				if err := v.Start(ctx); err != nil {
					logger.Errorw("could not start depth source", "error", err)
				}
			}
			switch e.Crosses(lifecycle.StageVisible) {
			case lifecycle.CrossOn:
				var ok bool
				if glctx, ok = e.DrawContext.(gl.Context); ok {
					// errors are logged by the renderer; the next context retries
					//nolint:errcheck
					v.OnContextCreated(glctx)
				}
				a.Send(paint.Event{})
			case lifecycle.CrossOff:
				if err := v.ReleaseContext(); err != nil {
					logger.Warnw("failed to release GL resources", "error", err)
				}
				glctx = nil
			}
			if e.Crosses(lifecycle.StageAlive) == lifecycle.CrossOff {
				if err := v.Stop(ctx); err != nil {
					logger.Warnw("failed to stop viewer", "error", err)
				}
				return
			}
		case size.Event:
			sz = e
		case paint.Event:
			if glctx == nil || e.External {
				continue
			}
			surface, err := viewer.SurfaceFromSize(sz, int(rotation.Load()))
			if err != nil {
				logger.Warnw("invalid surface rotation", "error", err)
			}
			//nolint:errcheck
			v.Paint(surface)
			a.Publish()
			a.Send(paint.Event{})
		}
	}
}
