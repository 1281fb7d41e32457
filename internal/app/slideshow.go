// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/display"
	"github.com/relabs-tech/shake_slideshow/internal/imu"
	"github.com/relabs-tech/shake_slideshow/internal/motion"
	"github.com/relabs-tech/shake_slideshow/internal/sensors"
	"github.com/relabs-tech/shake_slideshow/internal/slideshow"
)

// hostInit loads the periph drivers; replaced in tests.
var hostInit = defaultHostInit

func defaultHostInit() error {
	_, err := host.Init()
	return err
}

func needsHost(cfg *config.Config) bool {
	return cfg.SensorModel != config.SensorMock || cfg.DisplayModel != config.DisplayHeadless
}

// Slideshow is a calibrated sampler and a started controller sharing one flag.
type Slideshow struct {
	sampler *motion.Sampler
	ctrl    *slideshow.Controller
	logger  *zap.SugaredLogger
}

// NewSlideshow loads the images, shows the calibration splash, calibrates src
// and renders the first image at full brightness. Any failure is fatal.
func NewSlideshow(cfg *config.Config, src imu.Source, devs *display.Devices, clk clock.Clock, logger *zap.SugaredLogger) (*Slideshow, error) {
	images, err := slideshow.LoadImageSet(cfg.ImagesDir)
	if err != nil {
		if errors.Is(err, slideshow.ErrEmptyImageSet) {
			showMessage(devs, logger, "No images in", cfg.ImagesDir)
		}
		return nil, fmt.Errorf("slideshow: %w", err)
	}
	logger.Infof("slideshow: %d images in %s", images.Len(), cfg.ImagesDir)

	showMessage(devs, logger, "Calibrating", "hold still")
	logger.Infof("slideshow: calibrating over %d samples", cfg.CalibrationSamples)
	offset, stats, err := motion.CalibrateWithStats(src, cfg.CalibrationSamples)
	if err != nil {
		showMessage(devs, logger, "Calibration failed")
		return nil, fmt.Errorf("slideshow: %w", err)
	}
	logger.Infof("slideshow: offset x=%.3f y=%.3f z=%.3f (stillness %.2f)",
		offset.X, offset.Y, offset.Z, motion.StillnessConfidence(stats.StdDev))

	var flag motion.Flag
	classifier := motion.NewClassifier(offset, cfg.MotionThreshold)
	sampler, err := motion.NewSampler(src, classifier, &flag, cfg.SampleInterval(), clk, logger)
	if err != nil {
		return nil, fmt.Errorf("slideshow: %w", err)
	}

	ctrl, err := slideshow.NewController(slideshow.ControllerOpts{
		Images:       images,
		Sink:         devs.Sink,
		Backlight:    devs.Backlight,
		Flag:         &flag,
		Clock:        clk,
		Logger:       logger,
		Geometry:     slideshow.Geometry{Width: devs.Width, Height: devs.Height, BytesPerPixel: 2},
		FadeDuration: cfg.FadeDurationDur(),
		FadeSteps:    cfg.FadeSteps,
		PollInterval: cfg.PollIntervalDur(),
	})
	if err != nil {
		return nil, fmt.Errorf("slideshow: %w", err)
	}
	if err := ctrl.Start(); err != nil {
		return nil, fmt.Errorf("slideshow: %w", err)
	}

	return &Slideshow{sampler: sampler, ctrl: ctrl, logger: logger}, nil
}

// Controller exposes the controller for observers.
func (s *Slideshow) Controller() *slideshow.Controller { return s.ctrl }

// Run samples in the background and runs the controller until ctx is done or a
// transition fails. Cancellation is not an error.
func (s *Slideshow) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.sampler.Run(gctx)
	})
	g.Go(func() error {
		return s.ctrl.Run(gctx)
	})
	err := g.Wait()

	st := s.sampler.Stats()
	s.logger.Infof("slideshow: %d samples (%d skipped, %d with motion), %d transitions",
		st.Ticks, st.Skipped, st.Detections, s.ctrl.Transitions())

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// showMessage puts text on the panel at full brightness. It is best effort.
func showMessage(devs *display.Devices, logger *zap.SugaredLogger, lines ...string) {
	if err := display.RenderText(devs.Sink, devs.Width, devs.Height, lines...); err != nil {
		logger.Warnf("slideshow: splash: %v", err)
		return
	}
	if err := devs.Backlight.SetLevel(devs.Backlight.Max()); err != nil {
		logger.Warnf("slideshow: splash backlight: %v", err)
	}
}

// RunSlideshow opens the configured hardware and runs the slideshow until ctx
// is cancelled.
func RunSlideshow(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	if needsHost(cfg) {
		if err := hostInit(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
	}
	clk := clock.New()

	src, err := sensors.NewIMUSource(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer closeSource(src, &err)

	devs, err := display.Open(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, devs.Close()) }()

	show, err := NewSlideshow(cfg, src, devs, clk, logger)
	if err != nil {
		return err
	}
	return show.Run(ctx)
}

func closeSource(src imu.Source, errp *error) {
	if c, ok := src.(io.Closer); ok {
		*errp = multierr.Append(*errp, c.Close())
	}
}
