// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package slideshow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultPollInterval is how long the controller yields between idle polls.
const DefaultPollInterval = 10 * time.Millisecond

// Trigger is the consumer side of the motion flag.
type Trigger interface {
	// Take reports whether motion was flagged and clears the flag.
	Take() bool
}

// State is the controller's position in its state machine.
type State uint32

const (
	Idle State = iota
	Transitioning
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Transitioning:
		return "transitioning"
	default:
		return "INVALID"
	}
}

// ControllerOpts configures a Controller. Images, Sink, Backlight and Flag are
// required; zero values elsewhere select defaults.
type ControllerOpts struct {
	Images    *ImageSet
	Sink      Sink
	Backlight Backlight
	Flag      Trigger
	Clock     clock.Clock
	Logger    *zap.SugaredLogger

	Geometry     Geometry
	FadeDuration time.Duration
	FadeSteps    int
	PollInterval time.Duration
}

// Controller owns the current image index and runs fade transitions when the
// motion flag is raised. All methods except Index, State and Transitions must
// be called from a single goroutine.
type Controller struct {
	images *ImageSet
	sink   Sink
	bl     Backlight
	flag   Trigger
	clk    clock.Clock
	logger *zap.SugaredLogger

	geom         Geometry
	fadeDuration time.Duration
	fadeSteps    int
	pollInterval time.Duration

	index       atomic.Int64
	state       atomic.Uint32
	transitions atomic.Uint64

	onTransition func(from, to int)
}

// NewController validates opts and returns an idle controller at index 0.
func NewController(opts ControllerOpts) (*Controller, error) {
	if opts.Images == nil || opts.Images.Len() == 0 {
		return nil, ErrEmptyImageSet
	}
	if opts.Sink == nil {
		return nil, errors.New("controller: nil sink")
	}
	if opts.Backlight == nil {
		return nil, errors.New("controller: nil backlight")
	}
	if opts.Flag == nil {
		return nil, errors.New("controller: nil flag")
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Geometry == (Geometry{}) {
		opts.Geometry = DefaultGeometry
	}
	if err := opts.Geometry.validate(); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	if opts.FadeDuration <= 0 {
		opts.FadeDuration = DefaultFadeDuration
	}
	if opts.FadeSteps <= 0 {
		opts.FadeSteps = DefaultFadeSteps
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Controller{
		images:       opts.Images,
		sink:         opts.Sink,
		bl:           opts.Backlight,
		flag:         opts.Flag,
		clk:          opts.Clock,
		logger:       opts.Logger,
		geom:         opts.Geometry,
		fadeDuration: opts.FadeDuration,
		fadeSteps:    opts.FadeSteps,
		pollInterval: opts.PollInterval,
	}, nil
}

// OnTransition registers fn to be called after every completed transition.
// Call it before Start or Run.
func (c *Controller) OnTransition(fn func(from, to int)) {
	c.onTransition = fn
}

// Index returns the image currently on screen.
func (c *Controller) Index() int { return int(c.index.Load()) }

// State returns Idle or Transitioning.
func (c *Controller) State() State { return State(c.state.Load()) }

// Transitions returns the number of completed transitions.
func (c *Controller) Transitions() uint64 { return c.transitions.Load() }

// Start renders the first image and turns the backlight fully on without a fade.
func (c *Controller) Start() error {
	c.index.Store(0)
	if err := RenderFile(c.images.Path(0), c.sink, c.geom); err != nil {
		return fmt.Errorf("controller: initial render: %w", err)
	}
	if err := c.bl.SetLevel(c.bl.Max()); err != nil {
		return fmt.Errorf("controller: backlight on: %w", err)
	}
	c.logger.Infof("controller: showing %s (1/%d)", c.images.Names()[0], c.images.Len())
	return nil
}

// Step performs one poll. If the flag was raised it is cleared first and a full
// fade-out, advance, render, fade-in transition runs to completion. It reports
// whether a transition ran.
func (c *Controller) Step() (bool, error) {
	if !c.flag.Take() {
		return false, nil
	}

	c.state.Store(uint32(Transitioning))
	defer c.state.Store(uint32(Idle))

	from := c.Index()
	to := (from + 1) % c.images.Len()
	start := c.clk.Now()

	if err := Ramp(c.bl, c.clk, Decreasing, c.fadeDuration, c.fadeSteps); err != nil {
		return true, fmt.Errorf("controller: fade out: %w", err)
	}
	c.index.Store(int64(to))
	if err := RenderFile(c.images.Path(to), c.sink, c.geom); err != nil {
		return true, fmt.Errorf("controller: %w", err)
	}
	if err := Ramp(c.bl, c.clk, Increasing, c.fadeDuration, c.fadeSteps); err != nil {
		return true, fmt.Errorf("controller: fade in: %w", err)
	}

	c.transitions.Inc()
	c.logger.Debugf("controller: %d -> %d in %v", from, to, c.clk.Since(start))
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
	return true, nil
}

// Run polls until ctx is cancelled or a transition fails. Cancellation is only
// observed between iterations; an in-flight transition always completes.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		c.logger.Infof("controller: stopped after %d transitions, index %d", c.Transitions(), c.Index())
	}()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ran, err := c.Step()
		if err != nil {
			return err
		}
		if !ran {
			c.clk.Sleep(c.pollInterval)
		}
	}
}
