// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// DefaultSampleInterval is the sampler period.
const DefaultSampleInterval = 1000 * time.Millisecond

// SamplerStats counts sampler activity since start.
type SamplerStats struct {
	Ticks      uint64
	Skipped    uint64
	Detections uint64
}

// Sampler reads one sample per period, classifies it and overwrites the Flag.
// It never renders, fades or sleeps; that work belongs to the slideshow loop.
type Sampler struct {
	src        imu.Source
	classifier *Classifier
	flag       *Flag
	period     time.Duration
	clk        clock.Clock
	logger     *zap.SugaredLogger

	ticks      atomic.Uint64
	skipped    atomic.Uint64
	detections atomic.Uint64
}

// NewSampler wires a sampler. A zero period selects DefaultSampleInterval and a
// nil clock selects the wall clock.
func NewSampler(src imu.Source, c *Classifier, f *Flag, period time.Duration, clk clock.Clock, logger *zap.SugaredLogger) (*Sampler, error) {
	if src == nil {
		return nil, errors.New("sampler: nil source")
	}
	if c == nil {
		return nil, errors.New("sampler: nil classifier")
	}
	if f == nil {
		return nil, errors.New("sampler: nil flag")
	}
	if period <= 0 {
		period = DefaultSampleInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Sampler{
		src:        src,
		classifier: c,
		flag:       f,
		period:     period,
		clk:        clk,
		logger:     logger,
	}, nil
}

// Tick takes one sample. A failed read (bus busy) skips the tick and leaves the
// flag untouched; the error stays inside the sampler.
func (s *Sampler) Tick() {
	s.ticks.Inc()

	raw, err := s.src.ReadRaw()
	if err != nil {
		s.skipped.Inc()
		s.logger.Debugf("sampler: read skipped: %v", err)
		return
	}

	res := s.classifier.Classify(raw)
	s.flag.Set(res.Moving)
	if res.Moving {
		s.detections.Inc()
		s.logger.Debugf("sampler: motion on %s axis (x=%.2f y=%.2f z=%.2f)",
			res.Axis, res.Reading.X, res.Reading.Y, res.Reading.Z)
	}
}

// Run calls Tick once per period until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := s.clk.Ticker(s.period)
	defer ticker.Stop()

	s.logger.Infof("sampler: started, period %s", s.period)
	for {
		select {
		case <-ctx.Done():
			st := s.Stats()
			s.logger.Infof("sampler: stopped after %d ticks (%d skipped, %d detections)",
				st.Ticks, st.Skipped, st.Detections)
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stats returns the current counters.
func (s *Sampler) Stats() SamplerStats {
	return SamplerStats{
		Ticks:      s.ticks.Load(),
		Skipped:    s.skipped.Load(),
		Detections: s.detections.Load(),
	}
}
