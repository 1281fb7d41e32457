// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion turns raw accelerometer samples into a shake signal. A periodic
// Sampler classifies each sample against the startup calibration and publishes
// the result to a Flag consumed by the slideshow loop.
package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// DefaultCalibrationSamples is the number of resting samples averaged at startup.
const DefaultCalibrationSamples = 127

// CalibrationStats describes the samples a calibration was computed from.
type CalibrationStats struct {
	Samples int         `json:"samples"`
	Mean    imu.Reading `json:"mean"`
	StdDev  imu.Reading `json:"stddev"`
}

// Calibrate averages samples raw readings per axis. The z offset additionally has
// Gravity removed, so the classifier sees a resting z of +Gravity.
//
// Any read error aborts calibration; no default offsets are substituted.
func Calibrate(src imu.Source, samples int) (imu.Offset, error) {
	off, _, err := CalibrateWithStats(src, samples)
	return off, err
}

// CalibrateWithStats is Calibrate that also reports per-axis spread.
func CalibrateWithStats(src imu.Source, samples int) (imu.Offset, CalibrationStats, error) {
	if src == nil {
		return imu.Offset{}, CalibrationStats{}, errors.New("calibrate: nil source")
	}
	if samples <= 0 {
		return imu.Offset{}, CalibrationStats{}, fmt.Errorf("calibrate: sample count must be positive, got %d", samples)
	}

	readings := make([]imu.Reading, 0, samples)
	var sum imu.Reading
	for i := 0; i < samples; i++ {
		raw, err := src.ReadRaw()
		if err != nil {
			return imu.Offset{}, CalibrationStats{}, fmt.Errorf("calibrate: sample %d/%d: %w", i+1, samples, err)
		}
		r := imu.ToReading(raw)
		readings = append(readings, r)
		sum.X += r.X
		sum.Y += r.Y
		sum.Z += r.Z
	}

	n := float64(samples)
	mean := imu.Reading{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}

	var sq imu.Reading
	for _, r := range readings {
		sq.X += (r.X - mean.X) * (r.X - mean.X)
		sq.Y += (r.Y - mean.Y) * (r.Y - mean.Y)
		sq.Z += (r.Z - mean.Z) * (r.Z - mean.Z)
	}
	stats := CalibrationStats{
		Samples: samples,
		Mean:    mean,
		StdDev: imu.Reading{
			X: math.Sqrt(sq.X / n),
			Y: math.Sqrt(sq.Y / n),
			Z: math.Sqrt(sq.Z / n),
		},
	}

	return imu.Offset{X: mean.X, Y: mean.Y, Z: mean.Z - imu.Gravity}, stats, nil
}

// StillnessConfidence maps the worst per-axis standard deviation (in g) to [0,1].
// Below good the device was held still; above bad the offsets are unreliable.
func StillnessConfidence(std imu.Reading) float64 {
	const (
		good  = 0.005
		bad   = 0.05
		floor = 0.05
	)
	worst := math.Max(std.X, math.Max(std.Y, std.Z))
	switch {
	case worst <= good:
		return 1
	case worst >= bad:
		return floor
	}
	c := 1 - (worst-good)/(bad-good)
	return math.Max(floor, c)
}
