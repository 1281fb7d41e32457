// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// DefaultThreshold is the per-axis deviation, in g, that counts as a shake.
const DefaultThreshold = 1.0

// Axis names the axis that triggered a detection.
type Axis uint8

const (
	AxisNone Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisNone:
		return "none"
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "INVALID"
	}
}

// Result is the outcome of classifying one sample.
type Result struct {
	Reading imu.Reading // calibrated reading
	Axis    Axis        // first axis over threshold, AxisNone at rest
	Moving  bool
}

// Classifier applies a fixed calibration offset and threshold. It is
// immutable after construction.
type Classifier struct {
	offset    imu.Offset
	threshold float64
}

// NewClassifier returns a classifier for the given calibration. A non-positive
// threshold selects DefaultThreshold.
func NewClassifier(offset imu.Offset, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{offset: offset, threshold: threshold}
}

// Offset returns the calibration offset in use.
func (c *Classifier) Offset() imu.Offset { return c.offset }

// Threshold returns the per-axis threshold in g.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify tests x, then y, then z; the first axis over threshold wins.
// The calibrated z still rests at +Gravity, so its band is shifted by Gravity.
func (c *Classifier) Classify(raw imu.RawSample) Result {
	r := imu.ToReading(raw).Sub(c.offset)
	t := c.threshold

	switch {
	case r.X >= t || r.X <= -t:
		return Result{Reading: r, Axis: AxisX, Moving: true}
	case r.Y >= t || r.Y <= -t:
		return Result{Reading: r, Axis: AxisY, Moving: true}
	case r.Z >= imu.Gravity+t || r.Z <= -imu.Gravity-t:
		return Result{Reading: r, Axis: AxisZ, Moving: true}
	}
	return Result{Reading: r, Axis: AxisNone}
}

// Moving reports whether raw classifies as a shake.
func (c *Classifier) Moving(raw imu.RawSample) bool {
	return c.Classify(raw).Moving
}
