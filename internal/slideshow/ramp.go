// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package slideshow

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultFadeDuration is the length of one fade-out or fade-in.
	DefaultFadeDuration = 1000 * time.Millisecond
	// DefaultFadeSteps is the number of intervals in a fade; a fade visits
	// DefaultFadeSteps+1 levels.
	DefaultFadeSteps = 20
)

// Backlight sets the display backlight duty level in [0, Max()].
type Backlight interface {
	SetLevel(level int) error
	Max() int
}

// Direction selects which way a ramp runs.
type Direction uint8

const (
	Decreasing Direction = iota // Max → 0
	Increasing                  // 0 → Max
)

func (d Direction) String() string {
	switch d {
	case Decreasing:
		return "decreasing"
	case Increasing:
		return "increasing"
	default:
		return "INVALID"
	}
}

// Levels returns the steps+1 duty levels a ramp visits, in order. Each level is
// j*max/steps rounded to the nearest integer.
func Levels(dir Direction, max, steps int) []int {
	if steps <= 0 {
		return nil
	}
	levels := make([]int, 0, steps+1)
	for i := 0; i <= steps; i++ {
		j := i
		if dir == Decreasing {
			j = steps - i
		}
		levels = append(levels, (j*max+steps/2)/steps)
	}
	return levels
}

// Ramp drives bl through Levels, sleeping duration/steps after each level. It
// blocks for the whole duration; nothing else runs on the calling goroutine.
func Ramp(bl Backlight, clk clock.Clock, dir Direction, duration time.Duration, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("ramp: steps must be positive, got %d", steps)
	}
	if dir != Decreasing && dir != Increasing {
		return fmt.Errorf("ramp: invalid direction %d", dir)
	}
	delay := duration / time.Duration(steps)
	for _, level := range Levels(dir, bl.Max(), steps) {
		if err := bl.SetLevel(level); err != nil {
			return fmt.Errorf("ramp %s: set level %d: %w", dir, level, err)
		}
		clk.Sleep(delay)
	}
	return nil
}
