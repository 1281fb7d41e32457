// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import (
	"go.uber.org/atomic"
)

// Flag is the only state shared between the sampler and the slideshow loop.
// The sampler overwrites it on every successful sample; the loop takes it.
// Neither side ever blocks.
type Flag struct {
	v atomic.Bool
}

// Set overwrites the flag with the latest classification.
func (f *Flag) Set(moving bool) {
	f.v.Store(moving)
}

// Take reads and clears the flag in one step.
func (f *Flag) Take() bool {
	return f.v.Swap(false)
}

// Load reads the flag without clearing it.
func (f *Flag) Load() bool {
	return f.v.Load()
}
