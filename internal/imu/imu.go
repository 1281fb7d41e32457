// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

const (
	// Gravity is the resting z reading, in the same units the accelerometer is
	// converted to.
	Gravity = 9.8

	// AccelScale is the sensitivity at the ±2g full scale range (LSB per g).
	AccelScale = 16384.0
)

// RawSample is one raw accelerometer sample in sensor counts.
type RawSample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Reading is an accelerometer sample converted to g.
type Reading struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Offset is a per-axis zero bias subtracted from every reading.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToReading converts raw counts using the fixed sensitivity scale.
func ToReading(s RawSample) Reading {
	return Reading{
		X: float64(s.X) / AccelScale,
		Y: float64(s.Y) / AccelScale,
		Z: float64(s.Z) / AccelScale,
	}
}

// Sub returns the reading with o removed from every axis.
func (r Reading) Sub(o Offset) Reading {
	return Reading{X: r.X - o.X, Y: r.Y - o.Y, Z: r.Z - o.Z}
}

// Source is anything that can provide raw accelerometer samples.
// A failed read is reported as an error and carries no sample.
type Source interface {
	ReadRaw() (RawSample, error)
}
