// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package slideshow

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrShortFrame is returned when a frame file ends before the last row.
var ErrShortFrame = errors.New("short frame")

// Sink accepts rectangular pixel blocks. Coordinates are inclusive.
type Sink interface {
	WriteBlock(x0, y0, x1, y1 int, pix []byte) error
}

// Geometry is the frame layout of a raw image file.
type Geometry struct {
	Width         int
	Height        int
	BytesPerPixel int
}

// DefaultGeometry is a 240x320 RGB565 frame.
var DefaultGeometry = Geometry{Width: 240, Height: 320, BytesPerPixel: 2}

// RowBytes is the size of one scanline.
func (g Geometry) RowBytes() int { return g.Width * g.BytesPerPixel }

// FrameBytes is the size of one full frame.
func (g Geometry) FrameBytes() int { return g.RowBytes() * g.Height }

func (g Geometry) validate() error {
	if g.Width <= 0 || g.Height <= 0 || g.BytesPerPixel <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%dx%d", g.Width, g.Height, g.BytesPerPixel)
	}
	return nil
}

// StreamFrame copies one frame from r to sink a scanline at a time, reusing a
// single row buffer; the whole frame is never held in memory.
func StreamFrame(r io.Reader, sink Sink, g Geometry) error {
	if err := g.validate(); err != nil {
		return err
	}
	row := make([]byte, g.RowBytes())
	for y := 0; y < g.Height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("row %d: %w", y, ErrShortFrame)
			}
			return fmt.Errorf("read row %d: %w", y, err)
		}
		if err := sink.WriteBlock(0, y, g.Width-1, y, row); err != nil {
			return fmt.Errorf("write row %d: %w", y, err)
		}
	}
	return nil
}

// RenderFile streams the raw frame stored at path.
func RenderFile(path string, sink Sink, g Geometry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open frame: %w", err)
	}
	defer f.Close()

	if err := StreamFrame(f, sink, g); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
