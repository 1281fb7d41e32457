// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display drives the slideshow's pixel sink and backlight.
package display

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ILI9341 commands.
const (
	cmdSoftReset   = 0x01
	cmdSleepOut    = 0x11
	cmdDisplayOn   = 0x29
	cmdColumnAddr  = 0x2A
	cmdPageAddr    = 0x2B
	cmdMemoryWrite = 0x2C
	cmdMemAccess   = 0x36
	cmdPixelFormat = 0x3A

	madctlMX  = 0x40
	madctlBGR = 0x08
	pixel16   = 0x55
)

// Conn is the part of spi.Conn the driver uses.
type Conn interface {
	Tx(w, r []byte) error
}

// Opts configures an ILI9341.
type Opts struct {
	Width  int
	Height int
	// RST is optional; without it only a software reset is issued.
	RST   gpio.PinOut
	Clock clock.Clock
}

// ILI9341 is a 16-bit RGB565 TFT controller. It implements slideshow.Sink.
type ILI9341 struct {
	c      Conn
	dc     gpio.PinOut
	rst    gpio.PinOut
	clk    clock.Clock
	width  int
	height int
	// addressing scratch, avoids an allocation per row
	window [4]byte
}

// NewSPI connects to p in mode 0 at speed and initializes the panel.
func NewSPI(p spi.Port, speed physic.Frequency, dc gpio.PinOut, opts *Opts) (*ILI9341, error) {
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9341: connect: %w", err)
	}
	return New(c, dc, opts)
}

// New initializes the panel behind c. dc selects command (low) or data (high).
func New(c Conn, dc gpio.PinOut, opts *Opts) (*ILI9341, error) {
	if dc == nil {
		return nil, fmt.Errorf("ili9341: DC pin is required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	d := &ILI9341{
		c:      c,
		dc:     dc,
		rst:    opts.RST,
		clk:    opts.Clock,
		width:  opts.Width,
		height: opts.Height,
	}
	if d.width == 0 {
		d.width = 240
	}
	if d.height == 0 {
		d.height = 320
	}
	if d.clk == nil {
		d.clk = clock.New()
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *ILI9341) init() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9341: reset low: %w", err)
		}
		d.clk.Sleep(50 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9341: reset high: %w", err)
		}
		d.clk.Sleep(50 * time.Millisecond)
	}

	if err := d.command(cmdSoftReset); err != nil {
		return fmt.Errorf("ili9341: soft reset: %w", err)
	}
	d.clk.Sleep(150 * time.Millisecond)
	if err := d.command(cmdSleepOut); err != nil {
		return fmt.Errorf("ili9341: sleep out: %w", err)
	}
	d.clk.Sleep(120 * time.Millisecond)

	for _, c := range []struct {
		cmd  byte
		data []byte
	}{
		{cmdPixelFormat, []byte{pixel16}},
		{cmdMemAccess, []byte{madctlMX | madctlBGR}},
		{cmdDisplayOn, nil},
	} {
		if err := d.command(c.cmd, c.data...); err != nil {
			return fmt.Errorf("ili9341: init 0x%02X: %w", c.cmd, err)
		}
	}
	return nil
}

func (d *ILI9341) command(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.data(data)
}

func (d *ILI9341) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(b, nil)
}

// Bounds returns the panel size in pixels.
func (d *ILI9341) Bounds() (width, height int) { return d.width, d.height }

// WriteBlock sets the address window to the inclusive rectangle and streams
// pix, 2 bytes per pixel, into display RAM.
func (d *ILI9341) WriteBlock(x0, y0, x1, y1 int, pix []byte) error {
	if x0 < 0 || y0 < 0 || x1 >= d.width || y1 >= d.height || x0 > x1 || y0 > y1 {
		return fmt.Errorf("ili9341: block (%d,%d)-(%d,%d) outside %dx%d", x0, y0, x1, y1, d.width, d.height)
	}
	if want := (x1 - x0 + 1) * (y1 - y0 + 1) * 2; len(pix) != want {
		return fmt.Errorf("ili9341: block needs %d bytes, got %d", want, len(pix))
	}
	if err := d.command(cmdColumnAddr, d.span(x0, x1)...); err != nil {
		return fmt.Errorf("ili9341: column address: %w", err)
	}
	if err := d.command(cmdPageAddr, d.span(y0, y1)...); err != nil {
		return fmt.Errorf("ili9341: page address: %w", err)
	}
	if err := d.command(cmdMemoryWrite); err != nil {
		return fmt.Errorf("ili9341: memory write: %w", err)
	}
	if err := d.data(pix); err != nil {
		return fmt.Errorf("ili9341: pixel data: %w", err)
	}
	return nil
}

func (d *ILI9341) span(a, b int) []byte {
	d.window = [4]byte{byte(a >> 8), byte(a), byte(b >> 8), byte(b)}
	return d.window[:]
}

// Fill paints the whole panel with one RGB565 color, a row at a time.
func (d *ILI9341) Fill(c uint16) error {
	row := make([]byte, d.width*2)
	for i := 0; i < len(row); i += 2 {
		row[i], row[i+1] = byte(c>>8), byte(c)
	}
	for y := 0; y < d.height; y++ {
		if err := d.WriteBlock(0, y, d.width-1, y, row); err != nil {
			return err
		}
	}
	return nil
}
