package display

import (
	"fmt"
	"io"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/slideshow"
)

// Devices is the opened panel and backlight.
type Devices struct {
	Sink      slideshow.Sink
	Backlight slideshow.Backlight
	Width     int
	Height    int

	closers []io.Closer
}

// Open builds the sink and backlight selected by cfg.DisplayModel. periph's
// host.Init must already have run for ili9341.
func Open(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) (*Devices, error) {
	d := &Devices{Width: cfg.DisplayWidth, Height: cfg.DisplayHeight}
	switch cfg.DisplayModel {
	case config.DisplayHeadless:
		d.Sink = NewHeadless(cfg.DisplayWidth, cfg.DisplayHeight, logger)
		d.Backlight = NewNullBacklight(cfg.BacklightMaxDuty)
		logger.Infof("display: headless %dx%d", cfg.DisplayWidth, cfg.DisplayHeight)
		return d, nil
	case config.DisplayILI9341:
	default:
		return nil, fmt.Errorf("display: unknown model %q", cfg.DisplayModel)
	}

	port, err := spireg.Open(cfg.DisplaySPIDevice)
	if err != nil {
		return nil, fmt.Errorf("display: open SPI %q: %w", cfg.DisplaySPIDevice, err)
	}
	d.closers = append(d.closers, port)

	dc := gpioreg.ByName(cfg.DisplayDCPin)
	if dc == nil {
		return nil, multierr.Append(fmt.Errorf("display: DC pin %q not found", cfg.DisplayDCPin), d.Close())
	}
	var rst gpio.PinOut
	if cfg.DisplayRSTPin != "" {
		p := gpioreg.ByName(cfg.DisplayRSTPin)
		if p == nil {
			return nil, multierr.Append(fmt.Errorf("display: RST pin %q not found", cfg.DisplayRSTPin), d.Close())
		}
		rst = p
	}

	speed := physic.Frequency(cfg.DisplaySPISpeedHz) * physic.Hertz
	panel, err := NewSPI(port, speed, dc, &Opts{Width: cfg.DisplayWidth, Height: cfg.DisplayHeight, RST: rst, Clock: clk})
	if err != nil {
		return nil, multierr.Append(err, d.Close())
	}
	d.Sink = panel
	logger.Infof("display: ili9341 %dx%d on %s at %s", cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplaySPIDevice, speed)

	if cfg.BacklightSysfs != "" {
		bl, err := OpenSysfsBacklight(cfg.BacklightSysfs)
		if err != nil {
			return nil, multierr.Append(err, d.Close())
		}
		d.Backlight = bl
		logger.Infof("display: sysfs backlight %s (max %d)", cfg.BacklightSysfs, bl.Max())
		return d, nil
	}

	pin := gpioreg.ByName(cfg.BacklightPin)
	if pin == nil {
		return nil, multierr.Append(fmt.Errorf("display: backlight pin %q not found", cfg.BacklightPin), d.Close())
	}
	freq := physic.Frequency(cfg.BacklightPWMFreqHz) * physic.Hertz
	bl, err := NewPWMBacklight(pin, freq, cfg.BacklightMaxDuty)
	if err != nil {
		return nil, multierr.Append(err, d.Close())
	}
	d.Backlight = bl
	logger.Infof("display: PWM backlight on %s at %s (max %d)", cfg.BacklightPin, freq, cfg.BacklightMaxDuty)
	return d, nil
}

// Close turns the backlight off and releases the bus.
func (d *Devices) Close() error {
	var err error
	if d.Backlight != nil {
		err = multierr.Append(err, d.Backlight.SetLevel(0))
	}
	for _, c := range d.closers {
		err = multierr.Append(err, c.Close())
	}
	d.closers = nil
	return err
}
