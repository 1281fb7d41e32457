package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// PWMPin is the part of gpio.PinOut a PWM backlight needs.
type PWMPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// PWMBacklight dims the panel with a PWM pin. Levels run 0..max and are
// scaled onto gpio.DutyMax.
type PWMBacklight struct {
	pin   PWMPin
	freq  physic.Frequency
	max   int
	level int
}

// NewPWMBacklight does not touch the pin until the first SetLevel.
func NewPWMBacklight(pin PWMPin, freq physic.Frequency, max int) (*PWMBacklight, error) {
	if pin == nil {
		return nil, fmt.Errorf("backlight: nil pin")
	}
	if max <= 0 {
		return nil, fmt.Errorf("backlight: max level must be positive, got %d", max)
	}
	return &PWMBacklight{pin: pin, freq: freq, max: max, level: -1}, nil
}

func (b *PWMBacklight) Max() int { return b.max }

// Level returns the last level set, or -1.
func (b *PWMBacklight) Level() int { return b.level }

func (b *PWMBacklight) SetLevel(level int) error {
	if level < 0 || level > b.max {
		return fmt.Errorf("backlight: level %d outside 0..%d", level, b.max)
	}
	duty := gpio.Duty(int64(level) * int64(gpio.DutyMax) / int64(b.max))
	if err := b.pin.PWM(duty, b.freq); err != nil {
		return fmt.Errorf("backlight: pwm %s at %s: %w", duty, b.freq, err)
	}
	b.level = level
	return nil
}

// SysfsBacklight drives a /sys/class/backlight device; its max_brightness is
// the level range.
type SysfsBacklight struct {
	dir string
	max int
}

// OpenSysfsBacklight reads max_brightness from dir.
func OpenSysfsBacklight(dir string) (*SysfsBacklight, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return nil, fmt.Errorf("backlight: %w", err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || max <= 0 {
		return nil, fmt.Errorf("backlight: bad max_brightness %q in %s", strings.TrimSpace(string(raw)), dir)
	}
	return &SysfsBacklight{dir: dir, max: max}, nil
}

func (b *SysfsBacklight) Max() int { return b.max }

func (b *SysfsBacklight) SetLevel(level int) error {
	if level < 0 || level > b.max {
		return fmt.Errorf("backlight: level %d outside 0..%d", level, b.max)
	}
	if err := os.WriteFile(filepath.Join(b.dir, "brightness"), []byte(strconv.Itoa(level)), 0o644); err != nil {
		return fmt.Errorf("backlight: %w", err)
	}
	return nil
}

// NullBacklight accepts every level and remembers the last one.
type NullBacklight struct {
	max   int
	level int
}

func NewNullBacklight(max int) *NullBacklight {
	if max <= 0 {
		max = 1023
	}
	return &NullBacklight{max: max}
}

func (b *NullBacklight) Max() int   { return b.max }
func (b *NullBacklight) Level() int { return b.level }

func (b *NullBacklight) SetLevel(level int) error {
	if level < 0 || level > b.max {
		return fmt.Errorf("backlight: level %d outside 0..%d", level, b.max)
	}
	b.level = level
	return nil
}
