// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// MPU-6050 registers used by the driver.
const (
	regAccelXOutH = 0x3B
	regPwrMgmt1   = 0x6B
	regWhoAmI     = 0x75

	mpu6050ID     = 0x68
	pwrMgmt1Sleep = 0x40

	// DefaultMPU6050Addr is the address with AD0 low.
	DefaultMPU6050Addr = 0x68
	mpu6050BusSpeed    = 400 * physic.KiloHertz
)

// knownWhoAmI lists the WHO_AM_I values of the MPU-6050 and the clones sold on
// GY-521 boards.
var knownWhoAmI = map[byte]bool{mpu6050ID: true, 0x70: true, 0x72: true, 0x98: true}

// MPU6050 reads raw acceleration from an MPU-6050 at its default ±2 g range.
type MPU6050 struct {
	bus    Bus
	closer io.Closer
	logger *zap.SugaredLogger
}

// NewMPU6050 reads WHO_AM_I and wakes the device. An unknown ID is logged, not
// rejected.
func NewMPU6050(bus Bus, logger *zap.SugaredLogger) (*MPU6050, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	id, err := bus.ReadRegister(regWhoAmI, 1)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: read WHO_AM_I: %w", err)
	}
	if !knownWhoAmI[id[0]] {
		logger.Warnf("mpu6050: unexpected WHO_AM_I 0x%02X, continuing", id[0])
	}
	if err := bus.WriteRegister(regPwrMgmt1, 0x00); err != nil {
		return nil, fmt.Errorf("mpu6050: wake: %w", err)
	}
	logger.Infof("mpu6050: awake (WHO_AM_I=0x%02X)", id[0])
	return &MPU6050{bus: bus, logger: logger}, nil
}

// OpenMPU6050 opens the named periph I²C bus at 400 kHz and attaches to addr.
func OpenMPU6050(busName string, addr uint16, logger *zap.SugaredLogger) (*MPU6050, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("mpu6050: open i2c bus %q: %w", busName, err)
	}
	if err := b.SetSpeed(mpu6050BusSpeed); err != nil {
		logger.Warnf("mpu6050: cannot set bus speed to %s: %v", mpu6050BusSpeed, err)
	}
	d, err := NewMPU6050(&I2CBus{Dev: &i2c.Dev{Bus: b, Addr: addr}}, logger)
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	d.closer = b
	return d, nil
}

// Bus exposes the register bus for diagnostics.
func (d *MPU6050) Bus() Bus { return d.bus }

// ReadRaw reads ACCEL_XOUT_H..ACCEL_ZOUT_L in one burst.
func (d *MPU6050) ReadRaw() (imu.RawSample, error) {
	b, err := d.bus.ReadRegister(regAccelXOutH, 6)
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu6050: read accel: %w", err)
	}
	return imu.RawSample{
		X: int16(binary.BigEndian.Uint16(b[0:])),
		Y: int16(binary.BigEndian.Uint16(b[2:])),
		Z: int16(binary.BigEndian.Uint16(b[4:])),
	}, nil
}

// Close puts the device to sleep and releases the bus.
func (d *MPU6050) Close() error {
	err := d.bus.WriteRegister(regPwrMgmt1, pwrMgmt1Sleep)
	if err != nil {
		err = fmt.Errorf("mpu6050: sleep: %w", err)
	}
	if d.closer != nil {
		err = multierr.Append(err, d.closer.Close())
	}
	return err
}
