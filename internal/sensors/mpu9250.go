// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// accelerometer is the part of the periph mpu9250 driver the source reads.
type accelerometer interface {
	GetAccelerationX() (int16, error)
	GetAccelerationY() (int16, error)
	GetAccelerationZ() (int16, error)
}

// MPU9250 reads acceleration from an MPU-9250 over SPI through the periph
// driver. Gyro and magnetometer are left unused.
type MPU9250 struct {
	dev accelerometer
}

// OpenMPU9250 initializes the MPU-9250 on spiDev with chip select csPin.
func OpenMPU9250(spiDev, csPin string, logger *zap.SugaredLogger) (*MPU9250, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("mpu9250: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: initialization: %w", err)
	}
	logger.Infof("mpu9250: initialized on %s (cs %s)", spiDev, csPin)
	return &MPU9250{dev: dev}, nil
}

// ReadRaw reads the three accelerometer axes.
func (s *MPU9250) ReadRaw() (imu.RawSample, error) {
	ax, err := s.dev.GetAccelerationX()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel X: %w", err)
	}
	ay, err := s.dev.GetAccelerationY()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel Y: %w", err)
	}
	az, err := s.dev.GetAccelerationZ()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel Z: %w", err)
	}
	return imu.RawSample{X: ax, Y: ay, Z: az}, nil
}
