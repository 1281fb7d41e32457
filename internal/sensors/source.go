package sensors

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// NewIMUSource opens the accelerometer selected by cfg.SensorModel. periph's
// host.Init must already have run for the hardware models. The returned source
// may implement io.Closer.
func NewIMUSource(cfg *config.Config, clk clock.Clock, logger *zap.SugaredLogger) (imu.Source, error) {
	switch cfg.SensorModel {
	case config.SensorMPU6050:
		d, err := OpenMPU6050(cfg.IMUI2CBus, cfg.IMUI2CAddr, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.SensorMPU9250:
		d, err := OpenMPU9250(cfg.IMUSPIDevice, cfg.IMUCSPin, logger)
		if err != nil {
			return nil, err
		}
		return d, nil
	case config.SensorMock:
		logger.Infof("sensors: using mock accelerometer, shake every %v", DefaultMockShakeInterval)
		return NewMockSource(clk, DefaultMockShakeInterval), nil
	default:
		return nil, fmt.Errorf("sensors: unknown sensor model %q", cfg.SensorModel)
	}
}
