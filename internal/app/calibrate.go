package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/imu"
	"github.com/relabs-tech/shake_slideshow/internal/motion"
	"github.com/relabs-tech/shake_slideshow/internal/orientation"
	"github.com/relabs-tech/shake_slideshow/internal/sensors"
)

// CalibrationReport is the calibrate command's JSON output.
type CalibrationReport struct {
	Time       time.Time               `json:"time"`
	Sensor     string                  `json:"sensor"`
	Threshold  float64                 `json:"threshold"`
	Offset     imu.Offset              `json:"offset"`
	Stats      motion.CalibrationStats `json:"stats"`
	Confidence float64                 `json:"stillness_confidence"`
	Tilt       orientation.Tilt        `json:"resting_tilt"`
}

// Calibrate runs the bias calibration on src and builds the report.
func Calibrate(cfg *config.Config, src imu.Source, clk clock.Clock) (CalibrationReport, error) {
	offset, stats, err := motion.CalibrateWithStats(src, cfg.CalibrationSamples)
	if err != nil {
		return CalibrationReport{}, err
	}
	return CalibrationReport{
		Time:       clk.Now().UTC(),
		Sensor:     cfg.SensorModel,
		Threshold:  cfg.MotionThreshold,
		Offset:     offset,
		Stats:      stats,
		Confidence: motion.StillnessConfidence(stats.StdDev),
		Tilt:       orientation.FromReading(stats.Mean),
	}, nil
}

// RunCalibration calibrates the configured sensor once and writes the report
// to out. Nothing is persisted.
func RunCalibration(ctx context.Context, cfg *config.Config, out io.Writer, logger *zap.SugaredLogger) (err error) {
	if cfg.SensorModel != config.SensorMock {
		if err := hostInit(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
	}
	clk := clock.New()
	src, err := sensors.NewIMUSource(cfg, clk, logger)
	if err != nil {
		return err
	}
	defer closeSource(src, &err)

	logger.Infof("calibration: keep the board still, reading %d samples", cfg.CalibrationSamples)
	report, err := Calibrate(cfg, src, clk)
	if err != nil {
		return err
	}
	if report.Confidence < 0.5 {
		logger.Warnf("calibration: board was moving (confidence %.2f)", report.Confidence)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
