package orientation

import (
	"math"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// Tilt is the resting attitude of the board in degrees. Yaw is not observable
// from the accelerometer alone.
type Tilt struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// FromAccel computes roll and pitch from a gravity vector in any unit.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func FromAccel(ax, ay, az float64) Tilt {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Tilt{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromReading is FromAccel on an uncalibrated reading, e.g. the calibration mean.
func FromReading(r imu.Reading) Tilt {
	return FromAccel(r.X, r.Y, r.Z)
}
