package sensors

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

// DefaultMockShakeInterval is how often the mock source reports a shake.
const DefaultMockShakeInterval = 10 * time.Second

const mockShakeLength = 500 * time.Millisecond

// MockSource emulates a device lying flat with a little jitter, shaken along x
// for half a second every shakeEvery. The first read after each shake boundary
// always reports the shake, however the caller's sampling is phased.
type MockSource struct {
	clk        clock.Clock
	start      time.Time
	shakeEvery time.Duration
	reported   atomic.Int64 // last shake boundary returned to a reader
}

// NewMockSource starts the mock's timeline at clk.Now(). A non-positive
// shakeEvery disables shakes.
func NewMockSource(clk clock.Clock, shakeEvery time.Duration) *MockSource {
	if clk == nil {
		clk = clock.New()
	}
	return &MockSource{clk: clk, start: clk.Now(), shakeEvery: shakeEvery}
}

func (m *MockSource) ReadRaw() (imu.RawSample, error) {
	elapsed := m.clk.Since(m.start)
	t := elapsed.Seconds()

	// ±0.01 g of jitter
	raw := imu.RawSample{
		X: int16(0.01 * imu.AccelScale * math.Sin(t)),
		Y: int16(0.01 * imu.AccelScale * math.Cos(t*0.7)),
		Z: int16(imu.AccelScale),
	}
	if m.shaking(elapsed) {
		raw.X = int16(1.5 * imu.AccelScale)
	}
	return raw, nil
}

func (m *MockSource) shaking(elapsed time.Duration) bool {
	if m.shakeEvery <= 0 || elapsed < m.shakeEvery {
		return false
	}
	boundary := int64(elapsed / m.shakeEvery)
	if m.reported.Swap(boundary) < boundary {
		return true
	}
	return elapsed%m.shakeEvery < mockShakeLength
}
