package motion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/relabs-tech/shake_slideshow/internal/imu"
)

var errBusy = errors.New("bus busy")

// scriptedSource replays samples in order; a nil sample entry yields errBusy.
// Once exhausted it keeps returning the last entry.
type scriptedSource struct {
	mu      sync.Mutex
	samples []*imu.RawSample
	reads   int
}

func (s *scriptedSource) ReadRaw() (imu.RawSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reads
	if i >= len(s.samples) {
		i = len(s.samples) - 1
	}
	s.reads++
	if s.samples[i] == nil {
		return imu.RawSample{}, errBusy
	}
	return *s.samples[i], nil
}

func constant(raw imu.RawSample) *scriptedSource {
	return &scriptedSource{samples: []*imu.RawSample{&raw}}
}

func sample(x, y, z int16) *imu.RawSample {
	return &imu.RawSample{X: x, Y: y, Z: z}
}

func TestCalibrateAveragesAndRemovesGravityFromZ(t *testing.T) {
	src := &scriptedSource{samples: []*imu.RawSample{
		sample(1638, -1638, 16384),
		sample(-1638, 1638, 16384),
	}}
	off, err := Calibrate(src, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, off.X, test.ShouldAlmostEqual, 0.0)
	test.That(t, off.Y, test.ShouldAlmostEqual, 0.0)
	test.That(t, off.Z, test.ShouldAlmostEqual, 1.0-imu.Gravity)
	test.That(t, src.reads, test.ShouldEqual, 2)
}

func TestCalibrateDefaultSampleCount(t *testing.T) {
	src := constant(imu.RawSample{Z: 16384})
	_, err := Calibrate(src, DefaultCalibrationSamples)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.reads, test.ShouldEqual, 127)
}

func TestCalibrateFailsOnReadError(t *testing.T) {
	src := &scriptedSource{samples: []*imu.RawSample{sample(0, 0, 16384), nil}}
	_, err := Calibrate(src, 10)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, errBusy), test.ShouldBeTrue)
}

func TestCalibrateRejectsBadArguments(t *testing.T) {
	_, err := Calibrate(nil, 10)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = Calibrate(constant(imu.RawSample{}), 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCalibrateWithStats(t *testing.T) {
	src := &scriptedSource{samples: []*imu.RawSample{
		sample(0, 0, 16384-1638),
		sample(0, 0, 16384+1638),
	}}
	_, stats, err := CalibrateWithStats(src, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stats.Samples, test.ShouldEqual, 2)
	test.That(t, stats.Mean.Z, test.ShouldAlmostEqual, 1.0)
	test.That(t, stats.StdDev.X, test.ShouldAlmostEqual, 0.0)
	test.That(t, stats.StdDev.Z, test.ShouldAlmostEqual, 1638.0/imu.AccelScale)
}

func TestStillnessConfidence(t *testing.T) {
	test.That(t, StillnessConfidence(imu.Reading{}), test.ShouldEqual, 1.0)
	test.That(t, StillnessConfidence(imu.Reading{Z: 1}), test.ShouldEqual, 0.05)
	mid := StillnessConfidence(imu.Reading{Y: 0.02})
	test.That(t, mid, test.ShouldBeBetween, 0.05, 1.0)
}

func TestClassifierBaselineIsAtRest(t *testing.T) {
	baseline := imu.RawSample{X: 321, Y: -1200, Z: 16100}
	off, err := Calibrate(constant(baseline), DefaultCalibrationSamples)
	test.That(t, err, test.ShouldBeNil)

	c := NewClassifier(off, DefaultThreshold)
	res := c.Classify(baseline)
	test.That(t, res.Moving, test.ShouldBeFalse)
	test.That(t, res.Axis, test.ShouldEqual, AxisNone)
	test.That(t, res.Reading.X, test.ShouldAlmostEqual, 0.0)
	test.That(t, res.Reading.Y, test.ShouldAlmostEqual, 0.0)
	// z keeps gravity in the calibrated reading
	test.That(t, res.Reading.Z, test.ShouldAlmostEqual, imu.Gravity)
}

func TestClassifierXYThresholds(t *testing.T) {
	c := NewClassifier(imu.Offset{Z: 1.0 - imu.Gravity}, 1.0)

	for _, tc := range []struct {
		name string
		raw  imu.RawSample
		axis Axis
	}{
		{"rest", imu.RawSample{Z: 16384}, AxisNone},
		{"x just inside", imu.RawSample{X: 16383, Z: 16384}, AxisNone},
		{"x at +T", imu.RawSample{X: 16384, Z: 16384}, AxisX},
		{"x at -T", imu.RawSample{X: -16384, Z: 16384}, AxisX},
		{"y just inside", imu.RawSample{Y: -16383, Z: 16384}, AxisNone},
		{"y at +T", imu.RawSample{Y: 16384, Z: 16384}, AxisY},
		{"y at -T", imu.RawSample{Y: -20000, Z: 16384}, AxisY},
		{"x wins over y", imu.RawSample{X: 20000, Y: 20000, Z: 16384}, AxisX},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := c.Classify(tc.raw)
			test.That(t, res.Axis, test.ShouldEqual, tc.axis)
			test.That(t, res.Moving, test.ShouldEqual, tc.axis != AxisNone)
			test.That(t, c.Moving(tc.raw), test.ShouldEqual, tc.axis != AxisNone)
		})
	}
}

// The z band is offset by Gravity on top of an offset that already had Gravity
// removed. The behaviour is kept as-is: z triggers only when raw z rises more than
// T above its resting value, so a device resting at exactly 1g saturates a ±2g
// sensor just short of the band, and the negative band (z <= -G-T) is unreachable.
func TestClassifierZBandAsymmetry(t *testing.T) {
	off, err := Calibrate(constant(imu.RawSample{Z: 16384}), DefaultCalibrationSamples)
	test.That(t, err, test.ShouldBeNil)
	c := NewClassifier(off, 1.0)

	res := c.Classify(imu.RawSample{Z: 16384 + 8192})
	test.That(t, res.Moving, test.ShouldBeFalse)
	test.That(t, res.Reading.Z, test.ShouldAlmostEqual, imu.Gravity+0.5)

	res = c.Classify(imu.RawSample{Z: 32767})
	test.That(t, res.Moving, test.ShouldBeFalse)
	test.That(t, res.Reading.Z, test.ShouldBeLessThan, imu.Gravity+1.0)

	// resting at 0.5g (tilted) leaves room for the upper band
	tilted := NewClassifier(imu.Offset{Z: 0.5 - imu.Gravity}, 1.0)
	res = tilted.Classify(imu.RawSample{Z: 32767})
	test.That(t, res.Axis, test.ShouldEqual, AxisZ)
	test.That(t, res.Reading.Z, test.ShouldBeGreaterThanOrEqualTo, imu.Gravity+1.0)

	res = c.Classify(imu.RawSample{Z: -32768})
	test.That(t, res.Moving, test.ShouldBeFalse)
	test.That(t, res.Reading.Z, test.ShouldAlmostEqual, -2.0+imu.Gravity-1.0)
}

func TestClassifierDefaultThreshold(t *testing.T) {
	c := NewClassifier(imu.Offset{}, 0)
	test.That(t, c.Threshold(), test.ShouldEqual, DefaultThreshold)
	test.That(t, c.Offset(), test.ShouldResemble, imu.Offset{})
}

func TestAxisString(t *testing.T) {
	test.That(t, AxisX.String(), test.ShouldEqual, "x")
	test.That(t, AxisZ.String(), test.ShouldEqual, "z")
	test.That(t, Axis(42).String(), test.ShouldEqual, "INVALID")
}

func TestFlagTakeClears(t *testing.T) {
	var f Flag
	test.That(t, f.Take(), test.ShouldBeFalse)
	f.Set(true)
	test.That(t, f.Load(), test.ShouldBeTrue)
	test.That(t, f.Take(), test.ShouldBeTrue)
	test.That(t, f.Take(), test.ShouldBeFalse)
	f.Set(true)
	f.Set(false)
	test.That(t, f.Take(), test.ShouldBeFalse)
}

func restClassifier() *Classifier {
	return NewClassifier(imu.Offset{Z: 1.0 - imu.Gravity}, 1.0)
}

func TestSamplerOverwritesFlag(t *testing.T) {
	src := &scriptedSource{samples: []*imu.RawSample{
		sample(20000, 0, 16384),
		sample(0, 0, 16384),
	}}
	var f Flag
	s, err := NewSampler(src, restClassifier(), &f, 0, clock.NewMock(), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	s.Tick()
	test.That(t, f.Load(), test.ShouldBeTrue)
	s.Tick()
	test.That(t, f.Load(), test.ShouldBeFalse)
	test.That(t, s.Stats(), test.ShouldResemble, SamplerStats{Ticks: 2, Detections: 1})
}

func TestSamplerReadErrorLeavesFlagUnchanged(t *testing.T) {
	src := &scriptedSource{samples: []*imu.RawSample{
		sample(20000, 0, 16384),
		nil,
		sample(0, 0, 16384),
		nil,
	}}
	var f Flag
	s, err := NewSampler(src, restClassifier(), &f, time.Second, clock.NewMock(), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	s.Tick()
	test.That(t, f.Load(), test.ShouldBeTrue)
	s.Tick()
	test.That(t, f.Load(), test.ShouldBeTrue)
	s.Tick()
	test.That(t, f.Load(), test.ShouldBeFalse)
	s.Tick()
	test.That(t, f.Load(), test.ShouldBeFalse)
	test.That(t, s.Stats().Skipped, test.ShouldEqual, uint64(2))
}

func TestNewSamplerValidation(t *testing.T) {
	var f Flag
	_, err := NewSampler(nil, restClassifier(), &f, 0, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSampler(constant(imu.RawSample{}), nil, &f, 0, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSampler(constant(imu.RawSample{}), restClassifier(), nil, 0, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSamplerRunTicksOnPeriod(t *testing.T) {
	src := constant(imu.RawSample{X: 20000, Z: 16384})
	var f Flag
	mock := clock.NewMock()
	s, err := NewSampler(src, restClassifier(), &f, time.Second, mock, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Stats().Ticks < 3 && time.Now().Before(deadline) {
		mock.Add(time.Second)
	}
	test.That(t, s.Stats().Ticks, test.ShouldBeGreaterThanOrEqualTo, uint64(3))
	test.That(t, f.Load(), test.ShouldBeTrue)

	cancel()
	test.That(t, errors.Is(<-done, context.Canceled), test.ShouldBeTrue)
}
