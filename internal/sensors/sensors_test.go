package sensors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/imu"
	"github.com/relabs-tech/shake_slideshow/internal/motion"
)

func playbackBus(ops ...i2ctest.IO) (*i2ctest.Playback, *I2CBus) {
	p := &i2ctest.Playback{Ops: ops}
	return p, &I2CBus{Dev: &i2c.Dev{Bus: p, Addr: DefaultMPU6050Addr}}
}

var initOps = []i2ctest.IO{
	{Addr: DefaultMPU6050Addr, W: []byte{regWhoAmI}, R: []byte{mpu6050ID}},
	{Addr: DefaultMPU6050Addr, W: []byte{regPwrMgmt1, 0x00}},
}

func TestMPU6050InitAndRead(t *testing.T) {
	ops := append(append([]i2ctest.IO{}, initOps...),
		i2ctest.IO{Addr: DefaultMPU6050Addr, W: []byte{regAccelXOutH}, R: []byte{0x40, 0x00, 0xC0, 0x00, 0x00, 0x10}},
		i2ctest.IO{Addr: DefaultMPU6050Addr, W: []byte{regPwrMgmt1, pwrMgmt1Sleep}},
	)
	p, bus := playbackBus(ops...)

	d, err := NewMPU6050(bus, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)

	raw, err := d.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, imu.RawSample{X: 16384, Y: -16384, Z: 16})

	test.That(t, d.Close(), test.ShouldBeNil)
	test.That(t, p.Close(), test.ShouldBeNil)
}

func TestMPU6050AcceptsCloneIDs(t *testing.T) {
	for _, tc := range []struct {
		id    byte
		warns int
	}{
		{mpu6050ID, 0},
		{0x70, 0},
		{0x72, 0},
		{0x98, 0},
		{0x71, 1},
	} {
		t.Run(fmt.Sprintf("0x%02X", tc.id), func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			bus := &fakeBus{regs: map[byte]byte{regWhoAmI: tc.id}}
			_, err := NewMPU6050(bus, zap.New(core).Sugar())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, bus.writes, test.ShouldResemble, [][]byte{{regPwrMgmt1, 0x00}})
			test.That(t, logs.Len(), test.ShouldEqual, tc.warns)
		})
	}
}

func TestMPU6050WhoAmIReadError(t *testing.T) {
	_, err := NewMPU6050(&fakeBus{err: errors.New("nack")}, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "WHO_AM_I")
}

// fakeBus serves register reads from a map and records writes.
type fakeBus struct {
	regs   map[byte]byte
	writes [][]byte
	err    error
}

func (b *fakeBus) ReadRegister(reg byte, n int) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = b.regs[reg+byte(i)]
	}
	return out, nil
}

func (b *fakeBus) WriteRegister(reg byte, data ...byte) error {
	b.writes = append(b.writes, append([]byte{reg}, data...))
	return b.err
}

func TestMPU6050ReadErrorIsReturned(t *testing.T) {
	bus := &fakeBus{regs: map[byte]byte{regWhoAmI: mpu6050ID}}
	d, err := NewMPU6050(bus, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bus.writes, test.ShouldResemble, [][]byte{{regPwrMgmt1, 0x00}})

	busy := errors.New("arbitration lost")
	bus.err = busy
	_, err = d.ReadRaw()
	test.That(t, errors.Is(err, busy), test.ShouldBeTrue)
}

func TestBitFieldExtract(t *testing.T) {
	for _, tc := range []struct {
		bits string
		v    byte
		want byte
	}{
		{"7:0", 0xA5, 0xA5},
		{"6", 0x40, 1},
		{"6", 0xBF, 0},
		{"4:3", 0x18, 3},
		{"2:0", 0xFD, 5},
	} {
		got, err := BitField{Name: "f", Bits: tc.bits}.Extract(tc.v)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, tc.want)
	}
	_, err := BitField{Name: "f", Bits: "2:5"}.Extract(0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = BitField{Name: "f", Bits: "9"}.Extract(0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRegisterMapFieldsParse(t *testing.T) {
	seen := map[byte]string{}
	for _, r := range MPU6050Registers() {
		prev, dup := seen[r.Address]
		test.That(t, dup, test.ShouldBeFalse)
		if dup {
			t.Logf("0x%02X used by %s and %s", r.Address, prev, r.Name)
		}
		seen[r.Address] = r.Name
		for _, f := range r.BitFields {
			_, err := f.Extract(0)
			test.That(t, err, test.ShouldBeNil)
		}
	}
}

func field(v RegisterValue, name string) byte {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return 0xFF
}

func TestDumpRegisters(t *testing.T) {
	bus := &fakeBus{regs: map[byte]byte{regWhoAmI: mpu6050ID, regPwrMgmt1: 0x40, 0x1C: 0x08}}
	values, err := DumpRegisters(bus, MPU6050Registers())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(values), test.ShouldEqual, len(MPU6050Registers()))

	byName := map[string]RegisterValue{}
	for _, v := range values {
		byName[v.Name] = v
	}
	test.That(t, byName["WHO_AM_I"].Value, test.ShouldEqual, "0x68")
	test.That(t, field(byName["PWR_MGMT_1"], "SLEEP"), test.ShouldEqual, byte(1))
	test.That(t, field(byName["ACCEL_CONFIG"], "AFS_SEL"), test.ShouldEqual, byte(1))
	test.That(t, byName["ACCEL_XOUT_H"].Fields, test.ShouldBeEmpty)
	test.That(t, byName["ACCEL_CONFIG"].Address, test.ShouldEqual, "0x1C")
	test.That(t, bus.writes, test.ShouldBeEmpty)

	bus.err = errors.New("nack")
	_, err = DumpRegisters(bus, MPU6050Registers())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMockSourceShakes(t *testing.T) {
	mock := clock.NewMock()
	src := NewMockSource(mock, 10*time.Second)

	raw, err := src.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw.Z, test.ShouldEqual, int16(imu.AccelScale))
	test.That(t, raw.X, test.ShouldEqual, int16(0))

	mock.Add(10*time.Second + 100*time.Millisecond)
	raw, _ = src.ReadRaw()
	test.That(t, raw.X, test.ShouldEqual, int16(1.5*imu.AccelScale))

	mock.Add(time.Second)
	raw, _ = src.ReadRaw()
	test.That(t, raw.X, test.ShouldBeLessThan, int16(328))

	quiet := NewMockSource(mock, 0)
	mock.Add(time.Hour)
	raw, _ = quiet.ReadRaw()
	test.That(t, raw.X, test.ShouldBeLessThan, int16(328))
}

func TestMockSourceShakesWhateverTheSamplerPhase(t *testing.T) {
	for _, startup := range []time.Duration{100 * time.Millisecond, 600 * time.Millisecond, 999 * time.Millisecond} {
		t.Run(startup.String(), func(t *testing.T) {
			mock := clock.NewMock()
			src := NewMockSource(mock, 10*time.Second)
			off, err := motion.Calibrate(src, 16)
			test.That(t, err, test.ShouldBeNil)

			mock.Add(startup)
			var flag motion.Flag
			s, err := motion.NewSampler(src, motion.NewClassifier(off, 0.5), &flag, time.Second, mock, zaptest.NewLogger(t).Sugar())
			test.That(t, err, test.ShouldBeNil)
			for i := 0; i < 60; i++ {
				mock.Add(time.Second)
				s.Tick()
			}
			test.That(t, s.Stats().Detections, test.ShouldEqual, uint64(6))
		})
	}
}

// fakeAccel stands in for the periph mpu9250 driver.
type fakeAccel struct {
	x, y, z int16
	failOn  string
}

func (f *fakeAccel) read(axis string, v int16) (int16, error) {
	if f.failOn == axis {
		return 0, errors.New(axis + " acceleration disabled")
	}
	return v, nil
}

func (f *fakeAccel) GetAccelerationX() (int16, error) { return f.read("X", f.x) }
func (f *fakeAccel) GetAccelerationY() (int16, error) { return f.read("Y", f.y) }
func (f *fakeAccel) GetAccelerationZ() (int16, error) { return f.read("Z", f.z) }

func TestMPU9250ReadRaw(t *testing.T) {
	dev := &fakeAccel{x: 120, y: -4000, z: 16384}
	s := &MPU9250{dev: dev}
	raw, err := s.ReadRaw()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, raw, test.ShouldResemble, imu.RawSample{X: 120, Y: -4000, Z: 16384})

	for _, axis := range []string{"X", "Y", "Z"} {
		dev.failOn = axis
		_, err := s.ReadRaw()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "mpu9250 accel "+axis)
		test.That(t, err.Error(), test.ShouldContainSubstring, axis+" acceleration disabled")
	}
}

func TestNewIMUSourceMock(t *testing.T) {
	cfg := config.Default()
	cfg.SensorModel = config.SensorMock
	src, err := NewIMUSource(cfg, clock.NewMock(), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	_, ok := src.(*MockSource)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.SensorModel = "adxl345"
	_, err = NewIMUSource(cfg, clock.NewMock(), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldNotBeNil)
}
