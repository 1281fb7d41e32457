package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sensor models accepted by SENSOR_MODEL.
const (
	SensorMPU6050 = "mpu6050"
	SensorMPU9250 = "mpu9250"
	SensorMock    = "mock"
)

// Display models accepted by DISPLAY_MODEL.
const (
	DisplayILI9341  = "ili9341"
	DisplayHeadless = "headless"
)

// Config holds all application configuration values.
type Config struct {
	// Accelerometer
	SensorModel  string
	IMUI2CBus    string
	IMUI2CAddr   uint16
	IMUSPIDevice string
	IMUCSPin     string

	// Motion detection
	MotionSampleInterval int     // milliseconds
	MotionThreshold      float64 // g
	CalibrationSamples   int

	// Display
	DisplayModel       string
	DisplaySPIDevice   string
	DisplaySPISpeedHz  int64
	DisplayDCPin       string
	DisplayRSTPin      string
	DisplayWidth       int
	DisplayHeight      int
	BacklightPin       string
	BacklightSysfs     string // if set, used instead of BacklightPin
	BacklightPWMFreqHz int64
	BacklightMaxDuty   int

	// Slideshow
	ImagesDir    string
	FadeDuration int // milliseconds
	FadeSteps    int
	PollInterval int // milliseconds

	LogLevel string
}

// globalConfig is set once by InitGlobal and read through Get.
var (
	globalConfig *Config
	globalErr    error
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys absent from the file. It
// matches a Raspberry Pi with an MPU-6050 on I²C bus 1 and an ILI9341 on SPI0.
func Default() *Config {
	return &Config{
		SensorModel:  SensorMPU6050,
		IMUI2CBus:    "1",
		IMUI2CAddr:   0x68,
		IMUSPIDevice: "/dev/spidev0.1",
		IMUCSPin:     "GPIO7",

		MotionSampleInterval: 1000,
		MotionThreshold:      1.0,
		CalibrationSamples:   127,

		DisplayModel:       DisplayILI9341,
		DisplaySPIDevice:   "/dev/spidev0.0",
		DisplaySPISpeedHz:  20_000_000,
		DisplayDCPin:       "GPIO25",
		DisplayRSTPin:      "GPIO24",
		DisplayWidth:       240,
		DisplayHeight:      320,
		BacklightPin:       "GPIO18",
		BacklightPWMFreqHz: 1000,
		BacklightMaxDuty:   1023,

		ImagesDir:    "pictures",
		FadeDuration: 1000,
		FadeSteps:    20,
		PollInterval: 10,

		LogLevel: "info",
	}
}

// Load reads the configuration file on top of Default and validates the result.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func atoiRange(key, value string, min, max int) (int, error) {
	val, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, val)
	}
	return val, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Accelerometer
	case "SENSOR_MODEL":
		c.SensorModel = strings.ToLower(value)
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 7)
		if perr != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, perr)
		}
		c.IMUI2CAddr = uint16(addr)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// Motion detection
	case "MOTION_SAMPLE_INTERVAL":
		c.MotionSampleInterval, err = atoiRange(key, value, 1, 60_000)
	case "MOTION_THRESHOLD":
		t, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return fmt.Errorf("invalid MOTION_THRESHOLD %q: %w", value, perr)
		}
		if t <= 0 || t > 2 {
			return fmt.Errorf("MOTION_THRESHOLD must be in (0, 2] g, got %v", t)
		}
		c.MotionThreshold = t
	case "CALIBRATION_SAMPLES":
		c.CalibrationSamples, err = atoiRange(key, value, 1, 10_000)

	// Display
	case "DISPLAY_MODEL":
		c.DisplayModel = strings.ToLower(value)
	case "DISPLAY_SPI_DEVICE":
		c.DisplaySPIDevice = value
	case "DISPLAY_SPI_SPEED_HZ":
		hz, perr := strconv.ParseInt(value, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid DISPLAY_SPI_SPEED_HZ %q: %w", value, perr)
		}
		if hz <= 0 {
			return fmt.Errorf("DISPLAY_SPI_SPEED_HZ must be positive, got %d", hz)
		}
		c.DisplaySPISpeedHz = hz
	case "DISPLAY_DC_PIN":
		c.DisplayDCPin = value
	case "DISPLAY_RST_PIN":
		c.DisplayRSTPin = value
	case "DISPLAY_WIDTH":
		c.DisplayWidth, err = atoiRange(key, value, 1, 4096)
	case "DISPLAY_HEIGHT":
		c.DisplayHeight, err = atoiRange(key, value, 1, 4096)
	case "BACKLIGHT_PIN":
		c.BacklightPin = value
	case "BACKLIGHT_SYSFS":
		c.BacklightSysfs = value
	case "BACKLIGHT_PWM_FREQ":
		hz, perr := strconv.ParseInt(value, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid BACKLIGHT_PWM_FREQ %q: %w", value, perr)
		}
		if hz <= 0 {
			return fmt.Errorf("BACKLIGHT_PWM_FREQ must be positive, got %d", hz)
		}
		c.BacklightPWMFreqHz = hz
	case "BACKLIGHT_MAX_DUTY":
		c.BacklightMaxDuty, err = atoiRange(key, value, 1, 65535)

	// Slideshow
	case "IMAGES_DIR":
		c.ImagesDir = value
	case "FADE_DURATION":
		c.FadeDuration, err = atoiRange(key, value, 1, 60_000)
	case "FADE_STEPS":
		c.FadeSteps, err = atoiRange(key, value, 1, 1000)
	case "POLL_INTERVAL":
		c.PollInterval, err = atoiRange(key, value, 1, 10_000)

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// Validate checks cross-field constraints and required fields.
func (c *Config) Validate() error {
	switch c.SensorModel {
	case SensorMPU6050:
		if c.IMUI2CAddr == 0 {
			return fmt.Errorf("IMU_I2C_ADDR is required for %s", c.SensorModel)
		}
	case SensorMPU9250:
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for %s", c.SensorModel)
		}
	case SensorMock:
	default:
		return fmt.Errorf("SENSOR_MODEL must be one of %s, %s, %s, got %q", SensorMPU6050, SensorMPU9250, SensorMock, c.SensorModel)
	}

	switch c.DisplayModel {
	case DisplayILI9341:
		if c.DisplaySPIDevice == "" {
			return fmt.Errorf("DISPLAY_SPI_DEVICE is required for %s", c.DisplayModel)
		}
		if c.DisplayDCPin == "" {
			return fmt.Errorf("DISPLAY_DC_PIN is required for %s", c.DisplayModel)
		}
		if c.BacklightPin == "" && c.BacklightSysfs == "" {
			return fmt.Errorf("BACKLIGHT_PIN or BACKLIGHT_SYSFS is required for %s", c.DisplayModel)
		}
	case DisplayHeadless:
	default:
		return fmt.Errorf("DISPLAY_MODEL must be %s or %s, got %q", DisplayILI9341, DisplayHeadless, c.DisplayModel)
	}

	if c.ImagesDir == "" {
		return fmt.Errorf("IMAGES_DIR is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// SampleInterval is MOTION_SAMPLE_INTERVAL as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.MotionSampleInterval) * time.Millisecond
}

// FadeDurationDur is FADE_DURATION as a duration.
func (c *Config) FadeDurationDur() time.Duration {
	return time.Duration(c.FadeDuration) * time.Millisecond
}

// PollIntervalDur is POLL_INTERVAL as a duration.
func (c *Config) PollIntervalDur() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// InitGlobal loads the global configuration once; later calls return the
// first call's error.
func InitGlobal(configPath string) error {
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, globalErr = Load(configPath)
	})
	return globalErr
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
