package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/relabs-tech/shake_slideshow/internal/config"
	"github.com/relabs-tech/shake_slideshow/internal/sensors"
)

// RunRegisterDump reads the MPU-6050 register map and prints it as a table, or
// as JSON when asJSON is set. The dump only reads; opening the device wakes it
// and closing puts it back to sleep.
func RunRegisterDump(cfg *config.Config, out io.Writer, asJSON bool, logger *zap.SugaredLogger) (err error) {
	if cfg.SensorModel != config.SensorMPU6050 {
		return fmt.Errorf("register dump: only %s is supported, SENSOR_MODEL is %q", config.SensorMPU6050, cfg.SensorModel)
	}
	if err := hostInit(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	dev, err := sensors.OpenMPU6050(cfg.IMUI2CBus, cfg.IMUI2CAddr, logger)
	if err != nil {
		return err
	}
	defer closeSource(dev, &err)

	return DumpRegisters(dev.Bus(), out, asJSON)
}

// DumpRegisters formats every readable MPU-6050 register on bus.
func DumpRegisters(bus sensors.Bus, out io.Writer, asJSON bool) error {
	values, err := sensors.DumpRegisters(bus, sensors.MPU6050Registers())
	if err != nil {
		return fmt.Errorf("register dump: %w", err)
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDR\tNAME\tVALUE\tDEFAULT\tFIELDS")
	for _, v := range values {
		fields := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			fields = append(fields, fmt.Sprintf("%s=%d", f.Name, f.Value))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Address, v.Name, v.Value, v.Default, strings.Join(fields, " "))
	}
	return w.Flush()
}
