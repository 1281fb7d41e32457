package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Bus is register-level access to a sensor.
type Bus interface {
	ReadRegister(reg byte, n int) ([]byte, error)
	WriteRegister(reg byte, data ...byte) error
}

// I2CBus addresses one device on a periph I²C bus.
type I2CBus struct {
	Dev *i2c.Dev
}

func (b *I2CBus) ReadRegister(reg byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := b.Dev.Tx([]byte{reg}, buf); err != nil {
		return nil, fmt.Errorf("i2c read 0x%02X: %w", reg, err)
	}
	return buf, nil
}

func (b *I2CBus) WriteRegister(reg byte, data ...byte) error {
	w := append([]byte{reg}, data...)
	if _, err := b.Dev.Write(w); err != nil {
		return fmt.Errorf("i2c write 0x%02X: %w", reg, err)
	}
	return nil
}
