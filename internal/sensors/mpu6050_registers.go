// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strconv"
	"strings"
)

// BitField describes a field inside an 8-bit register. Bits is either a
// single bit ("6") or an inclusive high:low range ("4:3").
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo is the metadata of one device register.
type RegisterInfo struct {
	Address     byte       `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// MPU6050Registers returns the registers read by the register dump. FIFO_R_W
// is omitted: reading it pops the FIFO.
func MPU6050Registers() []RegisterInfo {
	return []RegisterInfo{
		// Configuration
		{Address: 0x19, Name: "SMPLRT_DIV", Description: "Sample Rate Divider", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = Gyro_Output_Rate / (1 + SMPLRT_DIV)", Values: "0-255"},
			}},
		{Address: 0x1A, Name: "CONFIG", Description: "Configuration (DLPF)", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "External FSYNC pin sampling", Values: "0=Disabled"},
				{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=260Hz, 1=184Hz, 2=94Hz, 3=44Hz, 4=21Hz, 5=10Hz, 6=5Hz"},
			}},
		{Address: 0x1B, Name: "GYRO_CONFIG", Description: "Gyroscope Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XG_ST", Description: "X Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YG_ST", Description: "Y Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZG_ST", Description: "Z Gyro self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
			}},
		{Address: 0x1C, Name: "ACCEL_CONFIG", Description: "Accelerometer Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "XA_ST", Description: "X Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "6", Name: "YA_ST", Description: "Y Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "ZA_ST", Description: "Z Accel self-test", Values: "0=Disabled, 1=Enabled"},
				{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
			}},

		// Interrupts
		{Address: 0x37, Name: "INT_PIN_CFG", Description: "INT Pin / Bypass Enable Configuration", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
				{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch until cleared"},
				{Bits: "1", Name: "I2C_BYPASS_EN", Description: "Auxiliary I2C bypass", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: 0x38, Name: "INT_ENABLE", Description: "Interrupt Enable", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "FIFO_OFLOW_EN", Description: "FIFO overflow interrupt", Values: "0=Disabled, 1=Enabled"},
				{Bits: "0", Name: "DATA_RDY_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: 0x3A, Name: "INT_STATUS", Description: "Interrupt Status", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "4", Name: "FIFO_OFLOW_INT", Description: "FIFO overflow interrupt status"},
				{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready interrupt status"},
			}},

		// Sensor data
		{Address: 0x3B, Name: "ACCEL_XOUT_H", Description: "Accelerometer X-Axis High Byte", Access: "R"},
		{Address: 0x3C, Name: "ACCEL_XOUT_L", Description: "Accelerometer X-Axis Low Byte", Access: "R"},
		{Address: 0x3D, Name: "ACCEL_YOUT_H", Description: "Accelerometer Y-Axis High Byte", Access: "R"},
		{Address: 0x3E, Name: "ACCEL_YOUT_L", Description: "Accelerometer Y-Axis Low Byte", Access: "R"},
		{Address: 0x3F, Name: "ACCEL_ZOUT_H", Description: "Accelerometer Z-Axis High Byte", Access: "R"},
		{Address: 0x40, Name: "ACCEL_ZOUT_L", Description: "Accelerometer Z-Axis Low Byte", Access: "R"},
		{Address: 0x41, Name: "TEMP_OUT_H", Description: "Temperature High Byte", Access: "R"},
		{Address: 0x42, Name: "TEMP_OUT_L", Description: "Temperature Low Byte", Access: "R"},
		{Address: 0x43, Name: "GYRO_XOUT_H", Description: "Gyroscope X-Axis High Byte", Access: "R"},
		{Address: 0x44, Name: "GYRO_XOUT_L", Description: "Gyroscope X-Axis Low Byte", Access: "R"},
		{Address: 0x45, Name: "GYRO_YOUT_H", Description: "Gyroscope Y-Axis High Byte", Access: "R"},
		{Address: 0x46, Name: "GYRO_YOUT_L", Description: "Gyroscope Y-Axis Low Byte", Access: "R"},
		{Address: 0x47, Name: "GYRO_ZOUT_H", Description: "Gyroscope Z-Axis High Byte", Access: "R"},
		{Address: 0x48, Name: "GYRO_ZOUT_L", Description: "Gyroscope Z-Axis Low Byte", Access: "R"},

		// Power and identification
		{Address: 0x6A, Name: "USER_CTRL", Description: "User Control", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
				{Bits: "5", Name: "I2C_MST_EN", Description: "Enable I2C master", Values: "0=Disabled, 1=Enabled"},
			}},
		{Address: 0x6B, Name: "PWR_MGMT_1", Description: "Power Management 1", Access: "RW", Default: "0x40",
			BitFields: []BitField{
				{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers", Values: "1=Reset"},
				{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
				{Bits: "5", Name: "CYCLE", Description: "Cycle between sleep and sample", Values: "0=Disabled, 1=Enabled"},
				{Bits: "3", Name: "TEMP_DIS", Description: "Disable temperature sensor", Values: "0=Enabled, 1=Disabled"},
				{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL X gyro"},
			}},
		{Address: 0x6C, Name: "PWR_MGMT_2", Description: "Power Management 2", Access: "RW", Default: "0x00",
			BitFields: []BitField{
				{Bits: "7:6", Name: "LP_WAKE_CTRL", Description: "Low power wake-up frequency", Values: "0=1.25Hz, 1=5Hz, 2=20Hz, 3=40Hz"},
				{Bits: "5:3", Name: "STBY_XA_YA_ZA", Description: "Accelerometer axes standby"},
				{Bits: "2:0", Name: "STBY_XG_YG_ZG", Description: "Gyroscope axes standby"},
			}},
		{Address: 0x75, Name: "WHO_AM_I", Description: "Device ID (should be 0x68)", Access: "R", Default: "0x68",
			BitFields: []BitField{
				{Bits: "6:1", Name: "WHO_AM_I", Description: "Upper 6 bits of the I2C address"},
			}},
	}
}

// Extract returns the field's value within v.
func (f BitField) Extract(v byte) (byte, error) {
	hi, lo, err := f.span()
	if err != nil {
		return 0, err
	}
	width := hi - lo + 1
	mask := byte(uint(1)<<width - 1)
	return (v >> lo) & mask, nil
}

func (f BitField) span() (hi, lo uint, err error) {
	parts := strings.SplitN(f.Bits, ":", 2)
	h, err := strconv.ParseUint(parts[0], 10, 3)
	if err != nil {
		return 0, 0, fmt.Errorf("bit field %s: bad bits %q", f.Name, f.Bits)
	}
	l := h
	if len(parts) == 2 {
		l, err = strconv.ParseUint(parts[1], 10, 3)
		if err != nil || l > h {
			return 0, 0, fmt.Errorf("bit field %s: bad bits %q", f.Name, f.Bits)
		}
	}
	return uint(h), uint(l), nil
}

// FieldValue is a decoded bit field.
type FieldValue struct {
	Name  string `json:"name"`
	Value byte   `json:"value"`
}

// RegisterValue is one register as read from the device, with its fields in
// register map order.
type RegisterValue struct {
	Name    string       `json:"name"`
	Address string       `json:"address"`
	Value   string       `json:"value"`
	Default string       `json:"default,omitempty"`
	Fields  []FieldValue `json:"fields,omitempty"`
}

// DumpRegisters reads every readable register in regs, one byte at a time.
// The first bus error aborts the dump.
func DumpRegisters(bus Bus, regs []RegisterInfo) ([]RegisterValue, error) {
	out := make([]RegisterValue, 0, len(regs))
	for _, r := range regs {
		if !strings.Contains(r.Access, "R") {
			continue
		}
		b, err := bus.ReadRegister(r.Address, 1)
		if err != nil {
			return out, fmt.Errorf("register %s (0x%02X): %w", r.Name, r.Address, err)
		}
		rv := RegisterValue{
			Name:    r.Name,
			Address: fmt.Sprintf("0x%02X", r.Address),
			Value:   fmt.Sprintf("0x%02X", b[0]),
			Default: r.Default,
		}
		for _, f := range r.BitFields {
			v, err := f.Extract(b[0])
			if err != nil {
				return out, err
			}
			rv.Fields = append(rv.Fields, FieldValue{Name: f.Name, Value: v})
		}
		out = append(out, rv)
	}
	return out, nil
}
