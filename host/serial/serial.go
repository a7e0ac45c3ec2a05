// Package serial opens the UART that carries the phone remote's packets,
// typically a Bluetooth LE UART bridge or a USB serial adapter.
package serial

import (
	"io"
	"time"
)

// Port is an open serial link. Reads return io.EOF when the read timeout
// expires with no data.
type Port interface {
	io.ReadWriteCloser

	// Flush blocks until written bytes have been handed to the driver.
	// Implementations whose Write already does so return nil at once.
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "/dev/rfcomm0", "COM3")
	Device string

	Baud int

	// ReadTimeout bounds each Read; zero blocks until data arrives
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings of the Bluefruit UART bridge
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: 100 * time.Millisecond,
	}
}
