//go:build circuitplay_bluefruit

package main

import (
	"machine"

	"tickbot/core"
)

// CPBGPIODriver implements core.GPIODriver on nRF52840 pins
type CPBGPIODriver struct {
	// Configured pins; reads of anything else report low
	pins map[core.GPIOPin]machine.Pin
}

// NewCPBGPIODriver creates a GPIO driver for the Circuit Playground Bluefruit
func NewCPBGPIODriver() *CPBGPIODriver {
	return &CPBGPIODriver{pins: make(map[core.GPIOPin]machine.Pin)}
}

func (d *CPBGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: mode})
	d.pins[pin] = p
	return nil
}

func (d *CPBGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *CPBGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *CPBGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin configures the pin as an output on first use
func (d *CPBGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.pins[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		p = d.pins[pin]
	}
	p.Set(value)
	return nil
}

func (d *CPBGPIODriver) ReadPin(pin core.GPIOPin) bool {
	p, ok := d.pins[pin]
	if !ok {
		return false
	}
	return p.Get()
}
