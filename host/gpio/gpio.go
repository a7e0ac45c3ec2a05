// Package gpio drives Linux GPIO pins through periph.io: board buttons and
// switches become core samplers, motor pins become H-bridge outputs.
package gpio

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"tickbot/core"
)

// Lookup resolves a pin name such as "GPIO17" or "17"
type Lookup func(name string) pgpio.PinIO

// Driver implements core.GPIODriver on top of periph.io pins
type Driver struct {
	lookup Lookup

	mu   sync.Mutex
	pins map[core.GPIOPin]pgpio.PinIO
}

// Open initializes the periph host drivers and returns a Driver backed by
// the global pin registry
func Open() (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return NewDriver(gpioreg.ByName), nil
}

// NewDriver returns a Driver resolving pins with lookup
func NewDriver(lookup Lookup) *Driver {
	return &Driver{
		lookup: lookup,
		pins:   make(map[core.GPIOPin]pgpio.PinIO),
	}
}

// Pin resolves a pin number, caching the result
func (d *Driver) Pin(pin core.GPIOPin) (pgpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pins[pin]; ok {
		return p, nil
	}
	p := d.lookup(strconv.Itoa(int(pin)))
	if p == nil {
		return nil, fmt.Errorf("unknown GPIO pin %d", pin)
	}
	d.pins[pin] = p
	return p, nil
}

func (d *Driver) ConfigureOutput(pin core.GPIOPin) error {
	p, err := d.Pin(pin)
	if err != nil {
		return err
	}
	return p.Out(pgpio.Low)
}

func (d *Driver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configureInput(pin, pgpio.PullUp)
}

func (d *Driver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configureInput(pin, pgpio.PullDown)
}

// configureInput sets up a polled input; the tick loop samples it, so no
// edge detection is requested from the kernel
func (d *Driver) configureInput(pin core.GPIOPin, pull pgpio.Pull) error {
	p, err := d.Pin(pin)
	if err != nil {
		return err
	}
	if err := p.In(pull, pgpio.NoEdge); err != nil {
		return fmt.Errorf("failed to configure GPIO %d as input: %w", pin, err)
	}
	return nil
}

func (d *Driver) SetPin(pin core.GPIOPin, value bool) error {
	p, err := d.Pin(pin)
	if err != nil {
		return err
	}
	level := pgpio.Low
	if value {
		level = pgpio.High
	}
	return p.Out(level)
}

// ReadPin reports low for unknown pins
func (d *Driver) ReadPin(pin core.GPIOPin) bool {
	p, err := d.Pin(pin)
	if err != nil {
		return false
	}
	return p.Read() == pgpio.High
}

// DefaultPWMFrequency suits small DC motors
const DefaultPWMFrequency = 1 * physic.KiloHertz

// HBridge is a DC motor on a two-input H-bridge (L9110, DRV8833 style).
// Forward drives PWM on A with B low, reverse swaps the pins.
type HBridge struct {
	a, b pgpio.PinIO
	freq physic.Frequency
}

// NewHBridge configures both inputs low
func (d *Driver) NewHBridge(a, b core.GPIOPin) (*HBridge, error) {
	pa, err := d.Pin(a)
	if err != nil {
		return nil, err
	}
	pb, err := d.Pin(b)
	if err != nil {
		return nil, err
	}
	m := &HBridge{a: pa, b: pb, freq: DefaultPWMFrequency}
	if err := m.SetThrottle(0); err != nil {
		return nil, err
	}
	return m, nil
}

// SetThrottle drives the motor; throttle is clamped to [-1, 1]
func (m *HBridge) SetThrottle(throttle float64) error {
	throttle = math.Max(-1, math.Min(1, throttle))
	duty := pgpio.Duty(math.Abs(throttle) * float64(pgpio.DutyMax))

	drive, idle := m.a, m.b
	if throttle < 0 {
		drive, idle = m.b, m.a
	}
	if err := idle.Out(pgpio.Low); err != nil {
		return err
	}
	if duty == 0 {
		return drive.Out(pgpio.Low)
	}
	return drive.PWM(duty, m.freq)
}
