//go:build circuitplay_bluefruit

package main

import (
	"image/color"
	"machine"
	"math"

	"tinygo.org/x/drivers/l9110x"
	"tinygo.org/x/drivers/ws2812"
)

// ring is the board's NeoPixel ring
type ring struct {
	dev        ws2812.Device
	buf        []color.RGBA
	out        []color.RGBA
	brightness float64
}

func newRing(pin machine.Pin, n int) *ring {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &ring{
		dev:        ws2812.New(pin),
		buf:        make([]color.RGBA, n),
		out:        make([]color.RGBA, n),
		brightness: 1,
	}
}

func (r *ring) Len() int { return len(r.buf) }

func (r *ring) Set(i int, c color.RGBA) {
	if i >= 0 && i < len(r.buf) {
		r.buf[i] = c
	}
}

func (r *ring) Fill(c color.RGBA) {
	for i := range r.buf {
		r.buf[i] = c
	}
}

func (r *ring) SetBrightness(b float64) {
	r.brightness = math.Max(0, math.Min(1, b))
}

// Show scales the buffer by the brightness and writes it out
func (r *ring) Show() error {
	for i, c := range r.buf {
		r.out[i] = color.RGBA{
			R: uint8(float64(c.R) * r.brightness),
			G: uint8(float64(c.G) * r.brightness),
			B: uint8(float64(c.B) * r.brightness),
			A: c.A,
		}
	}
	return r.dev.WriteColors(r.out)
}

// motor is one L9110 channel driven by two PWM outputs
type motor struct {
	dev l9110x.PWMDevice
}

func newMotor(pwm l9110x.PWM, a, b machine.Pin) (*motor, error) {
	ca, err := pwm.Channel(a)
	if err != nil {
		return nil, err
	}
	cb, err := pwm.Channel(b)
	if err != nil {
		return nil, err
	}
	m := &motor{dev: l9110x.NewWithSpeed(ca, cb, pwm)}
	m.dev.Configure()
	return m, nil
}

// SetThrottle maps [-1, 1] onto the driver's 0-100 speed
func (m *motor) SetThrottle(throttle float64) error {
	speed := uint32(math.Min(1, math.Abs(throttle)) * 100)
	switch {
	case speed == 0:
		m.dev.Stop()
	case throttle > 0:
		m.dev.Forward(speed)
	default:
		m.dev.Backward(speed)
	}
	return nil
}

// speaker drives the onboard speaker with a square wave
type speaker struct {
	pwm     *machine.PWM
	channel uint8
	enable  machine.Pin
}

func newSpeaker(pwm *machine.PWM, out, enable machine.Pin) (*speaker, error) {
	if err := pwm.Configure(machine.PWMConfig{}); err != nil {
		return nil, err
	}
	ch, err := pwm.Channel(out)
	if err != nil {
		return nil, err
	}
	enable.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &speaker{pwm: pwm, channel: ch, enable: enable}, nil
}

func (s *speaker) Start(hz float64) {
	if hz <= 0 {
		s.Stop()
		return
	}
	s.pwm.SetPeriod(uint64(1e9 / hz))
	s.pwm.Set(s.channel, s.pwm.Top()/2)
	s.enable.High()
}

func (s *speaker) Stop() {
	s.pwm.Set(s.channel, 0)
	s.enable.Low()
}
