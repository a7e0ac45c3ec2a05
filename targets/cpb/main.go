//go:build circuitplay_bluefruit

// Board build of the robot program for the Circuit Playground Bluefruit: on
// board buttons, slide switch, NeoPixel ring and speaker, L9110 motors on the
// A1-A4 pads, and the phone remote through a Bluefruit UART bridge on the
// TX/RX pads.
package main

import (
	"context"
	"errors"
	"io"
	"machine"
	"time"

	"github.com/sirupsen/logrus"

	"tickbot/config"
	"tickbot/core"
	"tickbot/link"
	"tickbot/remote"
	"tickbot/robot"
)

func main() {
	log := logrus.New()
	log.SetOutput(machine.Serial)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	cfg := config.Default()
	sched := core.NewScheduler(core.WithLogger(log))

	rc := remote.New(log)
	ctl := robot.RemoteControls(rc)

	gpio := NewCPBGPIODriver()
	ctl.PreviousColor = input(gpio, machine.BUTTONA, false, log)
	ctl.NextColor = input(gpio, machine.BUTTONB, false, log)
	ctl.Switch = input(gpio, machine.SLIDER, true, log)

	hw := setupHardware(cfg, log)
	hw.Plot = rc.Plot
	robot.New(sched, ctl, hw, cfg, log)

	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{
		BaudRate: uint32(cfg.Serial.Baud),
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	}); err != nil {
		log.WithError(err).Error("failed to configure remote UART")
	}

	d := link.New(rc, func() (io.ReadWriteCloser, error) {
		return dialUART(uart)
	}, log, link.DefaultOptions())
	if err := d.Run(context.Background(), sched, cfg.TicksPerSecond, nil); err != nil {
		log.WithError(err).Error("tick loop stopped")
	}
}

// input returns a sampler for an onboard input, or nil if it cannot be used
func input(d core.GPIODriver, pin machine.Pin, pullUp bool, log logrus.FieldLogger) core.Sampler {
	s, err := core.InputPin(d, core.GPIOPin(pin), pullUp)
	if err != nil {
		log.WithError(err).WithField("pin", int(pin)).Warn("input unavailable")
		return nil
	}
	return s
}

func setupHardware(cfg *config.Config, log logrus.FieldLogger) robot.Hardware {
	var hw robot.Hardware

	if err := machine.PWM0.Configure(machine.PWMConfig{}); err == nil {
		left, errL := newMotor(machine.PWM0, machine.A1, machine.A2)
		right, errR := newMotor(machine.PWM0, machine.A3, machine.A4)
		if errL == nil && errR == nil {
			hw.LeftMotor, hw.RightMotor = left, right
		}
	}
	if hw.LeftMotor == nil {
		mock := robot.MockHardware(log, cfg.Pixels.Count)
		hw.LeftMotor, hw.RightMotor = mock.LeftMotor, mock.RightMotor
	}

	hw.Pixels = newRing(machine.NEOPIXELS, cfg.Pixels.Count)

	if spk, err := newSpeaker(machine.PWM1, machine.A0, machine.D11); err == nil {
		hw.Tone = spk
	} else {
		log.WithError(err).Warn("speaker unavailable")
		hw.Tone = robot.NewMockTone(log)
	}
	return hw
}

// errNoPeer is returned while the UART bridge has not forwarded any bytes
var errNoPeer = errors.New("no data from the UART bridge yet")

// dialUART succeeds once the bridge has received something from the phone.
// The bridge gives no other sign that a central is connected; the buffered
// bytes stay in the UART for the remote to read.
func dialUART(uart *machine.UART) (io.ReadWriteCloser, error) {
	if uart.Buffered() == 0 {
		return nil, errNoPeer
	}
	return uartStream{uart}, nil
}

// uartStream adapts the UART to the remote's reader goroutine. The UART
// returns no data without blocking, so empty reads yield to the tick loop.
type uartStream struct {
	uart *machine.UART
}

func (s uartStream) Read(b []byte) (int, error) {
	n, err := s.uart.Read(b)
	if n == 0 && err == nil {
		time.Sleep(time.Millisecond)
	}
	return n, err
}

func (s uartStream) Write(b []byte) (int, error) {
	return s.uart.Write(b)
}

// Close is a no-op; the UART stays configured for the next connection
func (s uartStream) Close() error {
	return nil
}
