package gpio

import (
	"testing"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"tickbot/core"
)

func newTestDriver(pins ...*gpiotest.Pin) *Driver {
	byName := make(map[string]pgpio.PinIO)
	for _, p := range pins {
		byName[p.N] = p
	}
	return NewDriver(func(name string) pgpio.PinIO {
		if p, ok := byName[name]; ok {
			return p
		}
		return nil
	})
}

func TestPullUpInputIsActiveLow(t *testing.T) {
	pin := &gpiotest.Pin{N: "5", Num: 5}
	d := newTestDriver(pin)

	sample, err := core.InputPin(d, 5, true)
	if err != nil {
		t.Fatalf("InputPin failed: %v", err)
	}
	if pin.P != pgpio.PullUp {
		t.Errorf("Expected pull-up, got %v", pin.P)
	}

	pin.L = pgpio.High
	if sample() {
		t.Error("Expected released while the line is high")
	}
	pin.L = pgpio.Low
	if !sample() {
		t.Error("Expected pressed while the line is low")
	}
}

func TestUnknownPin(t *testing.T) {
	d := newTestDriver()

	if err := d.ConfigureOutput(9); err == nil {
		t.Error("Expected error for unknown pin")
	}
	if d.ReadPin(9) {
		t.Error("Expected unknown pin to read low")
	}
}

func TestSetPin(t *testing.T) {
	pin := &gpiotest.Pin{N: "6", Num: 6}
	d := newTestDriver(pin)

	if err := d.ConfigureOutput(6); err != nil {
		t.Fatalf("ConfigureOutput failed: %v", err)
	}
	if err := d.SetPin(6, true); err != nil {
		t.Fatalf("SetPin failed: %v", err)
	}
	if pin.L != pgpio.High {
		t.Errorf("Expected high, got %v", pin.L)
	}
}

func TestHBridgeDirection(t *testing.T) {
	a := &gpiotest.Pin{N: "20", Num: 20}
	b := &gpiotest.Pin{N: "21", Num: 21}
	d := newTestDriver(a, b)

	m, err := d.NewHBridge(20, 21)
	if err != nil {
		t.Fatalf("NewHBridge failed: %v", err)
	}

	if err := m.SetThrottle(0.5); err != nil {
		t.Fatalf("SetThrottle failed: %v", err)
	}
	if a.D != pgpio.DutyMax/2 || b.L != pgpio.Low {
		t.Errorf("Expected half duty on A, got A=%v B=%v", a.D, b.L)
	}

	// Clamped to full reverse
	if err := m.SetThrottle(-3); err != nil {
		t.Fatalf("SetThrottle failed: %v", err)
	}
	if b.D != pgpio.DutyMax || a.L != pgpio.Low {
		t.Errorf("Expected full duty on B, got A=%v B=%v", a.L, b.D)
	}
}
