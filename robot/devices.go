package robot

import (
	"image/color"
	"sync"

	"github.com/sirupsen/logrus"
)

// Motor is a DC motor driven with a throttle in [-1, 1]
type Motor interface {
	SetThrottle(throttle float64) error
}

// Pixels is an addressable LED strip. Changes are buffered until Show.
type Pixels interface {
	Len() int
	Set(i int, c color.RGBA)
	Fill(c color.RGBA)
	SetBrightness(brightness float64)
	Show() error
}

// Tone is the board's buzzer
type Tone interface {
	Start(hz float64)
	Stop()
}

// Hardware is everything the robot program drives
type Hardware struct {
	LeftMotor  Motor
	RightMotor Motor
	Pixels     Pixels
	Tone       Tone

	// Plot, if set, sends values to the phone's plotter
	Plot func(values ...float64)
}

// MockHardware returns logging stand-ins for every device, for running
// without the motor board attached
func MockHardware(log logrus.FieldLogger, pixels int) Hardware {
	log.Warn("could not connect to the motor board, booting into test mode")
	return Hardware{
		LeftMotor:  NewMockMotor("left_motor", log),
		RightMotor: NewMockMotor("right_motor", log),
		Pixels:     NewMockPixels(pixels, log),
		Tone:       NewMockTone(log),
	}
}

// mocked logs the first use of a device at info level and later ones at
// debug level
type mocked struct {
	name string
	log  logrus.FieldLogger
	once sync.Once
}

func (m *mocked) entry() logrus.FieldLogger {
	m.once.Do(func() {
		m.log.WithField("device", m.name).Info("mocking device")
	})
	return m.log.WithField("device", m.name)
}

// MockMotor records the last throttle
type MockMotor struct {
	mocked
	Throttle float64
}

func NewMockMotor(name string, log logrus.FieldLogger) *MockMotor {
	return &MockMotor{mocked: mocked{name: name, log: log}}
}

func (m *MockMotor) SetThrottle(throttle float64) error {
	if throttle != m.Throttle {
		m.entry().WithField("throttle", throttle).Debug("set throttle")
	}
	m.Throttle = throttle
	return nil
}

// MockPixels keeps the pixel buffer and what was last shown
type MockPixels struct {
	mocked
	Buffer     []color.RGBA
	Shown      []color.RGBA
	Brightness float64
	Shows      int
}

func NewMockPixels(n int, log logrus.FieldLogger) *MockPixels {
	return &MockPixels{
		mocked: mocked{name: "pixels", log: log},
		Buffer: make([]color.RGBA, n),
		Shown:  make([]color.RGBA, n),
	}
}

func (p *MockPixels) Len() int { return len(p.Buffer) }

func (p *MockPixels) Set(i int, c color.RGBA) {
	if i >= 0 && i < len(p.Buffer) {
		p.Buffer[i] = c
	}
}

func (p *MockPixels) Fill(c color.RGBA) {
	for i := range p.Buffer {
		p.Buffer[i] = c
	}
}

func (p *MockPixels) SetBrightness(brightness float64) {
	p.Brightness = brightness
}

func (p *MockPixels) Show() error {
	if p.Shows == 0 {
		p.entry()
	}
	copy(p.Shown, p.Buffer)
	p.Shows++
	return nil
}

// MockTone records the tone playing
type MockTone struct {
	mocked
	Hz      float64
	Playing bool
}

func NewMockTone(log logrus.FieldLogger) *MockTone {
	return &MockTone{mocked: mocked{name: "tone", log: log}}
}

func (t *MockTone) Start(hz float64) {
	t.entry().WithField("hz", hz).Debug("start tone")
	t.Hz = hz
	t.Playing = true
}

func (t *MockTone) Stop() {
	t.Playing = false
}
