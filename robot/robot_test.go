package robot

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"tickbot/config"
	"tickbot/core"
)

const testBudget = 33 * time.Millisecond

// input is a settable sampler
type input struct{ value bool }

func (i *input) sample() bool { return i.value }

type rig struct {
	sched  *core.Scheduler
	robot  *Robot
	left   *MockMotor
	right  *MockMotor
	pixels *MockPixels
	tone   *MockTone

	brake, forward, reverse, turnLeft, turnRight input
	prev, next, sw                               input
}

func newRig(t *testing.T, cfg *config.Config) *rig {
	t.Helper()
	logger, _ := test.NewNullLogger()
	clock := core.NewManualClock(time.Time{})
	rg := &rig{
		sched:  core.NewScheduler(core.WithClock(clock), core.WithLogger(logger)),
		left:   NewMockMotor("left", logger),
		right:  NewMockMotor("right", logger),
		pixels: NewMockPixels(cfg.Pixels.Count, logger),
		tone:   NewMockTone(logger),
	}
	ctl := Controls{
		Brake:         rg.brake.sample,
		Forward:       rg.forward.sample,
		Reverse:       rg.reverse.sample,
		Left:          rg.turnLeft.sample,
		Right:         rg.turnRight.sample,
		PreviousColor: rg.prev.sample,
		NextColor:     rg.next.sample,
		Switch:        rg.sw.sample,
	}
	hw := Hardware{LeftMotor: rg.left, RightMotor: rg.right, Pixels: rg.pixels, Tone: rg.tone}
	rg.robot = New(rg.sched, ctl, hw, cfg, logger)
	return rg
}

func (rg *rig) tick() {
	rg.sched.Tick(testBudget, nil)
}

func TestDriveWhileHeldStopsOnRelease(t *testing.T) {
	rg := newRig(t, config.Default())

	// The press itself only arms the button; holding drives
	rg.forward.value = true
	rg.tick()
	if rg.left.Throttle != 0 {
		t.Errorf("Expected no drive on the press tick, got %v", rg.left.Throttle)
	}
	rg.tick()
	if rg.left.Throttle != -1 || rg.right.Throttle != -1 {
		t.Errorf("Expected full forward, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
	if rg.robot.Brightness() != drivingBrightness {
		t.Errorf("Expected driving brightness, got %v", rg.robot.Brightness())
	}

	rg.tick()
	if rg.sched.IsActive(rg.robot.Forward) {
		t.Error("Expected held command to end each tick")
	}

	rg.forward.value = false
	rg.tick()
	if rg.left.Throttle != 0 || rg.right.Throttle != 0 {
		t.Errorf("Expected stop on release, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
	if rg.robot.Brightness() != idleBrightness {
		t.Errorf("Expected idle brightness, got %v", rg.robot.Brightness())
	}
}

func TestReverseAndTurns(t *testing.T) {
	rg := newRig(t, config.Default())

	rg.reverse.value = true
	rg.tick()
	rg.tick()
	if rg.left.Throttle != 0.7 || rg.right.Throttle != 0.7 {
		t.Errorf("Expected reverse, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
	rg.reverse.value = false
	rg.tick()

	rg.turnRight.value = true
	rg.tick()
	rg.tick()
	if rg.left.Throttle != -1 || rg.right.Throttle != -0.5 {
		t.Errorf("Expected right turn, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
	rg.turnRight.value = false
	rg.tick()

	rg.turnLeft.value = true
	rg.tick()
	rg.tick()
	if rg.left.Throttle != -0.5 || rg.right.Throttle != -1 {
		t.Errorf("Expected left turn, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
}

func TestBrakeWinsDrivetrain(t *testing.T) {
	rg := newRig(t, config.Default())

	rg.forward.value = true
	rg.tick()
	rg.tick()

	rg.brake.value = true
	rg.tick()
	rg.tick()
	if rg.left.Throttle != 0 || rg.right.Throttle != 0 {
		t.Errorf("Expected brake to hold motors at zero, got %v / %v", rg.left.Throttle, rg.right.Throttle)
	}
	if rg.sched.IsActive(rg.robot.Forward) {
		t.Error("Expected forward evicted by brake")
	}

	rg.brake.value = false
	rg.tick()
	if rg.left.Throttle != -1 {
		t.Errorf("Expected forward again once brake released, got %v", rg.left.Throttle)
	}
}

func TestColorButtons(t *testing.T) {
	rg := newRig(t, config.Default())

	rg.next.value = true
	rg.tick()
	if rg.robot.Color() != Yellow {
		t.Errorf("Expected yellow, got %v", rg.robot.Color())
	}
	if !rg.tone.Playing || rg.tone.Hz != nextColorHz {
		t.Errorf("Expected %d Hz tone, got %v playing=%v", nextColorHz, rg.tone.Hz, rg.tone.Playing)
	}

	// Holding does not cycle further
	rg.tick()
	if rg.robot.Color() != Yellow {
		t.Errorf("Expected yellow while held, got %v", rg.robot.Color())
	}

	rg.next.value = false
	rg.tick()
	if rg.tone.Playing {
		t.Error("Expected tone stopped on release")
	}

	// Wraps below the first colour
	rg.prev.value = true
	rg.tick()
	rg.prev.value = false
	rg.tick()
	rg.prev.value = true
	rg.tick()
	if rg.robot.Color() != Aqua {
		t.Errorf("Expected aqua after wrapping, got %v", rg.robot.Color())
	}
	if rg.tone.Hz != previousColorHz {
		t.Errorf("Expected %d Hz tone, got %v", previousColorHz, rg.tone.Hz)
	}
}

func TestLightAnimation(t *testing.T) {
	cfg := config.Default()
	cfg.Pixels.PixelsPerSecond = 15 // half a pixel per tick at 30 ticks per second
	rg := newRig(t, cfg)

	// Starting at zero wraps to the last pixel
	rg.tick()
	if rg.pixels.Shown[9] != Purple {
		t.Errorf("Expected light on pixel 9, got %v", rg.pixels.Shown)
	}
	for i := 0; i < 9; i++ {
		if rg.pixels.Shown[i] != Off {
			t.Fatalf("Expected pixel %d off, got %v", i, rg.pixels.Shown[i])
		}
	}
	if rg.pixels.Brightness != idleBrightness {
		t.Errorf("Expected idle brightness, got %v", rg.pixels.Brightness)
	}

	// 9.5 is still pixel 9, then 10 wraps to 0
	rg.tick()
	rg.tick()
	if rg.pixels.Shown[0] != Purple {
		t.Errorf("Expected light wrapped to pixel 0, got %v", rg.pixels.Shown)
	}

	// The switch reverses direction
	rg.sw.value = true
	before := rg.robot.CurrentPixel()
	rg.tick()
	if math.Abs(rg.robot.CurrentPixel()-(before-0.5)) > 1e-9 {
		t.Errorf("Expected light to move back from %v, got %v", before, rg.robot.CurrentPixel())
	}
}

func TestDrivetrainRamp(t *testing.T) {
	logger, _ := test.NewNullLogger()
	left, right := NewMockMotor("left", logger), NewMockMotor("right", logger)
	d := NewDrivetrain(left, right, config.RampConfig{Enabled: true, Kp: 0.5}, logger)

	d.Set(1, -1)
	if left.Throttle != 0 {
		t.Errorf("Expected ramped motor to wait for Update, got %v", left.Throttle)
	}

	d.Update(testBudget)
	if math.Abs(left.Throttle-0.5) > 1e-9 || math.Abs(right.Throttle+0.5) > 1e-9 {
		t.Errorf("Expected half way, got %v / %v", left.Throttle, right.Throttle)
	}

	for i := 0; i < 20; i++ {
		d.Update(testBudget)
	}
	if l, r := d.Throttle(); l != 1 || r != -1 {
		t.Errorf("Expected ramp to settle on target, got %v / %v", l, r)
	}
}

func TestDrivetrainClamps(t *testing.T) {
	logger, _ := test.NewNullLogger()
	left, right := NewMockMotor("left", logger), NewMockMotor("right", logger)
	d := NewDrivetrain(left, right, config.RampConfig{}, logger)

	d.Set(3, -2)
	if left.Throttle != 1 || right.Throttle != -1 {
		t.Errorf("Expected clamped throttles, got %v / %v", left.Throttle, right.Throttle)
	}
	if l, r := d.Target(); l != 1 || r != -1 {
		t.Errorf("Expected clamped targets, got %v / %v", l, r)
	}
}

func TestMockHardwareLogsTestMode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	hw := MockHardware(logger, 10)

	if hook.LastEntry() == nil || hook.LastEntry().Message != "could not connect to the motor board, booting into test mode" {
		t.Fatal("Expected test mode warning")
	}
	hw.LeftMotor.SetThrottle(0.5)
	if hook.LastEntry().Message != "mocking device" || hook.LastEntry().Data["device"] != "left_motor" {
		t.Errorf("Expected first use of the motor to be logged, got %q", hook.LastEntry().Message)
	}
	if hw.Pixels.Len() != 10 {
		t.Errorf("Expected 10 pixels, got %d", hw.Pixels.Len())
	}
}
