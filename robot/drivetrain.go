package robot

import (
	"math"
	"time"

	"github.com/felixge/pidctrl"
	"github.com/sirupsen/logrus"

	"tickbot/config"
)

// Drivetrain is the pair of drive motors. With ramping enabled each motor
// is eased toward its target throttle by a PID controller, once per tick.
type Drivetrain struct {
	log         logrus.FieldLogger
	left, right Motor

	ramp              bool
	leftPID, rightPID *pidctrl.PIDController

	leftTarget, rightTarget float64
	leftOutput, rightOutput float64
}

// NewDrivetrain builds a drivetrain with the given ramp settings
func NewDrivetrain(left, right Motor, ramp config.RampConfig, log logrus.FieldLogger) *Drivetrain {
	d := &Drivetrain{log: log, left: left, right: right, ramp: ramp.Enabled}
	if ramp.Enabled {
		d.leftPID = newRampPID(ramp)
		d.rightPID = newRampPID(ramp)
	}
	return d
}

func newRampPID(ramp config.RampConfig) *pidctrl.PIDController {
	pid := pidctrl.NewPIDController(ramp.Kp, ramp.Ki, ramp.Kd)
	pid.SetOutputLimits(-2, 2)
	return pid
}

// Set changes the target throttles. Without ramping the motors follow at once.
func (d *Drivetrain) Set(left, right float64) {
	d.leftTarget = clampThrottle(left)
	d.rightTarget = clampThrottle(right)
	if !d.ramp {
		d.apply(d.leftTarget, d.rightTarget)
	}
}

// Stop sets both targets to zero
func (d *Drivetrain) Stop() {
	d.Set(0, 0)
}

// Update moves the outputs one tick toward the targets
func (d *Drivetrain) Update(dt time.Duration) {
	if !d.ramp {
		return
	}
	d.leftPID.Set(d.leftTarget)
	d.rightPID.Set(d.rightTarget)
	left := settle(d.leftOutput+d.leftPID.UpdateDuration(d.leftOutput, dt), d.leftTarget)
	right := settle(d.rightOutput+d.rightPID.UpdateDuration(d.rightOutput, dt), d.rightTarget)
	d.apply(left, right)
}

// Throttle returns the throttles last sent to the motors
func (d *Drivetrain) Throttle() (left, right float64) {
	return d.leftOutput, d.rightOutput
}

// Target returns the requested throttles
func (d *Drivetrain) Target() (left, right float64) {
	return d.leftTarget, d.rightTarget
}

func (d *Drivetrain) apply(left, right float64) {
	left, right = clampThrottle(left), clampThrottle(right)
	if err := d.left.SetThrottle(left); err != nil {
		d.log.WithError(err).Warn("failed to set left motor throttle")
	}
	if err := d.right.SetThrottle(right); err != nil {
		d.log.WithError(err).Warn("failed to set right motor throttle")
	}
	d.leftOutput, d.rightOutput = left, right
}

// settle snaps v to target once within a hundredth
func settle(v, target float64) float64 {
	if math.Abs(v-target) < 0.01 {
		return target
	}
	return v
}

func clampThrottle(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
