// Package robot is the demo robot program: drive with the phone's arrow pad,
// brake with button 1, cycle the light colour with the board buttons, and
// run a light around the pixel ring in the direction of the slide switch.
package robot

import (
	"image/color"

	"github.com/sirupsen/logrus"

	"tickbot/config"
	"tickbot/core"
	"tickbot/protocol"
	"tickbot/remote"
)

// DrivetrainRequirement is the requirement shared by every command that moves the motors
const DrivetrainRequirement core.Requirement = "drivetrain"

var (
	Off    = color.RGBA{A: 0xff}
	Red    = color.RGBA{R: 200, A: 0xff}
	Green  = color.RGBA{G: 200, A: 0xff}
	Blue   = color.RGBA{B: 200, A: 0xff}
	Purple = color.RGBA{R: 120, B: 160, A: 0xff}
	Yellow = color.RGBA{R: 100, G: 100, A: 0xff}
	Aqua   = color.RGBA{G: 100, B: 100, A: 0xff}

	// Palette is cycled by the board buttons
	Palette = []color.RGBA{Purple, Yellow, Green, Blue, Aqua}
)

const (
	idleBrightness    = 0.02
	drivingBrightness = 0.1

	previousColorHz = 300
	nextColorHz     = 400
)

// Controls are the inputs the program binds to. Nil inputs are left unbound.
type Controls struct {
	Brake   core.Sampler
	Forward core.Sampler
	Reverse core.Sampler
	Left    core.Sampler
	Right   core.Sampler

	PreviousColor core.Sampler
	NextColor     core.Sampler
	Switch        core.Sampler
}

// RemoteControls binds the drive inputs to the phone's control pad
func RemoteControls(rc *remote.Remote) Controls {
	return Controls{
		Brake:   rc.Sampler(protocol.Key1),
		Forward: rc.Sampler(protocol.KeyUp),
		Reverse: rc.Sampler(protocol.KeyDown),
		Left:    rc.Sampler(protocol.KeyLeft),
		Right:   rc.Sampler(protocol.KeyRight),
	}
}

// Robot holds the program state. All of it is touched only from the tick
// goroutine.
type Robot struct {
	log   logrus.FieldLogger
	sched *core.Scheduler
	hw    Hardware
	drive *Drivetrain
	cfg   config.DriveConfig
	sw    core.Sampler

	colorIndex   int
	currentPixel float64
	brightness   float64
	step         float64

	// Commands, for inspection
	Forward, Reverse, TurnLeft, TurnRight, Stop core.CommandID
}

// New wires the robot program into sched
func New(sched *core.Scheduler, ctl Controls, hw Hardware, cfg *config.Config, log logrus.FieldLogger) *Robot {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Robot{
		log:        log,
		sched:      sched,
		hw:         hw,
		drive:      NewDrivetrain(hw.LeftMotor, hw.RightMotor, cfg.Drive.Ramp, log),
		cfg:        cfg.Drive,
		sw:         ctl.Switch,
		brightness: idleBrightness,
		step:       cfg.Pixels.PixelsPerSecond / cfg.TicksPerSecond,
	}

	r.Forward = r.driveCommand(r.driveForward)
	r.Reverse = r.driveCommand(r.driveBackward)
	r.TurnLeft = r.driveCommand(r.turnLeft)
	r.TurnRight = r.driveCommand(r.turnRight)
	r.Stop = r.driveCommand(r.stopDriving)

	r.bindDrive(sched, ctl.Forward, r.Forward)
	r.bindDrive(sched, ctl.Reverse, r.Reverse)
	r.bindDrive(sched, ctl.Left, r.TurnLeft)
	r.bindDrive(sched, ctl.Right, r.TurnRight)

	// Bound after the drive buttons so a held brake wins the drivetrain
	if ctl.Brake != nil {
		sched.WhileHeld(sched.NewButton(ctl.Brake), core.Use(r.Stop))
	}

	if ctl.PreviousColor != nil {
		b := sched.NewButton(ctl.PreviousColor)
		sched.WhenPressed(b, core.Run(r.previousColor))
		sched.WhenReleased(b, core.Run(r.endColorChange))
	}
	if ctl.NextColor != nil {
		b := sched.NewButton(ctl.NextColor)
		sched.WhenPressed(b, core.Run(r.nextColor))
		sched.WhenReleased(b, core.Run(r.endColorChange))
	}

	budget := core.BudgetFromRate(cfg.TicksPerSecond)
	sched.AddPerpetual(r.animateLight)
	sched.AddPerpetual(func() {
		r.drive.Update(budget)
		if hw.Plot != nil {
			left, right := r.drive.Throttle()
			hw.Plot(left, right)
		}
	})

	return r
}

func (r *Robot) driveCommand(execute func()) core.CommandID {
	return r.sched.DefineCommand(core.CommandSpec{
		OnExecute:    execute,
		Requirements: []core.Requirement{DrivetrainRequirement},
	})
}

// bindDrive runs cmd while in is held and stops driving on release
func (r *Robot) bindDrive(sched *core.Scheduler, in core.Sampler, cmd core.CommandID) {
	if in == nil {
		return
	}
	b := sched.NewButton(in)
	sched.WhileHeld(b, core.Use(cmd))
	sched.WhenReleased(b, core.Use(r.Stop))
}

// Drivetrain returns the robot's motors
func (r *Robot) Drivetrain() *Drivetrain {
	return r.drive
}

// Color returns the selected palette colour
func (r *Robot) Color() color.RGBA {
	return Palette[r.colorIndex]
}

// CurrentPixel returns the position of the animated light
func (r *Robot) CurrentPixel() float64 {
	return r.currentPixel
}

// Brightness returns the pixel brightness the animation applies
func (r *Robot) Brightness() float64 {
	return r.brightness
}

func (r *Robot) animateLight() {
	n := float64(r.hw.Pixels.Len())
	if r.currentPixel >= n {
		r.currentPixel = 0
	} else if r.currentPixel <= 0 {
		r.currentPixel = n - 1
	}

	r.hw.Pixels.SetBrightness(r.brightness)
	r.hw.Pixels.Fill(Off)
	r.hw.Pixels.Set(int(r.currentPixel), r.Color())
	if err := r.hw.Pixels.Show(); err != nil {
		r.log.WithError(err).Warn("failed to update pixels")
	}

	if r.sw != nil && r.sw() {
		r.currentPixel -= r.step
	} else {
		r.currentPixel += r.step
	}
}

func (r *Robot) nextColor() {
	r.hw.Tone.Stop()
	r.hw.Tone.Start(nextColorHz)
	r.colorIndex = (r.colorIndex + 1) % len(Palette)
	r.log.WithField("color", r.colorIndex).Debug("next color")
}

func (r *Robot) previousColor() {
	r.hw.Tone.Stop()
	r.hw.Tone.Start(previousColorHz)
	r.colorIndex = (r.colorIndex + len(Palette) - 1) % len(Palette)
	r.log.WithField("color", r.colorIndex).Debug("previous color")
}

func (r *Robot) endColorChange() {
	r.hw.Tone.Stop()
}

func (r *Robot) driveForward() {
	r.brightness = drivingBrightness
	r.hw.Pixels.Fill(r.Color())
	r.drive.Set(r.cfg.Forward, r.cfg.Forward)
}

func (r *Robot) driveBackward() {
	r.brightness = drivingBrightness
	r.hw.Pixels.Fill(r.Color())
	r.drive.Set(r.cfg.Reverse, r.cfg.Reverse)
}

// turnRight lights the first half of the ring and slows the right motor
func (r *Robot) turnRight() {
	half := r.hw.Pixels.Len() / 2
	for i := 0; i < half; i++ {
		r.hw.Pixels.Set(i, r.Color())
	}
	r.drive.Set(r.cfg.Forward, r.cfg.Forward*r.cfg.TurnRatio)
}

// turnLeft lights the second half of the ring and slows the left motor
func (r *Robot) turnLeft() {
	n := r.hw.Pixels.Len()
	for i := n / 2; i < n; i++ {
		r.hw.Pixels.Set(i, r.Color())
	}
	r.drive.Set(r.cfg.Forward*r.cfg.TurnRatio, r.cfg.Forward)
}

func (r *Robot) stopDriving() {
	r.brightness = idleBrightness
	r.hw.Pixels.Fill(Red)
	r.drive.Stop()
}
