// Command tickbot runs the robot program on a Linux board: phone remote over
// a serial link, board buttons and motors on GPIO.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"tickbot/config"
	"tickbot/core"
	"tickbot/host/gpio"
	"tickbot/host/serial"
	"tickbot/link"
	"tickbot/remote"
	"tickbot/robot"
)

var (
	configPath = flag.String("config", "", "YAML config file (built-in defaults if empty)")
	device     = flag.String("device", "", "Serial device for the phone remote (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
	simulate   = flag.Bool("simulate", false, "Run with mock motors instead of GPIO")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("tickbot stopped")
	}
	log.Info("tickbot stopped")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.File != "" {
		log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}))
	}
	return log, nil
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	sched := core.NewScheduler(core.WithLogger(log))
	defer func() {
		st := sched.Stats()
		log.WithFields(logrus.Fields{
			"ticks":    st.Ticks,
			"overruns": st.Overruns,
			"failures": st.Failures,
			"worst_ms": st.WorstOverrun.Milliseconds(),
			"buttons":  st.Buttons,
			"commands": st.Commands,
		}).Info("scheduler totals")
		if st.Overruns > 0 || st.Failures > 0 {
			sched.DumpTimings()
		}
	}()

	rc := remote.New(log)
	ctl := robot.RemoteControls(rc)
	hw, err := setupHardware(cfg, log, &ctl)
	if err != nil {
		return err
	}
	hw.Plot = rc.Plot
	robot.New(sched, ctl, hw, cfg, log)

	if cfg.Serial.Device == "" {
		log.WithError(serial.ErrNoDevice).Warn("running without the phone remote")
		return sched.RunForever(ctx, cfg.TicksPerSecond, rc.Refresh)
	}

	portCfg := serial.DefaultConfig(cfg.Serial.Device)
	portCfg.Baud = cfg.Serial.Baud
	portCfg.ReadTimeout = cfg.Serial.ReadTimeout()

	d := link.New(rc, func() (io.ReadWriteCloser, error) {
		return serial.Open(portCfg)
	}, log.WithField("device", portCfg.Device), link.Options{
		RetryInterval: cfg.Serial.RetryInterval(),
		MaxRetries:    cfg.Serial.MaxRetries,
	})
	return d.Run(ctx, sched, cfg.TicksPerSecond, nil)
}

// setupHardware wires board inputs into ctl and returns the outputs. The host
// has no pixel ring or buzzer, so those are always mocked; motors fall back to
// mocks when GPIO is unavailable.
func setupHardware(cfg *config.Config, log logrus.FieldLogger, ctl *robot.Controls) (robot.Hardware, error) {
	mocks := robot.Hardware{
		Pixels: robot.NewMockPixels(cfg.Pixels.Count, log),
		Tone:   robot.NewMockTone(log),
	}
	if *simulate {
		return robot.MockHardware(log, cfg.Pixels.Count), nil
	}

	drv, err := gpio.Open()
	if err != nil {
		log.WithError(err).Warn("GPIO unavailable")
		return robot.MockHardware(log, cfg.Pixels.Count), nil
	}

	inputs := []struct {
		pin int
		dst *core.Sampler
	}{
		{cfg.GPIO.ButtonA, &ctl.PreviousColor},
		{cfg.GPIO.ButtonB, &ctl.NextColor},
		{cfg.GPIO.Switch, &ctl.Switch},
	}
	for _, in := range inputs {
		if in.pin < 0 {
			continue
		}
		s, err := core.InputPin(drv, core.GPIOPin(in.pin), true)
		if err != nil {
			return robot.Hardware{}, err
		}
		*in.dst = s
	}

	g := cfg.GPIO
	if g.LeftMotorA < 0 || g.LeftMotorB < 0 || g.RightMotorA < 0 || g.RightMotorB < 0 {
		m := robot.MockHardware(log, cfg.Pixels.Count)
		mocks.LeftMotor, mocks.RightMotor = m.LeftMotor, m.RightMotor
		return mocks, nil
	}
	left, err := drv.NewHBridge(core.GPIOPin(g.LeftMotorA), core.GPIOPin(g.LeftMotorB))
	if err != nil {
		return robot.Hardware{}, err
	}
	right, err := drv.NewHBridge(core.GPIOPin(g.RightMotorA), core.GPIOPin(g.RightMotorB))
	if err != nil {
		return robot.Hardware{}, err
	}
	mocks.LeftMotor, mocks.RightMotor = left, right
	return mocks, nil
}
