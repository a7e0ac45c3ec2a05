// Package link keeps the remote control connected while the scheduler runs.
// A background connector dials the link with Fibonacci backoff; the tick
// goroutine picks up new connections and notices lost ones in its refresh
// hook, so ticking never waits on the link.
package link

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jeffchao/backoff"
	"github.com/sirupsen/logrus"
	"github.com/tevino/abool"

	"tickbot/core"
	"tickbot/remote"
)

// ErrAlreadyRun is returned by Run on a Driver that already ran
var ErrAlreadyRun = errors.New("link driver already ran")

// State is the connectivity state of the link
type State int

const (
	WaitingForLink State = iota
	Connected
)

func (s State) String() string {
	switch s {
	case WaitingForLink:
		return "waiting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// Dialer opens the stream carrying remote packets
type Dialer func() (io.ReadWriteCloser, error)

// Options tune the reconnect backoff
type Options struct {
	// RetryInterval is the base Fibonacci interval and the pause between rounds
	RetryInterval time.Duration

	// MaxRetries is the number of attempts in one backoff round
	MaxRetries int
}

// DefaultOptions retries every second, ten attempts per round
func DefaultOptions() Options {
	return Options{RetryInterval: time.Second, MaxRetries: 10}
}

// Driver owns the connection lifecycle of a Remote
type Driver struct {
	log    logrus.FieldLogger
	remote *remote.Remote
	dial   Dialer
	opts   Options

	conns     chan io.ReadWriteCloser
	redial    chan struct{}
	connected *abool.AtomicBool
	ran       *abool.AtomicBool

	// Owned by the tick goroutine
	state   State
	conn    io.ReadWriteCloser
	session string
	links   int
}

// New creates a Driver for r. A zero RetryInterval uses the defaults.
func New(r *remote.Remote, dial Dialer, log logrus.FieldLogger, opts Options) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.RetryInterval <= 0 {
		opts = DefaultOptions()
	}
	return &Driver{
		log:       log,
		remote:    r,
		dial:      dial,
		opts:      opts,
		conns:     make(chan io.ReadWriteCloser),
		redial:    make(chan struct{}, 1),
		connected: abool.New(),
		ran:       abool.New(),
	}
}

// Run connects in the background and drives sched until ctx is done. hook,
// if set, runs every tick after the remote is refreshed.
func (d *Driver) Run(ctx context.Context, sched *core.Scheduler, ticksPerSecond float64, hook func()) error {
	if !d.ran.SetToIf(false, true) {
		return ErrAlreadyRun
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.log.Info("waiting for connection")
	go d.connectLoop(ctx)

	err := sched.RunForever(ctx, ticksPerSecond, func() {
		d.Refresh()
		if hook != nil {
			hook()
		}
	})
	d.disconnect()
	return err
}

// Refresh is the per-tick hook: adopt a new connection, notice a lost one,
// then refresh the remote
func (d *Driver) Refresh() {
	switch d.state {
	case WaitingForLink:
		select {
		case conn := <-d.conns:
			d.attach(conn)
		default:
		}
	case Connected:
		select {
		case err := <-d.remote.Err():
			d.lost(err)
		default:
		}
	}
	d.remote.Refresh()
}

// State returns the current state; call it from the tick goroutine
func (d *Driver) State() State {
	return d.state
}

// Connected reports whether a link is up; safe from any goroutine
func (d *Driver) Connected() bool {
	return d.connected.IsSet()
}

func (d *Driver) attach(conn io.ReadWriteCloser) {
	d.conn = conn
	d.session = uuid.New().String()
	d.links++
	d.remote.Attach(conn)
	d.state = Connected
	d.connected.Set()
	d.log.WithFields(logrus.Fields{
		"session": d.session,
		"links":   d.links,
	}).Info("connected")
}

func (d *Driver) lost(err error) {
	d.log.WithError(err).WithField("session", d.session).Warn("lost connection")
	d.disconnect()
	d.log.Info("waiting for connection")

	select {
	case d.redial <- struct{}{}:
	default:
	}
}

func (d *Driver) disconnect() {
	if d.conn == nil {
		return
	}
	d.remote.Detach()
	if err := d.conn.Close(); err != nil {
		d.log.WithError(err).Debug("failed to close link")
	}
	d.conn = nil
	d.session = ""
	d.state = WaitingForLink
	d.connected.UnSet()
}

// connectLoop dials until a connection is handed to the tick goroutine, then
// waits for it to be lost before dialing again
func (d *Driver) connectLoop(ctx context.Context) {
	for {
		conn, err := d.dialRound(ctx)
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			d.log.WithError(err).Warn("connection attempts failed; retrying")
			if !sleepCtx(ctx, d.opts.RetryInterval) {
				return
			}
			continue
		}

		select {
		case d.conns <- conn:
		case <-ctx.Done():
			conn.Close()
			return
		}

		select {
		case <-d.redial:
		case <-ctx.Done():
			return
		}
	}
}

// dialRound makes one Fibonacci backoff round of connection attempts
func (d *Driver) dialRound(ctx context.Context) (io.ReadWriteCloser, error) {
	var conn io.ReadWriteCloser

	f := backoff.Fibonacci()
	f.Interval = d.opts.RetryInterval
	f.MaxRetries = d.opts.MaxRetries
	err := f.Retry(func() error {
		if ctx.Err() != nil {
			return nil
		}
		c, err := d.dial()
		if err != nil {
			d.log.WithError(err).Debug("connection attempt failed")
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
