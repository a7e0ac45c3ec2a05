// Package remote holds the state of the phone remote control: its control pad
// buttons and the latest sensor readings it streamed. The state is refreshed
// once per tick from a byte stream carrying Bluefruit Connect packets.
package remote

import (
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tickbot/core"
	"tickbot/protocol"
)

const (
	fifoSize    = 512
	readBufSize = 64
)

// Remote is the phone's state as last reported. Everything except the
// receive FIFO is owned by the tick goroutine.
type Remote struct {
	log     logrus.FieldLogger
	decoder *protocol.Decoder

	// Receive side, shared with the reader goroutine
	mu   sync.Mutex
	fifo *protocol.FifoBuffer

	port    io.Writer
	stop    chan struct{}
	readErr chan error
	pending []float64

	keys map[protocol.Key]bool

	Acceleration *protocol.Axes
	Magnetometer *protocol.Axes
	Gyro         *protocol.Axes
	Quaternion   *protocol.QuaternionPacket
	Color        *color.RGBA
	Location     *protocol.LocationPacket
}

// New creates a detached Remote
func New(log logrus.FieldLogger) *Remote {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Remote{
		log:     log,
		decoder: protocol.NewDecoder(),
		fifo:    protocol.NewFifoBuffer(fifoSize),
		readErr: make(chan error, 1),
		keys:    make(map[protocol.Key]bool),
	}
}

// Attach starts receiving from rw. Any previous stream is detached first.
func (r *Remote) Attach(rw io.ReadWriter) {
	r.Detach()

	r.mu.Lock()
	r.fifo.Reset()
	r.mu.Unlock()

	// Drop an error left over from the previous stream
	select {
	case <-r.readErr:
	default:
	}

	r.port = rw
	r.stop = make(chan struct{})
	go r.readLoop(rw, r.stop)
}

// Detach stops receiving, drops pending plot values and releases every key,
// so while-held commands stop when the link goes away
func (r *Remote) Detach() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
	r.port = nil
	r.pending = nil
	for k := range r.keys {
		r.keys[k] = false
	}
}

// Attached reports whether a stream is attached
func (r *Remote) Attached() bool {
	return r.port != nil
}

// Err delivers the error that stopped the reader goroutine. At most one error
// is buffered; later ones are dropped until it is drained.
func (r *Remote) Err() <-chan error {
	return r.readErr
}

// Plot replaces the values sent as a CSV line on the next refresh
func (r *Remote) Plot(values ...float64) {
	r.pending = append(r.pending[:0], values...)
}

// Pressed reports whether key is currently held down in the app
func (r *Remote) Pressed(key protocol.Key) bool {
	return r.keys[key]
}

// Sampler returns an input for key, to register as a scheduler button
func (r *Remote) Sampler(key protocol.Key) core.Sampler {
	return func() bool { return r.Pressed(key) }
}

// Refresh writes pending plot values, then applies at most one buffered
// packet, so a press and its release always land on separate ticks.
func (r *Remote) Refresh() {
	if r.port == nil {
		return
	}

	if len(r.pending) > 0 {
		if _, err := io.WriteString(r.port, formatPlot(r.pending)); err != nil {
			r.log.WithError(err).Warn("failed to send plot values")
		}
		r.pending = nil
	}

	r.mu.Lock()
	var (
		p   protocol.Packet
		err error
	)
	if !r.fifo.IsEmpty() {
		p, err = r.decoder.Next(r.fifo)
	}
	r.mu.Unlock()

	if err != nil {
		r.log.WithError(err).Debug("dropped remote packet")
		return
	}
	if p != nil {
		r.apply(p)
	}
}

// apply folds one packet into the state
func (r *Remote) apply(p protocol.Packet) {
	switch v := p.(type) {
	case protocol.ButtonPacket:
		r.keys[v.Key] = v.Pressed
	case protocol.AccelerometerPacket:
		axes := v.Axes
		r.Acceleration = &axes
	case protocol.MagnetometerPacket:
		axes := v.Axes
		r.Magnetometer = &axes
	case protocol.GyroPacket:
		axes := v.Axes
		r.Gyro = &axes
	case protocol.QuaternionPacket:
		r.Quaternion = &v
	case protocol.ColorPacket:
		c := v.Color
		r.Color = &c
	case protocol.LocationPacket:
		r.Location = &v
	}
}

// readLoop copies bytes from the stream into the FIFO until stopped or the
// stream fails. io.EOF is a read timeout on a serial port, not a hangup.
func (r *Remote) readLoop(rd io.Reader, stop chan struct{}) {
	buf := make([]byte, readBufSize)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := rd.Read(buf)
		if n > 0 {
			r.mu.Lock()
			// Bytes read after Detach belong to the old stream
			select {
			case <-stop:
				r.mu.Unlock()
				return
			default:
			}
			if written := r.fifo.Write(buf[:n]); written < n {
				r.log.WithField("dropped", n-written).Warn("remote receive buffer full")
			}
			r.mu.Unlock()
		}

		switch {
		case err == nil:
		case err == io.EOF:
			if n == 0 {
				// Keep a closed pipe from spinning
				time.Sleep(time.Millisecond)
			}
		default:
			select {
			case <-stop:
				return
			default:
			}
			select {
			case r.readErr <- err:
			default:
			}
			return
		}
	}
}

// Stats returns the decoder's counters
func (r *Remote) Stats() protocol.DecoderStats {
	return r.decoder.Stats()
}

func formatPlot(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",") + "\n"
}
