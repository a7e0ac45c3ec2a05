package protocol

import (
	"encoding/binary"
	"image/color"
	"math"
)

// Key identifies a control pad button in the phone app
type Key byte

const (
	Key1     Key = '1'
	Key2     Key = '2'
	Key3     Key = '3'
	Key4     Key = '4'
	KeyUp    Key = '5'
	KeyDown  Key = '6'
	KeyLeft  Key = '7'
	KeyRight Key = '8'
)

func (k Key) String() string {
	switch k {
	case Key1:
		return "1"
	case Key2:
		return "2"
	case Key3:
		return "3"
	case Key4:
		return "4"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	default:
		return "unknown"
	}
}

// Packet is any decoded packet
type Packet interface {
	Type() byte
}

// ButtonPacket reports a control pad button changing state
type ButtonPacket struct {
	Key     Key
	Pressed bool
}

// ColorPacket carries a color picked in the app
type ColorPacket struct {
	Color color.RGBA
}

// Axes is a three-axis sensor reading
type Axes struct {
	X, Y, Z float32
}

// AccelerometerPacket is the phone's acceleration
type AccelerometerPacket struct{ Axes }

// GyroPacket is the phone's rotation rate
type GyroPacket struct{ Axes }

// MagnetometerPacket is the phone's magnetic field reading
type MagnetometerPacket struct{ Axes }

// QuaternionPacket is the phone's orientation
type QuaternionPacket struct {
	X, Y, Z, W float32
}

// LocationPacket is the phone's GPS fix
type LocationPacket struct {
	Latitude, Longitude, Altitude float32
}

func (ButtonPacket) Type() byte        { return TypeButton }
func (ColorPacket) Type() byte         { return TypeColor }
func (AccelerometerPacket) Type() byte { return TypeAccelerometer }
func (GyroPacket) Type() byte          { return TypeGyro }
func (MagnetometerPacket) Type() byte  { return TypeMagnetometer }
func (QuaternionPacket) Type() byte    { return TypeQuaternion }
func (LocationPacket) Type() byte      { return TypeLocation }

// Parse decodes exactly one packet from the start of data.
// data must begin with the sync byte.
func Parse(data []byte) (Packet, error) {
	if len(data) < PacketHeader || data[0] != PacketSync {
		return nil, ErrShortPacket
	}
	typ := data[1]
	n := PacketLen(typ)
	if n == 0 {
		return nil, ErrUnknownPacket
	}
	if len(data) < n {
		return nil, ErrShortPacket
	}
	if Checksum(data[:n-PacketTrailer]) != data[n-PacketTrailer] {
		return nil, ErrChecksum
	}

	payload := data[PacketHeader : n-PacketTrailer]
	switch typ {
	case TypeButton:
		return ButtonPacket{Key: Key(payload[0]), Pressed: payload[1] == '1'}, nil
	case TypeColor:
		return ColorPacket{Color: color.RGBA{R: payload[0], G: payload[1], B: payload[2], A: 0xff}}, nil
	case TypeAccelerometer:
		return AccelerometerPacket{decodeAxes(payload)}, nil
	case TypeGyro:
		return GyroPacket{decodeAxes(payload)}, nil
	case TypeMagnetometer:
		return MagnetometerPacket{decodeAxes(payload)}, nil
	case TypeQuaternion:
		f := decodeFloats(payload, 4)
		return QuaternionPacket{X: f[0], Y: f[1], Z: f[2], W: f[3]}, nil
	case TypeLocation:
		f := decodeFloats(payload, 3)
		return LocationPacket{Latitude: f[0], Longitude: f[1], Altitude: f[2]}, nil
	}
	return nil, ErrUnknownPacket
}

// Encode builds the wire form of p, checksum included
func Encode(p Packet) []byte {
	out := []byte{PacketSync, p.Type()}

	switch v := p.(type) {
	case ButtonPacket:
		state := byte('0')
		if v.Pressed {
			state = '1'
		}
		out = append(out, byte(v.Key), state)
	case ColorPacket:
		out = append(out, v.Color.R, v.Color.G, v.Color.B)
	case AccelerometerPacket:
		out = appendFloats(out, v.X, v.Y, v.Z)
	case GyroPacket:
		out = appendFloats(out, v.X, v.Y, v.Z)
	case MagnetometerPacket:
		out = appendFloats(out, v.X, v.Y, v.Z)
	case QuaternionPacket:
		out = appendFloats(out, v.X, v.Y, v.Z, v.W)
	case LocationPacket:
		out = appendFloats(out, v.Latitude, v.Longitude, v.Altitude)
	}

	return append(out, Checksum(out))
}

func decodeAxes(payload []byte) Axes {
	f := decodeFloats(payload, 3)
	return Axes{X: f[0], Y: f[1], Z: f[2]}
}

func decodeFloats(payload []byte, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return out
}

func appendFloats(out []byte, values ...float32) []byte {
	var buf [4]byte
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		out = append(out, buf[:]...)
	}
	return out
}
