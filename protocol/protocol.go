// Package protocol implements the Bluefruit Connect packet format used by
// the remote-control phone app over a UART link.
//
// Every packet is '!', a type byte, a fixed-size payload and a one-byte
// checksum. Multi-byte numbers are little-endian float32.
package protocol

import "errors"

// Protocol constants
const (
	PacketSync    = '!' // First byte of every packet
	PacketHeader  = 2   // Sync + type
	PacketTrailer = 1   // Checksum

	TypeButton        = 'B'
	TypeColor         = 'C'
	TypeAccelerometer = 'A'
	TypeGyro          = 'G'
	TypeMagnetometer  = 'M'
	TypeQuaternion    = 'Q'
	TypeLocation      = 'L'
)

var (
	// ErrChecksum is returned when a packet's checksum does not match
	ErrChecksum = errors.New("protocol: bad packet checksum")

	// ErrUnknownPacket is returned for a type byte this package does not decode
	ErrUnknownPacket = errors.New("protocol: unknown packet type")

	// ErrShortPacket is returned by Parse when data is shorter than the packet
	ErrShortPacket = errors.New("protocol: short packet")
)

// payloadLen is the payload size for each packet type
var payloadLen = map[byte]int{
	TypeButton:        2,
	TypeColor:         3,
	TypeAccelerometer: 12,
	TypeGyro:          12,
	TypeMagnetometer:  12,
	TypeQuaternion:    16,
	TypeLocation:      12,
}

// PacketLen returns the full encoded length of a packet of type typ,
// or 0 if the type is unknown
func PacketLen(typ byte) int {
	n, ok := payloadLen[typ]
	if !ok {
		return 0
	}
	return PacketHeader + n + PacketTrailer
}

// Checksum is the one's complement of the byte sum, truncated to 8 bits
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum
}
