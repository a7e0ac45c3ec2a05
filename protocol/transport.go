package protocol

// DecoderStats counts what a Decoder has seen on its stream
type DecoderStats struct {
	Packets   uint32 // Packets decoded
	Dropped   uint32 // Bytes discarded while searching for a sync byte
	BadChecks uint32 // Packets rejected by checksum
	Unknown   uint32 // Packets with an unknown type byte
}

// Decoder pulls packets out of a byte stream, resynchronising on the sync
// byte after garbage or a corrupt packet
type Decoder struct {
	DecoderStats
}

// NewDecoder creates a Decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Stats returns a snapshot of the counters
func (d *Decoder) Stats() DecoderStats {
	return d.DecoderStats
}

// Next decodes at most one packet from input, popping the bytes it consumes.
// It returns (nil, nil) when input does not yet hold a complete packet.
// On ErrChecksum or ErrUnknownPacket only the sync byte is consumed, so the
// next call resynchronises on whatever follows.
func (d *Decoder) Next(input InputBuffer) (Packet, error) {
	data := input.Data()

	// Skip garbage before the sync byte
	syncPos := -1
	for i, b := range data {
		if b == PacketSync {
			syncPos = i
			break
		}
	}
	if syncPos < 0 {
		d.Dropped += uint32(len(data))
		input.Pop(len(data))
		return nil, nil
	}
	if syncPos > 0 {
		d.Dropped += uint32(syncPos)
		input.Pop(syncPos)
		data = data[syncPos:]
	}

	// Need the type byte to know the length
	if len(data) < PacketHeader {
		return nil, nil
	}

	n := PacketLen(data[1])
	if n == 0 {
		d.Unknown++
		input.Pop(1)
		return nil, ErrUnknownPacket
	}

	// Wait for full packet
	if len(data) < n {
		return nil, nil
	}

	p, err := Parse(data[:n])
	if err != nil {
		if err == ErrChecksum {
			d.BadChecks++
		}
		input.Pop(1)
		return nil, err
	}

	input.Pop(n)
	d.Packets++
	return p, nil
}
