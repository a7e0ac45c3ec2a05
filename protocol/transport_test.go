package protocol

import "testing"

func TestDecoderSkipsGarbage(t *testing.T) {
	d := NewDecoder()
	in := NewSliceInputBuffer(append([]byte("xx\n"), Encode(ButtonPacket{Key: KeyDown, Pressed: true})...))

	p, err := d.Next(in)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := ButtonPacket{Key: KeyDown, Pressed: true}
	if p != want {
		t.Errorf("Expected %+v, got %+v", want, p)
	}
	if d.Dropped != 3 {
		t.Errorf("Expected 3 dropped bytes, got %d", d.Dropped)
	}
	if in.Available() != 0 {
		t.Errorf("Expected all bytes consumed, %d left", in.Available())
	}
}

func TestDecoderWaitsForCompletePacket(t *testing.T) {
	d := NewDecoder()
	wire := Encode(AccelerometerPacket{Axes{X: 1, Y: 2, Z: 3}})
	in := NewSliceInputBuffer(wire[:7])

	p, err := d.Next(in)
	if p != nil || err != nil {
		t.Fatalf("Expected nothing from a partial packet, got %v, %v", p, err)
	}
	if in.Available() != 7 {
		t.Errorf("Expected partial packet to stay buffered, %d left", in.Available())
	}

	// Just the sync byte is not enough either
	only := NewSliceInputBuffer([]byte{PacketSync})
	if p, err := d.Next(only); p != nil || err != nil {
		t.Errorf("Expected nothing from a lone sync byte, got %v, %v", p, err)
	}
}

func TestDecoderResyncsAfterBadChecksum(t *testing.T) {
	d := NewDecoder()
	bad := Encode(ButtonPacket{Key: KeyLeft, Pressed: true})
	bad[len(bad)-1] ^= 0xff
	good := Encode(ButtonPacket{Key: KeyRight, Pressed: true})
	in := NewSliceInputBuffer(append(bad, good...))

	if _, err := d.Next(in); err != ErrChecksum {
		t.Fatalf("Expected ErrChecksum, got %v", err)
	}

	p, err := d.Next(in)
	if err != nil {
		t.Fatalf("Expected resync, got %v", err)
	}
	if bp, ok := p.(ButtonPacket); !ok || bp.Key != KeyRight {
		t.Errorf("Expected right button packet, got %+v", p)
	}
	if d.BadChecks != 1 || d.Packets != 1 {
		t.Errorf("Expected 1 bad checksum and 1 packet, got %d and %d", d.BadChecks, d.Packets)
	}
}

func TestDecoderUnknownType(t *testing.T) {
	d := NewDecoder()
	in := NewSliceInputBuffer(append([]byte("!?"), Encode(ButtonPacket{Key: Key2})...))

	if _, err := d.Next(in); err != ErrUnknownPacket {
		t.Fatalf("Expected ErrUnknownPacket, got %v", err)
	}
	p, err := d.Next(in)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if bp, ok := p.(ButtonPacket); !ok || bp.Key != Key2 || bp.Pressed {
		t.Errorf("Expected released button 2, got %+v", p)
	}
	if d.Unknown != 1 {
		t.Errorf("Expected 1 unknown packet, got %d", d.Unknown)
	}
}

func TestDecoderFromFifo(t *testing.T) {
	d := NewDecoder()
	fifo := NewFifoBuffer(8)

	// Force the packet to wrap inside the ring
	fifo.Write([]byte("abcde"))
	fifo.Pop(5)
	fifo.Write(Encode(ColorPacket{}))

	p, err := d.Next(fifo)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, ok := p.(ColorPacket); !ok {
		t.Errorf("Expected color packet, got %+v", p)
	}
	if !fifo.IsEmpty() {
		t.Errorf("Expected FIFO drained, %d left", fifo.Available())
	}
}
