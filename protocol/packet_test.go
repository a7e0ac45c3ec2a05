package protocol

import (
	"image/color"
	"testing"
)

func TestButtonPacketWireForm(t *testing.T) {
	testCases := []struct {
		packet ButtonPacket
		wire   string
	}{
		{ButtonPacket{Key: KeyUp, Pressed: true}, "!B516"},
		{ButtonPacket{Key: KeyUp, Pressed: false}, "!B507"},
		{ButtonPacket{Key: Key1, Pressed: true}, "!B11:"},
	}

	for _, tc := range testCases {
		got := string(Encode(tc.packet))
		if got != tc.wire {
			t.Errorf("Encode(%+v): expected %q, got %q", tc.packet, tc.wire, got)
		}

		p, err := Parse([]byte(tc.wire))
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.wire, err)
		}
		if p != tc.packet {
			t.Errorf("Parse(%q): expected %+v, got %+v", tc.wire, tc.packet, p)
		}
	}
}

func TestParseSensorPackets(t *testing.T) {
	packets := []Packet{
		ColorPacket{Color: color.RGBA{R: 200, G: 0, B: 160, A: 0xff}},
		AccelerometerPacket{Axes{X: 0.5, Y: -9.81, Z: 1}},
		QuaternionPacket{X: 0, Y: 0.25, Z: 0.5, W: 1},
		LocationPacket{Latitude: 45.5, Longitude: -122.75, Altitude: 30},
	}

	for _, want := range packets {
		wire := Encode(want)
		if len(wire) != PacketLen(want.Type()) {
			t.Errorf("type %c: expected %d bytes, got %d", want.Type(), PacketLen(want.Type()), len(wire))
		}
		got, err := Parse(wire)
		if err != nil {
			t.Fatalf("type %c: Parse failed: %v", want.Type(), err)
		}
		if got != want {
			t.Errorf("type %c: expected %+v, got %+v", want.Type(), want, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("!B51")); err != ErrShortPacket {
		t.Errorf("Expected ErrShortPacket, got %v", err)
	}
	if _, err := Parse([]byte("!B51X")); err != ErrChecksum {
		t.Errorf("Expected ErrChecksum, got %v", err)
	}
	if _, err := Parse([]byte("!Z123")); err != ErrUnknownPacket {
		t.Errorf("Expected ErrUnknownPacket, got %v", err)
	}
}

func TestKeyString(t *testing.T) {
	if KeyLeft.String() != "left" || Key3.String() != "3" || Key('x').String() != "unknown" {
		t.Error("Unexpected key names")
	}
}
