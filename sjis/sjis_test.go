package sjis

import "testing"

func TestStarterByteBinarySearch(t *testing.T) {
	if !IsStarterByte(0x82) {
		t.Fatalf("0x82 should be a starter byte")
	}
	if IsStarterByte(0x20) {
		t.Fatalf("0x20 should not be a starter byte")
	}
}

func TestSingleByteRoundTrip(t *testing.T) {
	for b := byte(0xA1); b <= 0xDF; b++ {
		g, ok := ByteToSJIS(b)
		if !ok {
			t.Fatalf("missing mapping for 0x%02x", b)
		}
		wire := ToWire(g, false)
		if len(wire) != 1 || wire[0] != b {
			t.Fatalf("round trip mismatch for 0x%02x: got %v", b, wire)
		}
	}
}

func TestDoubleByteRoundTrip(t *testing.T) {
	g, ok := WordToSJIS(0x82, 0x9f)
	if !ok || g != "ぁ" {
		t.Fatalf("expected ぁ, got %q ok=%v", g, ok)
	}
	wire := ToWire(g, false)
	if len(wire) != 2 || wire[0] != 0x82 || wire[1] != 0x9f {
		t.Fatalf("round trip mismatch: got %v", wire)
	}
}

func TestEngrishRoundTrip(t *testing.T) {
	g, ok := ByteToEngrish('A' | 0x80)
	if !ok || g != "A" {
		t.Fatalf("expected A, got %q ok=%v", g, ok)
	}
	wire := ToWire(g, true)
	if len(wire) != 1 || wire[0] != 'A'|0x80 {
		t.Fatalf("round trip mismatch: got %v", wire)
	}
}
