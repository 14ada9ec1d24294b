package lz77

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestRoundTripLiteralRun(t *testing.T) {
	roundTrip(t, []byte("The quick brown fox jumps over the lazy dog."))
}

func TestRoundTripRepeatingRun(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte("ab"), 6))
}

func TestRoundTripLongRepeat(t *testing.T) {
	roundTrip(t, bytes.Repeat([]byte{0x42}, 5000))
}

func TestRoundTripBinary(t *testing.T) {
	b := make([]byte, 2000)
	for i := range b {
		b[i] = byte(i * 7 % 251)
	}
	roundTrip(t, b)
}

func roundTrip(t *testing.T, b []byte) {
	t.Helper()
	c := Compress(b)
	got, err := Decompress(c)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(b))
	}
}

func TestCompressHeaderShape(t *testing.T) {
	c := Compress([]byte("abababababab"))
	if c[0] != 'C' || c[1] != 'M' {
		t.Fatalf("bad magic: %v", c[:2])
	}
	// Literal seed 'a', literal 'b', then a single pair covering the
	// remaining ten bytes: four payload bytes, one flag byte.
	if compSize := binary.LittleEndian.Uint32(c[6:10]); compSize > 4 {
		t.Fatalf("payload is %d bytes, want at most 4", compSize)
	}
	if len(c) != 10+4+1 {
		t.Fatalf("container is %d bytes, want 15", len(c))
	}
}

func TestCompressPrefersNearestMatch(t *testing.T) {
	// Literals "abc", then one pair at offset 3 covering the remaining
	// six bytes by overlapping its own output; it must point back 3 bytes.
	c := Compress([]byte("abcabcabc"))
	payload := c[10 : len(c)-1]
	if len(payload) < 5 {
		t.Fatalf("payload too short: %v", payload)
	}
	word := uint16(payload[3]) | uint16(payload[4])<<8
	if lookback := int(word&0x0fff) + 1; lookback != 3 {
		t.Fatalf("lookback = %d, want 3", lookback)
	}
}

func TestDecompressBadMagic(t *testing.T) {
	if _, err := Decompress([]byte("XXshortbytes")); err != ErrBadMagic {
		t.Fatalf("got %v, want ErrBadMagic", err)
	}
}

func TestDecompressTruncated(t *testing.T) {
	c := Compress([]byte("hello world hello world"))
	if _, err := Decompress(c[:12]); err == nil {
		t.Fatalf("expected error for truncated container")
	}
}
