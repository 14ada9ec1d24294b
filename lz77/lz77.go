// Package lz77 implements the bounded-window LZ77 codec used to compress
// "CM" blobs: a 12-bit lookback / 4-bit length pair format with a
// trailing, byte-packed flag-bit stream rather than an inline flag bit
// per the more common interleaved layouts.
package lz77

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/duskforge/romkit/internal/bitio"
	"github.com/duskforge/romkit/internal/pool"
	"github.com/duskforge/romkit/internal/romlog"
)

// Magic is the two-byte container signature.
var Magic = [2]byte{'C', 'M'}

const (
	minMatch = 3
	maxMatch = 18
	window   = 4095
)

var (
	ErrBadMagic    = errors.New("lz77: bad magic")
	ErrTruncated   = errors.New("lz77: truncated container")
	ErrTruncatedOp = errors.New("lz77: truncated compressed unit")
)

// Compress produces a deterministic "CM" container for b. It never errors:
// any input, including the empty slice, has a valid encoding.
func Compress(b []byte) []byte {
	payload, flags := compressPayload(b)

	out := pool.Get(10 + len(payload) + len(flags))
	out = out[:0]
	out = append(out, Magic[0], Magic[1])
	out = binary.LittleEndian.AppendUint32(out, uint32(len(b)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, payload...)
	out = append(out, flags...)

	result := make([]byte, len(out))
	copy(result, out)
	pool.Put(out)
	return result
}

// Decompress unpacks a "CM" container, returning the decompressed bytes.
// Structural corruption (an over-long decompression) is logged and the
// output is truncated to the declared size rather than returned as an
// error; only a bad magic, a truncated container or a truncated
// compressed unit is an error.
func Decompress(b []byte) ([]byte, error) {
	if len(b) < 10 || b[0] != Magic[0] || b[1] != Magic[1] {
		return nil, ErrBadMagic
	}
	decoSize := binary.LittleEndian.Uint32(b[2:6])
	compSize := binary.LittleEndian.Uint32(b[6:10])
	if uint32(len(b)-10) < compSize {
		return nil, fmt.Errorf("%w: need %d compressed bytes, have %d", ErrTruncated, compSize, len(b)-10)
	}
	payload := b[10 : 10+int(compSize)]
	flags := b[10+int(compSize):]

	out := make([]byte, 0, decoSize)
	fr := bitio.NewFlagReader(flags)
	i := 0
	first := true
	for i < len(payload) {
		bit, ok := fr.ReadBit()
		if !ok {
			// Source seeds the first unit as a literal unconditionally;
			// beyond that, an exhausted flag stream means we're done.
			if !first {
				break
			}
			bit = false
		}
		first = false

		if !bit {
			out = append(out, payload[i])
			i++
			continue
		}

		if i+1 >= len(payload) {
			return nil, ErrTruncatedOp
		}
		word := uint16(payload[i]) | uint16(payload[i+1])<<8
		i += 2
		lookback := int(word&0x0FFF) + 1
		length := int(word>>12) + 3

		if lookback > len(out) {
			romlog.Warn("lz77: lookback exceeds output so far, truncating", romlog.Fields{
				"lookback": lookback, "have": len(out),
			})
			break
		}
		start := len(out) - lookback
		for n := 0; n < length; n++ {
			out = append(out, out[start+n])
		}

		if uint32(len(out)) > decoSize {
			romlog.Warn("lz77: decompression exceeded declared size, truncating", romlog.Fields{
				"declared": decoSize, "got": len(out),
			})
			return out[:decoSize], nil
		}
	}

	if uint32(len(out)) != decoSize {
		romlog.Warn("lz77: decompressed size mismatch", romlog.Fields{
			"declared": decoSize, "got": len(out),
		})
	}
	return out, nil
}

// compressPayload runs the greedy longest-match search and returns the
// interleaved literal/pair payload plus the packed flag-bit trailer.
func compressPayload(b []byte) (payload, flags []byte) {
	fw := bitio.NewFlagWriter()
	out := make([]byte, 0, len(b))

	i := 0
	for i < len(b) {
		// The first output unit is always a literal seed.
		if i == 0 {
			out = append(out, b[0])
			fw.WriteBit(false)
			i++
			continue
		}

		bestLen, bestLookback := longestMatch(b, i)
		if bestLen >= minMatch {
			lookback := bestLookback - 1
			length := bestLen - 3
			word := uint16(lookback&0x0FFF) | uint16(length&0x0F)<<12
			out = append(out, byte(word), byte(word>>8))
			fw.WriteBit(true)
			i += bestLen
			continue
		}

		out = append(out, b[i])
		fw.WriteBit(false)
		i++
	}

	return out, fw.Bytes()
}

// longestMatch scans the 4095-byte window behind position i for the
// longest run of length in [minMatch, maxMatch] that matches b[i:],
// nearest candidate first so ties keep the smallest lookback. It returns
// (0, 0) if no run of at least minMatch bytes is found.
func longestMatch(b []byte, i int) (length, lookback int) {
	start := i - window
	if start < 0 {
		start = 0
	}

	maxLen := maxMatch
	if rem := len(b) - i; rem < maxLen {
		maxLen = rem
	}
	if maxLen < minMatch {
		return 0, 0
	}

	bestLen, bestLookback := 0, 0
	for lb := 1; lb <= i-start; lb++ {
		l := 0
		for l < maxLen && b[i-lb+l] == b[i+l] {
			l++
		}
		if l > bestLen {
			bestLen = l
			bestLookback = lb
			if bestLen == maxLen {
				break
			}
		}
	}
	if bestLen < minMatch {
		return 0, 0
	}
	return bestLen, bestLookback
}
