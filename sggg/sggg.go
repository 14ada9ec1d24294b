// Package sggg implements the palette-indexed "SGGG" image codec: binary
// SGGG blobs with a GPU-style palette twiddle and a dual-region pixel
// layout for images wider than 512px, plus a PNG interchange format that
// round-trips the palette and extra metadata through tEXt/zTXt chunks.
package sggg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/duskforge/romkit/internal/romlog"
)

// Magic is the four-byte SGGG signature.
var Magic = [4]byte{'S', 'G', 'G', 'G'}

const (
	headerSize  = 16
	paletteSize = 256
	rowSplit    = 512
)

var (
	ErrBadMagic  = errors.New("sggg: bad magic")
	ErrTruncated = errors.New("sggg: truncated blob")
	ErrVersion   = errors.New("sggg: unsupported version")
	ErrNoPalette = errors.New("sggg: PNG has no PLTE chunk")
)

// RGBA is a plain four-channel color, stored ABGR little-endian on disk
// (equivalently RGBA big-endian), avoiding a dependency on image/color's
// premultiplication semantics for what is really just four raw bytes.
type RGBA struct {
	R, G, B, A uint8
}

// Image is the in-memory decoded form of an SGGG blob.
type Image struct {
	Version     uint32
	Width       uint16
	Height      uint16
	Header4     uint32
	Palette     [paletteSize]RGBA
	AltPalettes [][paletteSize]RGBA
	// Pixels is the logical width*height index grid, row-major,
	// already reassembled from the on-disk dual-region layout.
	Pixels []byte
}

// Decode parses a binary SGGG blob.
func Decode(b []byte) (*Image, error) {
	if len(b) < headerSize {
		return nil, ErrTruncated
	}
	if b[0] != Magic[0] || b[1] != Magic[1] || b[2] != Magic[2] || b[3] != Magic[3] {
		return nil, ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 1 {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}
	width := binary.LittleEndian.Uint16(b[8:10])
	height := binary.LittleEndian.Uint16(b[10:12])
	header4 := binary.LittleEndian.Uint32(b[12:16])

	off := headerSize
	var palette [paletteSize]RGBA
	if len(b) < off+paletteSize*4 {
		return nil, ErrTruncated
	}
	for i := 0; i < paletteSize; i++ {
		palette[i] = readRGBA(b[off:])
		off += 4
	}

	firstRegionCols := int(width)
	if firstRegionCols > rowSplit {
		firstRegionCols = rowSplit
	}
	secondRegionCols := 0
	if int(width) > rowSplit {
		secondRegionCols = int(width) - rowSplit
	}

	pixelBytes := (firstRegionCols + secondRegionCols) * int(height)
	if len(b) < off+pixelBytes {
		return nil, ErrTruncated
	}
	region1 := b[off : off+firstRegionCols*int(height)]
	off += firstRegionCols * int(height)
	var region2 []byte
	if secondRegionCols > 0 {
		region2 = b[off : off+secondRegionCols*int(height)]
		off += secondRegionCols * int(height)
	}

	pixels := reassembleRows(region1, region2, int(width), int(height), firstRegionCols, secondRegionCols)

	if width > 1024 {
		romlog.Warn("sggg: width exceeds 1024, behavior unverified at this size", romlog.Fields{"width": width})
	}

	var altPalettes [][paletteSize]RGBA
	for off+paletteSize*4 <= len(b) {
		var alt [paletteSize]RGBA
		o := off
		for i := 0; i < paletteSize; i++ {
			alt[i] = readRGBA(b[o:])
			o += 4
		}
		altPalettes = append(altPalettes, alt)
		off = o
	}

	return &Image{
		Version:     version,
		Width:       width,
		Height:      height,
		Header4:     header4,
		Palette:     palette,
		AltPalettes: altPalettes,
		Pixels:      pixels,
	}, nil
}

// Encode serializes the Image back to a binary SGGG blob.
func (img *Image) Encode() []byte {
	firstRegionCols := int(img.Width)
	if firstRegionCols > rowSplit {
		firstRegionCols = rowSplit
	}
	secondRegionCols := 0
	if int(img.Width) > rowSplit {
		secondRegionCols = int(img.Width) - rowSplit
	}

	out := make([]byte, 0, headerSize+paletteSize*4+len(img.Pixels)+len(img.AltPalettes)*paletteSize*4)
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, img.Version)
	out = binary.LittleEndian.AppendUint16(out, img.Width)
	out = binary.LittleEndian.AppendUint16(out, img.Height)
	out = binary.LittleEndian.AppendUint32(out, img.Header4)
	for _, c := range img.Palette {
		out = appendRGBA(out, c)
	}

	region1, region2 := splitRows(img.Pixels, int(img.Width), int(img.Height), firstRegionCols, secondRegionCols)
	out = append(out, region1...)
	out = append(out, region2...)

	for _, alt := range img.AltPalettes {
		for _, c := range alt {
			out = appendRGBA(out, c)
		}
	}
	return out
}

func readRGBA(b []byte) RGBA {
	// On-disk order is ABGR little-endian, i.e. a word whose most
	// significant byte is A and least significant is R -- equivalently
	// RGBA big-endian, so the raw byte order in the slice is R,G,B,A.
	return RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}

func appendRGBA(out []byte, c RGBA) []byte {
	return append(out, c.R, c.G, c.B, c.A)
}

// reassembleRows concatenates row i of region1 with row i of region2 to
// produce the logical width*height pixel grid.
func reassembleRows(region1, region2 []byte, width, height, cols1, cols2 int) []byte {
	pixels := make([]byte, width*height)
	for row := 0; row < height; row++ {
		dst := pixels[row*width : row*width+width]
		copy(dst[:cols1], region1[row*cols1:row*cols1+cols1])
		if cols2 > 0 {
			copy(dst[cols1:], region2[row*cols2:row*cols2+cols2])
		}
	}
	return pixels
}

// splitRows is the inverse of reassembleRows.
func splitRows(pixels []byte, width, height, cols1, cols2 int) (region1, region2 []byte) {
	region1 = make([]byte, cols1*height)
	if cols2 > 0 {
		region2 = make([]byte, cols2*height)
	}
	for row := 0; row < height; row++ {
		src := pixels[row*width : row*width+width]
		copy(region1[row*cols1:row*cols1+cols1], src[:cols1])
		if cols2 > 0 {
			copy(region2[row*cols2:row*cols2+cols2], src[cols1:])
		}
	}
	return region1, region2
}
