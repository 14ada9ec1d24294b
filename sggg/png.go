package sggg

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"hash/fnv"
	"io"

	"github.com/duskforge/romkit/internal/pool"
	"github.com/duskforge/romkit/internal/romlog"
)

var pngSignature = [8]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// colorTypeGray, colorTypeIndexed are the PNG IHDR color type codes we emit.
const (
	colorTypeGray    = 0
	colorTypeIndexed = 3
)

// alphaRamp is cycled over when synthesizing a stand-in palette for a
// grayscale PNG that never carried one: white RGB with a four-step
// alpha ramp.
var alphaRamp = [4]uint8{0x00, 0x3a, 0x5f, 0x7f}

// opaqueAlpha is the GPU's fully-opaque palette alpha. PNG drops the
// palette's alpha channel on the way out (only tRNS survives), so every
// rebuilt entry gets this value and entry 0 gets zero.
const opaqueAlpha = 0x80

type pngChunk struct {
	Type string
	Data []byte
}

func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var lenb [4]byte
	binary.BigEndian.PutUint32(lenb[:], uint32(len(data)))
	buf.Write(lenb[:])
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc.Sum32())
	buf.Write(crcb[:])
}

func writeTextChunk(buf *bytes.Buffer, keyword, value string) {
	data := append([]byte(keyword), 0)
	data = append(data, []byte(value)...)
	writeChunk(buf, "tEXt", data)
}

func writeZTextChunk(buf *bytes.Buffer, keyword, value string) error {
	data := append([]byte(keyword), 0, 0) // nul, then compression method 0
	var comp bytes.Buffer
	zw := zlib.NewWriter(&comp)
	if _, err := zw.Write([]byte(value)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	writeChunk(buf, "zTXt", append(data, comp.Bytes()...))
	return nil
}

func readChunks(b []byte) ([]pngChunk, error) {
	if len(b) < 8 || !bytes.Equal(b[:8], pngSignature[:]) {
		return nil, fmt.Errorf("sggg: not a PNG (bad signature)")
	}
	var chunks []pngChunk
	off := 8
	for off+8 <= len(b) {
		length := binary.BigEndian.Uint32(b[off:])
		typ := string(b[off+4 : off+8])
		dataStart := off + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(b) {
			return nil, fmt.Errorf("sggg: truncated PNG chunk %q", typ)
		}
		chunks = append(chunks, pngChunk{Type: typ, Data: b[dataStart:dataEnd]})
		off = dataEnd + 4
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

func paletteHash(p *[paletteSize]RGBA) string {
	h := fnv.New128a()
	for _, c := range p {
		h.Write([]byte{c.R, c.G, c.B, c.A})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// EncodePNG renders the image as a PNG, indexed or grayscale per the
// distinct-RGB-triple heuristic. Header4 and PaletteMeowhash ride in
// tEXt chunks, alternative palettes in zTXt.
//
// A palette with fewer than two distinct RGB triples produces a grayscale
// PNG, even when its colors only coincide by accident; DecodePNG then
// rebuilds the white/alpha-ramp palette instead of the original one, and
// the palette hash check logs a mismatch.
func (img *Image) EncodePNG() ([]byte, error) {
	editorPalette := img.Palette
	Twiddle(&editorPalette)

	indexed := distinctRGBTriples(&editorPalette) >= 2

	var buf bytes.Buffer
	buf.Write(pngSignature[:])

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(img.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(img.Height))
	ihdr[8] = 8 // bit depth
	if indexed {
		ihdr[9] = colorTypeIndexed
	} else {
		ihdr[9] = colorTypeGray
	}
	writeChunk(&buf, "IHDR", ihdr)

	if indexed {
		plte := make([]byte, 0, paletteSize*3)
		for _, c := range editorPalette {
			plte = append(plte, c.R, c.G, c.B)
		}
		writeChunk(&buf, "PLTE", plte)

		trns := make([]byte, paletteSize)
		for i := range trns {
			trns[i] = 0xff
		}
		trns[0] = 0x00
		writeChunk(&buf, "tRNS", trns)
	}

	if img.Header4 > 0 {
		writeTextChunk(&buf, "Header4", fmt.Sprintf("%08x", img.Header4))
	}
	writeTextChunk(&buf, "PaletteMeowhash", paletteHash(&img.Palette))
	// Alternative palettes ride along as compressed text, RGB only --
	// the alpha channel is rebuilt at pack time like the main palette's.
	for i, alt := range img.AltPalettes {
		editorAlt := alt
		Twiddle(&editorAlt)
		var hexBuf bytes.Buffer
		for _, c := range editorAlt {
			fmt.Fprintf(&hexBuf, "%02x%02x%02x", c.R, c.G, c.B)
		}
		if err := writeZTextChunk(&buf, fmt.Sprintf("AltPalette%d", i), hexBuf.String()); err != nil {
			return nil, err
		}
	}

	idat, err := buildIDAT(img.Pixels, int(img.Width), int(img.Height))
	if err != nil {
		return nil, err
	}
	writeChunk(&buf, "IDAT", idat)
	writeChunk(&buf, "IEND", nil)

	return buf.Bytes(), nil
}

func buildIDAT(pixels []byte, width, height int) ([]byte, error) {
	scratch := pool.Get(height * (width + 1))
	defer pool.Put(scratch)
	raw := scratch[:0]
	for row := 0; row < height; row++ {
		raw = append(raw, 0) // filter type None
		raw = append(raw, pixels[row*width:row*width+width]...)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func distinctRGBTriples(p *[paletteSize]RGBA) int {
	seen := make(map[[3]uint8]struct{}, paletteSize)
	for _, c := range p {
		seen[[3]uint8{c.R, c.G, c.B}] = struct{}{}
	}
	return len(seen)
}

// DecodePNG parses a PNG produced by EncodePNG (or a compatible edit of
// one) back into an Image whose Palette/Pixels are in on-disk SGGG form.
func DecodePNG(b []byte) (*Image, error) {
	chunks, err := readChunks(b)
	if err != nil {
		return nil, err
	}

	var (
		width, height  int
		bitDepth       byte
		colorType      byte
		interlace      byte
		plte           []byte
		idat           []byte
		header4        uint32
		meowhash       string
		altPalettesHex = map[int]string{}
	)

	for _, c := range chunks {
		switch c.Type {
		case "IHDR":
			if len(c.Data) < 13 {
				return nil, fmt.Errorf("sggg: short IHDR")
			}
			width = int(binary.BigEndian.Uint32(c.Data[0:4]))
			height = int(binary.BigEndian.Uint32(c.Data[4:8]))
			bitDepth = c.Data[8]
			colorType = c.Data[9]
			interlace = c.Data[12]
		case "PLTE":
			plte = c.Data
		case "IDAT":
			idat = append(idat, c.Data...)
		case "tEXt", "zTXt":
			keyword, value, ok := parseTextChunk(c.Type, c.Data)
			if !ok {
				continue
			}
			switch {
			case keyword == "Header4":
				var v uint64
				fmt.Sscanf(value, "%08x", &v)
				header4 = uint32(v)
			case keyword == "PaletteMeowhash":
				meowhash = value
			default:
				var idx int
				if n, err := fmt.Sscanf(keyword, "AltPalette%d", &idx); err == nil && n == 1 {
					altPalettesHex[idx] = value
				}
			}
		}
	}

	if bitDepth != 8 {
		return nil, fmt.Errorf("sggg: PNG must be 8-bit depth, got %d", bitDepth)
	}
	if interlace != 0 {
		romlog.Warn("sggg: interlaced PNG detected, behavior unverified", nil)
	}
	if width > 1024 {
		romlog.Warn("sggg: width exceeds 1024, storage layout at this size is a guess", romlog.Fields{"width": width})
	}

	raw, err := inflateAndUnfilter(idat, width, height, 1)
	if err != nil {
		return nil, err
	}

	var onDiskPalette [paletteSize]RGBA
	switch colorType {
	case colorTypeIndexed:
		if len(plte) < paletteSize*3 {
			return nil, ErrNoPalette
		}
		var editorPalette [paletteSize]RGBA
		for i := 0; i < paletteSize; i++ {
			editorPalette[i] = RGBA{R: plte[i*3], G: plte[i*3+1], B: plte[i*3+2], A: opaqueAlpha}
		}
		editorPalette[0].A = 0
		onDiskPalette = editorPalette
		Twiddle(&onDiskPalette)
	case colorTypeGray:
		onDiskPalette = synthesizePalette()
	default:
		return nil, fmt.Errorf("sggg: unsupported PNG color type %d", colorType)
	}

	if meowhash == "" {
		romlog.Info("sggg: palette hash wasn't stored, cannot verify the palette is untouched", nil)
	} else if got := paletteHash(&onDiskPalette); got != meowhash {
		romlog.Warn("sggg: palette hash mismatch, editor may have remapped colors", romlog.Fields{
			"want": meowhash, "got": got,
		})
	}

	var altPalettes [][paletteSize]RGBA
	for i := 0; i < len(altPalettesHex); i++ {
		hexStr, ok := altPalettesHex[i]
		if !ok {
			break
		}
		raw, err := hex.DecodeString(hexStr)
		if err != nil || len(raw) < paletteSize*3 {
			romlog.Warn("sggg: malformed AltPalette chunk, skipping", romlog.Fields{"index": i})
			continue
		}
		var alt [paletteSize]RGBA
		for j := 0; j < paletteSize; j++ {
			alt[j] = RGBA{R: raw[j*3], G: raw[j*3+1], B: raw[j*3+2], A: opaqueAlpha}
		}
		alt[0].A = 0
		Twiddle(&alt)
		altPalettes = append(altPalettes, alt)
	}

	return &Image{
		Version:     1,
		Width:       uint16(width),
		Height:      uint16(height),
		Header4:     header4,
		Palette:     onDiskPalette,
		AltPalettes: altPalettes,
		Pixels:      raw,
	}, nil
}

// synthesizePalette builds the white-RGB / four-step-alpha stand-in
// palette used when re-encoding a grayscale PNG (one with no PLTE) back
// into SGGG form.
func synthesizePalette() [paletteSize]RGBA {
	var p [paletteSize]RGBA
	for i := range p {
		p[i] = RGBA{R: 0xff, G: 0xff, B: 0xff, A: alphaRamp[i%len(alphaRamp)]}
	}
	return p
}

func parseTextChunk(typ string, data []byte) (keyword, value string, ok bool) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return "", "", false
	}
	keyword = string(data[:nul])
	if typ == "tEXt" {
		return keyword, string(data[nul+1:]), true
	}
	// zTXt: one-byte compression method follows the nul, then a
	// zlib-compressed payload.
	rest := data[nul+1:]
	if len(rest) < 1 {
		return "", "", false
	}
	zr, err := zlib.NewReader(bytes.NewReader(rest[1:]))
	if err != nil {
		return "", "", false
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return "", "", false
	}
	return keyword, buf.String(), true
}

// inflateAndUnfilter decompresses IDAT and removes the per-scanline PNG
// filter, assuming bpp bytes per pixel (1 for our 8-bit
// indexed/grayscale images).
func inflateAndUnfilter(idat []byte, width, height, bpp int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return nil, fmt.Errorf("sggg: IDAT inflate: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("sggg: IDAT inflate: %w", err)
	}

	stride := width * bpp
	out := make([]byte, width*height)
	prev := make([]byte, stride)
	cur := make([]byte, stride)
	off := 0
	for row := 0; row < height; row++ {
		if off >= len(raw) {
			return nil, fmt.Errorf("sggg: truncated scanline data at row %d", row)
		}
		filter := raw[off]
		off++
		if off+stride > len(raw) {
			return nil, fmt.Errorf("sggg: truncated scanline data at row %d", row)
		}
		copy(cur, raw[off:off+stride])
		off += stride
		if err := unfilterRow(filter, cur, prev, bpp); err != nil {
			return nil, err
		}
		copy(out[row*width:row*width+width], cur)
		prev, cur = cur, prev
	}
	return out, nil
}

func unfilterRow(filter byte, cur, prev []byte, bpp int) error {
	switch filter {
	case 0: // None
	case 1: // Sub
		for i := range cur {
			var a byte
			if i >= bpp {
				a = cur[i-bpp]
			}
			cur[i] += a
		}
	case 2: // Up
		for i := range cur {
			cur[i] += prev[i]
		}
	case 3: // Average
		for i := range cur {
			var a, b int
			if i >= bpp {
				a = int(cur[i-bpp])
			}
			b = int(prev[i])
			cur[i] += byte((a + b) / 2)
		}
	case 4: // Paeth
		for i := range cur {
			var a, b, c int
			if i >= bpp {
				a = int(cur[i-bpp])
				c = int(prev[i-bpp])
			}
			b = int(prev[i])
			cur[i] += byte(paethPredictor(a, b, c))
		}
	default:
		return fmt.Errorf("sggg: unsupported PNG filter type %d", filter)
	}
	return nil
}

func paethPredictor(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
