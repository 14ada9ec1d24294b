package sggg

import (
	"bytes"
	"testing"
)

// testImage builds a 2x2 indexed image whose palette alphas follow the
// on-disk convention (entry 0 transparent, everything else 0x80), which
// is what the PNG pass reconstructs.
func testImage() *Image {
	img := &Image{
		Version: 1,
		Width:   2,
		Height:  2,
		Header4: 0xdeadbeef,
		Pixels:  []byte{0, 1, 0, 1},
	}
	img.Palette[0] = RGBA{R: 10, G: 20, B: 30, A: 0}
	img.Palette[1] = RGBA{R: 200, G: 100, B: 50, A: 0x80}
	for i := 2; i < paletteSize; i++ {
		img.Palette[i] = RGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 0x80}
	}
	return img
}

func TestSGGGBinaryRoundTrip(t *testing.T) {
	img := testImage()
	b := img.Encode()

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != img.Width || got.Height != img.Height || got.Header4 != img.Header4 {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !bytes.Equal(got.Pixels, img.Pixels) {
		t.Fatalf("pixel mismatch: got %v want %v", got.Pixels, img.Pixels)
	}
	if got.Palette != img.Palette {
		t.Fatalf("palette mismatch")
	}
}

func TestTwiddleIsInvolution(t *testing.T) {
	img := testImage()
	orig := img.Palette
	Twiddle(&img.Palette)
	if img.Palette == orig {
		t.Fatalf("twiddle did not change anything, test palette too uniform")
	}
	Twiddle(&img.Palette)
	if img.Palette != orig {
		t.Fatalf("twiddling twice did not restore original palette")
	}
}

func TestPNGRoundTrip(t *testing.T) {
	img := testImage()
	png, err := img.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	got, err := DecodePNG(png)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if got.Width != img.Width || got.Height != img.Height || got.Header4 != img.Header4 {
		t.Fatalf("header mismatch: %+v", got)
	}
	if !bytes.Equal(got.Pixels, img.Pixels) {
		t.Fatalf("pixel mismatch: got %v want %v", got.Pixels, img.Pixels)
	}
	if got.Palette != img.Palette {
		t.Fatalf("palette mismatch:\ngot  %v\nwant %v", got.Palette[:4], img.Palette[:4])
	}
}

func TestSGGGToPNGToSGGGIdentity(t *testing.T) {
	img := testImage()
	original := img.Encode()

	png, err := img.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := DecodePNG(png)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	roundTripped := decoded.Encode()

	if !bytes.Equal(original, roundTripped) {
		t.Fatalf("sggg->png->sggg not bit-identical: %d vs %d bytes", len(original), len(roundTripped))
	}
}

func TestAltPaletteRoundTrip(t *testing.T) {
	img := testImage()
	var alt [paletteSize]RGBA
	alt[0] = RGBA{R: 1, G: 2, B: 3, A: 0}
	for i := 1; i < paletteSize; i++ {
		alt[i] = RGBA{R: uint8(255 - i), G: uint8(i), B: 0x40, A: 0x80}
	}
	img.AltPalettes = [][paletteSize]RGBA{alt}

	png, err := img.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	got, err := DecodePNG(png)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if len(got.AltPalettes) != 1 {
		t.Fatalf("expected 1 alt palette, got %d", len(got.AltPalettes))
	}
	if got.AltPalettes[0] != alt {
		t.Fatalf("alt palette mismatch:\ngot  %v\nwant %v", got.AltPalettes[0][:4], alt[:4])
	}
	if !bytes.Equal(img.Encode(), got.Encode()) {
		t.Fatalf("blob with alt palette not bit-identical after png round trip")
	}
}

func TestGrayscaleRoundTrip(t *testing.T) {
	// A single distinct RGB triple makes the PNG grayscale; the pack
	// pass then synthesizes the white/alpha-ramp palette, so only images
	// that already carry it round-trip bit-identically.
	img := &Image{
		Version: 1,
		Width:   4,
		Height:  1,
		Palette: synthesizePalette(),
		Pixels:  []byte{0, 1, 2, 3},
	}

	png, err := img.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	got, err := DecodePNG(png)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if !bytes.Equal(img.Encode(), got.Encode()) {
		t.Fatalf("grayscale sggg->png->sggg not bit-identical")
	}
}

func TestWideImageDualRegionLayout(t *testing.T) {
	const w, h = 516, 2
	img := testImage()
	img.Width = w
	img.Height = h
	img.Pixels = make([]byte, w*h)
	for i := range img.Pixels {
		img.Pixels[i] = byte(i % 251)
	}

	blob := img.Encode()
	// Row 0 of the spill region sits after height full 512-wide rows.
	spillStart := headerSize + paletteSize*4 + rowSplit*h
	if got := blob[spillStart]; got != img.Pixels[rowSplit] {
		t.Fatalf("spill region starts with %#x, want pixel (0,512) = %#x", got, img.Pixels[rowSplit])
	}

	got, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.Pixels, img.Pixels) {
		t.Fatalf("wide image rows not reassembled correctly")
	}
}
