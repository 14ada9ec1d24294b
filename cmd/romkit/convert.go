package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/duskforge/romkit/dialog"
	"github.com/duskforge/romkit/event"
	"github.com/duskforge/romkit/lz77"
	"github.com/duskforge/romkit/sggg"
)

func baseName(path string) string {
	return filepath.Base(path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// runUnpack decodes one archive blob into editable artifacts at stem,
// recording the LZ77 pass (if any) as a ".lz77" link in the filename
// extension chain so runPack knows to re-compress.
func runUnpack(inPath, stem string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	ext := ""
	if bytes.HasPrefix(data, lz77.Magic[:]) {
		dec, err := lz77.Decompress(data)
		if err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		data = dec
		ext = ".lz77"
	}

	if bytes.HasPrefix(data, sggg.Magic[:]) {
		img, err := sggg.Decode(data)
		if err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		png, err := img.EncodePNG()
		if err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		return os.WriteFile(stem+ext+".png", png, 0o644)
	}

	prog := event.Disassemble(data, english)
	if err := event.SaveJSON(stem+ext+".json", prog); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	texts := make(map[uint32]dialog.String, len(prog.Dialog))
	for _, d := range prog.Dialog {
		texts[d.ID] = d.String
	}
	if err := dialog.Save(stem+ext+".toml", texts); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}
	return nil
}

// runPack reverses runUnpack: it inspects which artifact exists for stem
// (PNG, or JSON+TOML pair), re-encodes it, and re-compresses with LZ77 if
// the stem's chain recorded that pass.
func runPack(stem, outPath string) error {
	lzPNG, plainPNG := stem+".lz77.png", stem+".png"
	switch {
	case fileExists(lzPNG):
		return packPNG(lzPNG, outPath, true)
	case fileExists(plainPNG):
		return packPNG(plainPNG, outPath, false)
	}

	lzJSON, plainJSON := stem+".lz77.json", stem+".json"
	switch {
	case fileExists(lzJSON):
		return packEvent(lzJSON, outPath, true)
	case fileExists(plainJSON):
		return packEvent(plainJSON, outPath, false)
	}

	return fmt.Errorf("pack: no artifacts found for stem %q", stem)
}

func packPNG(pngPath, outPath string, lz bool) error {
	raw, err := os.ReadFile(pngPath)
	if err != nil {
		return err
	}
	img, err := sggg.DecodePNG(raw)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	blob := img.Encode()
	if lz {
		blob = lz77.Compress(blob)
	}
	return os.WriteFile(outPath, blob, 0o644)
}

func packEvent(jsonPath, outPath string, lz bool) error {
	prog, err := event.LoadJSON(jsonPath)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	tomlPath := strings.TrimSuffix(jsonPath, ".json") + ".toml"
	overrides, err := dialog.Load(tomlPath)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	blob, err := event.Reassemble(prog, overrides, english)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	if lz {
		blob = lz77.Compress(blob)
	}
	return os.WriteFile(outPath, blob, 0o644)
}

func runInfo(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Raw size:   %d bytes\n", len(data))

	if bytes.HasPrefix(data, lz77.Magic[:]) {
		dec, err := lz77.Decompress(data)
		if err != nil {
			return fmt.Errorf("info: %w", err)
		}
		fmt.Printf("LZ77:       yes (%d -> %d bytes)\n", len(data), len(dec))
		data = dec
	} else {
		fmt.Printf("LZ77:       no\n")
	}

	switch {
	case bytes.HasPrefix(data, sggg.Magic[:]):
		img, err := sggg.Decode(data)
		if err != nil {
			return fmt.Errorf("info: %w", err)
		}
		fmt.Printf("Format:     SGGG image\n")
		fmt.Printf("Dimensions: %d x %d\n", img.Width, img.Height)
		fmt.Printf("Palettes:   1 base + %d alt\n", len(img.AltPalettes))
	default:
		prog := event.Disassemble(data, english)
		fmt.Printf("Format:     event bytecode\n")
		fmt.Printf("Sections:   %d\n", len(prog.Sections))
		fmt.Printf("Dialog:     %d strings\n", len(prog.Dialog))
	}
	return nil
}
