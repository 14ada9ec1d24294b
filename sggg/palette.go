package sggg

// chunkSize is the number of palette entries the GPU groups together when
// it reorders a CLUT for its native swizzled layout.
const chunkSize = 32

// Twiddle swaps palette entries 8..15 with entries 16..23 inside every
// 32-entry chunk, in place. It is applied once going from on-disk palette
// order to the editor's logical order, and once more going back; applying
// it twice is the identity.
func Twiddle(p *[paletteSize]RGBA) {
	for base := 0; base+chunkSize <= len(p); base += chunkSize {
		for i := 0; i < 8; i++ {
			a, b := base+8+i, base+16+i
			p[a], p[b] = p[b], p[a]
		}
	}
}
