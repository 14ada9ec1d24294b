// Package sjis provides the byte-to-grapheme lexer tables used to decode
// and re-encode dialog text: a single-byte table (half-width katakana and
// the English-mode ASCII-high-bit romanization), a curated two-byte table
// keyed by (lead, trail) byte pairs, and the sorted "starter byte" set of
// two-byte lead bytes. The inverse map turns grapheme clusters back into
// wire bytes at reassembly time.
package sjis

import "sort"

// StarterBytes lists the lead bytes of a two-byte Shift-JIS sequence, in
// ascending order so IsStarterByte can binary-search it.
var StarterBytes = sortedStarterBytes()

func sortedStarterBytes() []byte {
	var b []byte
	for lead := 0x81; lead <= 0x9f; lead++ {
		b = append(b, byte(lead))
	}
	for lead := 0xe0; lead <= 0xef; lead++ {
		b = append(b, byte(lead))
	}
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return b
}

// IsStarterByte reports whether b is a two-byte Shift-JIS lead byte.
func IsStarterByte(b byte) bool {
	i := sort.Search(len(StarterBytes), func(i int) bool { return StarterBytes[i] >= b })
	return i < len(StarterBytes) && StarterBytes[i] == b
}

// singleByte maps half-width katakana (0xA1-0xDF) to their UTF-8 grapheme.
// This is the standard JIS X 0201 half-width katakana row.
var singleByte = buildSingleByteTable()

func buildSingleByteTable() map[byte]string {
	// 0xA1.."." through 0xDF.."ン/゜" follow JIS X 0201 order starting at
	// U+FF61 (｡) and running contiguously through the half-width kana block.
	runes := []rune{
		0xFF61, 0xFF62, 0xFF63, 0xFF64, 0xFF65, 0xFF66, 0xFF67, 0xFF68,
		0xFF69, 0xFF6A, 0xFF6B, 0xFF6C, 0xFF6D, 0xFF6E, 0xFF6F, 0xFF70,
		0xFF71, 0xFF72, 0xFF73, 0xFF74, 0xFF75, 0xFF76, 0xFF77, 0xFF78,
		0xFF79, 0xFF7A, 0xFF7B, 0xFF7C, 0xFF7D, 0xFF7E, 0xFF7F, 0xFF80,
		0xFF81, 0xFF82, 0xFF83, 0xFF84, 0xFF85, 0xFF86, 0xFF87, 0xFF88,
		0xFF89, 0xFF8A, 0xFF8B, 0xFF8C, 0xFF8D, 0xFF8E, 0xFF8F, 0xFF90,
		0xFF91, 0xFF92, 0xFF93, 0xFF94, 0xFF95, 0xFF96, 0xFF97, 0xFF98,
		0xFF99, 0xFF9A, 0xFF9B, 0xFF9C, 0xFF9D, 0xFF9E, 0xFF9F,
	}
	m := make(map[byte]string, len(runes))
	for i, r := range runes {
		m[byte(0xA1+i)] = string(r)
	}
	return m
}

// doubleByte maps a curated set of two-byte Shift-JIS codepoints (the
// hiragana row at lead byte 0x82) to their UTF-8 grapheme. This is not a
// complete JIS X 0208 table; it covers enough of the common dialog
// character set for round-trip testing and is meant to be extended as
// more of the target game's actual glyph usage is catalogued.
var doubleByte = buildDoubleByteTable()

func buildDoubleByteTable() map[[2]byte]string {
	// Hiragana あ..ん occupy 0x829F..0x82F1 in the standard Shift-JIS table.
	hiragana := []rune{
		'ぁ', 'あ', 'ぃ', 'い', 'ぅ', 'う', 'ぇ', 'え', 'ぉ', 'お',
		'か', 'が', 'き', 'ぎ', 'く', 'ぐ', 'け', 'げ', 'こ', 'ご',
		'さ', 'ざ', 'し', 'じ', 'す', 'ず', 'せ', 'ぜ', 'そ', 'ぞ',
		'た', 'だ', 'ち', 'ぢ', 'っ', 'つ', 'づ', 'て', 'で', 'と',
		'ど', 'な', 'に', 'ぬ', 'ね', 'の', 'は', 'ば', 'ぱ', 'ひ',
		'び', 'ぴ', 'ふ', 'ぶ', 'ぷ', 'へ', 'べ', 'ぺ', 'ほ', 'ぼ',
		'ぽ', 'ま', 'み', 'む', 'め', 'も', 'ゃ', 'や', 'ゅ', 'ゆ',
		'ょ', 'よ', 'ら', 'り', 'る', 'れ', 'ろ', 'ゎ', 'わ', 'ゐ',
		'ゑ', 'を', 'ん',
	}
	m := make(map[[2]byte]string, len(hiragana))
	for i, r := range hiragana {
		lo := 0x9f + i
		lead := byte(0x82)
		trail := byte(lo)
		if lo > 0xfc {
			lead = 0x83
			trail = byte(lo - 0xfd + 0x40)
		}
		m[[2]byte{lead, trail}] = string(r)
	}
	return m
}

// ByteToSJIS decodes a single-byte Shift-JIS codepoint, normal mode.
func ByteToSJIS(b byte) (string, bool) {
	s, ok := singleByte[b]
	return s, ok
}

// WordToSJIS decodes a two-byte Shift-JIS codepoint.
func WordToSJIS(lead, trail byte) (string, bool) {
	s, ok := doubleByte[[2]byte{lead, trail}]
	return s, ok
}

// ByteToEngrish decodes a single byte in English mode: the target game's
// English-release text is ASCII with the high bit set on every byte, so
// this strips it and returns the printable ASCII character, if any.
func ByteToEngrish(b byte) (string, bool) {
	lo := b &^ 0x80
	if lo < 0x20 || lo > 0x7e {
		return "", false
	}
	return string(rune(lo)), true
}

// inverseSingleByte and inverseDoubleByte are built from the forward
// tables at package initialization so the two stay in sync; used by ToWire.
var inverseSingleByte = invertSingleByte()
var inverseDoubleByte = invertDoubleByte()

func invertSingleByte() map[string]byte {
	m := make(map[string]byte, len(singleByte))
	for b, s := range singleByte {
		m[s] = b
	}
	return m
}

func invertDoubleByte() map[string][2]byte {
	m := make(map[string][2]byte, len(doubleByte))
	for w, s := range doubleByte {
		m[s] = w
	}
	return m
}

// ToWire turns a single grapheme cluster into its 1- or 2-byte Shift-JIS
// wire form, or the high-bit-set English-mode form when english is true.
// Graphemes with no mapping fall back to "?" (0x3f, or 0xbf in English
// mode) so reassembly always produces a byte.
func ToWire(grapheme string, english bool) []byte {
	if english {
		if grapheme == "\n" {
			return []byte{'@'}
		}
		if grapheme == " " {
			return []byte{' '}
		}
		if len(grapheme) == 1 && grapheme[0] >= 0x20 && grapheme[0] <= 0x7e {
			return []byte{grapheme[0] | 0x80}
		}
		return []byte{'?' | 0x80}
	}

	if grapheme == "\n" {
		return []byte{'@'}
	}
	if grapheme == " " {
		return []byte{' '}
	}
	if b, ok := inverseSingleByte[grapheme]; ok {
		return []byte{b}
	}
	if w, ok := inverseDoubleByte[grapheme]; ok {
		return []byte{w[0], w[1]}
	}
	return []byte{'?'}
}
