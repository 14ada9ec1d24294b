package dialog

import (
	"github.com/duskforge/romkit/internal/romlog"
	"github.com/duskforge/romkit/sjis"
)

// Decode turns a raw dialog string buffer into its Item sequence. Trailing
// NUL padding is stripped and recorded as Padded; english selects the
// ASCII-high-bit single-byte table over the normal Shift-JIS one.
func Decode(raw []byte, english bool) String {
	padded := len(raw) > 0 && raw[len(raw)-1] == 0x00
	for len(raw) > 0 && raw[len(raw)-1] == 0x00 {
		raw = raw[:len(raw)-1]
	}

	var items []Item
	i := 0
	for i < len(raw) {
		b := raw[i]
		switch b {
		case 0x20:
			items = appendText(items, " ")
			i++
			continue
		case 0x40:
			items = appendText(items, "\n")
			i++
			continue
		}

		if cc := ControlCodeFromByte(b); cc != CodeNone {
			switch cc {
			case CodeColor:
				if i+1 < len(raw) && isASCIIDigit(raw[i+1]) {
					items = append(items, Item{Kind: ItemColor, Color: ColorFromByte(raw[i+1], func(got byte) {
						romlog.Warn("dialog: bad color digit, defaulting to white", romlog.Fields{"byte": got})
					})})
					i += 2
				} else {
					romlog.Warn("dialog: color code missing digit operand", romlog.Fields{"offset": i})
					i++
				}
				continue
			case CodePortrait:
				j := i + 1
				for j < len(raw) && isASCIIDigit(raw[j]) {
					j++
				}
				id := "86"
				if j > i+1 {
					id = string(raw[i+1 : j])
				} else {
					romlog.Warn("dialog: portrait code missing digits, defaulting to 86", romlog.Fields{"offset": i})
				}
				items = append(items, Item{Kind: ItemPortrait, Portrait: id})
				i = j
				continue
			default:
				items = append(items, Item{Kind: ItemControlCode, ControlCode: cc})
				i++
				continue
			}
		}

		g, n := decodeChar(raw, i, english)
		items = appendText(items, g)
		i += n
	}

	return String{Text: items, Padded: padded}
}

func appendText(items []Item, text string) []Item {
	if n := len(items); n > 0 && items[n-1].Kind == ItemText {
		items[n-1].Text += text
		return items
	}
	return append(items, Item{Kind: ItemText, Text: text})
}

func decodeChar(raw []byte, i int, english bool) (grapheme string, consumed int) {
	b := raw[i]
	if english {
		if g, ok := sjis.ByteToEngrish(b); ok {
			return g, 1
		}
		if b == 0x11 || b == 0x12 {
			tag := "MTE" + hexByte(b)
			if i+1 < len(raw) {
				if g, ok := sjis.ByteToEngrish(raw[i+1]); ok {
					return tag + g, 2
				}
				return tag + "x" + hexByte(raw[i+1]), 2
			}
			return tag, 1
		}
	}
	if g, ok := sjis.ByteToSJIS(b); ok {
		return g, 1
	}
	if i+1 < len(raw) {
		if g, ok := sjis.WordToSJIS(b, raw[i+1]); ok {
			return g, 2
		}
	}
	romlog.Warn("dialog: unrecognized character byte", romlog.Fields{"byte": b, "offset": i})
	return "x" + hexByte(b), 1
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func hexByte(b byte) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[b>>4], hex[b&0xf]})
}

// Encode turns an Item sequence back into its wire byte form, padding to
// a 4-byte boundary (relative to baseOffset) when padded is true.
func Encode(d String, baseOffset int, english bool) []byte {
	var out []byte
	for _, it := range d.Text {
		switch it.Kind {
		case ItemControlCode:
			out = append(out, byte(it.ControlCode))
		case ItemColor:
			out = append(out, byte(CodeColor), byte(it.Color))
		case ItemPortrait:
			out = append(out, byte(CodePortrait))
			out = append(out, it.Portrait...)
		case ItemText:
			out = append(out, encodeText(it.Text, english)...)
		}
	}
	if d.Padded {
		for (baseOffset+len(out))%4 != 0 {
			out = append(out, 0x00)
		}
	}
	return out
}

func encodeText(text string, english bool) []byte {
	var out []byte
	gs := splitGraphemes(text)
	for i := 0; i < len(gs); i++ {
		g := gs[i]
		// An "x<hex>" escape stands in for a byte the decode tables
		// missed; turn it back into that byte. Plain "x" can't occur in
		// normal-mode text (the tables never produce ASCII), so the
		// escape is unambiguous there. English mode covers the whole
		// printable range, so a literal "xa0" would be indistinguishable
		// and the escape stays one-way.
		if !english && g == "x" && i+2 < len(gs) {
			if hi, ok := hexDigit(gs[i+1]); ok {
				if lo, ok := hexDigit(gs[i+2]); ok {
					out = append(out, hi<<4|lo)
					i += 2
					continue
				}
			}
		}
		out = append(out, sjis.ToWire(g, english)...)
	}
	return out
}

func hexDigit(g string) (byte, bool) {
	if len(g) != 1 {
		return 0, false
	}
	switch c := g[0]; {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
