// Package dialog models the mixed text / control-code / color / portrait
// sequence that a decoded event string turns into, and its on-disk TOML
// persistence. Tag vocabulary and ASCII values come from the target
// game's control-code table, including the Goldenboy-release glyph
// extensions.
package dialog

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// ControlCode is a one-byte, argument-less dialog control code.
type ControlCode byte

const (
	CodeNone      ControlCode = 0
	CodePush      ControlCode = '%'
	CodeEnd       ControlCode = '\\'
	CodeMore      ControlCode = '?'
	CodeSelect    ControlCode = '*'
	CodeValue     ControlCode = '$'
	CodeImportant ControlCode = 'J'
	CodeMusik     ControlCode = 'v'
	CodeSword     ControlCode = 'V'
	CodeCross     ControlCode = '|'
	CodeTriangle  ControlCode = 0x7F
	CodeSquare    ControlCode = '~'
	CodeCircle    ControlCode = '}'
	CodeClaw      ControlCode = 'Z'
	CodeStar      ControlCode = 'M'
	CodeSol       ControlCode = 'L'
	CodeCrown     ControlCode = 'k'
	CodeHelmet    ControlCode = 'i'
	CodeFluid     ControlCode = 'H'
	CodeMoon      ControlCode = 'N'
	CodeHat       ControlCode = 'h'
	// CodeColor and CodePortrait are structural markers; the operand
	// bytes following them make up Item.Color/Item.Portrait instead of
	// being folded into the ControlCode byte itself.
	CodeColor    ControlCode = 'c'
	CodePortrait ControlCode = '#'
)

var codeNames = map[ControlCode]string{
	CodePush: "push", CodeEnd: "end", CodeMore: "more", CodeSelect: "select",
	CodeValue: "value", CodeImportant: "important", CodeMusik: "musik",
	CodeSword: "sword", CodeCross: "cross", CodeTriangle: "triangle",
	CodeSquare: "square", CodeCircle: "circle", CodeClaw: "claw",
	CodeStar: "star", CodeSol: "sol", CodeCrown: "crown", CodeHelmet: "helmet",
	CodeFluid: "fluid", CodeMoon: "moon", CodeHat: "hat", CodeColor: "color",
	CodePortrait: "portrait",
}

var namesToCode = invertCodeNames()

func invertCodeNames() map[string]ControlCode {
	m := make(map[string]ControlCode, len(codeNames))
	for c, n := range codeNames {
		m[n] = c
	}
	return m
}

// ControlCodeFromByte classifies a wire byte as a control code, returning
// CodeNone if the byte isn't one of the closed set.
func ControlCodeFromByte(b byte) ControlCode {
	switch ControlCode(b) {
	case CodePush, CodeEnd, CodeMore, CodeSelect, CodeValue, CodeImportant,
		CodeMusik, CodeSword, CodeCross, CodeTriangle, CodeSquare, CodeCircle,
		CodeClaw, CodeStar, CodeSol, CodeCrown, CodeHelmet, CodeFluid,
		CodeMoon, CodeHat, CodeColor, CodePortrait:
		return ControlCode(b)
	default:
		return CodeNone
	}
}

// Color is one of the seven dialog text colors, keyed by its ASCII digit
// operand byte ('1'..'7').
type Color byte

const (
	ColorBlue   Color = '1'
	ColorRed    Color = '2'
	ColorPurple Color = '3'
	ColorGreen  Color = '4'
	ColorCyan   Color = '5'
	ColorYellow Color = '6'
	ColorWhite  Color = '7'
)

var colorNames = map[Color]string{
	ColorBlue: "blue", ColorRed: "red", ColorPurple: "purple", ColorGreen: "green",
	ColorCyan: "cyan", ColorYellow: "yellow", ColorWhite: "white",
}

var namesToColor = invertColorNames()

func invertColorNames() map[string]Color {
	m := make(map[string]Color, len(colorNames))
	for c, n := range colorNames {
		m[n] = c
	}
	return m
}

// ColorFromByte maps an ASCII digit byte to a Color, defaulting to White
// (logged) for anything outside '1'..'7'.
func ColorFromByte(b byte, warn func(got byte)) Color {
	switch Color(b) {
	case ColorBlue, ColorRed, ColorPurple, ColorGreen, ColorCyan, ColorYellow, ColorWhite:
		return Color(b)
	default:
		if warn != nil {
			warn(b)
		}
		return ColorWhite
	}
}

// ItemKind discriminates the DialogItem tagged union.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemControlCode
	ItemColor
	ItemPortrait
)

// Item is one element of a DialogString: a run of text, a bare control
// code, a color switch, or a portrait selector.
type Item struct {
	Kind        ItemKind
	Text        string
	ControlCode ControlCode
	Color       Color
	Portrait    string
}

// String renders an Item the way it appears in the persisted TOML text
// form: plain text verbatim, everything else as a bracketed tag.
func (it Item) String() string {
	switch it.Kind {
	case ItemText:
		return it.Text
	case ItemControlCode:
		return "[" + titleCase(codeNames[it.ControlCode]) + "]"
	case ItemColor:
		return "[" + titleCase(colorNames[it.Color]) + "]"
	case ItemPortrait:
		return "[Portrait" + it.Portrait + "]"
	default:
		return ""
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// String is a DialogString: a sequence of Items plus whether the wire
// form was null-padded to a 4-byte boundary.
type String struct {
	Text   []Item
	Padded bool
}

// Render serializes a DialogString to its TOML text representation. The
// trailing newline is presentation only; Parse strips it back off.
func (d String) Render() string {
	var sb strings.Builder
	for _, it := range d.Text {
		sb.WriteString(it.String())
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Parse parses a dialog TOML text value (possibly with a trailing
// newline) back into a sequence of Items. Graphemes, not code points,
// are the iteration unit so combining marks round-trip.
func Parse(input string) ([]Item, error) {
	var out []Item

	graphemes := splitGraphemes(input)
	if len(graphemes) > 0 && graphemes[len(graphemes)-1] == "\n" {
		graphemes = graphemes[:len(graphemes)-1]
	}

	i := 0
	for i < len(graphemes) {
		if graphemes[i] == "[" {
			start := i + 1
			closing := -1
			for j := start; j < len(graphemes); j++ {
				if graphemes[j] == "]" {
					closing = j
					break
				}
			}
			if closing < 0 {
				return nil, fmt.Errorf("dialog: unclosed '['")
			}
			inner := strings.ToLower(strings.Join(graphemes[start:closing], ""))
			if inner == "" {
				return nil, fmt.Errorf("dialog: empty [] block")
			}

			switch {
			case strings.HasPrefix(inner, "portrait"):
				out = append(out, Item{Kind: ItemPortrait, Portrait: strings.TrimSpace(inner[len("portrait"):])})
			default:
				if c, ok := namesToColor[inner]; ok {
					out = append(out, Item{Kind: ItemColor, Color: c})
				} else if cc, ok := namesToCode[inner]; ok {
					out = append(out, Item{Kind: ItemControlCode, ControlCode: cc})
				} else {
					return nil, fmt.Errorf("dialog: unknown tag: %s", inner)
				}
			}
			i = closing + 1
			continue
		}

		start := i
		for i < len(graphemes) && graphemes[i] != "[" {
			i++
		}
		text := strings.Join(graphemes[start:i], "")
		if text != "" {
			out = append(out, Item{Kind: ItemText, Text: text})
		}
	}
	return out, nil
}

func splitGraphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
