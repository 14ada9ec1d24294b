package event

import (
	"encoding/binary"

	"github.com/duskforge/romkit/dialog"
	"github.com/duskforge/romkit/internal/romlog"
)

// Program is the symbolized result of a disassembly pass: an ordered
// list of sections (each keyed by the symbolic pointer value that jumps
// to it) and the decoded dialog strings, keyed the same way.
type Program struct {
	Sections []Section
	Dialog   []DialogEntry
}

// Section is one contiguous run of Items sharing a symbolic target id.
// Section 0 is always the entry point at offset 0 in the source blob.
type Section struct {
	ID    uint32
	Items []Item
}

// DialogEntry is one decoded dialog string, keyed by the same symbolic
// id as the Section whose String item holds its bytes.
type DialogEntry struct {
	ID     uint32
	String dialog.String
}

var pendingOpcodes = map[byte]bool{
	0x26: true, 0x2a: true, 0x2b: true, 0x2e: true, 0x40: true,
	0x42: true, 0x44: true, 0x4d: true, 0x54: true,
}

// pendingExtraWord opcodes consume one additional operand word beyond
// the pending set's usual single word before returning control to the
// main scan loop.
var pendingExtraWord = map[byte]bool{
	0x2a: true, 0x2e: true, 0x40: true, 0x42: true, 0x44: true, 0x4d: true, 0x54: true,
}

var jOpcodes = map[byte]bool{0x0b: true, 0x1e: true, 0x17: true}
var multiOpcodes = map[byte]bool{0x0f: true, 0x10: true}
var copOpcodes = map[byte]bool{0x41: true, 0x24: true, 0x25: true}
var cop2Opcodes = map[byte]bool{0x33: true, 0x4a: true}

// terminatorRewindBytes is the closed set of bytes that, found just
// before a scanned NUL, mean the scan actually landed on the zero
// operand byte of the following opcode rather than the string's own
// terminator; the scan rewinds two bytes to compensate.
var terminatorRewindBytes = map[byte]bool{
	0x0a: true, 0x0b: true, 0x0c: true, 0x0d: true, 0x0e: true, 0x0f: true,
	0x10: true, 0x12: true, 0x24: true, 0x25: true, 0x32: true, 0x34: true,
}

// terminatorQuietBytes precede a real terminator often enough that no
// warning is worth logging even though they aren't in the rewind set.
var terminatorQuietBytes = map[byte]bool{0x2a: true, 0x5c: true}

type unmanagedBuilder struct {
	building bool
	offset   uint32
	data     []byte
}

func (u *unmanagedBuilder) add(offset uint32, word []byte) {
	if !u.building {
		u.building = true
		u.offset = offset
	}
	u.data = append(u.data, word...)
}

func (u *unmanagedBuilder) finish(t *itemTable, eof uint32) {
	if !u.building {
		return
	}
	t.insert(u.offset, eof, Item{Kind: KindUnmanaged, Raw: u.data})
	u.building = false
	u.data = nil
}

// Disassemble walks data as an aligned opcode stream starting at offset
// 0, discovering pointer targets, dialog strings and runs of unmanaged
// bytes, then symbolizes the result into an ordered Program.
func Disassemble(data []byte, english bool) *Program {
	eof := uint32(len(data))
	items := newItemTable()
	strs := newStringTable()
	var um unmanagedBuilder

	pos := uint32(0)
	for {
		if pos == eof {
			um.finish(items, eof)
			break
		}

		if items.hasPointer(pos) {
			if sb, ok := strs.get(pos); ok {
				um.finish(items, eof)
				items.insert(pos, eof, Item{Kind: KindString, Str: sb})
				jump := uint32(len(sb.Bytes))
				if next, ok := items.nextPointerAfter(pos); ok && next-pos < jump {
					jump = next - pos
				}
				pos += jump
				continue
			}
			um.finish(items, eof)
		}

		if pos%4 != 0 {
			// Resync one byte at a time; a misaligned position can only
			// come out of a string landing whose padding was cut short.
			romlog.Warn("event: opcode candidate is not 4-byte aligned", romlog.Fields{"offset": pos})
			um.add(pos, data[pos:pos+1])
			pos++
			continue
		}

		remaining := eof - pos
		if remaining < 4 {
			um.finish(items, eof)
			if remaining > 0 {
				romlog.Error("event: input ends on uneven boundary, trailing bytes dropped",
					romlog.Fields{"offset": pos, "remaining": remaining})
			}
			break
		}

		word := data[pos : pos+4]
		op, b1, b2, b3 := word[0], word[1], word[2], word[3]

		switch {
		case b1 == 0 && b3 == 0 && pendingOpcodes[op]:
			um.add(pos, word)
			pos += 4
			if pendingExtraWord[op] {
				if pos+4 > eof {
					romlog.Error("event: pending opcode truncated before its extra operand word",
						romlog.Fields{"offset": pos})
					um.finish(items, eof)
					return finalize(items, strs, english)
				}
				um.add(pos, data[pos:pos+4])
				pos += 4
			}

		case op == 0x0a && b1 == 0 && b2 == 0 && b3 == 0:
			um.finish(items, eof)
			items.insert(pos, eof, Item{Kind: KindRet})
			pos += 4

		case b1 == 0 && b2 == 0 && b3 == 0 && jOpcodes[op]:
			if pos+8 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			ptr := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			items.insert(pos, eof, Item{Kind: KindJ, Op: op, Pointer: ptr})
			pos += 8

		case op == 0x0c && b1 == 0 && b2 > 0:
			if pos+16 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			f1 := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			f2 := binary.LittleEndian.Uint32(data[pos+8 : pos+12])
			ptr := binary.LittleEndian.Uint32(data[pos+12 : pos+16])
			items.insert(pos, eof, Item{Kind: KindJal, Op: 0x0c, C: b2, D: b3, Field1: f1, Field2: f2, Pointer: ptr})
			pos += 16

		case op == 0x38 && b1 == 0 && b2 == 0 && b3 == 0:
			if pos+12 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			ptr1 := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			items.insert(pos, eof, Item{Kind: KindJ, Op: 0x38, Pointer: ptr1})
			ptr2 := binary.LittleEndian.Uint32(data[pos+8 : pos+12])
			items.insert(pos+4, eof, Item{Kind: KindPtr, Pointer: ptr2})
			pos += 12

		case b1 == 0 && b3 == 0 && multiOpcodes[op]:
			count := uint32(b2)
			need := pos + 8 + count*4
			if need > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			ptr := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			values := make([]uint32, count)
			base := pos + 8
			for k := uint32(0); k < count; k++ {
				values[k] = binary.LittleEndian.Uint32(data[base+k*4 : base+k*4+4])
			}
			items.insert(pos, eof, Item{Kind: KindMulti, Op: op, Pointer: ptr, Values: values})
			pos = base + count*4

		case op == 0x12 && b1 == 0 && b2 == 0 && b3 == 0:
			if pos+8 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			ptr := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			items.insert(pos, eof, Item{Kind: KindTxtPtr, Pointer: ptr})
			if ptr < eof && !strs.fastForward(ptr) {
				scanAndRecordString(data, eof, strs, ptr)
			}
			pos += 8

		case b1 == 0 && copOpcodes[op]:
			if pos+8 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			ptr := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			items.insert(pos, eof, Item{Kind: KindCop, Op: op, C: b2, D: b3, Pointer: ptr})
			pos += 8

		case b1 == 0 && b3 == 0 && cop2Opcodes[op]:
			if pos+12 > eof {
				um.add(pos, word)
				pos += 4
				break
			}
			um.finish(items, eof)
			field := binary.LittleEndian.Uint32(data[pos+4 : pos+8])
			ptr := binary.LittleEndian.Uint32(data[pos+8 : pos+12])
			items.insert(pos, eof, Item{Kind: KindCop2, Op: op, C: b2, Field: field, Pointer: ptr})
			pos += 12

		default:
			um.add(pos, word)
			pos += 4
		}
	}

	return finalize(items, strs, english)
}

// scanAndRecordString scans forward from pointer for the string's
// terminator, bounded by eof and by the nearest already-known string
// offset beyond pointer, then records the discovered bytes.
func scanAndRecordString(data []byte, eof uint32, strs *stringTable, pointer uint32) {
	maxLen := eof - pointer
	if next, ok := strs.ceilingAfter(pointer); ok {
		if d := next - pointer; d < maxLen {
			maxLen = d
		}
	}

	i := pointer
	var prevByte byte
	remaining := maxLen
	for remaining > 0 && i < eof {
		b := data[i]
		i++
		if b == 0x00 {
			break
		}
		// Only content bytes count against the bound; a NUL found right
		// at the bound still gets terminator refinement.
		remaining--
		prevByte = b
	}

	if remaining > 0 {
		i = pinpointTerminator(data, eof, i, prevByte)
	}

	length := i - pointer
	buf := append([]byte{}, data[pointer:pointer+length]...)
	strs.insert(pointer, &StringBuf{Bytes: buf})
}

// pinpointTerminator corrects the scan position once a NUL has been
// found, rewinding past a false terminator caused by the next opcode's
// zero byte and then consuming up to the next 4-byte alignment boundary
// of padding zeros that belong to the string, not its successor.
func pinpointTerminator(data []byte, eof, i uint32, prevByte byte) uint32 {
	if terminatorRewindBytes[prevByte] {
		i -= 2
	} else if !terminatorQuietBytes[prevByte] {
		romlog.Warn("event: unexpected byte immediately before string terminator",
			romlog.Fields{"offset": i, "byte": prevByte})
	}

	termOff := i
	ta := 4 - termOff%4
	if ta > 0 && ta < 4 {
		for ta > 0 && i < eof && data[i] == 0x00 {
			i++
			ta--
		}
		// The padding scan reads one byte past the zeros and backs out
		// again, except when that byte is the last of the blob: then it
		// stays consumed as part of the string.
		if i == eof-1 {
			i = eof
		}
	}
	return i
}

// finalize decodes every discovered string and assigns symbolic section
// ids: walking items in offset order, every pointer target gets a fresh
// small id the first time it is seen, and each item lands in the section
// of the most recent id boundary it crossed.
func finalize(items *itemTable, strs *stringTable, english bool) *Program {
	dialogByOffset := make(map[uint32]dialog.String, len(strs.bufs))
	for off, buf := range strs.bufs {
		dialogByOffset[off] = dialog.Decode(buf.Bytes, english)
	}

	pointerSymbols := map[uint32]uint32{0: 0}
	nextSymbol := uint32(1)
	symbolFor := func(off uint32) uint32 {
		if s, ok := pointerSymbols[off]; ok {
			return s
		}
		s := nextSymbol
		pointerSymbols[off] = s
		nextSymbol++
		return s
	}

	prog := &Program{}
	sectionIndex := make(map[uint32]int)
	dialogSeen := make(map[uint32]bool)
	currentSection := uint32(0)

	for _, off := range items.offsets {
		it := *items.items[off]

		if dp, ok := it.GetPointer(); ok {
			it.SetPointerSymbol(symbolFor(dp))
		}
		if items.hasPointer(off) {
			symbolFor(off)
		}
		if s, ok := pointerSymbols[off]; ok {
			currentSection = s
		}
		if d, ok := dialogByOffset[off]; ok && !dialogSeen[off] {
			dialogSeen[off] = true
			sym := symbolFor(off)
			prog.Dialog = append(prog.Dialog, DialogEntry{ID: sym, String: d})
		}

		idx, ok := sectionIndex[currentSection]
		if !ok {
			idx = len(prog.Sections)
			sectionIndex[currentSection] = idx
			prog.Sections = append(prog.Sections, Section{ID: currentSection})
		}
		prog.Sections[idx].Items = append(prog.Sections[idx].Items, it)
	}

	return prog
}
