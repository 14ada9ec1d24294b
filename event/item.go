// Package event implements the event bytecode disassembler and
// reassembler: a 32-bit-aligned opcode stream interleaved with unmanaged
// data runs and pointer-linked dialog strings. Disassemble turns a blob
// into a symbolic Program whose pointers are stable small ids;
// Reassemble lays the Program back out and resolves every id to its
// final byte offset.
package event

import "encoding/binary"

// Kind discriminates the DataItem tagged union.
type Kind int

const (
	KindRet Kind = iota
	KindJ
	KindJal
	KindMulti
	KindTxtPtr
	KindCop
	KindCop2
	KindPtr
	KindString
	KindUnmanaged
)

// StringBuf is a dialog string's raw wire bytes, held by pointer so a
// split operation can truncate one buffer and spawn a new one without
// disturbing any Item that already references it.
type StringBuf struct {
	Bytes []byte
}

// Item is one decoded event record. Only the fields relevant to Kind are
// populated; WireLen gives each case's on-disk shape.
type Item struct {
	Kind Kind

	Op     byte
	C, D   byte
	Field1 uint32
	Field2 uint32
	Field  uint32

	// Pointer holds a raw blob offset during disassembly and a symbolic
	// section id after finalize runs.
	Pointer uint32
	Values  []uint32

	Str *StringBuf
	Raw []byte // Unmanaged payload
}

// GetPointer returns the item's pointer operand, if it has one.
func (it Item) GetPointer() (uint32, bool) {
	switch it.Kind {
	case KindJ, KindJal, KindMulti, KindTxtPtr, KindCop, KindCop2, KindPtr:
		return it.Pointer, true
	default:
		return 0, false
	}
}

// SetPointerSymbol overwrites the pointer operand with a symbolic id.
func (it *Item) SetPointerSymbol(symbol uint32) {
	if _, ok := it.GetPointer(); ok {
		it.Pointer = symbol
	}
}

// WireLen returns the item's on-disk byte size.
func (it Item) WireLen() int {
	switch it.Kind {
	case KindRet:
		return 4
	case KindJ:
		return 8
	case KindJal:
		return 16
	case KindMulti:
		return 8 + 4*len(it.Values)
	case KindTxtPtr:
		return 8
	case KindCop:
		return 8
	case KindCop2:
		return 12
	case KindPtr:
		return 4
	case KindString:
		if it.Str == nil {
			return 0
		}
		return len(it.Str.Bytes)
	case KindUnmanaged:
		return len(it.Raw)
	default:
		return 0
	}
}

// WireBytes renders the item's current field values to wire bytes,
// pointer operand included verbatim (raw offset or symbol, whichever is
// currently stored). Used to downgrade an out-of-range item to
// Unmanaged.
func (it Item) WireBytes() []byte {
	switch it.Kind {
	case KindRet:
		return []byte{0x0a, 0x00, 0x00, 0x00}
	case KindJ:
		b := []byte{it.Op, 0x00, 0x00, 0x00}
		return binary.LittleEndian.AppendUint32(b, it.Pointer)
	case KindJal:
		b := []byte{it.Op, 0x00, it.C, it.D}
		b = binary.LittleEndian.AppendUint32(b, it.Field1)
		b = binary.LittleEndian.AppendUint32(b, it.Field2)
		return binary.LittleEndian.AppendUint32(b, it.Pointer)
	case KindMulti:
		b := []byte{it.Op, 0x00, byte(len(it.Values)), 0x00}
		b = binary.LittleEndian.AppendUint32(b, it.Pointer)
		for _, v := range it.Values {
			b = binary.LittleEndian.AppendUint32(b, v)
		}
		return b
	case KindTxtPtr:
		b := []byte{0x12, 0x00, 0x00, 0x00}
		return binary.LittleEndian.AppendUint32(b, it.Pointer)
	case KindCop:
		b := []byte{it.Op, 0x00, it.C, it.D}
		return binary.LittleEndian.AppendUint32(b, it.Pointer)
	case KindCop2:
		b := []byte{it.Op, 0x00, it.C, 0x00}
		b = binary.LittleEndian.AppendUint32(b, it.Field)
		return binary.LittleEndian.AppendUint32(b, it.Pointer)
	case KindPtr:
		return binary.LittleEndian.AppendUint32(nil, it.Pointer)
	case KindString:
		if it.Str == nil {
			return nil
		}
		return it.Str.Bytes
	case KindUnmanaged:
		return it.Raw
	default:
		return nil
	}
}

// fixedPrefixBytes returns the opcode's fixed-shape bytes that precede
// its pointer operand in the reassembled stream, for items that have
// one. KindMulti's trailing value words are appended by the caller after
// the pointer.
func (it Item) fixedPrefixBytes() (prefix []byte, hasPointer bool) {
	switch it.Kind {
	case KindJ:
		return []byte{it.Op, 0x00, 0x00, 0x00}, true
	case KindJal:
		b := []byte{it.Op, 0x00, it.C, it.D}
		b = binary.LittleEndian.AppendUint32(b, it.Field1)
		b = binary.LittleEndian.AppendUint32(b, it.Field2)
		return b, true
	case KindMulti:
		return []byte{it.Op, 0x00, byte(len(it.Values)), 0x00}, true
	case KindTxtPtr:
		return []byte{0x12, 0x00, 0x00, 0x00}, true
	case KindCop:
		return []byte{it.Op, 0x00, it.C, it.D}, true
	case KindCop2:
		b := []byte{it.Op, 0x00, it.C, 0x00}
		b = binary.LittleEndian.AppendUint32(b, it.Field)
		return b, true
	case KindPtr:
		return nil, true
	default:
		return nil, false
	}
}
