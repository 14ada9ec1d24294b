package event

import (
	"encoding/binary"
	"path/filepath"
	"testing"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func TestDisassembleSingleRet(t *testing.T) {
	data := []byte{0x0a, 0x00, 0x00, 0x00}
	prog := Disassemble(data, false)
	if len(prog.Sections) != 1 || len(prog.Sections[0].Items) != 1 {
		t.Fatalf("got %+v", prog.Sections)
	}
	if prog.Sections[0].Items[0].Kind != KindRet {
		t.Fatalf("expected Ret, got %+v", prog.Sections[0].Items[0])
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassembleTxtPtrForward(t *testing.T) {
	var data []byte
	data = append(data, 0x12, 0x00, 0x00, 0x00)
	data = append(data, le32(12)...)
	data = append(data, 0x0a, 0x00, 0x00, 0x00)
	// forward pointer to offset 12: a short SJIS-free string, NUL
	// terminated and padded to the 4-byte boundary.
	data = append(data, 0xA1, 0xA2, 0x00, 0x00)

	prog := Disassemble(data, false)

	var flat []Item
	for _, sec := range prog.Sections {
		flat = append(flat, sec.Items...)
	}
	var sawTxtPtr, sawRet, sawString bool
	for _, it := range flat {
		switch it.Kind {
		case KindTxtPtr:
			sawTxtPtr = true
		case KindRet:
			sawRet = true
		case KindString:
			sawString = true
		}
	}
	if !sawTxtPtr || !sawRet || !sawString {
		t.Fatalf("missing expected item kinds: %+v", flat)
	}
	if len(prog.Dialog) != 1 {
		t.Fatalf("expected 1 decoded dialog string, got %d", len(prog.Dialog))
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassembleSharedStringTwoPointers(t *testing.T) {
	var data []byte
	data = append(data, 0x12, 0x00, 0x00, 0x00)
	data = append(data, le32(20)...) // first TxtPtr -> offset 20
	data = append(data, 0x12, 0x00, 0x00, 0x00)
	data = append(data, le32(20)...) // second TxtPtr -> same offset
	data = append(data, 0x0a, 0x00, 0x00, 0x00)
	data = append(data, 0xA1, 0xA2, 0x00, 0x00)

	prog := Disassemble(data, false)
	if len(prog.Dialog) != 1 {
		t.Fatalf("expected the two pointers to collapse to one dialog string, got %d", len(prog.Dialog))
	}

	var txtPtrs int
	for _, sec := range prog.Sections {
		for _, it := range sec.Items {
			if it.Kind == KindTxtPtr {
				txtPtrs++
			}
		}
	}
	if txtPtrs != 2 {
		t.Fatalf("expected 2 TxtPtr items, got %d", txtPtrs)
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassembleForwardPointerSplitsUnmanaged(t *testing.T) {
	// 16 bytes of filler data (unmanaged), then a J jumping into the
	// middle of it at offset 8 from a later instruction.
	var data []byte
	data = append(data, 0x11, 0x11, 0x11, 0x11)
	data = append(data, 0x22, 0x22, 0x22, 0x22)
	data = append(data, 0x33, 0x33, 0x33, 0x33)
	data = append(data, 0x44, 0x44, 0x44, 0x44)
	data = append(data, 0x0b, 0x00, 0x00, 0x00)
	data = append(data, le32(8)...)
	data = append(data, 0x0a, 0x00, 0x00, 0x00)

	prog := Disassemble(data, false)

	var unmanagedCount int
	for _, sec := range prog.Sections {
		for _, it := range sec.Items {
			if it.Kind == KindUnmanaged {
				unmanagedCount++
			}
		}
	}
	if unmanagedCount != 2 {
		t.Fatalf("expected the unmanaged run to split into 2 pieces, got %d", unmanagedCount)
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassembleSplitsStringAtSecondPointer(t *testing.T) {
	var data []byte
	data = append(data, 0x12, 0x00, 0x00, 0x00)
	data = append(data, le32(16)...) // first TxtPtr -> string start
	data = append(data, 0x12, 0x00, 0x00, 0x00)
	data = append(data, le32(18)...) // second TxtPtr -> string interior
	data = append(data, 0xA1, 0xA1, 0xA1, 0x00)

	prog := Disassemble(data, false)
	if len(prog.Dialog) != 2 {
		t.Fatalf("expected the interior pointer to split the string into 2, got %d", len(prog.Dialog))
	}

	var stringItems int
	for _, sec := range prog.Sections {
		for _, it := range sec.Items {
			if it.Kind == KindString {
				stringItems++
			}
		}
	}
	if stringItems != 2 {
		t.Fatalf("expected 2 String items after the split, got %d", stringItems)
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassemblePendingOpcodesExtendUnmanaged(t *testing.T) {
	var data []byte
	data = append(data, 0x26, 0x00, 0x05, 0x00) // pending, no operand word
	data = append(data, 0x2a, 0x00, 0x07, 0x00) // pending, one operand word
	data = append(data, 0xff, 0xff, 0xff, 0xff)
	data = append(data, 0x0a, 0x00, 0x00, 0x00)

	prog := Disassemble(data, false)

	var flat []Item
	for _, sec := range prog.Sections {
		flat = append(flat, sec.Items...)
	}
	if len(flat) != 2 {
		t.Fatalf("expected one Unmanaged run plus Ret, got %+v", flat)
	}
	if flat[0].Kind != KindUnmanaged || len(flat[0].Raw) != 12 {
		t.Fatalf("expected a single 12-byte Unmanaged run, got %+v", flat[0])
	}
	if flat[1].Kind != KindRet {
		t.Fatalf("expected trailing Ret, got %+v", flat[1])
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestDisassembleOutOfRangePointerDowngrades(t *testing.T) {
	var data []byte
	data = append(data, 0x0b, 0x00, 0x00, 0x00)
	data = append(data, le32(100)...) // points past eof
	data = append(data, 0x0a, 0x00, 0x00, 0x00)

	prog := Disassemble(data, false)

	for _, sec := range prog.Sections {
		for _, it := range sec.Items {
			if it.Kind == KindJ {
				t.Fatalf("out-of-range J should have been downgraded, got %+v", it)
			}
		}
	}

	out, err := Reassemble(prog, nil, false)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if string(out) != string(data) {
		t.Fatalf("got %v, want %v", out, data)
	}
}

func TestItemWireLenMatchesWireBytes(t *testing.T) {
	it := Item{Kind: KindJal, Op: 0x0c, C: 1, D: 2, Field1: 3, Field2: 4, Pointer: 5}
	if got, want := it.WireLen(), len(it.WireBytes()); got != want {
		t.Fatalf("WireLen()=%d but WireBytes() has len %d", got, want)
	}
}

func TestSaveLoadJSONPreservesSectionOrder(t *testing.T) {
	prog := &Program{Sections: []Section{
		{ID: 0, Items: []Item{{Kind: KindTxtPtr, Pointer: 2}}},
		{ID: 2, Items: []Item{{Kind: KindString}}},
		{ID: 1, Items: []Item{{Kind: KindRet}}},
	}}

	path := filepath.Join(t.TempDir(), "events.json")
	if err := SaveJSON(path, prog); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}

	wantOrder := []uint32{0, 2, 1}
	if len(got.Sections) != len(wantOrder) {
		t.Fatalf("got %d sections, want %d", len(got.Sections), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got.Sections[i].ID != want {
			t.Fatalf("section %d has id %d, want %d", i, got.Sections[i].ID, want)
		}
	}
	if got.Sections[1].Items[0].Kind != KindString {
		t.Fatalf("empty-array item did not load back as String: %+v", got.Sections[1].Items[0])
	}
}

func TestItemJSONRoundTripUnmanagedAndOpcode(t *testing.T) {
	items := []Item{
		{Kind: KindUnmanaged, Raw: []byte{0xde, 0xad, 0xbe, 0xef}},
		{Kind: KindJ, Op: 0x0b, Pointer: 7},
		{Kind: KindString},
	}
	for _, it := range items {
		b, err := it.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON: %v", err)
		}
		var got Item
		if err := got.UnmarshalJSON(b); err != nil {
			t.Fatalf("UnmarshalJSON: %v", err)
		}
		if got.Kind != it.Kind {
			t.Fatalf("got kind %v, want %v (json=%s)", got.Kind, it.Kind, b)
		}
	}
}
