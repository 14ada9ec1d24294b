package event

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// itemJSON is the persisted shape of one Item: an opcode tag plus
// whichever operand fields that opcode carries. Unmanaged items persist
// as a bare lowercase hex string instead of an object, and String items
// persist as an empty array — their text lives in the dialog TOML file,
// not here.
type itemJSON struct {
	Op      string   `json:"op"`
	Opcode  byte     `json:"opcode,omitempty"`
	C       byte     `json:"c,omitempty"`
	D       byte     `json:"d,omitempty"`
	Field1  uint32   `json:"field1,omitempty"`
	Field2  uint32   `json:"field2,omitempty"`
	Field   uint32   `json:"field,omitempty"`
	Pointer uint32   `json:"pointer,omitempty"`
	Values  []uint32 `json:"values,omitempty"`
}

var kindNames = map[Kind]string{
	KindRet: "ret", KindJ: "j", KindJal: "jal", KindMulti: "multi",
	KindTxtPtr: "txtptr", KindCop: "cop", KindCop2: "cop2", KindPtr: "ptr",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (it Item) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case KindUnmanaged:
		return json.Marshal(fmt.Sprintf("%x", it.Raw))
	case KindString:
		return json.Marshal([]any{})
	default:
		return json.Marshal(itemJSON{
			Op: kindNames[it.Kind], Opcode: it.Op, C: it.C, D: it.D,
			Field1: it.Field1, Field2: it.Field2, Field: it.Field,
			Pointer: it.Pointer, Values: it.Values,
		})
	}
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err == nil {
		raw, err := hex.DecodeString(hexStr)
		if err != nil {
			return fmt.Errorf("event: bad unmanaged hex %q: %w", hexStr, err)
		}
		*it = Item{Kind: KindUnmanaged, Raw: raw}
		return nil
	}

	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		*it = Item{Kind: KindString}
		return nil
	}

	var ij itemJSON
	if err := json.Unmarshal(data, &ij); err != nil {
		return err
	}
	k, ok := namesToKind[ij.Op]
	if !ok {
		return fmt.Errorf("event: unknown item op %q", ij.Op)
	}
	*it = Item{
		Kind: k, Op: ij.Opcode, C: ij.C, D: ij.D,
		Field1: ij.Field1, Field2: ij.Field2, Field: ij.Field,
		Pointer: ij.Pointer, Values: ij.Values,
	}
	return nil
}

// SaveJSON persists prog's sections, keyed by 8-hex-digit section id, to
// path. Key order is section order: reassembly lays sections out in the
// order they appear in the file, so the object is written by hand rather
// than through a map. Dialog text is not included; callers persist it
// separately via dialog.Save.
func SaveJSON(path string, prog *Program) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, sec := range prog.Sections {
		items, err := json.Marshal(sec.Items)
		if err != nil {
			return fmt.Errorf("event: encode section %08x: %w", sec.ID, err)
		}
		fmt.Fprintf(&buf, "  %q: %s", fmt.Sprintf("%08x", sec.ID), items)
		if i < len(prog.Sections)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadJSON reads a Program's sections back from path, preserving the
// file's key order. The returned Program has no Dialog entries; callers
// pass dialog.Load's result to Reassemble as its overrides.
func LoadJSON(path string) (*Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("event: decode %s: %w", path, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("event: decode %s: expected top-level object", path)
	}

	prog := &Program{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("event: decode %s: %w", path, err)
		}
		key, _ := keyTok.(string)
		var id uint32
		if _, err := fmt.Sscanf(key, "%08x", &id); err != nil {
			return nil, fmt.Errorf("event: bad section id %q: %w", key, err)
		}
		var items []Item
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("event: decode section %s: %w", key, err)
		}
		prog.Sections = append(prog.Sections, Section{ID: id, Items: items})
	}
	return prog, nil
}
