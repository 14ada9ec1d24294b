package event

import (
	"encoding/binary"
	"fmt"

	"github.com/duskforge/romkit/dialog"
	"github.com/duskforge/romkit/internal/romlog"
)

// Reassemble lays sections out in order starting at offset 0, encodes
// every dialog override back to wire bytes, and emits the final blob
// with pointer operands resolved against each section's computed start
// offset. overrides, when non-nil, replaces the Program's own decoded
// dialog for a section id; this is how an edited TOML file gets baked
// back into the blob.
func Reassemble(prog *Program, overrides map[uint32]dialog.String, english bool) ([]byte, error) {
	dialogByID := make(map[uint32]dialog.String, len(prog.Dialog))
	for _, d := range prog.Dialog {
		dialogByID[d.ID] = d.String
	}
	for id, d := range overrides {
		dialogByID[id] = d
	}

	offsetOf := make(map[uint32]int)
	est := 0
	materialized := make([]Section, len(prog.Sections))
	for si, sec := range prog.Sections {
		if _, ok := offsetOf[sec.ID]; !ok {
			offsetOf[sec.ID] = est
		}
		items := make([]Item, len(sec.Items))
		for i, it := range sec.Items {
			if it.Kind == KindString {
				d, ok := dialogByID[sec.ID]
				if !ok {
					return nil, fmt.Errorf("event: section %d has a String item with no dialog text", sec.ID)
				}
				it.Str = &StringBuf{Bytes: dialog.Encode(d, est, english)}
			}
			items[i] = it
			est += it.WireLen()
		}
		materialized[si] = Section{ID: sec.ID, Items: items}
	}

	var out []byte
	for _, sec := range materialized {
		for _, it := range sec.Items {
			switch it.Kind {
			case KindRet:
				out = append(out, 0x0a, 0x00, 0x00, 0x00)
			case KindString:
				out = append(out, it.Str.Bytes...)
			case KindUnmanaged:
				out = append(out, it.Raw...)
			default:
				prefix, hasPointer := it.fixedPrefixBytes()
				out = append(out, prefix...)
				if hasPointer {
					if off, ok := offsetOf[it.Pointer]; ok {
						out = binary.LittleEndian.AppendUint32(out, uint32(off))
					} else {
						romlog.Error("event: unresolved pointer symbol, emitting zero offset",
							romlog.Fields{"symbol": it.Pointer})
						out = append(out, 0, 0, 0, 0)
					}
				}
				if it.Kind == KindMulti {
					for _, v := range it.Values {
						out = binary.LittleEndian.AppendUint32(out, v)
					}
				}
			}
		}
	}
	return out, nil
}
