package dialog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// tomlEntry is the on-disk shape of one dialog string: a mixed-tag text
// value and an optional padding flag, omitted when false.
type tomlEntry struct {
	Text   string `toml:"text"`
	Padded bool   `toml:"padded,omitempty"`
}

// Save writes strings, keyed by section id, to path as TOML. Keys are
// rendered as 8-hex-digit big-endian strings, matching the persisted
// event data's section id stringification.
func Save(path string, strings map[uint32]String) error {
	raw := make(map[string]tomlEntry, len(strings))
	for id, d := range strings {
		raw[fmt.Sprintf("%08x", id)] = tomlEntry{Text: d.Render(), Padded: d.Padded}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(raw)
}

// Load reads a TOML dialog file back into a map keyed by section id.
func Load(path string) (map[uint32]String, error) {
	var raw map[string]tomlEntry
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("dialog: decode %s: %w", path, err)
	}

	out := make(map[uint32]String, len(raw))
	for key, entry := range raw {
		var id uint32
		if _, err := fmt.Sscanf(key, "%08x", &id); err != nil {
			return nil, fmt.Errorf("dialog: bad section id %q: %w", key, err)
		}
		items, err := Parse(entry.Text)
		if err != nil {
			return nil, fmt.Errorf("dialog: section %s: %w", key, err)
		}
		out[id] = String{Text: items, Padded: entry.Padded}
	}
	return out, nil
}
