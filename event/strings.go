package event

import "sort"

// stringTable is the offset-keyed set of dialog string buffers
// discovered while scanning. Buffers are held by pointer so a split can
// truncate one in place without the Items referencing it noticing.
type stringTable struct {
	offsets []uint32
	bufs    map[uint32]*StringBuf
}

func newStringTable() *stringTable {
	return &stringTable{bufs: make(map[uint32]*StringBuf)}
}

func (s *stringTable) get(off uint32) (*StringBuf, bool) {
	b, ok := s.bufs[off]
	return b, ok
}

func (s *stringTable) lenAt(off uint32) uint32 {
	if b, ok := s.bufs[off]; ok {
		return uint32(len(b.Bytes))
	}
	return 0
}

func (s *stringTable) insert(off uint32, buf *StringBuf) {
	s.offsets = insertSorted(s.offsets, off)
	s.bufs[off] = buf
}

// floorBefore returns the greatest tracked offset strictly less than off.
func (s *stringTable) floorBefore(off uint32) (uint32, *StringBuf, bool) {
	i := sort.Search(len(s.offsets), func(i int) bool { return s.offsets[i] >= off })
	if i == 0 {
		return 0, nil, false
	}
	o := s.offsets[i-1]
	return o, s.bufs[o], true
}

// ceilingAfter returns the smallest tracked offset strictly greater than
// off.
func (s *stringTable) ceilingAfter(off uint32) (uint32, bool) {
	i := sort.Search(len(s.offsets), func(i int) bool { return s.offsets[i] > off })
	if i < len(s.offsets) {
		return s.offsets[i], true
	}
	return 0, false
}

// fastForward reuses an existing string entry if pointer lands exactly
// on one, or splits one in two if pointer lands inside one. Returns
// false if pointer isn't covered by any known string, meaning the
// caller must scan fresh bytes to discover it.
func (s *stringTable) fastForward(pointer uint32) bool {
	if _, ok := s.bufs[pointer]; ok {
		return true
	}
	prevOff, buf, ok := s.floorBefore(pointer)
	if !ok {
		return false
	}
	splitAt := pointer - prevOff
	if splitAt == 0 || int(splitAt) >= len(buf.Bytes) {
		return false
	}
	tail := append([]byte{}, buf.Bytes[splitAt:]...)
	buf.Bytes = buf.Bytes[:splitAt]
	s.insert(pointer, &StringBuf{Bytes: tail})
	return true
}
