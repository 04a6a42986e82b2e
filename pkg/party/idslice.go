package party

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/taurusgroup/cmp-ia/internal/hash"
)

// IDSlice is an ordered set of parties.
// Every function constructing an IDSlice returns it sorted and without duplicates.
type IDSlice []ID

// NewIDSlice returns a sorted copy of partyIDs with duplicates removed.
func NewIDSlice(partyIDs []ID) IDSlice {
	ids := IDSlice(partyIDs).Copy()
	ids.sort()
	return ids.dedup()
}

func (partyIDs IDSlice) Len() int           { return len(partyIDs) }
func (partyIDs IDSlice) Less(i, j int) bool { return partyIDs[i] < partyIDs[j] }
func (partyIDs IDSlice) Swap(i, j int)      { partyIDs[i], partyIDs[j] = partyIDs[j], partyIDs[i] }

func (partyIDs IDSlice) sort() { sort.Sort(partyIDs) }

func (partyIDs IDSlice) dedup() IDSlice {
	if len(partyIDs) == 0 {
		return partyIDs
	}
	out := partyIDs[:1]
	for _, id := range partyIDs[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// Contains returns true if partyIDs contains all ids.
func (partyIDs IDSlice) Contains(ids ...ID) bool {
	for _, id := range ids {
		if _, ok := partyIDs.search(id); !ok {
			return false
		}
	}
	return true
}

// GetIndex returns the index of id in partyIDs, or -1 if it is absent.
func (partyIDs IDSlice) GetIndex(id ID) int {
	if idx, ok := partyIDs.search(id); ok {
		return idx
	}
	return -1
}

func (partyIDs IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(partyIDs), func(i int) bool { return partyIDs[i] >= x })
	if index < len(partyIDs) && partyIDs[index] == x {
		return index, true
	}
	return 0, false
}

// Valid returns true if partyIDs is sorted, has no duplicates and only contains valid IDs.
func (partyIDs IDSlice) Valid() bool {
	for i, id := range partyIDs {
		if i > 0 && partyIDs[i-1] >= id {
			return false
		}
		if id.Validate() != nil {
			return false
		}
	}
	return true
}

// Copy returns an identical copy of the receiver.
func (partyIDs IDSlice) Copy() IDSlice {
	a := make(IDSlice, len(partyIDs))
	copy(a, partyIDs)
	return a
}

// Remove returns a copy of partyIDs without id.
func (partyIDs IDSlice) Remove(id ID) IDSlice {
	out := make(IDSlice, 0, len(partyIDs))
	for _, p := range partyIDs {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}

// Equal returns true if both slices contain the same parties.
func (partyIDs IDSlice) Equal(other IDSlice) bool {
	if len(partyIDs) != len(other) {
		return false
	}
	for i := range partyIDs {
		if partyIDs[i] != other[i] {
			return false
		}
	}
	return true
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (partyIDs IDSlice) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint64(len(partyIDs))); err != nil {
		return 0, err
	}
	nAll := int64(8)
	for _, id := range partyIDs {
		n, err := w.Write([]byte(id))
		nAll += int64(n)
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}

func (id ID) digest() []byte {
	return hash.New(id).Sum()
}
