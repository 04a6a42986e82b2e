package hash

import (
	"encoding/binary"
	"io"
)

// WriterToWithDomain is a value that can be absorbed into a transcript.
// Domain distinguishes types which would otherwise write the same bytes.
type WriterToWithDomain interface {
	io.WriterTo
	Domain() string
}

// writeWithDomain frames v as len(domain) ‖ domain ‖ data ‖ len(data).
// The trailing length is only known once v has been written, so v never needs to be buffered.
func writeWithDomain(w io.Writer, v WriterToWithDomain) error {
	domain := v.Domain()
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(domain)))
	if _, err := w.Write(append(size[:], domain...)); err != nil {
		return err
	}
	n, err := v.WriteTo(w)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(size[:], uint64(n))
	_, err = w.Write(size[:])
	return err
}

// Tagged is a byte string written under an explicit domain.
type Tagged struct {
	Tag  string
	Data []byte
}

func (t Tagged) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t.Data)
	return int64(n), err
}

func (t Tagged) Domain() string { return t.Tag }
