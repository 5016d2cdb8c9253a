// Package fingerprint computes identity-independent content hashes of plan
// entities and indexes collections by them.
//
// An entity opts in by implementing Hashable and writing its hash-relevant fields,
// in a fixed order, to the Writer. Identifiers, the modified flag, parent foreign
// keys and transient fields are simply never written.
package fingerprint

import (
	"encoding/binary"
	"math"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"

	pstrings "arho/pkg/platform/strings"
)

// Hash is a content fingerprint.
type Hash uint64

// Hashable is implemented by every entity that takes part in content comparison.
// Implementations must tolerate a nil receiver and write nothing for it, so that a
// missing nested value and an empty one hash the same.
type Hashable interface {
	Fingerprint(w *Writer)
}

// value tags
const (
	tagAbsent byte = iota
	tagString
	tagInt
	tagFloat
	tagBool
	tagTime
	tagSet
	tagNested
	tagMultiset
)

// Writer accumulates a tagged, length-prefixed byte stream.
type Writer struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newWriter() *Writer {
	return &Writer{d: xxhash.New()}
}

// Of returns the content hash of h.
func Of(h Hashable) Hash {
	w := newWriter()
	if h != nil {
		h.Fingerprint(w)
	}
	return Hash(w.d.Sum64())
}

func (w *Writer) field(name string, tag byte) {
	w.uint(uint64(len(name)))
	_, _ = w.d.WriteString(name)
	_, _ = w.d.Write([]byte{tag})
}

func (w *Writer) uint(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	_, _ = w.d.Write(w.buf[:])
}

func (w *Writer) str(v string) {
	w.uint(uint64(len(v)))
	_, _ = w.d.WriteString(v)
}

// Absent records that name carries no value.
func (w *Writer) Absent(name string) {
	w.field(name, tagAbsent)
}

// String writes a text field; the empty string is absent.
func (w *Writer) String(name, v string) {
	if v == "" {
		w.Absent(name)
		return
	}
	w.field(name, tagString)
	w.str(v)
}

// Int writes an optional integer field.
func (w *Writer) Int(name string, v *int) {
	if v == nil {
		w.Absent(name)
		return
	}
	w.field(name, tagInt)
	w.uint(uint64(int64(*v)))
}

// Float writes an optional float field. Negative zero hashes as zero.
func (w *Writer) Float(name string, v *float64) {
	if v == nil {
		w.Absent(name)
		return
	}
	f := *v
	if f == 0 {
		f = 0 // collapses -0
	}
	w.field(name, tagFloat)
	w.uint(math.Float64bits(f))
}

// Bool writes a boolean field.
func (w *Writer) Bool(name string, v bool) {
	w.field(name, tagBool)
	if v {
		w.uint(1)
		return
	}
	w.uint(0)
}

// Time writes an optional instant at nanosecond precision in UTC.
func (w *Writer) Time(name string, v *time.Time) {
	if v == nil || v.IsZero() {
		w.Absent(name)
		return
	}
	w.field(name, tagTime)
	w.uint(uint64(v.UTC().UnixNano()))
}

// Set writes a collection of plain values as a set: order and duplicates are
// irrelevant. An empty set is absent.
func (w *Writer) Set(name string, values []string) {
	set := pstrings.SortedSet(values)
	if len(set) == 0 {
		w.Absent(name)
		return
	}
	w.field(name, tagSet)
	w.uint(uint64(len(set)))
	for _, v := range set {
		w.str(v)
	}
}

// SetOf writes identifier-like values as a set, see Writer.Set.
func SetOf[S ~string](w *Writer, name string, values []S) {
	plain := make([]string, len(values))
	for i, v := range values {
		plain[i] = string(v)
	}
	w.Set(name, plain)
}

// Nested writes the hash of a nested entity. A nil or empty entity is absent.
func (w *Writer) Nested(name string, h Hashable) {
	if h == nil {
		w.Absent(name)
		return
	}
	sub := Of(h)
	if sub == emptyHash {
		w.Absent(name)
		return
	}
	w.field(name, tagNested)
	w.uint(uint64(sub))
}

// Multiset writes child hashes as a multiset: order is irrelevant, multiplicity
// is not. An empty multiset is absent.
func (w *Writer) Multiset(name string, hashes []Hash) {
	if len(hashes) == 0 {
		w.Absent(name)
		return
	}
	sorted := slices.Clone(hashes)
	slices.Sort(sorted)
	w.field(name, tagMultiset)
	w.uint(uint64(len(sorted)))
	for _, h := range sorted {
		w.uint(uint64(h))
	}
}

// Children writes a list of nested entities as a multiset of their hashes.
func Children[T Hashable](w *Writer, name string, items []T) {
	hashes := make([]Hash, 0, len(items))
	for _, item := range items {
		hashes = append(hashes, Of(item))
	}
	w.Multiset(name, hashes)
}

// emptyHash is the hash of an entity that wrote nothing.
var emptyHash = Hash(xxhash.New().Sum64())
