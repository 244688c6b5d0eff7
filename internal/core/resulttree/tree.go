// Package resulttree models plugin output as an explicit tagged union of
// scalars, sequences and mappings, and implements the recursive merge and
// extract operations the scheduler runs over it.
package resulttree

import (
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Node.
type Kind uint8

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Node is one value of a result tree. A nil *Node means "no result".
// Mapping keys are unique and keep insertion order for display only.
type Node struct {
	kind Kind

	// scalar
	str   string
	num   int64
	isInt bool

	// sequence
	items []*Node

	// mapping
	keys []string
	vals map[string]*Node
}

// String builds a string scalar.
func String(s string) *Node {
	return &Node{kind: KindScalar, str: s}
}

// Int builds an integer scalar.
func Int(i int64) *Node {
	return &Node{kind: KindScalar, num: i, isInt: true}
}

// Seq builds a sequence; nil items are dropped.
func Seq(items ...*Node) *Node {
	n := &Node{kind: KindSequence, items: make([]*Node, 0, len(items))}
	return n.Append(items...)
}

// Strings builds a sequence of string scalars.
func Strings(values ...string) *Node {
	n := &Node{kind: KindSequence, items: make([]*Node, 0, len(values))}
	for _, v := range values {
		n.items = append(n.items, String(v))
	}
	return n
}

// Map builds an empty mapping.
func Map() *Node {
	return &Node{kind: KindMapping, vals: make(map[string]*Node)}
}

// Kind returns the variant of n.
func (n *Node) Kind() Kind { return n.kind }

func (n *Node) IsScalar() bool   { return n != nil && n.kind == KindScalar }
func (n *Node) IsSequence() bool { return n != nil && n.kind == KindSequence }
func (n *Node) IsMapping() bool  { return n != nil && n.kind == KindMapping }

// Set assigns key in a mapping and returns n for chaining.
// Setting a nil value is a no-op.
func (n *Node) Set(key string, v *Node) *Node {
	if n.kind != KindMapping || v == nil {
		return n
	}
	if _, exists := n.vals[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = v
	return n
}

// Get looks up key in a mapping.
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMapping() {
		return nil, false
	}
	v, ok := n.vals[key]
	return v, ok
}

// Keys returns mapping keys in insertion order.
func (n *Node) Keys() []string {
	if !n.IsMapping() {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Append adds items to a sequence and returns n for chaining.
func (n *Node) Append(items ...*Node) *Node {
	if n.kind != KindSequence {
		return n
	}
	for _, it := range items {
		if it != nil {
			n.items = append(n.items, it)
		}
	}
	return n
}

// Items returns the elements of a sequence.
func (n *Node) Items() []*Node {
	if !n.IsSequence() {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Len is the number of entries (mapping), items (sequence) or 1 for scalars.
func (n *Node) Len() int {
	switch {
	case n == nil:
		return 0
	case n.kind == KindMapping:
		return len(n.keys)
	case n.kind == KindSequence:
		return len(n.items)
	default:
		return 1
	}
}

// Text renders a scalar as text. Non-scalars render as compact JSON.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.kind == KindScalar {
		if n.isInt {
			return strconv.FormatInt(n.num, 10)
		}
		return n.str
	}
	data, err := n.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// IntValue returns the integer held by an int scalar.
func (n *Node) IntValue() (int64, bool) {
	if !n.IsScalar() || !n.isInt {
		return 0, false
	}
	return n.num, true
}

func (n *Node) String() string { return n.Text() }

// Fingerprint is a canonical encoding used for value equality.
// Mapping keys are sorted; sequence order is significant.
func (n *Node) Fingerprint() string {
	var b strings.Builder
	n.writeFingerprint(&b)
	return b.String()
}

func (n *Node) writeFingerprint(b *strings.Builder) {
	if n == nil {
		b.WriteString("null")
		return
	}
	switch n.kind {
	case KindScalar:
		if n.isInt {
			b.WriteString("i")
			b.WriteString(strconv.FormatInt(n.num, 10))
			return
		}
		b.WriteString("s")
		b.WriteString(strconv.Quote(n.str))
	case KindSequence:
		b.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				b.WriteByte(',')
			}
			it.writeFingerprint(b)
		}
		b.WriteByte(']')
	case KindMapping:
		keys := append([]string(nil), n.keys...)
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			n.vals[k].writeFingerprint(b)
		}
		b.WriteByte('}')
	}
}

// Equal reports value equality.
func (n *Node) Equal(other *Node) bool {
	return n.Fingerprint() == other.Fingerprint()
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{kind: n.kind, str: n.str, num: n.num, isInt: n.isInt}
	switch n.kind {
	case KindSequence:
		out.items = make([]*Node, len(n.items))
		for i, it := range n.items {
			out.items[i] = it.Clone()
		}
	case KindMapping:
		out.keys = append([]string(nil), n.keys...)
		out.vals = make(map[string]*Node, len(n.vals))
		for k, v := range n.vals {
			out.vals[k] = v.Clone()
		}
	}
	return out
}

// HasOnlyScalarValues reports whether every entry of a mapping is a scalar.
func (n *Node) HasOnlyScalarValues() bool {
	if !n.IsMapping() {
		return false
	}
	for _, k := range n.keys {
		if !n.vals[k].IsScalar() {
			return false
		}
	}
	return true
}
