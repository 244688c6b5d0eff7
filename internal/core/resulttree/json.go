package resulttree

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes n keeping mapping insertion order.
func (n *Node) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	writeNode(stream, n)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

func writeNode(s *jsoniter.Stream, n *Node) {
	if n == nil {
		s.WriteNil()
		return
	}
	switch n.kind {
	case KindScalar:
		if n.isInt {
			s.WriteInt64(n.num)
			return
		}
		s.WriteString(n.str)
	case KindSequence:
		s.WriteArrayStart()
		for i, it := range n.items {
			if i > 0 {
				s.WriteMore()
			}
			writeNode(s, it)
		}
		s.WriteArrayEnd()
	case KindMapping:
		s.WriteObjectStart()
		for i, k := range n.keys {
			if i > 0 {
				s.WriteMore()
			}
			s.WriteObjectField(k)
			writeNode(s, n.vals[k])
		}
		s.WriteObjectEnd()
	}
}

// UnmarshalJSON decodes data into n. A JSON null decodes to an empty mapping.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	if parsed == nil {
		parsed = Map()
	}
	*n = *parsed
	return nil
}

// FromJSON decodes a JSON document, preserving object key order.
// Booleans become string scalars and non-integral numbers keep their text.
func FromJSON(data []byte) (*Node, error) {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	n := readNode(iter)
	if iter.Error != nil {
		return nil, fmt.Errorf("decode result tree: %w", iter.Error)
	}
	return n, nil
}

func readNode(iter *jsoniter.Iterator) *Node {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		m := Map()
		iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			m.Set(field, readNode(it))
			return it.Error == nil
		})
		return m
	case jsoniter.ArrayValue:
		s := Seq()
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			s.Append(readNode(it))
			return it.Error == nil
		})
		return s
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.NumberValue:
		num := iter.ReadNumber()
		if i, err := num.Int64(); err == nil {
			return Int(i)
		}
		return String(num.String())
	case jsoniter.BoolValue:
		return String(strconv.FormatBool(iter.ReadBool()))
	case jsoniter.NilValue:
		iter.ReadNil()
		return nil
	default:
		iter.ReportError("readNode", "unexpected token")
		return nil
	}
}

// FromAny converts plain Go values (maps, slices, strings, numbers) into a tree.
// Go maps have no order, so their keys are inserted sorted.
func FromAny(v any) (*Node, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Node:
		return x, nil
	case string:
		return String(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case int32:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return Int(int64(x)), nil
		}
		return String(strconv.FormatFloat(x, 'f', -1, 64)), nil
	case bool:
		return String(strconv.FormatBool(x)), nil
	case []string:
		return Strings(x...), nil
	case []*Node:
		return Seq(x...), nil
	case []any:
		s := Seq()
		for _, it := range x {
			child, err := FromAny(it)
			if err != nil {
				return nil, err
			}
			s.Append(child)
		}
		return s, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Map()
		for _, k := range keys {
			child, err := FromAny(x[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, child)
		}
		return m, nil
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Map()
		for _, k := range keys {
			m.Set(k, String(x[k]))
		}
		return m, nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("convert %T to result tree: %w", v, err)
		}
		return FromJSON(data)
	}
}

// ToAny converts n back to plain Go values.
func (n *Node) ToAny() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case KindScalar:
		if n.isInt {
			return n.num
		}
		return n.str
	case KindSequence:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.ToAny()
		}
		return out
	default:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.vals[k].ToAny()
		}
		return out
	}
}
