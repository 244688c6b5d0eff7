package resulttree

// Merge folds trees into one. Mappings merge by key union; colliding
// sequences concatenate without duplicate values; distinct colliding scalars
// become a sequence of the values observed. Nil trees are skipped and an
// empty input yields an empty mapping.
func Merge(trees ...*Node) *Node {
	var acc *Node
	for _, t := range trees {
		if t == nil {
			continue
		}
		acc = merge2(acc, t)
	}
	if acc == nil {
		return Map()
	}
	return acc
}

func merge2(a, b *Node) *Node {
	switch {
	case a == nil:
		return normalize(b)
	case b == nil:
		return normalize(a)
	}

	if a.kind == KindMapping && b.kind == KindMapping {
		out := normalize(a)
		for _, k := range b.keys {
			bv := b.vals[k]
			if av, ok := out.vals[k]; ok {
				out.vals[k] = merge2(av, bv)
				continue
			}
			out.Set(k, normalize(bv))
		}
		return out
	}

	if a.kind == KindScalar && b.kind == KindScalar && a.Equal(b) {
		return a.Clone()
	}

	out := Seq()
	seen := make(map[string]struct{})
	appendUnique(out, seen, elements(a))
	appendUnique(out, seen, elements(b))
	return out
}

// normalize clones n, deduplicating every sequence it contains.
func normalize(n *Node) *Node {
	switch n.kind {
	case KindSequence:
		out := Seq()
		appendUnique(out, make(map[string]struct{}), n.items)
		return out
	case KindMapping:
		out := Map()
		for _, k := range n.keys {
			out.Set(k, normalize(n.vals[k]))
		}
		return out
	default:
		return n.Clone()
	}
}

func elements(n *Node) []*Node {
	if n.kind == KindSequence {
		return n.items
	}
	return []*Node{n}
}

func appendUnique(dst *Node, seen map[string]struct{}, items []*Node) {
	for _, it := range items {
		if it == nil {
			continue
		}
		fp := it.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		dst.items = append(dst.items, normalize(it))
	}
}
