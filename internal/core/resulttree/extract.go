package resulttree

// Extract returns the value of every mapping entry named key at any depth.
// A matched value is not searched further; its siblings are.
func Extract(tree *Node, key string) []*Node {
	out := []*Node{}
	extract(tree, key, &out)
	return out
}

// ExtractAll runs Extract over several trees and concatenates the results.
func ExtractAll(trees []*Node, key string) []*Node {
	out := []*Node{}
	for _, t := range trees {
		extract(t, key, &out)
	}
	return out
}

func extract(n *Node, key string, out *[]*Node) {
	if n == nil {
		return
	}
	switch n.kind {
	case KindSequence:
		for _, it := range n.items {
			extract(it, key, out)
		}
	case KindMapping:
		for _, k := range n.keys {
			v := n.vals[k]
			if k == key {
				*out = append(*out, v)
				continue
			}
			extract(v, key, out)
		}
	}
}

// ScalarTexts flattens nodes into the text of every scalar they contain,
// in traversal order. Mapping values are visited too.
func ScalarTexts(nodes []*Node) []string {
	var out []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		switch n.kind {
		case KindScalar:
			out = append(out, n.Text())
		case KindSequence:
			for _, it := range n.items {
				walk(it)
			}
		case KindMapping:
			for _, k := range n.keys {
				walk(n.vals[k])
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}
