package compiler

// numberEmittables assigns each node in the list a strictly increasing
// index, giving every later pass a total order to compare liveness
// intervals against (spec.md §4.4.3 "a forward linear scan over the
// Emittable stream").
func numberEmittables(head Emittable) {
	i := 0
	for e := head; e != nil; e = e.emittableNode().next {
		e.emittableNode().index = i
		i++
	}
}

// computeLiveness walks the numbered Emittable list once, recording each
// Variable's first and last referencing index. A Variable with no
// references at all keeps the zero value for both fields and is left
// unallocated by regalloc.
func computeLiveness(head Emittable, vars []*Variable) {
	seen := make(map[*Variable]bool, len(vars))
	touch := func(v *Variable, idx int) {
		if !seen[v] {
			v.firstUse = idx
			seen[v] = true
		}
		v.lastUse = idx
	}

	for e := head; e != nil; e = e.emittableNode().next {
		n := e.emittableNode()
		for _, v := range n.reads {
			touch(v, n.index)
		}
		for _, v := range n.writes {
			touch(v, n.index)
		}
	}

	// A FunctionDecl's arguments are live from function entry even if the
	// body never reads one of them (e.g. an unused trailing argument),
	// and a FunctionDecl/FunctionEnd's Result is live through the return.
	for e := head; e != nil; e = e.emittableNode().next {
		switch t := e.(type) {
		case *FunctionDecl:
			for _, v := range t.Args {
				if !seen[v] {
					v.firstUse = t.node.index
					v.lastUse = t.node.index
					seen[v] = true
				} else if t.node.index < v.firstUse {
					v.firstUse = t.node.index
				}
			}
		}
	}
}
