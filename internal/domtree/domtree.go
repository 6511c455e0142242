// Package domtree computes the dominator tree of an SSA function's block
// graph, grounded on wazero's ssa/pass_cfg.go, which implements the
// Cooper-Harvey-Kennedy "Simple, Fast Dominance Algorithm"
// (https://www.cs.rice.edu/~keith/EMBED/dom.pdf) rather than the classical
// Lengauer-Tarjan algorithm the paper improves on.
package domtree

import "github.com/tickc/lowcore/internal/ssa"

// Tree exposes Dominates queries over a single function's CFG.
type Tree struct {
	order map[ssa.BlockID]int     // reverse postorder index.
	idom  map[ssa.BlockID]ssa.BlockID
	rpo   []ssa.BlockID
}

// Build computes the dominator tree of fn by iterating to a fixed point
// over the reverse-postorder block list, the same shape as wazero's own
// calculateDominators.
func Build(fn *ssa.Function) *Tree {
	rpo := reversePostOrder(fn)
	t := &Tree{
		order: make(map[ssa.BlockID]int, len(rpo)),
		idom:  make(map[ssa.BlockID]ssa.BlockID, len(rpo)),
		rpo:   rpo,
	}
	for i, b := range rpo {
		t.order[b] = i
	}
	if len(rpo) == 0 {
		return t
	}
	entry := rpo[0]
	t.idom[entry] = entry

	preds := predecessors(fn)

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var u ssa.BlockID
			found := false
			for _, pred := range preds[b] {
				if _, ok := t.idom[pred]; !ok {
					continue // predecessor not yet reachable in this pass.
				}
				if !found {
					u, found = pred, true
					continue
				}
				u = t.intersect(u, pred)
			}
			if cur, ok := t.idom[b]; found && (!ok || cur != u) {
				t.idom[b] = u
				changed = true
			}
		}
	}
	return t
}

// intersect returns the common dominator of a and b, walking each finger up
// to its immediate dominator until they meet. This is the `intersect`
// function from the Cooper-Harvey-Kennedy paper.
func (t *Tree) intersect(a, b ssa.BlockID) ssa.BlockID {
	for a != b {
		for t.order[a] > t.order[b] {
			a = t.idom[a]
		}
		for t.order[b] > t.order[a] {
			b = t.idom[b]
		}
	}
	return a
}

// Dominates reports whether a dominates b (every path from the entry to b
// passes through a). A block dominates itself.
func (t *Tree) Dominates(a, b ssa.BlockID) bool {
	if a == b {
		return true
	}
	cur, ok := t.idom[b]
	if !ok {
		return false
	}
	for {
		if cur == a {
			return true
		}
		parent, ok := t.idom[cur]
		if !ok || parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// IsBackEdge reports whether the edge source->target is a back-edge, i.e.
// target dominates source. Such jumps receive cmd_check = true.
func (t *Tree) IsBackEdge(source, target ssa.BlockID) bool {
	return t.Dominates(target, source)
}

// ReversePostOrder returns the function's reachable blocks in reverse
// postorder from the entry. The lowering builder does not use this order; it
// iterates fn.Blocks in insertion order.
func (t *Tree) ReversePostOrder() []ssa.BlockID { return t.rpo }

func reversePostOrder(fn *ssa.Function) []ssa.BlockID {
	entry := fn.Entry().ID
	const unseen, seen, done = 0, 1, 2
	state := make(map[ssa.BlockID]int, len(fn.Blocks))
	var postorder []ssa.BlockID

	stack := []ssa.BlockID{entry}
	state[entry] = seen
	for len(stack) > 0 {
		blk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch state[blk] {
		case unseen:
			panic("BUG: unreachable block reached during traversal")
		case seen:
			stack = append(stack, blk)
			for _, succ := range fn.Block(blk.Block).Successors() {
				if state[succ] == unseen {
					state[succ] = seen
					stack = append(stack, succ)
				}
			}
			state[blk] = done
		case done:
			postorder = append(postorder, blk)
		}
	}
	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder
}

func predecessors(fn *ssa.Function) map[ssa.BlockID][]ssa.BlockID {
	preds := make(map[ssa.BlockID][]ssa.BlockID, len(fn.Blocks))
	for i := range fn.Blocks {
		b := &fn.Blocks[i]
		for _, succ := range b.Successors() {
			preds[succ] = append(preds[succ], b.ID)
		}
	}
	return preds
}
