// Package liveness computes, for each SSA variable, the program points
// where it is live. It is grounded on wazero's own
// backend/regalloc/intervals.go in spirit (range-based liveness consumed by
// the allocator's overlap test) but implemented as classical block-level
// backward dataflow to a fixed point, since wazero's own interval-tree
// machinery is tailored to its regalloc2-style allocator rather than the
// union-find coalescing scheme this core implements (see DESIGN.md).
package liveness

import "github.com/tickc/lowcore/internal/ssa"

// Range is a half-open [Start, End) span of instruction indices within a
// single block's body where a variable is live, used by the allocator's
// overlap test.
type Range struct {
	Start, End int
}

// BlockLiveRange records whether a variable is live-in to a block, and the
// ranges of instruction indices (within that block only) where it is live.
type BlockLiveRange struct {
	LiveIn bool
	Body   []Range
}

// Info is the liveness result for one function: the block-indexed
// BlockLiveRange view and the per-instruction live-out oracle view.
type Info struct {
	fn *ssa.Function

	// ranges[var][blockIndex] is this variable's BlockLiveRange in that
	// block, only present for blocks where the variable is live at all.
	ranges map[uint32]map[uint32]BlockLiveRange

	// liveOutBody[block][k] is the set of variable ids live immediately
	// before instruction k in that block, i.e. right after instruction k-1
	// (the oracle view used by call lowering's caller-save computation).
	// Index len(Body) is the set live after the last body instruction: the
	// block's live-out set plus the variables the terminator reads.
	liveOutBody map[uint32][]map[uint32]struct{}
}

// Analyze runs the standard backward dataflow to fixed point:
//
//	live_in(B)  = use(B) ∪ (live_out(B) − def(B))
//	live_out(B) = ⋃ live_in(S) over successors S
//
// seeded from terminators; block parameters count as definitions at the top
// of the block, and jump arguments count as uses at the terminator.
func Analyze(fn *ssa.Function) *Info {
	blocks := fn.Blocks
	use := make(map[uint32]map[uint32]struct{}, len(blocks))
	def := make(map[uint32]map[uint32]struct{}, len(blocks))
	for i := range blocks {
		u, d := useDef(&blocks[i])
		use[blocks[i].ID.Block] = u
		def[blocks[i].ID.Block] = d
	}

	succs := make(map[uint32][]uint32, len(blocks))
	preds := make(map[uint32][]uint32, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		for _, s := range b.Successors() {
			succs[b.ID.Block] = append(succs[b.ID.Block], s.Block)
			preds[s.Block] = append(preds[s.Block], b.ID.Block)
		}
	}

	liveIn := make(map[uint32]map[uint32]struct{}, len(blocks))
	liveOut := make(map[uint32]map[uint32]struct{}, len(blocks))
	for i := range blocks {
		idx := blocks[i].ID.Block
		liveIn[idx] = make(map[uint32]struct{})
		liveOut[idx] = make(map[uint32]struct{})
	}

	changed := true
	for changed {
		changed = false
		// Iterate in reverse block order; order doesn't affect the fixed
		// point, only convergence speed.
		for i := len(blocks) - 1; i >= 0; i-- {
			idx := blocks[i].ID.Block

			newOut := make(map[uint32]struct{})
			for _, s := range succs[idx] {
				for v := range liveIn[s] {
					newOut[v] = struct{}{}
				}
			}

			newIn := make(map[uint32]struct{})
			for v := range use[idx] {
				newIn[v] = struct{}{}
			}
			for v := range newOut {
				if _, isDef := def[idx][v]; !isDef {
					newIn[v] = struct{}{}
				}
			}

			if !setEqual(newIn, liveIn[idx]) || !setEqual(newOut, liveOut[idx]) {
				liveIn[idx] = newIn
				liveOut[idx] = newOut
				changed = true
			}
		}
	}

	info := &Info{
		fn:          fn,
		ranges:      make(map[uint32]map[uint32]BlockLiveRange),
		liveOutBody: make(map[uint32][]map[uint32]struct{}, len(blocks)),
	}
	for i := range blocks {
		b := &blocks[i]
		idx := b.ID.Block
		info.liveOutBody[idx] = computeLiveOutBody(b, liveOut[idx])
		info.recordRanges(b, liveIn[idx], info.liveOutBody[idx])
	}
	return info
}

// computeLiveOutBody walks a block's body backward from its terminator,
// seeded by the block's live-out set, producing the per-instruction
// live-out oracle.
func computeLiveOutBody(b *ssa.BasicBlock, liveOut map[uint32]struct{}) []map[uint32]struct{} {
	n := len(b.Body)
	out := make([]map[uint32]struct{}, n+1)
	cur := cloneSet(liveOut)
	for v := range terminatorUses(b) {
		cur[v] = struct{}{}
	}
	out[n] = cur
	for i := n - 1; i >= 0; i-- {
		// out[i+1] is the set live right after instruction i; removing i's
		// definitions and adding its operands gives the set live right
		// before instruction i, stored as out[i].
		next := cloneSet(out[i+1])
		instr := &b.Body[i]
		if instr.Dest.Valid() {
			delete(next, instr.Dest.ID)
		}
		for _, d := range instr.Dests {
			delete(next, d.ID)
		}
		for _, a := range instr.Args {
			if !a.IsConst() {
				next[a.Var().ID] = struct{}{}
			}
		}
		out[i] = next
	}
	return out
}

// recordRanges derives, for each variable appearing in b, its
// BlockLiveRange: whether it's live-in, and the [def-or-start, last-use]
// ranges of instruction indices in this block's body.
func (info *Info) recordRanges(b *ssa.BasicBlock, liveIn map[uint32]struct{}, liveOutBody []map[uint32]struct{}) {
	idx := b.ID.Block
	touch := func(id uint32, r BlockLiveRange) {
		m := info.ranges[id]
		if m == nil {
			m = make(map[uint32]BlockLiveRange)
			info.ranges[id] = m
		}
		m[idx] = r
	}

	n := len(b.Body)
	for v := range liveIn {
		end, _ := lastUseOrEnd(v, b, liveOutBody)
		touch(v, BlockLiveRange{LiveIn: true, Body: []Range{{Start: 0, End: end}}})
	}
	for _, p := range b.Params {
		if _, isLiveIn := liveIn[p.ID]; isLiveIn {
			continue // a block parameter is never also live-in; defensive only.
		}
		end, _ := lastUseOrEnd(p.ID, b, liveOutBody)
		if end <= 0 {
			end = 1 // dead on arrival but still occupies its def point.
		}
		r := info.ranges[p.ID][idx]
		r.Body = append(r.Body, Range{Start: 0, End: end})
		touch(p.ID, r)
	}
	for i := 0; i < n; i++ {
		instr := &b.Body[i]
		defs := instr.Dests
		if instr.Dest.Valid() {
			defs = append([]ssa.Var{instr.Dest}, defs...)
		}
		for _, d := range defs {
			end, _ := lastUseOrEnd(d.ID, b, liveOutBody)
			if end <= i {
				end = i + 1 // dead on arrival but still occupies its def point.
			}
			r := info.ranges[d.ID][idx]
			r.Body = append(r.Body, Range{Start: i, End: end})
			touch(d.ID, r)
		}
	}
}

// lastUseOrEnd finds the last instruction index (exclusive end) where v is
// read in b, including the terminator's own uses (cond, jump arguments,
// return values), falling back to block length when v is live-out.
func lastUseOrEnd(v uint32, b *ssa.BasicBlock, liveOutBody []map[uint32]struct{}) (int, bool) {
	n := len(b.Body)
	if _, liveOut := liveOutBody[n][v]; liveOut {
		return n, true
	}
	if _, used := terminatorUses(b)[v]; used {
		return n, true
	}
	last := -1
	for i := 0; i < n; i++ {
		for _, a := range b.Body[i].Args {
			if !a.IsConst() && a.Var().ID == v {
				last = i + 1
			}
		}
	}
	if last == -1 {
		return 0, false
	}
	return last, true
}

// terminatorUses is the set of variable ids read directly by b's
// terminator: jump/branch arguments, the branch condition, and return
// values. Used to extend a variable's local range to the terminator even
// when it has no use within the body (e.g. a parameter returned unchanged).
func terminatorUses(b *ssa.BasicBlock) map[uint32]struct{} {
	out := make(map[uint32]struct{})
	add := func(o ssa.VarOrConst) {
		if !o.IsConst() {
			out[o.Var().ID] = struct{}{}
		}
	}
	for _, ja := range b.JumpArgsList() {
		for _, a := range ja.Args {
			add(a)
		}
	}
	if b.Term.Kind == ssa.TermBranchIf || b.Term.Kind == ssa.TermBranchTable {
		add(b.Term.Cond)
	}
	for _, r := range b.Term.Returns {
		add(r)
	}
	return out
}

func useDef(b *ssa.BasicBlock) (use, def map[uint32]struct{}) {
	use = make(map[uint32]struct{})
	def = make(map[uint32]struct{})
	for _, p := range b.Params {
		def[p.ID] = struct{}{}
	}
	markUse := func(o ssa.VarOrConst) {
		if o.IsConst() {
			return
		}
		id := o.Var().ID
		if _, isDef := def[id]; !isDef {
			use[id] = struct{}{}
		}
	}
	for i := range b.Body {
		instr := &b.Body[i]
		for _, a := range instr.Args {
			markUse(a)
		}
		if instr.Dest.Valid() {
			def[instr.Dest.ID] = struct{}{}
		}
		for _, d := range instr.Dests {
			def[d.ID] = struct{}{}
		}
	}
	for _, ja := range b.JumpArgsList() {
		for _, a := range ja.Args {
			markUse(a)
		}
	}
	if b.Term.Kind == ssa.TermBranchIf || b.Term.Kind == ssa.TermBranchTable {
		markUse(b.Term.Cond)
	}
	for _, r := range b.Term.Returns {
		markUse(r)
	}
	return use, def
}

func cloneSet(s map[uint32]struct{}) map[uint32]struct{} {
	out := make(map[uint32]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func setEqual(a, b map[uint32]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// LiveRange returns variable v's BlockLiveRange within block blk, and
// whether v appears in that block at all.
func (info *Info) LiveRange(v uint32, blk uint32) (BlockLiveRange, bool) {
	m, ok := info.ranges[v]
	if !ok {
		return BlockLiveRange{}, false
	}
	r, ok := m[blk]
	return r, ok
}

// Empty reports whether v's live range is empty across the whole function,
// i.e. v has no recorded range in any block (a variable that is defined but
// never read still occupies its definition point and is not empty): the
// coalescing pass rejects merging any variable in this state.
func (info *Info) Empty(v uint32) bool {
	m, ok := info.ranges[v]
	return !ok || len(m) == 0
}

// LiveOutBody is the oracle view: the set of variables live immediately
// after instruction instrIdx-1 (equivalently, before instruction instrIdx)
// in block blk. instrIdx == len(body) queries the set live after the last
// body instruction, which includes the terminator's reads.
func (info *Info) LiveOutBody(blk uint32, instrIdx int) map[uint32]struct{} {
	return info.liveOutBody[blk][instrIdx]
}

// LiveInAt reports whether v is live-in to block blk.
func (info *Info) LiveInAt(v uint32, blk uint32) bool {
	r, ok := info.LiveRange(v, blk)
	return ok && r.LiveIn
}

// Overlap reports whether v1 and v2's live ranges overlap anywhere in the
// function, used by the allocator's coalescing/interference tests.
func (info *Info) Overlap(v1, v2 uint32) bool {
	m1, ok1 := info.ranges[v1]
	if !ok1 {
		return false
	}
	m2, ok2 := info.ranges[v2]
	if !ok2 {
		return false
	}
	for blk, r1 := range m1 {
		r2, ok := m2[blk]
		if !ok {
			continue
		}
		if rangesOverlap(r1, r2) {
			return true
		}
	}
	return false
}

func rangesOverlap(a, b BlockLiveRange) bool {
	for _, ra := range spansOf(a) {
		for _, rb := range spansOf(b) {
			if ra.Start < rb.End && rb.Start < ra.End {
				return true
			}
		}
	}
	return false
}

func spansOf(r BlockLiveRange) []Range {
	if len(r.Body) > 0 {
		return r.Body
	}
	if r.LiveIn {
		return []Range{{Start: 0, End: 1}}
	}
	return nil
}
