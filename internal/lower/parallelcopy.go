package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// copyPair is one (src -> dst) move in a parallel copy.
type copyPair struct {
	src, dst lir.Register
}

// parallelMove implements the φ-resolution algorithm for a set of
// simultaneous copies, correct even under cycles (e.g. a→b, b→a).
// Grounded on y1yang0-falcon's compile/codegen/lsra_moveResolver.go, which
// solves the same parallel-copy/cycle-breaking problem for its move
// resolver; adapted here to a "needs-temp" formulation for guarded,
// conditional moves rather than unconditional register swaps.
//
//  1. Drop identity pairs.
//  2. Expand 64-bit pairs into two 32-bit half-pairs (done by the caller,
//     jumpArgsCopies, before invoking this).
//  3. Compute the set of sources that also appear as a destination of some
//     other pair ("needs-temp").
//  4. Save every needs-temp source into a distinct scratch, before any
//     destination is written.
//  5. Emit direct Assign(dst, src) for every pair whose source is not
//     needs-temp, then assign each needs-temp destination from its scratch.
func (b *Builder) parallelMove(pairs []copyPair, conds []lir.Condition) {
	pairs = dropIdentity(pairs)
	if len(pairs) == 0 {
		return
	}

	isDst := make(map[lir.Register]bool, len(pairs))
	for _, p := range pairs {
		isDst[p.dst] = true
	}
	needsTemp := make(map[int]bool)
	for i, p := range pairs {
		if isDst[p.src] {
			needsTemp[i] = true
		}
	}

	temps := make(map[int]lir.Register, len(needsTemp))
	for i, p := range pairs {
		if !needsTemp[i] {
			continue
		}
		t := b.alloc.GetTemp()
		temps[i] = t
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: t, Src: p.src, Conditions: conds})
	}

	for i, p := range pairs {
		if needsTemp[i] {
			continue
		}
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: p.dst, Src: p.src, Conditions: conds})
	}
	for i, p := range pairs {
		if !needsTemp[i] {
			continue
		}
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: p.dst, Src: temps[i], Conditions: conds})
	}
}

func dropIdentity(pairs []copyPair) []copyPair {
	out := pairs[:0:0]
	for _, p := range pairs {
		if p.src != p.dst {
			out = append(out, p)
		}
	}
	return out
}

// jumpArgsCopies expands a JumpArgs's (jump-argument -> block-parameter)
// pairs into 32-bit copyPairs, splitting 64-bit values into lo/hi halves.
func (b *Builder) jumpArgsCopies(ja ssa.JumpArgs) []copyPair {
	target := b.ssa.Block(ja.Target.Block)
	var pairs []copyPair
	for i, arg := range ja.Args {
		if i >= len(target.Params) {
			panic("BUG: jump-arity mismatch")
		}
		param := target.Params[i]
		if arg.Type() == ssa.I64 {
			src := b.reg64(arg)
			dst := b.alloc.GetDouble(param)
			pairs = append(pairs, copyPair{src: src.Lo, dst: dst.Lo}, copyPair{src: src.Hi, dst: dst.Hi})
		} else {
			pairs = append(pairs, copyPair{src: b.reg32(arg), dst: b.alloc.Get(param)})
		}
	}
	return pairs
}
