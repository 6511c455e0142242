package interference

import (
	"github.com/tickc/lowcore/internal/liveness"
	"github.com/tickc/lowcore/internal/ssa"
)

// Diagnostic is a non-fatal warning surfaced by coalescing: attempting
// to coalesce a dead variable.
type Diagnostic struct {
	Message string
}

// CopyPair is a coalescing candidate derivable from an instruction or
// terminator: a wrap or extend whose source has the result's type, or a
// jump-argument/target-parameter pair. Select instructions yield no pair.
type CopyPair struct {
	Dst, Src ssa.Var
	// TerminatorBlock is the block whose terminator induced this pair, for
	// terminator-induced pairs only (used by rule 4).
	TerminatorBlock ssa.BlockID
	IsTerminator    bool
}

// unionFind is the union-find state the coalescer builds: each SSA var id maps
// to its current MergedRegister.
type unionFind struct {
	reg map[uint32]*MergedRegister
}

func newUnionFind(fn *ssa.Function) *unionFind {
	uf := &unionFind{reg: make(map[uint32]*MergedRegister)}
	for i := range fn.Blocks {
		b := &fn.Blocks[i]
		for _, p := range b.Params {
			uf.reg[p.ID] = newSingleton(p)
		}
		for _, instr := range b.Body {
			if instr.Dest.Valid() {
				uf.reg[instr.Dest.ID] = newSingleton(instr.Dest)
			}
			for _, d := range instr.Dests {
				uf.reg[d.ID] = newSingleton(d)
			}
		}
	}
	return uf
}

func (uf *unionFind) find(id uint32) *MergedRegister { return uf.reg[id] }

func (uf *unionFind) merge(a, b *MergedRegister) {
	a.union(b)
	for id := range b.members {
		uf.reg[id] = a
	}
}

// Coalesce runs the coalescing loop: deterministic iteration over blocks
// in insertion order, instructions in index order, then terminator pairs.
// Returns the resulting union-find (queried through find) and any
// diagnostics.
func Coalesce(fn *ssa.Function, g *Graph, live *liveness.Info) (*unionFind, []Diagnostic) {
	uf := newUnionFind(fn)
	var diags []Diagnostic

	tryMerge := func(pair CopyPair) {
		dstReg, srcReg := uf.find(pair.Dst.ID), uf.find(pair.Src.ID)
		if dstReg == nil || srcReg == nil {
			return
		}
		// Rule 1: reject if both already share a merged register.
		if dstReg == srcReg {
			return
		}
		// Rule 2: reject if either side's live range is empty.
		if live.Empty(pair.Dst.ID) || live.Empty(pair.Src.ID) {
			diags = append(diags, Diagnostic{Message: "coalescing skipped: dead variable in copy pair"})
			return
		}
		// Rule 3: reject if the interference graph separates them.
		if g.Interferes(dstReg, srcReg) {
			return
		}
		// Rule 4: for terminator-induced pairs, reject if dst is live_in at
		// any successor of the source block.
		if pair.IsTerminator {
			blk := fn.Block(pair.TerminatorBlock.Block)
			for _, succ := range blk.Successors() {
				if live.LiveInAt(pair.Dst.ID, succ.Block) {
					return
				}
			}
		}
		// Rule 5: reject if the live ranges overlap, comparing every member
		// of the two merged registers.
		for m := range dstReg.members {
			for n := range srcReg.members {
				if live.Overlap(m, n) {
					return
				}
			}
		}
		// Rule 6: union.
		uf.merge(dstReg, srcReg)
	}

	for i := range fn.Blocks {
		b := &fn.Blocks[i]
		for ii := range b.Body {
			for _, pair := range copyPairsOf(&b.Body[ii]) {
				tryMerge(pair)
			}
		}
		for _, ja := range b.JumpArgsList() {
			target := fn.Block(ja.Target.Block)
			for pi, arg := range ja.Args {
				if arg.IsConst() || pi >= len(target.Params) {
					continue
				}
				tryMerge(CopyPair{
					Dst: target.Params[pi], Src: arg.Var(),
					TerminatorBlock: b.ID, IsTerminator: true,
				})
			}
		}
	}
	return uf, diags
}

// copyPairsOf derives the copy-related (dst, src) candidate pairs from a
// single instruction: Wrap, Extend32S/U, Extend8S or Extend16S whose
// variable operand has the same type as the result. Every other opcode,
// Select included, yields no pair.
func copyPairsOf(instr *ssa.Instruction) []CopyPair {
	if !instr.Dest.Valid() {
		return nil
	}
	switch instr.Op {
	case ssa.OpWrap, ssa.OpExtend32S, ssa.OpExtend32U:
		src := instr.Unary()
		if !src.IsConst() && src.Var().Type == instr.Dest.Type {
			return []CopyPair{{Dst: instr.Dest, Src: src.Var()}}
		}
	case ssa.OpExtend8S, ssa.OpExtend16S:
		src := instr.Unary()
		if !src.IsConst() && src.Var().Type == instr.Dest.Type {
			return []CopyPair{{Dst: instr.Dest, Src: src.Var()}}
		}
	}
	return nil
}
