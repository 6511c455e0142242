package lower

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// emitTerminator lowers blk's terminator.
func (b *Builder) emitTerminator(blk *ssa.BasicBlock) {
	switch blk.Term.Kind {
	case ssa.TermUnreachable:
		// Reaching Unreachable is a warning, lowered as Return.
		b.warn("reached an Unreachable terminator")
		b.setTerm(lir.Terminator{Kind: lir.TermReturn})

	case ssa.TermScheduleJump:
		target := blk.Term.Target.Target
		if len(blk.Term.Target.Args) != 0 {
			panic("BUG: ScheduleJump target must be parameter-free")
		}
		b.setTerm(lir.Terminator{Kind: lir.TermScheduleJump, Jump: b.jumpTarget(target), Delay: blk.Term.Delay})

	case ssa.TermJump:
		pairs := b.jumpArgsCopies(blk.Term.Target)
		b.parallelMove(pairs, nil)
		b.setTerm(lir.Terminator{Kind: lir.TermJump, Jump: b.jumpTarget(blk.Term.Target.Target)})

	case ssa.TermBranchIf:
		b.emitBranchIf(blk)

	case ssa.TermBranchTable:
		b.emitBranchTable(blk)

	case ssa.TermReturn:
		b.emitReturn(blk)

	default:
		panic("BUG: unhandled SSA terminator kind")
	}
}

// emitBranchIf lowers BranchIf{cond, T, F}: stage cond into a
// scratch so a later parallel-copy cannot overwrite it, clear cond_taken,
// emit the parallel copies for T guarded by cond_taken==0 && cond!=0 and
// for F guarded by cond_taken==0 && cond==0, then JumpIf{T, F, cond}.
func (b *Builder) emitBranchIf(blk *ssa.BasicBlock) {
	condReg := b.reg32(blk.Term.Cond)
	scratch := b.alloc.GetTemp()
	b.emit(lir.Instruction{Op: lir.OpAssign, Dst: scratch, Src: condReg})
	b.emit(lir.Instruction{Op: lir.OpSet, Dst: lir.CondTaken, Imm: 0})

	taken := []lir.Condition{{Reg: lir.CondTaken, Negate: true}, {Reg: scratch, Negate: false}}
	notTaken := []lir.Condition{{Reg: lir.CondTaken, Negate: true}, {Reg: scratch, Negate: true}}

	tPairs := b.jumpArgsCopies(blk.Term.True)
	b.parallelMove(tPairs, taken)
	fPairs := b.jumpArgsCopies(blk.Term.False)
	b.parallelMove(fPairs, notTaken)

	b.setTerm(lir.Terminator{
		Kind:       lir.TermJumpIf,
		TrueLabel:  b.jumpTarget(blk.Term.True.Target),
		FalseLabel: b.jumpTarget(blk.Term.False.Target),
		Cond:       scratch,
	})
}

// emitBranchTable lowers BranchTable{cond, default, arms}. A
// zero-arm table degenerates to an unconditional jump on default.
// Otherwise cond is staged if it aliases any outgoing parameter, cond_taken
// is cleared, default's parallel copy is guarded by cond_taken==0 &&
// cond ∉ [0, n-1], and each arm i's copy is guarded by cond_taken==0 &&
// cond==i.
func (b *Builder) emitBranchTable(blk *ssa.BasicBlock) {
	term := blk.Term
	if len(term.Arms) == 0 {
		pairs := b.jumpArgsCopies(term.Default)
		b.parallelMove(pairs, nil)
		b.setTerm(lir.Terminator{Kind: lir.TermJump, Jump: b.jumpTarget(term.Default.Target)})
		return
	}

	condReg := b.reg32(term.Cond)
	if b.condAliasesAnyParam(term.Cond, append([]ssa.JumpArgs{term.Default}, term.Arms...)) {
		scratch := b.alloc.GetTemp()
		b.emit(lir.Instruction{Op: lir.OpAssign, Dst: scratch, Src: condReg})
		condReg = scratch
	}
	b.emit(lir.Instruction{Op: lir.OpSet, Dst: lir.CondTaken, Imm: 0})

	n := len(term.Arms)
	defaultConds := []lir.Condition{{Reg: lir.CondTaken, Negate: true}}
	for i := 0; i < n; i++ {
		defaultConds = append(defaultConds, lir.Condition{Reg: condReg, EqValid: true, Eq: int32(i), Negate: true})
	}
	dPairs := b.jumpArgsCopies(term.Default)
	b.parallelMove(dPairs, defaultConds)

	arms := make([]*ssa.BlockID, n)
	for i, arm := range term.Arms {
		armConds := []lir.Condition{
			{Reg: lir.CondTaken, Negate: true},
			{Reg: condReg, EqValid: true, Eq: int32(i)},
		}
		pairs := b.jumpArgsCopies(arm)
		b.parallelMove(pairs, armConds)
		t := arm.Target
		arms[i] = &t
	}

	defTarget := term.Default.Target
	b.setTerm(lir.Terminator{Kind: lir.TermJumpTable, Cond: condReg, Arms: arms, Default: &defTarget})
}

// condAliasesAnyParam reports whether cond, as an SSA variable, is also
// passed as a jump argument in any of the given edges — the case that
// forces staging cond into a scratch before parallel-copies run.
func (b *Builder) condAliasesAnyParam(cond ssa.VarOrConst, edges []ssa.JumpArgs) bool {
	if cond.IsConst() {
		return false
	}
	id := cond.Var().ID
	for _, e := range edges {
		for _, a := range e.Args {
			if !a.IsConst() && a.Var().ID == id {
				return true
			}
		}
	}
	return false
}

// emitReturn lowers Return(vs): move each return variable into
// Return(i); then emit Return if the function is single-tick, else
// ReturnToSaved.
func (b *Builder) emitReturn(blk *ssa.BasicBlock) {
	ri := uint32(0)
	for _, v := range blk.Term.Returns {
		if v.Type() == ssa.I64 {
			src := b.reg64(v)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: lir.Return(ri), Src: src.Lo})
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: lir.Return(ri + 1), Src: src.Hi})
			ri += 2
		} else {
			src := b.reg32(v)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: lir.Return(ri), Src: src})
			ri++
		}
	}
	if b.cg.IsSingleTick(b.ssa.ID) {
		b.setTerm(lir.Terminator{Kind: lir.TermReturn})
	} else {
		b.setTerm(lir.Terminator{Kind: lir.TermReturnToSaved})
	}
}
