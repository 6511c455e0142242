package lower

import (
	"github.com/tickc/lowcore/internal/callgraph"
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// moveArgsToParams moves each argument variable to the corresponding
// Param(i) register, doubles in lo/hi order.
func (b *Builder) moveArgsToParams(args []ssa.VarOrConst) []lir.Register {
	var used []lir.Register
	pi := uint32(0)
	for _, a := range args {
		if a.Type() == ssa.I64 {
			src := b.reg64(a)
			lo, hi := lir.Param(pi), lir.Param(pi+1)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: lo, Src: src.Lo})
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: hi, Src: src.Hi})
			used = append(used, lo, hi)
			pi += 2
		} else {
			src := b.reg32(a)
			p := lir.Param(pi)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: p, Src: src})
			used = append(used, p)
			pi++
		}
	}
	return used
}

// moveReturns moves each Return(i) register into the variable for that
// return.
func (b *Builder) moveReturns(dests []ssa.Var) []lir.Register {
	var used []lir.Register
	ri := uint32(0)
	for _, d := range dests {
		if d.Type == ssa.I64 {
			dst := b.destReg64(d)
			lo, hi := lir.Return(ri), lir.Return(ri+1)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Lo, Src: lo})
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst.Hi, Src: hi})
			used = append(used, lo, hi)
			ri += 2
		} else {
			dst := b.destReg(d)
			r := lir.Return(ri)
			b.emit(lir.Instruction{Op: lir.OpAssign, Dst: dst, Src: r})
			used = append(used, r)
			ri++
		}
	}
	return used
}

// callerSaveSet computes live_out_body(block, instr_idx) \ returns as an ordered list of LIR registers (deterministic: sorted by SSA
// var id, doubles expanded lo-then-hi).
func (b *Builder) callerSaveSet(dests []ssa.Var) []lir.Register {
	liveOut := b.live.LiveOutBody(b.curID.Block, b.curIdx+1)
	returning := make(map[uint32]struct{}, len(dests))
	for _, d := range dests {
		returning[d.ID] = struct{}{}
	}
	ids := make([]uint32, 0, len(liveOut))
	for id := range liveOut {
		if _, ret := returning[id]; ret {
			continue
		}
		ids = append(ids, id)
	}
	sortU32(ids)

	var regs []lir.Register
	for _, id := range ids {
		v := b.varTypes[id]
		if v.Type == ssa.I64 {
			d := b.alloc.GetDouble(v)
			regs = append(regs, d.Lo, d.Hi)
		} else {
			regs = append(regs, b.alloc.Get(v))
		}
	}
	return regs
}

func sortU32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// emitCall lowers a direct Call.
func (b *Builder) emitCall(instr *ssa.Instruction) {
	args := b.moveArgsToParams(instr.Args)
	needsSave := b.cg.MayCall(instr.Callee, b.ssa.ID)
	var saved []lir.Register
	if needsSave {
		saved = b.callerSaveSet(instr.Dests)
		b.emit(lir.Instruction{Op: lir.OpPush, Registers: saved})
	}

	if b.cg.IsSingleTick(instr.Callee) {
		b.emit(lir.Instruction{Op: lir.OpCall, Callee: instr.Callee, ArgRegs: args})
		if needsSave {
			b.emit(lir.Instruction{Op: lir.OpPop, Registers: saved})
		}
		b.moveReturns(instr.Dests)
		return
	}

	// Multi-tick: allocate a fresh continuation block, push the return
	// address, and close the current block with a jump to the callee's
	// entry.
	k := b.freshBlock()
	b.emit(lir.Instruction{Op: lir.OpPushReturnAddr, Label: k})
	entry := ssa.BlockID{Func: instr.Callee, Block: 0}
	b.setTerm(lir.Terminator{Kind: lir.TermJump, Jump: lir.JumpTarget{Label: entry, CmdCheck: true}})

	b.startBlock(k)
	if needsSave {
		b.emit(lir.Instruction{Op: lir.OpPop, Registers: saved})
	}
	b.moveReturns(instr.Dests)
}

// emitCallIndirect lowers CallIndirect: single-tick-only candidates
// emit one CallIndirect instruction; multi-tick-only candidates dispatch
// via a JumpTable to callee entries; a mixed candidate set routes
// single-tick arms through one-shot trampoline blocks.
func (b *Builder) emitCallIndirect(instr *ssa.Instruction) {
	candidates := callgraph.CompatibleCallees(b.prog, instr)
	needsSave := false
	for _, c := range candidates {
		if b.cg.MayCall(c, b.ssa.ID) {
			needsSave = true
			break
		}
	}

	args := b.moveArgsToParams(instr.Args[1:]) // Args[0] is the dynamic table index.
	tableEntry := b.reg32(instr.Args[0])

	allSingle := true
	for _, c := range candidates {
		if !b.cg.IsSingleTick(c) {
			allSingle = false
		}
	}

	var saved []lir.Register
	if needsSave && allSingle {
		saved = b.callerSaveSet(instr.Dests)
		b.emit(lir.Instruction{Op: lir.OpPush, Registers: saved})
	}

	if allSingle {
		b.emit(lir.Instruction{Op: lir.OpCallIndirect, TableIndex: instr.TableIndex, Src: tableEntry, ArgRegs: args})
		if needsSave {
			b.emit(lir.Instruction{Op: lir.OpPop, Registers: saved})
		}
		b.moveReturns(instr.Dests)
		return
	}

	// Multi-tick or mixed: continuation K, PushReturnAddr(K), close with a
	// JumpTable.
	k := b.freshBlock()
	if needsSave {
		saved = b.callerSaveSet(instr.Dests)
		b.emit(lir.Instruction{Op: lir.OpPush, Registers: saved})
	}
	b.emit(lir.Instruction{Op: lir.OpPushReturnAddr, Label: k})

	compatible := make(map[ssa.FuncID]struct{}, len(candidates))
	for _, c := range candidates {
		compatible[c] = struct{}{}
	}

	table := b.prog.Tables[instr.TableIndex]
	arms := make([]*ssa.BlockID, len(table.Entries))
	for i, e := range table.Entries {
		if !e.Present {
			continue
		}
		if _, ok := compatible[e.Func]; !ok {
			// Present but signature-incompatible with this call site: no
			// dispatch arm, since this core never sets up this callee's
			// parameter/return registers for this instruction.
			continue
		}
		if b.cg.IsSingleTick(e.Func) {
			tramp := b.emitTrampoline(e.Func, k, args)
			arms[i] = &tramp
		} else {
			entry := ssa.BlockID{Func: e.Func, Block: 0}
			arms[i] = &entry
		}
	}
	b.setTerm(lir.Terminator{Kind: lir.TermJumpTable, Cond: tableEntry, Arms: arms})

	b.startBlock(k)
	if needsSave {
		b.emit(lir.Instruction{Op: lir.OpPop, Registers: saved})
	}
	b.moveReturns(instr.Dests)
}

// emitTrampoline allocates and emits a one-shot trampoline block that calls
// the single-tick callee f, pops the return address guaranteed to be k off
// the top (placed there by the multi-tick dispatch this trampoline serves),
// then jumps to k without a cmd_check (it is not a loop back-edge).
func (b *Builder) emitTrampoline(f ssa.FuncID, k ssa.BlockID, args []lir.Register) ssa.BlockID {
	id := b.freshBlock()
	blk := lir.BasicBlock{
		Body: []lir.Instruction{
			{Op: lir.OpCall, Callee: f, ArgRegs: args},
			{Op: lir.OpPopReturnAddr, Label: k},
		},
		Term: lir.Terminator{Kind: lir.TermJump, Jump: lir.JumpTarget{Label: k, CmdCheck: false}},
	}
	b.pendingBlocks = append(b.pendingBlocks, lir.IndexedBlock{ID: id, Block: blk})
	return id
}
