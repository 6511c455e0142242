// Package lower implements the per-block LIR emitter: it
// pattern-matches each SSA instruction and terminator, consults the
// register allocator and the liveness/domtree/constprop oracles, and
// appends LIR instructions to a Builder that can also allocate fresh
// synthetic blocks for cross-function control (multi-tick call
// continuations and indirect-call trampolines).
//
// Grounded on wazero's backend/machine.go (the per-instruction lowering
// dispatch loop) and backend/isa/amd64/lower_mem.go, lower_constant.go (the
// address-materialization and constant-operand patterns), enriched by
// y1yang0-falcon's compile/codegen/lower_x86.go for the two/three-address
// arithmetic shape and lsra_moveResolver.go for the parallel-copy
// algorithm.
package lower

import (
	"github.com/tickc/lowcore/internal/callgraph"
	"github.com/tickc/lowcore/internal/config"
	"github.com/tickc/lowcore/internal/constprop"
	"github.com/tickc/lowcore/internal/domtree"
	"github.com/tickc/lowcore/internal/interference"
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/liveness"
	"github.com/tickc/lowcore/internal/ssa"
)

// Diagnostic is a non-fatal warning surfaced during emission:
// reaching Unreachable, subtracting a variable from itself, or one
// propagated up from the coalescing pass.
type Diagnostic struct {
	Block   ssa.BlockID
	Message string
}

// Builder accumulates the LIR function under construction. It owns the set
// of allocated BlockIds and the vector of block contents; "pushing" a block
// moves ownership of its body and terminator into the output.
type Builder struct {
	fn  *lir.Function
	ssa *ssa.Function
	prog *ssa.Program

	alloc *interference.Allocator
	dom   *domtree.Tree
	live  *liveness.Info
	cp    *constprop.Oracle
	cg    *callgraph.Graph
	cfg   config.Config

	allocatedBlocks map[uint32]struct{}
	nextSynthetic   uint32

	cur      *lir.BasicBlock
	curID    ssa.BlockID
	curIdx   int // index of the instruction currently being lowered, within the *original* SSA body.
	blockIdx map[ssa.BlockID]int

	varTypes map[uint32]ssa.Var

	// pendingBlocks holds trampoline blocks built while the current block
	// is still under construction (e.g. a mixed-dispatch CallIndirect's
	// trampolines, built before the current block's own terminator is
	// set); flushed in allocation order alongside the next flush.
	pendingBlocks []lir.IndexedBlock

	diags []Diagnostic
}

func newBuilder(
	prog *ssa.Program, fn *ssa.Function, alloc *interference.Allocator, dom *domtree.Tree,
	live *liveness.Info, cp *constprop.Oracle, cg *callgraph.Graph, cfg config.Config,
) *Builder {
	b := &Builder{
		fn: &lir.Function{
			ID:          fn.ID,
			ParamTypes:  fn.ParamTypes,
			ReturnTypes: fn.ReturnTypes,
		},
		ssa:             fn,
		prog:            prog,
		alloc:           alloc,
		dom:             dom,
		live:            live,
		cp:              cp,
		cg:              cg,
		cfg:             cfg,
		allocatedBlocks: make(map[uint32]struct{}),
		blockIdx:        make(map[ssa.BlockID]int),
		varTypes:        make(map[uint32]ssa.Var),
	}
	for i := range fn.Blocks {
		blk := &fn.Blocks[i]
		b.allocatedBlocks[blk.ID.Block] = struct{}{}
		if blk.ID.Block >= b.nextSynthetic {
			b.nextSynthetic = blk.ID.Block + 1
		}
		for _, p := range blk.Params {
			b.varTypes[p.ID] = p
		}
		for _, instr := range blk.Body {
			if instr.Dest.Valid() {
				b.varTypes[instr.Dest.ID] = instr.Dest
			}
			for _, d := range instr.Dests {
				b.varTypes[d.ID] = d
			}
		}
	}
	return b
}

// freshBlock allocates a new BlockId by scanning for the smallest unused
// index within the function, used for call continuations and
// trampolines.
func (b *Builder) freshBlock() ssa.BlockID {
	idx := b.nextSynthetic
	for {
		if _, used := b.allocatedBlocks[idx]; !used {
			break
		}
		idx++
	}
	b.allocatedBlocks[idx] = struct{}{}
	b.nextSynthetic = idx + 1
	return ssa.BlockID{Func: b.ssa.ID, Block: idx}
}

// startBlock begins emission into a fresh or existing LIR block, flushing
// any block currently open.
func (b *Builder) startBlock(id ssa.BlockID) {
	b.flush()
	b.cur = &lir.BasicBlock{}
	b.curID = id
}

// flush pushes the block currently under construction into the function's
// output vector, if any.
func (b *Builder) flush() {
	if b.cur == nil {
		return
	}
	b.blockIdx[b.curID] = len(b.fn.Blocks)
	b.fn.Blocks = append(b.fn.Blocks, lir.IndexedBlock{ID: b.curID, Block: *b.cur})
	b.cur = nil
	for _, p := range b.pendingBlocks {
		b.blockIdx[p.ID] = len(b.fn.Blocks)
		b.fn.Blocks = append(b.fn.Blocks, p)
	}
	b.pendingBlocks = nil
}

func (b *Builder) emit(instr lir.Instruction) { b.cur.Append(instr) }

func (b *Builder) warn(msg string) {
	b.diags = append(b.diags, Diagnostic{Block: b.curID, Message: msg})
}

func (b *Builder) constReg(v int32) lir.Register { return b.alloc.GetConst(v) }

// setTerm installs the terminator on the block currently under
// construction and flushes it.
func (b *Builder) setTerm(t lir.Terminator) {
	b.cur.Term = t
	b.flush()
}

func (b *Builder) isBackEdge(target ssa.BlockID) bool {
	return b.dom.IsBackEdge(b.curID, target)
}

func (b *Builder) jumpTarget(target ssa.BlockID) lir.JumpTarget {
	return lir.JumpTarget{Label: target, CmdCheck: b.isBackEdge(target)}
}
