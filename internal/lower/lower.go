package lower

import (
	"fmt"

	"github.com/tickc/lowcore/internal/callgraph"
	"github.com/tickc/lowcore/internal/config"
	"github.com/tickc/lowcore/internal/constprop"
	"github.com/tickc/lowcore/internal/domtree"
	"github.com/tickc/lowcore/internal/interference"
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/liveness"
	"github.com/tickc/lowcore/internal/ssa"
)

// Function lowers a single SSA function to LIR: the per-block
// emitter, prologue/epilogue, and the function's local constant pool. This
// is the unit of work the driver distributes across worker tasks.
func Function(prog *ssa.Program, fn *ssa.Function, cg *callgraph.Graph, cfg config.Config) (*lir.Function, []Diagnostic, error) {
	dom := domtree.Build(fn)
	live := liveness.Analyze(fn)

	alloc, allocDiags := chooseAllocator(fn, live, cfg)

	var cp *constprop.Oracle
	if cfg.DoConstProp {
		cp = constprop.Build(fn)
	} else {
		cp = constprop.Disabled()
	}

	b := newBuilder(prog, fn, alloc, dom, live, cp, cg, cfg)
	for _, d := range allocDiags {
		b.diags = append(b.diags, Diagnostic{Message: d.Message})
	}

	for i := range fn.Blocks {
		blk := &fn.Blocks[i]
		b.startBlock(blk.ID)
		b.emitBody(blk)
		b.emitTerminator(blk)
	}
	b.flush()

	if err := applyFrame(b, fn); err != nil {
		return nil, b.diags, err
	}

	b.fn.ConstPool = alloc.ConstPool()
	return b.fn, b.diags, nil
}

// chooseAllocator implements the RegAllocAuto policy: it runs the full
// coalescing allocator, falling back to the no-op allocator when the
// function's SSA instruction count exceeds config.NoopThreshold to bound
// compile time; Noop/Full force the respective strategy unconditionally.
func chooseAllocator(fn *ssa.Function, live *liveness.Info, cfg config.Config) (*interference.Allocator, []interference.Diagnostic) {
	mode := cfg.RegAlloc
	if mode == config.RegAllocAuto {
		if instructionCount(fn) > config.NoopThreshold {
			mode = config.RegAllocNoop
		} else {
			mode = config.RegAllocFull
		}
	}
	if mode == config.RegAllocNoop {
		return interference.NewNoop(uint32(fn.ID)), nil
	}
	return interference.NewFull(fn, live)
}

func instructionCount(fn *ssa.Function) int {
	n := 0
	for i := range fn.Blocks {
		n += len(fn.Blocks[i].Body)
	}
	return n
}

// applyFrame prepends the prologue to the entry block and appends the
// epilogue to the designated exit block. A multi-block function lacking a
// designated exit (block index 1) is a hard error rather than a silently
// skipped frame pop.
func applyFrame(b *Builder, fn *ssa.Function) error {
	entryIdx, ok := b.blockIdx[fn.Entry().ID]
	if !ok {
		panic("BUG: entry block was not lowered")
	}
	b.emitPrologue(&b.fn.Blocks[entryIdx].Block)

	exitSSA, hasExit := fn.DesignatedExit()
	switch {
	case hasExit:
		exitIdx := b.blockIdx[exitSSA.ID]
		b.emitEpilogue(&b.fn.Blocks[exitIdx].Block)
	case len(fn.Blocks) == 1:
		// Trivial single-block function: the entry block is its own exit.
		b.emitEpilogue(&b.fn.Blocks[entryIdx].Block)
	default:
		return fmt.Errorf("function %d: no designated exit block (index 1) to attach the local-frame epilogue to", fn.ID)
	}
	return nil
}
