// Package driver is the top-level entry point: it builds the whole-program
// call graph once, lowers every function, and assembles the resulting
// per-function LIR into a single Program with a merged constant pool.
//
// Per-function lowering is embarrassingly parallel: no function's lowering
// reads another function's LIR output, only the program-wide call graph
// computed up front. Lower fans a goroutine out per function and joins
// with a sync.WaitGroup before merging results in deterministic
// function-id order (see DESIGN.md).
package driver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tickc/lowcore/internal/callgraph"
	"github.com/tickc/lowcore/internal/config"
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/lower"
	"github.com/tickc/lowcore/internal/ssa"
)

// Diagnostic is a non-fatal warning surfaced anywhere during lowering,
// tagged with the function it came from.
type Diagnostic struct {
	Func    ssa.FuncID
	Message string
}

type funcResult struct {
	id    ssa.FuncID
	lir   *lir.Function
	diags []lower.Diagnostic
	err   error
}

// Lower lowers every function in prog to LIR and assembles the final
// Program. It returns the first error encountered (by function id
// order) if any function fails to lower — e.g. the missing-designated-exit
// case from lower.Function — alongside every diagnostic collected up to
// that point.
func Lower(prog *ssa.Program, cfg config.Config) (*lir.Program, []Diagnostic, error) {
	cg := callgraph.Build(prog)

	results := make([]funcResult, len(prog.Functions))
	var wg sync.WaitGroup
	for i := range prog.Functions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn := &prog.Functions[i]
			lf, diags, err := lower.Function(prog, fn, cg, cfg)
			results[i] = funcResult{id: fn.ID, lir: lf, diags: diags, err: err}
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].id < results[j].id })

	out := &lir.Program{
		Memory:    prog.Memory,
		Tables:    prog.Tables,
		Globals:   prog.Globals,
		Exports:   prog.Exports,
		ConstPool: make(map[int32]struct{}),
	}

	var diags []Diagnostic
	for _, r := range results {
		for _, d := range r.diags {
			diags = append(diags, Diagnostic{Func: r.id, Message: d.Message})
		}
		if r.err != nil {
			return nil, diags, fmt.Errorf("lowering function %d: %w", r.id, r.err)
		}
		out.Functions = append(out.Functions, *r.lir)
		for v := range r.lir.ConstPool {
			out.ConstPool[v] = struct{}{}
		}
	}
	return out, diags, nil
}
