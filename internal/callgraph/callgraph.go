// Package callgraph builds, for each function, its set of transitively
// reachable callees and classifies it single-tick or multi-tick,
// driving the caller-save and trampoline decisions made by the lower
// package. Grounded on wazero's own approach of precomputing function-level
// facts once before per-function lowering (backend/abi.go's ABI
// precomputation, consumed uniformly by every call site) rather than
// re-deriving them during emission.
package callgraph

import "github.com/tickc/lowcore/internal/ssa"

// Graph is the whole-program call graph plus the derived single/multi-tick
// classification.
type Graph struct {
	// direct[f] is the set of functions f calls directly, by Call or by a
	// CallIndirect whose table may hold it.
	direct map[ssa.FuncID]map[ssa.FuncID]struct{}
	// reachable[f] is the transitive closure of direct[f], memoized.
	reachable map[ssa.FuncID]map[ssa.FuncID]struct{}
	// singleTick[f] is true iff f and everything transitively reachable
	// from f is free of suspending operations.
	singleTick map[ssa.FuncID]bool
}

// Build computes the call graph for the whole program.
func Build(prog *ssa.Program) *Graph {
	g := &Graph{
		direct:     make(map[ssa.FuncID]map[ssa.FuncID]struct{}),
		reachable:  make(map[ssa.FuncID]map[ssa.FuncID]struct{}),
		singleTick: make(map[ssa.FuncID]bool),
	}
	for i := range prog.Functions {
		g.direct[prog.Functions[i].ID] = directCallees(&prog.Functions[i], prog)
	}
	for i := range prog.Functions {
		id := prog.Functions[i].ID
		g.reachable[id] = g.closure(id)
	}
	for i := range prog.Functions {
		g.singleTick[prog.Functions[i].ID] = g.computeSingleTick(prog, prog.Functions[i].ID)
	}
	return g
}

func directCallees(fn *ssa.Function, prog *ssa.Program) map[ssa.FuncID]struct{} {
	out := make(map[ssa.FuncID]struct{})
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		for ii := range b.Body {
			instr := &b.Body[ii]
			switch instr.Op {
			case ssa.OpCall:
				out[instr.Callee] = struct{}{}
			case ssa.OpCallIndirect:
				for _, callee := range CompatibleCallees(prog, instr) {
					out[callee] = struct{}{}
				}
			}
		}
	}
	return out
}

// CompatibleCallees returns the set of functions in the indirect-call
// instruction's table whose signature (parameter and return types) matches
// the call site. A table is a single program-wide array that may legitimately
// hold functions of differing signatures; different CallIndirect sites
// against the same table filter down to disjoint candidate sets.
func CompatibleCallees(prog *ssa.Program, instr *ssa.Instruction) []ssa.FuncID {
	if int(instr.TableIndex) >= len(prog.Tables) {
		panic("BUG: CallIndirect references unknown table")
	}
	table := prog.Tables[instr.TableIndex]
	callArgs := instr.Args[1:] // Args[0] is the dynamic table-entry index.

	var out []ssa.FuncID
	seen := make(map[ssa.FuncID]struct{})
	for _, e := range table.Entries {
		if !e.Present {
			continue
		}
		if _, dup := seen[e.Func]; dup {
			continue
		}
		if !signatureMatches(prog.Func(e.Func), callArgs, instr.Dests) {
			continue
		}
		seen[e.Func] = struct{}{}
		out = append(out, e.Func)
	}
	return out
}

// signatureMatches reports whether fn's parameter and return types match the
// call site's actual argument and destination types exactly, in order.
func signatureMatches(fn *ssa.Function, args []ssa.VarOrConst, dests []ssa.Var) bool {
	if len(fn.ParamTypes) != len(args) || len(fn.ReturnTypes) != len(dests) {
		return false
	}
	for i, a := range args {
		if a.Type() != fn.ParamTypes[i] {
			return false
		}
	}
	for i, d := range dests {
		if d.Type != fn.ReturnTypes[i] {
			return false
		}
	}
	return true
}

func (g *Graph) closure(start ssa.FuncID) map[ssa.FuncID]struct{} {
	visited := make(map[ssa.FuncID]struct{})
	stack := []ssa.FuncID{start}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for callee := range g.direct[f] {
			if _, ok := visited[callee]; ok {
				continue
			}
			visited[callee] = struct{}{}
			stack = append(stack, callee)
		}
	}
	return visited
}

func (g *Graph) computeSingleTick(prog *ssa.Program, id ssa.FuncID) bool {
	if prog.Func(id).HasSuspendingOp {
		return false
	}
	for callee := range g.reachable[id] {
		if prog.Func(callee).HasSuspendingOp {
			return false
		}
	}
	return true
}

// MayCall reports whether callee may transitively reach caller again,
// directly or via itself (i.e. caller is in callee's reachable set, or
// callee == caller). This is the recursion-risk test that drives whether a
// call site needs caller-save.
func (g *Graph) MayCall(callee, caller ssa.FuncID) bool {
	if callee == caller {
		return true
	}
	_, ok := g.reachable[callee][caller]
	return ok
}

// IsSingleTick reports whether f executes atomically to return.
func (g *Graph) IsSingleTick(f ssa.FuncID) bool { return g.singleTick[f] }

// Reachable returns the functions transitively reachable from f through
// calls; f itself is included only when some call cycle leads back to f.
func (g *Graph) Reachable(f ssa.FuncID) map[ssa.FuncID]struct{} { return g.reachable[f] }
