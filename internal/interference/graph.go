// Package interference builds the interference graph from opcode-specific
// constraints, drives union-find coalescing of copy-related,
// non-interfering SSA variables, and exposes the two register
// allocators the driver chooses between.
//
// Grounded on wazero's backend/regalloc/{coloring,regalloc,reg}.go for the
// overall shape (a graph keyed by variable adjacency, a union-find-ish
// merge step, an allocator interface with Get/GetDouble/GetConst/GetTemp),
// and enriched by the pack's classical register-interference-graph
// allocators — hhramberg-go-vslc's backend/lir/regalloc.go (node.neighbours
// adjacency, "enabled" flag) and fkuehnel-golang-cfg's go-code/regalloc.go
// — since those two match this package's union-find-of-merged-registers
// shape more directly than wazero's interval-tree-driven allocator, which
// targets a different (linear-scan, non-SSA-coalescing) allocation
// strategy.
package interference

import (
	"sort"

	"github.com/tickc/lowcore/internal/ssa"
)

// Graph is an undirected adjacency list over SSA variable ids: "must not be
// assigned the same register."
type Graph struct {
	adj map[uint32]map[uint32]struct{}
}

func NewGraph() *Graph { return &Graph{adj: make(map[uint32]map[uint32]struct{})} }

// AddEdge records that a and b must not share a register.
func (g *Graph) AddEdge(a, b uint32) {
	if a == b {
		return
	}
	g.edge(a, b)
	g.edge(b, a)
}

func (g *Graph) edge(a, b uint32) {
	m := g.adj[a]
	if m == nil {
		m = make(map[uint32]struct{})
		g.adj[a] = m
	}
	m[b] = struct{}{}
}

// AdjacentVars returns v's direct interference neighbors.
func (g *Graph) AdjacentVars(v uint32) map[uint32]struct{} { return g.adj[v] }

// Build scans fn's body applying each opcode's interference constraints.
func Build(fn *ssa.Function) *Graph {
	g := NewGraph()
	for bi := range fn.Blocks {
		b := &fn.Blocks[bi]
		for ii := range b.Body {
			instr := &b.Body[ii]
			switch {
			case instr.Op == ssa.OpAdd && instr.Dest.Type == ssa.I64:
				// 64-bit Add: destination may not alias either operand; both
				// operands must also differ from each other.
				lhs, rhs := instr.Binary()
				addIfVar(g, instr.Dest, lhs)
				addIfVar(g, instr.Dest, rhs)
				addVarVar(g, lhs, rhs)
			case instr.Op == ssa.OpCtz && instr.Dest.Type == ssa.I64:
				// 64-bit Ctz: destination may not alias source.
				addIfVar(g, instr.Dest, instr.Unary())
			case isUnsignedOrI64Compare(instr):
				// Unsigned 32/64 and signed 64 comparisons: destination may
				// not alias either operand.
				lhs, rhs := instr.Binary()
				addIfVar(g, instr.Dest, lhs)
				addIfVar(g, instr.Dest, rhs)
			case instr.Op == ssa.OpRemU && instr.Args[0].Type() == ssa.I32:
				// 32-bit unsigned remainder: destination may not alias
				// either operand.
				lhs, rhs := instr.Binary()
				addIfVar(g, instr.Dest, lhs)
				addIfVar(g, instr.Dest, rhs)
			}
		}
	}
	return g
}

func isUnsignedOrI64Compare(instr *ssa.Instruction) bool {
	switch instr.Op {
	case ssa.OpLtU, ssa.OpGtU, ssa.OpLeU, ssa.OpGeU:
		return true // unsigned, any width.
	case ssa.OpLtS, ssa.OpGtS, ssa.OpLeS, ssa.OpGeS:
		return instr.Args[0].Type() == ssa.I64 // signed variants constrained only at I64.
	default:
		return false
	}
}

func addIfVar(g *Graph, dst ssa.Var, operand ssa.VarOrConst) {
	if operand.IsConst() {
		return
	}
	g.AddEdge(dst.ID, operand.Var().ID)
}

func addVarVar(g *Graph, a, b ssa.VarOrConst) {
	if a.IsConst() || b.IsConst() {
		return
	}
	g.AddEdge(a.Var().ID, b.Var().ID)
}

// Interferes reports true if any member of one merged-register set is
// adjacent, in g, to any member of the other.
func (g *Graph) Interferes(a, b *MergedRegister) bool {
	for m := range a.members {
		adj := g.adj[m]
		for n := range b.members {
			if _, ok := adj[n]; ok {
				return true
			}
		}
	}
	return false
}

// MergedRegister is a union-find node binding copy-related, non-interfering
// SSA variables. It is never empty and never mixes widths: a 64-bit merge
// implicitly binds two 32-bit registers (lo, hi); no 32-bit and 64-bit
// variable share a member set.
type MergedRegister struct {
	members map[uint32]struct{}
	width   ssa.ValueType // I32-width or I64-width representative, for the invariant check.
	// liveVars lists the original var ids in merge order (not sorted);
	// RepID derives the representative from members instead.
	liveVars []uint32
}

func newSingleton(v ssa.Var) *MergedRegister {
	return &MergedRegister{
		members:  map[uint32]struct{}{v.ID: {}},
		width:    widthClassOf(v.Type),
		liveVars: []uint32{v.ID},
	}
}

func widthClassOf(t ssa.ValueType) ssa.ValueType {
	if t == ssa.I64 || t == ssa.F64 {
		return ssa.I64
	}
	return ssa.I32
}

// RepID is the smallest member variable id, used as the stable
// representative once merged; deterministic regardless of merge order.
func (m *MergedRegister) RepID() uint32 {
	ids := m.sortedMembers()
	return ids[0]
}

func (m *MergedRegister) sortedMembers() []uint32 {
	ids := make([]uint32, 0, len(m.members))
	for id := range m.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *MergedRegister) union(o *MergedRegister) {
	if m.width != o.width {
		panic("BUG: attempted to merge registers of mixed width")
	}
	for id := range o.members {
		m.members[id] = struct{}{}
	}
	m.liveVars = append(m.liveVars, o.liveVars...)
}
