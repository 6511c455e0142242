// Package constprop implements the optional constant-propagation oracle
//: a per-block mapping from SSA variable to a StaticValue,
// consumed by the lower package to decorate memory-address operands. It is
// intra-function, conservative, and run once before emission — consumed as
// a hint only, never substituted for an operand.
package constprop

import (
	"github.com/tickc/lowcore/internal/lir"
	"github.com/tickc/lowcore/internal/ssa"
)

// Oracle answers "is this variable known, at this program point, to hold a
// particular 32-bit value".
type Oracle struct {
	// known[blockIdx][varID] is the StaticValue known for varID on entry to
	// and throughout block blockIdx (a variable is SSA: its value doesn't
	// change after definition, so one entry per block suffices).
	known map[uint32]map[uint32]lir.StaticValue
}

// Disabled returns an oracle that reports every variable Unknown, used when
// Config.DoConstProp is false.
func Disabled() *Oracle { return &Oracle{} }

// Build runs a simple forward dataflow: a variable defined by I32Set is
// Constant; a variable defined as a jump-argument copy-in where every
// predecessor supplies the same known constant is also Constant; everything
// else is Unknown. This is intentionally conservative — whole-program
// optimization beyond this is a non-goal.
func Build(fn *ssa.Function) *Oracle {
	o := &Oracle{known: make(map[uint32]map[uint32]lir.StaticValue)}
	for i := range fn.Blocks {
		o.known[fn.Blocks[i].ID.Block] = make(map[uint32]lir.StaticValue)
	}

	preds := make(map[uint32][]ssa.BlockID)
	for i := range fn.Blocks {
		b := &fn.Blocks[i]
		for _, s := range b.Successors() {
			preds[s.Block] = append(preds[s.Block], b.ID)
		}
	}

	changed := true
	for changed {
		changed = false
		for i := range fn.Blocks {
			b := &fn.Blocks[i]
			m := o.known[b.ID.Block]
			for ii := range b.Body {
				instr := &b.Body[ii]
				if instr.Op == ssa.OpI32Set && instr.Dest.Valid() {
					if cur, ok := m[instr.Dest.ID]; !ok || !cur.Known() {
						m[instr.Dest.ID] = lir.StaticConstant(instr.ConstI32)
						changed = true
					}
				}
			}
			// Block-parameter propagation: a parameter is known if every
			// predecessor's corresponding jump argument resolves to the
			// same known constant.
			for pi, param := range b.Params {
				val, ok := constJumpArg(fn, preds[b.ID.Block], b.ID, pi, o)
				if ok {
					if cur, exists := m[param.ID]; !exists || !cur.Known() {
						m[param.ID] = val
						changed = true
					}
				}
			}
		}
	}
	return o
}

func constJumpArg(fn *ssa.Function, preds []ssa.BlockID, target ssa.BlockID, paramIdx int, o *Oracle) (lir.StaticValue, bool) {
	if len(preds) == 0 {
		return lir.StaticUnknown, false
	}
	var result lir.StaticValue
	for i, p := range preds {
		pb := fn.Block(p.Block)
		arg, ok := argForSuccessor(pb, target, paramIdx)
		if !ok {
			return lir.StaticUnknown, false
		}
		var v lir.StaticValue
		if arg.IsConst() {
			v = lir.StaticConstant(arg.ConstI32())
		} else {
			v = o.At(p.Block, arg.Var())
		}
		if !v.Known() {
			return lir.StaticUnknown, false
		}
		if i == 0 {
			result = v
		} else if result.Value() != v.Value() {
			return lir.StaticUnknown, false
		}
	}
	return result, true
}

// argForSuccessor finds the jump argument pb passes at paramIdx specifically
// for its edge to target: a predecessor with a branching terminator (BranchIf,
// BranchTable) has multiple outgoing edges that can carry different constant
// values to the same param index at different successors, so matching by
// arity alone is not enough.
func argForSuccessor(pb *ssa.BasicBlock, target ssa.BlockID, paramIdx int) (ssa.VarOrConst, bool) {
	for _, ja := range pb.JumpArgsList() {
		if ja.Target != target {
			continue
		}
		if paramIdx < len(ja.Args) {
			return ja.Args[paramIdx], true
		}
	}
	return ssa.VarOrConst{}, false
}

// At returns the StaticValue known for v within block blk.
func (o *Oracle) At(blk uint32, v ssa.Var) lir.StaticValue {
	if o == nil || o.known == nil {
		return lir.StaticUnknown
	}
	return o.known[blk][v.ID]
}
