package passes

import (
	"fmt"
	"sort"

	"github.com/xyproto/pseudo64/ir"
)

// rspDisp matches (rsp+K) for a known constant K, the shape buildAddress's
// general fallback produces for a positive-displacement rsp-based memory
// operand that isn't the rbp-relative-local or PEB special case.
func rspDisp(e ir.Expression) (uint64, bool) {
	bo, ok := e.(*ir.BinOp)
	if !ok || bo.Op != ir.Add {
		return 0, false
	}
	reg, ok := bo.LHS.(*ir.Reg)
	if !ok || reg.Name != "rsp" {
		return 0, false
	}
	k, ok := constValue(bo.RHS)
	return k, ok
}

// memsetCall extracts a call's target and args regardless of whether it
// sits in a CallStmt or on the RHS of an Assign.
func memsetCall(s ir.Statement) *ir.Call {
	switch st := s.(type) {
	case *ir.CallStmt:
		return st.Call
	case *ir.Assign:
		if call, ok := st.RHS.(*ir.Call); ok {
			return call
		}
	}
	return nil
}

// FrameObjectClusteringAndRspAlias scans for memset((void*)(rsp+K), 0, N)
// calls — the shape the zeroing peepholes and translate's store-form
// collapse emit for an rsp-based destination — and clusters them by K into
// a single named frame object per offset, covering the largest N observed
// at that offset. Every other (rsp+C) address expression that falls inside
// a cluster's [K, K+size) range is rewritten to reference the object
// instead of the raw rsp arithmetic.
func FrameObjectClusteringAndRspAlias(fn *ir.FunctionIR) {
	size := map[uint64]uint64{}
	var offsets []uint64

	for _, blk := range fn.Blocks {
		for _, s := range blk.Stmts {
			call := memsetCall(s)
			if call == nil || !call.Target.IsSymbol() || call.Target.Symbol != "memset" || len(call.Args) != 3 {
				continue
			}
			k, ok := rspDisp(call.Args[0])
			if !ok {
				continue
			}
			n, ok := constValue(call.Args[2])
			if !ok {
				continue
			}
			if _, seen := size[k]; !seen {
				offsets = append(offsets, k)
			}
			if n > size[k] {
				size[k] = n
			}
		}
	}
	if len(offsets) == 0 {
		return
	}
	sort.Slice(offsets, func(a, b int) bool { return offsets[a] < offsets[b] })

	names := map[uint64]string{}
	for _, k := range offsets {
		name := fmt.Sprintf("frame_0x%X", k)
		names[k] = name
		if fn.FindLocal(name) != nil {
			continue
		}
		init := &ir.Cast{
			Value:  ir.AddE(&ir.Reg{Name: "rsp"}, ir.U64(k)),
			Target: ir.PointerType(ir.U8Type),
			Kind:   ir.Reinterpret,
		}
		fn.AddLocal(name, ir.PointerType(ir.U8Type), init)
	}

	walkFunctionExprs(fn, func(e ir.Expression) ir.Expression {
		c, ok := rspDisp(e)
		if !ok {
			return e
		}
		for _, k := range offsets {
			if c < k || c >= k+size[k] {
				continue
			}
			loc := &ir.Local{Name: names[k]}
			if c == k {
				return loc
			}
			return ir.AddE(loc, ir.U64(c-k))
		}
		return e
	})
}
