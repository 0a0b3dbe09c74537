package build

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

// tryPeephole looks for a coalescible run starting at insts[i]: a
// self-zeroed XMM register (xorps/pxor reg,reg) followed by 16-byte vector
// stores of it at increasing offsets (folded into a memset call), or paired 16/32/64-byte vector load/store sequences
// (folded into a memcpy call). It returns the number of instructions
// consumed, including insts[i] itself.
func tryPeephole(insts []decode.Instruction, i int, b *Builder) ([]ir.Statement, int, bool) {
	if stmts, n, ok := b.tryZeroStoreRun(insts, i); ok {
		return stmts, n, true
	}
	if stmts, n, ok := b.tryCopyRun(insts, i); ok {
		return stmts, n, true
	}
	return nil, 0, false
}

func sameBase(a, c x86asm.Mem) bool {
	return a.Base == c.Base && a.Segment == c.Segment && a.Index == c.Index && a.Scale == c.Scale
}

// zeroingXmm recognizes "xorps reg,reg" / "pxor reg,reg" — the idiom that
// zeroes a 128-bit XMM register by XORing it with itself.
func zeroingXmm(in decode.Instruction) (x86asm.Reg, bool) {
	if in.Inst.Op != x86asm.XORPS && in.Inst.Op != x86asm.PXOR {
		return 0, false
	}
	r0, ok0 := regOf(in.Inst.Args[0])
	r1, ok1 := regOf(in.Inst.Args[1])
	if !ok0 || !ok1 || r0 != r1 {
		return 0, false
	}
	return r0, true
}

// tryZeroStoreRun coalesces a zeroed-XMM register (xorps/pxor reg,reg) at
// insts[i] with a run of N>=2 consecutive 16-byte vector stores of that
// same register — movups/movaps/movdqu to base+disp, base+disp+16,
// base+disp+32, ... with no index register and a base other than RIP —
// into Pseudo("zero xmm") plus a single memset call.
func (b *Builder) tryZeroStoreRun(insts []decode.Instruction, i int) ([]ir.Statement, int, bool) {
	zeroReg, ok := zeroingXmm(insts[i])
	if !ok {
		return nil, 0, false
	}

	var mem0 x86asm.Mem
	count := 0
	for j := i + 1; j < len(insts); j++ {
		r, mem, size, ok2 := vecStoreInfo(insts[j])
		if !ok2 || r != zeroReg || size != 16 || mem.Index != 0 || mem.Base == x86asm.RIP {
			break
		}
		if count == 0 {
			mem0 = mem
		} else if !sameBase(mem, mem0) || mem.Disp != mem0.Disp+int64(count)*16 {
			break
		}
		count++
	}
	if count < 2 {
		return nil, 0, false
	}

	addr, _ := b.buildAddress(mem0, insts[i])
	call := ir.CallSym("memset", addr, ir.U8(0), ir.U64(uint64(count*16)))
	return []ir.Statement{&ir.Pseudo{Text: "/* zero xmm */"}, &ir.CallStmt{Call: call}}, count + 1, true
}

func vecMemOp(op x86asm.Op) bool {
	switch op {
	case x86asm.MOVUPS, x86asm.MOVDQU, x86asm.MOVAPS, x86asm.MOVDQA:
		return true
	default:
		return false
	}
}

func vecLoadInfo(in decode.Instruction) (x86asm.Reg, x86asm.Mem, int, bool) {
	if !vecMemOp(in.Inst.Op) {
		return 0, x86asm.Mem{}, 0, false
	}
	r, ok1 := in.Inst.Args[0].(x86asm.Reg)
	m, ok2 := in.Inst.Args[1].(x86asm.Mem)
	if !ok1 || !ok2 {
		return 0, x86asm.Mem{}, 0, false
	}
	size := in.Inst.MemBytes
	if size == 0 {
		size = 16
	}
	return r, m, size, true
}

func vecStoreInfo(in decode.Instruction) (x86asm.Reg, x86asm.Mem, int, bool) {
	if !vecMemOp(in.Inst.Op) {
		return 0, x86asm.Mem{}, 0, false
	}
	m, ok1 := in.Inst.Args[0].(x86asm.Mem)
	r, ok2 := in.Inst.Args[1].(x86asm.Reg)
	if !ok1 || !ok2 {
		return 0, x86asm.Mem{}, 0, false
	}
	size := in.Inst.MemBytes
	if size == 0 {
		size = 16
	}
	return r, m, size, true
}

// tryCopyRun coalesces N>=2 consecutive (vector load, vector store) pairs
// moving the same register between two striding addresses into a memcpy
// call.
func (b *Builder) tryCopyRun(insts []decode.Instruction, i int) ([]ir.Statement, int, bool) {
	if i+1 >= len(insts) {
		return nil, 0, false
	}
	ldReg0, srcMem0, size0, ok := vecLoadInfo(insts[i])
	if !ok {
		return nil, 0, false
	}
	stReg0, dstMem0, stSize0, ok2 := vecStoreInfo(insts[i+1])
	if !ok2 || stReg0 != ldReg0 || stSize0 != size0 {
		return nil, 0, false
	}

	pairs := 1
	j := i + 2
	for j+1 < len(insts) {
		ldReg, srcMem, size, ok3 := vecLoadInfo(insts[j])
		if !ok3 || size != size0 || !sameBase(srcMem, srcMem0) {
			break
		}
		if srcMem.Disp != srcMem0.Disp+int64(pairs)*int64(size0) {
			break
		}
		stReg, dstMem, stSize, ok4 := vecStoreInfo(insts[j+1])
		if !ok4 || stReg != ldReg || stSize != size0 || !sameBase(dstMem, dstMem0) {
			break
		}
		if dstMem.Disp != dstMem0.Disp+int64(pairs)*int64(size0) {
			break
		}
		pairs++
		j += 2
	}

	min := 2
	if b.lastWasCall {
		min = 3
	}
	if pairs < min {
		return nil, 0, false
	}
	srcAddr, _ := b.buildAddress(srcMem0, insts[i])
	dstAddr, _ := b.buildAddress(dstMem0, insts[i+1])
	total := pairs * size0
	call := ir.CallSym("memcpy", dstAddr, srcAddr, ir.U64(uint64(total)))
	return []ir.Statement{&ir.CallStmt{Call: call}}, pairs * 2, true
}
