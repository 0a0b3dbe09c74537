package decode

import "golang.org/x/arch/x86/x86asm"

// IsConditionalJump reports whether op is one of the Jcc family (including
// the jrcxz/jecxz/jcxz short-circuit branches).
func IsConditionalJump(op x86asm.Op) bool {
	switch op {
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JG,
		x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP,
		x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JS,
		x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ:
		return true
	default:
		return false
	}
}

// IsUnconditionalJump reports whether op is a near JMP.
func IsUnconditionalJump(op x86asm.Op) bool {
	return op == x86asm.JMP
}

// IsNearCall reports whether op is a near (same-segment) CALL.
func IsNearCall(op x86asm.Op) bool {
	return op == x86asm.CALL
}

// NearBranchTarget returns the absolute target address of a near
// Jcc/JMP/CALL instruction whose operand is PC-relative, and whether one
// was found.
func NearBranchTarget(in Instruction) (uint64, bool) {
	if len(in.Inst.Args) == 0 {
		return 0, false
	}
	rel, ok := in.Inst.Args[0].(x86asm.Rel)
	if !ok {
		return 0, false
	}
	return uint64(int64(in.End()) + int64(rel)), true
}

// RipRelativeTarget returns the absolute address a RIP-relative memory
// operand resolves to, and whether the instruction has one.
func RipRelativeTarget(in Instruction) (uint64, bool) {
	for _, arg := range in.Inst.Args {
		mem, ok := arg.(x86asm.Mem)
		if !ok {
			continue
		}
		if mem.Base == x86asm.RIP {
			return uint64(int64(in.End()) + mem.Disp), true
		}
	}
	return 0, false
}
