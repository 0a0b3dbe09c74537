// Package decode drives an x86-64 instruction decoder across a byte
// slice. The concrete decoder is golang.org/x/arch/x86/x86asm, the same
// library github.com/mewmew/x and github.com/maxgio92/resurgo build their
// own disassemblers on.
package decode

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Instruction is one decoded x86-64 instruction, annotated with its
// absolute virtual address. Inst exposes the full x86asm operand model
// (mnemonic, operand kinds, registers, immediates, memory base/index/
// scale/displacement, near-branch targets, IP-relative flag) directly —
// there is no separate abstraction layer over it, since the build
// package is the only consumer and it's implementation-private.
type Instruction struct {
	IP      uint64
	Inst    x86asm.Inst
	AsmText string // "0x{ip:X}: {mnemonic} {operands}"
}

// Mnemonic returns the opcode mnemonic as x86asm spells it, in upper
// case, e.g. "MOV", "JNE".
func (in Instruction) Mnemonic() string {
	return in.Inst.Op.String()
}

// End returns the address immediately after this instruction.
func (in Instruction) End() uint64 {
	return in.IP + uint64(in.Inst.Len)
}

// IsRet reports whether this instruction is RET or RETF — the decoder
// driver halts immediately after one.
func (in Instruction) IsRet() bool {
	switch in.Inst.Op {
	case x86asm.RET, x86asm.RETF:
		return true
	default:
		return false
	}
}

// decodeOne wraps x86asm.Decode for 64-bit mode and formats the canonical
// assembly line.
func decodeOne(src []byte, ip uint64) (Instruction, error) {
	inst, err := x86asm.Decode(src, 64)
	if err != nil {
		return Instruction{}, err
	}
	syntax := x86asm.IntelSyntax(inst, ip, nil)
	return Instruction{
		IP:      ip,
		Inst:    inst,
		AsmText: fmt.Sprintf("0x%X: %s", ip, syntax),
	}, nil
}
