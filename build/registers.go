package build

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// regSpelling renders a register the way hand-written C inline-asm
// comments usually do: lowercase, e.g. "rax", "r10d".
func regSpelling(r x86asm.Reg) string {
	return strings.ToLower(r.String())
}

// RegInfo describes one decoded register reference: its stable alias (if
// any) and the bit width of the specific sub-register form that was used
// — aliasing happens on the canonical 64-bit key, but the width is
// recovered per reference so casts stay accurate.
type RegInfo struct {
	Canonical x86asm.Reg // the 64-bit (or 128-bit XMM) family key
	Bits      int        // width of the referenced sub-register
	Alias     string     // "", or a stable name like "p1"/"ret"/"fp1"
}

// regFamily canonicalizes any width of a general-purpose register to its
// 64-bit family member, and reports the width that was actually
// referenced. XMM registers are already a single width (128 bits) in this
// decoder's operand set, so they canonicalize to themselves.
func regFamily(r x86asm.Reg) (family x86asm.Reg, bits int) {
	switch r {
	case x86asm.AL, x86asm.AH, x86asm.AX, x86asm.EAX, x86asm.RAX:
		return x86asm.RAX, widthOfGPR(r)
	case x86asm.CL, x86asm.CH, x86asm.CX, x86asm.ECX, x86asm.RCX:
		return x86asm.RCX, widthOfGPR(r)
	case x86asm.DL, x86asm.DH, x86asm.DX, x86asm.EDX, x86asm.RDX:
		return x86asm.RDX, widthOfGPR(r)
	case x86asm.BL, x86asm.BH, x86asm.BX, x86asm.EBX, x86asm.RBX:
		return x86asm.RBX, widthOfGPR(r)
	case x86asm.SPB, x86asm.SP, x86asm.ESP, x86asm.RSP:
		return x86asm.RSP, widthOfGPR(r)
	case x86asm.BPB, x86asm.BP, x86asm.EBP, x86asm.RBP:
		return x86asm.RBP, widthOfGPR(r)
	case x86asm.SIB, x86asm.SI, x86asm.ESI, x86asm.RSI:
		return x86asm.RSI, widthOfGPR(r)
	case x86asm.DIB, x86asm.DI, x86asm.EDI, x86asm.RDI:
		return x86asm.RDI, widthOfGPR(r)
	case x86asm.R8B, x86asm.R8W, x86asm.R8L, x86asm.R8:
		return x86asm.R8, widthOfGPR(r)
	case x86asm.R9B, x86asm.R9W, x86asm.R9L, x86asm.R9:
		return x86asm.R9, widthOfGPR(r)
	case x86asm.R10B, x86asm.R10W, x86asm.R10L, x86asm.R10:
		return x86asm.R10, widthOfGPR(r)
	case x86asm.R11B, x86asm.R11W, x86asm.R11L, x86asm.R11:
		return x86asm.R11, widthOfGPR(r)
	case x86asm.R12B, x86asm.R12W, x86asm.R12L, x86asm.R12:
		return x86asm.R12, widthOfGPR(r)
	case x86asm.R13B, x86asm.R13W, x86asm.R13L, x86asm.R13:
		return x86asm.R13, widthOfGPR(r)
	case x86asm.R14B, x86asm.R14W, x86asm.R14L, x86asm.R14:
		return x86asm.R14, widthOfGPR(r)
	case x86asm.R15B, x86asm.R15W, x86asm.R15L, x86asm.R15:
		return x86asm.R15, widthOfGPR(r)
	case x86asm.X0, x86asm.X1, x86asm.X2, x86asm.X3, x86asm.X4, x86asm.X5,
		x86asm.X6, x86asm.X7, x86asm.X8, x86asm.X9, x86asm.X10, x86asm.X11,
		x86asm.X12, x86asm.X13, x86asm.X14, x86asm.X15:
		return r, 128
	default:
		return r, 64
	}
}

func widthOfGPR(r x86asm.Reg) int {
	switch r {
	case x86asm.AL, x86asm.CL, x86asm.DL, x86asm.BL, x86asm.AH, x86asm.CH, x86asm.DH, x86asm.BH,
		x86asm.SPB, x86asm.BPB, x86asm.SIB, x86asm.DIB,
		x86asm.R8B, x86asm.R9B, x86asm.R10B, x86asm.R11B, x86asm.R12B, x86asm.R13B, x86asm.R14B, x86asm.R15B:
		return 8
	case x86asm.AX, x86asm.CX, x86asm.DX, x86asm.BX, x86asm.SP, x86asm.BP, x86asm.SI, x86asm.DI,
		x86asm.R8W, x86asm.R9W, x86asm.R10W, x86asm.R11W, x86asm.R12W, x86asm.R13W, x86asm.R14W, x86asm.R15W:
		return 16
	case x86asm.EAX, x86asm.ECX, x86asm.EDX, x86asm.EBX, x86asm.ESP, x86asm.EBP, x86asm.ESI, x86asm.EDI,
		x86asm.R8L, x86asm.R9L, x86asm.R10L, x86asm.R11L, x86asm.R12L, x86asm.R13L, x86asm.R14L, x86asm.R15L:
		return 32
	default:
		return 64
	}
}

// entryAliases seeds the Microsoft x64 integer and floating-point argument
// registers plus the return register. These names are stable: no pass is
// ever allowed to rename them.
var entryAliases = map[x86asm.Reg]string{
	x86asm.RCX: "p1",
	x86asm.RDX: "p2",
	x86asm.R8:  "p3",
	x86asm.R9:  "p4",
	x86asm.RAX: "ret",
	x86asm.X0:  "fp1",
	x86asm.X1:  "fp2",
	x86asm.X2:  "fp3",
	x86asm.X3:  "fp4",
}

// RegAliasMap resolves decoded register operands to their canonical family
// and stable alias name, if any. It is seeded once per decompiled function
// and never mutated afterward — the same single-pass, single-threaded
// scratch-state discipline LastCmp/LastBt follow.
type RegAliasMap struct {
	names map[x86asm.Reg]string
}

func NewRegAliasMap() *RegAliasMap {
	names := make(map[x86asm.Reg]string, len(entryAliases))
	for k, v := range entryAliases {
		names[k] = v
	}
	return &RegAliasMap{names: names}
}

// Resolve returns the RegInfo for a decoded register reference: its
// canonical family key, its reference width, and its alias name (empty if
// this register has no stable alias).
func (m *RegAliasMap) Resolve(r x86asm.Reg) RegInfo {
	family, bits := regFamily(r)
	return RegInfo{Canonical: family, Bits: bits, Alias: m.names[family]}
}

// Name returns the printable name for a register reference: its alias if
// one exists, else the lowercase x86 register name of the specific
// sub-register form actually referenced (so non-aliased registers keep
// their familiar "ecx"/"r10d" spelling).
func (m *RegAliasMap) Name(r x86asm.Reg) string {
	info := m.Resolve(r)
	if info.Alias != "" {
		return info.Alias
	}
	return regSpelling(r)
}
