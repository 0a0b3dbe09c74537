package decode

import "golang.org/x/arch/x86/x86asm"

// Result is everything the decoder driver produces: the ordered
// instruction list plus the prologue/PEB analysis that runs immediately
// after decoding.
type Result struct {
	Instructions []Instruction

	// UsesFramePointer is true when instruction 0 is "push rbp" followed
	// by "mov rbp, rsp".
	UsesFramePointer bool
	// LocalSize is the immediate operand of a detected "sub rsp, IMM"
	// prologue instruction (0 if none was recognized).
	LocalSize uint64
	// PrologueLen is the count of leading instructions classified as
	// prologue (0 to 3): detectPrologue suppresses semantic emission
	// for exactly these instructions.
	PrologueLen int

	// UsesPeb is true iff any instruction in the window addresses
	// gs:[0x60] — the Windows x86-64 PEB probe.
	UsesPeb bool
}

// Decode decodes 64-bit x86 instructions sequentially starting at base,
// stopping at the first RET/RETF or after min(len(code), maxBytes) bytes.
// maxBytes <= 0 means unlimited (bounded only by len(code)).
func Decode(code []byte, base uint64, maxBytes int) Result {
	limit := len(code)
	if maxBytes > 0 && maxBytes < limit {
		limit = maxBytes
	}

	var insts []Instruction
	off := 0
	for off < limit {
		in, err := decodeOne(code[off:limit], base+uint64(off))
		if err != nil {
			// A malformed tail is not a hard error: keep whatever was
			// already decoded. The empty-result case is only reachable
			// when this happens on the very first instruction.
			break
		}
		insts = append(insts, in)
		off += in.Inst.Len
		if in.IsRet() {
			break
		}
	}

	res := Result{Instructions: insts}
	detectPrologue(&res)
	detectPeb(&res)
	return res
}

// detectPrologue runs a two-step scan: an optional "push rbp; mov rbp,
// rsp" pair, then an optional "sub rsp, IMM".
func detectPrologue(res *Result) {
	insts := res.Instructions
	idx := 0

	if len(insts) >= 2 && isPushRBP(insts[0]) && isMovRBPRSP(insts[1]) {
		res.UsesFramePointer = true
		idx = 2
	}

	if idx < len(insts) {
		if imm, ok := subRSPImm(insts[idx]); ok && imm > 0 && imm%8 == 0 {
			res.LocalSize = imm
			idx++
		}
	}

	res.PrologueLen = idx
}

func isPushRBP(in Instruction) bool {
	if in.Inst.Op != x86asm.PUSH {
		return false
	}
	r, ok := in.Inst.Args[0].(x86asm.Reg)
	return ok && r == x86asm.RBP
}

func isMovRBPRSP(in Instruction) bool {
	if in.Inst.Op != x86asm.MOV {
		return false
	}
	dst, ok1 := in.Inst.Args[0].(x86asm.Reg)
	src, ok2 := in.Inst.Args[1].(x86asm.Reg)
	return ok1 && ok2 && dst == x86asm.RBP && src == x86asm.RSP
}

func subRSPImm(in Instruction) (uint64, bool) {
	if in.Inst.Op != x86asm.SUB {
		return 0, false
	}
	dst, ok := in.Inst.Args[0].(x86asm.Reg)
	if !ok || dst != x86asm.RSP {
		return 0, false
	}
	imm, ok := in.Inst.Args[1].(x86asm.Imm)
	if !ok {
		return 0, false
	}
	return uint64(imm), true
}

// detectPeb scans the whole window once for a gs:[0x60] memory operand.
func detectPeb(res *Result) {
	for _, in := range res.Instructions {
		for _, arg := range in.Inst.Args {
			mem, ok := arg.(x86asm.Mem)
			if !ok {
				continue
			}
			if mem.Segment == x86asm.GS && mem.Disp == 0x60 && mem.Base == 0 && mem.Index == 0 {
				res.UsesPeb = true
				return
			}
		}
	}
}
