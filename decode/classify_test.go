package decode

import "testing"

func TestNearBranchTargetForward(t *testing.T) {
	// jmp +2 ; nop ; nop  (jmp rel8 0x02 lands right after the two nops)
	code := []byte{0xEB, 0x02, 0x90, 0x90}

	res := Decode(code, 0x2000, 0)
	if len(res.Instructions) == 0 {
		t.Fatalf("expected at least one decoded instruction")
	}
	jmp := res.Instructions[0]
	if !IsUnconditionalJump(jmp.Inst.Op) {
		t.Fatalf("first instruction should classify as an unconditional jump")
	}

	target, ok := NearBranchTarget(jmp)
	if !ok {
		t.Fatalf("NearBranchTarget did not find a target")
	}
	want := uint64(0x2000 + 2 + 2) // instruction end (0x2002) + rel8 (2)
	if target != want {
		t.Errorf("target = 0x%X, want 0x%X", target, want)
	}
}

func TestIsConditionalJump(t *testing.T) {
	// je +0 ; ret
	code := []byte{0x74, 0x00, 0xC3}
	res := Decode(code, 0, 0)
	if !IsConditionalJump(res.Instructions[0].Inst.Op) {
		t.Errorf("JE should classify as a conditional jump")
	}
	if IsConditionalJump(res.Instructions[1].Inst.Op) {
		t.Errorf("RET should not classify as a conditional jump")
	}
}

func TestIsNearCall(t *testing.T) {
	// call +0 ; ret
	code := []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0xC3}
	res := Decode(code, 0, 0)
	if !IsNearCall(res.Instructions[0].Inst.Op) {
		t.Errorf("CALL rel32 should classify as a near call")
	}
}
