package pseudo64

import (
	"strings"
	"testing"
)

func TestToPseudoCodeMovEaxRet(t *testing.T) {
	// mov eax, 1 ; ret
	code := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xC3}

	out := ToPseudoCode(code, Options{BaseAddress: 0x1000, FunctionName: "check_value"})

	if !strings.Contains(out, "check_value(") {
		t.Errorf("missing function name in output:\n%s", out)
	}
	if !strings.Contains(out, "return") {
		t.Errorf("missing a return statement in output:\n%s", out)
	}
}

func TestToPseudoCodeDefaultsNameToSubAddress(t *testing.T) {
	code := []byte{0xC3} // ret

	out := ToPseudoCode(code, Options{BaseAddress: 0x2000})
	if !strings.Contains(out, "sub_2000(") {
		t.Errorf("expected the default sub_<hex> name, got:\n%s", out)
	}
}

func TestToPseudoCodeSymbolizesReturnedNTStatus(t *testing.T) {
	// mov eax, 0 ; ret  -- 0 is a recognized NTSTATUS value by default.
	code := []byte{0xB8, 0x00, 0x00, 0x00, 0x00, 0xC3}

	out := ToPseudoCode(code, Options{BaseAddress: 0x3000})
	if !strings.Contains(out, "STATUS_SUCCESS") {
		t.Errorf("expected the default constant provider to symbolize 0 as STATUS_SUCCESS, got:\n%s", out)
	}
}

func TestToPseudoCodeDetectPrologueSuppressesRawFrameSetup(t *testing.T) {
	// push rbp ; mov rbp, rsp ; sub rsp, 0x20 ; mov eax, 1 ; ret
	code := []byte{
		0x55,
		0x48, 0x89, 0xE5,
		0x48, 0x83, 0xEC, 0x20,
		0xB8, 0x01, 0x00, 0x00, 0x00,
		0xC3,
	}

	out := ToPseudoCode(code, Options{BaseAddress: 0x4000, DetectPrologue: true})
	if strings.Contains(out, "rsp = ") || strings.Contains(out, "rbp = ") {
		t.Errorf("prologue detection should suppress semantic assignments to rsp/rbp, got:\n%s", out)
	}
	if !strings.Contains(out, "stack frame: rbp-based, 32 bytes of locals") {
		t.Errorf("expected a header comment describing the detected frame, got:\n%s", out)
	}
}

func TestToPseudoCodeConditionalBranchSynthesizesCompare(t *testing.T) {
	// cmp eax, 0 ; jne +5 ; mov eax, 1 ; mov eax, 2 ; ret
	// decoding stops at the single trailing ret, so jne's target (offset
	// 10, the second mov) must land inside the decoded window rather than
	// past a ret, which would terminate decoding first.
	code := []byte{
		0x83, 0xF8, 0x00,
		0x75, 0x05,
		0xB8, 0x01, 0x00, 0x00, 0x00,
		0xB8, 0x02, 0x00, 0x00, 0x00,
		0xC3,
	}

	out := ToPseudoCode(code, Options{BaseAddress: 0x5000})
	if !strings.Contains(out, "!=") {
		t.Errorf("expected a synthesized != comparison for jne, got:\n%s", out)
	}
	if !strings.Contains(out, "goto") {
		t.Errorf("expected a goto for the branch target, got:\n%s", out)
	}
}
