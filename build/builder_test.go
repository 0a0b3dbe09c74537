package build

import (
	"testing"

	"github.com/xyproto/pseudo64/analyze"
	"github.com/xyproto/pseudo64/decode"
	"github.com/xyproto/pseudo64/ir"
)

func buildFrom(t *testing.T, code []byte, opts Options) *ir.FunctionIR {
	t.Helper()
	res := decode.Decode(code, 0x1000, 0)
	labels := analyze.Number(res.Instructions)
	return Build("sub_1000", 0, 0x1000, res, labels, opts)
}

func TestBuildMovEaxRet(t *testing.T) {
	// mov eax, 1 ; ret
	code := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xC3}
	fn := buildFrom(t, code, Options{})

	var sawAssign, sawReturn bool
	for _, s := range fn.Body() {
		switch st := s.(type) {
		case *ir.Assign:
			reg, ok := st.LHS.(*ir.Reg)
			if !ok || reg.Name != "ret" {
				continue
			}
			cst, ok := st.RHS.(*ir.UConst)
			if !ok || cst.Value != 1 {
				t.Errorf("Assign RHS = %#v, want UConst{Value: 1}", st.RHS)
			}
			sawAssign = true
		case *ir.Return:
			reg, ok := st.Value.(*ir.Reg)
			if !ok || reg.Name != "ret" {
				t.Errorf("Return value = %#v, want Reg{Name: ret}", st.Value)
			}
			sawReturn = true
		}
	}
	if !sawAssign {
		t.Errorf("expected an Assign to the ret alias")
	}
	if !sawReturn {
		t.Errorf("expected a Return statement")
	}
}

func TestBuildDetectPrologueSuppressesSemanticEmission(t *testing.T) {
	// push rbp ; mov rbp, rsp ; sub rsp, 0x20 ; ret
	code := []byte{0x55, 0x48, 0x89, 0xE5, 0x48, 0x83, 0xEC, 0x20, 0xC3}

	fn := buildFrom(t, code, Options{DetectPrologue: true})
	for _, s := range fn.Body() {
		if asm, ok := s.(*ir.Asm); ok && asm.IP == 0x1000 {
			continue
		}
		if _, ok := s.(*ir.Return); ok {
			continue
		}
		if _, ok := s.(*ir.Asm); ok {
			continue
		}
		t.Errorf("unexpected non-Asm, non-Return statement with prologue detection on: %#v", s)
	}
	if v, ok := fn.Tags["frame.hasRBP"]; !ok || v != "true" {
		t.Errorf("frame.hasRBP tag not set for a push-rbp/mov-rbp-rsp prologue")
	}
	if v, ok := fn.Tags["frame.localSize"]; !ok || v != "32" {
		t.Errorf("frame.localSize tag = %q, want 32", v)
	}
}

func TestBuildParamsAndReturnType(t *testing.T) {
	fn := buildFrom(t, []byte{0xC3}, Options{})
	if len(fn.Parameters) != 4 {
		t.Fatalf("got %d parameters, want 4", len(fn.Parameters))
	}
	for i, want := range []string{"p1", "p2", "p3", "p4"} {
		if fn.Parameters[i].Name != want {
			t.Errorf("Parameters[%d].Name = %q, want %q", i, fn.Parameters[i].Name, want)
		}
	}
	if fn.ReturnType != ir.U64Type {
		t.Errorf("ReturnType = %v, want U64Type", fn.ReturnType)
	}
}
