package passes

import "github.com/xyproto/pseudo64/ir"

// ParamRegToParamName is a documented no-op: the builder (build.RegAliasMap)
// assigns p1..p4/ret/fp1..fp4 at construction time, so by the time a
// FunctionIR reaches the pipeline every argument register reference is
// already a stable name. The pass stays in the pipeline as an explicit
// placeholder so the numbered stage order in DESIGN.md matches what
// actually runs.
func ParamRegToParamName(fn *ir.FunctionIR) {}
