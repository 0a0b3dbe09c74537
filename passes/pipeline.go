package passes

import (
	"github.com/xyproto/pseudo64/collab"
	"github.com/xyproto/pseudo64/ir"
)

// Pass rewrites fn in place.
type Pass func(fn *ir.FunctionIR)

// Pipeline is an ordered list of passes, run sequentially — each pass sees
// the normal form the previous one left behind.
type Pipeline []Pass

// Run applies every pass in order.
func (p Pipeline) Run(fn *ir.FunctionIR) {
	for _, pass := range p {
		pass(fn)
	}
}

// NewPipeline builds the nine-pass rewrite order. provider/enumFullName
// feed the two named-constant passes; pass collab.NoConstantNames and ""
// to disable them.
func NewPipeline(provider collab.ConstantNameProvider, enumFullName string) Pipeline {
	return Pipeline{
		// Pass 1: register aliasing already happened at build time
		// (build.RegAliasMap) — retained as an explicit no-op step so the
		// pipeline's stage count matches its documented order.
		ParamRegToParamName,
		// Pass 2: cluster memset(rsp+K) targets into declared frame objects.
		FrameObjectClusteringAndRspAlias,
		// Pass 3: drop bit-test scratch litter the builder left behind.
		DropRedundantBitTestPseudo,
		// Pass 4: symbolize named constants in return statements.
		MapNamedReturnConstants(provider, enumFullName),
		// Pass 5: symbolize named constants assigned into the ret alias.
		MapNamedRetAssignConstants(provider, enumFullName),
		// Pass 6: drop x = x.
		SimplifyRedundantAssign,
		// Pass 7: x+0, x*1, x&0, ... .
		SimplifyArithmeticIdentities,
		// Pass 8: cond ? 1 : 0  →  cond.
		SimplifyBooleanTernary,
		// Pass 9: !(a == b)  →  a != b, !!x → x.
		SimplifyLogicalNots,
	}
}
