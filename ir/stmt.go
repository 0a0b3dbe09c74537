package ir

// Statement is one entry in a BasicBlock's linear statement list.
type Statement interface {
	isStatement()
}

// Assign is lhs := rhs. The left side is restricted (by construction, not
// by the type system) to a Reg/Local/Param reference, or a Load used as an
// l-value meaning "store through this pointer" — builders never produce an
// Assign whose LHS is anything else.
type Assign struct {
	LHS Expression
	RHS Expression
}

// Store writes value to the memory location addr denotes.
type Store struct {
	Addr     Expression
	Value    Expression
	ElemType *Type
	Seg      Segment
}

// CallStmt is a call whose result is discarded.
type CallStmt struct {
	Call *Call
}

// IfGoto is a conditional branch to a label.
type IfGoto struct {
	Cond  Expression
	Label *Label
}

// Goto is an unconditional branch to a label.
type Goto struct {
	Label *Label
}

// LabelStmt marks a branch target; prints as "Lname:".
type LabelStmt struct {
	Label *Label
}

// Return exits the function, optionally with a value.
type Return struct {
	Value Expression // nil for a void return
}

// Asm carries one line of original disassembly, verbatim, tagged with the
// instruction's address. It is never produced or consumed by any pass —
// only the decoder-to-builder stage emits it, and only the printer reads
// it.
type Asm struct {
	IP   uint64
	Text string
}

// Pseudo is a free-form annotation of semantics the builder chose not to
// (or could not) express structurally.
type Pseudo struct {
	Text string
}

// Comment is a free-form non-assembly, non-pseudo annotation.
type Comment struct {
	Text string
}

// Nop is an explicit no-op statement; DropRedundantBitTestPseudo removes
// it. SimplifyRedundantAssign removes a self-assignment outright rather
// than leaving a Nop, and the builder emits nothing for push/pop.
type Nop struct{}

func (*Assign) isStatement()    {}
func (*Store) isStatement()     {}
func (*CallStmt) isStatement()  {}
func (*IfGoto) isStatement()    {}
func (*Goto) isStatement()      {}
func (*LabelStmt) isStatement() {}
func (*Return) isStatement()    {}
func (*Asm) isStatement()       {}
func (*Pseudo) isStatement()    {}
func (*Comment) isStatement()   {}
func (*Nop) isStatement()       {}
