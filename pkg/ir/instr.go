package ir

import (
	"github.com/minic-cc/minicc/pkg/types"
)

// Instruction is one element of a function's linear code. Instructions
// that define a result are used directly as the result Value.
type Instruction interface {
	Value
	implInstruction()
	Dead() bool
	MarkDead()
}

// instrBase carries the state shared by all instruction variants
type instrBase struct {
	valueBase
	dead bool
}

func (i *instrBase) implInstruction() {}
func (i *instrBase) Dead() bool       { return i.dead }
func (i *instrBase) MarkDead()        { i.dead = true }

// BinOp is a binary (or unary, for Neg) arithmetic opcode
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	case OpNeg:
		return "neg"
	}
	return "op?"
}

// CmpCond is an integer comparison condition
type CmpCond int

const (
	CondLt CmpCond = iota
	CondLe
	CondGt
	CondGe
	CondEq
	CondNe
)

func (c CmpCond) String() string {
	switch c {
	case CondLt:
		return "lt"
	case CondLe:
		return "le"
	case CondGt:
		return "gt"
	case CondGe:
		return "ge"
	case CondEq:
		return "eq"
	case CondNe:
		return "ne"
	}
	return "cond?"
}

// MoveMode distinguishes scalar moves from array element access
type MoveMode int

const (
	MoveScalar     MoveMode = iota
	MoveArrayRead           // dst = *src
	MoveArrayWrite          // *dst = src
)

// LabelInst marks a branch target. Its IRName is the label text (".L3").
type LabelInst struct {
	instrBase
}

// EntryInst opens a function body; the selector emits the prologue for it
type EntryInst struct {
	instrBase
}

// ExitInst closes a function body. Ret is nil for void functions.
type ExitInst struct {
	instrBase
	Ret Value
}

// MoveInst copies Src to Dst. ArrayRead/ArrayWrite modes address memory
// through the pointer operand.
type MoveInst struct {
	instrBase
	Dst  Value
	Src  Value
	Mode MoveMode
}

// BinaryInst computes a binary arithmetic result. Neg uses only A.
// The result type is i32, or a pointer for address arithmetic.
type BinaryInst struct {
	instrBase
	Op BinOp
	A  Value
	B  Value
}

// IcmpInst compares two integers, producing an i1
type IcmpInst struct {
	instrBase
	Cond CmpCond
	A    Value
	B    Value
}

// GotoInst branches unconditionally
type GotoInst struct {
	instrBase
	Target *LabelInst
}

// BcInst branches on a condition value: True if nonzero, else False
type BcInst struct {
	instrBase
	Cond  Value
	True  *LabelInst
	False *LabelInst
}

// CallInst calls a function with the given arguments. If the callee
// returns a value the instruction is that value.
type CallInst struct {
	instrBase
	Callee *Function
	Args   []Value
}

// ArgInst marks one outgoing call argument and its position
type ArgInst struct {
	instrBase
	Val Value
	Pos int
}

func newInstr(name string, typ types.Type) instrBase {
	return instrBase{valueBase: newValueBase(name, typ)}
}
