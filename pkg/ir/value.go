// Package ir defines the linear MiniC intermediate representation:
// operand values, typed instructions, functions and the module that owns
// them. Defining instructions are themselves values, usable as operands
// of later instructions.
package ir

import (
	"strconv"

	"github.com/minic-cc/minicc/pkg/types"
)

// NoReg marks a value with no physical-register binding
const NoReg = -1

// Value is an operand identity: a constant, variable, memory slot,
// register, or the result of a defining instruction.
type Value interface {
	implValue()
	// IRName is the textual form used by the printer ("%t3", "@a", "42")
	IRName() string
	Type() types.Type
	// RegID is the physical register currently holding the value,
	// or NoReg. Only meaningful during instruction selection.
	RegID() int
	SetRegID(reg int)
}

// valueBase carries the state shared by all value variants
type valueBase struct {
	name string
	typ  types.Type
	reg  int
}

func newValueBase(name string, typ types.Type) valueBase {
	return valueBase{name: name, typ: typ, reg: NoReg}
}

func (v *valueBase) implValue()       {}
func (v *valueBase) IRName() string   { return v.name }
func (v *valueBase) Type() types.Type { return v.typ }
func (v *valueBase) RegID() int       { return v.reg }
func (v *valueBase) SetRegID(reg int) { v.reg = reg }

// ConstInt is an integer constant, interned per module
type ConstInt struct {
	valueBase
	V int32
}

func newConstInt(v int32) *ConstInt {
	return &ConstInt{valueBase: newValueBase(strconv.FormatInt(int64(v), 10), types.Int()), V: v}
}

// Global is a process-lifetime variable, printed "@name"
type Global struct {
	valueBase
	Name     string
	InitZero bool
}

// Local is a function-frame variable, printed "%name".
// Compiler temporaries are locals with generated "t<n>" names.
type Local struct {
	valueBase
	Name       string
	ScopeDepth int
}

// FormalParam is the value delivered by the caller for one parameter.
// Positions 0..3 arrive in r0..r3, positions >= 4 on the stack.
type FormalParam struct {
	valueBase
	Name string
	Pos  int
}

// TempMem is an explicit memory slot addressed off a base register,
// used to spill call arguments beyond the fourth.
type TempMem struct {
	valueBase
	BaseReg int
	Offset  int
}

// RegisterValue is pre-bound to a fixed physical register; it models
// r0..r3 at call boundaries.
type RegisterValue struct {
	valueBase
	RegNo int
}

// NewRegisterValue creates a value bound to the given register
func NewRegisterValue(regNo int, typ types.Type) *RegisterValue {
	v := &RegisterValue{valueBase: newValueBase("", typ), RegNo: regNo}
	v.reg = regNo
	return v
}
