package ir

import (
	"fmt"

	"github.com/minic-cc/minicc/pkg/types"
)

// Function owns its linear instruction list, its labels and its locals.
type Function struct {
	Name    string
	RetType types.Type
	Params  []*FormalParam
	Code    []Instruction

	Entry  *LabelInst
	Exit   *LabelInst
	RetVal Value // return-value slot; nil for void functions

	Locals   []*Local
	TempMems []*TempMem

	// Overrides maps a parameter name to the shadow local created on the
	// parameter's first assignment. Consulted before the scope stack.
	Overrides map[string]*Local

	// Filled during instruction selection
	CalleeSaved []int

	HasCall     bool
	MaxCallArgs int

	labelCount int
	tempCount  int
	localSeen  map[string]int
}

// NewFunction creates an empty function. Callers normally go through
// Module.NewFunction, which also checks for redefinition.
func NewFunction(name string, ret types.Type) *Function {
	return &Function{
		Name:      name,
		RetType:   ret,
		Overrides: make(map[string]*Local),
		localSeen: make(map[string]int),
	}
}

// Append adds instructions to the function's code
func (f *Function) Append(insts ...Instruction) {
	f.Code = append(f.Code, insts...)
}

// NewLabel creates a fresh label from the function's counter (".L1", ".L2", ...)
func (f *Function) NewLabel() *LabelInst {
	f.labelCount++
	return &LabelInst{instrBase: newInstr(fmt.Sprintf(".L%d", f.labelCount), types.Void())}
}

func (f *Function) nextTempName() string {
	name := fmt.Sprintf("%%t%d", f.tempCount)
	f.tempCount++
	return name
}

// NewTemp creates a compiler temporary local of the given type
func (f *Function) NewTemp(t types.Type) *Local {
	name := f.nextTempName()
	l := &Local{valueBase: newValueBase(name, t), Name: name[1:]}
	f.Locals = append(f.Locals, l)
	return l
}

// NewLocal creates a named local, mangling the name if another local of
// the same function already uses it.
func (f *Function) NewLocal(t types.Type, name string, depth int) *Local {
	unique := name
	if n, ok := f.localSeen[name]; ok {
		unique = fmt.Sprintf("%s.%d", name, n)
		f.localSeen[name] = n + 1
	} else {
		f.localSeen[name] = 1
	}
	l := &Local{valueBase: newValueBase("%"+unique, t), Name: name, ScopeDepth: depth}
	f.Locals = append(f.Locals, l)
	return l
}

// NewParam appends a formal parameter to the signature
func (f *Function) NewParam(t types.Type, name string) *FormalParam {
	p := &FormalParam{valueBase: newValueBase("%"+name, t), Name: name, Pos: len(f.Params)}
	f.Params = append(f.Params, p)
	// Reserve the name so a shadowing local gets mangled
	f.localSeen[name] = 1
	return p
}

// NewTempMem creates an explicit memory slot at base+offset
func (f *Function) NewTempMem(t types.Type, baseReg, offset int) *TempMem {
	m := &TempMem{valueBase: newValueBase("", t), BaseReg: baseReg, Offset: offset}
	f.TempMems = append(f.TempMems, m)
	return m
}

// NewMove creates a scalar move instruction
func (f *Function) NewMove(dst, src Value) *MoveInst {
	return &MoveInst{instrBase: newInstr("", types.Void()), Dst: dst, Src: src, Mode: MoveScalar}
}

// NewArrayRead creates "dst = *src"
func (f *Function) NewArrayRead(dst, src Value) *MoveInst {
	return &MoveInst{instrBase: newInstr("", types.Void()), Dst: dst, Src: src, Mode: MoveArrayRead}
}

// NewArrayWrite creates "*dst = src"
func (f *Function) NewArrayWrite(dst, src Value) *MoveInst {
	return &MoveInst{instrBase: newInstr("", types.Void()), Dst: dst, Src: src, Mode: MoveArrayWrite}
}

// NewBinary creates an arithmetic instruction producing an i32
func (f *Function) NewBinary(op BinOp, a, b Value) *BinaryInst {
	return &BinaryInst{instrBase: newInstr(f.nextTempName(), types.Int()), Op: op, A: a, B: b}
}

// NewAddress creates address arithmetic: base + offset, carrying the
// given result type (an element pointer, or a decayed array type for a
// partially indexed access).
func (f *Function) NewAddress(base, offset Value, result types.Type) *BinaryInst {
	return &BinaryInst{instrBase: newInstr(f.nextTempName(), result), Op: OpAdd, A: base, B: offset}
}

// NewIcmp creates an integer comparison producing an i1
func (f *Function) NewIcmp(cond CmpCond, a, b Value) *IcmpInst {
	return &IcmpInst{instrBase: newInstr(f.nextTempName(), types.Bool()), Cond: cond, A: a, B: b}
}

// NewGoto creates an unconditional branch
func (f *Function) NewGoto(target *LabelInst) *GotoInst {
	return &GotoInst{instrBase: newInstr("", types.Void()), Target: target}
}

// NewBc creates a conditional branch
func (f *Function) NewBc(cond Value, t, fl *LabelInst) *BcInst {
	return &BcInst{instrBase: newInstr("", types.Void()), Cond: cond, True: t, False: fl}
}

// NewCall creates a call instruction; its result value is the
// instruction itself when the callee returns non-void.
func (f *Function) NewCall(callee *Function, args []Value) *CallInst {
	name := ""
	if !types.IsVoid(callee.RetType) {
		name = f.nextTempName()
	}
	return &CallInst{instrBase: newInstr(name, callee.RetType), Callee: callee, Args: args}
}

// NewArg creates a per-argument marker preceding a call
func (f *Function) NewArg(v Value, pos int) *ArgInst {
	return &ArgInst{instrBase: newInstr("", types.Void()), Val: v, Pos: pos}
}

// NewEntry creates the function entry marker
func (f *Function) NewEntry() *EntryInst {
	return &EntryInst{instrBase: newInstr("", types.Void())}
}

// NewExit creates the function exit; ret may be nil
func (f *Function) NewExit(ret Value) *ExitInst {
	return &ExitInst{instrBase: newInstr("", types.Void()), Ret: ret}
}

// External reports whether the function has no body here (a prototype)
func (f *Function) External() bool {
	return len(f.Code) == 0
}

// Labels returns every label instruction in the code, in order
func (f *Function) Labels() []*LabelInst {
	var labels []*LabelInst
	for _, inst := range f.Code {
		if l, ok := inst.(*LabelInst); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

// RecordCall updates the has-call flag and the maximum call arity,
// used later to size the outgoing-argument frame area.
func (f *Function) RecordCall(argCount int) {
	f.HasCall = true
	if argCount > f.MaxCallArgs {
		f.MaxCallArgs = argCount
	}
}
