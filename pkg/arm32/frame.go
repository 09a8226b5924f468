package arm32

import (
	"fmt"

	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/types"
)

// Frame is the stack layout of one function. Low to high: the outgoing
// argument area at sp, then locals/temporaries/spilled parameters below
// fp, then the pushed registers, then incoming stack arguments.
type Frame struct {
	fn       *ir.Function
	size     int // bytes subtracted from sp
	outBytes int // outgoing-argument area
	pushed   int // registers saved by the prologue

	offsets  map[ir.Value]int // fp-relative, negative
	incoming map[ir.Value]int // fp-relative, positive (params >= 4)
}

// NewFrame lays out the frame. pushedCount is the number of registers
// the prologue pushes; incoming argument offsets sit above them.
func NewFrame(fn *ir.Function, pushedCount int) *Frame {
	fr := &Frame{
		fn:       fn,
		pushed:   pushedCount,
		offsets:  make(map[ir.Value]int),
		incoming: make(map[ir.Value]int),
	}

	// The outgoing area covers every argument position; only slots
	// beyond the fourth are actually stored through.
	fr.outBytes = fn.MaxCallArgs * 4

	cum := 0
	slot := func(v ir.Value, size int) {
		cum += size
		fr.offsets[v] = -cum
	}

	// Register parameters spill to the frame at entry; stack parameters
	// stay in the caller's outgoing area.
	paramSlots := make(map[string]int)
	for _, p := range fn.Params {
		if p.Pos < 4 {
			slot(p, 4)
			paramSlots[p.Name] = fr.offsets[p]
		} else {
			off := pushedCount*4 + (p.Pos-4)*4
			fr.incoming[p] = off
			paramSlots[p.Name] = off
		}
	}

	for _, l := range fn.Locals {
		// A parameter-override shadow aliases the parameter's slot, so
		// reads lowered before the first assignment observe updates.
		if fn.Overrides[l.Name] == l {
			fr.offsets[l] = paramSlots[l.Name]
			continue
		}
		size := l.Type().Size()
		if size < 4 {
			size = 4
		}
		slot(l, size)
	}

	// Results of defining instructions live in the frame too
	for _, inst := range fn.Code {
		switch i := inst.(type) {
		case *ir.BinaryInst:
			slot(i, 4)
		case *ir.IcmpInst:
			slot(i, 4)
		case *ir.CallInst:
			if !types.IsVoid(i.Callee.RetType) {
				slot(i, 4)
			}
		}
	}

	fr.size = align8(cum + fr.outBytes)
	return fr
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// Size returns the byte count the prologue subtracts from sp
func (fr *Frame) Size() int {
	return fr.size
}

// LocKind tells the emitter how to reach a value
type LocKind int

const (
	LocImm    LocKind = iota // integer constant
	LocFrame                 // fp-relative memory
	LocStack                 // sp-relative memory (outgoing argument slot)
	LocGlobal                // symbol-addressed memory
)

// Loc is the resolved location of a value
type Loc struct {
	Kind LocKind
	Imm  int32
	Off  int
	Sym  string
	// Addr marks array-typed variables: loading them yields the
	// address of the storage rather than its contents.
	Addr bool
}

// Locate resolves a value to its location. Register bindings are checked
// by the caller through RegID before consulting the frame.
func (fr *Frame) Locate(v ir.Value) (Loc, error) {
	switch val := v.(type) {
	case *ir.ConstInt:
		return Loc{Kind: LocImm, Imm: val.V}, nil

	case *ir.Global:
		return Loc{Kind: LocGlobal, Sym: val.Name, Addr: isAggregate(v)}, nil

	case *ir.TempMem:
		return Loc{Kind: LocStack, Off: val.Offset}, nil

	case *ir.FormalParam:
		if off, ok := fr.incoming[v]; ok {
			return Loc{Kind: LocFrame, Off: off}, nil
		}
	}

	if off, ok := fr.offsets[v]; ok {
		return Loc{Kind: LocFrame, Off: off, Addr: isAggregate(v)}, nil
	}
	return Loc{}, fmt.Errorf("no location for value %q (%T)", v.IRName(), v)
}

// isAggregate reports whether the value names array storage, so that
// "loading" it produces the base address. Decayed array parameters hold
// a pointer and load as scalars.
func isAggregate(v ir.Value) bool {
	a, ok := v.Type().(types.Tarray)
	if !ok {
		return false
	}
	if _, isParam := v.(*ir.FormalParam); isParam {
		return false
	}
	// A computed address already is a pointer value
	if _, isInst := v.(ir.Instruction); isInst {
		return false
	}
	return a.Count > 0
}
