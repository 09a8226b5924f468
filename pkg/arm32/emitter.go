package arm32

import (
	"fmt"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/minic-cc/minicc/pkg/ir"
)

// Emitter accumulates the assembly listing. Besides raw instruction
// emission it provides the load/store-variable macros that hide frame
// addressing and out-of-range offsets behind the reserved temporary.
type Emitter struct {
	buf   []byte
	frame *Frame
}

// NewEmitter creates an empty emitter
func NewEmitter() *Emitter {
	return &Emitter{}
}

// SetFrame installs the frame used to resolve variable locations
func (e *Emitter) SetFrame(fr *Frame) {
	e.frame = fr
}

// Bytes returns the listing so far
func (e *Emitter) Bytes() []byte {
	return e.buf
}

func (e *Emitter) String() string {
	return string(e.buf)
}

// Directive emits an assembler directive line
func (e *Emitter) Directive(format string, args ...any) {
	e.buf = hfmt.Appendf(e.buf, "\t"+format+"\n", args...)
}

// Label emits "name:" on its own line
func (e *Emitter) Label(name string) {
	e.buf = hfmt.Appendf(e.buf, "%s:\n", name)
}

// Comment emits an assembly comment
func (e *Emitter) Comment(s string) {
	e.buf = hfmt.Appendf(e.buf, "\t@ %s\n", s)
}

// Inst emits one instruction with its operands
func (e *Emitter) Inst(op string, operands ...string) {
	e.buf = append(e.buf, '\t')
	e.buf = append(e.buf, op...)
	for i, o := range operands {
		if i == 0 {
			e.buf = append(e.buf, '\t')
		} else {
			e.buf = append(e.buf, ", "...)
		}
		e.buf = append(e.buf, o...)
	}
	e.buf = append(e.buf, '\n')
}

// Jump emits an unconditional branch
func (e *Emitter) Jump(label string) {
	e.Inst("b", label)
}

// Call emits a procedure call
func (e *Emitter) Call(name string) {
	e.Inst("bl", name)
}

// LoadImm loads a 32-bit constant, via a literal pool load when the
// value does not encode as an immediate.
func (e *Emitter) LoadImm(rd int, v int32) {
	if immEncodable(v) {
		e.Inst("mov", RegName(rd), imm(int(v)))
	} else if immEncodable(^v) {
		e.Inst("mvn", RegName(rd), imm(int(^v)))
	} else {
		e.Inst("ldr", RegName(rd), fmt.Sprintf("=%d", v))
	}
}

// AddImm emits rd = rn + off, materialising large offsets through the
// reserved temporary.
func (e *Emitter) AddImm(rd, rn, off int) {
	op := "add"
	enc := off
	if off < 0 {
		op = "sub"
		enc = -off
	}
	if immEncodable(int32(enc)) {
		e.Inst(op, RegName(rd), RegName(rn), imm(enc))
		return
	}
	e.LoadImm(RegTmp, int32(off))
	e.Inst("add", RegName(rd), RegName(rn), RegName(RegTmp))
}

// LoadVar loads the value of v into rd: immediate, register move,
// frame/stack slot, global contents, or the base address for arrays.
func (e *Emitter) LoadVar(rd int, v ir.Value) error {
	if r := v.RegID(); r >= 0 {
		if r != rd {
			e.Inst("mov", RegName(rd), RegName(r))
		}
		return nil
	}

	loc, err := e.frame.Locate(v)
	if err != nil {
		return err
	}

	switch loc.Kind {
	case LocImm:
		e.LoadImm(rd, loc.Imm)

	case LocGlobal:
		e.Inst("ldr", RegName(rd), "="+loc.Sym)
		if !loc.Addr {
			e.Inst("ldr", RegName(rd), deref(rd))
		}

	case LocStack:
		e.Inst("ldr", RegName(rd), mem(RegSP, loc.Off))

	case LocFrame:
		if loc.Addr {
			e.AddImm(rd, RegFP, loc.Off)
			return nil
		}
		if offsetEncodable(loc.Off) {
			e.Inst("ldr", RegName(rd), mem(RegFP, loc.Off))
		} else {
			// Offset materialised in the reserved temporary
			e.LoadImm(RegTmp, int32(loc.Off))
			e.Inst("ldr", RegName(rd), fmt.Sprintf("[%s, %s]", RegName(RegFP), RegName(RegTmp)))
		}
	}
	return nil
}

// StoreVar stores rs into the storage of v, using tmp (normally the
// reserved temporary) when an address must be materialised.
func (e *Emitter) StoreVar(rs int, v ir.Value, tmp int) error {
	loc, err := e.frame.Locate(v)
	if err != nil {
		return err
	}

	switch loc.Kind {
	case LocImm:
		return fmt.Errorf("store into constant %d", loc.Imm)

	case LocGlobal:
		if loc.Addr {
			return fmt.Errorf("store into array %s", loc.Sym)
		}
		e.Inst("ldr", RegName(tmp), "="+loc.Sym)
		e.Inst("str", RegName(rs), deref(tmp))

	case LocStack:
		e.Inst("str", RegName(rs), mem(RegSP, loc.Off))

	case LocFrame:
		if loc.Addr {
			return fmt.Errorf("store into array value")
		}
		if offsetEncodable(loc.Off) {
			e.Inst("str", RegName(rs), mem(RegFP, loc.Off))
		} else {
			e.LoadImm(tmp, int32(loc.Off))
			e.Inst("add", RegName(tmp), RegName(RegFP), RegName(tmp))
			e.Inst("str", RegName(rs), deref(tmp))
		}
	}
	return nil
}

func imm(v int) string {
	return fmt.Sprintf("#%d", v)
}

func mem(base, off int) string {
	return fmt.Sprintf("[%s, #%d]", RegName(base), off)
}

func deref(reg int) string {
	return fmt.Sprintf("[%s]", RegName(reg))
}
