package arm32

import (
	"fmt"
	"strings"

	"tlog.app/go/tlog"

	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/types"
)

// Selector walks one function's IR in order and emits ARM32 assembly.
// Register allocation is per-instruction: operands are loaded, the
// instruction emitted, the result stored, and every register freed.
type Selector struct {
	fn    *ir.Function
	e     *Emitter
	alloc *Allocator
	frame *Frame

	// showIR interleaves each IR instruction as an assembly comment
	showIR bool

	argCount int
}

// NewSelector creates a selector for one function
func NewSelector(fn *ir.Function, e *Emitter, showIR bool) *Selector {
	return &Selector{fn: fn, e: e, alloc: NewAllocator(), showIR: showIR}
}

// UsedRegs returns the callee-saved registers the selection touched
func (s *Selector) UsedRegs() []int {
	return s.alloc.Used()
}

// Run translates the function against the given frame layout
func (s *Selector) Run(fr *Frame) error {
	s.frame = fr
	s.e.SetFrame(fr)
	s.fn.TempMems = nil

	code := s.fn.Code
	for i := 0; i < len(code); i++ {
		inst := code[i]
		if inst.Dead() {
			continue
		}

		if s.showIR {
			if str := ir.InstString(inst); str != "" {
				s.e.Comment(str)
			}
		}

		// Compare/branch fusion: an IntCmp consumed by the immediately
		// following conditional branch folds into cmp + bXX.
		if icmp, ok := inst.(*ir.IcmpInst); ok {
			if bc, next := nextLive(code, i); bc != nil && bc.Cond == icmp {
				if err := s.fusedCompareBranch(icmp, bc); err != nil {
					return err
				}
				i = next
				continue
			}
		}

		if err := s.translate(inst); err != nil {
			return fmt.Errorf("%s: %w", s.fn.Name, err)
		}
	}
	return nil
}

// nextLive finds the next non-dead instruction if it is a conditional
// branch, returning it and its index.
func nextLive(code []ir.Instruction, i int) (*ir.BcInst, int) {
	for j := i + 1; j < len(code); j++ {
		if code[j].Dead() {
			continue
		}
		bc, _ := code[j].(*ir.BcInst)
		return bc, j
	}
	return nil, len(code)
}

func (s *Selector) translate(inst ir.Instruction) error {
	switch i := inst.(type) {
	case *ir.EntryInst:
		return s.entry()
	case *ir.ExitInst:
		return s.exit(i)
	case *ir.LabelInst:
		s.e.Label(s.localLabel(i))
		return nil
	case *ir.GotoInst:
		s.e.Jump(s.localLabel(i.Target))
		return nil
	case *ir.MoveInst:
		return s.move(i)
	case *ir.BinaryInst:
		return s.binary(i)
	case *ir.IcmpInst:
		return s.icmp(i)
	case *ir.BcInst:
		return s.bc(i)
	case *ir.CallInst:
		return s.call(i)
	case *ir.ArgInst:
		s.argCount++
		return nil
	}
	return fmt.Errorf("unsupported instruction %T", inst)
}

// localLabel qualifies a per-function IR label for the flat assembly
// namespace.
func (s *Selector) localLabel(l *ir.LabelInst) string {
	return ".L" + s.fn.Name + "_" + strings.TrimPrefix(l.IRName(), ".L")
}

// entry emits the prologue: save registers, set up fp, allocate the
// frame, and spill the register-borne parameters to their slots.
func (s *Selector) entry() error {
	if regs := pushList(s.fn, s.frame); len(regs) > 0 {
		s.e.Inst("push", regSet(regs))
	}
	if s.frame.Size() > 0 {
		s.e.Inst("mov", RegName(RegFP), RegName(RegSP))
		s.e.AddImm(RegSP, RegSP, -s.frame.Size())
	}
	for _, p := range s.fn.Params {
		if p.Pos < 4 {
			if err := s.e.StoreVar(p.Pos, p, RegTmp); err != nil {
				return err
			}
		}
	}
	return nil
}

// exit emits the epilogue: return value into r0, tear the frame down,
// restore registers.
func (s *Selector) exit(i *ir.ExitInst) error {
	if i.Ret != nil {
		if err := s.e.LoadVar(R0, i.Ret); err != nil {
			return err
		}
	}
	if s.frame.Size() > 0 {
		s.e.Inst("mov", RegName(RegSP), RegName(RegFP))
	}
	if regs := pushList(s.fn, s.frame); len(regs) > 0 {
		s.e.Inst("pop", regSet(regs))
	}
	s.e.Inst("bx", RegName(RegLR))
	return nil
}

// move translates a scalar or array-access move
func (s *Selector) move(i *ir.MoveInst) error {
	switch i.Mode {
	case ir.MoveScalar:
		return s.moveScalar(i.Dst, i.Src)

	case ir.MoveArrayRead:
		p, err := s.operandReg(i.Src)
		if err != nil {
			return err
		}
		s.e.Inst("ldr", RegName(p), deref(p))
		if err := s.e.StoreVar(p, i.Dst, RegTmp); err != nil {
			return err
		}
		s.alloc.FreeValue(i.Src)
		return nil

	case ir.MoveArrayWrite:
		a, err := s.operandReg(i.Dst)
		if err != nil {
			return err
		}
		v, err := s.operandReg(i.Src)
		if err != nil {
			return err
		}
		s.e.Inst("str", RegName(v), deref(a))
		s.alloc.FreeValue(i.Dst)
		s.alloc.FreeValue(i.Src)
		return nil
	}
	return fmt.Errorf("bad move mode %d", i.Mode)
}

// moveScalar copies src into dst through whichever of the four
// register/memory combinations applies.
func (s *Selector) moveScalar(dst, src ir.Value) error {
	dstReg, srcReg := dst.RegID(), src.RegID()

	switch {
	case dstReg >= 0 && srcReg >= 0:
		if dstReg != srcReg {
			s.e.Inst("mov", RegName(dstReg), RegName(srcReg))
		}
		return nil

	case dstReg >= 0:
		return s.e.LoadVar(dstReg, src)

	case srcReg >= 0:
		return s.e.StoreVar(srcReg, dst, RegTmp)

	default:
		t := s.alloc.Alloc(nil)
		if t < 0 {
			t = RegTmp
		}
		if err := s.e.LoadVar(t, src); err != nil {
			return err
		}
		if err := s.e.StoreVar(t, dst, RegTmp); err != nil {
			return err
		}
		s.alloc.Free(t)
		return nil
	}
}

// operandReg makes sure a value is in a register, loading it if needed.
// The value is bound to the register only after the load, because
// LoadVar treats a bound value as already loaded.
func (s *Selector) operandReg(v ir.Value) (int, error) {
	if r := v.RegID(); r >= 0 {
		return r, nil
	}
	r := s.alloc.Alloc(nil)
	if r < 0 {
		r = RegTmp
	}
	if err := s.e.LoadVar(r, v); err != nil {
		return -1, err
	}
	if r != RegTmp {
		s.alloc.AllocReg(r, v)
	}
	return r, nil
}

func (s *Selector) binary(i *ir.BinaryInst) error {
	switch i.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		return s.twoOperand(i, i.Op.String())
	case ir.OpDiv:
		return s.twoOperand(i, "sdiv")
	case ir.OpMod:
		return s.mod(i)
	case ir.OpNeg:
		return s.neg(i)
	}
	return fmt.Errorf("bad arithmetic op %v", i.Op)
}

// twoOperand is the shared add/sub/mul/sdiv shape: load both operands,
// compute into a result register, store the result slot.
func (s *Selector) twoOperand(i *ir.BinaryInst, op string) error {
	ra, err := s.operandReg(i.A)
	if err != nil {
		return err
	}
	rb, err := s.operandReg(i.B)
	if err != nil {
		return err
	}
	rd := s.alloc.Alloc(i)
	if rd < 0 {
		rd = RegTmp
	}

	s.e.Inst(op, RegName(rd), RegName(ra), RegName(rb))

	if err := s.e.StoreVar(rd, i, RegTmp); err != nil {
		return err
	}
	s.alloc.FreeValue(i.A)
	s.alloc.FreeValue(i.B)
	s.alloc.FreeValue(i)
	return nil
}

// mod has no ARM instruction: quotient, multiply back, subtract.
func (s *Selector) mod(i *ir.BinaryInst) error {
	ra, err := s.operandReg(i.A)
	if err != nil {
		return err
	}
	rb, err := s.operandReg(i.B)
	if err != nil {
		return err
	}
	t := s.alloc.Alloc(nil)
	if t < 0 {
		t = RegTmp
	}
	rd := s.alloc.Alloc(i)
	if rd < 0 {
		rd = RegTmp
	}

	s.e.Inst("sdiv", RegName(t), RegName(ra), RegName(rb))
	s.e.Inst("mul", RegName(t), RegName(t), RegName(rb))
	s.e.Inst("sub", RegName(rd), RegName(ra), RegName(t))

	if err := s.e.StoreVar(rd, i, RegTmp); err != nil {
		return err
	}
	s.alloc.Free(t)
	s.alloc.FreeValue(i.A)
	s.alloc.FreeValue(i.B)
	s.alloc.FreeValue(i)
	return nil
}

func (s *Selector) neg(i *ir.BinaryInst) error {
	ra, err := s.operandReg(i.A)
	if err != nil {
		return err
	}
	rd := s.alloc.Alloc(i)
	if rd < 0 {
		rd = RegTmp
	}

	s.e.Inst("rsb", RegName(rd), RegName(ra), "#0")

	if err := s.e.StoreVar(rd, i, RegTmp); err != nil {
		return err
	}
	s.alloc.FreeValue(i.A)
	s.alloc.FreeValue(i)
	return nil
}

var condCodes = map[ir.CmpCond]string{
	ir.CondEq: "eq",
	ir.CondNe: "ne",
	ir.CondLt: "lt",
	ir.CondLe: "le",
	ir.CondGt: "gt",
	ir.CondGe: "ge",
}

// icmp materialises a comparison result as 0/1 in a register
func (s *Selector) icmp(i *ir.IcmpInst) error {
	ra, err := s.operandReg(i.A)
	if err != nil {
		return err
	}
	rb, err := s.operandReg(i.B)
	if err != nil {
		return err
	}
	rd := s.alloc.Alloc(i)
	if rd < 0 {
		rd = RegTmp
	}

	s.e.Inst("cmp", RegName(ra), RegName(rb))
	s.e.Inst("mov", RegName(rd), "#0")
	s.e.Inst("mov"+condCodes[i.Cond], RegName(rd), "#1")

	if err := s.e.StoreVar(rd, i, RegTmp); err != nil {
		return err
	}
	s.alloc.FreeValue(i.A)
	s.alloc.FreeValue(i.B)
	s.alloc.FreeValue(i)
	return nil
}

// fusedCompareBranch emits cmp + conditional branch without ever
// materialising the boolean.
func (s *Selector) fusedCompareBranch(icmp *ir.IcmpInst, bc *ir.BcInst) error {
	ra, err := s.operandReg(icmp.A)
	if err != nil {
		return err
	}
	rb, err := s.operandReg(icmp.B)
	if err != nil {
		return err
	}

	s.e.Inst("cmp", RegName(ra), RegName(rb))
	s.alloc.FreeValue(icmp.A)
	s.alloc.FreeValue(icmp.B)

	s.e.Inst("b"+condCodes[icmp.Cond], s.localLabel(bc.True))
	s.e.Jump(s.localLabel(bc.False))

	tlog.V("select").Printw("fused compare into branch", "func", s.fn.Name, "cond", icmp.Cond)
	return nil
}

// bc without fusion: test the materialised condition against zero
func (s *Selector) bc(i *ir.BcInst) error {
	rc, err := s.operandReg(i.Cond)
	if err != nil {
		return err
	}

	s.e.Inst("cmp", RegName(rc), "#0")
	s.e.Inst("bne", s.localLabel(i.True))
	s.e.Jump(s.localLabel(i.False))

	s.alloc.FreeValue(i.Cond)
	return nil
}

// call follows the AAPCS subset: first four arguments in r0..r3, the
// rest in the outgoing area at sp, result back from r0.
func (s *Selector) call(i *ir.CallInst) error {
	n := len(i.Args)
	if s.argCount != n {
		return fmt.Errorf("call %s: %d arg markers for %d arguments", i.Callee.Name, s.argCount, n)
	}
	s.argCount = 0

	if n > 0 {
		for r := R0; r <= R3; r++ {
			s.alloc.AllocReg(r, nil)
		}

		// Stack arguments first, then the register four
		for k := 4; k < n; k++ {
			m := s.fn.NewTempMem(i.Args[k].Type(), RegSP, (k-4)*4)
			if err := s.moveScalar(m, i.Args[k]); err != nil {
				return err
			}
		}
		for k := 0; k < n && k < 4; k++ {
			dst := ir.NewRegisterValue(k, i.Args[k].Type())
			if err := s.moveScalar(dst, i.Args[k]); err != nil {
				return err
			}
		}
	}

	s.e.Call(i.Callee.Name)

	if n > 0 {
		for r := R0; r <= R3; r++ {
			s.alloc.Free(r)
		}
	}

	if !types.IsVoid(i.Callee.RetType) {
		src := ir.NewRegisterValue(R0, i.Callee.RetType)
		if err := s.moveScalar(i, src); err != nil {
			return err
		}
	}
	return nil
}

// pushList is the ascending register set the prologue saves: the
// callee-saved registers the allocator touched, fp when there is a
// frame, lr when the function calls.
func pushList(fn *ir.Function, fr *Frame) []int {
	var regs []int
	regs = append(regs, fn.CalleeSaved...)
	if fr.Size() > 0 {
		regs = append(regs, RegFP)
	}
	if fn.HasCall {
		regs = append(regs, RegLR)
	}
	return regs
}

func regSet(regs []int) string {
	var names []string
	for _, r := range regs {
		names = append(names, RegName(r))
	}
	return "{" + strings.Join(names, ", ") + "}"
}
