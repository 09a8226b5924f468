// Textual rendering of the linear IR. The output is stable and is used
// as a golden-file oracle by the tests.
package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/minic-cc/minicc/pkg/types"
)

// Printer outputs a module's IR in a readable, deterministic format
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IR printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintModule prints global declarations then every function
func (p *Printer) PrintModule(m *Module) {
	for _, g := range m.Globals {
		fmt.Fprintln(p.w, GlobalString(g))
	}
	if len(m.Globals) > 0 && len(m.Funcs) > 0 {
		fmt.Fprintln(p.w)
	}
	for i, f := range m.Funcs {
		p.PrintFunction(f)
		if i < len(m.Funcs)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// GlobalString renders a global declaration line
func GlobalString(g *Global) string {
	if a, ok := g.Type().(types.Tarray); ok {
		var b strings.Builder
		elem := types.Type(a)
		fmt.Fprintf(&b, "declare %s %s", baseElem(a), g.IRName())
		for {
			arr, ok := elem.(types.Tarray)
			if !ok {
				break
			}
			fmt.Fprintf(&b, "[%d]", arr.Count)
			elem = arr.Elem
		}
		return b.String()
	}
	return fmt.Sprintf("declare %s %s = 0", g.Type(), g.IRName())
}

// baseElem returns the scalar element type of a nested array
func baseElem(t types.Type) types.Type {
	for {
		a, ok := t.(types.Tarray)
		if !ok {
			return t
		}
		t = a.Elem
	}
}

// PrintFunction prints one function: header, instructions, footer.
// Prototypes print as a single declare line.
func (p *Printer) PrintFunction(f *Function) {
	if f.External() {
		var ptypes []string
		for _, param := range f.Params {
			ptypes = append(ptypes, param.Type().String())
		}
		fmt.Fprintf(p.w, "declare %s @%s(%s)\n", f.RetType, f.Name, strings.Join(ptypes, ", "))
		return
	}

	var params []string
	for _, param := range f.Params {
		params = append(params, fmt.Sprintf("%s %s", param.Type(), param.IRName()))
	}
	fmt.Fprintf(p.w, "define %s @%s(%s) {\n", f.RetType, f.Name, strings.Join(params, ", "))

	for _, inst := range f.Code {
		if inst.Dead() {
			continue
		}
		if l, ok := inst.(*LabelInst); ok {
			fmt.Fprintf(p.w, "%s:\n", labelName(l))
			continue
		}
		s := InstString(inst)
		if s == "" {
			continue
		}
		fmt.Fprintf(p.w, "\t%s\n", s)
	}

	fmt.Fprintln(p.w, "}")
}

// labelName returns the label text with a leading dot, adding one if absent
func labelName(l *LabelInst) string {
	name := l.IRName()
	if !strings.HasPrefix(name, ".") {
		return "." + name
	}
	return name
}

// InstString renders a single instruction without indentation. Entry
// instructions render as the empty string; the printer skips them.
func InstString(inst Instruction) string {
	switch i := inst.(type) {
	case *LabelInst:
		return labelName(i) + ":"

	case *EntryInst:
		return ""

	case *ExitInst:
		if i.Ret != nil {
			return "exit " + i.Ret.IRName()
		}
		return "exit"

	case *MoveInst:
		switch i.Mode {
		case MoveArrayWrite:
			return fmt.Sprintf("*%s = %s", i.Dst.IRName(), i.Src.IRName())
		case MoveArrayRead:
			return fmt.Sprintf("%s = *%s", i.Dst.IRName(), i.Src.IRName())
		default:
			return fmt.Sprintf("%s = %s", i.Dst.IRName(), i.Src.IRName())
		}

	case *BinaryInst:
		if i.Op == OpNeg {
			return fmt.Sprintf("%s = neg %s", i.IRName(), i.A.IRName())
		}
		return fmt.Sprintf("%s = %s %s, %s", i.IRName(), i.Op, i.A.IRName(), i.B.IRName())

	case *IcmpInst:
		return fmt.Sprintf("%s = icmp %s %s, %s", i.IRName(), i.Cond, i.A.IRName(), i.B.IRName())

	case *GotoInst:
		return fmt.Sprintf("br label %s", labelName(i.Target))

	case *BcInst:
		return fmt.Sprintf("bc %s, label %s, label %s",
			i.Cond.IRName(), labelName(i.True), labelName(i.False))

	case *CallInst:
		var args []string
		for _, a := range i.Args {
			args = append(args, a.IRName())
		}
		call := fmt.Sprintf("call %s @%s(%s)", i.Callee.RetType, i.Callee.Name, strings.Join(args, ", "))
		if i.IRName() != "" {
			return fmt.Sprintf("%s = %s", i.IRName(), call)
		}
		return call

	case *ArgInst:
		return "arg " + i.Val.IRName()
	}
	return fmt.Sprintf("inst?(%T)", inst)
}
