package arm32

import (
	"tlog.app/go/tlog"

	"github.com/minic-cc/minicc/pkg/ir"
)

// Generate translates a whole module to an ARM32 assembly listing.
// showIR interleaves the source IR as comments.
//
// Selection runs twice per function: a discovery pass over a throwaway
// buffer records which callee-saved registers the allocator hands out,
// which fixes the prologue's push list and with it the incoming stack
// argument offsets; the second pass emits the real text.
func Generate(m *ir.Module, showIR bool) (string, error) {
	e := NewEmitter()

	EmitGlobals(e, m.Globals)
	e.Directive(".text")

	for _, f := range m.Funcs {
		if f.External() {
			continue
		}

		probe := NewSelector(f, NewEmitter(), false)
		if err := probe.Run(NewFrame(f, 0)); err != nil {
			return "", err
		}
		f.CalleeSaved = probe.UsedRegs()

		sizing := NewFrame(f, 0)
		pushed := pushList(f, sizing)
		fr := NewFrame(f, len(pushed))

		tlog.V("select").Printw("function frame", "name", f.Name,
			"size", fr.Size(), "saved", len(pushed))

		e.Directive(".align\t2")
		e.Directive(".global\t%s", f.Name)
		e.Directive(".type\t%s, %%function", f.Name)
		e.Label(f.Name)

		sel := NewSelector(f, e, showIR)
		if err := sel.Run(fr); err != nil {
			return "", err
		}
	}

	return e.String(), nil
}
