package arm32

import (
	"github.com/minic-cc/minicc/pkg/ir"
)

// EmitGlobals renders the data section for the module's globals. All
// MiniC globals are zero-initialised, so they live in .bss as reserved,
// 4-byte-aligned storage.
func EmitGlobals(e *Emitter, globals []*ir.Global) {
	if len(globals) == 0 {
		return
	}
	e.Directive(".bss")
	for _, g := range globals {
		size := g.Type().Size()
		if size < 4 {
			size = 4
		}
		e.Directive(".align\t2")
		e.Directive(".global\t%s", g.Name)
		e.Label(g.Name)
		e.Directive(".space\t%d", size)
	}
}
