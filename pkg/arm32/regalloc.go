package arm32

import (
	"sort"

	"github.com/minic-cc/minicc/pkg/ir"
)

// Allocator hands out scratch registers one instruction at a time.
// There is no lookahead: the selector frees a register as soon as the
// instruction that used it has been emitted. A side map records which
// Value currently occupies each register so the binding can be undone.
type Allocator struct {
	free map[int]bool
	held map[int]ir.Value

	// used accumulates every callee-saved register ever handed out,
	// so the prologue knows what to protect.
	used map[int]bool
}

// NewAllocator creates an allocator with the full scratch pool free
func NewAllocator() *Allocator {
	a := &Allocator{
		free: make(map[int]bool),
		held: make(map[int]ir.Value),
		used: make(map[int]bool),
	}
	for _, r := range allocatable {
		a.free[r] = true
	}
	return a
}

// Alloc grabs a free scratch register, optionally binding it to v.
// Returns -1 when the pool is exhausted; the caller then falls back to
// the reserved temporary for a single instruction.
func (a *Allocator) Alloc(v ir.Value) int {
	for _, r := range allocatable {
		if a.free[r] {
			a.free[r] = false
			a.used[r] = true
			if v != nil {
				a.held[r] = v
				v.SetRegID(r)
			}
			return r
		}
	}
	return -1
}

// AllocReg forcibly takes a specific register (r0..r3 at call sites)
func (a *Allocator) AllocReg(no int, v ir.Value) {
	delete(a.free, no)
	if v != nil {
		a.held[no] = v
		v.SetRegID(no)
	}
}

// Free releases a register and clears any value binding
func (a *Allocator) Free(no int) {
	if no < 0 {
		return
	}
	if v, ok := a.held[no]; ok {
		v.SetRegID(ir.NoReg)
		delete(a.held, no)
	}
	for _, r := range allocatable {
		if r == no {
			a.free[no] = true
			return
		}
	}
	// r0..r3 simply drop out of the held map
}

// FreeValue releases whatever register currently holds v
func (a *Allocator) FreeValue(v ir.Value) {
	if v == nil {
		return
	}
	if r := v.RegID(); r != ir.NoReg {
		if _, fixed := v.(*ir.RegisterValue); fixed {
			return
		}
		a.Free(r)
	}
}

// Used returns the callee-saved registers handed out so far, ascending
func (a *Allocator) Used() []int {
	var regs []int
	for r := range a.used {
		regs = append(regs, r)
	}
	sort.Ints(regs)
	return regs
}
