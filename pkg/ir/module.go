package ir

import (
	"fmt"

	"github.com/minic-cc/minicc/pkg/types"
)

// Module owns the functions, globals and the constant pool of one
// translation unit, plus the scope stack used during lowering.
type Module struct {
	Funcs   []*Function
	Globals []*Global

	funcsByName   map[string]*Function
	globalsByName map[string]*Global
	consts        map[int32]*ConstInt

	scopes *ScopeStack
	cur    *Function
}

// NewModule creates an empty module
func NewModule() *Module {
	return &Module{
		funcsByName:   make(map[string]*Function),
		globalsByName: make(map[string]*Global),
		consts:        make(map[int32]*ConstInt),
		scopes:        NewScopeStack(),
	}
}

// NewFunction creates a function, failing on redefinition
func (m *Module) NewFunction(name string, ret types.Type) (*Function, error) {
	if _, exists := m.funcsByName[name]; exists {
		return nil, fmt.Errorf("function %s redefined", name)
	}
	f := NewFunction(name, ret)
	m.funcsByName[name] = f
	m.Funcs = append(m.Funcs, f)
	return f, nil
}

// FindFunction looks a function up by name
func (m *Module) FindFunction(name string) (*Function, bool) {
	f, ok := m.funcsByName[name]
	return f, ok
}

// RemoveFunction discards a function whose lowering failed, so the rest
// of the unit can still be translated.
func (m *Module) RemoveFunction(f *Function) {
	delete(m.funcsByName, f.Name)
	for i, g := range m.Funcs {
		if g == f {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			return
		}
	}
}

// NewGlobal creates a zero-initialised global variable
func (m *Module) NewGlobal(t types.Type, name string) (*Global, error) {
	if _, exists := m.globalsByName[name]; exists {
		return nil, fmt.Errorf("global %s redefined", name)
	}
	g := &Global{valueBase: newValueBase("@"+name, t), Name: name, InitZero: true}
	m.globalsByName[name] = g
	m.Globals = append(m.Globals, g)
	return g, nil
}

// NewConst interns an integer constant
func (m *Module) NewConst(v int32) *ConstInt {
	if c, ok := m.consts[v]; ok {
		return c
	}
	c := newConstInt(v)
	m.consts[v] = c
	return c
}

// SetCurrent makes f the function being lowered
func (m *Module) SetCurrent(f *Function) {
	m.cur = f
}

// Current returns the function being lowered
func (m *Module) Current() *Function {
	return m.cur
}

// EnterScope pushes a lexical scope
func (m *Module) EnterScope() {
	m.scopes.Push()
}

// LeaveScope pops the innermost scope
func (m *Module) LeaveScope() {
	m.scopes.Pop()
}

// ScopeDepth returns the current lexical nesting depth
func (m *Module) ScopeDepth() int {
	return m.scopes.Depth()
}

// Define binds a name in the innermost scope
func (m *Module) Define(name string, v Value) {
	m.scopes.Define(name, v)
}

// DefinedInCurrentScope reports whether name is bound in the innermost scope
func (m *Module) DefinedInCurrentScope(name string) bool {
	return m.scopes.DefinedInTop(name)
}

// FindValue resolves a name: the current function's parameter overrides
// win, then the scope stack innermost-first, then globals.
func (m *Module) FindValue(name string) (Value, bool) {
	if m.cur != nil {
		if l, ok := m.cur.Overrides[name]; ok {
			return l, true
		}
	}
	if v, ok := m.scopes.Lookup(name); ok {
		return v, true
	}
	if g, ok := m.globalsByName[name]; ok {
		return g, true
	}
	return nil, false
}
