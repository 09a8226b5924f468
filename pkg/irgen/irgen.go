// Package irgen lowers the MiniC AST into the linear IR: one pass over
// the tree, appending typed instructions to the current function.
package irgen

import (
	"tlog.app/go/tlog"

	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/types"
)

// loopCtx is one entry of the break/continue label stack
type loopCtx struct {
	start *ir.LabelInst
	end   *ir.LabelInst
}

// Generator lowers one translation unit. The state is explicit
// pass-through: current function, loop-label stack, in-loop flag for the
// array address cache, and the collected diagnostics.
type Generator struct {
	mod *ir.Module
	f   *ir.Function

	loops      []loopCtx
	inLoopBody bool

	// addrCache reuses a computed element address within one statement.
	// Keyed by base name and index operand names; disabled inside loop
	// bodies so every evaluation re-emits its address arithmetic.
	addrCache map[string]ir.Value

	diags []Diagnostic
}

// New creates a Generator over a fresh module
func New() *Generator {
	return &Generator{
		mod:       ir.NewModule(),
		addrCache: make(map[string]ir.Value),
	}
}

// Run lowers a compile unit. The returned module contains every function
// that lowered cleanly; diagnostics describe the ones that did not.
func (g *Generator) Run(unit *ast.Node) (*ir.Module, []Diagnostic) {
	g.mod.EnterScope() // file scope

	for _, child := range unit.Children {
		switch child.Op {
		case ast.FuncDef:
			g.lowerFuncDef(child)
		case ast.DeclStmt:
			g.lowerGlobalDecl(child)
		}
	}

	g.mod.LeaveScope()
	return g.mod, g.diags
}

func (g *Generator) report(err error) {
	if d, ok := err.(Diagnostic); ok {
		g.diags = append(g.diags, d)
		return
	}
	g.diags = append(g.diags, Diagnostic{Msg: err.Error()})
}

// lowerFuncDef lowers one function definition or prototype. A diagnostic
// discards the function's IR but leaves the rest of the unit translatable.
func (g *Generator) lowerFuncDef(n *ast.Node) {
	retNode, nameNode, paramsNode := n.Children[0], n.Children[1], n.Children[2]
	var bodyNode *ast.Node
	if len(n.Children) > 3 {
		bodyNode = n.Children[3]
	}

	ret := types.Type(types.Int())
	if retNode.Type == ast.TypeVoid {
		ret = types.Void()
	}

	// A prototype may be followed by its definition
	if prev, ok := g.mod.FindFunction(nameNode.Name); ok && prev.External() && bodyNode != nil {
		g.mod.RemoveFunction(prev)
	}

	f, err := g.mod.NewFunction(nameNode.Name, ret)
	if err != nil {
		g.report(g.diag(nameNode.Line, Redefinition, "function %s already defined", nameNode.Name))
		return
	}

	tlog.V("irgen").Printw("lower function", "name", nameNode.Name, "ret", ret)

	g.f = f
	g.mod.SetCurrent(f)
	g.mod.EnterScope()
	defer func() {
		g.mod.LeaveScope()
		g.mod.SetCurrent(nil)
		g.f = nil
	}()

	if err := g.declareParams(f, paramsNode); err != nil {
		g.report(err)
		g.mod.RemoveFunction(f)
		return
	}

	// A prototype contributes only its signature
	if bodyNode == nil {
		return
	}

	f.Entry = f.NewLabel()
	f.Exit = f.NewLabel()
	if !types.IsVoid(ret) {
		f.RetVal = f.NewTemp(types.Int())
	}

	f.Append(f.NewEntry(), f.Entry)

	body, err := g.stmt(bodyNode)
	if err != nil {
		g.report(err)
		g.mod.RemoveFunction(f)
		return
	}

	f.Append(body...)
	f.Append(f.Exit, f.NewExit(f.RetVal))
}

// declareParams creates the formal parameters, decaying array parameters
// to pointer types at definition time.
func (g *Generator) declareParams(f *ir.Function, params *ast.Node) error {
	for _, pn := range params.Children {
		nameNode := pn.Children[1]
		dims := pn.Children[2:]

		t := types.Type(types.Int())
		if len(dims) > 0 {
			// Inner dimensions must be constant; the first (normally the
			// empty bracket recorded as 0) is dropped by the decay.
			inner, err := g.constDims(dims[1:])
			if err != nil {
				return err
			}
			for j := len(inner) - 1; j >= 0; j-- {
				t = types.Array(t, inner[j])
			}
			t = types.ArrayParam(t)
		}

		p := f.NewParam(t, nameNode.Name)
		if nameNode.Name != "" {
			g.mod.Define(nameNode.Name, p)
		}
	}
	return nil
}

// constDims evaluates declaration dimensions, which must be positive
// integer literals.
func (g *Generator) constDims(dims []*ast.Node) ([]int, error) {
	out := make([]int, 0, len(dims))
	for _, d := range dims {
		if d.Op != ast.LeafLiteralUint {
			return nil, g.diag(d.Line, ArrayShape, "array dimension must be a constant")
		}
		if d.Value <= 0 {
			return nil, g.diag(d.Line, ArrayShape, "array dimension must be positive")
		}
		out = append(out, int(d.Value))
	}
	return out, nil
}

// lowerGlobalDecl lowers one file-scope declaration statement
func (g *Generator) lowerGlobalDecl(n *ast.Node) {
	for _, d := range n.Children {
		if err := g.globalVar(d); err != nil {
			g.report(err)
		}
	}
}

func (g *Generator) globalVar(d *ast.Node) error {
	nameNode := d.Children[1]

	var t types.Type = types.Int()
	if d.Op == ast.ArrayDef {
		dims, err := g.constDims(d.Children[2:])
		if err != nil {
			return err
		}
		for j := len(dims) - 1; j >= 0; j-- {
			t = types.Array(t, dims[j])
		}
	} else if len(d.Children) > 2 {
		init := d.Children[2]
		if init.Op != ast.LeafLiteralUint || init.Value != 0 {
			return g.diag(init.Line, TypeMismatch, "global %s: only zero initializers are supported", nameNode.Name)
		}
	}

	gv, err := g.mod.NewGlobal(t, nameNode.Name)
	if err != nil {
		return g.diag(nameNode.Line, Redefinition, "global %s already defined", nameNode.Name)
	}
	g.mod.Define(nameNode.Name, gv)
	return nil
}
