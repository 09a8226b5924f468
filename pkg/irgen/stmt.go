// Statement lowering: blocks, declarations, assignment, control flow.
package irgen

import (
	"tlog.app/go/tlog"

	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/types"
)

// stmt lowers one statement subtree to an instruction list
func (g *Generator) stmt(n *ast.Node) ([]ir.Instruction, error) {
	// Computed element addresses are shared only within one statement
	clear(g.addrCache)

	switch n.Op {
	case ast.Block:
		return g.block(n)
	case ast.DeclStmt:
		return g.localDecl(n)
	case ast.Assign:
		return g.assign(n)
	case ast.Return:
		return g.ret(n)
	case ast.If:
		return g.ifStmt(n)
	case ast.IfElse:
		return g.ifElse(n)
	case ast.While:
		return g.while(n)
	case ast.Break:
		return g.breakStmt(n)
	case ast.Continue:
		return g.continueStmt(n)
	default:
		// Expression statement: evaluate for effect, discard the value
		_, code, err := g.expr(n)
		return code, err
	}
}

func (g *Generator) block(n *ast.Node) ([]ir.Instruction, error) {
	g.mod.EnterScope()
	defer g.mod.LeaveScope()

	var code []ir.Instruction
	for _, item := range n.Children {
		c, err := g.stmt(item)
		if err != nil {
			return nil, err
		}
		code = append(code, c...)
	}
	return code, nil
}

func (g *Generator) localDecl(n *ast.Node) ([]ir.Instruction, error) {
	var code []ir.Instruction
	for _, d := range n.Children {
		nameNode := d.Children[1]

		var t types.Type = types.Int()
		if d.Op == ast.ArrayDef {
			dims, err := g.constDims(d.Children[2:])
			if err != nil {
				return nil, err
			}
			for j := len(dims) - 1; j >= 0; j-- {
				t = types.Array(t, dims[j])
			}
		}

		l := g.f.NewLocal(t, nameNode.Name, g.mod.ScopeDepth())
		g.mod.Define(nameNode.Name, l)

		// Scalar initializer
		if d.Op == ast.VarDecl && len(d.Children) > 2 {
			v, c, err := g.scalarExpr(d.Children[2])
			if err != nil {
				return nil, err
			}
			code = append(code, c...)
			code = append(code, g.f.NewMove(l, v))
		}
	}
	return code, nil
}

// assign lowers "lhs = rhs". The right side is evaluated first; a
// parameter override on the left is created afterwards, so the copy it
// starts from is the parameter's incoming value.
func (g *Generator) assign(n *ast.Node) ([]ir.Instruction, error) {
	lhs, rhs := n.Children[0], n.Children[1]

	rv, code, err := g.scalarExpr(rhs)
	if err != nil {
		return nil, err
	}

	switch lhs.Op {
	case ast.LeafVarID:
		target, ok := g.mod.FindValue(lhs.Name)
		if !ok {
			return nil, g.diag(lhs.Line, Undefined, "undefined variable %s", lhs.Name)
		}
		if p, isParam := target.(*ir.FormalParam); isParam {
			shadow := g.paramOverride(p, &code)
			code = append(code, g.f.NewMove(shadow, rv))
			return code, nil
		}
		if types.IsArray(target.Type()) {
			return nil, g.diag(lhs.Line, TypeMismatch, "array %s used as a scalar", lhs.Name)
		}
		code = append(code, g.f.NewMove(target, rv))
		return code, nil

	case ast.ArrayAccess:
		addr, full, acode, err := g.arrayAddress(lhs)
		if err != nil {
			return nil, err
		}
		if !full {
			return nil, g.diag(lhs.Line, TypeMismatch, "cannot assign to a partially indexed array")
		}
		code = append(code, acode...)
		code = append(code, g.f.NewArrayWrite(addr, rv))
		return code, nil
	}

	return nil, g.diag(lhs.Line, TypeMismatch, "invalid assignment target")
}

// paramOverride returns the shadow local for an assigned-to parameter,
// creating it and emitting the initial copy on first assignment.
func (g *Generator) paramOverride(p *ir.FormalParam, code *[]ir.Instruction) *ir.Local {
	if shadow, ok := g.f.Overrides[p.Name]; ok {
		return shadow
	}
	shadow := g.f.NewLocal(p.Type(), p.Name, g.mod.ScopeDepth())
	g.f.Overrides[p.Name] = shadow
	*code = append(*code, g.f.NewMove(shadow, p))
	tlog.V("irgen").Printw("parameter override", "param", p.Name, "shadow", shadow.IRName())
	return shadow
}

func (g *Generator) ret(n *ast.Node) ([]ir.Instruction, error) {
	if len(n.Children) == 0 {
		return []ir.Instruction{g.f.NewGoto(g.f.Exit)}, nil
	}

	if types.IsVoid(g.f.RetType) {
		return nil, g.diag(n.Line, MisplacedControl, "return with a value in void function %s", g.f.Name)
	}

	v, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	code = append(code, g.f.NewMove(g.f.RetVal, v), g.f.NewGoto(g.f.Exit))
	return code, nil
}

func (g *Generator) ifStmt(n *ast.Node) ([]ir.Instruction, error) {
	cond, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, err
	}

	then := g.f.NewLabel()
	end := g.f.NewLabel()

	body, err := g.stmt(n.Children[1])
	if err != nil {
		return nil, err
	}

	code = append(code, g.f.NewBc(cond, then, end), then)
	code = append(code, body...)
	code = append(code, end)
	return code, nil
}

func (g *Generator) ifElse(n *ast.Node) ([]ir.Instruction, error) {
	cond, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, err
	}

	then := g.f.NewLabel()
	els := g.f.NewLabel()
	end := g.f.NewLabel()

	thenCode, err := g.stmt(n.Children[1])
	if err != nil {
		return nil, err
	}
	elseCode, err := g.stmt(n.Children[2])
	if err != nil {
		return nil, err
	}

	code = append(code, g.f.NewBc(cond, then, els), then)
	code = append(code, thenCode...)
	code = append(code, g.f.NewGoto(end), els)
	code = append(code, elseCode...)
	code = append(code, end)
	return code, nil
}

func (g *Generator) while(n *ast.Node) ([]ir.Instruction, error) {
	start := g.f.NewLabel()
	body := g.f.NewLabel()
	end := g.f.NewLabel()

	code := []ir.Instruction{start}

	cond, condCode, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, err
	}
	code = append(code, condCode...)
	code = append(code, g.f.NewBc(cond, body, end), body)

	g.loops = append(g.loops, loopCtx{start: start, end: end})
	wasInLoop := g.inLoopBody
	g.inLoopBody = true

	bodyCode, err := g.stmt(n.Children[1])

	g.inLoopBody = wasInLoop
	g.loops = g.loops[:len(g.loops)-1]

	if err != nil {
		return nil, err
	}

	code = append(code, bodyCode...)
	code = append(code, g.f.NewGoto(start), end)
	return code, nil
}

func (g *Generator) breakStmt(n *ast.Node) ([]ir.Instruction, error) {
	if len(g.loops) == 0 {
		return nil, g.diag(n.Line, MisplacedControl, "break outside of a loop")
	}
	return []ir.Instruction{g.f.NewGoto(g.loops[len(g.loops)-1].end)}, nil
}

func (g *Generator) continueStmt(n *ast.Node) ([]ir.Instruction, error) {
	if len(g.loops) == 0 {
		return nil, g.diag(n.Line, MisplacedControl, "continue outside of a loop")
	}
	return []ir.Instruction{g.f.NewGoto(g.loops[len(g.loops)-1].start)}, nil
}
