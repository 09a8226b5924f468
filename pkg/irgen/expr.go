// Expression lowering. Binary operands evaluate left then right; the
// value of a subtree is the Value its last defining instruction yields.
package irgen

import (
	"strings"

	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/ir"
	"github.com/minic-cc/minicc/pkg/types"
)

var binOps = map[ast.Op]ir.BinOp{
	ast.Add: ir.OpAdd,
	ast.Sub: ir.OpSub,
	ast.Mul: ir.OpMul,
	ast.Div: ir.OpDiv,
	ast.Mod: ir.OpMod,
}

var cmpConds = map[ast.Op]ir.CmpCond{
	ast.Lt: ir.CondLt,
	ast.Le: ir.CondLe,
	ast.Gt: ir.CondGt,
	ast.Ge: ir.CondGe,
	ast.Eq: ir.CondEq,
	ast.Ne: ir.CondNe,
}

// expr lowers an expression subtree
func (g *Generator) expr(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	switch n.Op {
	case ast.LeafLiteralUint:
		return g.mod.NewConst(int32(n.Value)), nil, nil

	case ast.LeafVarID:
		v, ok := g.mod.FindValue(n.Name)
		if !ok {
			return nil, nil, g.diag(n.Line, Undefined, "undefined variable %s", n.Name)
		}
		return v, nil, nil

	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		return g.binary(n, binOps[n.Op])

	case ast.Neg:
		v, code, err := g.scalarExpr(n.Children[0])
		if err != nil {
			return nil, nil, err
		}
		inst := g.f.NewBinary(ir.OpNeg, v, nil)
		return inst, append(code, inst), nil

	case ast.Lt, ast.Le, ast.Gt, ast.Ge, ast.Eq, ast.Ne:
		return g.compare(n, cmpConds[n.Op])

	case ast.LogicalAnd:
		return g.logicalAnd(n)

	case ast.LogicalOr:
		return g.logicalOr(n)

	case ast.LogicalNot:
		return g.logicalNot(n)

	case ast.FuncCall:
		return g.call(n)

	case ast.ArrayAccess:
		return g.arrayRead(n)
	}

	return nil, nil, g.diag(n.Line, TypeMismatch, "unsupported expression")
}

// scalarExpr lowers an expression and requires a scalar result
func (g *Generator) scalarExpr(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	v, code, err := g.expr(n)
	if err != nil {
		return nil, nil, err
	}
	if v == nil || types.IsVoid(v.Type()) {
		return nil, nil, g.diag(n.Line, TypeMismatch, "void value used in expression")
	}
	if types.IsArray(v.Type()) {
		return nil, nil, g.diag(n.Line, TypeMismatch, "array used as a scalar")
	}
	return v, code, nil
}

func (g *Generator) binary(n *ast.Node, op ir.BinOp) (ir.Value, []ir.Instruction, error) {
	a, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	b, bcode, err := g.scalarExpr(n.Children[1])
	if err != nil {
		return nil, nil, err
	}
	inst := g.f.NewBinary(op, a, b)
	code = append(code, bcode...)
	code = append(code, inst)
	return inst, code, nil
}

func (g *Generator) compare(n *ast.Node, cond ir.CmpCond) (ir.Value, []ir.Instruction, error) {
	a, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	b, bcode, err := g.scalarExpr(n.Children[1])
	if err != nil {
		return nil, nil, err
	}
	inst := g.f.NewIcmp(cond, a, b)
	code = append(code, bcode...)
	code = append(code, inst)
	return inst, code, nil
}

// logicalAnd lowers "a && b" with short-circuit branches into an i32
// result temporary: the right operand's instructions are only reached
// when the left operand is nonzero.
func (g *Generator) logicalAnd(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	r := g.f.NewTemp(types.Int())

	second := g.f.NewLabel()
	truL := g.f.NewLabel()
	falL := g.f.NewLabel()
	end := g.f.NewLabel()

	a, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	cmpA := g.f.NewIcmp(ir.CondNe, a, g.mod.NewConst(0))
	code = append(code, cmpA, g.f.NewBc(cmpA, second, falL), second)

	b, bcode, err := g.scalarExpr(n.Children[1])
	if err != nil {
		return nil, nil, err
	}
	cmpB := g.f.NewIcmp(ir.CondNe, b, g.mod.NewConst(0))
	code = append(code, bcode...)
	code = append(code, cmpB, g.f.NewBc(cmpB, truL, falL))

	code = append(code,
		truL, g.f.NewMove(r, g.mod.NewConst(1)), g.f.NewGoto(end),
		falL, g.f.NewMove(r, g.mod.NewConst(0)),
		end)
	return r, code, nil
}

// logicalOr is the symmetric form: the right operand evaluates only
// when the left operand is zero.
func (g *Generator) logicalOr(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	r := g.f.NewTemp(types.Int())

	second := g.f.NewLabel()
	truL := g.f.NewLabel()
	falL := g.f.NewLabel()
	end := g.f.NewLabel()

	a, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	cmpA := g.f.NewIcmp(ir.CondNe, a, g.mod.NewConst(0))
	code = append(code, cmpA, g.f.NewBc(cmpA, truL, second), second)

	b, bcode, err := g.scalarExpr(n.Children[1])
	if err != nil {
		return nil, nil, err
	}
	cmpB := g.f.NewIcmp(ir.CondNe, b, g.mod.NewConst(0))
	code = append(code, bcode...)
	code = append(code, cmpB, g.f.NewBc(cmpB, truL, falL))

	code = append(code,
		truL, g.f.NewMove(r, g.mod.NewConst(1)), g.f.NewGoto(end),
		falL, g.f.NewMove(r, g.mod.NewConst(0)),
		end)
	return r, code, nil
}

// logicalNot lowers "!x" to an eq-zero compare plus a widening move
func (g *Generator) logicalNot(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	v, code, err := g.scalarExpr(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	cmp := g.f.NewIcmp(ir.CondEq, v, g.mod.NewConst(0))
	wide := g.f.NewTemp(types.Int())
	code = append(code, cmp, g.f.NewMove(wide, cmp))
	return wide, code, nil
}

// call lowers a function call: arguments in source order, one Arg marker
// per argument, then the Call itself.
func (g *Generator) call(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	nameNode, argsNode := n.Children[0], n.Children[1]

	callee, ok := g.mod.FindFunction(nameNode.Name)
	if !ok {
		return nil, nil, g.diag(nameNode.Line, Undefined, "undefined function %s", nameNode.Name)
	}
	if len(argsNode.Children) != len(callee.Params) {
		return nil, nil, g.diag(n.Line, ArityMismatch,
			"%s expects %d arguments, got %d", callee.Name, len(callee.Params), len(argsNode.Children))
	}

	var code []ir.Instruction
	args := make([]ir.Value, 0, len(argsNode.Children))
	for i, an := range argsNode.Children {
		v, c, err := g.expr(an)
		if err != nil {
			return nil, nil, err
		}
		if v == nil || types.IsVoid(v.Type()) {
			return nil, nil, g.diag(an.Line, TypeMismatch, "void value passed to %s", callee.Name)
		}
		param := callee.Params[i]
		if types.IsArray(param.Type()) != types.IsArray(v.Type()) {
			return nil, nil, g.diag(an.Line, TypeMismatch,
				"argument %d of %s: array/scalar mismatch", i+1, callee.Name)
		}
		code = append(code, c...)
		args = append(args, v)
	}

	for i, v := range args {
		code = append(code, g.f.NewArg(v, i))
	}

	inst := g.f.NewCall(callee, args)
	code = append(code, inst)
	g.f.RecordCall(len(args))
	return inst, code, nil
}

// arrayRead lowers an array access in a value position. A fully indexed
// access loads the element through its computed address; a partial
// access yields the address itself, typed as a decayed array pointer.
func (g *Generator) arrayRead(n *ast.Node) (ir.Value, []ir.Instruction, error) {
	addr, full, code, err := g.arrayAddress(n)
	if err != nil {
		return nil, nil, err
	}
	if !full {
		return addr, code, nil
	}
	t := g.f.NewTemp(types.Int())
	code = append(code, g.f.NewArrayRead(t, addr))
	return t, code, nil
}

// arrayAddress computes the element address for an access a[i1]...[ik].
// Returns the address value and whether the access covers every
// dimension. The linear index is built with explicit multiply/add
// instructions; the byte offset scales by the 4-byte element size.
func (g *Generator) arrayAddress(n *ast.Node) (ir.Value, bool, []ir.Instruction, error) {
	baseNode := n.Children[0]
	idxNodes := n.Children[1:]

	base, ok := g.mod.FindValue(baseNode.Name)
	if !ok {
		return nil, false, nil, g.diag(baseNode.Line, Undefined, "undefined variable %s", baseNode.Name)
	}
	arrType, isArr := base.Type().(types.Tarray)
	if !isArr {
		return nil, false, nil, g.diag(baseNode.Line, TypeMismatch, "%s is not an array", baseNode.Name)
	}

	dims := types.Dims(arrType)
	k := len(idxNodes)
	if k > len(dims) {
		return nil, false, nil, g.diag(baseNode.Line, TypeMismatch,
			"%s has %d dimensions, %d indices given", baseNode.Name, len(dims), k)
	}
	full := k == len(dims)

	var code []ir.Instruction
	idx := make([]ir.Value, k)
	for i, in := range idxNodes {
		v, c, err := g.scalarExpr(in)
		if err != nil {
			return nil, false, nil, err
		}
		code = append(code, c...)
		idx[i] = v
	}

	// Reuse an address already computed in this statement, unless inside
	// a loop body where index variables may have changed since.
	key := addrKey(baseNode.Name, idx)
	if !g.inLoopBody {
		if cached, ok := g.addrCache[key]; ok {
			return cached, full, code, nil
		}
	}

	// Horner evaluation of the linear element index
	linear := idx[0]
	for j := 1; j < k; j++ {
		mul := g.f.NewBinary(ir.OpMul, linear, g.mod.NewConst(int32(dims[j])))
		add := g.f.NewBinary(ir.OpAdd, mul, idx[j])
		code = append(code, mul, add)
		linear = add
	}

	// A partial access addresses a whole subarray
	stride := 1
	for _, d := range dims[k:] {
		stride *= d
	}
	if stride != 1 {
		mul := g.f.NewBinary(ir.OpMul, linear, g.mod.NewConst(int32(stride)))
		code = append(code, mul)
		linear = mul
	}

	bytes := g.f.NewBinary(ir.OpMul, linear, g.mod.NewConst(4))
	code = append(code, bytes)

	addr := g.f.NewAddress(base, bytes, addressType(arrType, k))
	code = append(code, addr)

	if !g.inLoopBody {
		g.addrCache[key] = addr
	}
	return addr, full, code, nil
}

// addressType is the type of the address computed after descending k of
// the array's dimensions: an element pointer for a full access, the
// decayed form of the remaining subarray otherwise.
func addressType(t types.Tarray, k int) types.Type {
	var cur types.Type = t
	for i := 0; i < k; i++ {
		cur = cur.(types.Tarray).Elem
	}
	if rem, ok := cur.(types.Tarray); ok {
		return types.ArrayParam(rem.Elem)
	}
	return types.Pointer(cur)
}

func addrKey(base string, idx []ir.Value) string {
	var b strings.Builder
	b.WriteString(base)
	for _, v := range idx {
		b.WriteByte(',')
		b.WriteString(v.IRName())
	}
	return b.String()
}
