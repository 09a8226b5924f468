package parser

import (
	"testing"

	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/lexer"
)

func parse(t *testing.T, src string) *ast.Node {
	t.Helper()
	p := New(lexer.New(src))
	unit := p.ParseCompileUnit()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return unit
}

func TestEmptyMain(t *testing.T) {
	unit := parse(t, "int main() { return 0; }")
	if len(unit.Children) != 1 {
		t.Fatalf("expected 1 top-level node, got %d", len(unit.Children))
	}
	fn := unit.Children[0]
	if fn.Op != ast.FuncDef {
		t.Fatalf("expected func-def, got %s", fn.Op)
	}
	if fn.Children[1].Name != "main" {
		t.Errorf("function name = %q", fn.Children[1].Name)
	}
	if fn.Children[0].Type != ast.TypeInt {
		t.Errorf("return type = %s", fn.Children[0].Type)
	}
}

func TestFormalParams(t *testing.T) {
	unit := parse(t, "int f(int a, int b[], int c[][4]) { return a; }")
	params := unit.Children[0].Children[2]
	if params.Op != ast.FuncFormalParams || len(params.Children) != 3 {
		t.Fatalf("bad params node: %s with %d children", params.Op, len(params.Children))
	}

	b := params.Children[1]
	if len(b.Children) != 3 || b.Children[2].Value != 0 {
		t.Errorf("b[] should carry a zero first dimension")
	}

	c := params.Children[2]
	if len(c.Children) != 4 || c.Children[3].Value != 4 {
		t.Errorf("c[][4] dimensions wrong: %v", c.Children)
	}
}

func TestPrototype(t *testing.T) {
	unit := parse(t, "int h(int, int, int, int, int, int);")
	fn := unit.Children[0]
	if fn.Op != ast.FuncDef || len(fn.Children) != 3 {
		t.Fatalf("prototype should have 3 children, got %d", len(fn.Children))
	}
	if len(fn.Children[2].Children) != 6 {
		t.Errorf("expected 6 unnamed params, got %d", len(fn.Children[2].Children))
	}
}

func TestPrecedence(t *testing.T) {
	unit := parse(t, "int f() { return 1 + 2 * 3; }")
	ret := unit.Children[0].Children[3].Children[0]
	if ret.Op != ast.Return {
		t.Fatalf("expected return, got %s", ret.Op)
	}
	add := ret.Children[0]
	if add.Op != ast.Add {
		t.Fatalf("top operator should be add, got %s", add.Op)
	}
	if add.Children[1].Op != ast.Mul {
		t.Errorf("right operand should be mul, got %s", add.Children[1].Op)
	}
}

func TestLogicalPrecedence(t *testing.T) {
	unit := parse(t, "int f(int a, int b) { return a == 1 && b || a; }")
	or := unit.Children[0].Children[3].Children[0].Children[0]
	if or.Op != ast.LogicalOr {
		t.Fatalf("top operator should be or, got %s", or.Op)
	}
	if or.Children[0].Op != ast.LogicalAnd {
		t.Errorf("left of or should be and, got %s", or.Children[0].Op)
	}
	if or.Children[0].Children[0].Op != ast.Eq {
		t.Errorf("left of and should be eq, got %s", or.Children[0].Children[0].Op)
	}
}

func TestIfElseWhile(t *testing.T) {
	unit := parse(t, `int f(int n) {
	while (n > 0) {
		if (n == 1) break;
		else n = n - 1;
		continue;
	}
	return n;
}`)
	body := unit.Children[0].Children[3]
	w := body.Children[0]
	if w.Op != ast.While {
		t.Fatalf("expected while, got %s", w.Op)
	}
	inner := w.Children[1]
	if inner.Children[0].Op != ast.IfElse {
		t.Errorf("expected if-else, got %s", inner.Children[0].Op)
	}
	if inner.Children[1].Op != ast.Continue {
		t.Errorf("expected continue, got %s", inner.Children[1].Op)
	}
}

func TestArrayAccessAndCall(t *testing.T) {
	unit := parse(t, "int g(int i) { return a[i][2] + f(i, 3); }")
	add := unit.Children[0].Children[3].Children[0].Children[0]
	acc := add.Children[0]
	if acc.Op != ast.ArrayAccess || len(acc.Children) != 3 {
		t.Fatalf("bad array access: %s/%d", acc.Op, len(acc.Children))
	}
	call := add.Children[1]
	if call.Op != ast.FuncCall {
		t.Fatalf("expected call, got %s", call.Op)
	}
	if len(call.Children[1].Children) != 2 {
		t.Errorf("expected 2 call args, got %d", len(call.Children[1].Children))
	}
}

func TestDeclarations(t *testing.T) {
	unit := parse(t, `int g;
int a[3][4];
int f() { int x = 1, y; return x; }`)
	if len(unit.Children) != 3 {
		t.Fatalf("expected 3 top-level nodes, got %d", len(unit.Children))
	}
	arr := unit.Children[1].Children[0]
	if arr.Op != ast.ArrayDef || len(arr.Children) != 4 {
		t.Fatalf("bad array-def: %s/%d", arr.Op, len(arr.Children))
	}
	decl := unit.Children[2].Children[3].Children[0]
	if decl.Op != ast.DeclStmt || len(decl.Children) != 2 {
		t.Fatalf("bad local decl: %s/%d", decl.Op, len(decl.Children))
	}
	if len(decl.Children[0].Children) != 3 {
		t.Errorf("x should carry an initializer")
	}
}

func TestLiteralRadix(t *testing.T) {
	unit := parse(t, "int f() { return 0x10 + 010 + 10; }")
	outer := unit.Children[0].Children[3].Children[0].Children[0]
	inner := outer.Children[0]
	hex := inner.Children[0]
	oct := inner.Children[1]
	dec := outer.Children[1]
	if hex.Value != 16 || hex.Radix != 16 {
		t.Errorf("hex literal: value %d radix %d", hex.Value, hex.Radix)
	}
	if oct.Value != 8 || oct.Radix != 8 {
		t.Errorf("octal literal: value %d radix %d", oct.Value, oct.Radix)
	}
	if dec.Value != 10 || dec.Radix != 10 {
		t.Errorf("decimal literal: value %d radix %d", dec.Value, dec.Radix)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"int f( { return 0; }",
		"int f() { return 0 }",
		"int f() { 1 = 2; }",
		"int f() { if return; }",
	}
	for _, src := range tests {
		p := New(lexer.New(src))
		p.ParseCompileUnit()
		if len(p.Errors()) == 0 {
			t.Errorf("expected errors for %q", src)
		}
	}
}
