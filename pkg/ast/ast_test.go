package ast

import (
	"bytes"
	"strings"
	"testing"
)

func TestTreeConstruction(t *testing.T) {
	fn := New(FuncDef, 1,
		NewType(TypeInt, 1),
		NewIdent("main", 1),
		New(FuncFormalParams, 1),
		New(Block, 1, New(Return, 2, NewLiteral(0, 10, 2))))

	if len(fn.Children) != 4 {
		t.Fatalf("expected 4 children, got %d", len(fn.Children))
	}
	ret := fn.Children[3].Children[0]
	if ret.Op != Return || ret.Line != 2 {
		t.Errorf("bad return node: %s line %d", ret.Op, ret.Line)
	}
}

func TestOpNames(t *testing.T) {
	if CompileUnit.String() != "compile-unit" {
		t.Errorf("CompileUnit prints %q", CompileUnit)
	}
	if LogicalAnd.String() != "and" {
		t.Errorf("LogicalAnd prints %q", LogicalAnd)
	}
	if Op(999).String() != "op?" {
		t.Errorf("unknown op prints %q", Op(999))
	}
}

func TestPrinterRadix(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintTree(New(Block, 1,
		NewLiteral(42, 10, 1),
		NewLiteral(42, 16, 1),
		NewLiteral(42, 8, 1)))

	out := buf.String()
	for _, want := range []string{"literal 42", "literal 0x2a", "literal 052"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrinterIndent(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintTree(New(Block, 1, New(Return, 1)))
	if !strings.Contains(buf.String(), "\n  return") {
		t.Errorf("children should be indented:\n%s", buf.String())
	}
}
