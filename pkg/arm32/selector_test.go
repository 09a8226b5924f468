package arm32

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-cc/minicc/pkg/irgen"
	"github.com/minic-cc/minicc/pkg/lexer"
	"github.com/minic-cc/minicc/pkg/parser"
)

// compileASM runs the whole pipeline on a source fragment
func compileASM(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(lexer.New(src))
	unit := p.ParseCompileUnit()
	require.Empty(t, p.Errors())

	mod, diags := irgen.New().Run(unit)
	require.Empty(t, diags)

	asm, err := Generate(mod, false)
	require.NoError(t, err)
	return asm
}

func TestReturnConstant(t *testing.T) {
	asm := compileASM(t, "int main() { return 0; }")

	assert.Contains(t, asm, "\t.global\tmain\n")
	assert.Contains(t, asm, "main:\n")
	assert.Contains(t, asm, "\tmov\tr4, #0\n")
	assert.Contains(t, asm, "\tmov\tsp, fp\n")
	assert.Contains(t, asm, "\tbx\tlr\n")

	// sp restore comes after the r0 load, before the return
	load := strings.Index(asm, "ldr\tr0")
	restore := strings.Index(asm, "mov\tsp, fp")
	ret := strings.Index(asm, "bx\tlr")
	assert.True(t, load < restore && restore < ret, asm)
}

func TestPrologueEpiloguePairing(t *testing.T) {
	asm := compileASM(t, "int f(int x) { return x + 1; }")

	pushes := strings.Count(asm, "\tpush\t")
	pops := strings.Count(asm, "\tpop\t")
	assert.Equal(t, pushes, pops)

	// fp idiom: frame set up against fp, torn down by restoring sp
	assert.Contains(t, asm, "\tmov\tfp, sp\n")
	assert.Contains(t, asm, "\tsub\tsp, sp, #")
	assert.Contains(t, asm, "\tmov\tsp, fp\n")
}

// Compare/branch fusion: one cmp, one conditional branch, one
// unconditional branch, and no boolean materialisation.
func TestCompareBranchFusion(t *testing.T) {
	asm := compileASM(t, "int f(int x) { if (x < 0) return -x; else return x; }")

	assert.Equal(t, 1, strings.Count(asm, "\tcmp\t"), asm)
	assert.Equal(t, 1, strings.Count(asm, "\tblt\t"), asm)
	assert.Contains(t, asm, "\tblt\t.Lf_3\n")
	assert.Contains(t, asm, "\tb\t.Lf_4\n")
	assert.NotContains(t, asm, "movlt")
	assert.Contains(t, asm, "\trsb\t", "negation uses rsb")
}

// Without a consuming branch the comparison materialises 0/1
func TestCompareMaterialisation(t *testing.T) {
	asm := compileASM(t, "int f(int a, int b) { return a < b; }")

	assert.Contains(t, asm, "\tmov\tr6, #0\n")
	assert.Contains(t, asm, "\tmovlt\tr6, #1\n")
}

func TestConditionWithoutCompare(t *testing.T) {
	asm := compileASM(t, "int f(int x) { while (x) { x = x - 1; } return x; }")

	// bc on a plain value tests it against zero
	assert.Contains(t, asm, "\tcmp\tr4, #0\n")
	assert.Contains(t, asm, "\tbne\t.Lf_4\n")
	assert.Contains(t, asm, "\tb\t.Lf_5\n")
}

func TestDivModSelection(t *testing.T) {
	asm := compileASM(t, "int f(int a, int b) { return a / b + a % b; }")

	assert.Equal(t, 2, strings.Count(asm, "\tsdiv\t"), asm)
	// mod = quotient, multiply back, subtract
	assert.Contains(t, asm, "\tmul\t")
	assert.Contains(t, asm, "\tsub\t")
}

func TestSixArgumentCall(t *testing.T) {
	asm := compileASM(t, `int h(int, int, int, int, int, int);
int k() { return h(1, 2, 3, 4, 5, 6); }`)

	assert.Contains(t, asm, "\tmov\tr0, #1\n")
	assert.Contains(t, asm, "\tmov\tr1, #2\n")
	assert.Contains(t, asm, "\tmov\tr2, #3\n")
	assert.Contains(t, asm, "\tmov\tr3, #4\n")
	assert.Contains(t, asm, "\tstr\tr4, [sp, #0]\n")
	assert.Contains(t, asm, "\tstr\tr4, [sp, #4]\n")
	assert.Contains(t, asm, "\tbl\th\n")
	// r0 lands in the call's result slot
	assert.Contains(t, asm, "\tstr\tr0, [fp, #-8]\n")
	// the frame reserves the full outgoing area: 24 arg bytes + slots
	assert.Contains(t, asm, "\tsub\tsp, sp, #32\n")
	// prototypes emit no code
	assert.NotContains(t, asm, "h:\n")
}

func TestCallSavesLR(t *testing.T) {
	asm := compileASM(t, `void p(int x) { }
int main() { p(1); return 0; }`)

	assert.Contains(t, asm, "lr}")
	assert.Contains(t, asm, "\tbl\tp\n")
}

func TestStackParameterAccess(t *testing.T) {
	asm := compileASM(t, "int f(int a, int b, int c, int d, int e) { return e; }")

	// Register params spill at entry
	assert.Contains(t, asm, "\tstr\tr0, [fp, #-4]\n")
	assert.Contains(t, asm, "\tstr\tr3, [fp, #-16]\n")
	// The fifth parameter reads from above the saved registers; the
	// prologue pushes {r4, fp}, so it sits at fp+8.
	assert.Contains(t, asm, "\tldr\tr4, [fp, #8]\n")
}

func TestGlobalAccess(t *testing.T) {
	asm := compileASM(t, "int g; int f() { g = g + 1; return g; }")

	assert.Contains(t, asm, "\t.bss\n")
	assert.Contains(t, asm, "\t.global\tg\n")
	assert.Contains(t, asm, "g:\n")
	assert.Contains(t, asm, "\t.space\t4\n")
	assert.Contains(t, asm, "\tldr\tr4, =g\n")
	assert.Contains(t, asm, "\tldr\tr9, =g\n")
}

func TestArrayLoadStore(t *testing.T) {
	asm := compileASM(t, `int a[3][4];
int g(int i, int j) { return a[i][j]; }`)

	// Base address, then a load through the computed pointer
	assert.Contains(t, asm, "\tldr\tr4, =a\n")
	assert.Contains(t, asm, "\tldr\tr4, [r4]\n")
}

func TestLocalArrayAddressing(t *testing.T) {
	asm := compileASM(t, "int f(int i) { int a[10]; a[i] = 7; return a[i]; }")

	// Local array base is an fp-relative address, not a load
	assert.Contains(t, asm, ", fp, #")
	assert.Contains(t, asm, "\tstr\t")
	assert.Contains(t, asm, "\tldr\t")
}

// Frame offsets beyond the ldr/str immediate range go through r9
func TestLargeFrameOffsets(t *testing.T) {
	asm := compileASM(t, "int f() { int buf[2000]; buf[0] = 1; return buf[1999]; }")

	assert.Contains(t, asm, "r9")
	assert.Contains(t, asm, "\tldr\tr9, =")
}

func TestLabelsQualifiedPerFunction(t *testing.T) {
	asm := compileASM(t, `int f(int x) { if (x) return 1; return 0; }
int g(int x) { if (x) return 2; return 0; }`)

	assert.Contains(t, asm, ".Lf_1:\n")
	assert.Contains(t, asm, ".Lg_1:\n")
	assert.NotContains(t, asm, "\n.L3:")
}

func TestLeafWithoutFrameSkipsSetup(t *testing.T) {
	asm := compileASM(t, "void f() { }")

	assert.NotContains(t, asm, "mov\tfp, sp")
	assert.NotContains(t, asm, "push")
	assert.Contains(t, asm, "\tbx\tlr\n")
}
