package arm32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstFormatting(t *testing.T) {
	e := NewEmitter()
	e.Inst("add", "r0", "r1", "r2")
	e.Inst("bx", "lr")
	assert.Equal(t, "\tadd\tr0, r1, r2\n\tbx\tlr\n", e.String())
}

func TestLabelAndComment(t *testing.T) {
	e := NewEmitter()
	e.Label("main")
	e.Comment("hello")
	assert.Equal(t, "main:\n\t@ hello\n", e.String())
}

func TestLoadImmSmall(t *testing.T) {
	e := NewEmitter()
	e.LoadImm(R0, 42)
	assert.Equal(t, "\tmov\tr0, #42\n", e.String())
}

func TestLoadImmInverted(t *testing.T) {
	e := NewEmitter()
	e.LoadImm(R0, -1)
	assert.Equal(t, "\tmvn\tr0, #0\n", e.String())
}

func TestLoadImmLarge(t *testing.T) {
	e := NewEmitter()
	e.LoadImm(R0, 123456)
	assert.Equal(t, "\tldr\tr0, =123456\n", e.String())
}

func TestAddImmNegative(t *testing.T) {
	e := NewEmitter()
	e.AddImm(R4, RegFP, -44)
	assert.Equal(t, "\tsub\tr4, fp, #44\n", e.String())
}

func TestAddImmLargeGoesThroughTemp(t *testing.T) {
	e := NewEmitter()
	e.AddImm(RegSP, RegSP, -8008)
	out := e.String()
	assert.Contains(t, out, "r9")
	assert.Contains(t, out, "\tadd\tsp, sp, r9\n")
}

func TestRegNames(t *testing.T) {
	assert.Equal(t, "r0", RegName(R0))
	assert.Equal(t, "r9", RegName(RegTmp))
	assert.Equal(t, "fp", RegName(RegFP))
	assert.Equal(t, "sp", RegName(RegSP))
	assert.Equal(t, "lr", RegName(RegLR))
}
