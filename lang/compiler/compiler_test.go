package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxa/lang/compiler"
	"github.com/mna/loxa/lang/object"
)

func compile(t *testing.T, src string) (*object.Function, error) {
	t.Helper()
	heap := object.NewHeap(object.DefaultConfig())
	return compiler.Compile([]byte(src), heap)
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	fn, err := compile(t, `1 + 2;`)
	require.NoError(t, err)
	require.NotNil(t, fn)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpAdd))
	assert.Contains(t, fn.Chunk.Code, byte(object.OpPop))
}

func TestCompileConstantsPoolLongForm(t *testing.T) {
	var src string
	for i := 0; i < 300; i++ {
		src += "print " + itoa(i) + ";\n"
	}
	fn, err := compile(t, src)
	require.NoError(t, err)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpConstantLong))
}

func itoa(i int) string {
	digits := "0123456789"
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{digits[i%10]}, b...)
		i /= 10
	}
	return string(b)
}

func TestCompileErrorUnterminatedBlock(t *testing.T) {
	_, err := compile(t, `{ var x = 1;`)
	require.Error(t, err)
}

func TestCompileErrorReturnAtTopLevel(t *testing.T) {
	_, err := compile(t, `return 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return from top-level")
}

func TestCompileErrorBreakOutsideLoop(t *testing.T) {
	_, err := compile(t, `break;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'break' outside of a loop")
}

func TestCompileErrorAssignToConst(t *testing.T) {
	_, err := compile(t, `{ const x = 1; x = 2; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assignment to const")
}

func TestCompileErrorDuplicateLocal(t *testing.T) {
	_, err := compile(t, `{ var x = 1; var x = 2; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already a variable")
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	_, err := compile(t, `1 + 2 = 3;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid assignment target")
}

func TestCompileErrorAccumulatesMultiple(t *testing.T) {
	_, err := compile(t, "var = 1;\nreturn 2;")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect variable name")
	assert.Contains(t, err.Error(), "return from top-level")
}

func TestCompileClassAndMethod(t *testing.T) {
	fn, err := compile(t, `
		class Greeter {
			greet() { return "hi"; }
		}
	`)
	require.NoError(t, err)
	assert.Contains(t, fn.Chunk.Code, byte(object.OpMethod))
}

func TestCompileSuperRequiresSuperclass(t *testing.T) {
	_, err := compile(t, `
		class A {
			greet() { return super.greet(); }
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no superclass")
}

func TestCompileSwitchDefaultMustBeLast(t *testing.T) {
	_, err := compile(t, `
		switch (1) {
			default: print "d";
			case 1: print "one";
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot follow 'default'")
}

func TestCompilePropertyAccessRequiresCallPosition(t *testing.T) {
	_, err := compile(t, `
		class A {}
		var a = A();
		print a.field;
	`)
	require.Error(t, err)
}
