package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/loxa/lang/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	machine := vm.New(vm.DefaultConfig(), &out)
	err := machine.Interpret([]byte(src))
	return out.String(), err
}

func TestArithmeticAndPrint(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestGlobalsDeclareAssignRead(t *testing.T) {
	out, err := run(t, `
		var x = 1;
		x = x + 1;
		print x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestConstGlobalReassignmentIsRejected(t *testing.T) {
	_, err := run(t, `
		const x = 1;
		x = 2;
	`)
	require.Error(t, err)
}

func TestIfElse(t *testing.T) {
	out, err := run(t, `
		if (1 < 2) { print "yes"; } else { print "no"; }
	`)
	require.NoError(t, err)
	assert.Equal(t, "yes\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestForLoopBreakContinue(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 1) continue;
			if (i == 3) break;
			print i;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n2\n", out)
}

func TestFunctionCallAndReturn(t *testing.T) {
	out, err := run(t, `
		fun add(a, b) {
			return a + b;
		}
		print add(2, 3);
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestRecursiveFunction(t *testing.T) {
	out, err := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestClosureCapturesSharedVariable(t *testing.T) {
	out, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun inc() {
				count = count + 1;
				return count;
			}
			return inc;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

// TestForLoopCapturesDistinctBindingPerIteration exercises the boundary
// behavior where closures formed in a for-loop body must each see their
// own iteration's binding, not a single shared slot.
func TestForLoopCapturesDistinctBindingPerIteration(t *testing.T) {
	out, err := run(t, `
		var first;
		var second;
		var third;
		for (var i = 0; i < 3; i = i + 1) {
			fun snapshot() {
				return i;
			}
			if (i == 0) first = snapshot;
			if (i == 1) second = snapshot;
			if (i == 2) third = snapshot;
		}
		print first();
		print second();
		print third();
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestClassInstantiationFieldsAndMethods(t *testing.T) {
	out, err := run(t, `
		class Counter {
			init(start) {
				setProp(this, "value", start);
			}
			inc() {
				setProp(this, "value", getProp(this, "value") + 1);
				return getProp(this, "value");
			}
		}
		var c = Counter(10);
		print c.inc();
		print c.inc();
	`)
	require.NoError(t, err)
	assert.Equal(t, "11\n12\n", out)
}

func TestClassInheritanceAndSuper(t *testing.T) {
	out, err := run(t, `
		class Animal {
			speak() {
				return "...";
			}
			describe() {
				return "an animal that says " + this.speak();
			}
		}
		class Dog < Animal {
			speak() {
				return "woof";
			}
			describe() {
				return super.describe() + "!";
			}
		}
		var d = Dog();
		print d.describe();
	`)
	require.NoError(t, err)
	assert.Equal(t, "an animal that says woof!\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	var rerr *vm.RuntimeError
	require.ErrorAs(t, err, &rerr)
}

func TestCallArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `
		fun one(a) { return a; }
		one(1, 2);
	`)
	require.Error(t, err)
}

func TestNativeFunctions(t *testing.T) {
	out, err := run(t, `
		print len("hello");
		print sqrt(16);
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n4\n", out)
}

func TestPropertyReflectionNatives(t *testing.T) {
	out, err := run(t, `
		class Box {}
		var b = Box();
		setProp(b, "value", 42);
		print getProp(b, "value");
		print hasProp(b, "value");
		delProp(b, "value");
		print hasProp(b, "value");
	`)
	require.NoError(t, err)
	assert.Equal(t, "42\ntrue\nfalse\n", out)
}

func TestSwitchStatement(t *testing.T) {
	out, err := run(t, `
		var x = 2;
		switch (x) {
			case 1: print "one";
			case 2: print "two";
			default: print "other";
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "two\n", out)
}

func TestCompileErrorReturnedWithoutRunning(t *testing.T) {
	out, err := run(t, `var = 1;`)
	require.Error(t, err)
	assert.Empty(t, out)
}
