package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lumen/lang/vm"
)

func run(t *testing.T, source string) (stdout string, result vm.Result) {
	t.Helper()
	var out, errBuf bytes.Buffer
	m := vm.New(strings.NewReader(""), &out, &errBuf)
	res := m.Interpret([]byte(source))
	if res != vm.OK {
		t.Logf("stderr: %s", errBuf.String())
	}
	return out.String(), res
}

// TestEndToEndScenarios exercises every literal input -> literal stdout
// scenario the language is expected to produce.
func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", `print 1 + 2 * 3;`, "7\n"},
		{"string concatenation", `var a = "foo"; var b = "bar"; print a + b;`, "foobar\n"},
		{"for loop accumulation", `var sum = 0; for (var i = 1; i <= 3; i = i + 1) { sum = sum + i; } print sum;`, "6\n"},
		{
			"closures capture final value on return",
			`fun makeCounter() { var n = 0; fun inc() { n = n + 1; return n; } return inc; }
			 var c = makeCounter(); print c(); print c(); print c();`,
			"1\n2\n3\n",
		},
		{"falseyness of nil/false/zero", `print !(nil); print !false; print !0;`, "true\ntrue\nfalse\n"},
		{"if/else equality", `var x = 2; if (x == 2) print "yes"; else print "no";`, "yes\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, res := run(t, tc.source)
			require.Equal(t, vm.OK, res)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestNegativeScenarios(t *testing.T) {
	t.Run("undefined global read", func(t *testing.T) {
		var out, errBuf bytes.Buffer
		m := vm.New(strings.NewReader(""), &out, &errBuf)
		res := m.Interpret([]byte(`print a;`))
		assert.Equal(t, vm.RuntimeError, res)
		assert.Contains(t, errBuf.String(), "Undefined variable 'a'.")
	})

	t.Run("add incompatible operands", func(t *testing.T) {
		var out, errBuf bytes.Buffer
		m := vm.New(strings.NewReader(""), &out, &errBuf)
		res := m.Interpret([]byte(`1 + "a";`))
		assert.Equal(t, vm.RuntimeError, res)
		assert.Contains(t, errBuf.String(), "Operands must be two numbers or two strings.")
	})

	t.Run("wrong argument count", func(t *testing.T) {
		var out, errBuf bytes.Buffer
		m := vm.New(strings.NewReader(""), &out, &errBuf)
		res := m.Interpret([]byte(`fun f(a){} f();`))
		assert.Equal(t, vm.RuntimeError, res)
		assert.Contains(t, errBuf.String(), "Expected 1 arguments, but got 0.")
	})

	t.Run("self-referential local initializer", func(t *testing.T) {
		var out, errBuf bytes.Buffer
		m := vm.New(strings.NewReader(""), &out, &errBuf)
		res := m.Interpret([]byte(`{ var a = a; }`))
		assert.Equal(t, vm.CompileError, res)
		assert.Contains(t, errBuf.String(), "Can't read local variable in its own initializer.")
	})
}

func TestShortCircuit(t *testing.T) {
	out, res := run(t, `fun f() { print "called"; return true; } print false and f(); print true or f();`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "false\ntrue\n", out, "f() must never be called by either short-circuit operator")
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var out, errBuf bytes.Buffer
	m := vm.New(strings.NewReader(""), &out, &errBuf)
	require.Equal(t, vm.OK, m.Interpret([]byte(`var counter = 41;`)))
	require.Equal(t, vm.OK, m.Interpret([]byte(`counter = counter + 1; print counter;`)))
	assert.Equal(t, "42\n", out.String())
}

func TestStringInterning(t *testing.T) {
	out, res := run(t, `
		var a = "foo" + "bar";
		var b = "foo" + "bar";
		print a == b;
	`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "true\n", out)
}

func TestMapNatives(t *testing.T) {
	out, res := run(t, `
		var m = map();
		map_set(m, "a", 1);
		map_set(m, "b", 2);
		print map_get(m, "a");
		print map_get(m, "missing");
		print map_len(m);
	`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "1\nnil\n2\n", out)
}

func TestTypeAndStrNatives(t *testing.T) {
	out, res := run(t, `
		print type(1);
		print type("x");
		print type(nil);
		print str(1) + "!";
	`)
	require.Equal(t, vm.OK, res)
	assert.Equal(t, "number\nstring\nnil\n1!\n", out)
}

func TestObjectListGrowsAndCloseResets(t *testing.T) {
	var out, errBuf bytes.Buffer
	m := vm.New(strings.NewReader(""), &out, &errBuf)
	require.Equal(t, vm.OK, m.Interpret([]byte(`var s = "hello";`)))
	assert.Greater(t, m.ObjectCount(), 0)
	m.Close()
	assert.Equal(t, 0, m.ObjectCount())
}
