package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/value"
)

func interner() func(string) *value.ObjString {
	seen := map[string]*value.ObjString{}
	return func(s string) *value.ObjString {
		if s, ok := seen[s]; ok {
			return s
		}
		o := value.NewString(s)
		seen[s] = o
		return o
	}
}

func TestCompileValidProgram(t *testing.T) {
	fn, err := compiler.Compile([]byte(`var x = 1 + 2; print x;`), interner())
	require.NoError(t, err)
	assert.NotNil(t, fn)
	assert.Equal(t, "", fn.Name)
}

func TestCompileErrorsAccumulateAndSynchronize(t *testing.T) {
	// two independent syntax errors, each past a ';' synchronization point
	_, err := compiler.Compile([]byte(`var = 1; var = 2;`), interner())
	require.Error(t, err)
	// go/scanner.ErrorList reports the first error and a count of the rest
	assert.Contains(t, err.Error(), "Expect variable name.")
	assert.Contains(t, err.Error(), "(and 1 more errors)")
}

func TestCompileErrorSelfReferentialInitializer(t *testing.T) {
	_, err := compiler.Compile([]byte(`{ var a = a; }`), interner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't read local variable in its own initializer.")
}

func TestCompileErrorDuplicateLocal(t *testing.T) {
	_, err := compiler.Compile([]byte(`{ var a = 1; var a = 2; }`), interner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Already a variable with this name in this scope.")
}

func TestCompileErrorReturnFromTopLevel(t *testing.T) {
	_, err := compiler.Compile([]byte(`return 1;`), interner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't return from top-level code.")
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	_, err := compiler.Compile([]byte(`1 + 2 = 3;`), interner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid assignment target.")
}

// TestJumpOffsetBounds checks that a patched jump which does not fit in
// 16 bits is a compile error, not silent truncation.
func TestJumpOffsetBounds(t *testing.T) {
	var body string
	for i := 0; i < 70000; i++ {
		body += "1;"
	}
	_, err := compiler.Compile([]byte("if (true) {"+body+"}"), interner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too much code to jump over.")
}

// netStackEffect walks chunk's instruction stream, summing
// bytecode.StackEffect over every opcode. It returns ok == false if the
// chunk contains CALL or CLOSURE, whose effect depends on an operand
// StackEffect does not model; callers should only pass it chunks known
// not to contain either.
func netStackEffect(chunk *value.Chunk) (net int, ok bool) {
	code := chunk.Code
	for offset := 0; offset < len(code); {
		op := bytecode.Op(code[offset])
		eff, known := bytecode.StackEffect(op)
		if !known {
			return 0, false
		}
		net += eff

		switch op {
		case bytecode.CONSTANT, bytecode.GET_LOCAL, bytecode.SET_LOCAL,
			bytecode.GET_GLOBAL, bytecode.SET_GLOBAL, bytecode.DEFINE_GLOBAL,
			bytecode.GET_UPVALUE, bytecode.SET_UPVALUE:
			offset += 2
		case bytecode.CONSTANT_LONG:
			offset += 4
		case bytecode.JUMP, bytecode.JUMP_IF_FALSE, bytecode.LOOP:
			offset += 3
		default:
			offset++
		}
	}
	return net, true
}

// TestStackEffectBalancedAcrossStatements compiles a handful of statement
// forms with no function calls or closures (the two opcodes
// bytecode.StackEffect leaves unmodeled) and checks the net effect of
// walking the compiled chunk with bytecode.StackEffect. Straight-line
// statements net to zero: every value a statement pushes, it (or the
// implicit trailing `nil; return`) also pops. if/while/for pop their
// condition once on each of two paths, and a linear walk counts both
// POPs although only one runs, so each of those forms nets to -1.
func TestStackEffectBalancedAcrossStatements(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`1 + 2;`, 0},
		{`var x = 1 + 2;`, 0},
		{`print 1;`, 0},
		{`{ var x = 1; var y = 2; }`, 0},
		{`if (true) { var x = 1; } else { var y = 2; }`, -1},
		{`while (false) { 1; }`, -1},
		{`for (var i = 0; i < 3; i = i + 1) { 1; }`, -1},
		{`var g = 1; g = g + 1;`, 0},
	}
	for _, tc := range tests {
		src := tc.src
		t.Run(src, func(t *testing.T) {
			fn, err := compiler.Compile([]byte(src), interner())
			require.NoError(t, err)
			net, ok := netStackEffect(&fn.Chunk)
			require.True(t, ok, "chunk contains an opcode with no statically known stack effect")
			assert.Equal(t, tc.want, net, "statement(s) %q left the operand stack unbalanced", src)
		})
	}
}

func TestFunctionDeclarationAndClosure(t *testing.T) {
	fn, err := compiler.Compile([]byte(`
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`), interner())
	require.NoError(t, err)
	assert.NotNil(t, fn)
}
