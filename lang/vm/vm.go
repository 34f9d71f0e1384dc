// Package vm implements lumen's stack-based bytecode executor: the call
// frame stack, global/local storage, string interning, and the
// closure/upvalue runtime.
package vm

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/mna/lumen/lang/compiler"
	"github.com/mna/lumen/lang/table"
	"github.com/mna/lumen/lang/value"
)

// defaultFramesMax matches clox's FRAMES_MAX; RuntimeConfig.MaxCallDepth
// lets the cli override it per process via NewWithMaxFrames.
const defaultFramesMax = 64

const framesPerSlotGroup = 256

// Result is the outcome of an Interpret call, used by the CLI driver to
// select an exit code.
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// CallFrame is one call's activation record: the closure being executed,
// its instruction pointer, and the base offset into VM.stack where its
// locals begin.
type CallFrame struct {
	closure *value.ObjClosure
	ip      int
	slots   int // base offset into vm.stack
}

// VM is the process-wide interpreter state: operand stack, call frames,
// globals, the string intern set, the heap object list, and the
// open-upvalue list.
type VM struct {
	stack    []value.Value
	stackTop int

	frames     []CallFrame
	frameCount int
	framesMax  int

	globals *table.Table
	strings *table.Table

	objects      value.Obj
	openUpvalues *value.ObjUpvalue

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// traceWriter, when non-nil, receives a dump of the operand stack and
	// the disassembly of each instruction before it executes, mirroring
	// clox's DEBUG_TRACE_EXECUTION. Set via SetTrace.
	traceWriter io.Writer

	start time.Time
}

// SetTrace enables (w non-nil) or disables (w nil) per-instruction
// execution tracing to w.
func (vm *VM) SetTrace(w io.Writer) { vm.traceWriter = w }

// New returns a VM ready to Interpret source. stdin feeds read_number,
// stdout receives print output, stderr receives compile/runtime
// diagnostics.
func New(stdin io.Reader, stdout, stderr io.Writer) *VM {
	return NewWithMaxFrames(stdin, stdout, stderr, defaultFramesMax)
}

// NewWithMaxFrames is New with the call-depth limit overridden, wiring
// RuntimeConfig.MaxCallDepth through to the frame and
// stack arrays that bound it.
func NewWithMaxFrames(stdin io.Reader, stdout, stderr io.Writer, maxFrames int) *VM {
	if maxFrames <= 0 {
		maxFrames = defaultFramesMax
	}
	vm := &VM{
		stack:     make([]value.Value, maxFrames*framesPerSlotGroup),
		frames:    make([]CallFrame, maxFrames),
		framesMax: maxFrames,
		globals:   table.New(),
		strings:   table.New(),
		Stdin:     stdin,
		Stdout:    stdout,
		Stderr:    stderr,
		start:     time.Now(),
	}
	vm.defineNatives()
	return vm
}

// Intern returns the canonical *value.ObjString for s, admitting it to
// the intern set if this is the first time s has been seen. The compiler
// calls this for every literal and identifier; the VM calls
// it itself when concatenating strings at runtime.
func (vm *VM) Intern(s string) *value.ObjString {
	hash := value.HashString(s)
	if existing := vm.strings.FindString(s, hash); existing != nil {
		return existing
	}
	str := value.NewString(s)
	vm.addObject(str)
	vm.strings.Set(str, value.NilValue)
	return str
}

// addObject threads o onto the head of the VM's process-wide object list.
// Go's garbage collector makes this unnecessary for memory safety; the
// list exists so ObjectCount can count it in tests and Close can drop it
// in one step.
func (vm *VM) addObject(o value.Obj) {
	value.SetNextObj(o, vm.objects)
	vm.objects = o
}

// Close releases the VM's object list and open-upvalue list, the
// counterpart of clox's free_vm. It does not walk the list or deallocate
// anything itself: it drops the list heads and leaves the objects to Go's
// GC, so ObjectCount reports 0 afterwards.
func (vm *VM) Close() {
	vm.objects = nil
	vm.openUpvalues = nil
}

// ObjectCount returns the number of objects currently threaded on the
// VM's heap list, used to verify the teardown contract in tests.
func (vm *VM) ObjectCount() int {
	n := 0
	for o := vm.objects; o != nil; o = value.NextObj(o) {
		n++
	}
	return n
}

// Interpret compiles and runs source against this VM. Globals defined by
// one Interpret call remain visible to the next: a
// REPL runs every line through the same VM instance.
func (vm *VM) Interpret(source []byte) Result {
	fn, err := compiler.Compile(source, vm.Intern)
	if err != nil {
		fmt.Fprintln(vm.Stderr, err)
		return CompileError
	}

	vm.registerFunctionTree(fn)

	closure := value.NewClosure(fn)
	vm.addObject(closure)
	vm.push(value.ObjValue(closure))
	vm.callValue(value.ObjValue(closure), 0)

	return vm.run()
}

// CompileOnly compiles source without running it, for the cli's
// --disassemble flag. The returned function, and any function nested in
// its constant pool, is not registered on the VM's object list since it is
// never executed through this VM; the strings it interns are, because
// interning goes through Intern.
func (vm *VM) CompileOnly(source []byte) (*value.ObjFunction, error) {
	return compiler.Compile(source, vm.Intern)
}

// registerFunctionTree threads fn, and every nested ObjFunction reachable
// through its constant pool (one per `fun` declaration compiled inside
// it), onto the VM's object list. The compiler allocates these before
// the VM has a chance to see them, so Interpret must adopt the whole
// tree once compilation succeeds.
func (vm *VM) registerFunctionTree(fn *value.ObjFunction) {
	vm.addObject(fn)
	for _, c := range fn.Chunk.Constants {
		if c.IsObj() {
			if nested, ok := c.AsObj().(*value.ObjFunction); ok {
				vm.registerFunctionTree(nested)
			}
		}
	}
}

// GlobalNames returns every currently defined global's name, sorted, for
// the cli's --dump-globals flag. The globals table is snapshotted into a
// plain map first so the listing can go through golang.org/x/exp/maps and
// golang.org/x/exp/slices.
func (vm *VM) GlobalNames() []string {
	snapshot := make(map[string]struct{}, vm.globals.Count())
	for _, name := range vm.globals.Keys() {
		snapshot[name.Chars] = struct{}{}
	}
	names := maps.Keys(snapshot)
	slices.Sort(names)
	return names
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// runtimeError formats a stack trace (innermost frame first) and resets
// the VM to a clean state.
func (vm *VM) runtimeError(format string, args ...any) {
	fmt.Fprintf(vm.Stderr, format+"\n", args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := fn.Chunk.Lines[fr.ip-1]
		if fn.Name == "" {
			fmt.Fprintf(vm.Stderr, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.Stderr, "[line %d] in %s()\n", line, fn.Name)
		}
	}

	vm.resetStack()
}
