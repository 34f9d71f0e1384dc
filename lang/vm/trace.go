package vm

import (
	"fmt"

	"github.com/mna/lumen/lang/debug"
	"github.com/mna/lumen/lang/value"
)

// traceStep prints the current operand stack, then disassembles the
// instruction about to execute, to vm.traceWriter. Called only when
// tracing is enabled via SetTrace.
func (vm *VM) traceStep(fr *CallFrame) {
	fmt.Fprint(vm.traceWriter, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.traceWriter, "[ %s ]", value.Print(vm.stack[i]))
	}
	fmt.Fprintln(vm.traceWriter)
	debug.DisassembleInstruction(vm.traceWriter, &fr.closure.Function.Chunk, fr.ip)
}
