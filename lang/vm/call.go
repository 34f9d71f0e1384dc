package vm

import "github.com/mna/lumen/lang/value"

// call pushes a new frame for closure, checking arity and the call-depth
// limit. argc arguments plus the callee itself are already
// on the stack by the time this is invoked.
func (vm *VM) call(closure *value.ObjClosure, argc int) bool {
	if argc != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments, but got %d.", closure.Function.Arity, argc)
		return false
	}
	if vm.frameCount == vm.framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	fr := &vm.frames[vm.frameCount]
	fr.closure = closure
	fr.ip = 0
	fr.slots = vm.stackTop - argc - 1
	vm.frameCount++
	return true
}

// callValue dispatches a CALL opcode on the callee's runtime type:
// closures push a frame, natives invoke immediately and replace their own
// call window with the result, anything else is a runtime error.
func (vm *VM) callValue(callee value.Value, argc int) bool {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.ObjClosure:
			return vm.call(obj, argc)
		case *value.ObjNative:
			args := vm.stack[vm.stackTop-argc : vm.stackTop]
			result, err := obj.Fn(args)
			if err != nil {
				vm.runtimeError("%s", err.Error())
				return false
			}
			vm.stackTop -= argc + 1
			vm.push(result)
			return true
		}
	}
	vm.runtimeError("Can only call functions and classes.")
	return false
}
