package vm

import (
	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/value"
)

// run executes instructions from the current top frame until the last
// frame returns or a runtime error occurs.
func (vm *VM) run() Result {
	fr := &vm.frames[vm.frameCount-1]

	for {
		if vm.traceWriter != nil {
			vm.traceStep(fr)
		}

		op := bytecode.Op(vm.readByte(fr))
		switch op {
		case bytecode.CONSTANT:
			vm.push(vm.readConstant(fr, false))
		case bytecode.CONSTANT_LONG:
			vm.push(vm.readConstant(fr, true))
		case bytecode.NIL:
			vm.push(value.NilValue)
		case bytecode.TRUE:
			vm.push(value.BoolValue(true))
		case bytecode.FALSE:
			vm.push(value.BoolValue(false))
		case bytecode.POP:
			vm.pop()
		case bytecode.GET_LOCAL:
			slot := int(vm.readByte(fr))
			vm.push(vm.stack[fr.slots+slot])
		case bytecode.SET_LOCAL:
			slot := int(vm.readByte(fr))
			vm.stack[fr.slots+slot] = vm.peek(0)
		case bytecode.GET_GLOBAL:
			name := vm.readConstant(fr, false).AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return RuntimeError
			}
			vm.push(v)
		case bytecode.DEFINE_GLOBAL:
			name := vm.readConstant(fr, false).AsString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case bytecode.SET_GLOBAL:
			name := vm.readConstant(fr, false).AsString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name) // was newly created: undefined, not an assignment
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return RuntimeError
			}
		case bytecode.GET_UPVALUE:
			slot := int(vm.readByte(fr))
			vm.push(*fr.closure.Upvalues[slot].Location)
		case bytecode.SET_UPVALUE:
			slot := int(vm.readByte(fr))
			*fr.closure.Upvalues[slot].Location = vm.peek(0)
		case bytecode.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()
		case bytecode.EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))
		case bytecode.GREATER:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a > b) }) {
				return RuntimeError
			}
		case bytecode.LESS:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a < b) }) {
				return RuntimeError
			}
		case bytecode.ADD:
			if !vm.add() {
				return RuntimeError
			}
		case bytecode.SUBTRACT:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a - b) }) {
				return RuntimeError
			}
		case bytecode.MULTIPLY:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a * b) }) {
				return RuntimeError
			}
		case bytecode.DIVIDE:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a / b) }) {
				return RuntimeError
			}
		case bytecode.NOT:
			vm.push(value.BoolValue(vm.pop().Falsey()))
		case bytecode.NEGATE:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operands must be numbers.")
				return RuntimeError
			}
			vm.push(value.NumberValue(-vm.pop().AsNumber()))
		case bytecode.PRINT:
			fmtPrintln(vm, vm.pop())
		case bytecode.JUMP:
			offset := vm.readShort(fr)
			fr.ip += int(offset)
		case bytecode.JUMP_IF_FALSE:
			offset := vm.readShort(fr)
			if vm.peek(0).Falsey() {
				fr.ip += int(offset)
			}
		case bytecode.LOOP:
			offset := vm.readShort(fr)
			fr.ip -= int(offset)
		case bytecode.CALL:
			argc := int(vm.readByte(fr))
			if !vm.callValue(vm.peek(argc), argc) {
				return RuntimeError
			}
			fr = &vm.frames[vm.frameCount-1]
		case bytecode.CLOSURE:
			fn := vm.readConstant(fr, false).AsObj().(*value.ObjFunction)
			closure := value.NewClosure(fn)
			vm.addObject(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(fr)
				index := vm.readByte(fr)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slots + int(index))
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}
			vm.push(value.ObjValue(closure))
		case bytecode.RETURN:
			result := vm.pop()
			vm.closeUpvalues(fr.slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return OK
			}
			vm.stackTop = fr.slots
			vm.push(result)
			fr = &vm.frames[vm.frameCount-1]
		default:
			vm.runtimeError("Unknown opcode %d.", byte(op))
			return RuntimeError
		}
	}
}

func fmtPrintln(vm *VM, v value.Value) {
	_, _ = vm.Stdout.Write([]byte(value.Print(v) + "\n"))
}

func (vm *VM) readByte(fr *CallFrame) byte {
	b := fr.closure.Function.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readShort(fr *CallFrame) uint16 {
	hi := vm.readByte(fr)
	lo := vm.readByte(fr)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(fr *CallFrame, long bool) value.Value {
	var idx int
	if long {
		b0, b1, b2 := vm.readByte(fr), vm.readByte(fr), vm.readByte(fr)
		idx = int(b0)<<16 | int(b1)<<8 | int(b2)
	} else {
		idx = int(vm.readByte(fr))
	}
	return fr.closure.Function.Chunk.Constants[idx]
}

func (vm *VM) binaryNumeric(op func(a, b float64) value.Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b, a := vm.pop(), vm.pop()
	vm.push(op(a.AsNumber(), b.AsNumber()))
	return true
}

// add dispatches OP_ADD on operand types: numbers add, strings
// concatenate (with interning), anything else is a runtime error.
func (vm *VM) add() bool {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.NumberValue(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		vm.push(value.ObjValue(vm.Intern(a.AsString().Chars + b.AsString().Chars)))
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
	return true
}
