package vm

import (
	"bufio"
	"fmt"
	"time"

	"github.com/mna/lumen/lang/value"
)

// defineNatives installs the VM's built-in native functions as globals,
// reachable by name exactly like any user-defined function.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.clockNative)
	vm.defineNative("read_number", vm.readNumberNative)
	vm.defineNative("str", vm.strNative)
	vm.defineNative("type", vm.typeNative)
	vm.defineNative("map", mapNative)
	vm.defineNative("map_set", mapSetNative)
	vm.defineNative("map_get", mapGetNative)
	vm.defineNative("map_len", mapLenNative)
}

func (vm *VM) defineNative(name string, fn value.NativeFn) {
	nat := &value.ObjNative{Name: name, Fn: fn}
	vm.addObject(nat)
	vm.globals.Set(vm.Intern(name), value.ObjValue(nat))
}

// clockNative returns seconds elapsed since the VM was created, matching
// clox's clock()-based native.
func (vm *VM) clockNative(args []value.Value) (value.Value, error) {
	return value.NumberValue(time.Since(vm.start).Seconds()), nil
}

// readNumberNative optionally prints a prompt (its single argument, if
// any), then reads one line from standard input and parses it as a
// decimal number, returning 0 on any failure.
func (vm *VM) readNumberNative(args []value.Value) (value.Value, error) {
	if len(args) > 0 {
		fmt.Fprint(vm.Stdout, value.Print(args[0]))
	}
	if vm.Stdin == nil {
		return value.NumberValue(0), nil
	}
	line, err := bufio.NewReader(vm.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return value.NumberValue(0), nil
	}
	var n float64
	if _, err := fmt.Sscanf(line, "%g", &n); err != nil {
		return value.NumberValue(0), nil
	}
	return value.NumberValue(n), nil
}

// strNative stringifies any value, supplementing clox's native set so
// scripts can build map keys from arbitrary values. Routed through
// vm.Intern so two calls producing the same bytes return the same
// *ObjString, matching every other source of strings in the VM.
func (vm *VM) strNative(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, fmt.Errorf("str() takes exactly 1 argument")
	}
	return value.ObjValue(vm.Intern(value.Print(args[0]))), nil
}

// typeNative returns the printed type name of its argument, interned for
// the same reason as strNative.
func (vm *VM) typeNative(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, fmt.Errorf("type() takes exactly 1 argument")
	}
	return value.ObjValue(vm.Intern(value.TypeName(args[0]))), nil
}

func mapNative(args []value.Value) (value.Value, error) {
	return value.ObjValue(value.NewMap()), nil
}

func asMap(v value.Value) (*value.ObjMap, bool) {
	if !v.IsObj() {
		return nil, false
	}
	m, ok := v.AsObj().(*value.ObjMap)
	return m, ok
}

func mapSetNative(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.NilValue, fmt.Errorf("map_set() takes exactly 3 arguments")
	}
	m, ok := asMap(args[0])
	if !ok {
		return value.NilValue, fmt.Errorf("map_set() first argument must be a map")
	}
	if err := m.Set(args[1], args[2]); err != nil {
		return value.NilValue, err
	}
	return args[2], nil
}

func mapGetNative(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.NilValue, fmt.Errorf("map_get() takes exactly 2 arguments")
	}
	m, ok := asMap(args[0])
	if !ok {
		return value.NilValue, fmt.Errorf("map_get() first argument must be a map")
	}
	return m.Get(args[1]), nil
}

func mapLenNative(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, fmt.Errorf("map_len() takes exactly 1 argument")
	}
	m, ok := asMap(args[0])
	if !ok {
		return value.NilValue, fmt.Errorf("map_len() first argument must be a map")
	}
	return value.NumberValue(float64(m.Len())), nil
}
