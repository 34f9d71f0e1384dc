package vm

import "github.com/mna/lumen/lang/value"

// captureUpvalue returns an open upvalue for the stack slot at
// vm.stack[slotIdx], reusing an existing one if the open list (strictly
// descending by slot) already has one for this exact slot.
func (vm *VM) captureUpvalue(slotIdx int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Slot > slotIdx {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slotIdx {
		return cur
	}

	created := value.NewUpvalue(&vm.stack[slotIdx], slotIdx)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	vm.addObject(created)
	return created
}

// closeUpvalues closes every open upvalue whose stack slot is >= fromIdx,
// copying the live value out of the stack into the upvalue's own storage
// and detaching it from the open list.
func (vm *VM) closeUpvalues(fromIdx int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= fromIdx {
		u := vm.openUpvalues
		u.Close()
		vm.openUpvalues = u.Next
	}
}
