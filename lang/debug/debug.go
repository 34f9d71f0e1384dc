// Package debug implements lumen's bytecode disassembler, grounded on
// clox's debug.c: one line per instruction, used by the CLI's --trace and
// --disassemble flags.
package debug

import (
	"fmt"
	"io"

	"github.com/mna/lumen/lang/bytecode"
	"github.com/mna/lumen/lang/value"
)

// DisassembleChunk writes name, then every instruction in chunk, to w.
func DisassembleChunk(w io.Writer, chunk *value.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction writes the instruction at offset to w and
// returns the offset of the next instruction.
func DisassembleInstruction(w io.Writer, chunk *value.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.Lines[offset])
	}

	op := bytecode.Op(chunk.Code[offset])
	switch op {
	case bytecode.CONSTANT:
		return constantInstruction(w, op, chunk, offset)
	case bytecode.CONSTANT_LONG:
		return constantLongInstruction(w, op, chunk, offset)
	case bytecode.GET_LOCAL, bytecode.SET_LOCAL,
		bytecode.GET_UPVALUE, bytecode.SET_UPVALUE,
		bytecode.CALL:
		return byteInstruction(w, op, chunk, offset)
	case bytecode.GET_GLOBAL, bytecode.SET_GLOBAL, bytecode.DEFINE_GLOBAL:
		return constantInstruction(w, op, chunk, offset)
	case bytecode.JUMP, bytecode.JUMP_IF_FALSE:
		return jumpInstruction(w, op, chunk, offset, 1)
	case bytecode.LOOP:
		return jumpInstruction(w, op, chunk, offset, -1)
	case bytecode.CLOSURE:
		return closureInstruction(w, op, chunk, offset)
	default:
		fmt.Fprintf(w, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op bytecode.Op, chunk *value.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, value.Print(chunk.Constants[idx]))
	return offset + 2
}

func constantLongInstruction(w io.Writer, op bytecode.Op, chunk *value.Chunk, offset int) int {
	idx := int(chunk.Code[offset+1])<<16 | int(chunk.Code[offset+2])<<8 | int(chunk.Code[offset+3])
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, value.Print(chunk.Constants[idx]))
	return offset + 4
}

func byteInstruction(w io.Writer, op bytecode.Op, chunk *value.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, op bytecode.Op, chunk *value.Chunk, offset, sign int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstruction(w io.Writer, op bytecode.Op, chunk *value.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, value.Print(chunk.Constants[idx]))
	offset += 2

	fn, ok := chunk.Constants[idx].AsObj().(*value.ObjFunction)
	if !ok {
		return offset
	}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		index := chunk.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
