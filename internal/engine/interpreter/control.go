package interpreter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/r00ster91/wasmos/internal/leb128"
	"github.com/r00ster91/wasmos/internal/wasm"
	"github.com/r00ster91/wasmos/sys"
)

// unreachable ends the run cleanly instead of trapping.
func unreachable(ce *callEngine) error {
	ce.logger.Info("unreachable executed, ending the run", zap.Uint64("pc", ce.pc-1))
	ce.stop(sys.ExitUnreachable, 0)
	return nil
}

func readBlockType(ce *callEngine) error {
	bt, err := ce.readByte()
	if err != nil {
		return err
	}
	if bt != wasm.BlockTypeEmpty {
		return fmt.Errorf("%w: %#x", ErrUnimplementedBlockType, bt)
	}
	return nil
}

func block(ce *callEngine) error {
	start := ce.pc
	if err := readBlockType(ce); err != nil {
		return err
	}

	endAt, ok := ce.blockEnds[start]
	if !ok {
		var err error
		if endAt, err = findEnd(ce.body, ce.pc); err != nil {
			return err
		}
		ce.blockEnds[start] = endAt
	}

	ce.labels.push(label{continuation: endAt + 1, operandHeight: ce.operands.len()})
	return nil
}

func loop(ce *callEngine) error {
	if err := readBlockType(ce); err != nil {
		return err
	}
	ce.labels.push(label{continuation: ce.pc, isLoop: true, operandHeight: ce.operands.len()})
	return nil
}

// end closes the innermost block or loop. With no label left, it is the end of the function.
func end(ce *callEngine) error {
	if ce.labels.len() > 0 {
		ce.labels.pop()
		return nil
	}
	if ce.operands.len() > 0 {
		ce.logger.Debug("values left on the stack at end", zap.Stringers("values", ce.operands.values))
	}
	ce.stop(sys.ExitEnd, 0)
	return nil
}

func br(ce *callEngine) error {
	depth, err := ce.readUint32()
	if err != nil {
		return err
	}
	return brAt(ce, depth)
}

func brIf(ce *callEngine) error {
	depth, err := ce.readUint32()
	if err != nil {
		return err
	}
	c, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	if c == 0 {
		return nil
	}
	return brAt(ce, depth)
}

// brAt branches to the label at depth. Branching to a loop resumes at the start of its body, with its label kept.
// Branching to a block resumes after its end. A depth past every label returns from the function.
func brAt(ce *callEngine, depth uint32) error {
	if uint64(depth) == uint64(ce.labels.len()) {
		ce.stop(sys.ExitEnd, 0)
		return nil
	}

	l, err := ce.labels.get(depth)
	if err != nil {
		return err
	}

	if l.isLoop && ce.opts.closeOnContextDone {
		if err = ce.ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
	}

	ce.labels.unwind(depth, l.isLoop)
	ce.operands.truncate(l.operandHeight)
	ce.pc = l.continuation
	return nil
}

// findEnd returns the position of the end matching a block whose body begins at pc. Immediates are skipped without
// being interpreted, so any instruction of the WebAssembly 1.0 (20191205) instruction set can be stepped over.
func findEnd(body []byte, pc uint64) (uint64, error) {
	depth := 1
	for pc < uint64(len(body)) {
		op := body[pc]
		pc++

		var err error
		switch {
		case op == wasm.OpcodeBlock || op == wasm.OpcodeLoop || op == wasm.OpcodeIf:
			depth++
			pc++ // block type
		case op == wasm.OpcodeEnd:
			if depth--; depth == 0 {
				return pc - 1, nil
			}
		case op == wasm.OpcodeBr || op == wasm.OpcodeBrIf || op == wasm.OpcodeCall ||
			(op >= wasm.OpcodeLocalGet && op <= wasm.OpcodeGlobalSet):
			pc, err = skipUint32(body, pc)
		case op == wasm.OpcodeCallIndirect:
			if pc, err = skipUint32(body, pc); err == nil {
				pc++ // table index
			}
		case op == wasm.OpcodeBrTable:
			pc, err = skipBrTable(body, pc)
		case op >= wasm.OpcodeI32Load && op <= 0x3e: // loads and stores have an alignment and an offset
			if pc, err = skipUint32(body, pc); err == nil {
				pc, err = skipUint32(body, pc)
			}
		case op == 0x3f || op == 0x40: // memory.size and memory.grow have a reserved byte
			pc++
		case op == wasm.OpcodeI32Const:
			_, n, e := leb128.LoadInt32(body[pc:])
			pc, err = pc+n, e
		case op == wasm.OpcodeI64Const:
			_, n, e := leb128.LoadInt64(body[pc:])
			pc, err = pc+n, e
		case op == wasm.OpcodeF32Const:
			pc += 4
		case op == wasm.OpcodeF64Const:
			pc += 8
		case op == wasm.OpcodeUnreachable || op == wasm.OpcodeNop || op == wasm.OpcodeElse ||
			op == wasm.OpcodeReturn || op == wasm.OpcodeDrop || op == wasm.OpcodeSelect ||
			(op >= wasm.OpcodeI32Eqz && op <= 0xbf): // numeric instructions have no immediates
		default:
			return 0, fmt.Errorf("%w: %s at %#x", wasm.ErrUnimplementedOpcode, wasm.InstructionName(op), pc-1)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrTruncatedInstruction, err)
		}
	}
	return 0, fmt.Errorf("%w: block without end", ErrTruncatedInstruction)
}

func skipUint32(body []byte, pc uint64) (uint64, error) {
	if pc > uint64(len(body)) {
		return pc, ErrTruncatedInstruction
	}
	_, n, err := leb128.LoadUint32(body[pc:])
	return pc + n, err
}

func skipBrTable(body []byte, pc uint64) (uint64, error) {
	if pc > uint64(len(body)) {
		return pc, ErrTruncatedInstruction
	}
	count, n, err := leb128.LoadUint32(body[pc:])
	if err != nil {
		return pc, err
	}
	pc += n
	for i := uint64(0); i <= uint64(count); i++ { // the labels and the default
		if pc, err = skipUint32(body, pc); err != nil {
			return pc, err
		}
	}
	return pc, nil
}
