// Package interpreter executes the start function of an instantiated module, one instruction at a time.
package interpreter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/r00ster91/wasmos/internal/leb128"
	"github.com/r00ster91/wasmos/internal/wasip1"
	"github.com/r00ster91/wasmos/internal/wasm"
	"github.com/r00ster91/wasmos/sys"
)

// FileSink is the per-descriptor output fd_write appends to. sys.FileTable implements it.
type FileSink interface {
	// Len returns the count of descriptors, numbered from zero.
	Len() int
	// Append adds p to the end of the descriptor, returning the count of bytes appended.
	Append(fd uint32, p []byte) (int, error)
}

// Option configures a Run.
type Option func(*options)

type options struct {
	sleep              func(time.Duration)
	closeOnContextDone bool
}

// WithSleeper replaces time.Sleep as what poll_oneoff blocks with.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(o *options) {
		o.sleep = sleep
	}
}

// WithCloseOnContextDone makes a run stop with the context's error once it is done. The context is checked on every
// backward branch, so a guest looping forever can be stopped, but a sleep in poll_oneoff is never interrupted.
func WithCloseOnContextDone(closeOnContextDone bool) Option {
	return func(o *options) {
		o.closeOnContextDone = closeOnContextDone
	}
}

// callEngine holds the state of one run. It is not safe for concurrent use, and is never reused.
type callEngine struct {
	ctx  context.Context
	opts options
	// logger is Logger at the start of the run.
	logger *zap.Logger
	trace  bool

	inst *wasm.ModuleInstance
	fds  FileSink
	// hostFunctions is index-correlated with the imported functions of the module.
	hostFunctions []wasip1.HostFunction

	body []byte
	// pc is the position of the next byte of body to read.
	pc uint64
	// blockEnds memoizes the position of the end of each block, keyed by the position of its block type.
	blockEnds map[uint64]uint64

	operands *operandStack
	labels   *labelStack

	// exit is set when the run stops without error.
	exit *sys.ExitStatus
}

// Run interprets the function exported as wasm.StartFunctionName, until it ends, calls proc_exit or fails.
//
// Every import is resolved before the first instruction runs, so a module importing an unknown function fails with
// wasm.ErrUnknownImport without any side effect.
func Run(ctx context.Context, m *wasm.Module, inst *wasm.ModuleInstance, fds FileSink, opts ...Option) (sys.ExitStatus, error) {
	logger := Logger()
	ce := &callEngine{
		ctx:       ctx,
		opts:      options{sleep: time.Sleep},
		logger:    logger,
		trace:     logger.Core().Enabled(zap.DebugLevel),
		inst:      inst,
		fds:       fds,
		blockEnds: map[uint64]uint64{},
		operands:  newOperandStack(),
		labels:    newLabelStack(),
	}
	for _, opt := range opts {
		opt(&ce.opts)
	}

	var err error
	if ce.hostFunctions, err = resolveImports(m); err != nil {
		return sys.ExitStatus{}, err
	}

	idx, err := m.StartFunction()
	if err != nil {
		return sys.ExitStatus{}, err
	}
	if err = checkStartSignature(m, idx); err != nil {
		return sys.ExitStatus{}, err
	}
	ce.body = m.CodeSection[idx].Body

	status, err := ce.run()
	if err != nil {
		ce.logger.Debug("run failed", zap.Error(err))
		return sys.ExitStatus{}, err
	}
	ce.logger.Debug("run exited", zap.Stringer("status", status))
	return status, nil
}

// resolveImports maps each function import to the host function of the same name. The import module is not
// consulted: guests compiled for wasi_snapshot_preview1 use that name, and there is nothing else to link against.
func resolveImports(m *wasm.Module) ([]wasip1.HostFunction, error) {
	ret := make([]wasip1.HostFunction, 0, len(m.ImportSection))
	for _, im := range m.ImportSection {
		if im.Type != wasm.ExternTypeFunc {
			continue
		}
		f, ok := wasip1.LookupHostFunction(im.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", wasm.ErrUnknownImport, im.Module, im.Name)
		}
		if int(im.DescFunc) >= len(m.TypeSection) {
			return nil, fmt.Errorf("%w: type[%d] of import %s.%s", wasm.ErrInvalidIndex, im.DescFunc, im.Module, im.Name)
		}
		// A wrong count would pop or leave operands the guest did not declare.
		if ft := m.TypeSection[im.DescFunc]; len(ft.Params) != f.ParamCount() || len(ft.Results) != f.ResultCount() {
			return nil, fmt.Errorf("%w: %s.%s: %s", wasm.ErrImportSignatureMismatch, im.Module, im.Name, ft)
		}
		ret = append(ret, f)
	}
	return ret, nil
}

func checkStartSignature(m *wasm.Module, codeIndex wasm.Index) error {
	if int(codeIndex) >= len(m.FunctionSection) {
		return nil // hand-built modules may omit the function section
	}
	typeIndex := m.FunctionSection[codeIndex]
	if int(typeIndex) >= len(m.TypeSection) {
		return fmt.Errorf("%w: type[%d] of the start function", wasm.ErrInvalidIndex, typeIndex)
	}
	if t := m.TypeSection[typeIndex]; len(t.Params) > 0 || len(t.Results) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedStartSignature, t)
	}
	return nil
}

func (ce *callEngine) run() (sys.ExitStatus, error) {
	for ce.exit == nil {
		if ce.pc >= uint64(len(ce.body)) {
			// Only reachable by a hand-built body missing its final end.
			return sys.ExitStatus{Reason: sys.ExitEnd}, nil
		}

		at := ce.pc
		op := ce.body[at]
		if ce.trace {
			ce.logger.Debug("exec",
				zap.Uint64("pc", at),
				zap.String("op", wasm.InstructionName(op)),
				zap.Int("operands", ce.operands.len()),
				zap.Int("labels", ce.labels.len()))
		}

		fn := instructions[op]
		if fn == nil {
			return sys.ExitStatus{}, fmt.Errorf("%w: %s at %#x", wasm.ErrUnimplementedOpcode, wasm.InstructionName(op), at)
		}
		ce.pc++
		if err := fn(ce); err != nil {
			return sys.ExitStatus{}, fmt.Errorf("%s at %#x: %w", wasm.InstructionName(op), at, err)
		}
	}
	return *ce.exit, nil
}

func (ce *callEngine) stop(reason sys.ExitReason, code uint32) {
	ce.exit = &sys.ExitStatus{Reason: reason, Code: code}
}

func (ce *callEngine) readByte() (byte, error) {
	if ce.pc >= uint64(len(ce.body)) {
		return 0, ErrTruncatedInstruction
	}
	b := ce.body[ce.pc]
	ce.pc++
	return b, nil
}

func (ce *callEngine) readUint32() (uint32, error) {
	v, n, err := leb128.LoadUint32(ce.body[ce.pc:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncatedInstruction, err)
	}
	ce.pc += n
	return v, nil
}

func (ce *callEngine) readInt32() (int32, error) {
	v, n, err := leb128.LoadInt32(ce.body[ce.pc:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncatedInstruction, err)
	}
	ce.pc += n
	return v, nil
}

func (ce *callEngine) readInt64() (int64, error) {
	v, n, err := leb128.LoadInt64(ce.body[ce.pc:])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTruncatedInstruction, err)
	}
	ce.pc += n
	return v, nil
}

// instructions dispatches each implemented opcode. A nil entry is an unimplemented opcode.
//
// Each function is called with pc past the opcode, and leaves pc at the next instruction to execute.
var instructions = [256]func(ce *callEngine) error{
	wasm.OpcodeUnreachable: unreachable,
	wasm.OpcodeNop:         func(*callEngine) error { return nil },
	wasm.OpcodeBlock:       block,
	wasm.OpcodeLoop:        loop,
	wasm.OpcodeEnd:         end,
	wasm.OpcodeBr:          br,
	wasm.OpcodeBrIf:        brIf,
	wasm.OpcodeCall:        call,
	wasm.OpcodeDrop:        drop,
	wasm.OpcodeLocalGet:    localGet,
	wasm.OpcodeLocalSet:    localSet,
	wasm.OpcodeLocalTee:    localTee,
	wasm.OpcodeGlobalGet:   globalGet,
	wasm.OpcodeGlobalSet:   globalSet,
	wasm.OpcodeI32Load:     i32Load,
	wasm.OpcodeI64Load:     i64Load,
	wasm.OpcodeI32Store:    i32Store,
	wasm.OpcodeI64Store:    i64Store,
	wasm.OpcodeI32Store8:   i32Store8,
	wasm.OpcodeI32Store16:  i32Store16,
	wasm.OpcodeI32Const:    i32ConstOp,
	wasm.OpcodeI64Const:    i64ConstOp,
	wasm.OpcodeI32Eqz:      i32Eqz,
	wasm.OpcodeI32Eq:       i32Eq,
	wasm.OpcodeI32Ne:       i32Ne,
	wasm.OpcodeI32LtS:      i32LtS,
	wasm.OpcodeI32GtS:      i32GtS,
	wasm.OpcodeI32Add:      i32Add,
	wasm.OpcodeI32Sub:      i32Sub,
	wasm.OpcodeI32Mul:      i32Mul,
	wasm.OpcodeI64Add:      i64Add,
	wasm.OpcodeI64Sub:      i64Sub,
}
