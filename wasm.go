// Package wasmos runs the "_start" function of a WebAssembly 1.0 (20191205) binary, with a minimal subset of
// wasi_snapshot_preview1 for output and sleeping.
//
// Ex.
//
//	r := wasmos.NewRuntime()
//	compiled, _ := r.Compile(wasmBytes)
//	status, _ := r.Run(ctx, compiled)
//	fmt.Printf("%s", r.FileTable().Bytes(1))
package wasmos

import (
	"context"
	"errors"
	"fmt"

	"github.com/r00ster91/wasmos/internal/engine/interpreter"
	"github.com/r00ster91/wasmos/internal/wasip1"
	"github.com/r00ster91/wasmos/internal/wasm"
	"github.com/r00ster91/wasmos/internal/wasm/binary"
	"github.com/r00ster91/wasmos/sys"
)

// Runtime decodes and runs guests, which all write to the same sys.FileTable.
//
// Runtime is safe for concurrent use: each Run materializes its own globals, locals and memory.
type Runtime interface {
	// Compile decodes the WebAssembly binary, or errs if it is malformed or uses a section that is unsupported.
	//
	// Note: No partially decoded module is ever returned.
	Compile(binary []byte) (*CompiledModule, error)

	// Run instantiates the module and interprets its "_start" function until it ends, calls proc_exit or fails.
	//
	// The error is nil when the guest exits normally, even with a non-zero proc_exit status: the status is returned
	// instead. Any error is fatal to the run, but output appended before it stays in FileTable.
	Run(ctx context.Context, compiled *CompiledModule) (sys.ExitStatus, error)

	// FileTable returns the output of every run. It can be read while a run is in progress, for example from a
	// redraw loop on another goroutine.
	FileTable() *sys.FileTable
}

// NewRuntime returns a runtime with a configuration assigned by NewRuntimeConfig.
func NewRuntime() Runtime {
	return NewRuntimeWithConfig(NewRuntimeConfig())
}

// NewRuntimeWithConfig returns a runtime with the given configuration.
//
// A logger set with RuntimeConfig.WithLogger is shared by every Runtime in the process: the last runtime created with
// one replaces it. Runs already in progress keep logging to the logger they started with.
func NewRuntimeWithConfig(rConfig RuntimeConfig) Runtime {
	config := rConfig.(*runtimeConfig)
	if config.logger != nil {
		binary.SetLogger(config.logger.Named("binary"))
		wasm.SetLogger(config.logger.Named("wasm"))
		interpreter.SetLogger(config.logger.Named("interpreter"))
	}

	var opts []interpreter.Option
	if config.sleep != nil {
		opts = append(opts, interpreter.WithSleeper(config.sleep))
	}
	if config.closeOnContextDone {
		opts = append(opts, interpreter.WithCloseOnContextDone(true))
	}

	return &runtime{
		fds:  sys.NewLimitedFileTable(config.descriptors, config.outputLimit),
		opts: opts,
	}
}

// runtime allows decoupling of public interfaces from internal representation.
type runtime struct {
	fds  *sys.FileTable
	opts []interpreter.Option
}

// Compile implements Runtime.Compile
func (r *runtime) Compile(bin []byte) (*CompiledModule, error) {
	if bin == nil {
		return nil, errors.New("binary == nil")
	}

	m, err := binary.DecodeModule(bin)
	if err != nil {
		return nil, fmt.Errorf("invalid binary: %w", err)
	}
	return &CompiledModule{module: m}, nil
}

// Run implements Runtime.Run
func (r *runtime) Run(ctx context.Context, compiled *CompiledModule) (sys.ExitStatus, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	inst, err := wasm.Instantiate(compiled.module)
	if err != nil {
		return sys.ExitStatus{}, fmt.Errorf("instantiation failed: %w", err)
	}
	return interpreter.Run(ctx, compiled.module, inst, r.fds, r.opts...)
}

// FileTable implements Runtime.FileTable
func (r *runtime) FileTable() *sys.FileTable {
	return r.fds
}

// CompiledModule is a decoded module, ready to Run any number of times.
//
// The accessors summarize the module for diagnostics. None of them reflect the state of a run.
type CompiledModule struct {
	module *wasm.Module
}

// ImportedFunctions returns the "module.name" of each imported function, in import order.
func (c *CompiledModule) ImportedFunctions() []string {
	var ret []string
	for _, im := range c.module.ImportSection {
		ret = append(ret, im.Module+"."+im.Name)
	}
	return ret
}

// UnknownImports returns the imported functions no host function resolves: Run fails on such a module.
func (c *CompiledModule) UnknownImports() []string {
	var ret []string
	for _, im := range c.module.ImportSection {
		if _, ok := wasip1.LookupHostFunction(im.Name); !ok {
			ret = append(ret, im.Module+"."+im.Name)
		}
	}
	return ret
}

// ExportedNames returns the name of each export, in declaration order.
func (c *CompiledModule) ExportedNames() []string {
	var ret []string
	for _, exp := range c.module.ExportSection {
		ret = append(ret, exp.Name)
	}
	return ret
}

// HasStartFunction returns true if a function is exported as "_start".
func (c *CompiledModule) HasStartFunction() bool {
	_, err := c.module.StartFunction()
	return err == nil
}

// FunctionCount returns the count of functions defined in the module, excluding imports.
func (c *CompiledModule) FunctionCount() int {
	return len(c.module.FunctionSection)
}

// GlobalCount returns the count of globals defined in the module.
func (c *CompiledModule) GlobalCount() int {
	return len(c.module.GlobalSection)
}

// MemoryPages returns the initial page count of the memory, or false if the module declares none.
func (c *CompiledModule) MemoryPages() (uint32, bool) {
	if len(c.module.MemorySection) == 0 {
		return 0, false
	}
	return c.module.MemorySection[0].Min, true
}

// DataSegmentCount returns the count of data segments copied to memory when a run starts.
func (c *CompiledModule) DataSegmentCount() int {
	return len(c.module.DataSection)
}
