package bench

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	wazerosys "github.com/tetratelabs/wazero/sys"

	"github.com/r00ster91/wasmos"
	"github.com/r00ster91/wasmos/internal/leb128"
	"github.com/r00ster91/wasmos/internal/testing/binaryencoding"
	"github.com/r00ster91/wasmos/internal/wasip1"
	"github.com/r00ster91/wasmos/internal/wasm"
)

var (
	i32              = wasm.ValueTypeI32
	i32_v            = &wasm.FunctionType{Params: []wasm.ValueType{i32}}
	v_v              = &wasm.FunctionType{}
	i32i32i32i32_i32 = &wasm.FunctionType{Params: []wasm.ValueType{i32, i32, i32, i32}, Results: []wasm.ValueType{i32}}
)

func i32Const(v int32) []byte {
	return append([]byte{wasm.OpcodeI32Const}, leb128.EncodeInt32(v)...)
}

func concat(parts ...[]byte) (ret []byte) {
	for _, p := range parts {
		ret = append(ret, p...)
	}
	return
}

// loopGuest counts its i32 local up to iterations, calling fd_write of one byte each time if write is true, then
// calls proc_exit(0).
func loopGuest(iterations int32, write bool) []byte {
	var call []byte
	if write {
		call = concat(i32Const(1), i32Const(16), i32Const(1), i32Const(24), []byte{wasm.OpcodeCall, 0, wasm.OpcodeDrop})
	}
	body := concat(
		i32Const(16), i32Const(0), []byte{wasm.OpcodeI32Store, 2, 0},
		i32Const(20), i32Const(1), []byte{wasm.OpcodeI32Store, 2, 0},
		[]byte{wasm.OpcodeLoop, wasm.BlockTypeEmpty},
		call,
		[]byte{wasm.OpcodeLocalGet, 0}, i32Const(1), []byte{wasm.OpcodeI32Add, wasm.OpcodeLocalTee, 0},
		i32Const(iterations), []byte{wasm.OpcodeI32LtS, wasm.OpcodeBrIf, 0},
		[]byte{wasm.OpcodeEnd},
		i32Const(0), []byte{wasm.OpcodeCall, 1, wasm.OpcodeEnd},
	)

	return binaryencoding.EncodeModule(&wasm.Module{
		TypeSection: []*wasm.FunctionType{v_v, i32_v, i32i32i32i32_i32},
		ImportSection: []*wasm.Import{
			{Type: wasm.ExternTypeFunc, Module: wasip1.InternalModuleName, Name: wasip1.FdWriteName, DescFunc: 2},
			{Type: wasm.ExternTypeFunc, Module: wasip1.InternalModuleName, Name: wasip1.ProcExitName, DescFunc: 1},
		},
		FunctionSection: []wasm.Index{0},
		MemorySection:   []*wasm.Memory{{Min: 1, Max: 1, IsMaxEncoded: true}},
		ExportSection: []*wasm.Export{
			{Type: wasm.ExternTypeMemory, Name: "memory", Index: 0},
			{Type: wasm.ExternTypeFunc, Name: wasm.StartFunctionName, Index: 2},
		},
		CodeSection: []*wasm.Code{{Locals: []wasm.LocalGroup{{Count: 1, Type: i32}}, Body: body}},
		DataSection: []*wasm.DataSegment{{
			OffsetExpression: &wasm.ConstantExpression{Opcode: wasm.OpcodeI32Const, Data: leb128.EncodeInt32(0)},
			Init:             []byte("."),
		}},
	})
}

func BenchmarkRun(b *testing.B) {
	for _, tc := range []struct {
		name       string
		iterations int32
		write      bool
	}{
		{name: "loop", iterations: 10000},
		{name: "fd_write", iterations: 1000, write: true},
	} {
		bin := loopGuest(tc.iterations, tc.write)
		b.Run(fmt.Sprintf("wasmos/%s_%d", tc.name, tc.iterations), func(b *testing.B) {
			benchmarkWasmos(b, bin)
		})
		b.Run(fmt.Sprintf("wazero/%s_%d", tc.name, tc.iterations), func(b *testing.B) {
			benchmarkWazero(b, bin)
		})
	}
}

func benchmarkWasmos(b *testing.B, bin []byte) {
	ctx := context.Background()
	// Limited output keeps the write benchmark from growing the heap across iterations.
	r := wasmos.NewRuntimeWithConfig(wasmos.NewRuntimeConfig().WithOutputLimit(1 << 20))
	compiled, err := r.Compile(bin)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err = r.Run(ctx, compiled); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkWazero(b *testing.B, bin []byte) {
	ctx := context.Background()
	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, r)

	compiled, err := r.CompileModule(ctx, bin)
	if err != nil {
		b.Fatal(err)
	}
	config := wazero.NewModuleConfig().WithName("")

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err = r.InstantiateModule(ctx, compiled, config)
		var exitErr *wazerosys.ExitError
		if err != nil && !(errors.As(err, &exitErr) && exitErr.ExitCode() == 0) {
			b.Fatal(err)
		}
	}
}
