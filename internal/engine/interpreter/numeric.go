package interpreter

import "github.com/r00ster91/wasmos/internal/wasm"

func i32ConstOp(ce *callEngine) error {
	v, err := ce.readInt32()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI32(v))
	return nil
}

func i64ConstOp(ce *callEngine) error {
	v, err := ce.readInt64()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI64(v))
	return nil
}

func i32Eqz(ce *callEngine) error {
	v, err := ce.operands.popI32()
	if err != nil {
		return err
	}
	ce.operands.pushBool(v == 0)
	return nil
}

// i32Compare pops two i32 operands and pushes 1 if cmp holds, 0 otherwise.
func i32Compare(ce *callEngine, cmp func(x1, x2 int32) bool) error {
	x1, x2, err := ce.operands.popI32Pair()
	if err != nil {
		return err
	}
	ce.operands.pushBool(cmp(x1, x2))
	return nil
}

func i32Eq(ce *callEngine) error {
	return i32Compare(ce, func(x1, x2 int32) bool { return x1 == x2 })
}

func i32Ne(ce *callEngine) error {
	return i32Compare(ce, func(x1, x2 int32) bool { return x1 != x2 })
}

func i32LtS(ce *callEngine) error {
	return i32Compare(ce, func(x1, x2 int32) bool { return x1 < x2 })
}

func i32GtS(ce *callEngine) error {
	return i32Compare(ce, func(x1, x2 int32) bool { return x1 > x2 })
}

// Arithmetic wraps on overflow, as Go's fixed-width integers do.

func i32Add(ce *callEngine) error {
	x1, x2, err := ce.operands.popI32Pair()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI32(x1 + x2))
	return nil
}

// i32Sub subtracts the value pushed last from the one pushed before it.
func i32Sub(ce *callEngine) error {
	x1, x2, err := ce.operands.popI32Pair()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI32(x1 - x2))
	return nil
}

func i32Mul(ce *callEngine) error {
	x1, x2, err := ce.operands.popI32Pair()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI32(x1 * x2))
	return nil
}

func i64Add(ce *callEngine) error {
	x1, x2, err := ce.operands.popI64Pair()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI64(x1 + x2))
	return nil
}

func i64Sub(ce *callEngine) error {
	x1, x2, err := ce.operands.popI64Pair()
	if err != nil {
		return err
	}
	ce.operands.push(wasm.ValueI64(x1 - x2))
	return nil
}
