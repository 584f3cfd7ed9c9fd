package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalInstance_Set(t *testing.T) {
	t.Run("mutable", func(t *testing.T) {
		g := &GlobalInstance{Type: &GlobalType{ValType: ValueTypeI32, Mutable: true}, Val: ValueI32(1)}
		require.NoError(t, g.Set(ValueI32(2)))
		require.Equal(t, ValueI32(2), g.Get())
	})

	t.Run("immutable", func(t *testing.T) {
		g := &GlobalInstance{Type: &GlobalType{ValType: ValueTypeI32}, Val: ValueI32(1)}
		err := g.Set(ValueI32(2))
		require.ErrorIs(t, err, ErrImmutableGlobal)
		require.EqualError(t, err, "mutating non-mutable global")
		require.Equal(t, ValueI32(1), g.Get())
	})

	t.Run("wrong kind", func(t *testing.T) {
		g := &GlobalInstance{Type: &GlobalType{ValType: ValueTypeI32, Mutable: true}, Val: ValueI32(1)}
		err := g.Set(ValueI64(2))
		require.ErrorIs(t, err, ErrKindMismatch)
		require.Equal(t, ValueI32(1), g.Get())
	})
}

func TestGlobalInstance_String(t *testing.T) {
	require.Equal(t, "global(i32(3))",
		(&GlobalInstance{Type: &GlobalType{ValType: ValueTypeI32}, Val: ValueI32(3)}).String())
	require.Equal(t, "global(mut i32(3))",
		(&GlobalInstance{Type: &GlobalType{ValType: ValueTypeI32, Mutable: true}, Val: ValueI32(3)}).String())
}
