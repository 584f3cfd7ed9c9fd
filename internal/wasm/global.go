package wasm

import "fmt"

// GlobalInstance is the runtime state of one Module.GlobalSection entry.
type GlobalInstance struct {
	Type *GlobalType
	Val  Value
}

// Get returns the current value.
func (g *GlobalInstance) Get() Value {
	return g.Val
}

// Set replaces the current value. The value is left unchanged on error.
func (g *GlobalInstance) Set(v Value) error {
	if !g.Type.Mutable {
		return ErrImmutableGlobal
	}
	if v.Kind() != g.Type.ValType {
		return fmt.Errorf("%w: global is %s, but value is %s",
			ErrKindMismatch, ValueTypeName(g.Type.ValType), ValueTypeName(v.Kind()))
	}
	g.Val = v
	return nil
}

// String implements fmt.Stringer
func (g *GlobalInstance) String() string {
	if g.Type.Mutable {
		return fmt.Sprintf("global(mut %s)", g.Val)
	}
	return fmt.Sprintf("global(%s)", g.Val)
}
