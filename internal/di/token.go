package di

import "fmt"

// Token is a typed service key.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token for name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service, panicking on a type mismatch.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	v := sr.Get(t.name)
	typed, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: service %q has type %T, want %T", t.name, v, zero))
	}
	return typed
}
