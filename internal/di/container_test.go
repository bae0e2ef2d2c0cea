package di

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type greeter struct{ name string }

func TestContainer_FactoryIsLazySingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[*greeter]("test.greeter")

	var calls atomic.Int32
	RegisterToken(c, tok, func(sr ServiceRegistry) *greeter {
		calls.Add(1)
		return &greeter{name: sr.Get("name").(string)}
	})
	c.Register("name", "triarb")

	if calls.Load() != 0 {
		t.Fatalf("factory should not run before first Get")
	}

	var wg sync.WaitGroup
	results := make([]*greeter, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = GetToken(c, tok)
		}(i)
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected factory to run once, ran %d times", calls.Load())
	}
	for _, g := range results {
		if g != results[0] {
			t.Fatalf("expected the same instance for every Get")
		}
	}
	if results[0].name != "triarb" {
		t.Errorf("expected dependency to resolve, got %q", results[0].name)
	}
}

func TestContainer_Has(t *testing.T) {
	c := NewContainer()
	c.Register("config", 1)

	if !c.Has("config") {
		t.Errorf("expected config to be registered")
	}
	if c.Has("missing") {
		t.Errorf("expected missing to be unregistered")
	}
}

func TestContainer_PanicsOnMissing(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for unregistered service")
		}
		if !strings.Contains(r.(string), "missing") {
			t.Errorf("panic should name the service, got %v", r)
		}
	}()

	NewContainer().Get("missing")
}

func TestGetToken_PanicsOnTypeMismatch(t *testing.T) {
	c := NewContainer()
	c.Register("test.greeter", "not a greeter")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for type mismatch")
		}
	}()

	GetToken(c, NewToken[*greeter]("test.greeter"))
}
