package prom

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NetPo4ki/go-fiber/fiber"
)

func TestObserverCountsFiberLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(reg)
	rt := fiber.New(fiber.WithObserver(obs))
	defer rt.Close()

	ok := rt.Fork(func(*fiber.Turn) fiber.Result { return fiber.End(nil) })
	bad := rt.Fork(func(*fiber.Turn) fiber.Result { return fiber.Fail(errors.New("boom")) })
	ok.Await()
	bad.Await()

	if got := testutil.ToFloat64(obs.forks.WithLabelValues(fiber.ForkSupervised.String())); got != 2 {
		t.Fatalf("supervised forks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(obs.done.WithLabelValues(fiber.Success.String())); got != 1 {
		t.Fatalf("success completions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.done.WithLabelValues(fiber.Failure.String())); got != 1 {
		t.Fatalf("failure completions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.activeFibers); got != 0 {
		t.Fatalf("active gauge = %v, want 0", got)
	}
}

func TestObserverCountsScopes(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(reg)
	rt := fiber.New(fiber.WithObserver(obs))
	defer rt.Close()

	s := rt.NewScope()
	s.AddFinalizer(func() error { return errors.New("finalizer failed") })
	s.Close()

	if got := testutil.ToFloat64(obs.scopesCreated.WithLabelValues(fiber.RoleLocal.String())); got != 1 {
		t.Fatalf("local scopes created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.scopesCreated.WithLabelValues(fiber.RoleGlobal.String())); got != 1 {
		t.Fatalf("global scopes created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.scopeCloseErr); got != 1 {
		t.Fatalf("scope close errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(obs.openScopes); got != 1 {
		t.Fatalf("open scopes = %v, want 1 (global still open)", got)
	}
}
