package diskcache_test

import (
	"reflect"
	"testing"

	"github.com/giantswarm/diskcache"
)

// TestStrategyMethodNames is a canary for methods added to Strategy, which
// would expand the public API.
func TestStrategyMethodNames(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"IsValid": true,
		"String":  true,
	}

	typ := reflect.TypeFor[diskcache.Strategy]()
	if typ.NumMethod() != len(want) {
		t.Errorf("Strategy has %d methods, expected %d", typ.NumMethod(), len(want))
	}
	for i := range typ.NumMethod() {
		name := typ.Method(i).Name
		if !want[name] {
			t.Errorf("unexpected method %q on Strategy", name)
		}
	}
}

func TestStrategy(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		strategy diskcache.Strategy
		valid    bool
		str      string
	}{
		"local":    {strategy: diskcache.StrategyLocal, valid: true, str: "StrategyLocal"},
		"remote":   {strategy: diskcache.StrategyRemote, valid: true, str: "StrategyRemote"},
		"tarball":  {strategy: diskcache.StrategyTarball, valid: true, str: "StrategyTarball"},
		"unknown":  {strategy: diskcache.Strategy(42), valid: false, str: "Strategy(42)"},
		"negative": {strategy: diskcache.Strategy(-1), valid: false, str: "Strategy(-1)"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.strategy.IsValid(); got != tc.valid {
				t.Errorf("IsValid() = %v, want %v", got, tc.valid)
			}
			if got := tc.strategy.String(); got != tc.str {
				t.Errorf("String() = %q, want %q", got, tc.str)
			}
		})
	}
}

func TestDefaultStrategyIsLocal(t *testing.T) {
	t.Parallel()

	c, err := diskcache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.Strategy() != diskcache.StrategyLocal {
		t.Errorf("Strategy() = %v, want StrategyLocal", c.Strategy())
	}

	r, err := diskcache.NewRemote(t.TempDir(), diskcache.WithStrategy(diskcache.StrategyTarball))
	if err != nil {
		t.Fatal(err)
	}
	if r.Strategy() != diskcache.StrategyRemote {
		t.Errorf("NewRemote Strategy() = %v, want StrategyRemote", r.Strategy())
	}
}
