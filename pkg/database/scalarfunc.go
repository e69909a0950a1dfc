package database

import (
	"fmt"
	"sync"

	"github.com/latticedb/graphcore/pkg/gtype"
)

// ScalarFunction is one entry in the scalar-function dispatch table
// (spec.md §6 "extension hooks: registerScalarFunction with a typed
// dispatch contract"): Eval receives already-bound argument values and
// returns one result value, matching the StorageValue currency the rest
// of the execution layer uses.
type ScalarFunction struct {
	Name    string
	Args    []gtype.LogicalType
	Returns gtype.LogicalType
	Eval    func(args []gtype.StorageValue) (gtype.StorageValue, error)
}

// ScalarFunctionRegistry is the set of scalar functions a Database
// exposes to statement binding, seeded with a handful of built-ins and
// extendable via RegisterScalarFunction (spec.md §6 extension hook).
type ScalarFunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]ScalarFunction
}

func newScalarFunctionRegistry() *ScalarFunctionRegistry {
	r := &ScalarFunctionRegistry{funcs: make(map[string]ScalarFunction)}
	r.registerBuiltins()
	return r
}

func (r *ScalarFunctionRegistry) registerBuiltins() {
	r.funcs["abs_int64"] = ScalarFunction{
		Name:    "abs_int64",
		Args:    []gtype.LogicalType{gtype.Int64()},
		Returns: gtype.Int64(),
		Eval: func(args []gtype.StorageValue) (gtype.StorageValue, error) {
			n := args[0].Int64()
			if n < 0 {
				n = -n
			}
			return gtype.StorageValueFromInt64(n), nil
		},
	}
	r.funcs["add_int64"] = ScalarFunction{
		Name:    "add_int64",
		Args:    []gtype.LogicalType{gtype.Int64(), gtype.Int64()},
		Returns: gtype.Int64(),
		Eval: func(args []gtype.StorageValue) (gtype.StorageValue, error) {
			return gtype.StorageValueFromInt64(args[0].Int64() + args[1].Int64()), nil
		},
	}
}

// Register installs a new scalar function, failing if the name is
// already taken (spec.md §6: registration is the one mutable hook a
// host application calls before running statements).
func (r *ScalarFunctionRegistry) Register(fn ScalarFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[fn.Name]; exists {
		return fmt.Errorf("database: scalar function %q already registered", fn.Name)
	}
	r.funcs[fn.Name] = fn
	return nil
}

func (r *ScalarFunctionRegistry) Lookup(name string) (ScalarFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}
