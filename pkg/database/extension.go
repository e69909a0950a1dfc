package database

import (
	"fmt"
	"sync"

	"github.com/latticedb/graphcore/pkg/exec"
)

// TableFunction is a caller-supplied operator factory registered under a
// name, the extension-hook counterpart to scalar functions for
// operators that produce rows rather than compute one value (spec.md §6
// "registerTableFunction").
type TableFunction struct {
	Name string
	New  func(args []string) (exec.Operator, error)
}

// ExtensionOption is a named, host-settable knob a registered extension
// consults at statement-binding time (spec.md §6 "registerExtensionOption").
type ExtensionOption struct {
	Name         string
	DefaultValue string
}

// ExtensionRegistry holds every table function and extension option a
// Database exposes beyond its built-in scan/join statements.
type ExtensionRegistry struct {
	mu        sync.RWMutex
	tableFns  map[string]TableFunction
	options   map[string]ExtensionOption
	optionVal map[string]string
}

func newExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{
		tableFns:  make(map[string]TableFunction),
		options:   make(map[string]ExtensionOption),
		optionVal: make(map[string]string),
	}
}

func (r *ExtensionRegistry) RegisterTableFunction(fn TableFunction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tableFns[fn.Name]; exists {
		return fmt.Errorf("database: table function %q already registered", fn.Name)
	}
	r.tableFns[fn.Name] = fn
	return nil
}

func (r *ExtensionRegistry) TableFunction(name string) (TableFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tableFns[name]
	return fn, ok
}

func (r *ExtensionRegistry) RegisterExtensionOption(opt ExtensionOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.options[opt.Name]; exists {
		return fmt.Errorf("database: extension option %q already registered", opt.Name)
	}
	r.options[opt.Name] = opt
	r.optionVal[opt.Name] = opt.DefaultValue
	return nil
}

// SetOption updates a previously-registered option's active value.
func (r *ExtensionRegistry) SetOption(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.options[name]; !exists {
		return fmt.Errorf("database: extension option %q not registered", name)
	}
	r.optionVal[name] = value
	return nil
}

func (r *ExtensionRegistry) Option(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.optionVal[name]
	return v, ok
}
