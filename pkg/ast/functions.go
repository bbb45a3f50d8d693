package ast

import (
	"fmt"
	"sort"

	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Param is a formal parameter of a function definition.
type Param struct {
	Type types.ValueType
	Name string
}

// FunctionDef is a declared function. There is no return value mechanism;
// ReturnType is recorded but not enforced.
type FunctionDef struct {
	Name       string
	ReturnType types.ValueType
	Params     []Param
	Body       *Block
	Line       int
}

// FunctionTable holds function definitions keyed by name. It is filled once
// by the parser and read by the interpreter.
type FunctionTable struct {
	funcs map[string]*FunctionDef
}

// NewFunctionTable creates an empty function table.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{funcs: make(map[string]*FunctionDef)}
}

// Define registers fn. Redefinition is a RedeclarationError and keeps the
// first definition.
func (t *FunctionTable) Define(fn *FunctionDef) error {
	if _, exists := t.funcs[fn.Name]; exists {
		return types.NewRedeclarationError(fmt.Sprintf("Function identifier '%s' already declared.", fn.Name))
	}
	t.funcs[fn.Name] = fn
	return nil
}

// Lookup returns the definition named name.
func (t *FunctionTable) Lookup(name string) (*FunctionDef, bool) {
	fn, ok := t.funcs[name]
	return fn, ok
}

// Names returns the defined function names in sorted order.
func (t *FunctionTable) Names() []string {
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined functions.
func (t *FunctionTable) Len() int {
	return len(t.funcs)
}
