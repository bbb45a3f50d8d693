// Package scope implements the lexical scope stack used by the parser, the
// semantic checker and the interpreter. Each stage owns its own Stack.
package scope

import (
	"fmt"

	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Variable is a declared identifier with its declared type and current value.
type Variable struct {
	Name  string
	Type  types.ValueType
	Value types.Value
}

// Env maps identifiers to the variables declared in one block.
type Env map[string]*Variable

// Stack is an ordered chain of scopes, innermost last. Lookups walk from the
// innermost scope outward; declarations always target the innermost scope.
// The zero value has no scopes; the first Declare opens one.
type Stack struct {
	envs []Env
}

// NewStack creates a stack holding a single global scope.
func NewStack() *Stack {
	s := &Stack{}
	s.Push()
	return s
}

// Push opens a new innermost scope pre-seeded with vars. Later entries
// replace earlier ones with the same name.
func (s *Stack) Push(vars ...Variable) {
	env := make(Env, len(vars))
	for i := range vars {
		v := vars[i]
		env[v.Name] = &v
	}
	s.envs = append(s.envs, env)
}

// Pop discards the innermost scope. Popping an empty stack is a no-op.
func (s *Stack) Pop() {
	if len(s.envs) == 0 {
		return
	}
	s.envs[len(s.envs)-1] = nil
	s.envs = s.envs[:len(s.envs)-1]
}

// Depth returns the number of open scopes.
func (s *Stack) Depth() int {
	return len(s.envs)
}

// Declare adds v to the innermost scope. Redeclaring a name in the same scope
// is a RedeclarationError and leaves the existing binding untouched.
func (s *Stack) Declare(v Variable) error {
	if len(s.envs) == 0 {
		s.Push()
	}
	env := s.envs[len(s.envs)-1]
	if _, exists := env[v.Name]; exists {
		return types.NewRedeclarationError(fmt.Sprintf("Identifier '%s' already declared.", v.Name))
	}
	env[v.Name] = &v
	return nil
}

// Lookup finds the innermost variable named name.
func (s *Stack) Lookup(name string) (*Variable, bool) {
	for i := len(s.envs) - 1; i >= 0; i-- {
		if v, ok := s.envs[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get returns the variable named name or a NameError.
func (s *Stack) Get(name string) (*Variable, error) {
	v, ok := s.Lookup(name)
	if !ok {
		return nil, types.NewNameError(fmt.Sprintf("Identifier '%s' not found.", name))
	}
	return v, nil
}

// Assign overwrites the value of the innermost variable named name in place.
func (s *Stack) Assign(name string, value types.Value) error {
	v, err := s.Get(name)
	if err != nil {
		return err
	}
	v.Value = value
	return nil
}

// DeclaredLocally reports whether name is declared in the innermost scope.
func (s *Stack) DeclaredLocally(name string) bool {
	if len(s.envs) == 0 {
		return false
	}
	_, ok := s.envs[len(s.envs)-1][name]
	return ok
}
