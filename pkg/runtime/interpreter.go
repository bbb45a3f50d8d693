// Package runtime implements the jpp tree-walking interpreter.
package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/scope"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// DefaultMaxCallDepth is the call depth limit used when Options leaves it 0.
const DefaultMaxCallDepth = 256

// Options tunes interpreter behaviour.
type Options struct {
	// PopBlockScopes makes every plain block discard its scope on exit.
	// When false, plain block scopes stay on the stack after the block
	// runs. Function bodies are popped by their call either way.
	PopBlockScopes bool

	// MaxCallDepth bounds nested function calls.
	MaxCallDepth int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{PopBlockScopes: true, MaxCallDepth: DefaultMaxCallDepth}
}

// Interpreter executes a parsed program against its own scope stack.
type Interpreter struct {
	program *ast.Program
	opts    Options
	out     io.Writer

	scopes *scope.Stack

	// pending holds the parameter bindings of a call until the called
	// body block opens its scope.
	pending []scope.Variable

	callDepth int
	stepCount int
	errors    types.ErrorList
}

// New creates an interpreter that prints to out.
func New(program *ast.Program, out io.Writer, opts Options) *Interpreter {
	if opts.MaxCallDepth <= 0 {
		opts.MaxCallDepth = DefaultMaxCallDepth
	}
	if program.Functions == nil {
		program.Functions = ast.NewFunctionTable()
	}
	return &Interpreter{
		program: program,
		opts:    opts,
		out:     out,
		scopes:  scope.NewStack(),
	}
}

// Execute runs the top-level statements in order. The first runtime error
// halts the run; it is recorded and returned inside a types.ErrorList.
func (in *Interpreter) Execute(ctx context.Context) error {
	for _, stmt := range in.program.Statements {
		if err := in.exec(ctx, stmt); err != nil {
			in.errors = append(in.errors, types.AsError(err))
			return in.errors
		}
	}
	return nil
}

// Errors returns the runtime errors recorded so far.
func (in *Interpreter) Errors() types.ErrorList {
	return in.errors
}

// StepCount returns the number of statements executed.
func (in *Interpreter) StepCount() int {
	return in.stepCount
}

// ScopeDepth returns the number of scopes currently on the stack.
func (in *Interpreter) ScopeDepth() int {
	return in.scopes.Depth()
}

// Lookup returns the current value of the innermost variable named name.
func (in *Interpreter) Lookup(name string) (types.Value, bool) {
	v, ok := in.scopes.Lookup(name)
	if !ok {
		return types.Null, false
	}
	return v.Value, true
}

// exec runs one statement.
func (in *Interpreter) exec(ctx context.Context, stmt ast.Node) error {
	select {
	case <-ctx.Done():
		return types.NewCancelledError(ctx.Err()).AtLine(ast.LineOf(stmt))
	default:
	}
	in.stepCount++

	_, err := in.eval(ctx, stmt)
	return err
}

// eval evaluates any node. Statements evaluate to void.
func (in *Interpreter) eval(ctx context.Context, node ast.Node) (types.Value, error) {
	var (
		v   types.Value
		err error
	)
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return n.Value, nil
	case *ast.BoolLiteral:
		return types.NewBool(n.Value), nil
	case *ast.StringLiteral:
		return types.NewString(n.Value), nil
	case *ast.Identifier:
		var variable *scope.Variable
		if variable, err = in.scopes.Get(n.Name); err == nil {
			v = variable.Value
		}
	case *ast.UnaryOp:
		v, err = in.evalUnary(ctx, n)
	case *ast.BinaryOp:
		v, err = in.evalBinary(ctx, n)
	case *ast.VarDeclaration:
		v, err = types.Void, in.execDeclaration(ctx, n)
	case *ast.VarAssignment:
		v, err = types.Void, in.execAssignment(ctx, n)
	case *ast.PrintStatement:
		v, err = types.Void, in.execPrint(ctx, n)
	case *ast.IfStatement:
		v, err = types.Void, in.execIf(ctx, n)
	case *ast.Block:
		err = in.runBlock(ctx, n)
		if in.opts.PopBlockScopes {
			in.scopes.Pop()
		}
		v = types.Void
	case *ast.FunctionCall:
		v, err = in.call(ctx, n)
	default:
		return types.Null, fmt.Errorf("unsupported node type %s", ast.TypeName(node))
	}
	if err != nil {
		e := types.AsError(err)
		if e.Line == 0 {
			e.Line = ast.LineOf(node)
		}
		return types.Null, e
	}
	return v, nil
}

func (in *Interpreter) execDeclaration(ctx context.Context, n *ast.VarDeclaration) error {
	value := types.Null
	if n.Init != nil {
		v, err := in.eval(ctx, n.Init)
		if err != nil {
			return err
		}
		value = v
	}
	return in.scopes.Declare(scope.Variable{Name: n.Name, Type: n.Type, Value: value})
}

func (in *Interpreter) execAssignment(ctx context.Context, n *ast.VarAssignment) error {
	v, err := in.eval(ctx, n.Value)
	if err != nil {
		return err
	}
	return in.scopes.Assign(n.Name, v)
}

func (in *Interpreter) execPrint(ctx context.Context, n *ast.PrintStatement) error {
	v, err := in.eval(ctx, n.Expr)
	if err != nil {
		return err
	}
	switch t := v.Type(); {
	case t.IsNumeric(), t == types.TypeBool, t == types.TypeString, t == types.TypeNull:
	default:
		return types.NewTypeError(fmt.Sprintf("Invalid expression (found: %s) in print statement.", t))
	}
	if _, err := io.WriteString(in.out, v.String()); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (in *Interpreter) execIf(ctx context.Context, n *ast.IfStatement) error {
	cond, err := in.eval(ctx, n.Cond)
	if err != nil {
		return err
	}
	run, err := truthy(cond)
	if err != nil {
		return err
	}
	if !run {
		return nil
	}
	_, err = in.eval(ctx, n.Body)
	return err
}

// truthy reports whether an if condition holds: bool true, or a number
// exactly equal to 1 at its own width.
func truthy(v types.Value) (bool, error) {
	t := v.Type()
	switch {
	case t == types.TypeBool:
		return v.AsBool(), nil
	case t.IsInteger():
		return v.IntegerBits() == 1, nil
	case t == types.TypeFloat || t == types.TypeDouble:
		return v.FloatBits() == 1, nil
	}
	return false, types.NewTypeError(fmt.Sprintf("If expressions must return a bool (found type '%s')", t))
}

// runBlock opens a scope seeded with any pending parameters and runs the
// block's statements. It never pops the scope; the caller decides.
func (in *Interpreter) runBlock(ctx context.Context, b *ast.Block) error {
	params := in.pending
	in.pending = nil
	in.scopes.Push(params...)
	for _, stmt := range b.Statements {
		if err := in.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// call runs a function body with its arguments bound positionally and pops
// the body scope exactly once on return. Calls evaluate to void.
func (in *Interpreter) call(ctx context.Context, n *ast.FunctionCall) (types.Value, error) {
	fn, ok := in.program.Functions.Lookup(n.Name)
	if !ok {
		return types.Null, types.NewNameError(fmt.Sprintf("Function identifier '%s' not declared.", n.Name))
	}
	if len(fn.Params) != len(n.Args) {
		return types.Null, types.NewArityError(fmt.Sprintf("Function '%s' expects %d argument(s), got %d", fn.Name, len(fn.Params), len(n.Args)))
	}
	if in.callDepth >= in.opts.MaxCallDepth {
		return types.Null, types.NewRecursionError(in.opts.MaxCallDepth)
	}

	bindings := make([]scope.Variable, len(fn.Params))
	for i, param := range fn.Params {
		arg, err := in.eval(ctx, n.Args[i])
		if err != nil {
			return types.Null, err
		}
		if t := arg.Type(); !t.IsNumeric() && t != types.TypeBool {
			return types.Null, types.NewTypeError(fmt.Sprintf("Function '%s' has an invalid argument: %s", fn.Name, t))
		}
		bindings[i] = scope.Variable{Name: param.Name, Type: param.Type, Value: arg}
	}

	in.callDepth++
	defer func() { in.callDepth-- }()

	in.pending = bindings
	err := in.runBlock(ctx, fn.Body)
	in.scopes.Pop()
	if err != nil {
		return types.Null, err
	}
	return types.Void, nil
}
