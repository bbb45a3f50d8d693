// Package pipeline runs a jpp program through its stages: parse, semantic
// check, then interpretation. The first stage that reports errors ends the
// run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lemonberrylabs/jpp/pkg/ast"
	"github.com/lemonberrylabs/jpp/pkg/parser"
	"github.com/lemonberrylabs/jpp/pkg/runtime"
	"github.com/lemonberrylabs/jpp/pkg/semantic"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Stage names the last stage a run reached.
type Stage string

const (
	StageParse Stage = "PARSE"
	StageCheck Stage = "CHECK"
	StageRun   Stage = "RUN"
	StageDone  Stage = "DONE"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitProgramError = 64 // parser or semantic errors
	ExitRuntimeError = 70
)

// Options configures every stage of a run.
type Options struct {
	Checker     semantic.Options
	Interpreter runtime.Options

	// Out, when set, receives program output as it is printed, in addition
	// to Result.Output.
	Out io.Writer
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Checker:     semantic.DefaultOptions(),
		Interpreter: runtime.DefaultOptions(),
	}
}

// Result is the outcome of a run.
type Result struct {
	Stage    Stage
	Program  *ast.Program
	Errors   types.ErrorList
	Output   string
	ExitCode int
	Steps    int
}

// Failed reports whether any stage produced errors.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Run parses, checks and executes source.
func Run(ctx context.Context, source string, opts Options) *Result {
	res := Check(source, opts.Checker)
	if res.Failed() {
		return res
	}

	var out strings.Builder
	var w io.Writer = &out
	if opts.Out != nil {
		w = io.MultiWriter(&out, opts.Out)
	}

	res.Stage = StageRun
	in := runtime.New(res.Program, w, opts.Interpreter)
	err := in.Execute(ctx)
	res.Output = out.String()
	res.Steps = in.StepCount()
	if err != nil {
		res.Errors = in.Errors()
		res.ExitCode = ExitRuntimeError
		return res
	}
	res.Stage = StageDone
	return res
}

// Check parses and checks source without executing it. A successful result
// has Stage StageCheck.
func Check(source string, opts semantic.Options) *Result {
	res := Parse(source)
	if res.Failed() {
		return res
	}
	res.Stage = StageCheck
	if errs := semantic.New(opts).Check(res.Program); len(errs) > 0 {
		res.Errors = errs
		res.ExitCode = ExitProgramError
	}
	return res
}

// Parse only parses source.
func Parse(source string) *Result {
	res := &Result{Stage: StageParse}
	prog, err := parser.Parse(source)
	res.Program = prog
	if err != nil {
		res.Errors = toList(err)
		res.ExitCode = ExitProgramError
	}
	return res
}

func toList(err error) types.ErrorList {
	if list, ok := err.(types.ErrorList); ok {
		return list
	}
	return types.ErrorList{types.AsError(err)}
}

// Header returns the report heading for errors raised in stage.
func Header(stage Stage) string {
	switch stage {
	case StageParse:
		return "Parser Errors:"
	case StageCheck:
		return "Semantic Analysis Error:"
	default:
		return "Runtime Errors"
	}
}

// Report writes the stage heading and one line per error. It writes nothing
// for a successful result.
func Report(w io.Writer, res *Result) error {
	if !res.Failed() {
		return nil
	}
	if _, err := fmt.Fprintln(w, Header(res.Stage)); err != nil {
		return err
	}
	for _, e := range res.Errors {
		if _, err := fmt.Fprintln(w, FormatError(e)); err != nil {
			return err
		}
	}
	return nil
}

// FormatError renders e with its line when known.
func FormatError(e *types.Error) string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}
