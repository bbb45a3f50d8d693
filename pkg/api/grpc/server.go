// Package grpcapi serves the jpp interpreter over gRPC. The service has no
// generated stubs: requests and responses are google.protobuf.Struct
// messages carrying the same fields as the HTTP API.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/jpp/pkg/lexer"
	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/store"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "jpp.v1.Interpreter"

// InterpreterServer is the server API of the jpp.v1.Interpreter service.
type InterpreterServer interface {
	Run(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Check(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Tokenize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunProgram(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Executor runs a program source to completion.
type Executor interface {
	Execute(ctx context.Context, source string) *pipeline.Result
}

// Server implements InterpreterServer over a store and an executor.
type Server struct {
	store  *store.Store
	exec   Executor
	opts   pipeline.Options
	health *health.Server
	grpc   *grpc.Server
}

// New creates a new gRPC server. exec bounds and runs programs; opts
// supplies the checker settings for Check.
func New(s *store.Store, exec Executor, opts pipeline.Options) *Server {
	srv := &Server{
		store:  s,
		exec:   exec,
		opts:   opts,
		health: health.NewServer(),
	}

	gs := grpc.NewServer()
	RegisterInterpreterServer(gs, srv)
	healthpb.RegisterHealthServer(gs, srv.health)
	srv.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop marks the service as not serving and stops the server once
// pending calls finish.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// --- Stateless Methods ---

func (s *Server) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res := s.exec.Execute(ctx, stringField(req, "source"))
	return newStruct(resultFields(res))
}

func (s *Server) Check(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res := pipeline.Check(stringField(req, "source"), s.opts.Checker)
	return newStruct(map[string]any{
		"valid":  !res.Failed(),
		"stage":  string(res.Stage),
		"errors": errorValues(res.Errors),
	})
}

func (s *Server) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tokens := lexer.Tokenize(stringField(req, "source"))
	items := make([]any, len(tokens))
	for i, tok := range tokens {
		items[i] = map[string]any{
			"kind": tok.Kind.Name(),
			"text": tok.Text,
			"pos":  tok.Pos,
			"line": tok.Line,
			"len":  tok.Len,
		}
	}
	return newStruct(map[string]any{"tokens": items})
}

// --- Program Methods ---

func (s *Server) CreateProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "programId")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "programId is required")
	}
	if !store.ValidProgramID(id) {
		return nil, status.Errorf(codes.InvalidArgument, "invalid programId %q", id)
	}
	source := stringField(req, "source")
	if source == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}
	if res := pipeline.Parse(source); res.Failed() {
		return nil, status.Errorf(codes.InvalidArgument, "invalid program: %v", res.Errors)
	}

	p, err := s.store.CreateProgram(id, source, stringField(req, "description"))
	if err != nil {
		return nil, storeStatus(err)
	}
	return newStruct(programFields(p))
}

func (s *Server) GetProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.store.GetProgram(stringField(req, "name"))
	if err != nil {
		return nil, storeStatus(err)
	}
	return newStruct(programFields(p))
}

func (s *Server) RunProgram(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "name")
	run, source, err := s.store.CreateRun(id)
	if err != nil {
		return nil, storeStatus(err)
	}

	run, err = s.store.CompleteRun(id, run.Name, s.exec.Execute(ctx, source))
	if err != nil {
		return nil, storeStatus(err)
	}

	fields := map[string]any{
		"name":              run.Name,
		"program":           run.Program,
		"state":             string(run.State),
		"stage":             string(run.Stage),
		"output":            run.Output,
		"errors":            errorValues(run.Errors),
		"exitCode":          run.ExitCode,
		"steps":             run.Steps,
		"programRevisionId": run.ProgramRevisionID,
		"startTime":         run.StartTime.Format(time.RFC3339),
		"endTime":           run.EndTime.Format(time.RFC3339),
	}
	return newStruct(fields)
}

// --- Helpers ---

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func storeStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func resultFields(res *pipeline.Result) map[string]any {
	return map[string]any{
		"stage":    string(res.Stage),
		"output":   res.Output,
		"errors":   errorValues(res.Errors),
		"exitCode": res.ExitCode,
		"steps":    res.Steps,
	}
}

func programFields(p *store.Program) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"source":      p.Source,
		"revisionId":  p.RevisionID,
		"createTime":  p.CreateTime.Format(time.RFC3339),
		"updateTime":  p.UpdateTime.Format(time.RFC3339),
	}
}

func errorValues(errs types.ErrorList) []any {
	items := make([]any, len(errs))
	for i, e := range errs {
		tags := make([]any, len(e.Tags))
		for j, tag := range e.Tags {
			tags[j] = tag
		}
		items[i] = map[string]any{
			"message": e.Message,
			"tags":    tags,
			"line":    e.Line,
		}
	}
	return items
}
