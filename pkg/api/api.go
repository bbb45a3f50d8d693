// Package api implements the jpp HTTP JSON API: a store of saved programs
// that can be run on demand, plus stateless tokenize, check, run and ast
// endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/lemonberrylabs/jpp/pkg/config"
	"github.com/lemonberrylabs/jpp/pkg/dump"
	"github.com/lemonberrylabs/jpp/pkg/lexer"
	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/store"
	"github.com/lemonberrylabs/jpp/pkg/token"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

// Server is the jpp API server.
type Server struct {
	app        *fiber.App
	store      *store.Store
	opts       pipeline.Options
	runTimeout time.Duration
}

// New creates a new API server backed by s. A nil cfg uses config.Default.
func New(s *store.Store, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	srv := &Server{
		store:      s,
		opts:       cfg.PipelineOptions(),
		runTimeout: cfg.Server.RunTimeout,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	if cfg.Server.AccessLog {
		app.Use(logger.New())
	}

	// Programs API
	app.Post("/v1/programs", srv.createProgram)
	app.Get("/v1/programs", srv.listPrograms)
	app.Get("/v1/programs/:program", srv.getProgram)
	app.Patch("/v1/programs/:program", srv.updateProgram)
	app.Delete("/v1/programs/:program", srv.deleteProgram)

	// Runs API
	app.Post("/v1/programs/:program/runs", srv.createRun)
	app.Get("/v1/programs/:program/runs", srv.listRuns)
	app.Get("/v1/programs/:program/runs/:run", srv.getRun)

	// Stateless tools
	app.Post("/v1/tokenize", srv.tokenize)
	app.Post("/v1/check", srv.check)
	app.Post("/v1/run", srv.run)
	app.Post("/v1/ast", srv.ast)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// Execute runs source with the server's pipeline options, bounded by the
// configured run timeout.
func (s *Server) Execute(ctx context.Context, source string) *pipeline.Result {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	return pipeline.Run(ctx, source, s.opts)
}

func apiError(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return apiError(c, fiber.StatusConflict, "ALREADY_EXISTS", err.Error())
	}
	return apiError(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
}

// parseError rejects source that does not parse, listing every parser error.
func parseError(c *fiber.Ctx, res *pipeline.Result) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusBadRequest,
			"message": "invalid program: " + res.Errors.Error(),
			"status":  "INVALID_ARGUMENT",
			"details": res.Errors,
		},
	})
}

// --- Program Handlers ---

type programRequest struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

func (s *Server) createProgram(c *fiber.Ctx) error {
	programID := c.Query("programId")
	if programID == "" {
		return apiError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "programId query parameter is required")
	}
	if !store.ValidProgramID(programID) {
		return apiError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid programId %q", programID))
	}

	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if req.Source == "" {
		return apiError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", "source is required")
	}
	if res := pipeline.Parse(req.Source); res.Failed() {
		return parseError(c, res)
	}

	p, err := s.store.CreateProgram(programID, req.Source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(programToJSON(p))
}

func (s *Server) getProgram(c *fiber.Ctx) error {
	p, err := s.store.GetProgram(c.Params("program"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) listPrograms(c *fiber.Ctx) error {
	programs := s.store.ListPrograms()

	items := make([]fiber.Map, len(programs))
	for i, p := range programs {
		items[i] = programToJSON(p)
	}
	return c.JSON(fiber.Map{
		"programs": items,
	})
}

func (s *Server) updateProgram(c *fiber.Ctx) error {
	id := c.Params("program")

	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	source := req.Source
	if source == "" {
		current, err := s.store.GetProgram(id)
		if err != nil {
			return storeError(c, err)
		}
		source = current.Source
	} else if res := pipeline.Parse(req.Source); res.Failed() {
		return parseError(c, res)
	}

	p, err := s.store.UpdateProgram(id, source, req.Description)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) deleteProgram(c *fiber.Ctx) error {
	id := c.Params("program")
	if err := s.store.DeleteProgram(id); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{
		"name":    id,
		"deleted": true,
	})
}

// --- Run Handlers ---

func (s *Server) createRun(c *fiber.Ctx) error {
	id := c.Params("program")

	run, source, err := s.store.CreateRun(id)
	if err != nil {
		return storeError(c, err)
	}

	res := s.Execute(c.UserContext(), source)
	run, err = s.store.CompleteRun(id, run.Name, res)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(runToJSON(run))
}

func (s *Server) getRun(c *fiber.Ctx) error {
	run, err := s.store.GetRun(c.Params("program"), c.Params("run"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(runToJSON(run))
}

func (s *Server) listRuns(c *fiber.Ctx) error {
	id := c.Params("program")
	if _, err := s.store.GetProgram(id); err != nil {
		return storeError(c, err)
	}

	runs := s.store.ListRuns(id)
	items := make([]fiber.Map, len(runs))
	for i, r := range runs {
		items[i] = runToJSON(r)
	}
	return c.JSON(fiber.Map{
		"runs": items,
	})
}

// --- Stateless Handlers ---

type sourceRequest struct {
	Source string `json:"source"`
}

func invalidBody(c *fiber.Ctx, err error) error {
	return apiError(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
}

func (s *Server) tokenize(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	tokens := lexer.Tokenize(req.Source)
	items := make([]fiber.Map, len(tokens))
	for i, tok := range tokens {
		items[i] = tokenToJSON(tok)
	}
	return c.JSON(fiber.Map{
		"tokens": items,
	})
}

func (s *Server) check(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	res := pipeline.Check(req.Source, s.opts.Checker)
	return c.JSON(fiber.Map{
		"valid":  !res.Failed(),
		"stage":  res.Stage,
		"errors": errorsOrEmpty(res.Errors),
	})
}

func (s *Server) run(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	res := s.Execute(c.UserContext(), req.Source)
	return c.JSON(fiber.Map{
		"stage":    res.Stage,
		"output":   res.Output,
		"errors":   errorsOrEmpty(res.Errors),
		"exitCode": res.ExitCode,
		"steps":    res.Steps,
	})
}

func (s *Server) ast(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	res := pipeline.Parse(req.Source)
	if res.Failed() {
		return parseError(c, res)
	}
	return c.JSON(fiber.Map{
		"tree":      dump.String(res.Program),
		"functions": res.Program.Functions.Names(),
	})
}

// --- Directory Loading ---

// LoadDir deploys every .jpp file in dir as a program. The file name (sans
// extension, lowercased) becomes the program ID. Files that cannot be read,
// parsed or stored are skipped with a warning.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading programs directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".jpp" {
			continue
		}

		base := strings.TrimSuffix(name, ext)
		programID := strings.ToLower(base)
		if programID != base {
			log.Printf("Warning: lowercased program ID %q (from file %q)", programID, name)
		}
		if !store.ValidProgramID(programID) {
			log.Printf("Warning: skipping file %q: invalid program ID %q", name, programID)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}
		if res := pipeline.Parse(string(data)); res.Failed() {
			log.Printf("Warning: could not parse %q: %v", name, res.Errors)
			continue
		}
		if _, err := s.store.CreateProgram(programID, string(data), ""); err != nil {
			log.Printf("Warning: could not deploy %q: %v", name, err)
			continue
		}
		loaded++
		log.Printf("Loaded program %q from %s", programID, name)
	}

	log.Printf("Loaded %d program(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func errorsOrEmpty(errs types.ErrorList) types.ErrorList {
	if errs == nil {
		return types.ErrorList{}
	}
	return errs
}

func tokenToJSON(tok token.Token) fiber.Map {
	return fiber.Map{
		"kind": tok.Kind.Name(),
		"text": tok.Text,
		"pos":  tok.Pos,
		"line": tok.Line,
		"len":  tok.Len,
	}
}

func programToJSON(p *store.Program) fiber.Map {
	return fiber.Map{
		"name":        p.Name,
		"description": p.Description,
		"revisionId":  p.RevisionID,
		"createTime":  p.CreateTime.Format(time.RFC3339),
		"updateTime":  p.UpdateTime.Format(time.RFC3339),
		"source":      p.Source,
	}
}

func runToJSON(r *store.Run) fiber.Map {
	result := fiber.Map{
		"name":              r.Name,
		"program":           r.Program,
		"state":             r.State,
		"output":            r.Output,
		"exitCode":          r.ExitCode,
		"steps":             r.Steps,
		"startTime":         r.StartTime.Format(time.RFC3339),
		"programRevisionId": r.ProgramRevisionID,
	}
	if r.Stage != "" {
		result["stage"] = r.Stage
	}
	if len(r.Errors) > 0 {
		result["errors"] = r.Errors
	}
	if !r.EndTime.IsZero() {
		result["endTime"] = r.EndTime.Format(time.RFC3339)
	}
	return result
}
