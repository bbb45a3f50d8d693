package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/jpp/pkg/config"
	"github.com/lemonberrylabs/jpp/pkg/store"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

func setupTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.AccessLog = false
	s := store.New()
	return New(s, cfg), s
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return resp.StatusCode, out
}

func errorStatus(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in %v", body)
	}
	return e["status"].(string)
}

func TestCreateAndGetProgram(t *testing.T) {
	srv, _ := setupTestServer(t)
	app := srv.App()

	code, body := doRequest(t, app, "POST", "/v1/programs?programId=sum",
		`{"source": "int f(int a, int b){print a + b;}f(2, 52);", "description": "adds"}`)
	if code != 200 {
		t.Fatalf("create: %d %v", code, body)
	}
	if body["name"] != "sum" || body["revisionId"] != "000001" {
		t.Errorf("create body = %v", body)
	}

	code, body = doRequest(t, app, "GET", "/v1/programs/sum", "")
	if code != 200 || body["description"] != "adds" {
		t.Errorf("get: %d %v", code, body)
	}

	code, body = doRequest(t, app, "GET", "/v1/programs", "")
	if code != 200 {
		t.Fatalf("list: %d", code)
	}
	if programs := body["programs"].([]any); len(programs) != 1 {
		t.Errorf("programs = %v", programs)
	}
}

func TestCreateProgramErrors(t *testing.T) {
	srv, s := setupTestServer(t)
	app := srv.App()
	s.CreateProgram("taken", "print 1;", "")

	tests := []struct {
		name   string
		path   string
		body   string
		code   int
		status string
	}{
		{"missing id", "/v1/programs", `{"source": "print 1;"}`, 400, "INVALID_ARGUMENT"},
		{"invalid id", "/v1/programs?programId=Bad%20Id", `{"source": "print 1;"}`, 400, "INVALID_ARGUMENT"},
		{"missing source", "/v1/programs?programId=p", `{}`, 400, "INVALID_ARGUMENT"},
		{"does not parse", "/v1/programs?programId=p", `{"source": "print 1"}`, 400, "INVALID_ARGUMENT"},
		{"exists", "/v1/programs?programId=taken", `{"source": "print 2;"}`, 409, "ALREADY_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doRequest(t, app, "POST", tt.path, tt.body)
			if code != tt.code {
				t.Errorf("code = %d, want %d (%v)", code, tt.code, body)
			}
			if got := errorStatus(t, body); got != tt.status {
				t.Errorf("status = %s, want %s", got, tt.status)
			}
		})
	}
}

func TestParseErrorsCarryDetails(t *testing.T) {
	srv, _ := setupTestServer(t)

	_, body := doRequest(t, srv.App(), "POST", "/v1/programs?programId=p", `{"source": "int x = ;"}`)
	e := body["error"].(map[string]any)
	details, ok := e["details"].([]any)
	if !ok || len(details) != 1 {
		t.Fatalf("details = %v", e["details"])
	}
	first := details[0].(map[string]any)
	if first["message"] != "Unexpected Semicolon Token" {
		t.Errorf("detail = %v", first)
	}
}

func TestUpdateAndDeleteProgram(t *testing.T) {
	srv, s := setupTestServer(t)
	app := srv.App()
	s.CreateProgram("p", "print 1;", "first")

	code, body := doRequest(t, app, "PATCH", "/v1/programs/p", `{"source": "print 2;"}`)
	if code != 200 || body["source"] != "print 2;" || body["description"] != "first" {
		t.Errorf("patch: %d %v", code, body)
	}

	code, body = doRequest(t, app, "PATCH", "/v1/programs/p", `{"description": "second"}`)
	if code != 200 || body["source"] != "print 2;" || body["description"] != "second" {
		t.Errorf("patch description: %d %v", code, body)
	}

	code, _ = doRequest(t, app, "PATCH", "/v1/programs/p", `{"source": "print"}`)
	if code != 400 {
		t.Errorf("patch with bad source: %d", code)
	}

	code, _ = doRequest(t, app, "DELETE", "/v1/programs/p", "")
	if code != 200 {
		t.Errorf("delete: %d", code)
	}

	code, body = doRequest(t, app, "GET", "/v1/programs/p", "")
	if code != 404 || errorStatus(t, body) != "NOT_FOUND" {
		t.Errorf("get after delete: %d %v", code, body)
	}

	code, _ = doRequest(t, app, "PATCH", "/v1/programs/p", `{"source": "print 3;"}`)
	if code != 404 {
		t.Errorf("patch missing program: %d", code)
	}
}

func TestRuns(t *testing.T) {
	srv, s := setupTestServer(t)
	app := srv.App()
	s.CreateProgram("sum", "int f(int a, int b){print a + b;}f(2, 52);", "")
	s.CreateProgram("bad", "print 1;\nprint 1 / 0;", "")

	code, body := doRequest(t, app, "POST", "/v1/programs/sum/runs", "")
	if code != 200 {
		t.Fatalf("run: %d %v", code, body)
	}
	if body["state"] != "SUCCEEDED" || body["output"] != "54" || body["stage"] != "DONE" {
		t.Errorf("run = %v", body)
	}
	runName := body["name"].(string)

	code, body = doRequest(t, app, "GET", "/v1/programs/sum/runs/"+runName, "")
	if code != 200 || body["output"] != "54" {
		t.Errorf("get run: %d %v", code, body)
	}

	code, body = doRequest(t, app, "POST", "/v1/programs/bad/runs", "")
	if code != 200 || body["state"] != "FAILED" || body["output"] != "1" {
		t.Fatalf("failed run: %d %v", code, body)
	}
	errs := body["errors"].([]any)
	first := errs[0].(map[string]any)
	if first["message"] != "division by zero" || first["line"] != float64(2) {
		t.Errorf("errors = %v", errs)
	}

	code, body = doRequest(t, app, "GET", "/v1/programs/sum/runs", "")
	if code != 200 || len(body["runs"].([]any)) != 1 {
		t.Errorf("list runs: %d %v", code, body)
	}

	code, _ = doRequest(t, app, "GET", "/v1/programs/missing/runs", "")
	if code != 404 {
		t.Errorf("list runs of missing program: %d", code)
	}
	code, _ = doRequest(t, app, "POST", "/v1/programs/missing/runs", "")
	if code != 404 {
		t.Errorf("run missing program: %d", code)
	}
	code, _ = doRequest(t, app, "GET", "/v1/programs/sum/runs/run-99", "")
	if code != 404 {
		t.Errorf("get missing run: %d", code)
	}
}

func TestExecuteHonoursContext(t *testing.T) {
	srv, _ := setupTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := srv.Execute(ctx, "print 1;")
	if len(res.Errors) != 1 || !res.Errors[0].HasTag(types.TagCancelledError) {
		t.Errorf("errors = %v", res.Errors.Messages())
	}
}

func TestRunTimeoutFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server.AccessLog = false
	cfg.Server.RunTimeout = 3 * time.Second
	if srv := New(store.New(), cfg); srv.runTimeout != 3*time.Second {
		t.Errorf("run timeout = %s", srv.runTimeout)
	}
}

func TestTokenize(t *testing.T) {
	srv, _ := setupTestServer(t)

	code, body := doRequest(t, srv.App(), "POST", "/v1/tokenize", `{"source": "x += 1;"}`)
	if code != 200 {
		t.Fatalf("tokenize: %d", code)
	}
	tokens := body["tokens"].([]any)
	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.(map[string]any)["kind"].(string))
	}
	want := "Identifier Token,Plus Equal Token,Number Token,Semicolon Token,End Of File Token"
	if got := strings.Join(kinds, ","); got != want {
		t.Errorf("kinds = %s, want %s", got, want)
	}
}

func TestCheck(t *testing.T) {
	srv, _ := setupTestServer(t)
	app := srv.App()

	_, body := doRequest(t, app, "POST", "/v1/check", `{"source": "int x = 1; print x;"}`)
	if body["valid"] != true || len(body["errors"].([]any)) != 0 {
		t.Errorf("valid program: %v", body)
	}

	_, body = doRequest(t, app, "POST", "/v1/check", `{"source": "short s = 1; int i = 2; print s + i;"}`)
	if body["valid"] != false || body["stage"] != "CHECK" {
		t.Errorf("mismatched program: %v", body)
	}
}

func TestRun(t *testing.T) {
	srv, _ := setupTestServer(t)

	_, body := doRequest(t, srv.App(), "POST", "/v1/run", `{"source": "short s = 32767; s++; print s;"}`)
	if body["output"] != "-32768" || body["exitCode"] != float64(0) || body["stage"] != "DONE" {
		t.Errorf("run = %v", body)
	}
}

func TestAST(t *testing.T) {
	srv, _ := setupTestServer(t)
	app := srv.App()

	code, body := doRequest(t, app, "POST", "/v1/ast", `{"source": "2+3"}`)
	if code != 200 {
		t.Fatalf("ast: %d %v", code, body)
	}
	want := "BinaryOp +\n  NumberLiteral 2 (int)\n  NumberLiteral 3 (int)\n"
	if body["tree"] != want {
		t.Errorf("tree = %q, want %q", body["tree"], want)
	}

	code, _ = doRequest(t, app, "POST", "/v1/ast", `{"source": "print"}`)
	if code != 400 {
		t.Errorf("bad source: %d", code)
	}
}

func TestInvalidBody(t *testing.T) {
	srv, _ := setupTestServer(t)

	for _, path := range []string{"/v1/tokenize", "/v1/check", "/v1/run", "/v1/ast"} {
		t.Run(path, func(t *testing.T) {
			code, body := doRequest(t, srv.App(), "POST", path, `{not json`)
			if code != 400 {
				t.Errorf("status = %d", code)
			}
			if got := errorStatus(t, body); got != "INVALID_ARGUMENT" {
				t.Errorf("error status = %q", got)
			}
			if len(body) != 1 {
				t.Errorf("response carries more than the error: %v", body)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	srv, s := setupTestServer(t)
	dir := t.TempDir()

	files := map[string]string{
		"hello.jpp":   `print "hello";`,
		"Upper.jpp":   "print 1;",
		"broken.jpp":  "print",
		"notes.txt":   "ignored",
		"9start.jpp":  "print 2;",
		"with_id.jpp": "int x = 1;",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpp"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := srv.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	var names []string
	for _, p := range s.ListPrograms() {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "hello,upper,with_id" {
		t.Errorf("loaded = %s", got)
	}

	if err := srv.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
