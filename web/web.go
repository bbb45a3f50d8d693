// Package web provides the embedded web UI for browsing saved jpp programs
// and their runs.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/store"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"dashboard.html",
	"program_list.html",
	"program_detail.html",
	"run_list.html",
	"run_detail.html",
	"not_found.html",
}

// Handler serves the web UI pages.
type Handler struct {
	store     *store.Store
	templates map[string]*template.Template
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler. It panics if the embedded templates do
// not parse.
func New(s *store.Store) *Handler {
	funcMap := template.FuncMap{
		"timeAgo":     timeAgo,
		"formatTime":  formatTime,
		"duration":    duration,
		"stateClass":  stateClass,
		"stateIcon":   stateIcon,
		"truncate":    truncate,
		"countLines":  countLines,
		"formatError": pipeline.FormatError,
		"firstError":  firstError,
	}

	// Each page is parsed with its own copy of the layout so that the
	// "content" blocks of different pages do not collide.
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		templates[page] = template.Must(
			template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
		)
	}
	return &Handler{store: s, templates: templates}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	tmpl, ok := h.templates[page]
	if !ok {
		return c.Status(500).SendString(fmt.Sprintf("unknown page %q", page))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pageData{NavActive: navActive, Data: data}); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

func (h *Handler) notFound(c *fiber.Ctx, message string) error {
	c.Status(fiber.StatusNotFound)
	return h.render(c, "not_found.html", "", notFoundContent{Message: message})
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/programs", h.programList)
	app.Get("/ui/programs/:id", h.programDetail)
	app.Get("/ui/runs", h.runList)
	app.Get("/ui/runs/:program/:run", h.runDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Programs       []*store.Program
	RecentRuns     []*store.Run
	ActiveCount    int
	SucceededCount int
	FailedCount    int
}

type programView struct {
	*store.Program
	RunCount    int
	FailedCount int
}

type programListContent struct {
	Programs []*programView
}

type programDetailContent struct {
	Program *store.Program
	Runs    []*store.Run
}

type runListContent struct {
	Runs []*store.Run
}

type runDetailContent struct {
	Run    *store.Run
	Header string
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	all := h.store.RecentRuns(0)

	var active, succeeded, failed int
	for _, r := range all {
		switch r.State {
		case store.RunActive:
			active++
		case store.RunSucceeded:
			succeeded++
		case store.RunFailed:
			failed++
		}
	}

	recent := all
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Programs:       h.store.ListPrograms(),
		RecentRuns:     recent,
		ActiveCount:    active,
		SucceededCount: succeeded,
		FailedCount:    failed,
	})
}

func (h *Handler) programList(c *fiber.Ctx) error {
	var views []*programView
	for _, p := range h.store.ListPrograms() {
		runs := h.store.ListRuns(p.Name)
		failed := 0
		for _, r := range runs {
			if r.State == store.RunFailed {
				failed++
			}
		}
		views = append(views, &programView{
			Program:     p,
			RunCount:    len(runs),
			FailedCount: failed,
		})
	}

	return h.render(c, "program_list.html", "programs", programListContent{
		Programs: views,
	})
}

func (h *Handler) programDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	p, err := h.store.GetProgram(id)
	if err != nil {
		return h.notFound(c, fmt.Sprintf("Program '%s' not found", id))
	}

	return h.render(c, "program_detail.html", "programs", programDetailContent{
		Program: p,
		Runs:    h.store.ListRuns(id),
	})
}

func (h *Handler) runList(c *fiber.Ctx) error {
	return h.render(c, "run_list.html", "runs", runListContent{
		Runs: h.store.RecentRuns(0),
	})
}

func (h *Handler) runDetail(c *fiber.Ctx) error {
	programID := c.Params("program")
	runID := c.Params("run")

	r, err := h.store.GetRun(programID, runID)
	if err != nil {
		return h.notFound(c, fmt.Sprintf("Run '%s' of program '%s' not found", runID, programID))
	}

	var header string
	if len(r.Errors) > 0 {
		header = pipeline.Header(r.Stage)
	}
	return h.render(c, "run_detail.html", "runs", runDetailContent{
		Run:    r,
		Header: header,
	})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func duration(start, end time.Time) string {
	if end.IsZero() {
		return fmt.Sprintf("%s (running)", formatDuration(time.Since(start)))
	}
	return formatDuration(end.Sub(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func stateClass(state store.RunState) string {
	switch state {
	case store.RunActive:
		return "state-active"
	case store.RunSucceeded:
		return "state-succeeded"
	case store.RunFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.RunState) template.HTML {
	switch state {
	case store.RunActive:
		return "&#9654;"
	case store.RunSucceeded:
		return "&#10003;"
	case store.RunFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// firstError returns the first error message of a run, or "".
func firstError(errs types.ErrorList) string {
	if len(errs) == 0 {
		return ""
	}
	return pipeline.FormatError(errs[0])
}
