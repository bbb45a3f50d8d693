// Package store provides in-memory storage for saved programs and their runs.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/lemonberrylabs/jpp/pkg/pipeline"
	"github.com/lemonberrylabs/jpp/pkg/types"
)

var (
	// ErrNotFound is returned when a program or run does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a program whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

var programIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidProgramID reports whether id can name a saved program: a lowercase
// letter followed by lowercase letters, digits, '_' or '-', at most 128 bytes.
func ValidProgramID(id string) bool {
	return len(id) <= 128 && programIDPattern.MatchString(id)
}

// RunState represents the state of a program run.
type RunState string

const (
	RunActive    RunState = "ACTIVE"
	RunSucceeded RunState = "SUCCEEDED"
	RunFailed    RunState = "FAILED"
)

// Program is a saved program source.
type Program struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	RevisionID  string    `json:"revisionId"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// Run is one execution of a saved program.
type Run struct {
	Name              string          `json:"name"`
	Program           string          `json:"program"`
	State             RunState        `json:"state"`
	Stage             pipeline.Stage  `json:"stage,omitempty"`
	Output            string          `json:"output"`
	Errors            types.ErrorList `json:"errors,omitempty"`
	ExitCode          int             `json:"exitCode"`
	Steps             int             `json:"steps"`
	StartTime         time.Time       `json:"startTime"`
	EndTime           time.Time       `json:"endTime,omitempty"`
	ProgramRevisionID string          `json:"programRevisionId"`
}

// Store is a thread-safe in-memory storage for programs and runs.
type Store struct {
	mu       sync.RWMutex
	programs map[string]*Program
	runs     map[string]*Run

	// Counters for generating unique IDs
	runCounter int64
	revCounter int64
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		programs: make(map[string]*Program),
		runs:     make(map[string]*Run),
	}
}

func runKey(program, run string) string {
	return program + "/runs/" + run
}

// CreateProgram saves a new program under id.
func (s *Store) CreateProgram(id, source, description string) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[id]; exists {
		return nil, fmt.Errorf("program '%s': %w", id, ErrAlreadyExists)
	}

	s.revCounter++
	now := time.Now()
	p := &Program{
		Name:        id,
		Description: description,
		Source:      source,
		RevisionID:  fmt.Sprintf("%06d", s.revCounter),
		CreateTime:  now,
		UpdateTime:  now,
	}
	s.programs[id] = p
	cp := *p
	return &cp, nil
}

// GetProgram retrieves a program by id.
func (s *Store) GetProgram(id string) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[id]
	if !ok {
		return nil, fmt.Errorf("program '%s': %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// ListPrograms returns all programs sorted by name.
func (s *Store) ListPrograms() []*Program {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Program, 0, len(s.programs))
	for _, p := range s.programs {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// UpdateProgram replaces a program's source and bumps its revision. An
// empty description keeps the current one.
func (s *Store) UpdateProgram(id, source, description string) (*Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[id]
	if !ok {
		return nil, fmt.Errorf("program '%s': %w", id, ErrNotFound)
	}

	s.revCounter++
	p.Source = source
	if description != "" {
		p.Description = description
	}
	p.RevisionID = fmt.Sprintf("%06d", s.revCounter)
	p.UpdateTime = time.Now()

	cp := *p
	return &cp, nil
}

// DeleteProgram removes a program and its runs.
func (s *Store) DeleteProgram(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.programs[id]; !ok {
		return fmt.Errorf("program '%s': %w", id, ErrNotFound)
	}
	delete(s.programs, id)
	for key, r := range s.runs {
		if r.Program == id {
			delete(s.runs, key)
		}
	}
	return nil
}

// CreateRun records a new active run of program and returns it with the
// source revision it will execute.
func (s *Store) CreateRun(program string) (*Run, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[program]
	if !ok {
		return nil, "", fmt.Errorf("program '%s': %w", program, ErrNotFound)
	}

	s.runCounter++
	r := &Run{
		Name:              fmt.Sprintf("run-%d", s.runCounter),
		Program:           program,
		State:             RunActive,
		StartTime:         time.Now(),
		ProgramRevisionID: p.RevisionID,
	}
	s.runs[runKey(program, r.Name)] = r
	cp := *r
	return &cp, p.Source, nil
}

// CompleteRun stores the outcome of a run. A result with errors marks the
// run FAILED.
func (s *Store) CompleteRun(program, run string, res *pipeline.Result) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runKey(program, run)]
	if !ok {
		return nil, fmt.Errorf("run '%s' of program '%s': %w", run, program, ErrNotFound)
	}
	if r.State != RunActive {
		return nil, fmt.Errorf("run '%s' is not active (state: %s)", run, r.State)
	}

	r.State = RunSucceeded
	if res.Failed() {
		r.State = RunFailed
	}
	r.Stage = res.Stage
	r.Output = res.Output
	r.Errors = res.Errors
	r.ExitCode = res.ExitCode
	r.Steps = res.Steps
	r.EndTime = time.Now()

	cp := *r
	return &cp, nil
}

// GetRun retrieves a run of program.
func (s *Store) GetRun(program, run string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runKey(program, run)]
	if !ok {
		return nil, fmt.Errorf("run '%s' of program '%s': %w", run, program, ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

// ListRuns returns the runs of program, newest first.
func (s *Store) ListRuns(program string) []*Run {
	return s.listRuns(func(r *Run) bool { return r.Program == program })
}

// RecentRuns returns up to limit runs across all programs, newest first.
func (s *Store) RecentRuns(limit int) []*Run {
	runs := s.listRuns(func(*Run) bool { return true })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}

func (s *Store) listRuns(keep func(*Run) bool) []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Run
	for _, r := range s.runs {
		if keep(r) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.After(result[j].StartTime)
		}
		return runNumber(result[i].Name) > runNumber(result[j].Name)
	})
	return result
}

func runNumber(name string) int64 {
	var n int64
	fmt.Sscanf(name, "run-%d", &n)
	return n
}
