package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lemonberrylabs/jpp/pkg/pipeline"
)

func TestValidProgramID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"hello", true},
		{"with_id-2", true},
		{"", false},
		{"Upper", false},
		{"9start", false},
		{"has space", false},
		{strings.Repeat("a", 128), true},
		{strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		if got := ValidProgramID(tt.id); got != tt.want {
			t.Errorf("ValidProgramID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestProgramLifecycle(t *testing.T) {
	s := New()

	p, err := s.CreateProgram("hello", `print "hi";`, "greets")
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if p.RevisionID != "000001" {
		t.Errorf("revision = %s", p.RevisionID)
	}

	if _, err := s.CreateProgram("hello", "", ""); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}

	updated, err := s.UpdateProgram("hello", `print "bye";`, "")
	if err != nil {
		t.Fatalf("UpdateProgram: %v", err)
	}
	if updated.Source != `print "bye";` || updated.Description != "greets" || updated.RevisionID != "000002" {
		t.Errorf("updated = %+v", updated)
	}

	got, err := s.GetProgram("hello")
	if err != nil || got.Source != updated.Source {
		t.Errorf("GetProgram = %+v, %v", got, err)
	}

	if err := s.DeleteProgram("hello"); err != nil {
		t.Fatalf("DeleteProgram: %v", err)
	}
	if _, err := s.GetProgram("hello"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if err := s.DeleteProgram("hello"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestReturnedProgramsAreCopies(t *testing.T) {
	s := New()
	p, _ := s.CreateProgram("a", "print 1;", "")
	p.Source = "mutated"

	got, _ := s.GetProgram("a")
	if got.Source != "print 1;" {
		t.Errorf("store was mutated through a returned value: %q", got.Source)
	}
}

func TestListProgramsSorted(t *testing.T) {
	s := New()
	for _, id := range []string{"c", "a", "b"} {
		if _, err := s.CreateProgram(id, "", ""); err != nil {
			t.Fatal(err)
		}
	}
	list := s.ListPrograms()
	if len(list) != 3 || list[0].Name != "a" || list[2].Name != "c" {
		t.Errorf("list = %v", list)
	}
}

func TestRunLifecycle(t *testing.T) {
	s := New()
	if _, err := s.CreateProgram("sum", "print 1 + 2;", ""); err != nil {
		t.Fatal(err)
	}

	run, source, err := s.CreateRun("sum")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.State != RunActive || run.ProgramRevisionID != "000001" || source != "print 1 + 2;" {
		t.Errorf("run = %+v, source = %q", run, source)
	}

	res := pipeline.Run(context.Background(), source, pipeline.DefaultOptions())
	done, err := s.CompleteRun("sum", run.Name, res)
	if err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}
	if done.State != RunSucceeded || done.Output != "3" || done.Stage != pipeline.StageDone {
		t.Errorf("done = %+v", done)
	}

	if _, err := s.CompleteRun("sum", run.Name, res); err == nil {
		t.Error("expected error completing a finished run")
	}

	got, err := s.GetRun("sum", run.Name)
	if err != nil || got.Output != "3" {
		t.Errorf("GetRun = %+v, %v", got, err)
	}
}

func TestFailedRun(t *testing.T) {
	s := New()
	s.CreateProgram("bad", "print 1 / 0;", "")
	run, source, _ := s.CreateRun("bad")

	done, err := s.CompleteRun("bad", run.Name, pipeline.Run(context.Background(), source, pipeline.DefaultOptions()))
	if err != nil {
		t.Fatal(err)
	}
	if done.State != RunFailed || done.ExitCode != pipeline.ExitRuntimeError || len(done.Errors) != 1 {
		t.Errorf("done = %+v", done)
	}
}

func TestRunsOfUnknownProgram(t *testing.T) {
	s := New()
	if _, _, err := s.CreateRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateRun err = %v", err)
	}
	if _, err := s.GetRun("missing", "run-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun err = %v", err)
	}
	if runs := s.ListRuns("missing"); len(runs) != 0 {
		t.Errorf("ListRuns = %v", runs)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := New()
	s.CreateProgram("a", "", "")
	s.CreateProgram("b", "", "")
	s.CreateRun("a")
	s.CreateRun("b")
	s.CreateRun("a")

	runs := s.ListRuns("a")
	if len(runs) != 2 || runs[0].Name != "run-3" || runs[1].Name != "run-1" {
		t.Errorf("runs = %+v", runs)
	}

	recent := s.RecentRuns(2)
	if len(recent) != 2 || recent[0].Name != "run-3" || recent[1].Name != "run-2" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestDeleteProgramDropsRuns(t *testing.T) {
	s := New()
	s.CreateProgram("a", "", "")
	run, _, _ := s.CreateRun("a")
	s.DeleteProgram("a")

	if _, err := s.GetRun("a", run.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun after delete err = %v", err)
	}
}

func TestConcurrentRuns(t *testing.T) {
	s := New()
	s.CreateProgram("p", "print 1;", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, source, err := s.CreateRun("p")
			if err != nil {
				t.Error(err)
				return
			}
			res := pipeline.Run(context.Background(), source, pipeline.DefaultOptions())
			if _, err := s.CompleteRun("p", run.Name, res); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if runs := s.ListRuns("p"); len(runs) != 20 {
		t.Errorf("got %d runs, want 20", len(runs))
	}
}
