package scope

import (
	"testing"

	"github.com/lemonberrylabs/jpp/pkg/types"
)

func TestDeclareAndLookup(t *testing.T) {
	s := NewStack()
	if err := s.Declare(Variable{Name: "x", Type: types.TypeInt, Value: types.NewInt(1)}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	v, ok := s.Lookup("x")
	if !ok {
		t.Fatal("x not found")
	}
	if !v.Value.Equal(types.NewInt(1)) || v.Type != types.TypeInt {
		t.Errorf("got %v (%s)", v.Value, v.Type)
	}
	if _, ok := s.Lookup("y"); ok {
		t.Error("y should not be found")
	}
}

func TestRedeclarationKeepsBinding(t *testing.T) {
	s := NewStack()
	_ = s.Declare(Variable{Name: "x", Type: types.TypeInt, Value: types.NewInt(1)})

	err := s.Declare(Variable{Name: "x", Type: types.TypeShort, Value: types.NewShort(2)})
	if err == nil {
		t.Fatal("expected redeclaration error")
	}
	if !types.AsError(err).HasTag(types.TagRedeclarationError) {
		t.Errorf("tags = %v", types.AsError(err).Tags)
	}
	if err.Error() != "Identifier 'x' already declared." {
		t.Errorf("message = %q", err.Error())
	}
	v, _ := s.Lookup("x")
	if v.Type != types.TypeInt || !v.Value.Equal(types.NewInt(1)) {
		t.Errorf("binding overwritten: %v (%s)", v.Value, v.Type)
	}
}

func TestShadowingAndPop(t *testing.T) {
	s := NewStack()
	_ = s.Declare(Variable{Name: "x", Type: types.TypeInt, Value: types.NewInt(1)})

	s.Push()
	if err := s.Declare(Variable{Name: "x", Type: types.TypeLong, Value: types.NewLong(2)}); err != nil {
		t.Fatalf("shadowing declare: %v", err)
	}
	v, _ := s.Lookup("x")
	if v.Type != types.TypeLong {
		t.Errorf("inner lookup got %s, want long", v.Type)
	}
	if s.Depth() != 2 {
		t.Errorf("depth = %d, want 2", s.Depth())
	}

	s.Pop()
	v, _ = s.Lookup("x")
	if v.Type != types.TypeInt {
		t.Errorf("outer lookup got %s, want int", v.Type)
	}
}

func TestAssignWalksOutward(t *testing.T) {
	s := NewStack()
	_ = s.Declare(Variable{Name: "x", Type: types.TypeInt, Value: types.NewInt(1)})
	s.Push()
	s.Push()

	if err := s.Assign("x", types.NewInt(7)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	s.Pop()
	s.Pop()
	v, _ := s.Lookup("x")
	if !v.Value.Equal(types.NewInt(7)) {
		t.Errorf("x = %v, want 7", v.Value)
	}

	err := s.Assign("nope", types.NewInt(1))
	if err == nil {
		t.Fatal("expected error assigning undeclared identifier")
	}
	if !types.AsError(err).HasTag(types.TagNameError) {
		t.Errorf("tags = %v", types.AsError(err).Tags)
	}
}

func TestPushSeedsScope(t *testing.T) {
	s := NewStack()
	s.Push(
		Variable{Name: "a", Type: types.TypeInt, Value: types.NewInt(2)},
		Variable{Name: "b", Type: types.TypeInt, Value: types.NewInt(52)},
	)
	if !s.DeclaredLocally("a") || !s.DeclaredLocally("b") {
		t.Fatal("seeded parameters missing from innermost scope")
	}
	s.Pop()
	if _, ok := s.Lookup("a"); ok {
		t.Error("a visible after pop")
	}
}

func TestZeroStack(t *testing.T) {
	var s Stack
	s.Pop()
	if s.Depth() != 0 {
		t.Fatalf("depth = %d", s.Depth())
	}
	if err := s.Declare(Variable{Name: "x", Type: types.TypeBool}); err != nil {
		t.Fatalf("declare on zero stack: %v", err)
	}
	if s.Depth() != 1 {
		t.Errorf("depth = %d, want 1", s.Depth())
	}
}
