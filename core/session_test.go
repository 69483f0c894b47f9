package core

import "testing"

func TestSession_WithContextClonesStartingContext(t *testing.T) {
	start := NewContext()
	start.Set("a", 1)

	s := NewSession(WithContext(start))
	if v, ok := s.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("starting context not applied: %+v", s.ContextAsMap())
	}

	s.Set("b", 2)
	if _, exists := start.Get("b"); exists {
		t.Error("starting context should not see session writes")
	}
}

func TestSession_DefaultsAndIDs(t *testing.T) {
	s1 := NewSession()
	s2 := NewSession()
	if s1.ID == "" || s1.ID == s2.ID {
		t.Fatalf("expected unique non-empty ids, got %q and %q", s1.ID, s2.ID)
	}
	if s1.Logger() == nil {
		t.Error("expected non-nil default logger")
	}
	if len(s1.ContextAsMap()) != 0 {
		t.Error("expected empty context")
	}

	s3 := NewSession(WithSessionID("fixed"))
	if s3.ID != "fixed" {
		t.Errorf("expected fixed id, got %q", s3.ID)
	}
}
