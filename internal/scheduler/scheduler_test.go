package scheduler

import (
	"context"
	"testing"
)

func TestStartRegistersJob(t *testing.T) {
	s := New("0 21 * * *")
	s.SetReportFunction(func(context.Context) error { return nil })
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	if !s.IsRunning() {
		t.Fatal("expected a registered job")
	}
}

func TestStartDisabled(t *testing.T) {
	s := New("")
	s.SetReportFunction(func(context.Context) error { return nil })
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("empty spec must not register a job")
	}

	s = New("0 21 * * *")
	if err := s.Start(); err != nil || s.IsRunning() {
		t.Fatalf("missing report function must leave scheduler idle (err=%v)", err)
	}
}

func TestStartInvalidSpec(t *testing.T) {
	s := New("not a cron spec")
	s.SetReportFunction(func(context.Context) error { return nil })
	if err := s.Start(); err == nil {
		t.Fatal("expected parse error")
	}
}
