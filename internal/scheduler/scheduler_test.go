package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunByName(t *testing.T) {
	s := New(time.UTC, time.Second)
	runs := 0
	if err := s.Register(NewJob("sweep", "@every 1h", func(ctx context.Context) error {
		runs++
		return nil
	})); err != nil {
		t.Fatal(err)
	}
	failing := errors.New("boom")
	if err := s.Register(NewJob("broken", "", func(ctx context.Context) error { return failing })); err != nil {
		t.Fatal(err)
	}

	if err := s.RunByName(context.Background(), "sweep"); err != nil || runs != 1 {
		t.Fatalf("RunByName(sweep) err = %v, runs = %d", err, runs)
	}
	if err := s.RunByName(context.Background(), "broken"); !errors.Is(err, failing) {
		t.Fatalf("RunByName(broken) err = %v", err)
	}
	if err := s.RunByName(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown job")
	}

	names := s.Jobs()
	if len(names) != 2 || names[0] != "sweep" || names[1] != "broken" {
		t.Errorf("Jobs() = %v", names)
	}
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := New(nil, 0)
	if err := s.Register(NewJob("bad", "every hour", func(ctx context.Context) error { return nil })); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(time.UTC, time.Second)
	ran := make(chan struct{}, 1)
	if err := s.Register(NewJob("tick", "@every 1s", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})); err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
