package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/detagroup/detaweb/internal/testutil"
)

func TestScheduler_AddValidates(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	noop := func(context.Context) error { return nil }

	if err := s.Add(Job{Name: "a", Schedule: "*/5 * * * *", Run: noop}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(Job{Name: "a", Schedule: "*/5 * * * *", Run: noop}); err == nil {
		t.Error("duplicate name should be rejected")
	}
	if err := s.Add(Job{Name: "b", Schedule: "not a schedule", Run: noop}); err == nil {
		t.Error("invalid schedule should be rejected")
	}
	if err := s.Add(Job{Name: "c", Schedule: "* * * * *"}); err == nil {
		t.Error("job without a run function should be rejected")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Name != "a" {
		t.Fatalf("Jobs() = %+v", jobs)
	}
}

func TestScheduler_Trigger(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	var calls atomic.Int32
	boom := errors.New("boom")

	_ = s.Add(Job{Name: "ok", Schedule: "0 0 * * *", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}})
	_ = s.Add(Job{Name: "fails", Schedule: "0 0 * * *", Run: func(context.Context) error { return boom }})
	_ = s.Add(Job{Name: "panics", Schedule: "0 0 * * *", Run: func(context.Context) error { panic("bad") }})

	ctx := context.Background()
	if err := s.Trigger(ctx, "ok"); err != nil {
		t.Fatalf("Trigger(ok): %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if err := s.Trigger(ctx, "fails"); !errors.Is(err, boom) {
		t.Errorf("Trigger(fails) = %v, want boom", err)
	}
	if err := s.Trigger(ctx, "panics"); err == nil {
		t.Error("a panicking job should report an error")
	}
	if err := s.Trigger(ctx, "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Trigger(missing) = %v, want ErrJobNotFound", err)
	}

	for _, info := range s.Jobs() {
		if info.LastRun.IsZero() {
			t.Errorf("%s: LastRun not recorded", info.Name)
		}
		if (info.LastError != "") != (info.Name != "ok") {
			t.Errorf("%s: LastError = %q", info.Name, info.LastError)
		}
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	started := make(chan struct{})
	release := make(chan struct{})

	_ = s.Add(Job{Name: "slow", Schedule: "0 0 * * *", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}})

	done := make(chan error, 1)
	go func() { done <- s.Trigger(context.Background(), "slow") }()
	<-started

	if err := s.Trigger(context.Background(), "slow"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("second Trigger = %v, want ErrJobRunning", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Trigger: %v", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	_ = s.Add(Job{Name: "tick", Schedule: "* * * * *", Run: func(context.Context) error { return nil }})
	s.Start()
	defer s.Stop()

	// The cron loop computes the next run asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for s.Jobs()[0].NextRun.IsZero() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if next := s.Jobs()[0].NextRun; next.IsZero() || next.After(time.Now().Add(time.Minute+time.Second)) {
		t.Errorf("NextRun = %v", next)
	}
}

type fakePurger struct {
	retention time.Duration
	n         int64
}

func (f *fakePurger) Purge(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return f.n, nil
}

type fakeGuard struct{ swept int }

func (f *fakeGuard) Sweep() int { f.swept++; return 0 }

func TestMaintenanceJobs(t *testing.T) {
	events := &fakePurger{n: 4}
	views := &fakePurger{n: 0}
	guard := &fakeGuard{}

	m := Maintenance{
		EventRetention:    30 * 24 * time.Hour,
		PageViewRetention: 90 * 24 * time.Hour,
		Events:            events,
		PageViews:         views,
		LoginGuard:        guard,
	}
	jobs := m.Jobs(testutil.TestLoggerSilent())

	names := map[string]Job{}
	for _, j := range jobs {
		names[j.Name] = j
	}
	for _, want := range []string{"purge-events", "purge-page-views", "sweep-login-guard"} {
		if _, ok := names[want]; !ok {
			t.Errorf("missing job %q", want)
		}
	}
	for _, unwanted := range []string{"retry-notifications", "cleanup-sessions", "reload-geoip"} {
		if _, ok := names[unwanted]; ok {
			t.Errorf("job %q registered without a source", unwanted)
		}
	}

	s := New(testutil.TestLoggerSilent())
	for _, j := range jobs {
		if err := s.Add(j); err != nil {
			t.Fatalf("Add(%s): %v", j.Name, err)
		}
	}
	ctx := context.Background()
	for _, name := range []string{"purge-events", "purge-page-views", "sweep-login-guard"} {
		if err := s.Trigger(ctx, name); err != nil {
			t.Errorf("Trigger(%s): %v", name, err)
		}
	}

	if events.retention != m.EventRetention || views.retention != m.PageViewRetention {
		t.Errorf("retention passed = %v / %v", events.retention, views.retention)
	}
	if guard.swept != 1 {
		t.Errorf("swept = %d, want 1", guard.swept)
	}
}
