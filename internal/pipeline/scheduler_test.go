package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ai-DevOmer/stager/internal/manifest"
)

// Records the order in which stages ran.
type runLog struct {
	mu    sync.Mutex
	order []string
}

func (l *runLog) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, name)
}

func (l *runLog) index(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, n := range l.order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestRunStagesOrdering(t *testing.T) {
	stages := []manifest.Stage{
		{Name: "frontend"},
		{Name: "backend", Needs: []string{"frontend"}},
		{Name: "runtime", Needs: []string{"frontend", "backend"}},
	}

	log := &runLog{}
	err := runStages(context.Background(), stages, time.Minute, func(ctx context.Context, s *manifest.Stage) error {
		log.record(s.Name)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if log.index("backend") < log.index("frontend") {
		t.Fatalf("backend ran before frontend: %v", log.order)
	}
	if log.index("runtime") < log.index("backend") {
		t.Fatalf("runtime ran before backend: %v", log.order)
	}
	if len(log.order) != 3 {
		t.Fatalf("ran %d stages, want 3: %v", len(log.order), log.order)
	}
}

// Two stages with no dependency between them must run concurrently. Each
// blocks until the other has started; a serial scheduler would deadlock
// here, so the test itself is bounded by a timeout.
func TestRunStagesIndependentStagesRunConcurrently(t *testing.T) {
	stages := []manifest.Stage{
		{Name: "frontend"},
		{Name: "backend"},
	}

	started := map[string]chan struct{}{
		"frontend": make(chan struct{}),
		"backend":  make(chan struct{}),
	}
	other := map[string]string{"frontend": "backend", "backend": "frontend"}

	errc := make(chan error, 1)
	go func() {
		errc <- runStages(context.Background(), stages, time.Minute, func(ctx context.Context, s *manifest.Stage) error {
			close(started[s.Name])
			select {
			case <-started[other[s.Name]]:
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("peer stage never started")
			}
		})
	}()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler appears to serialize independent stages")
	}
}

func TestRunStagesFailFast(t *testing.T) {
	stages := []manifest.Stage{
		{Name: "frontend"},
		{Name: "backend", Needs: []string{"frontend"}},
	}

	boom := errors.New("npm ci failed")
	log := &runLog{}
	err := runStages(context.Background(), stages, time.Minute, func(ctx context.Context, s *manifest.Stage) error {
		log.record(s.Name)
		if s.Name == "frontend" {
			return boom
		}
		return nil
	})

	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), `stage "frontend"`) {
		t.Fatalf("error %q does not name the failed stage", err)
	}
	if log.index("backend") != -1 {
		t.Fatal("backend ran despite its producer failing")
	}
}

func TestRunStagesTimeout(t *testing.T) {
	stages := []manifest.Stage{
		{Name: "frontend", Timeout: manifest.Duration(20 * time.Millisecond)},
	}

	err := runStages(context.Background(), stages, time.Minute, func(ctx context.Context, s *manifest.Stage) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error %q does not mention the timeout", err)
	}
}

func TestRunStagesDefaultTimeoutApplies(t *testing.T) {
	stages := []manifest.Stage{
		{Name: "frontend"},
	}

	var deadline time.Time
	err := runStages(context.Background(), stages, 7*time.Minute, func(ctx context.Context, s *manifest.Stage) error {
		d, ok := ctx.Deadline()
		if !ok {
			return errors.New("stage context has no deadline")
		}
		deadline = d
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remaining := time.Until(deadline)
	if remaining <= 6*time.Minute || remaining > 7*time.Minute {
		t.Fatalf("deadline %s from now, want about 7m", remaining)
	}
}

func TestPlatformSlug(t *testing.T) {
	if got := platformSlug("linux/amd64"); got != "linux-amd64" {
		t.Fatalf("platformSlug = %q, want linux-amd64", got)
	}
	if got := platformSlug("linux/arm/v7"); got != "linux-arm-v7" {
		t.Fatalf("platformSlug = %q, want linux-arm-v7", got)
	}
}
