package server

import (
	"testing"
	"time"
)

// Stop is reachable from both the signal handler and the protocol
// shutdown command, so calling it repeatedly must not panic on a double
// close of the done channel.
func TestStopIdempotent(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	if err := s.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("third Stop: %v", err)
	}
}

func TestDoneClosedByStop(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	select {
	case <-s.Done():
		t.Fatal("Done closed before Stop")
	default:
	}

	s.Stop()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Stop")
	}
}

func TestWaitReturnsAfterStop(t *testing.T) {
	s := &Server{done: make(chan struct{})}

	waited := make(chan struct{})
	go func() {
		s.Wait()
		close(waited)
	}()

	s.Stop()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}
