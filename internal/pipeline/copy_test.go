package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestResolveCopy(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		workdir  string
		wantSrc  string
		wantDest string
		wantErr  error
	}{
		{
			name:     "absolute dest",
			spec:     "frontend:assets /srv/static",
			wantSrc:  "frontend:assets",
			wantDest: "/srv/static",
		},
		{
			name:     "relative dest joined with workdir",
			spec:     "package.json .",
			workdir:  "/src",
			wantSrc:  "package.json",
			wantDest: "/src",
		},
		{
			name:     "relative dest subdirectory",
			spec:     "src app/src",
			workdir:  "/build",
			wantSrc:  "src",
			wantDest: "/build/app/src",
		},
		{
			name:    "relative dest without workdir",
			spec:    "package.json .",
			wantErr: ErrCopy,
		},
		{
			name:    "missing dest",
			spec:    "package.json",
			wantErr: ErrCopy,
		},
		{
			name:    "too many fields",
			spec:    "a b c",
			wantErr: ErrCopy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dest, err := resolveCopy(tt.spec, tt.workdir)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src != tt.wantSrc || dest != tt.wantDest {
				t.Fatalf("resolved (%q, %q), want (%q, %q)", src, dest, tt.wantSrc, tt.wantDest)
			}
		})
	}
}

// A failed extraction in the consuming container must not leave the
// producing container's tar stream blocked on the pipe forever.
func TestArtifactCopyUnblocksProducerOnFailure(t *testing.T) {
	producerDone := make(chan struct{})
	producer := &fakeContainer{
		copyFrom: func(ctx context.Context, w io.Writer, path string) error {
			// Blocks until the consumer reads or the pipe is closed.
			_, err := w.Write([]byte("tar stream"))
			close(producerDone)
			return err
		},
	}
	consumer := &fakeContainer{copyToErr: errors.New("tar extract failed")}

	e := &executor{reg: newRegistry()}
	if err := e.reg.publish("backend", "server", "/src/server", producer); err != nil {
		t.Fatalf("publish: %v", err)
	}

	err := e.executeArtifactCopy(context.Background(), consumer, "backend", "server", "/srv/server")
	if !errors.Is(err, ErrCopy) {
		t.Fatalf("error = %v, want ErrCopy", err)
	}

	select {
	case <-producerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("producer stream still blocked after consumer failure")
	}
}
