package manifest

import (
	"errors"
	"testing"
)

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantErr  error
	}{
		{
			name: "missing pipeline name",
			manifest: `
stages:
  - name: a
    from: base.tar
`,
			wantErr: ErrManifest,
		},
		{
			name:     "no stages",
			manifest: `pipeline: p`,
			wantErr:  ErrManifest,
		},
		{
			name: "duplicate stage names",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
  - name: a
    from: base.tar
`,
			wantErr: ErrManifest,
		},
		{
			name: "missing base image",
			manifest: `
pipeline: p
stages:
  - name: a
`,
			wantErr: ErrManifest,
		},
		{
			name: "unknown need",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    needs: [ghost]
`,
			wantErr: ErrManifest,
		},
		{
			name: "self dependency",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    needs: [a]
`,
			wantErr: ErrManifest,
		},
		{
			name: "targets without selection",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    targets:
      desktop-app: cargo build
      server-api: cargo build --features server
`,
			wantErr: ErrTarget,
		},
		{
			name: "unknown target selected",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    targets:
      desktop-app: cargo build
    target: server-api
`,
			wantErr: ErrTarget,
		},
		{
			name: "selection without targets",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    target: server-api
`,
			wantErr: ErrTarget,
		},
		{
			name: "relative artifact path",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: dist
`,
			wantErr: ErrManifest,
		},
		{
			name: "duplicate artifact names",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
      - name: out
        path: /build
`,
			wantErr: ErrManifest,
		},
		{
			name: "step with run and copy",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    steps:
      - run: make
        copy: "web /src/web"
`,
			wantErr: ErrManifest,
		},
		{
			name: "cross-stage copy without needs",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
  - name: b
    from: base.tar
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/out/run"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "cross-stage copy of undeclared artifact",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/out/run"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "no entrypoint stage",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
`,
			wantErr: ErrManifest,
		},
		{
			name: "two entrypoint stages",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/run"]
  - name: c
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/run"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "relative entrypoint",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["run.sh"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "port on non-export stage",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    port: 8080
`,
			wantErr: ErrManifest,
		},
		{
			name: "env on non-export stage",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    env:
      MODE: release
`,
			wantErr: ErrManifest,
		},
		{
			name: "export stage with build targets",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
  - name: b
    from: base.tar
    needs: [a]
    targets:
      api: cargo build
    target: api
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/run"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "port out of range",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    artifacts:
      - name: out
        path: /dist
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/run"]
    port: 70000
`,
			wantErr: ErrManifest,
		},
		{
			name: "export stage consumes nothing",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
  - name: b
    from: base.tar
    needs: [a]
    entrypoint: ["/srv/run"]
`,
			wantErr: ErrManifest,
		},
		{
			name: "dependency cycle",
			manifest: `
pipeline: p
stages:
  - name: a
    from: base.tar
    needs: [c]
    artifacts:
      - name: out
        path: /dist
  - name: c
    from: base.tar
    needs: [a]
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/out"
    entrypoint: ["/srv/run"]
`,
			wantErr: ErrManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.manifest))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsGroupSteps(t *testing.T) {
	_, err := Parse([]byte(`
pipeline: p
stages:
  - name: a
    from: base.tar
    steps:
      - workdir: /src
        steps:
          - run: npm ci
          - run: npm run build
    artifacts:
      - name: out
        path: /src/dist
  - name: b
    from: base.tar
    needs: [a]
    steps:
      - copy: "a:out /srv/static"
    entrypoint: ["/srv/run"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsGroupWithOperation(t *testing.T) {
	_, err := Parse([]byte(`
pipeline: p
stages:
  - name: a
    from: base.tar
    steps:
      - run: make
        steps:
          - run: make install
`))
	if !errors.Is(err, ErrManifest) {
		t.Fatalf("error = %v, want ErrManifest", err)
	}
}
