// Package manifest defines the pipeline manifest format.
//
// A pipeline is an ordered set of named stages. Each stage runs in an
// isolated container created from a base image and produces zero or more
// named artifacts. Stages declare their dependencies explicitly via the
// needs list; artifacts move between stages only through cross-stage copy
// steps of the form "stage:artifact dest". Exactly one stage declares an
// entrypoint and becomes the exported runtime image.
//
// Build target selection is explicit. A stage that declares a target set
// (e.g. desktop-app and server-api for a source tree that serves both)
// must also name which target to build; there is no default and no
// positional inference.
//
// Example manifest:
//
//	pipeline: omar
//	stages:
//	  - name: frontend
//	    from: images/node.tar
//	    steps:
//	      - workdir: /src
//	      - copy: web/package.json package.json
//	      - copy: web/package-lock.json package-lock.json
//	      - run: npm ci
//	      - copy: web/ .
//	      - run: npm run build
//	    artifacts:
//	      - name: assets
//	        path: /src/dist
//	  - name: backend
//	    from: images/rust.tar
//	    needs: [frontend]
//	    target: server-api
//	    targets:
//	      desktop-app: cargo build --release --locked --bin omar
//	      server-api: cargo build --release --locked --bin omar-server
//	    steps:
//	      - workdir: /src
//	      - copy: backend/ .
//	      - copy: frontend:assets static
//	    artifacts:
//	      - name: server
//	        path: /src/target/release/omar-server
//	  - name: runtime
//	    from: images/debian-slim.tar
//	    needs: [frontend, backend]
//	    steps:
//	      - run: apt-get update && apt-get install -y --no-install-recommends ca-certificates libssl3 && rm -rf /var/lib/apt/lists/*
//	      - copy: backend:server /srv/omar-server
//	      - copy: frontend:assets /srv/static
//	    entrypoint: [/srv/omar-server]
//	    port: 8080
//	    env:
//	      PORT: "8080"
package manifest
