// Package runtime provides containerd-backed stage containers.
//
// A [Runtime] connects to a containerd daemon and turns OCI archives into
// running stage containers. Archives are imported into the content store,
// tagged with a deterministic content hash, unpacked for the target
// platform, and started with a long-running task so that build steps can
// exec into them.
//
// A [Container] is one stage's isolated filesystem. Commands run inside it
// via Exec, files move in and out as tar streams, and paths can be probed
// for existence and executability. The export stage's container is
// committed and written out as an OCI archive carrying the runtime
// contract: entrypoint, exposed port, and environment defaults.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "stager")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	ctr, err := rt.StartContainer(ctx, "images/debian-slim.tar", "omar-stage-runtime", "linux/amd64")
//	if err != nil {
//	    return err
//	}
//	defer ctr.Destroy(ctx)
//
//	if err := ctr.Export(ctx, "dist", runtime.ImageConfig{
//	    Entrypoint: []string{"/srv/omar-server"},
//	    Port:       8080,
//	    Env:        map[string]string{"PORT": "8080"},
//	}); err != nil {
//	    return err
//	}
package runtime
