// Package protocol defines the wire format between the stager CLI and
// the daemon.
//
// Messages are newline-delimited JSON envelopes. Each envelope carries a
// command name and an optional command-specific payload. The client sends
// one request envelope per connection and the daemon answers with exactly
// one response envelope, either "ok" with a result payload or "error"
// with an [ErrorResult].
//
// Example usage:
//
//	data, err := protocol.Encode(protocol.CmdBuild, &protocol.BuildRequest{
//	    Manifest: "/home/dev/app/pipeline.yaml",
//	    Output:   "/home/dev/app/out",
//	})
//	if err != nil {
//	    return err
//	}
//	conn.Write(append(data, '\n'))
package protocol
