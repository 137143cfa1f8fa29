package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Names a daemon operation or response kind.
type Command string

const (
	// Client commands.
	CmdBuild    Command = "build"
	CmdStatus   Command = "status"
	CmdShutdown Command = "shutdown"

	// Server responses.
	CmdOK    Command = "ok"
	CmdError Command = "error"
)

// Malformed or unrecognized wire data.
var ErrProtocol = errors.New("protocol error")

// Wraps a command and its payload for transmission.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Parameters for a build command.
type BuildRequest struct {
	Manifest string `json:"manifest"`           // Path to the pipeline manifest file.
	Output   string `json:"output"`             // Directory to write the exported image into.
	Root     string `json:"root,omitempty"`     // Build context root for host copy sources.
	Platform string `json:"platform,omitempty"` // Target platform. Empty uses the daemon default.
}

// Result of a successful build command.
type BuildResult struct {
	Output string `json:"output"` // Path to the exported image archive.
}

// Result of a status command.
type StatusResult struct {
	Running bool   `json:"running"`
	Version string `json:"version"`
	Pid     int    `json:"pid"`
	Uptime  string `json:"uptime"`
	Builds  int    `json:"builds"` // Build commands processed since startup.
}

// Payload of an error response.
type ErrorResult struct {
	Message string `json:"message"`
}

// Serializes a command and payload into a JSON envelope.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		env.Payload = data
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return data, nil
}

// Parses a JSON envelope and returns it together with the raw payload.
//
// The payload is left undecoded; callers pass it to [DecodePayload] once
// the command is known.
func Decode(data []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if env.Command == "" {
		return nil, nil, fmt.Errorf("%w: missing command", ErrProtocol)
	}
	return &env, env.Payload, nil
}

// Decodes a raw payload into a concrete request or result type.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrProtocol)
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return &v, nil
}
