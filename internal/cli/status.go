package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/ai-DevOmer/stager/internal/paths"
	"github.com/ai-DevOmer/stager/internal/protocol"
)

// Represents the 'stager status' command.
type StatusCmd struct{}

// Executes the status command.
//
// Connects to the daemon socket and prints the status response. A
// connection failure means no daemon is running on the socket.
func (c *StatusCmd) Run(ctx context.Context) error {
	socket := RootCmd.Socket
	if socket == "" {
		socket = paths.Socket()
	}

	payload, err := roundTrip(ctx, socket, protocol.CmdStatus, nil)
	if err != nil {
		return err
	}

	status, err := protocol.DecodePayload[protocol.StatusResult](payload)
	if err != nil {
		return err
	}

	fmt.Printf("running: %t\n", status.Running)
	fmt.Printf("version: %s\n", status.Version)
	fmt.Printf("pid:     %d\n", status.Pid)
	fmt.Printf("uptime:  %s\n", status.Uptime)
	fmt.Printf("builds:  %d\n", status.Builds)
	return nil
}

// Performs a single request-response exchange with the daemon.
func roundTrip(ctx context.Context, socket string, cmd protocol.Command, req any) (json.RawMessage, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", socket, err)
	}
	defer conn.Close()

	data, err := protocol.Encode(cmd, req)
	if err != nil {
		return nil, err
	}
	data = append(data, byte(10))
	if _, err := conn.Write(data); err != nil {
		return nil, err
	}

	line, err := bufio.NewReader(conn).ReadBytes(byte(10))
	if err != nil {
		return nil, err
	}

	env, payload, err := protocol.Decode(line)
	if err != nil {
		return nil, err
	}

	if env.Command == protocol.CmdError {
		result, err := protocol.DecodePayload[protocol.ErrorResult](payload)
		if err != nil {
			return nil, err
		}
		return nil, errors.New(result.Message)
	}

	return payload, nil
}
