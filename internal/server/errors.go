package server

import "errors"

var (
	// General server failure.
	ErrServer = errors.New("server error")
)
