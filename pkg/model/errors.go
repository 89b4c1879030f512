package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrInvalidInput is returned for user input rejected before orchestration, such as a blank query
	ErrInvalidInput = goerr.New("invalid input")

	// ErrTransport is returned when the model call itself fails
	ErrTransport = goerr.New("model transport error")

	// ErrBusy is returned when an answer is requested while another one is in flight
	ErrBusy = goerr.New("another answer is in progress")

	// ErrTimeout is returned when the caller supplied deadline expired before the turn completed
	ErrTimeout = goerr.New("answer timed out")

	// ErrPersistence is returned when the memory backend failed; the in-memory state is still updated
	ErrPersistence = goerr.New("memory persistence failed")

	ErrInvalidArgument = goerr.New("invalid tool argument")
	ErrToolExecution   = goerr.New("tool execution failed")
	ErrUnknownTool     = goerr.New("unknown tool")
)
