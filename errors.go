package ndstream

import "errors"

var (
	// ErrErrorState is returned by every operation of a Producer whose transport
	// could not be initialised, or whose max message size could not be raised.
	ErrErrorState      = errors.New("producer is in a permanent error state")
	ErrEmptyBuffer     = errors.New("buffer is empty")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNotConnected    = errors.New("no broker connection")
	ErrQueueFull       = errors.New("local send queue is full")
	ErrMessageTooLarge = errors.New("message exceeds the maximum message size")
	ErrTimeout         = errors.New("timed out")
	ErrAlreadyStarted  = errors.New("already started")
	ErrClosed          = errors.New("closed")
	ErrNoEncoder       = errors.New("no encoder configured")
)
