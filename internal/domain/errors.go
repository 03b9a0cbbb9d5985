package domain

import "errors"

var (
	ErrAgentNotFound         = errors.New("agent not found")
	ErrEmptyCast             = errors.New("no agents configured")
	ErrInvalidHourRange      = errors.New("invalid hour range")
	ErrChatterAlreadyStarted = errors.New("chatter loop already started")
	ErrUnknownChannel        = errors.New("unknown channel")
	ErrMemoryNotFound        = errors.New("memory not found")
)
