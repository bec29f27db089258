package service

import "errors"

var (
	// ErrThreadNotFound is returned when a thread does not exist or belongs to another user.
	ErrThreadNotFound     = errors.New("thread not found")
	ErrUnknownCollection  = errors.New("unknown collection")
	ErrInvalidThreadState = errors.New("thread has an invalid compaction watermark")
)
