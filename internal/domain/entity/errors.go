package entity

import "errors"

var (
	ErrNotFound               = errors.New("identity not found")
	ErrDuplicateIdentity      = errors.New("identity already registered")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrLockTimeout            = errors.New("record guard not acquired within bound")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)
