package injector

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Every failure returned by Apply is an *Error
// whose Kind is one of these.
var (
	ErrConfigNotFound = errors.New("config not found")
	ErrParse          = errors.New("config parse failed")
	ErrWrite          = errors.New("config write failed")
)

// State is a step of one apply.
type State string

const (
	StateLocate    State = "locate"
	StateBootstrap State = "bootstrap"
	StateParse     State = "parse"
	StatePatch     State = "patch"
	StateWrite     State = "write"
	StateDone      State = "done"
)

type Error struct {
	Kind     error
	State    State
	Emulator string
	Path     string
	Err      error
}

func (e *Error) Code() string {
	switch {
	case e.Kind == ErrConfigNotFound:
		return "INJ_LOCATE"
	case e.Kind == ErrWrite:
		return "INJ_WRITE"
	case e.State == StatePatch:
		return "INJ_PATCH"
	default:
		return "INJ_PARSE"
	}
}

func (e *Error) Error() string {
	where := e.Emulator
	if e.Path != "" {
		where += " " + e.Path
	}
	return fmt.Sprintf("%s: %s: %s failed: %v", e.Code(), where, e.State, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}
