package tool

import "fmt"

// ErrToolNotFound is returned when a call names a tool that is not registered.
type ErrToolNotFound struct {
	Name string
}

func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrToolAlreadyRegistered is returned when a name is registered twice.
type ErrToolAlreadyRegistered struct {
	Name string
}

func (e *ErrToolAlreadyRegistered) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ErrInvalidArguments is returned when a call's arguments do not decode
// into the handler's argument type.
type ErrInvalidArguments struct {
	Name string
	Err  error
}

func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: %s: invalid arguments: %v", e.Name, e.Err)
}

func (e *ErrInvalidArguments) Unwrap() error { return e.Err }
