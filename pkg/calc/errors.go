package calc

import "errors"

var (
	// ErrInvalidName is returned for names that are empty, do not start
	// with an ASCII letter or contain anything but ASCII letters and digits.
	ErrInvalidName = errors.New("invalid name")
	// ErrNameInUse is returned when a family already has a node by that name.
	ErrNameInUse = errors.New("name already in use")
	// ErrNotFound is returned for unknown names, node IDs or families.
	ErrNotFound = errors.New("not found")
	// ErrInUse is returned when removing a node something else still
	// references.
	ErrInUse = errors.New("still in use")
	// ErrWrongFamily is returned when an operand has the wrong family.
	ErrWrongFamily = errors.New("wrong family")
	// ErrUnsupportedEdit is returned for edits a node kind does not accept.
	ErrUnsupportedEdit = errors.New("unsupported edit")
)
