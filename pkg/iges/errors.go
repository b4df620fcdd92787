package iges

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyAssociated = errors.New("iges: model already associated")
	ErrNotAssociated     = errors.New("iges: model not associated")
	ErrUnsupportedType   = errors.New("iges: unsupported entity type")
	ErrInvalidForm       = errors.New("iges: invalid form")
	ErrInvalidPointer    = errors.New("iges: invalid pointer")
	ErrInvalidStatus     = errors.New("iges: invalid status")
	ErrCycle             = errors.New("iges: circular reference")
	ErrUnitsMismatch     = errors.New("iges: units mismatch")
	ErrForeignEntity     = errors.New("iges: entity belongs to another model")
	ErrCorrupt           = errors.New("iges: corrupt file")
)

// Error is a failure tied to one directory entry.
type Error struct {
	Seq  int // DE sequence number, 0 when not yet assigned
	Type EntityType
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Seq > 0 {
		return fmt.Sprintf("iges: %s: DE %d (%s): %v", e.Op, e.Seq, e.Type, e.Err)
	}
	return fmt.Sprintf("iges: %s: %s: %v", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
