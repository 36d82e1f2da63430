package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/forceradar/internal/dataset"
)

var (
	ErrUnknownPoint  = errors.New("unknown point")
	ErrUnknownTarget = errors.New("unknown target")
	ErrUnknownGroup  = errors.New("unknown group")
)

// ValidationError reports a malformed dataset. It is the only error that
// aborts a load.
type ValidationError = dataset.ValidationError

// ReferenceWarning reports an operation naming an entity that does not
// exist. The sub-operation is skipped and
// the warning logged; it is never returned to the caller.
type ReferenceWarning struct {
	Op   string
	Kind string
	ID   string
	Err  error
}

func (w *ReferenceWarning) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", w.Op, w.Kind, w.ID, w.Err)
}

func (w *ReferenceWarning) Unwrap() error { return w.Err }
