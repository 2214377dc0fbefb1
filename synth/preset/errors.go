package preset

import (
	"errors"
	"strings"
)

// ErrMalformed is returned when a document cannot be parsed at all.
var ErrMalformed = errors.New("preset: malformed document")

// PartialApplyError lists the entries skipped while applying a preset whose
// remaining entries were applied.
type PartialApplyError struct {
	Skipped []string
}

func (e *PartialApplyError) Error() string {
	return "preset: skipped " + strings.Join(e.Skipped, "; ")
}
