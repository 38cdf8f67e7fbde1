package repository

import (
	"fmt"
	"strings"

	"github.com/akinalp/gaduly/pkg"
)

// isUniqueViolation reports a SQLite UNIQUE or PRIMARY KEY conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// channelKindError translates the RAISE(ABORT, 'invalid channel: ...')
// of the channel kind triggers into a validation error. Other errors are
// returned unchanged.
func channelKindError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	idx := strings.Index(msg, "invalid channel: ")
	if idx < 0 {
		return err
	}
	reason := strings.TrimPrefix(msg[idx:], "invalid channel: ")
	// the driver appends the result code, e.g. "... (1811)"
	if cut := strings.LastIndex(reason, " ("); cut > 0 {
		reason = reason[:cut]
	}
	return fmt.Errorf("%w: %s", pkg.ErrBadRequest, reason)
}

// isForeignKeyViolation reports a reference to a missing parent row.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
