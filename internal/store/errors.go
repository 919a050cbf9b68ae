package store

import (
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// Sentinel errors. Match with errors.Is; returned errors may carry extra context.
var (
	ErrUserNotFound  = errors.NotFoundError("user not found").Build()
	ErrLinkNotFound  = errors.NotFoundError("link not found").Build()
	ErrEmailTaken    = errors.AlreadyExistsError("User with that email already exists").Build()
	ErrUsernameTaken = errors.AlreadyExistsError("User with that username already exists").Build()
)

// uniqueViolation reports whether err is a UNIQUE constraint failure on table.column.
func uniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
