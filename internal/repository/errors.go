package repository

import (
	"strings"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
)

// Common repository errors. They are the application sentinels so that
// handlers can map them without knowing about the storage layer.
var (
	ErrNotFound     = apperrors.ErrNotFound
	ErrInvalidInput = apperrors.ErrInvalidInput
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercase LIKE pattern matching value anywhere.
// Wildcards in value are escaped so they match literally.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}
