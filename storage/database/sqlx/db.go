// Package sqlxrepos implements the core repositories on PostgreSQL
// via sqlx. Uniqueness rules live in the schema; constraint violations
// are translated back into the core packages' domain errors.
package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// uniqueViolation reports whether err is a unique violation of the named constraint.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}
