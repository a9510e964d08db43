package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// constraintViolation reports the violated constraint name when err is a
// PostgreSQL error with the given code.
func constraintViolation(err error, code pq.ErrorCode) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != code {
		return "", false
	}
	return pqErr.Constraint, true
}
