// Package repository provides PostgreSQL persistence for accounts, listings
// and the records attached to them.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/realtyhub/realtyhub/internal/models"
)

// PostgreSQL error codes translated into the domain taxonomy.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translate maps driver errors onto models errors so callers never see raw
// driver values.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, models.ErrConflict)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOne turns a zero-row update or delete into ErrNotFound.
func expectOne(res sql.Result, err error, op string) error {
	if err != nil {
		return translate(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
