package database

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrUniqueViolation     = errors.New("benzersizlik kısıtlaması ihlal edildi")
	ErrForeignKeyViolation = errors.New("yabancı anahtar kısıtlaması ihlal edildi")
	ErrNotNullViolation    = errors.New("not-null kısıtlaması ihlal edildi")
)

// TranslateError maps driver specific constraint failures onto the package
// sentinels so callers can branch with errors.Is on either engine.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return ErrForeignKeyViolation
		case sqlite3.ErrConstraintNotNull:
			return ErrNotNullViolation
		}
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrUniqueViolation
		case "23503":
			return ErrForeignKeyViolation
		case "23502":
			return ErrNotNullViolation
		}
		return err
	}

	return err
}
