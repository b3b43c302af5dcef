package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
)

// Sentinels for store-level failures. The constructors below join one with a
// message so MapError can classify the result.
var (
	ErrValidation   = errors.New("store validation")
	ErrPrecondition = errors.New("store precondition")
	ErrConflict     = errors.New("store conflict")
	ErrRetryable    = errors.New("store retryable")
)

func tagged(sentinel error, msg string) error {
	return errors.Join(sentinel, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error   { return tagged(ErrValidation, msg) }
func PreconditionError(msg string) error { return tagged(ErrPrecondition, msg) }
func ConflictError(msg string) error     { return tagged(ErrConflict, msg) }
func RetryableError(msg string) error    { return tagged(ErrRetryable, msg) }

// sentinels are checked in order; the first match decides the code.
var sentinels = []struct {
	err  error
	code domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrPrecondition, domainagg.CodePreconditionFailed},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{gorm.ErrDuplicatedKey, domainagg.CodeConflict},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// Driver messages seen from sqlite and from pg errors that lost their type.
var messageHints = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"duplicate key", domainagg.CodeConflict},
	{"unique constraint", domainagg.CodeConflict},
	{"already exists", domainagg.CodeConflict},
	{"deadlock", domainagg.CodeRetryable},
	{"database is locked", domainagg.CodeRetryable},
	{"serialization", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
}

// MapError maps store and validation failures into aggregate error codes.
// Errors that already carry a code pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	var formatErr *labtest.FormatError
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &formatErr) || errors.As(err, &fieldErrs) {
		return domainagg.CodeValidation
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, h := range messageHints {
		if strings.Contains(msg, h.fragment) {
			return h.code
		}
	}
	return domainagg.CodeInternal
}
