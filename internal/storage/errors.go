// Package storage defines the error taxonomy shared by all table
// repositories. Repositories wrap backend failures in *OpError so callers can
// tell connection, timeout, and other backend faults apart and see which
// repository and operation failed. Missing rows are not errors; repositories
// return (nil, nil) for those.
package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a backend failure.
type Kind int

const (
	// KindBackend is any backend failure that is not a connection or timeout fault.
	KindBackend Kind = iota
	// KindConnection means the database could not be reached.
	KindConnection
	// KindTimeout means the call exceeded its deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	default:
		return "backend"
	}
}

// OpError is a backend failure wrapped with the repository and operation that
// produced it. It unwraps to the driver error for errors.Is/As matching.
type OpError struct {
	Repo string
	Op   string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s.%s: %s error: %v", e.Repo, e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap classifies err and returns it as an *OpError tagged with repo and op.
// Returns nil if err is nil. No retry is attempted here or anywhere below the
// caller; transient faults surface immediately.
func Wrap(repo, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Repo: repo, Op: op, Kind: classify(err), Err: err}
}

// query_canceled; raised by the server when a statement deadline fires.
const pgCodeQueryCanceled = "57014"

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	if errors.Is(err, driver.ErrBadConn) {
		return KindConnection
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return KindConnection
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCodeQueryCanceled {
		return KindTimeout
	}
	return KindBackend
}

// unique_violation; raised when an insert or update breaks a unique constraint.
const pgCodeUniqueViolation = "23505"

// IsUniqueViolation reports whether err was caused by a unique-constraint
// violation, e.g. two concurrent creates racing on the same login name. The
// constraint lives in the schema, so exactly one of the racers wins.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}

// IsTimeout reports whether err is an OpError of kind timeout.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsConnection reports whether err is an OpError of kind connection.
func IsConnection(err error) bool { return kindOf(err) == KindConnection }

func kindOf(err error) Kind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindBackend
}
