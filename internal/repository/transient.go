package repository

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that indicate the transaction was aborted for
// reasons unrelated to business state and may succeed on redelivery.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeCannotConnectNow     = "57P03"

	classConnectionException   = "08"
	classInsufficientResources = "53"
)

// IsTransient reports whether err is a store-level failure worth
// retrying. Business-rule failures and missing rows are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeCannotConnectNow:
			return true
		}
		if len(pgErr.Code) >= 2 {
			switch pgErr.Code[:2] {
			case classConnectionException, classInsufficientResources:
				return true
			}
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
