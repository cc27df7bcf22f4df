package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"go.mongodb.org/mongo-driver/mongo"

	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

type resetter interface {
	Reset()
}

// isConnectivityError reports failures that mean the store itself is gone,
// as opposed to a bad query or a missing row.
func isConnectivityError(err error) bool {
	// the caller gave up; the connection itself is fine
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, customError.ErrStoreUnavailable) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// storeError resets the connection on connectivity failures so the next
// call redials, and marks the error as ErrStoreUnavailable.
func storeError(h resetter, op string, err error) error {
	if !isConnectivityError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !errors.Is(err, customError.ErrStoreUnavailable) {
		h.Reset()
		return fmt.Errorf("%s: %w: %w", op, customError.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
