package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	customError "github.com/segyhp/loan-tracker/pkg/errors"
)

type countingResetter struct{ resets int }

func (c *countingResetter) Reset() { c.resets++ }

func TestIsConnectivityError(t *testing.T) {
	assert.False(t, isConnectivityError(nil))
	assert.False(t, isConnectivityError(sql.ErrNoRows))
	assert.False(t, isConnectivityError(errors.New("syntax error at or near")))
	assert.True(t, isConnectivityError(driver.ErrBadConn))
	assert.True(t, isConnectivityError(&net.OpError{Op: "dial", Err: errors.New("connection refused")}))
	assert.True(t, isConnectivityError(customError.ErrStoreUnavailable))
	assert.False(t, isConnectivityError(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.False(t, isConnectivityError(fmt.Errorf("query: %w", context.Canceled)))
}

func TestStoreError(t *testing.T) {
	t.Run("query errors leave the connection alone", func(t *testing.T) {
		r := &countingResetter{}
		err := storeError(r, "list loans", errors.New("relation does not exist"))

		assert.Equal(t, 0, r.resets)
		assert.NotErrorIs(t, err, customError.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "list loans")
	})

	t.Run("network errors reset the connection", func(t *testing.T) {
		r := &countingResetter{}
		err := storeError(r, "list loans", &net.OpError{Op: "read", Err: errors.New("connection reset")})

		assert.Equal(t, 1, r.resets)
		assert.ErrorIs(t, err, customError.ErrStoreUnavailable)
	})

	t.Run("caller deadline leaves the connection alone", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		r := &countingResetter{}
		err := storeError(r, "list loans", fmt.Errorf("query: %w", ctx.Err()))

		assert.Equal(t, 0, r.resets)
		assert.NotErrorIs(t, err, customError.ErrStoreUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("already unavailable is not reset twice", func(t *testing.T) {
		r := &countingResetter{}
		err := storeError(r, "ping", customError.ErrStoreUnavailable)

		assert.Equal(t, 0, r.resets)
		assert.ErrorIs(t, err, customError.ErrStoreUnavailable)
	})
}
