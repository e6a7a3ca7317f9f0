package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolationPgError(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "idx_orders_order_number"}

	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "idx_orders_order_number"))
	require.False(t, IsUniqueViolation(err, "idx_users_email"))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
}

func TestIsUniqueViolationWrapped(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}
	err := fmt.Errorf("creating user: %w", cause)
	require.True(t, IsUniqueViolation(err, "idx_users_email"))
}

func TestIsUniqueViolationSQLiteMessage(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: orders.order_number")
	require.True(t, IsUniqueViolation(err, ""))
	require.True(t, IsUniqueViolation(err, "order_number"))
}

func TestIsUniqueViolationNil(t *testing.T) {
	require.False(t, IsUniqueViolation(nil, ""))
}
