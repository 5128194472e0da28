package dberrors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_applications_student_open"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", dup, "uq_applications_student_open", true},
		{"wrapped", fmt.Errorf("insert: %w", dup), "uq_applications_student_open", true},
		{"other constraint", dup, "uq_users_email", false},
		{"other code", &pgconn.PgError{Code: "23503", ConstraintName: "uq_users_email"}, "uq_users_email", false},
		{"plain error", fmt.Errorf("boom"), "uq_users_email", false},
		{"nil", nil, "uq_users_email", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateConstraintError(tt.err, tt.constraint))
		})
	}
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(fmt.Errorf("scan failed")))
}
