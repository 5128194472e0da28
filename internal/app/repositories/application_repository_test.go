package repositories

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uniadmit/admission/internal/app/models"
)

func TestDraftUpdateOnlyMatchesDrafts(t *testing.T) {
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	app := &models.Application{ID: 42, StudentID: 7, CourseApplied: "B.Sc Physics", Status: models.StatusPending}

	sqlQuery, args, err := draftUpdate(sb, app).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sqlQuery, "WHERE id = $19 AND status = $20")
	require.Len(t, args, 20)
	assert.Equal(t, int64(42), args[18])
	assert.Equal(t, "draft", args[19])
	assert.Contains(t, args, "pending")
}
