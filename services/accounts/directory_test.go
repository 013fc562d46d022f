package accounts

import (
	"context"
	"testing"

	"github.com/PrithviSeran/whats-poppin-sub003/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T, table string) *Directory {
	t.Helper()

	directory, err := NewDirectory(testutils.SetupTestDB(t), table, nil)
	require.NoError(t, err)
	require.NoError(t, directory.Migrate())
	return directory
}

func TestNewDirectory_TableName(t *testing.T) {
	db := testutils.SetupTestDB(t)

	for _, table := range []string{"users", "app_users", "public.users"} {
		_, err := NewDirectory(db, table, nil)
		assert.NoError(t, err, table)
	}

	for _, table := range []string{"", "users; DROP TABLE users", "1users", "a.b.c"} {
		_, err := NewDirectory(db, table, nil)
		assert.ErrorIs(t, err, ErrInvalidTable, table)
	}
}

func TestDirectory_EmailExists(t *testing.T) {
	ctx := context.Background()
	directory := newTestDirectory(t, "users")

	require.NoError(t, directory.Register(ctx, testutils.TestEmails.Registered))

	exists, err := directory.EmailExists(ctx, testutils.TestEmails.Registered)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = directory.EmailExists(ctx, "  TAKEN@example.com ")
	require.NoError(t, err)
	assert.True(t, exists, "lookup is case-insensitive")

	exists, err = directory.EmailExists(ctx, testutils.TestEmails.Unregistered)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDirectory_CustomTable(t *testing.T) {
	ctx := context.Background()
	directory := newTestDirectory(t, "profiles")

	assert.Equal(t, "profiles", directory.Table())
	require.NoError(t, directory.Register(ctx, "a@example.com"))

	var count int64
	require.NoError(t, directory.db.Table("profiles").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDirectory_Register(t *testing.T) {
	ctx := context.Background()
	directory := newTestDirectory(t, "users")

	require.NoError(t, directory.Register(ctx, "  Mixed@Example.com"))
	assert.Error(t, directory.Register(ctx, "mixed@example.com"), "emails are unique")
	assert.Error(t, directory.Register(ctx, testutils.TestEmails.Invalid))
}

func TestDirectory_MissingTable(t *testing.T) {
	directory, err := NewDirectory(testutils.SetupTestDB(t), "users", nil)
	require.NoError(t, err)

	_, err = directory.EmailExists(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrUnavailable)
}
