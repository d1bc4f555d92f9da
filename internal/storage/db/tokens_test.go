package db

import (
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
	return database
}

func TestSaveToken(t *testing.T) {
	db := setupTestDB(t)

	err := db.SaveToken(domain.SiteCurseforge, "test-api-key-123")
	require.NoError(t, err)

	token, err := db.GetToken(domain.SiteCurseforge)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, domain.SiteCurseforge, token.Site)
	assert.Equal(t, "test-api-key-123", token.APIKey)
	assert.False(t, token.UpdatedAt.IsZero())
}

func TestSaveToken_Update(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.SiteCurseforge, "old-key"))
	require.NoError(t, db.SaveToken(domain.SiteCurseforge, "new-key"))

	token, err := db.GetToken(domain.SiteCurseforge)
	require.NoError(t, err)
	assert.Equal(t, "new-key", token.APIKey)
}

func TestGetToken_NotFound(t *testing.T) {
	db := setupTestDB(t)

	token, err := db.GetToken(domain.SiteModrinth)
	assert.NoError(t, err)
	assert.Nil(t, token)
}

func TestDeleteToken(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.SiteModrinth, "test-key"))
	require.NoError(t, db.DeleteToken(domain.SiteModrinth))

	token, err := db.GetToken(domain.SiteModrinth)
	assert.NoError(t, err)
	assert.Nil(t, token)

	// Deleting a missing token is not an error
	assert.NoError(t, db.DeleteToken(domain.SiteModrinth))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.migrate())

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 3, version)
}
