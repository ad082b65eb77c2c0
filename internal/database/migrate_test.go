package database

import (
	"context"
	"testing"
	"testing/fstest"

	"postboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrations(t *testing.T) {
	list := GetMigrations()
	require.NotEmpty(t, list)

	for i, m := range list {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, list[i-1].Version)
		}
	}

	first := GetMigrationByVersion(1)
	require.NotNil(t, first)
	assert.Equal(t, "000001_init", first.String())
	assert.Contains(t, first.UpScript, "CREATE TABLE IF NOT EXISTS votes")
	assert.Nil(t, GetMigrationByVersion(9999))
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("UP 2")},
		"m/000002_second.down.sql": {Data: []byte("DOWN 2")},
		"m/000001_first.up.sql":    {Data: []byte("UP 1")},
		"m/000001_first.down.sql":  {Data: []byte("DOWN 1")},
		"m/README.md":              {Data: []byte("ignored")},
		"m/bad.up.sql":             {Data: []byte("ignored")},
	}

	list, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "DOWN 2", list[1].DownScript)
}

func TestLoadMigrations_MissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_first.up.sql": {Data: []byte("UP 1")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.ErrorContains(t, err, "000001_first.down.sql")
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000001_a.up.sql":   {Data: []byte("UP")},
		"m/000001_a.down.sql": {Data: []byte("DOWN")},
		"m/000001_b.up.sql":   {Data: []byte("UP")},
		"m/000001_b.down.sql": {Data: []byte("DOWN")},
	}
	_, err := LoadMigrations(fsys, "m")
	assert.ErrorContains(t, err, "duplicate migration version")
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(&config.Config{DBDriver: config.DriverSQLite, DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestRunMigrations_AppliesPendingOnce(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	list := []Migration{
		{Version: 1, Name: "widgets", UpScript: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE widgets"},
		{Version: 2, Name: "gadgets", UpScript: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE gadgets"},
	}

	require.NoError(t, runMigrations(ctx, db, list))
	// A second run must be a no-op rather than failing on existing tables.
	require.NoError(t, runMigrations(ctx, db, list))

	applied, err := NewMigrationStore(db).AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, rollback(ctx, db, list[1]))
	assert.False(t, db.Migrator().HasTable("gadgets"))

	applied, err = NewMigrationStore(db).AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	assert.ErrorContains(t, rollback(ctx, db, list[1]), "has not been applied")
}

func TestRunMigrations_FailedScriptIsNotRecorded(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	list := []Migration{{Version: 1, Name: "broken", UpScript: "CREATE TABLE (", DownScript: ""}}
	require.Error(t, runMigrations(ctx, db, list))

	applied, err := NewMigrationStore(db).AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestAppliedVersions_MissingTable(t *testing.T) {
	db := newSQLiteDB(t)
	applied, err := NewMigrationStore(db).AppliedVersions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUnknownAndPendingVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}, {Version: 4}}

	assert.Empty(t, unknownVersions(nil, registered))
	assert.Empty(t, unknownVersions([]int{1, 2}, registered))
	unknown := unknownVersions([]int{1, 7, 3}, registered)
	assert.Equal(t, []int{3, 7}, unknown)
	assert.Equal(t, "000003, 000007", formatVersions(unknown))

	todo := pending([]int{2}, registered)
	require.Len(t, todo, 2)
	assert.Equal(t, 1, todo[0].Version)
	assert.Equal(t, 4, todo[1].Version)
	assert.Empty(t, pending([]int{1, 2, 4}, registered))
}

func TestRunMigrations_RejectsUnknownVersions(t *testing.T) {
	db := newSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, runMigrations(ctx, db, []Migration{
		{Version: 5, Name: "five", UpScript: "CREATE TABLE five (id INTEGER)", DownScript: "DROP TABLE five"},
	}))
	err := runMigrations(ctx, db, []Migration{{Version: 1, Name: "one", UpScript: "SELECT 1"}})
	assert.ErrorContains(t, err, "000005")
}
