package auth_test

import (
	"context"
	"database/sql"
	"testing"

	auth "github.com/goliatone/go-estate-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens a private in-memory sqlite database with the schema
// applied. A single connection serializes concurrent access in tests.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	require.NoError(t, auth.CreateSchema(context.Background(), db))

	t.Cleanup(func() { db.Close() })

	return db
}

func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	repo := auth.NewRepositoryManager(newTestDB(t))
	repo.MustValidate()
	return repo
}

func seedPerson(t *testing.T, repo auth.RepositoryManager, login, password string, role auth.UserRole) *auth.Person {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	person := &auth.Person{
		Login:        login,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, repo.Persons().Create(context.Background(), person))
	require.NotZero(t, person.ID)

	return person
}
