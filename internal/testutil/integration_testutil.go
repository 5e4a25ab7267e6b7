package testutil

import (
	"os"
	"testing"

	"github.com/theLastOfCats/mylibrary-server/internal/db"
)

// SetupMySQLTestDB initializes a MySQL-backed DB for integration tests.
// It skips tests when MYSQL_TEST_DSN is not set.
func SetupMySQLTestDB(t *testing.T) *db.DB {
	t.Helper()
	return setupExternalDB(t, "MYSQL_TEST_DSN")
}

// SetupPostgresTestDB is the Postgres counterpart, driven by POSTGRES_TEST_DSN.
func SetupPostgresTestDB(t *testing.T) *db.DB {
	t.Helper()
	return setupExternalDB(t, "POSTGRES_TEST_DSN")
}

func setupExternalDB(t *testing.T, env string) *db.DB {
	t.Helper()

	dsn := os.Getenv(env)
	if dsn == "" {
		t.Skipf("%s not set; skipping integration tests", env)
	}

	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to init test db from %s: %v", env, err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	resetTables(t, database)
	return database
}

func resetTables(t *testing.T, database *db.DB) {
	t.Helper()

	stmts := []string{"DELETE FROM books", "DELETE FROM users"}
	for _, stmt := range stmts {
		if _, err := database.Exec(stmt); err != nil {
			t.Fatalf("reset failed on %q: %v", stmt, err)
		}
	}
}
