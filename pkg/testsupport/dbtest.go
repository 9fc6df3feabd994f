package testsupport

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewSQLiteMemoryDB opens a shared in-memory sqlite database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}

// NewBunMemoryDB wraps NewSQLiteMemoryDB with the sqlite bun dialect and a
// single connection, so every query sees the same in-memory database.
func NewBunMemoryDB() (*bun.DB, error) {
	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		return nil, err
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	return db, nil
}
