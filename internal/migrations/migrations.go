// Package migrations applies the embedded schema migrations at startup.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

// Up brings the database schema to the latest version.
func Up(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "[migrations.Up] set dialect")
	}
	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "[migrations.Up] apply migrations")
	}
	return nil
}
