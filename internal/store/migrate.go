package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration newer than the database's user_version.
func (s *Store) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	return s.migrateFrom(ctx, sub)
}

func (s *Store) migrateFrom(ctx context.Context, source fs.FS) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := fs.ReadDir(source, ".")
	if err != nil {
		return errors.WrapError(err, errors.CategoryDatabase, "read migrations").Build()
	}
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })

	current, err := s.userVersion(ctx)
	if err != nil {
		return dbError(err, "read schema version")
	}
	final, err := scriptVersion(list[len(list)-1].Name())
	if err != nil {
		return err
	}
	if final > current {
		slog.Info("Applying database migrations", "from_version", current, "to_version", final)
	}

	for _, f := range list {
		name := f.Name()
		v, err := scriptVersion(name)
		if err != nil {
			return err
		}

		// Re-read on every step so an out-of-order script never runs after a newer one.
		c, err := s.userVersion(ctx)
		if err != nil {
			return dbError(err, "read schema version")
		}
		if v <= c {
			continue
		}

		slog.Debug("Executing migration", "migration_name", name)
		script, err := fs.ReadFile(source, name)
		if err != nil {
			return errors.WrapError(err, errors.CategoryDatabase, "read migration").WithContext("migration", name).Build()
		}
		if err := s.execTrans(ctx, string(script)); err != nil {
			return errors.WrapError(err, errors.CategoryDatabase, "apply migration").WithContext("migration", name).Build()
		}
	}
	return nil
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return s.userVersion(ctx)
}

// scriptVersion extracts the version from a file named like "0002_migration_name.sql".
func scriptVersion(filename string) (int, error) {
	v, err := strconv.Atoi(strings.Split(filename, "_")[0])
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("migration %q is not prefixed with a version number", filename)).Build()
	}
	return v, nil
}
