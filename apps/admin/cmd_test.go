package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
	"github.com/trezcool/scolarite/storage/database"
	gormrepos "github.com/trezcool/scolarite/storage/database/gorm"
	sqlxrepos "github.com/trezcool/scolarite/storage/database/sqlx"
	"github.com/trezcool/scolarite/tests"
)

var repo registration.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	repo = sqlxrepos.NewStore(db)

	// start CLI
	return &commandLine{
		db:     db.DB,
		engine: core.EngineSQLite,
		repo:   repo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "addschoolyear: no args", args: []string{"addschoolyear"}, wantErr: errHelp},
		{name: "addschoolyear: no start", args: []string{"addschoolyear", "-label", "2025-2026"}, wantErr: errHelp},
		{name: "addcourse: no args", args: []string{"addcourse"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course_levels", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
}

func Test_commandLine_addSchoolYear(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "bad start", args: []string{"addschoolyear", "-label", "2025-2026", "-start", "01/09/2025"}, wantErr: errInvalidArgs},
		{name: "bad end", args: []string{"addschoolyear", "-label", "2025-2026", "-start", "2025-09-01", "-end", "lol"}, wantErr: errInvalidArgs},
		{name: "end before start", args: []string{"addschoolyear", "-label", "2025-2026", "-start", "2025-09-01", "-end", "2025-01-01"}, wantErr: errInvalidArgs},
		{name: "default end", args: []string{"addschoolyear", "-label", "2024-2025", "-start", "2024-09-01"}},
		{name: "explicit end", args: []string{"addschoolyear", "-label", " 2025-2026 ", "-start", "2025-09-01", "-end", "2026-07-04", "-current"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	years, err := repo.QuerySchoolYears(context.Background())
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, "2025-2026", years[0].Label)
	assert.True(t, years[0].IsCurrent)
	assert.True(t, testutil.Date(2026, 7, 4).Equal(years[0].EndDate))
	assert.Equal(t, "2024-2025", years[1].Label)
	assert.False(t, years[1].IsCurrent)
	assert.True(t, testutil.Date(2025, 8, 31).Equal(years[1].EndDate))
}

func Test_commandLine_addCourse(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "negative price", args: []string{"addcourse", "-name", "Piano", "-price", "-1"}, wantErr: errInvalidArgs},
		{name: "negative capacity", args: []string{"addcourse", "-name", "Piano", "-capacity", "-1"}, wantErr: errInvalidArgs},
		{name: "valid", args: []string{"addcourse", "-name", "Piano", "-price", "25000", "-capacity", "8", "-schedule", "mercredi 14h"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	courses, err := repo.QueryCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, registration.Course{
		ID:         courses[0].ID,
		Name:       "Piano",
		Capacity:   8,
		PriceCents: 25000,
		Schedule:   "mercredi 14h",
	}, courses[0])
}

func Test_commandLine_addSchoolYear_sharedWithGormStore(t *testing.T) {
	// the admin CLI and the API (gorm engine) share the same sqlite file
	path := filepath.Join(t.TempDir(), "scolarite.db")

	goose.SetLogger(goose.NopLogger())
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, core.EngineSQLite))

	cli := &commandLine{
		db:     db,
		engine: core.EngineSQLite,
		repo:   sqlxrepos.NewStore(sqlx.NewDb(db, database.SQLiteDriver)),
	}
	err = cli.run([]string{"admin", "addschoolyear", "-label", "2025-2026", "-start", "2025-09-01", "-end", "2026-07-04"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	conn, err := gormrepos.Open(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gormrepos.Close(conn) })

	years, err := gormrepos.NewStore(conn).QuerySchoolYears(context.Background())
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.True(t, testutil.Date(2025, 9, 1).Equal(years[0].StartDate), "start_date = %v", years[0].StartDate)
	assert.True(t, testutil.Date(2026, 7, 4).Equal(years[0].EndDate), "end_date = %v", years[0].EndDate)
}
