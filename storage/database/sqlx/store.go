package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

type (
	// Store is the registration.Store backed by sqlx. Queries are written with `?` placeholders
	// and rebound to the driver's bindvars, so the same code runs on postgres and sqlite.
	Store struct {
		repository
		db *sqlx.DB
	}

	// repository runs every query on exec, which is either the *sqlx.DB or the current *sqlx.Tx.
	repository struct {
		exec sqlx.ExtContext
	}
)

var (
	_ registration.Store      = (*Store)(nil)      // interface compliance check
	_ registration.Repository = (*repository)(nil) // interface compliance check
)

func NewStore(db *sqlx.DB) *Store {
	return &Store{repository: repository{exec: db}, db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repo registration.Repository) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&repository{exec: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo repository) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, repo.exec, dest, repo.exec.Rebind(query), args...)
}

func (repo repository) all(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, repo.exec, dest, repo.exec.Rebind(query), args...)
}

func (repo repository) execute(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return repo.exec.ExecContext(ctx, repo.exec.Rebind(query), args...)
}

// namedExec binds the `:name` parameters of query to arg, a struct or a slice of structs (bulk insert).
func (repo repository) namedExec(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, repo.exec, query, arg)
}

// selectIn expands the `IN (?)` of query with ids. ids must not be empty.
func (repo repository) selectIn(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return repo.all(ctx, dest, q, inArgs...)
}

// trapNoRowsErr maps the "no rows" err to registration.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return registration.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err is a unique constraint violation, on postgres or sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// orderBy returns the ORDER BY clause of ordering, restricted to the allowed fields.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback string) string {
	ordering = core.FilterOrderings(ordering, allowed)
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
