package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
	"github.com/trezcool/scolarite/storage/database"
	gormrepos "github.com/trezcool/scolarite/storage/database/gorm"
)

// NewConfig returns the app config in test mode.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Database.Engine = core.EngineSQLite
	return conf
}

// NewValidator returns a validator with the core and registration validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)
	return validate, translator
}

// PrepareDB opens a migrated sqlite database in a temporary directory. It is closed on cleanup.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	goose.SetLogger(goose.NopLogger())
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db, core.EngineSQLite); err != nil {
		_ = db.Close()
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, database.SQLiteDriver)
}

// PrepareGormDB opens a migrated sqlite database through gorm in a temporary directory. It is closed on cleanup.
func PrepareGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	goose.SetLogger(goose.NopLogger())
	conn, err := gormrepos.Open(filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("PrepareGormDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = gormrepos.Close(conn) })
	return conn
}

// SilentLogger is a core.Logger that discards everything.
type SilentLogger struct{}

var _ core.Logger = SilentLogger{}

func (SilentLogger) Debug(string, ...interface{})       {}
func (SilentLogger) Info(string, ...interface{})        {}
func (SilentLogger) Warn(string, ...interface{})        {}
func (SilentLogger) Error(string, ...interface{})       {}
func (SilentLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

func CreateSchoolYear(t *testing.T, repo registration.Repository, label string, start time.Time) registration.SchoolYear {
	t.Helper()
	sy, err := repo.CreateSchoolYear(context.Background(), registration.SchoolYear{
		Label:     label,
		StartDate: start.UTC(),
		EndDate:   start.UTC().AddDate(1, 0, -1),
	})
	if err != nil {
		t.Fatalf("CreateSchoolYear() failed: %v", err)
	}
	return sy
}

func CreateCourse(t *testing.T, repo registration.Repository, name string, priceCents int64) registration.Course {
	t.Helper()
	crs, err := repo.CreateCourse(context.Background(), registration.Course{
		Name:       name,
		Capacity:   12,
		PriceCents: priceCents,
		Schedule:   "mercredi 14h",
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateFamily(t *testing.T, repo registration.Repository, name, email string) registration.Family {
	t.Helper()
	now := time.Now().UTC()
	fam, err := repo.CreateFamily(context.Background(), registration.Family{
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateFamily() failed: %v", err)
	}
	return fam
}

func CreateStudent(t *testing.T, repo registration.Repository, familyID, firstName, lastName string) registration.Student {
	t.Helper()
	std, err := repo.CreateStudent(context.Background(), registration.Student{
		FamilyID:         familyID,
		FirstName:        firstName,
		LastName:         lastName,
		RegistrationType: registration.TypeChild,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
