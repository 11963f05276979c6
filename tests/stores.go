package testutil

import (
	"testing"

	"github.com/trezcool/scolarite/core/registration"
	dummydb "github.com/trezcool/scolarite/storage/database/dummy"
	gormrepos "github.com/trezcool/scolarite/storage/database/gorm"
	sqlxrepos "github.com/trezcool/scolarite/storage/database/sqlx"
)

// NamedStore is one registration.Store implementation.
type NamedStore struct {
	Name string
	New  StoreFactory
}

// Stores returns a factory for every registration.Store implementation.
func Stores() []NamedStore {
	return []NamedStore{
		{Name: "sqlx", New: func(t *testing.T) registration.Store {
			return sqlxrepos.NewStore(PrepareDB(t))
		}},
		{Name: "gorm", New: func(t *testing.T) registration.Store {
			return gormrepos.NewStore(PrepareGormDB(t))
		}},
		{Name: "dummy", New: func(t *testing.T) registration.Store {
			db, err := dummydb.Open()
			if err != nil {
				t.Fatalf("dummydb.Open() failed: %v", err)
			}
			return dummydb.NewStore(db)
		}},
	}
}
