package dummydb_test

import (
	"testing"

	"github.com/trezcool/scolarite/core/registration"
	"github.com/trezcool/scolarite/storage/database/dummy"
	"github.com/trezcool/scolarite/tests"
)

func TestStore(t *testing.T) {
	testutil.RunStoreTests(t, func(t *testing.T) registration.Store {
		db, err := dummydb.Open()
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		return dummydb.NewStore(db)
	})
}
