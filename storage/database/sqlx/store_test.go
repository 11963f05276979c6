package sqlxrepos_test

import (
	"testing"

	"github.com/trezcool/scolarite/core/registration"
	"github.com/trezcool/scolarite/storage/database/sqlx"
	"github.com/trezcool/scolarite/tests"
)

func TestStore(t *testing.T) {
	testutil.RunStoreTests(t, func(t *testing.T) registration.Store {
		return sqlxrepos.NewStore(testutil.PrepareDB(t))
	})
}
