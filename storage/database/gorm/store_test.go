package gormrepos_test

import (
	"testing"

	"github.com/trezcool/scolarite/core/registration"
	gormrepos "github.com/trezcool/scolarite/storage/database/gorm"
	"github.com/trezcool/scolarite/tests"
)

func TestStore(t *testing.T) {
	testutil.RunStoreTests(t, func(t *testing.T) registration.Store {
		return gormrepos.NewStore(testutil.PrepareGormDB(t))
	})
}
