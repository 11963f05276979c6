package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Dupont", CleanString("  Dupont\t"))
	assert.Equal(t, "a@b.com", CleanString(" A@B.com ", true))
	assert.Equal(t, "", CleanString("   "))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-06-29 ")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("29/06/2025")
	assert.Error(t, err)
}

func TestFilterOrderings(t *testing.T) {
	allowed := map[string]string{"name": "name", "created": "created_at"}
	got := FilterOrderings([]DBOrdering{
		{Field: "created", Ascending: true},
		{Field: "password"},
		{Field: "name"},
	}, allowed)
	assert.Equal(t, []DBOrdering{{Field: "created_at", Ascending: true}, {Field: "name"}}, got)
	assert.Equal(t, "created_at ASC", got[0].String())
	assert.Equal(t, "name DESC", got[1].String())
}
