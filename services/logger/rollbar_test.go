package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/scolarite/core/registration"
)

func TestRollbarLogger_prepare(t *testing.T) {
	var l RollbarLogger
	dupont := registration.Family{ID: "f1", Name: "Dupont", Email: "dupont@test.fr"}
	martin := registration.Family{ID: "f2", Name: "Martin", Email: "martin@test.fr"}
	errBoom := errors.New("boom")

	tests := []struct {
		name string
		args []interface{}
		want []interface{}
	}{
		{name: "message only", want: []interface{}{"msg"}},
		{name: "error", args: []interface{}{errBoom}, want: []interface{}{"msg", errBoom}},
		{
			name: "family",
			args: []interface{}{dupont},
			want: []interface{}{"msg", map[string]interface{}{
				"family_id":    "f1",
				"family_name":  "Dupont",
				"family_email": "dupont@test.fr",
			}},
		},
		{
			name: "family merged with extras, first family wins",
			args: []interface{}{errBoom, map[string]interface{}{"students": 2, "family_id": "lol"}, dupont, martin},
			want: []interface{}{"msg", errBoom, map[string]interface{}{
				"students":     2,
				"family_id":    "f1",
				"family_name":  "Dupont",
				"family_email": "dupont@test.fr",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.prepare("msg", tt.args))
		})
	}
}
