package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core/registration"
	"github.com/trezcool/scolarite/tests"
)

const preRegistrationBody = `{
	"family": {"family_name": "Assas", "parent_first_name": "Myriam", "contact_email": "a@b.com", "city": "Paris"},
	"students": [{"first_name": "Othman", "last_name": "Assas", "birth_date": "2015-06-21"}],
	"appointment_day": "2025-06-29"
}`

func Test_registrationApi_preRegister(t *testing.T) {
	app, store := setup(t)

	// no school year yet: nothing is written
	req, rec := newRequest(http.MethodPost, "/v1/pre-registrations", []byte(preRegistrationBody))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnprocessableEntity,
		wantData: marchallObj(t, httpErr{Error: "no school year configured"}),
	}, rec)

	testutil.CreateSchoolYear(t, store, "2025-2026", testutil.Date(2025, time.September, 1))

	var res registration.PreRegistrationResult
	submit := func() {
		req, rec := newRequest(http.MethodPost, "/v1/pre-registrations", []byte(preRegistrationBody))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}

	submit()
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.FamilyID)
	assert.Equal(t, []string{"Othman Assas a été ajouté."}, res.Messages)

	submit()
	assert.True(t, res.Success)
	assert.Equal(t, []string{"Othman Assas existe déjà.", "Inscription de Othman déjà enregistrée."}, res.Messages)
}

func Test_registrationApi_preRegister_invalid(t *testing.T) {
	app, store := setup(t)
	testutil.CreateSchoolYear(t, store, "2025-2026", testutil.Date(2025, time.September, 1))

	tests := []httpTest{
		{name: "malformed json", body: []byte(`{"family": `), wantCode: http.StatusBadRequest},
		{
			name:     "missing fields",
			body:     []byte(`{"family": {"family_name": "Assas"}, "students": [{"first_name": "Othman"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"family.contact_email":  "ce champ est obligatoire",
				"students[0].last_name": "ce champ est obligatoire",
			}),
		},
		{
			name:     "blank name",
			body:     []byte(`{"family": {"family_name": "  ", "contact_email": "a@b.com"}, "students": [{"first_name": "O", "last_name": "A"}]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"family.family_name": "ce champ est obligatoire"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/pre-registrations", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	fams, err := store.QueryFamilies(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, fams)
}

func Test_registrationApi_register(t *testing.T) {
	app, store := setup(t)
	sy := testutil.CreateSchoolYear(t, store, "2025-2026", testutil.Date(2025, time.September, 1))
	piano := testutil.CreateCourse(t, store, "Piano", 25000)
	dessin := testutil.CreateCourse(t, store, "Dessin", 18000)
	martin := testutil.CreateFamily(t, store, "Martin", "martin@test.fr")

	body := marchallObj(t, map[string]interface{}{
		"school_year_id": sy.ID,
		"new_family":     map[string]string{"family_name": "Dupont", "contact_email": "dupont@test.fr"},
		"students": []map[string]interface{}{
			{"kind": "new", "student": map[string]string{"first_name": "Léa", "last_name": "Dupont"}},
			{"kind": "new", "student": map[string]string{"first_name": "Tom", "last_name": "Dupont", "registration_type": "adult"}},
		},
		"enrollments": []map[string]interface{}{
			{"student_ref_index": 0, "course_ids": []string{piano.ID}},
			{"student_ref_index": 1, "course_ids": []string{piano.ID, dessin.ID}},
		},
		"payment": map[string]interface{}{
			"cash_cents": 5000,
			"cheques":    []map[string]interface{}{{"count": 2, "amount_cents": 10000, "bank": "LCL"}},
		},
	})
	req, rec := newRequest(http.MethodPost, "/v1/registrations", body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res registration.OnsiteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.StudentIDs, 2)

	// family detail
	req, rec = newRequest(http.MethodGet, "/v1/families/"+res.FamilyID)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail registration.FamilyDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "Dupont", detail.Name)
	assert.Len(t, detail.Students, 2)
	assert.Len(t, detail.Enrollments, 3)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, int64(25000), detail.Payments[0].TotalCents())

	oneOf := "renseigner soit une famille existante, soit une nouvelle famille"
	tests := []httpTest{
		{
			name: "both families",
			body: marchallObj(t, map[string]interface{}{
				"school_year_id": sy.ID,
				"family_id":      martin.ID,
				"new_family":     map[string]string{"family_name": "Dupont", "contact_email": "dupont@test.fr"},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"family_id": oneOf, "new_family": oneOf}),
		},
		{
			name:     "no family",
			body:     marchallObj(t, map[string]interface{}{"school_year_id": sy.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"family_id": oneOf, "new_family": oneOf}),
		},
		{
			name: "bad student index",
			body: marchallObj(t, map[string]interface{}{
				"school_year_id": sy.ID,
				"family_id":      martin.ID,
				"enrollments":    []map[string]interface{}{{"student_ref_index": 0, "course_ids": []string{piano.ID}}},
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"enrollments[0].student_ref_index": "aucun élève ne correspond à cet index"}),
		},
		{
			name:     "unknown family",
			body:     marchallObj(t, map[string]interface{}{"school_year_id": sy.ID, "family_id": uuid.New().String()}),
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: "family not found"}),
		},
		{
			name: "unknown course",
			body: marchallObj(t, map[string]interface{}{
				"school_year_id": sy.ID,
				"family_id":      martin.ID,
				"students":       []map[string]interface{}{{"kind": "new", "student": map[string]string{"first_name": "Jules", "last_name": "Martin"}}},
				"enrollments":    []map[string]interface{}{{"student_ref_index": 0, "course_ids": []string{uuid.New().String()}}},
			}),
			wantCode: http.StatusInternalServerError,
			wantData: marchallObj(t, httpErr{Error: http.StatusText(http.StatusInternalServerError)}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/registrations", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the failed enrollment did not leave the new student behind
	stds, err := store.QueryStudents(context.Background(), martin.ID)
	require.NoError(t, err)
	assert.Empty(t, stds)
}

func Test_registrationApi_query(t *testing.T) {
	app, store := setup(t)
	sy24 := testutil.CreateSchoolYear(t, store, "2024-2025", testutil.Date(2024, time.September, 1))
	sy25 := testutil.CreateSchoolYear(t, store, "2025-2026", testutil.Date(2025, time.September, 1))
	piano := testutil.CreateCourse(t, store, "Piano", 25000)
	dessin := testutil.CreateCourse(t, store, "Dessin", 18000)
	dupont := testutil.CreateFamily(t, store, "Dupont", "dupont@test.fr")
	martin := testutil.CreateFamily(t, store, "Martin", "martin@test.fr")

	path := func(search, ordering string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		return "/v1/families?" + v.Encode()
	}

	tests := []httpTest{
		{name: "school years", path: "/v1/school-years", wantData: marchallObj(t, []registration.SchoolYear{sy25, sy24})},
		{name: "courses", path: "/v1/courses", wantData: marchallObj(t, []registration.Course{dessin, piano})},
		{name: "families", path: "/v1/families", wantData: marchallObj(t, []registration.Family{dupont, martin})},
		{name: "families ordered", path: path("", "-name"), wantData: marchallObj(t, []registration.Family{martin, dupont})},
		{name: "families search", path: path("MART", ""), wantData: marchallObj(t, []registration.Family{martin})},
		{name: "families search (unknown)", path: path("lol", ""), wantData: marchallObj(t, []registration.Family{})},
		{name: "family (unknown)", path: "/v1/families/" + uuid.New().String(), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{name: "family (bad id)", path: "/v1/families/42", wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
