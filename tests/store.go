package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

// StoreFactory returns a fresh, empty registration.Store.
type StoreFactory func(t *testing.T) registration.Store

// RunStoreTests checks that a registration.Store implementation behaves like every other one.
func RunStoreTests(t *testing.T, newStore StoreFactory) {
	t.Run("families", func(t *testing.T) { testFamilies(t, newStore(t)) })
	t.Run("students", func(t *testing.T) { testStudents(t, newStore(t)) })
	t.Run("school years and courses", func(t *testing.T) { testCatalog(t, newStore(t)) })
	t.Run("enrollments", func(t *testing.T) { testEnrollments(t, newStore(t)) })
	t.Run("payments", func(t *testing.T) { testPayments(t, newStore(t)) })
	t.Run("registrations", func(t *testing.T) { testRegistrations(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func testFamilies(t *testing.T, store registration.Store) {
	ctx := context.Background()

	dupont := CreateFamily(t, store, "Dupont", "dupont@test.fr")
	martin := CreateFamily(t, store, "Martin", "martin@test.fr")
	_, err := uuid.Parse(dupont.ID)
	assert.NoError(t, err)

	got, err := store.GetFamily(ctx, dupont.ID)
	require.NoError(t, err)
	assert.Equal(t, "dupont@test.fr", got.Email)

	got, err = store.GetFamilyByEmail(ctx, "martin@test.fr")
	require.NoError(t, err)
	assert.Equal(t, martin.ID, got.ID)

	_, err = store.GetFamily(ctx, uuid.New().String())
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))
	_, err = store.GetFamily(ctx, "not-a-uuid")
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))
	_, err = store.GetFamilyByEmail(ctx, "nobody@test.fr")
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))

	// email is unique
	_, err = store.CreateFamily(ctx, registration.Family{Name: "Autre", Email: "dupont@test.fr", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.Equal(t, registration.ErrEmailExists, errors.Cause(err))

	dupont.City = "Lyon"
	dupont.ParentFirstName = "Claire"
	dupont.UpdatedAt = time.Now().UTC()
	_, err = store.UpdateFamily(ctx, dupont)
	require.NoError(t, err)
	got, err = store.GetFamily(ctx, dupont.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lyon", got.City)
	assert.Equal(t, "Claire", got.ParentFirstName)

	tests := []struct {
		name     string
		filter   *registration.FamilyFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: []string{dupont.ID, martin.ID}},
		{name: "ordered desc", ordering: []core.DBOrdering{{Field: "name"}}, want: []string{martin.ID, dupont.ID}},
		{name: "unknown ordering ignored", ordering: []core.DBOrdering{{Field: "lol; DROP TABLE families"}}, want: []string{dupont.ID, martin.ID}},
		{name: "search by name", filter: &registration.FamilyFilter{Search: "MAR"}, want: []string{martin.ID}},
		{name: "search by parent", filter: &registration.FamilyFilter{Search: "claire"}, want: []string{dupont.ID}},
		{name: "search by email", filter: &registration.FamilyFilter{Search: "@test.fr"}, want: []string{dupont.ID, martin.ID}},
		{name: "city", filter: &registration.FamilyFilter{City: "lyon"}, want: []string{dupont.ID}},
		{name: "no match", filter: &registration.FamilyFilter{Search: "zzz"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fams, err := store.QueryFamilies(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			ids := make([]string, 0, len(fams))
			for _, f := range fams {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func testStudents(t *testing.T, store registration.Store) {
	ctx := context.Background()
	fam := CreateFamily(t, store, "Dupont", "dupont@test.fr")
	other := CreateFamily(t, store, "Martin", "martin@test.fr")

	birth := Date(2015, time.March, 2)
	lea, err := store.CreateStudent(ctx, registration.Student{
		FamilyID:         fam.ID,
		FirstName:        "Léa",
		LastName:         "Dupont",
		BirthDate:        null.TimeFrom(birth),
		RegistrationType: registration.TypeChild,
		CreatedAt:        time.Now().UTC(),
	})
	require.NoError(t, err)
	CreateStudent(t, store, other.ID, "Léa", "Dupont")

	got, err := store.GetStudentByName(ctx, fam.ID, "Léa", "Dupont")
	require.NoError(t, err)
	assert.Equal(t, lea.ID, got.ID)
	assert.True(t, got.BirthDate.Valid)
	assert.True(t, birth.Equal(got.BirthDate.Time))

	// exact match only
	_, err = store.GetStudentByName(ctx, fam.ID, "Lea", "Dupont")
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))

	// unknown family
	_, err = store.CreateStudent(ctx, registration.Student{FamilyID: uuid.New().String(), FirstName: "X", LastName: "Y", CreatedAt: time.Now()})
	assert.Error(t, err, "unknown family")

	stds, err := store.QueryStudents(ctx, fam.ID)
	require.NoError(t, err)
	require.Len(t, stds, 1)
	assert.Equal(t, "Léa Dupont", stds[0].FullName())
}

func testCatalog(t *testing.T, store registration.Store) {
	ctx := context.Background()

	_, err := store.GetLatestSchoolYear(ctx)
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))

	sy23 := CreateSchoolYear(t, store, "2023-2024", Date(2023, time.September, 1))
	sy24 := CreateSchoolYear(t, store, "2024-2025", Date(2024, time.September, 1))
	CreateSchoolYear(t, store, "2022-2023", Date(2022, time.September, 1))

	latest, err := store.GetLatestSchoolYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, sy24.ID, latest.ID)
	assert.True(t, Date(2024, time.September, 1).Equal(latest.StartDate))

	years, err := store.QuerySchoolYears(ctx)
	require.NoError(t, err)
	require.Len(t, years, 3)
	assert.Equal(t, sy24.ID, years[0].ID)
	assert.Equal(t, sy23.ID, years[1].ID)

	piano := CreateCourse(t, store, "Piano", 25000)
	CreateCourse(t, store, "Dessin", 18000)
	courses, err := store.QueryCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Dessin", courses[0].Name)
	assert.Equal(t, piano, courses[1])
}

func testEnrollments(t *testing.T, store registration.Store) {
	ctx := context.Background()
	fam := CreateFamily(t, store, "Dupont", "dupont@test.fr")
	lea := CreateStudent(t, store, fam.ID, "Léa", "Dupont")
	tom := CreateStudent(t, store, fam.ID, "Tom", "Dupont")
	sy := CreateSchoolYear(t, store, "2024-2025", Date(2024, time.September, 1))
	piano := CreateCourse(t, store, "Piano", 25000)
	dessin := CreateCourse(t, store, "Dessin", 18000)

	enrs, err := store.CreateEnrollments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, enrs)

	now := time.Now().UTC()
	newEnr := func(studentID, courseID string) registration.Enrollment {
		return registration.Enrollment{
			StudentID:    studentID,
			CourseID:     courseID,
			SchoolYearID: sy.ID,
			Status:       registration.EnrollmentActive,
			StartDate:    now,
			CreatedAt:    now,
		}
	}

	enrs, err = store.CreateEnrollments(ctx, []registration.Enrollment{
		newEnr(lea.ID, piano.ID), newEnr(lea.ID, dessin.ID), newEnr(tom.ID, piano.ID),
	})
	require.NoError(t, err)
	require.Len(t, enrs, 3)
	for _, e := range enrs {
		assert.NotEmpty(t, e.ID)
	}

	// unknown course: nothing of the batch is written
	_, err = store.CreateEnrollments(ctx, []registration.Enrollment{
		newEnr(tom.ID, dessin.ID), newEnr(tom.ID, uuid.New().String()),
	})
	assert.Error(t, err)

	got, err := store.QueryEnrollments(ctx, []string{lea.ID, tom.ID})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	got, err = store.QueryEnrollments(ctx, []string{tom.ID})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	got, err = store.QueryEnrollments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testPayments(t *testing.T, store registration.Store) {
	ctx := context.Background()
	fam := CreateFamily(t, store, "Dupont", "dupont@test.fr")
	sy := CreateSchoolYear(t, store, "2024-2025", Date(2024, time.September, 1))

	pmt, err := store.CreatePayment(ctx, registration.Payment{
		FamilyID:          fam.ID,
		SchoolYearID:      sy.ID,
		CashCents:         5000,
		CardCents:         10000,
		RefundCents:       1500,
		MaterialsQuantity: 2,
		Remarks:           "solde en janvier",
		Cheques: []registration.Cheque{
			{Count: 3, AmountCents: 10000, Bank: "Crédit Agricole", PayerName: "M. Dupont"},
			{Count: 1, AmountCents: 4500, Bank: "LCL", PayerName: "Mme Dupont"},
		},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pmt.ID)

	pmts, err := store.QueryPayments(ctx, fam.ID)
	require.NoError(t, err)
	require.Len(t, pmts, 1)
	assert.Equal(t, int64(5000+10000-1500+30000+4500), pmts[0].TotalCents())
	require.Len(t, pmts[0].Cheques, 2)
	assert.Equal(t, "Crédit Agricole", pmts[0].Cheques[0].Bank)
	assert.Equal(t, "LCL", pmts[0].Cheques[1].Bank)

	_, err = store.CreatePayment(ctx, registration.Payment{FamilyID: fam.ID, SchoolYearID: uuid.New().String(), CreatedAt: time.Now()})
	assert.Error(t, err, "unknown school year")
}

func testRegistrations(t *testing.T, store registration.Store) {
	ctx := context.Background()
	fam := CreateFamily(t, store, "Dupont", "dupont@test.fr")
	lea := CreateStudent(t, store, fam.ID, "Léa", "Dupont")
	sy := CreateSchoolYear(t, store, "2024-2025", Date(2024, time.September, 1))

	exists, err := store.RegistrationExists(ctx, lea.ID, sy.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	now := time.Now().UTC()
	reg, err := store.CreateRegistration(ctx, registration.Registration{
		StudentID:      lea.ID,
		FamilyID:       fam.ID,
		SchoolYearID:   sy.ID,
		Status:         registration.StatusDraft,
		AppointmentDay: null.TimeFrom(Date(2024, time.June, 15)),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)

	exists, err = store.RegistrationExists(ctx, lea.ID, sy.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	completedAt := now.Add(time.Hour).Truncate(time.Second)
	n, err := store.CompleteRegistrations(ctx, []string{reg.ID, uuid.New().String()}, completedAt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	regs, err := store.QueryRegistrations(ctx, fam.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, registration.StatusCompleted, regs[0].Status)
	assert.True(t, completedAt.Equal(regs[0].UpdatedAt), "updated_at = %v; want %v", regs[0].UpdatedAt, completedAt)
	assert.True(t, Date(2024, time.June, 15).Equal(regs[0].AppointmentDay.Time))

	n, err = store.CompleteRegistrations(ctx, nil, completedAt)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testTransactions(t *testing.T, store registration.Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	// rolled back: nothing is visible
	err := store.WithinTx(ctx, func(repo registration.Repository) error {
		CreateFamily(t, repo, "Dupont", "dupont@test.fr")
		return errBoom
	})
	assert.Equal(t, errBoom, err)
	_, err = store.GetFamilyByEmail(ctx, "dupont@test.fr")
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))

	// failure halfway through: the family written first is rolled back too
	err = store.WithinTx(ctx, func(repo registration.Repository) error {
		fam := CreateFamily(t, repo, "Dupont", "dupont@test.fr")
		_, err := repo.CreateEnrollments(ctx, []registration.Enrollment{{
			StudentID:    uuid.New().String(),
			CourseID:     uuid.New().String(),
			SchoolYearID: uuid.New().String(),
			StartDate:    time.Now(),
			CreatedAt:    time.Now(),
		}})
		if err == nil {
			t.Errorf("CreateEnrollments() for family %s: want error", fam.ID)
		}
		return err
	})
	assert.Error(t, err)
	_, err = store.GetFamilyByEmail(ctx, "dupont@test.fr")
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))

	// committed
	var famID string
	err = store.WithinTx(ctx, func(repo registration.Repository) error {
		famID = CreateFamily(t, repo, "Dupont", "dupont@test.fr").ID
		// reads inside the transaction see its own writes
		_, err := repo.GetFamily(ctx, famID)
		return err
	})
	require.NoError(t, err)
	got, err := store.GetFamilyByEmail(ctx, "dupont@test.fr")
	require.NoError(t, err)
	assert.Equal(t, famID, got.ID)
}
