package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/scolarite/core/registration"
)

const studentColumns = "id, family_id, first_name, last_name, birth_date, registration_type, notes, already_registered, created_at"

type studentRow struct {
	ID                string    `db:"id"`
	FamilyID          string    `db:"family_id"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	BirthDate         null.Time `db:"birth_date"`
	RegistrationType  string    `db:"registration_type"`
	Notes             string    `db:"notes"`
	AlreadyRegistered bool      `db:"already_registered"`
	CreatedAt         time.Time `db:"created_at"`
}

func boilStudent(std registration.Student) studentRow {
	row := studentRow{
		ID:                std.ID,
		FamilyID:          std.FamilyID,
		FirstName:         std.FirstName,
		LastName:          std.LastName,
		RegistrationType:  std.RegistrationType,
		Notes:             std.Notes,
		AlreadyRegistered: std.AlreadyRegistered,
		CreatedAt:         std.CreatedAt.UTC(),
	}
	if std.BirthDate.Valid {
		row.BirthDate = null.TimeFrom(std.BirthDate.Time.UTC())
	}
	if row.RegistrationType == "" {
		row.RegistrationType = registration.TypeChild
	}
	return row
}

func (r studentRow) unboil() registration.Student {
	std := registration.Student{
		ID:                r.ID,
		FamilyID:          r.FamilyID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		RegistrationType:  r.RegistrationType,
		Notes:             r.Notes,
		AlreadyRegistered: r.AlreadyRegistered,
		CreatedAt:         r.CreatedAt.UTC(),
	}
	if r.BirthDate.Valid {
		std.BirthDate = null.TimeFrom(r.BirthDate.Time.UTC())
	}
	return std
}

func (repo repository) GetStudentByName(ctx context.Context, familyID, firstName, lastName string) (registration.Student, error) {
	var row studentRow
	err := repo.get(ctx, &row,
		"SELECT "+studentColumns+" FROM students WHERE family_id = ? AND first_name = ? AND last_name = ? ORDER BY created_at LIMIT 1",
		familyID, firstName, lastName)
	if err != nil {
		return registration.Student{}, trapNoRowsErr(err, "finding student by name")
	}
	return row.unboil(), nil
}

func (repo repository) CreateStudent(ctx context.Context, std registration.Student) (registration.Student, error) {
	std.ID = uuid.New().String()
	row := boilStudent(std)
	_, err := repo.namedExec(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES (:id, :family_id, :first_name, :last_name, :birth_date, :registration_type, :notes, :already_registered, :created_at)`,
		row)
	if err != nil {
		return registration.Student{}, errors.Wrap(err, "inserting student")
	}
	return row.unboil(), nil
}

func (repo repository) QueryStudents(ctx context.Context, familyID string) ([]registration.Student, error) {
	var rows []studentRow
	err := repo.all(ctx, &rows,
		"SELECT "+studentColumns+" FROM students WHERE family_id = ? ORDER BY created_at, last_name, first_name", familyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	stds := make([]registration.Student, 0, len(rows))
	for _, r := range rows {
		stds = append(stds, r.unboil())
	}
	return stds, nil
}
