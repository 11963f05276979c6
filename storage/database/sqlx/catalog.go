package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/registration"
)

const (
	schoolYearColumns = "id, label, start_date, end_date, is_current"
	courseColumns     = "id, name, capacity, price_cents, schedule"
)

type (
	schoolYearRow struct {
		ID        string    `db:"id"`
		Label     string    `db:"label"`
		StartDate time.Time `db:"start_date"`
		EndDate   time.Time `db:"end_date"`
		IsCurrent bool      `db:"is_current"`
	}

	courseRow struct {
		ID         string `db:"id"`
		Name       string `db:"name"`
		Capacity   int    `db:"capacity"`
		PriceCents int64  `db:"price_cents"`
		Schedule   string `db:"schedule"`
	}
)

func (r schoolYearRow) unboil() registration.SchoolYear {
	return registration.SchoolYear{
		ID:        r.ID,
		Label:     r.Label,
		StartDate: r.StartDate.UTC(),
		EndDate:   r.EndDate.UTC(),
		IsCurrent: r.IsCurrent,
	}
}

func (r courseRow) unboil() registration.Course {
	return registration.Course(r)
}

func (repo repository) GetLatestSchoolYear(ctx context.Context) (registration.SchoolYear, error) {
	var row schoolYearRow
	if err := repo.get(ctx, &row, "SELECT "+schoolYearColumns+" FROM school_years ORDER BY start_date DESC LIMIT 1"); err != nil {
		return registration.SchoolYear{}, trapNoRowsErr(err, "finding latest school year")
	}
	return row.unboil(), nil
}

func (repo repository) CreateSchoolYear(ctx context.Context, sy registration.SchoolYear) (registration.SchoolYear, error) {
	row := schoolYearRow{
		ID:        uuid.New().String(),
		Label:     sy.Label,
		StartDate: sy.StartDate.UTC(),
		EndDate:   sy.EndDate.UTC(),
		IsCurrent: sy.IsCurrent,
	}
	_, err := repo.namedExec(ctx, `
		INSERT INTO school_years (`+schoolYearColumns+`)
		VALUES (:id, :label, :start_date, :end_date, :is_current)`,
		row)
	if err != nil {
		return registration.SchoolYear{}, errors.Wrap(err, "inserting school year")
	}
	return row.unboil(), nil
}

func (repo repository) QuerySchoolYears(ctx context.Context) ([]registration.SchoolYear, error) {
	var rows []schoolYearRow
	if err := repo.all(ctx, &rows, "SELECT "+schoolYearColumns+" FROM school_years ORDER BY start_date DESC"); err != nil {
		return nil, errors.Wrap(err, "querying school years")
	}
	years := make([]registration.SchoolYear, 0, len(rows))
	for _, r := range rows {
		years = append(years, r.unboil())
	}
	return years, nil
}

func (repo repository) CreateCourse(ctx context.Context, crs registration.Course) (registration.Course, error) {
	crs.ID = uuid.New().String()
	row := courseRow(crs)
	_, err := repo.namedExec(ctx, `
		INSERT INTO courses (`+courseColumns+`)
		VALUES (:id, :name, :capacity, :price_cents, :schedule)`,
		row)
	if err != nil {
		return registration.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.unboil(), nil
}

func (repo repository) QueryCourses(ctx context.Context) ([]registration.Course, error) {
	var rows []courseRow
	if err := repo.all(ctx, &rows, "SELECT "+courseColumns+" FROM courses ORDER BY name"); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]registration.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.unboil())
	}
	return courses, nil
}
