package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core/registration"
)

const enrollmentColumns = "id, student_id, course_id, school_year_id, status, is_waiting_list, start_date, created_at"

type enrollmentRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	CourseID      string    `db:"course_id"`
	SchoolYearID  string    `db:"school_year_id"`
	Status        string    `db:"status"`
	IsWaitingList bool      `db:"is_waiting_list"`
	StartDate     time.Time `db:"start_date"`
	CreatedAt     time.Time `db:"created_at"`
}

func boilEnrollment(enr registration.Enrollment) enrollmentRow {
	row := enrollmentRow{
		ID:            enr.ID,
		StudentID:     enr.StudentID,
		CourseID:      enr.CourseID,
		SchoolYearID:  enr.SchoolYearID,
		Status:        enr.Status,
		IsWaitingList: enr.IsWaitingList,
		StartDate:     enr.StartDate.UTC(),
		CreatedAt:     enr.CreatedAt.UTC(),
	}
	if row.Status == "" {
		row.Status = registration.EnrollmentActive
	}
	return row
}

func (r enrollmentRow) unboil() registration.Enrollment {
	return registration.Enrollment{
		ID:            r.ID,
		StudentID:     r.StudentID,
		CourseID:      r.CourseID,
		SchoolYearID:  r.SchoolYearID,
		Status:        r.Status,
		IsWaitingList: r.IsWaitingList,
		StartDate:     r.StartDate.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (repo repository) CreateEnrollments(ctx context.Context, enrs []registration.Enrollment) ([]registration.Enrollment, error) {
	if len(enrs) == 0 {
		return nil, nil
	}
	rows := make([]enrollmentRow, 0, len(enrs))
	for _, enr := range enrs {
		enr.ID = uuid.New().String()
		rows = append(rows, boilEnrollment(enr))
	}

	// one multi-row INSERT
	_, err := repo.namedExec(ctx, `
		INSERT INTO enrollments (`+enrollmentColumns+`)
		VALUES (:id, :student_id, :course_id, :school_year_id, :status, :is_waiting_list, :start_date, :created_at)`,
		rows)
	if err != nil {
		return nil, errors.Wrap(err, "inserting enrollments")
	}

	created := make([]registration.Enrollment, 0, len(rows))
	for _, r := range rows {
		created = append(created, r.unboil())
	}
	return created, nil
}

func (repo repository) QueryEnrollments(ctx context.Context, studentIDs []string) ([]registration.Enrollment, error) {
	if len(studentIDs) == 0 {
		return []registration.Enrollment{}, nil
	}
	var rows []enrollmentRow
	err := repo.selectIn(ctx, &rows,
		"SELECT "+enrollmentColumns+" FROM enrollments WHERE student_id IN (?) ORDER BY created_at, id", studentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]registration.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.unboil())
	}
	return enrs, nil
}
