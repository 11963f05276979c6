package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/scolarite/core/registration"
)

const registrationColumns = "id, student_id, family_id, school_year_id, status, is_waiting_list, appointment_day, created_at, updated_at"

type registrationRow struct {
	ID             string    `db:"id"`
	StudentID      string    `db:"student_id"`
	FamilyID       string    `db:"family_id"`
	SchoolYearID   string    `db:"school_year_id"`
	Status         string    `db:"status"`
	IsWaitingList  bool      `db:"is_waiting_list"`
	AppointmentDay null.Time `db:"appointment_day"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func boilRegistration(reg registration.Registration) registrationRow {
	row := registrationRow{
		ID:            reg.ID,
		StudentID:     reg.StudentID,
		FamilyID:      reg.FamilyID,
		SchoolYearID:  reg.SchoolYearID,
		Status:        reg.Status,
		IsWaitingList: reg.IsWaitingList,
		CreatedAt:     reg.CreatedAt.UTC(),
		UpdatedAt:     reg.UpdatedAt.UTC(),
	}
	if reg.AppointmentDay.Valid {
		row.AppointmentDay = null.TimeFrom(reg.AppointmentDay.Time.UTC())
	}
	if row.Status == "" {
		row.Status = registration.StatusDraft
	}
	return row
}

func (r registrationRow) unboil() registration.Registration {
	reg := registration.Registration{
		ID:            r.ID,
		StudentID:     r.StudentID,
		FamilyID:      r.FamilyID,
		SchoolYearID:  r.SchoolYearID,
		Status:        r.Status,
		IsWaitingList: r.IsWaitingList,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
	if r.AppointmentDay.Valid {
		reg.AppointmentDay = null.TimeFrom(r.AppointmentDay.Time.UTC())
	}
	return reg
}

func (repo repository) RegistrationExists(ctx context.Context, studentID, schoolYearID string) (bool, error) {
	var count int
	err := repo.get(ctx, &count,
		"SELECT COUNT(*) FROM registrations WHERE student_id = ? AND school_year_id = ?", studentID, schoolYearID)
	if err != nil {
		return false, errors.Wrap(err, "checking registration existence")
	}
	return count > 0, nil
}

func (repo repository) CreateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.New().String()
	row := boilRegistration(reg)
	_, err := repo.namedExec(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES (:id, :student_id, :family_id, :school_year_id, :status, :is_waiting_list, :appointment_day,
			:created_at, :updated_at)`,
		row)
	if err != nil {
		return registration.Registration{}, errors.Wrap(err, "inserting registration")
	}
	return row.unboil(), nil
}

func (repo repository) QueryRegistrations(ctx context.Context, familyID string) ([]registration.Registration, error) {
	var rows []registrationRow
	err := repo.all(ctx, &rows,
		"SELECT "+registrationColumns+" FROM registrations WHERE family_id = ? ORDER BY created_at, id", familyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying registrations")
	}
	regs := make([]registration.Registration, 0, len(rows))
	for _, r := range rows {
		regs = append(regs, r.unboil())
	}
	return regs, nil
}

func (repo repository) CompleteRegistrations(ctx context.Context, ids []string, updatedAt time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		"UPDATE registrations SET status = ?, updated_at = ? WHERE id IN (?)",
		registration.StatusCompleted, updatedAt.UTC(), ids)
	if err != nil {
		return 0, errors.Wrap(err, "building registrations completion")
	}
	res, err := repo.execute(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "completing registrations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting completed registrations")
	}
	return int(n), nil
}
