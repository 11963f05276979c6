package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

const familyColumns = "id, name, parent_first_name, email, phone, address, postal_code, city, created_at, updated_at"

var familyOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"city":       "city",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type familyRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	ParentFirstName string    `db:"parent_first_name"`
	Email           string    `db:"email"`
	Phone           string    `db:"phone"`
	Address         string    `db:"address"`
	PostalCode      string    `db:"postal_code"`
	City            string    `db:"city"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func boilFamily(fam registration.Family) familyRow {
	return familyRow{
		ID:              fam.ID,
		Name:            fam.Name,
		ParentFirstName: fam.ParentFirstName,
		Email:           fam.Email,
		Phone:           fam.Phone,
		Address:         fam.Address,
		PostalCode:      fam.PostalCode,
		City:            fam.City,
		CreatedAt:       fam.CreatedAt.UTC(),
		UpdatedAt:       fam.UpdatedAt.UTC(),
	}
}

func (r familyRow) unboil() registration.Family {
	return registration.Family{
		ID:              r.ID,
		Name:            r.Name,
		ParentFirstName: r.ParentFirstName,
		Email:           r.Email,
		Phone:           r.Phone,
		Address:         r.Address,
		PostalCode:      r.PostalCode,
		City:            r.City,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func (repo repository) GetFamily(ctx context.Context, id string) (registration.Family, error) {
	if _, err := uuid.Parse(id); err != nil {
		return registration.Family{}, registration.ErrNotFound
	}
	var row familyRow
	if err := repo.get(ctx, &row, "SELECT "+familyColumns+" FROM families WHERE id = ?", id); err != nil {
		return registration.Family{}, trapNoRowsErr(err, "finding family by ID")
	}
	return row.unboil(), nil
}

func (repo repository) GetFamilyByEmail(ctx context.Context, email string) (registration.Family, error) {
	var row familyRow
	if err := repo.get(ctx, &row, "SELECT "+familyColumns+" FROM families WHERE email = ?", email); err != nil {
		return registration.Family{}, trapNoRowsErr(err, "finding family by email")
	}
	return row.unboil(), nil
}

func (repo repository) CreateFamily(ctx context.Context, fam registration.Family) (registration.Family, error) {
	fam.ID = uuid.New().String()
	row := boilFamily(fam)
	_, err := repo.namedExec(ctx, `
		INSERT INTO families (`+familyColumns+`)
		VALUES (:id, :name, :parent_first_name, :email, :phone, :address, :postal_code, :city, :created_at, :updated_at)`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return registration.Family{}, errors.Wrap(registration.ErrEmailExists, err.Error())
		}
		return registration.Family{}, errors.Wrap(err, "inserting family")
	}
	return row.unboil(), nil
}

func (repo repository) UpdateFamily(ctx context.Context, fam registration.Family) (registration.Family, error) {
	row := boilFamily(fam)
	res, err := repo.namedExec(ctx, `
		UPDATE families
		SET name = :name, parent_first_name = :parent_first_name, email = :email, phone = :phone,
			address = :address, postal_code = :postal_code, city = :city, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		if isUniqueViolation(err) {
			return registration.Family{}, errors.Wrap(registration.ErrEmailExists, err.Error())
		}
		return registration.Family{}, errors.Wrap(err, "updating family")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return registration.Family{}, registration.ErrNotFound
	}
	return row.unboil(), nil
}

func (repo repository) QueryFamilies(ctx context.Context, filter *registration.FamilyFilter, ordering []core.DBOrdering) ([]registration.Family, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		// families with Name, Email or ParentFirstName matching the search keyword
		if filter.Search != "" {
			val := "%" + strings.ToLower(filter.Search) + "%"
			where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(parent_first_name) LIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.City != "" {
			where = append(where, "LOWER(city) = ?")
			args = append(args, strings.ToLower(filter.City))
		}
	}

	query := "SELECT " + familyColumns + " FROM families"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += orderBy(ordering, familyOrderings, "name ASC")

	var rows []familyRow
	if err := repo.all(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying families")
	}
	fams := make([]registration.Family, 0, len(rows))
	for _, r := range rows {
		fams = append(fams, r.unboil())
	}
	return fams, nil
}
