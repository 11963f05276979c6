package gormrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

var familyOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"city":       "city",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type (
	// Store is the registration.Store backed by gorm.
	Store struct {
		repository
	}

	// repository runs every query on db, which is either the connection or the current transaction.
	repository struct {
		db *gorm.DB
	}
)

var (
	_ registration.Store      = (*Store)(nil)      // interface compliance check
	_ registration.Repository = (*repository)(nil) // interface compliance check
)

func NewStore(conn *gorm.DB) *Store {
	return &Store{repository: repository{db: conn}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repo registration.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

// trapNotFoundErr maps gorm "record not found" err to registration.ErrNotFound
func trapNotFoundErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return registration.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func trapDuplicateErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Wrap(registration.ErrEmailExists, err.Error())
	}
	return errors.Wrap(err, msg)
}

func (repo repository) GetFamily(ctx context.Context, id string) (registration.Family, error) {
	if _, err := uuid.Parse(id); err != nil {
		return registration.Family{}, registration.ErrNotFound
	}
	var m familyModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return registration.Family{}, trapNotFoundErr(err, "finding family by ID")
	}
	return m.toDomain(), nil
}

func (repo repository) GetFamilyByEmail(ctx context.Context, email string) (registration.Family, error) {
	var m familyModel
	if err := repo.db.WithContext(ctx).Where("email = ?", email).Take(&m).Error; err != nil {
		return registration.Family{}, trapNotFoundErr(err, "finding family by email")
	}
	return m.toDomain(), nil
}

func (repo repository) CreateFamily(ctx context.Context, fam registration.Family) (registration.Family, error) {
	fam.ID = uuid.New().String()
	m := toFamilyModel(fam)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return registration.Family{}, trapDuplicateErr(err, "inserting family")
	}
	return m.toDomain(), nil
}

func (repo repository) UpdateFamily(ctx context.Context, fam registration.Family) (registration.Family, error) {
	m := toFamilyModel(fam)
	res := repo.db.WithContext(ctx).Model(&familyModel{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"name":              m.Name,
		"parent_first_name": m.ParentFirstName,
		"email":             m.Email,
		"phone":             m.Phone,
		"address":           m.Address,
		"postal_code":       m.PostalCode,
		"city":              m.City,
		"updated_at":        m.UpdatedAt,
	})
	if res.Error != nil {
		return registration.Family{}, trapDuplicateErr(res.Error, "updating family")
	}
	if res.RowsAffected == 0 {
		return registration.Family{}, registration.ErrNotFound
	}
	return m.toDomain(), nil
}

func (repo repository) QueryFamilies(ctx context.Context, filter *registration.FamilyFilter, ordering []core.DBOrdering) ([]registration.Family, error) {
	q := repo.db.WithContext(ctx).Model(&familyModel{})
	if filter != nil {
		if filter.Search != "" {
			val := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(parent_first_name) LIKE ?)", val, val, val)
		}
		if filter.City != "" {
			q = q.Where("LOWER(city) = ?", strings.ToLower(filter.City))
		}
	}

	ordering = core.FilterOrderings(ordering, familyOrderings)
	if len(ordering) == 0 {
		q = q.Order("name ASC")
	}
	for _, ord := range ordering {
		q = q.Order(ord.String())
	}

	var ms []familyModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "querying families")
	}
	fams := make([]registration.Family, 0, len(ms))
	for _, m := range ms {
		fams = append(fams, m.toDomain())
	}
	return fams, nil
}

func (repo repository) GetStudentByName(ctx context.Context, familyID, firstName, lastName string) (registration.Student, error) {
	var m studentModel
	err := repo.db.WithContext(ctx).
		Where("family_id = ? AND first_name = ? AND last_name = ?", familyID, firstName, lastName).
		Order("created_at").
		Take(&m).Error
	if err != nil {
		return registration.Student{}, trapNotFoundErr(err, "finding student by name")
	}
	return m.toDomain(), nil
}

func (repo repository) CreateStudent(ctx context.Context, std registration.Student) (registration.Student, error) {
	std.ID = uuid.New().String()
	m := toStudentModel(std)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return registration.Student{}, errors.Wrap(err, "inserting student")
	}
	return m.toDomain(), nil
}

func (repo repository) QueryStudents(ctx context.Context, familyID string) ([]registration.Student, error) {
	var ms []studentModel
	err := repo.db.WithContext(ctx).Where("family_id = ?", familyID).Order("created_at, last_name, first_name").Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	stds := make([]registration.Student, 0, len(ms))
	for _, m := range ms {
		stds = append(stds, m.toDomain())
	}
	return stds, nil
}

func (repo repository) GetLatestSchoolYear(ctx context.Context) (registration.SchoolYear, error) {
	var m schoolYearModel
	if err := repo.db.WithContext(ctx).Order("start_date DESC").Take(&m).Error; err != nil {
		return registration.SchoolYear{}, trapNotFoundErr(err, "finding latest school year")
	}
	return m.toDomain(), nil
}

func (repo repository) CreateSchoolYear(ctx context.Context, sy registration.SchoolYear) (registration.SchoolYear, error) {
	m := schoolYearModel{
		ID:        uuid.New().String(),
		Label:     sy.Label,
		StartDate: sy.StartDate.UTC(),
		EndDate:   sy.EndDate.UTC(),
		IsCurrent: sy.IsCurrent,
	}
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return registration.SchoolYear{}, errors.Wrap(err, "inserting school year")
	}
	return m.toDomain(), nil
}

func (repo repository) QuerySchoolYears(ctx context.Context) ([]registration.SchoolYear, error) {
	var ms []schoolYearModel
	if err := repo.db.WithContext(ctx).Order("start_date DESC").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "querying school years")
	}
	years := make([]registration.SchoolYear, 0, len(ms))
	for _, m := range ms {
		years = append(years, m.toDomain())
	}
	return years, nil
}

func (repo repository) CreateCourse(ctx context.Context, crs registration.Course) (registration.Course, error) {
	crs.ID = uuid.New().String()
	m := courseModel(crs)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return registration.Course{}, errors.Wrap(err, "inserting course")
	}
	return registration.Course(m), nil
}

func (repo repository) QueryCourses(ctx context.Context) ([]registration.Course, error) {
	var ms []courseModel
	if err := repo.db.WithContext(ctx).Order("name").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]registration.Course, 0, len(ms))
	for _, m := range ms {
		courses = append(courses, registration.Course(m))
	}
	return courses, nil
}

func (repo repository) CreateEnrollments(ctx context.Context, enrs []registration.Enrollment) ([]registration.Enrollment, error) {
	if len(enrs) == 0 {
		return nil, nil
	}
	ms := make([]enrollmentModel, 0, len(enrs))
	for _, enr := range enrs {
		enr.ID = uuid.New().String()
		ms = append(ms, toEnrollmentModel(enr))
	}
	// a slice is inserted with one multi-row INSERT
	if err := repo.db.WithContext(ctx).Create(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "inserting enrollments")
	}
	created := make([]registration.Enrollment, 0, len(ms))
	for _, m := range ms {
		created = append(created, m.toDomain())
	}
	return created, nil
}

func (repo repository) QueryEnrollments(ctx context.Context, studentIDs []string) ([]registration.Enrollment, error) {
	if len(studentIDs) == 0 {
		return []registration.Enrollment{}, nil
	}
	var ms []enrollmentModel
	err := repo.db.WithContext(ctx).Where("student_id IN ?", studentIDs).Order("created_at, id").Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]registration.Enrollment, 0, len(ms))
	for _, m := range ms {
		enrs = append(enrs, m.toDomain())
	}
	return enrs, nil
}

func (repo repository) CreatePayment(ctx context.Context, pmt registration.Payment) (registration.Payment, error) {
	m := paymentModel{
		ID:                uuid.New().String(),
		FamilyID:          pmt.FamilyID,
		SchoolYearID:      pmt.SchoolYearID,
		CashCents:         pmt.CashCents,
		CardCents:         pmt.CardCents,
		TransferCents:     pmt.TransferCents,
		RefundCents:       pmt.RefundCents,
		MaterialsQuantity: pmt.MaterialsQuantity,
		Remarks:           pmt.Remarks,
		CreatedAt:         pmt.CreatedAt.UTC(),
	}
	cheques := make([]chequeModel, 0, len(pmt.Cheques))
	for i, c := range pmt.Cheques {
		cheques = append(cheques, chequeModel{
			PaymentID:   m.ID,
			Position:    i,
			Count:       c.Count,
			AmountCents: c.AmountCents,
			Bank:        c.Bank,
			PayerName:   c.PayerName,
		})
	}

	db := repo.db.WithContext(ctx)
	if err := db.Create(&m).Error; err != nil {
		return registration.Payment{}, errors.Wrap(err, "inserting payment")
	}
	if len(cheques) > 0 {
		if err := db.Create(&cheques).Error; err != nil {
			return registration.Payment{}, errors.Wrap(err, "inserting payment cheques")
		}
	}
	return m.toDomain(cheques), nil
}

func (repo repository) QueryPayments(ctx context.Context, familyID string) ([]registration.Payment, error) {
	db := repo.db.WithContext(ctx)

	var ms []paymentModel
	if err := db.Where("family_id = ?", familyID).Order("created_at, id").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	if len(ms) == 0 {
		return []registration.Payment{}, nil
	}

	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	var cheques []chequeModel
	if err := db.Where("payment_id IN ?", ids).Order("payment_id, position").Find(&cheques).Error; err != nil {
		return nil, errors.Wrap(err, "querying payment cheques")
	}
	byPayment := make(map[string][]chequeModel, len(ms))
	for _, c := range cheques {
		byPayment[c.PaymentID] = append(byPayment[c.PaymentID], c)
	}

	pmts := make([]registration.Payment, 0, len(ms))
	for _, m := range ms {
		pmts = append(pmts, m.toDomain(byPayment[m.ID]))
	}
	return pmts, nil
}

func (repo repository) RegistrationExists(ctx context.Context, studentID, schoolYearID string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&registrationModel{}).
		Where("student_id = ? AND school_year_id = ?", studentID, schoolYearID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking registration existence")
	}
	return count > 0, nil
}

func (repo repository) CreateRegistration(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.New().String()
	m := toRegistrationModel(reg)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return registration.Registration{}, errors.Wrap(err, "inserting registration")
	}
	return m.toDomain(), nil
}

func (repo repository) QueryRegistrations(ctx context.Context, familyID string) ([]registration.Registration, error) {
	var ms []registrationModel
	err := repo.db.WithContext(ctx).Where("family_id = ?", familyID).Order("created_at, id").Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying registrations")
	}
	regs := make([]registration.Registration, 0, len(ms))
	for _, m := range ms {
		regs = append(regs, m.toDomain())
	}
	return regs, nil
}

func (repo repository) CompleteRegistrations(ctx context.Context, ids []string, updatedAt time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := repo.db.WithContext(ctx).Model(&registrationModel{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":     registration.StatusCompleted,
		"updated_at": updatedAt.UTC(),
	})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "completing registrations")
	}
	return int(res.RowsAffected), nil
}
