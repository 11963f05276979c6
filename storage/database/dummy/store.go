package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

// ErrForeignKey is returned when a row references a missing one.
var ErrForeignKey = errors.New("foreign key constraint failed")

type (
	// Store is the in-memory registration.Store.
	// A transaction works on a copy of the tables that replaces them on commit.
	Store struct {
		repository
	}

	repository struct {
		db *DB
		tx *tables // nil outside a transaction
	}
)

var (
	_ registration.Store      = (*Store)(nil)      // interface compliance check
	_ registration.Repository = (*repository)(nil) // interface compliance check
)

func NewStore(db *DB) *Store {
	return &Store{repository: repository{db: db}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repo registration.Repository) error) error {
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	s.db.RLock()
	tx := s.db.data.clone()
	s.db.RUnlock()

	if err := fn(&repository{db: s.db, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	s.db.Lock()
	s.db.data = tx
	s.db.Unlock()
	return nil
}

func (repo repository) read(fn func(t *tables)) {
	if repo.tx != nil {
		fn(repo.tx)
		return
	}
	repo.db.RLock()
	defer repo.db.RUnlock()
	fn(repo.db.data)
}

func (repo repository) write(fn func(t *tables) error) error {
	if repo.tx != nil {
		return fn(repo.tx)
	}
	// a write outside a transaction must not be lost when a transaction commits
	repo.db.txMu.Lock()
	defer repo.db.txMu.Unlock()
	repo.db.Lock()
	defer repo.db.Unlock()
	return fn(repo.db.data)
}

func (repo repository) GetFamily(_ context.Context, id string) (fam registration.Family, err error) {
	err = registration.ErrNotFound
	repo.read(func(t *tables) {
		if i := t.familyIndex(id); i >= 0 {
			fam, err = t.families[i], nil
		}
	})
	return fam, err
}

func (repo repository) GetFamilyByEmail(_ context.Context, email string) (fam registration.Family, err error) {
	err = registration.ErrNotFound
	repo.read(func(t *tables) {
		for _, f := range t.families {
			if f.Email == email {
				fam, err = f, nil
				return
			}
		}
	})
	return fam, err
}

func (repo repository) CreateFamily(_ context.Context, fam registration.Family) (registration.Family, error) {
	fam.ID = uuid.New().String()
	fam.CreatedAt = fam.CreatedAt.UTC()
	fam.UpdatedAt = fam.UpdatedAt.UTC()
	err := repo.write(func(t *tables) error {
		for _, f := range t.families {
			if f.Email == fam.Email {
				return errors.WithStack(registration.ErrEmailExists)
			}
		}
		t.families = append(t.families, fam)
		return nil
	})
	if err != nil {
		return registration.Family{}, err
	}
	return fam, nil
}

func (repo repository) UpdateFamily(_ context.Context, fam registration.Family) (registration.Family, error) {
	err := repo.write(func(t *tables) error {
		i := t.familyIndex(fam.ID)
		if i < 0 {
			return registration.ErrNotFound
		}
		for _, f := range t.families {
			if f.Email == fam.Email && f.ID != fam.ID {
				return errors.WithStack(registration.ErrEmailExists)
			}
		}
		fam.CreatedAt = t.families[i].CreatedAt
		fam.UpdatedAt = fam.UpdatedAt.UTC()
		t.families[i] = fam
		return nil
	})
	if err != nil {
		return registration.Family{}, err
	}
	return fam, nil
}

func (repo repository) QueryFamilies(_ context.Context, filter *registration.FamilyFilter, ordering []core.DBOrdering) ([]registration.Family, error) {
	fams := make([]registration.Family, 0)
	repo.read(func(t *tables) {
		for _, f := range t.families {
			if filter != nil {
				// families with search keyword matching any Name, Email or ParentFirstName ?
				if search := strings.ToLower(filter.Search); search != "" &&
					!strings.Contains(strings.ToLower(f.Name), search) &&
					!strings.Contains(strings.ToLower(f.Email), search) &&
					!strings.Contains(strings.ToLower(f.ParentFirstName), search) {
					continue
				}
				if filter.City != "" && !strings.EqualFold(f.City, filter.City) {
					continue
				}
			}
			fams = append(fams, f)
		}
	})

	ordering = core.FilterOrderings(ordering, familyOrderings)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(fams, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareFamilies(fams[i], fams[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return fams, nil
}

var familyOrderings = map[string]string{
	"name":       "name",
	"email":      "email",
	"city":       "city",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func compareFamilies(a, b registration.Family, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "city":
		return strings.Compare(a.City, b.City)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

func (repo repository) GetStudentByName(_ context.Context, familyID, firstName, lastName string) (std registration.Student, err error) {
	err = registration.ErrNotFound
	repo.read(func(t *tables) {
		for _, s := range t.students {
			if s.FamilyID == familyID && s.FirstName == firstName && s.LastName == lastName {
				std, err = s, nil
				return
			}
		}
	})
	return std, err
}

func (repo repository) CreateStudent(_ context.Context, std registration.Student) (registration.Student, error) {
	std.ID = uuid.New().String()
	std.CreatedAt = std.CreatedAt.UTC()
	if std.RegistrationType == "" {
		std.RegistrationType = registration.TypeChild
	}
	err := repo.write(func(t *tables) error {
		if t.familyIndex(std.FamilyID) < 0 {
			return errors.Wrap(ErrForeignKey, "student.family_id")
		}
		t.students = append(t.students, std)
		return nil
	})
	if err != nil {
		return registration.Student{}, err
	}
	return std, nil
}

func (repo repository) QueryStudents(_ context.Context, familyID string) ([]registration.Student, error) {
	stds := make([]registration.Student, 0)
	repo.read(func(t *tables) {
		for _, s := range t.students {
			if s.FamilyID == familyID {
				stds = append(stds, s)
			}
		}
	})
	return stds, nil
}

func (repo repository) GetLatestSchoolYear(_ context.Context) (sy registration.SchoolYear, err error) {
	err = registration.ErrNotFound
	repo.read(func(t *tables) {
		for _, y := range t.schoolYears {
			if err != nil || y.StartDate.After(sy.StartDate) {
				sy, err = y, nil
			}
		}
	})
	return sy, err
}

func (repo repository) CreateSchoolYear(_ context.Context, sy registration.SchoolYear) (registration.SchoolYear, error) {
	sy.ID = uuid.New().String()
	sy.StartDate = sy.StartDate.UTC()
	sy.EndDate = sy.EndDate.UTC()
	_ = repo.write(func(t *tables) error {
		t.schoolYears = append(t.schoolYears, sy)
		return nil
	})
	return sy, nil
}

func (repo repository) QuerySchoolYears(_ context.Context) ([]registration.SchoolYear, error) {
	var years []registration.SchoolYear
	repo.read(func(t *tables) {
		years = append(make([]registration.SchoolYear, 0, len(t.schoolYears)), t.schoolYears...)
	})
	sort.SliceStable(years, func(i, j int) bool { return years[i].StartDate.After(years[j].StartDate) })
	return years, nil
}

func (repo repository) CreateCourse(_ context.Context, crs registration.Course) (registration.Course, error) {
	crs.ID = uuid.New().String()
	_ = repo.write(func(t *tables) error {
		t.courses = append(t.courses, crs)
		return nil
	})
	return crs, nil
}

func (repo repository) QueryCourses(_ context.Context) ([]registration.Course, error) {
	var courses []registration.Course
	repo.read(func(t *tables) {
		courses = append(make([]registration.Course, 0, len(t.courses)), t.courses...)
	})
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo repository) CreateEnrollments(_ context.Context, enrs []registration.Enrollment) ([]registration.Enrollment, error) {
	if len(enrs) == 0 {
		return nil, nil
	}
	created := make([]registration.Enrollment, 0, len(enrs))
	for _, enr := range enrs {
		enr.ID = uuid.New().String()
		enr.StartDate = enr.StartDate.UTC()
		enr.CreatedAt = enr.CreatedAt.UTC()
		if enr.Status == "" {
			enr.Status = registration.EnrollmentActive
		}
		created = append(created, enr)
	}

	err := repo.write(func(t *tables) error {
		// all or nothing, like a single INSERT
		for _, enr := range created {
			switch {
			case !t.hasStudent(enr.StudentID):
				return errors.Wrap(ErrForeignKey, "enrollment.student_id")
			case !t.hasCourse(enr.CourseID):
				return errors.Wrap(ErrForeignKey, "enrollment.course_id")
			case !t.hasSchoolYear(enr.SchoolYearID):
				return errors.Wrap(ErrForeignKey, "enrollment.school_year_id")
			}
		}
		t.enrollments = append(t.enrollments, created...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (repo repository) QueryEnrollments(_ context.Context, studentIDs []string) ([]registration.Enrollment, error) {
	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}
	enrs := make([]registration.Enrollment, 0)
	repo.read(func(t *tables) {
		for _, e := range t.enrollments {
			if wanted[e.StudentID] {
				enrs = append(enrs, e)
			}
		}
	})
	return enrs, nil
}

func (repo repository) CreatePayment(_ context.Context, pmt registration.Payment) (registration.Payment, error) {
	pmt.ID = uuid.New().String()
	pmt.CreatedAt = pmt.CreatedAt.UTC()
	pmt.Cheques = append(make([]registration.Cheque, 0, len(pmt.Cheques)), pmt.Cheques...)
	err := repo.write(func(t *tables) error {
		if t.familyIndex(pmt.FamilyID) < 0 {
			return errors.Wrap(ErrForeignKey, "payment.family_id")
		}
		if !t.hasSchoolYear(pmt.SchoolYearID) {
			return errors.Wrap(ErrForeignKey, "payment.school_year_id")
		}
		t.payments = append(t.payments, pmt)
		return nil
	})
	if err != nil {
		return registration.Payment{}, err
	}
	return pmt, nil
}

func (repo repository) QueryPayments(_ context.Context, familyID string) ([]registration.Payment, error) {
	pmts := make([]registration.Payment, 0)
	repo.read(func(t *tables) {
		for _, p := range t.payments {
			if p.FamilyID == familyID {
				p.Cheques = append(make([]registration.Cheque, 0, len(p.Cheques)), p.Cheques...)
				pmts = append(pmts, p)
			}
		}
	})
	return pmts, nil
}

func (repo repository) RegistrationExists(_ context.Context, studentID, schoolYearID string) (exists bool, _ error) {
	repo.read(func(t *tables) {
		for _, r := range t.registrations {
			if r.StudentID == studentID && r.SchoolYearID == schoolYearID {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (repo repository) CreateRegistration(_ context.Context, reg registration.Registration) (registration.Registration, error) {
	reg.ID = uuid.New().String()
	reg.CreatedAt = reg.CreatedAt.UTC()
	reg.UpdatedAt = reg.UpdatedAt.UTC()
	if reg.Status == "" {
		reg.Status = registration.StatusDraft
	}
	err := repo.write(func(t *tables) error {
		switch {
		case !t.hasStudent(reg.StudentID):
			return errors.Wrap(ErrForeignKey, "registration.student_id")
		case t.familyIndex(reg.FamilyID) < 0:
			return errors.Wrap(ErrForeignKey, "registration.family_id")
		case !t.hasSchoolYear(reg.SchoolYearID):
			return errors.Wrap(ErrForeignKey, "registration.school_year_id")
		}
		t.registrations = append(t.registrations, reg)
		return nil
	})
	if err != nil {
		return registration.Registration{}, err
	}
	return reg, nil
}

func (repo repository) QueryRegistrations(_ context.Context, familyID string) ([]registration.Registration, error) {
	regs := make([]registration.Registration, 0)
	repo.read(func(t *tables) {
		for _, r := range t.registrations {
			if r.FamilyID == familyID {
				regs = append(regs, r)
			}
		}
	})
	return regs, nil
}

func (repo repository) CompleteRegistrations(_ context.Context, ids []string, updatedAt time.Time) (n int, _ error) {
	if len(ids) == 0 {
		return 0, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	_ = repo.write(func(t *tables) error {
		for i, r := range t.registrations {
			if wanted[r.ID] {
				t.registrations[i].Status = registration.StatusCompleted
				t.registrations[i].UpdatedAt = updatedAt.UTC()
				n++
			}
		}
		return nil
	})
	return n, nil
}
