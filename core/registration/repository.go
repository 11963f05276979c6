package registration

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/scolarite/core"
)

var (
	// errors
	ErrNotFound    = errors.New("not found")
	ErrEmailExists = errors.New("a family with this email already exists")
)

type (
	// Repository reads and writes the registration entities.
	// Every method runs on the connection or transaction the Repository is bound to.
	Repository interface {
		GetFamily(ctx context.Context, id string) (Family, error)
		GetFamilyByEmail(ctx context.Context, email string) (Family, error)
		CreateFamily(ctx context.Context, fam Family) (Family, error)
		UpdateFamily(ctx context.Context, fam Family) (Family, error)
		// QueryFamilies applies AND on the FamilyFilter fields.
		// FamilyFilter.Search does a case-insensitive match on one of Family.Name, Family.Email or Family.ParentFirstName.
		QueryFamilies(ctx context.Context, filter *FamilyFilter, ordering []core.DBOrdering) ([]Family, error)

		// GetStudentByName does an exact match on (familyID, firstName, lastName).
		GetStudentByName(ctx context.Context, familyID, firstName, lastName string) (Student, error)
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryStudents(ctx context.Context, familyID string) ([]Student, error)

		// GetLatestSchoolYear returns the school year with the latest start date.
		GetLatestSchoolYear(ctx context.Context) (SchoolYear, error)
		CreateSchoolYear(ctx context.Context, sy SchoolYear) (SchoolYear, error)
		QuerySchoolYears(ctx context.Context) ([]SchoolYear, error)

		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)

		// CreateEnrollments inserts all enrollments at once.
		CreateEnrollments(ctx context.Context, enrs []Enrollment) ([]Enrollment, error)
		QueryEnrollments(ctx context.Context, studentIDs []string) ([]Enrollment, error)

		CreatePayment(ctx context.Context, pmt Payment) (Payment, error)
		QueryPayments(ctx context.Context, familyID string) ([]Payment, error)

		RegistrationExists(ctx context.Context, studentID, schoolYearID string) (bool, error)
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		QueryRegistrations(ctx context.Context, familyID string) ([]Registration, error)
		// CompleteRegistrations marks registrations as completed at updatedAt. Unknown ids are ignored.
		CompleteRegistrations(ctx context.Context, ids []string, updatedAt time.Time) (int, error)
	}

	// Store is a Repository that can run a unit of work atomically.
	Store interface {
		Repository

		// WithinTx runs fn inside one transaction. The transaction is committed when fn returns nil,
		// rolled back otherwise; fn's error is returned as is.
		WithinTx(ctx context.Context, fn func(repo Repository) error) error
	}
)
