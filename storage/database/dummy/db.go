package dummydb

import (
	"sync"

	"github.com/trezcool/scolarite/core/registration"
)

type (
	// DB is an in-memory database. It enforces the same constraints as the SQL schema:
	// unique family email and references between entities.
	DB struct {
		sync.RWMutex
		txMu sync.Mutex // one transaction at a time
		data *tables
	}

	// tables keep rows in insertion order.
	tables struct {
		families      []registration.Family
		students      []registration.Student
		schoolYears   []registration.SchoolYear
		courses       []registration.Course
		enrollments   []registration.Enrollment
		payments      []registration.Payment
		registrations []registration.Registration
	}
)

func Open() (*DB, error) {
	return &DB{data: new(tables)}, nil
}

// clone returns a copy of t that can be written without affecting t.
func (t *tables) clone() *tables {
	return &tables{
		families:      append([]registration.Family(nil), t.families...),
		students:      append([]registration.Student(nil), t.students...),
		schoolYears:   append([]registration.SchoolYear(nil), t.schoolYears...),
		courses:       append([]registration.Course(nil), t.courses...),
		enrollments:   append([]registration.Enrollment(nil), t.enrollments...),
		payments:      append([]registration.Payment(nil), t.payments...),
		registrations: append([]registration.Registration(nil), t.registrations...),
	}
}

func (t *tables) familyIndex(id string) int {
	for i, f := range t.families {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (t *tables) hasStudent(id string) bool {
	for _, s := range t.students {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (t *tables) hasSchoolYear(id string) bool {
	for _, sy := range t.schoolYears {
		if sy.ID == id {
			return true
		}
	}
	return false
}

func (t *tables) hasCourse(id string) bool {
	for _, c := range t.courses {
		if c.ID == id {
			return true
		}
	}
	return false
}
