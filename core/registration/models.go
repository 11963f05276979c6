package registration

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Registration types
const (
	TypeChild = "child"
	TypeAdult = "adult"
)

// Enrollment statuses
const (
	EnrollmentActive   = "active"
	EnrollmentPending  = "pending"
	EnrollmentFinished = "finished"
)

// Registration statuses
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

var (
	RegistrationTypes  = []string{TypeChild, TypeAdult}
	EnrollmentStatuses = []string{EnrollmentActive, EnrollmentPending, EnrollmentFinished}
)

// Family is the billing/household unit. Email is unique.
type Family struct {
	ID              string    `json:"id"`
	Name            string    `json:"family_name"`
	ParentFirstName string    `json:"parent_first_name"`
	Email           string    `json:"contact_email"`
	Phone           string    `json:"phone"`
	Address         string    `json:"address"`
	PostalCode      string    `json:"postal_code"`
	City            string    `json:"city"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

type Student struct {
	ID                string    `json:"id"`
	FamilyID          string    `json:"family_id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	BirthDate         null.Time `json:"birth_date"`
	RegistrationType  string    `json:"registration_type"`
	Notes             string    `json:"notes"`
	AlreadyRegistered bool      `json:"already_registered"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

type SchoolYear struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
}

type Course struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	PriceCents int64  `json:"price_cents"`
	Schedule   string `json:"schedule"`
}

// Enrollment links one Student to one Course for one SchoolYear.
type Enrollment struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	CourseID      string    `json:"course_id"`
	SchoolYearID  string    `json:"school_year_id"`
	Status        string    `json:"status"`
	IsWaitingList bool      `json:"is_waiting_list"`
	StartDate     time.Time `json:"start_date"` // UTC
	CreatedAt     time.Time `json:"created_at"` // UTC
}

type Cheque struct {
	Count       int    `json:"count" validate:"min=1"`
	AmountCents int64  `json:"amount_cents" validate:"min=0"`
	Bank        string `json:"bank"`
	PayerName   string `json:"payer_name"`
}

// Payment logs the reconciled monetary breakdown handed over at registration.
type Payment struct {
	ID                string    `json:"id"`
	FamilyID          string    `json:"family_id"`
	SchoolYearID      string    `json:"school_year_id"`
	CashCents         int64     `json:"cash_cents"`
	CardCents         int64     `json:"card_cents"`
	TransferCents     int64     `json:"transfer_cents"`
	RefundCents       int64     `json:"refund_cents"`
	MaterialsQuantity int       `json:"materials_quantity"`
	Remarks           string    `json:"remarks"`
	Cheques           []Cheque  `json:"cheques"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

// TotalCents is the amount received net of refunds.
func (p Payment) TotalCents() int64 {
	total := p.CashCents + p.CardCents + p.TransferCents - p.RefundCents
	for _, c := range p.Cheques {
		total += int64(c.Count) * c.AmountCents
	}
	return total
}

// Registration is a pre-registration (lead) record, distinct from Enrollment.
type Registration struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	FamilyID       string    `json:"family_id"`
	SchoolYearID   string    `json:"school_year_id"`
	Status         string    `json:"status"`
	IsWaitingList  bool      `json:"is_waiting_list"`
	AppointmentDay null.Time `json:"appointment_day"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// FamilyDetail is a family with everything this flow attaches to it.
type FamilyDetail struct {
	Family
	Students      []Student      `json:"students"`
	Enrollments   []Enrollment   `json:"enrollments"`
	Registrations []Registration `json:"registrations"`
	Payments      []Payment      `json:"payments"`
}

type FamilyFilter struct {
	Search string `query:"search"`
	City   string `query:"city"`
}

func (ff *FamilyFilter) Clean() {
	ff.Search = strings.TrimSpace(ff.Search)
	ff.City = strings.TrimSpace(ff.City)
}
