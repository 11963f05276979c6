package registration

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/scolarite/core"
)

// Student entry kinds
const (
	KindExisting = "existing"
	KindNew      = "new"
)

// FamilyInfo holds the household contact fields typed in a form.
type FamilyInfo struct {
	Name            string `json:"family_name" validate:"required,notblank"`
	ParentFirstName string `json:"parent_first_name"`
	Email           string `json:"contact_email" validate:"required,email"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	PostalCode      string `json:"postal_code"`
	City            string `json:"city"`
}

func (fi *FamilyInfo) clean() {
	fi.Name = core.CleanString(fi.Name)
	fi.ParentFirstName = core.CleanString(fi.ParentFirstName)
	fi.Email = core.CleanString(fi.Email, true /* lower */)
	fi.Phone = core.CleanString(fi.Phone)
	fi.Address = core.CleanString(fi.Address)
	fi.PostalCode = core.CleanString(fi.PostalCode)
	fi.City = core.CleanString(fi.City)
}

// apply overwrites the contact fields of fam.
func (fi FamilyInfo) apply(fam *Family) {
	fam.Name = fi.Name
	fam.ParentFirstName = fi.ParentFirstName
	fam.Email = fi.Email
	fam.Phone = fi.Phone
	fam.Address = fi.Address
	fam.PostalCode = fi.PostalCode
	fam.City = fi.City
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName        string `json:"first_name" validate:"required,notblank"`
	LastName         string `json:"last_name" validate:"required,notblank"`
	BirthDate        string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD
	RegistrationType string `json:"registration_type" validate:"omitempty,oneof=child adult"`
	Notes            string `json:"notes"`
}

func (ns *NewStudent) clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.BirthDate = core.CleanString(ns.BirthDate)
	ns.RegistrationType = core.CleanString(ns.RegistrationType, true /* lower */)
	if ns.RegistrationType == "" {
		ns.RegistrationType = TypeChild
	}
	ns.Notes = core.CleanString(ns.Notes)
}

// StudentEntry is either an existing student ({kind: existing, id}) or a new one ({kind: new, student}).
type StudentEntry struct {
	Kind    string      `json:"kind" validate:"required,oneof=existing new"`
	ID      string      `json:"id,omitempty" validate:"required_if=Kind existing,omitempty,uuid"`
	Student *NewStudent `json:"student,omitempty" validate:"required_if=Kind new"`
}

func ExistingStudentEntry(id string) StudentEntry {
	return StudentEntry{Kind: KindExisting, ID: id}
}

func NewStudentEntry(ns NewStudent) StudentEntry {
	return StudentEntry{Kind: KindNew, Student: &ns}
}

func (se StudentEntry) IsNew() bool { return se.Kind == KindNew }

// EnrollmentRequest enrolls students[StudentRefIndex] (0-based) into every course of CourseIDs.
type EnrollmentRequest struct {
	StudentRefIndex int      `json:"student_ref_index" validate:"min=0"`
	CourseIDs       []string `json:"course_ids" validate:"required,min=1,dive,required,uuid"`
}

type NewPayment struct {
	CashCents         int64    `json:"cash_cents" validate:"min=0"`
	CardCents         int64    `json:"card_cents" validate:"min=0"`
	TransferCents     int64    `json:"transfer_cents" validate:"min=0"`
	RefundCents       int64    `json:"refund_cents" validate:"min=0"`
	MaterialsQuantity int      `json:"materials_quantity" validate:"min=0"`
	Remarks           string   `json:"remarks"`
	Cheques           []Cheque `json:"cheques" validate:"omitempty,dive"`
}

func (np *NewPayment) clean() {
	np.Remarks = core.CleanString(np.Remarks)
	for i := range np.Cheques {
		np.Cheques[i].Bank = core.CleanString(np.Cheques[i].Bank)
		np.Cheques[i].PayerName = core.CleanString(np.Cheques[i].PayerName)
	}
}

// OnsiteRegistration is the staff-entered registration with full course and payment detail.
// Exactly one of FamilyID and NewFamily must be set.
type OnsiteRegistration struct {
	SchoolYearID              string              `json:"school_year_id" validate:"required,uuid"`
	FamilyID                  string              `json:"family_id" validate:"omitempty,uuid"`
	NewFamily                 *FamilyInfo         `json:"new_family"`
	Students                  []StudentEntry      `json:"students" validate:"dive"`
	Enrollments               []EnrollmentRequest `json:"enrollments" validate:"dive"`
	Payment                   *NewPayment         `json:"payment"`
	RegistrationIDsToComplete []string            `json:"registration_ids_to_complete" validate:"omitempty,dive,required"`
}

// Validate cleans the payload then validates it. Nothing is written when it fails.
func (r *OnsiteRegistration) Validate(validate *validator.Validate) error {
	r.SchoolYearID = core.CleanString(r.SchoolYearID)
	r.FamilyID = core.CleanString(r.FamilyID)
	if r.NewFamily != nil {
		r.NewFamily.clean()
	}
	for i := range r.Students {
		r.Students[i].Kind = core.CleanString(r.Students[i].Kind, true /* lower */)
		r.Students[i].ID = core.CleanString(r.Students[i].ID)
		if r.Students[i].Student != nil {
			r.Students[i].Student.clean()
		}
	}
	if r.Payment != nil {
		r.Payment.clean()
	}
	return validate.Struct(r)
}

type OnsiteResult struct {
	FamilyID   string   `json:"family_id"`
	StudentIDs []string `json:"student_ids"`
}

// PreRegistration is the self-service web lead capture.
type PreRegistration struct {
	Family         FamilyInfo   `json:"family"`
	Students       []NewStudent `json:"students" validate:"required,min=1,dive"`
	AppointmentDay string       `json:"appointment_day" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD
}

// Validate cleans the payload then validates it. Nothing is written when it fails.
func (r *PreRegistration) Validate(validate *validator.Validate) error {
	r.Family.clean()
	for i := range r.Students {
		r.Students[i].clean()
	}
	r.AppointmentDay = core.CleanString(r.AppointmentDay)
	return validate.Struct(r)
}

type PreRegistrationResult struct {
	Success  bool     `json:"success"`
	FamilyID string   `json:"family_id"`
	Messages []string `json:"messages"`
}
