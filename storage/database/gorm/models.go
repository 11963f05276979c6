package gormrepos

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/scolarite/core/registration"
)

type (
	familyModel struct {
		ID              string `gorm:"primaryKey"`
		Name            string
		ParentFirstName string
		Email           string
		Phone           string
		Address         string
		PostalCode      string
		City            string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	studentModel struct {
		ID                string `gorm:"primaryKey"`
		FamilyID          string
		FirstName         string
		LastName          string
		BirthDate         null.Time
		RegistrationType  string
		Notes             string
		AlreadyRegistered bool
		CreatedAt         time.Time
	}

	schoolYearModel struct {
		ID        string `gorm:"primaryKey"`
		Label     string
		StartDate time.Time
		EndDate   time.Time
		IsCurrent bool
	}

	courseModel struct {
		ID         string `gorm:"primaryKey"`
		Name       string
		Capacity   int
		PriceCents int64
		Schedule   string
	}

	enrollmentModel struct {
		ID            string `gorm:"primaryKey"`
		StudentID     string
		CourseID      string
		SchoolYearID  string
		Status        string
		IsWaitingList bool
		StartDate     time.Time
		CreatedAt     time.Time
	}

	paymentModel struct {
		ID                string `gorm:"primaryKey"`
		FamilyID          string
		SchoolYearID      string
		CashCents         int64
		CardCents         int64
		TransferCents     int64
		RefundCents       int64
		MaterialsQuantity int
		Remarks           string
		CreatedAt         time.Time
	}

	chequeModel struct {
		PaymentID   string `gorm:"primaryKey"`
		Position    int    `gorm:"primaryKey;autoIncrement:false"`
		Count       int    `gorm:"column:cheque_count"`
		AmountCents int64
		Bank        string
		PayerName   string
	}

	registrationModel struct {
		ID             string `gorm:"primaryKey"`
		StudentID      string
		FamilyID       string
		SchoolYearID   string
		Status         string
		IsWaitingList  bool
		AppointmentDay null.Time
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}
)

func (familyModel) TableName() string       { return "families" }
func (studentModel) TableName() string      { return "students" }
func (schoolYearModel) TableName() string   { return "school_years" }
func (courseModel) TableName() string       { return "courses" }
func (enrollmentModel) TableName() string   { return "enrollments" }
func (paymentModel) TableName() string      { return "payments" }
func (chequeModel) TableName() string       { return "payment_cheques" }
func (registrationModel) TableName() string { return "registrations" }

func utcNull(t null.Time) null.Time {
	if !t.Valid {
		return null.Time{}
	}
	return null.TimeFrom(t.Time.UTC())
}

func toFamilyModel(fam registration.Family) familyModel {
	return familyModel{
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

func (m familyModel) toDomain() registration.Family {
	return registration.Family{
		ID:              m.ID,
		Name:            m.Name,
		ParentFirstName: m.ParentFirstName,
		Email:           m.Email,
		Phone:           m.Phone,
		Address:         m.Address,
		PostalCode:      m.PostalCode,
		City:            m.City,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

func toStudentModel(std registration.Student) studentModel {
	m := studentModel{
		ID:                std.ID,
		FamilyID:          std.FamilyID,
		FirstName:         std.FirstName,
		LastName:          std.LastName,
		BirthDate:         utcNull(std.BirthDate),
		RegistrationType:  std.RegistrationType,
		Notes:             std.Notes,
		AlreadyRegistered: std.AlreadyRegistered,
		CreatedAt:         std.CreatedAt.UTC(),
	}
	if m.RegistrationType == "" {
		m.RegistrationType = registration.TypeChild
	}
	return m
}

func (m studentModel) toDomain() registration.Student {
	return registration.Student{
		ID:                m.ID,
		FamilyID:          m.FamilyID,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		BirthDate:         utcNull(m.BirthDate),
		RegistrationType:  m.RegistrationType,
		Notes:             m.Notes,
		AlreadyRegistered: m.AlreadyRegistered,
		CreatedAt:         m.CreatedAt.UTC(),
	}
}

func (m schoolYearModel) toDomain() registration.SchoolYear {
	return registration.SchoolYear{
		ID:        m.ID,
		Label:     m.Label,
		StartDate: m.StartDate.UTC(),
		EndDate:   m.EndDate.UTC(),
		IsCurrent: m.IsCurrent,
	}
}

func toEnrollmentModel(enr registration.Enrollment) enrollmentModel {
	m := enrollmentModel{
		ID:            enr.ID,
		StudentID:     enr.StudentID,
		CourseID:      enr.CourseID,
		SchoolYearID:  enr.SchoolYearID,
		Status:        enr.Status,
		IsWaitingList: enr.IsWaitingList,
		StartDate:     enr.StartDate.UTC(),
		CreatedAt:     enr.CreatedAt.UTC(),
	}
	if m.Status == "" {
		m.Status = registration.EnrollmentActive
	}
	return m
}

func (m enrollmentModel) toDomain() registration.Enrollment {
	return registration.Enrollment{
		ID:            m.ID,
		StudentID:     m.StudentID,
		CourseID:      m.CourseID,
		SchoolYearID:  m.SchoolYearID,
		Status:        m.Status,
		IsWaitingList: m.IsWaitingList,
		StartDate:     m.StartDate.UTC(),
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

func (m paymentModel) toDomain(cheques []chequeModel) registration.Payment {
	pmt := registration.Payment{
		ID:                m.ID,
		FamilyID:          m.FamilyID,
		SchoolYearID:      m.SchoolYearID,
		CashCents:         m.CashCents,
		CardCents:         m.CardCents,
		TransferCents:     m.TransferCents,
		RefundCents:       m.RefundCents,
		MaterialsQuantity: m.MaterialsQuantity,
		Remarks:           m.Remarks,
		Cheques:           make([]registration.Cheque, 0, len(cheques)),
		CreatedAt:         m.CreatedAt.UTC(),
	}
	for _, c := range cheques {
		pmt.Cheques = append(pmt.Cheques, registration.Cheque{
			Count:       c.Count,
			AmountCents: c.AmountCents,
			Bank:        c.Bank,
			PayerName:   c.PayerName,
		})
	}
	return pmt
}

func toRegistrationModel(reg registration.Registration) registrationModel {
	m := registrationModel{
		ID:             reg.ID,
		StudentID:      reg.StudentID,
		FamilyID:       reg.FamilyID,
		SchoolYearID:   reg.SchoolYearID,
		Status:         reg.Status,
		IsWaitingList:  reg.IsWaitingList,
		AppointmentDay: utcNull(reg.AppointmentDay),
		CreatedAt:      reg.CreatedAt.UTC(),
		UpdatedAt:      reg.UpdatedAt.UTC(),
	}
	if m.Status == "" {
		m.Status = registration.StatusDraft
	}
	return m
}

func (m registrationModel) toDomain() registration.Registration {
	return registration.Registration{
		ID:             m.ID,
		StudentID:      m.StudentID,
		FamilyID:       m.FamilyID,
		SchoolYearID:   m.SchoolYearID,
		Status:         m.Status,
		IsWaitingList:  m.IsWaitingList,
		AppointmentDay: utcNull(m.AppointmentDay),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
