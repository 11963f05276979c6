package registration

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/scolarite/core"
)

var (
	ErrNoSchoolYear   = core.NewResolutionError("no school year configured")
	ErrFamilyNotFound = core.NewResolutionError("family not found")
)

// pre-registration audit trail
const (
	msgStudentAdded       = "%s a été ajouté."
	msgStudentExists      = "%s existe déjà."
	msgRegistrationExists = "Inscription de %s déjà enregistrée."

	preRegistrationTemplate = "pre_registration"
	preRegistrationSubject  = "Votre pré-inscription"

	receiptTemplate = "registration_receipt"
	receiptSubject  = "Votre reçu d'inscription"
	receiptFilename = "recu.txt"
)

type (
	ServiceInterface interface {
		ProcessRegistration(ctx context.Context, data OnsiteRegistration) (OnsiteResult, error)
		ProcessPreRegistration(ctx context.Context, data PreRegistration) (PreRegistrationResult, error)
		QuerySchoolYears(ctx context.Context) ([]SchoolYear, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		QueryFamilies(ctx context.Context, filter *FamilyFilter, ordering []core.DBOrdering) ([]Family, error)
		GetFamilyDetail(ctx context.Context, id string) (FamilyDetail, error)
	}

	Service struct {
		store    Store
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
		now      func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

// NewService returns the registration transaction processor.
// mailSvc may be nil, in which case no acknowledgement is sent.
func NewService(store Store, validate *validator.Validate, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		store:    store,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProcessRegistration records an on-site registration in a single transaction:
// family, students, enrollments, the optional payment and the completion of prior pre-registrations.
// Either everything is written or nothing is.
func (svc *Service) ProcessRegistration(ctx context.Context, data OnsiteRegistration) (OnsiteResult, error) {
	if err := data.Validate(svc.validate); err != nil {
		return OnsiteResult{}, err
	}
	if err := checkStudentRefs(data); err != nil {
		return OnsiteResult{}, err
	}

	var (
		res  OnsiteResult
		fam  Family
		paid *Payment
	)
	err := svc.store.WithinTx(ctx, func(repo Repository) error {
		var err error
		fam, err = svc.resolveFamily(ctx, repo, data)
		if err != nil {
			return err
		}

		studentIDs := make([]string, 0, len(data.Students))
		for _, entry := range data.Students {
			if !entry.IsNew() {
				studentIDs = append(studentIDs, entry.ID)
				continue
			}
			std, _, err := svc.findOrCreateStudent(ctx, repo, fam.ID, *entry.Student)
			if err != nil {
				return err
			}
			studentIDs = append(studentIDs, std.ID)
		}

		// students are all resolved at this point
		now := svc.now()
		var enrs []Enrollment
		for _, er := range data.Enrollments {
			for _, courseID := range er.CourseIDs {
				enrs = append(enrs, Enrollment{
					StudentID:    studentIDs[er.StudentRefIndex],
					CourseID:     courseID,
					SchoolYearID: data.SchoolYearID,
					Status:       EnrollmentActive,
					StartDate:    now,
					CreatedAt:    now,
				})
			}
		}
		if len(enrs) > 0 {
			if _, err = repo.CreateEnrollments(ctx, enrs); err != nil {
				return errors.Wrap(err, "creating enrollments")
			}
		}

		if data.Payment != nil {
			pmt := Payment{
				FamilyID:          fam.ID,
				SchoolYearID:      data.SchoolYearID,
				CashCents:         data.Payment.CashCents,
				CardCents:         data.Payment.CardCents,
				TransferCents:     data.Payment.TransferCents,
				RefundCents:       data.Payment.RefundCents,
				MaterialsQuantity: data.Payment.MaterialsQuantity,
				Remarks:           data.Payment.Remarks,
				Cheques:           data.Payment.Cheques,
				CreatedAt:         now,
			}
			if pmt, err = repo.CreatePayment(ctx, pmt); err != nil {
				return errors.Wrap(err, "creating payment")
			}
			paid = &pmt
		}

		if len(data.RegistrationIDsToComplete) > 0 {
			if _, err = repo.CompleteRegistrations(ctx, data.RegistrationIDsToComplete, now); err != nil {
				return errors.Wrap(err, "completing registrations")
			}
		}

		res = OnsiteResult{FamilyID: fam.ID, StudentIDs: studentIDs}
		return nil
	})
	if err != nil {
		return OnsiteResult{}, err
	}

	svc.logger.Info(fmt.Sprintf(
		"registration processed: family %s, %d student(s), %d enrollment request(s)",
		res.FamilyID, len(res.StudentIDs), len(data.Enrollments),
	), fam)
	if paid != nil {
		svc.sendReceiptMail(fam, *paid)
	}
	return res, nil
}

// checkStudentRefs makes sure every enrollment addresses an entry of data.Students,
// whatever validators were registered on the service's validator.
func checkStudentRefs(data OnsiteRegistration) error {
	var flds []core.FieldError
	for i, er := range data.Enrollments {
		if er.StudentRefIndex < 0 || er.StudentRefIndex >= len(data.Students) {
			flds = append(flds, core.FieldError{
				Field: fmt.Sprintf("enrollments[%d].student_ref_index", i),
				Error: studentRefText,
			})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// resolveFamily looks up data.FamilyID, or looks up data.NewFamily by email and creates it when missing.
// an existing family is never overwritten here.
func (svc *Service) resolveFamily(ctx context.Context, repo Repository, data OnsiteRegistration) (Family, error) {
	if data.FamilyID != "" {
		fam, err := repo.GetFamily(ctx, data.FamilyID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Family{}, errors.WithStack(ErrFamilyNotFound)
			}
			return Family{}, errors.Wrap(err, "finding family by ID")
		}
		return fam, nil
	}
	if data.NewFamily == nil {
		return Family{}, errors.WithStack(ErrFamilyNotFound)
	}

	fam, err := repo.GetFamilyByEmail(ctx, data.NewFamily.Email)
	if err == nil {
		return fam, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Family{}, errors.Wrap(err, "finding family by email")
	}
	return svc.createFamily(ctx, repo, *data.NewFamily)
}

func (svc *Service) createFamily(ctx context.Context, repo Repository, info FamilyInfo) (Family, error) {
	now := svc.now()
	fam := Family{CreatedAt: now, UpdatedAt: now}
	info.apply(&fam)
	fam, err := repo.CreateFamily(ctx, fam)
	if err != nil {
		return Family{}, errors.Wrap(err, "creating family")
	}
	return fam, nil
}

// upsertFamily overwrites the contact fields of the family with info.Email, or creates it.
func (svc *Service) upsertFamily(ctx context.Context, repo Repository, info FamilyInfo) (Family, error) {
	fam, err := repo.GetFamilyByEmail(ctx, info.Email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Family{}, errors.Wrap(err, "finding family by email")
		}
		return svc.createFamily(ctx, repo, info)
	}

	info.apply(&fam)
	fam.UpdatedAt = svc.now()
	fam, err = repo.UpdateFamily(ctx, fam)
	if err != nil {
		return Family{}, errors.Wrap(err, "updating family")
	}
	return fam, nil
}

// findOrCreateStudent matches ns on (familyID, first name, last name); the birth date is not part of the key.
// created reports whether a new row was inserted.
func (svc *Service) findOrCreateStudent(ctx context.Context, repo Repository, familyID string, ns NewStudent) (std Student, created bool, err error) {
	std, err = repo.GetStudentByName(ctx, familyID, ns.FirstName, ns.LastName)
	if err == nil {
		return std, false, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Student{}, false, errors.Wrap(err, "finding student")
	}

	std = Student{
		FamilyID:         familyID,
		FirstName:        ns.FirstName,
		LastName:         ns.LastName,
		RegistrationType: ns.RegistrationType,
		Notes:            ns.Notes,
		CreatedAt:        svc.now(),
	}
	if ns.BirthDate != "" {
		birthDate, err := core.ParseDate(ns.BirthDate)
		if err != nil {
			return Student{}, false, errors.Wrap(err, "parsing birth date")
		}
		std.BirthDate = null.TimeFrom(birthDate)
	}
	std, err = repo.CreateStudent(ctx, std)
	if err != nil {
		return Student{}, false, errors.Wrap(err, "creating student")
	}
	return std, true, nil
}

// ProcessPreRegistration records a web lead in a single transaction:
// the family is upserted by email, students are matched by name, and a draft registration
// is added for the latest school year unless one exists already.
// The returned messages are the audit trail of what was done for each student.
func (svc *Service) ProcessPreRegistration(ctx context.Context, data PreRegistration) (PreRegistrationResult, error) {
	if err := data.Validate(svc.validate); err != nil {
		return PreRegistrationResult{}, err
	}

	var appointment null.Time
	if data.AppointmentDay != "" {
		day, err := core.ParseDate(data.AppointmentDay)
		if err != nil {
			return PreRegistrationResult{}, errors.Wrap(err, "parsing appointment day")
		}
		appointment = null.TimeFrom(day)
	}

	var (
		fam  Family
		msgs []string
	)
	err := svc.store.WithinTx(ctx, func(repo Repository) error {
		var err error
		fam, err = svc.upsertFamily(ctx, repo, data.Family)
		if err != nil {
			return err
		}

		sy, err := repo.GetLatestSchoolYear(ctx)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return errors.WithStack(ErrNoSchoolYear)
			}
			return errors.Wrap(err, "finding latest school year")
		}

		msgs = make([]string, 0, len(data.Students))
		for _, ns := range data.Students {
			std, created, err := svc.findOrCreateStudent(ctx, repo, fam.ID, ns)
			if err != nil {
				return err
			}
			if created {
				msgs = append(msgs, fmt.Sprintf(msgStudentAdded, std.FullName()))
			} else {
				msgs = append(msgs, fmt.Sprintf(msgStudentExists, std.FullName()))
			}

			exists, err := repo.RegistrationExists(ctx, std.ID, sy.ID)
			if err != nil {
				return errors.Wrap(err, "checking registration")
			}
			if exists {
				msgs = append(msgs, fmt.Sprintf(msgRegistrationExists, std.FirstName))
				continue
			}

			now := svc.now()
			reg := Registration{
				StudentID:      std.ID,
				FamilyID:       fam.ID,
				SchoolYearID:   sy.ID,
				Status:         StatusDraft,
				IsWaitingList:  false,
				AppointmentDay: appointment,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if _, err = repo.CreateRegistration(ctx, reg); err != nil {
				return errors.Wrap(err, "creating registration")
			}
		}
		return nil
	})
	if err != nil {
		return PreRegistrationResult{}, err
	}

	svc.logger.Info(fmt.Sprintf("pre-registration processed: family %s", fam.ID), strings.Join(msgs, " "), fam)
	svc.sendPreRegistrationMail(fam, msgs, appointment)

	return PreRegistrationResult{Success: true, FamilyID: fam.ID, Messages: msgs}, nil
}

// sendPreRegistrationMail acknowledges a committed pre-registration.
func (svc *Service) sendPreRegistrationMail(fam Family, msgs []string, appointment null.Time) {
	if svc.mailSvc == nil || fam.Email == "" {
		return
	}
	var day string
	if appointment.Valid {
		day = appointment.Time.Format("02/01/2006")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To: []mail.Address{{
			Name:    core.CleanString(fam.ParentFirstName + " " + fam.Name),
			Address: fam.Email,
		}},
		Subject:      preRegistrationSubject,
		TemplateName: preRegistrationTemplate,
		TemplateData: map[string]interface{}{
			"FamilyName":     fam.Name,
			"Messages":       msgs,
			"AppointmentDay": day,
		},
	})
}

// sendReceiptMail sends the receipt of a committed on-site payment, attached as a text file.
func (svc *Service) sendReceiptMail(fam Family, pmt Payment) {
	if svc.mailSvc == nil || fam.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To: []mail.Address{{
			Name:    core.CleanString(fam.ParentFirstName + " " + fam.Name),
			Address: fam.Email,
		}},
		Subject:      receiptSubject,
		TemplateName: receiptTemplate,
		TemplateData: map[string]interface{}{
			"FamilyName": fam.Name,
			"Total":      FormatCents(pmt.TotalCents()),
		},
	}
	receipt := pmt.Receipt(fam)
	if err := msg.Attach(strings.NewReader(receipt), receiptFilename, "text/plain; charset=utf-8"); err != nil {
		svc.logger.Error(fmt.Sprintf("attaching receipt: %v", err), errors.Wrap(err, "attaching receipt"), fam)
		return
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) QuerySchoolYears(ctx context.Context) ([]SchoolYear, error) {
	return svc.store.QuerySchoolYears(ctx)
}

func (svc *Service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.store.QueryCourses(ctx)
}

func (svc *Service) QueryFamilies(ctx context.Context, filter *FamilyFilter, ordering []core.DBOrdering) ([]Family, error) {
	return svc.store.QueryFamilies(ctx, filter, ordering)
}

// GetFamilyDetail returns the family with its students, enrollments, registrations and payments.
func (svc *Service) GetFamilyDetail(ctx context.Context, id string) (FamilyDetail, error) {
	fam, err := svc.store.GetFamily(ctx, id)
	if err != nil {
		return FamilyDetail{}, err
	}
	detail := FamilyDetail{Family: fam}

	if detail.Students, err = svc.store.QueryStudents(ctx, fam.ID); err != nil {
		return FamilyDetail{}, errors.Wrap(err, "querying students")
	}
	studentIDs := make([]string, 0, len(detail.Students))
	for _, std := range detail.Students {
		studentIDs = append(studentIDs, std.ID)
	}
	if detail.Enrollments, err = svc.store.QueryEnrollments(ctx, studentIDs); err != nil {
		return FamilyDetail{}, errors.Wrap(err, "querying enrollments")
	}
	if detail.Registrations, err = svc.store.QueryRegistrations(ctx, fam.ID); err != nil {
		return FamilyDetail{}, errors.Wrap(err, "querying registrations")
	}
	if detail.Payments, err = svc.store.QueryPayments(ctx, fam.ID); err != nil {
		return FamilyDetail{}, errors.Wrap(err, "querying payments")
	}
	return detail, nil
}
