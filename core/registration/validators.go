package registration

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/scolarite/core"
)

var (
	familyOneOfTag  = "family_one_of"
	familyOneOfText = "renseigner soit une famille existante, soit une nouvelle famille"

	studentRefTag  = "student_ref"
	studentRefText = "aucun élève ne correspond à cet index"
)

// InitValidators registers the validators of the registration payloads.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(onsiteRegistrationStructValidation, OnsiteRegistration{})

	core.RegisterCustomTranslation(validate, translator, familyOneOfTag, familyOneOfText)
	core.RegisterCustomTranslation(validate, translator, studentRefTag, studentRefText)
}

// onsiteRegistrationStructValidation does OnsiteRegistration's struct level validation:
// - exactly one of family_id or new_family
// - every enrollment addresses an entry of students
func onsiteRegistrationStructValidation(sl validator.StructLevel) {
	reg, ok := sl.Current().Interface().(OnsiteRegistration)
	if !ok {
		return
	}

	hasID := reg.FamilyID != ""
	hasNew := reg.NewFamily != nil
	if hasID == hasNew {
		sl.ReportError(reg.FamilyID, "family_id", "FamilyID", familyOneOfTag, "")
		sl.ReportError(reg.NewFamily, "new_family", "NewFamily", familyOneOfTag, "")
	}

	for i, enr := range reg.Enrollments {
		if enr.StudentRefIndex < 0 || enr.StudentRefIndex >= len(reg.Students) {
			sl.ReportError(
				enr.StudentRefIndex,
				fmt.Sprintf("enrollments[%d].student_ref_index", i),
				fmt.Sprintf("Enrollments[%d].StudentRefIndex", i),
				studentRefTag, "",
			)
		}
	}
}
