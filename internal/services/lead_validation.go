package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"salescrm/internal/apperr"
	"salescrm/internal/models"
)

var leadValidator = newLeadValidator()

func newLeadValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

var fieldNames = map[string]string{
	"Name":       "name",
	"Source":     "source",
	"Status":     "status",
	"Stage":      "stage",
	"Value":      "value",
	"AssignedTo": "assignedTo",
	"UpdatedAt":  "updatedAt",
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be a positive user id"
	case "gtefield":
		return "must not be before createdAt"
	}
	return "is invalid"
}

// ValidateLead checks a candidate lead and fills the defaults a freshly created lead carries
// (stage reception, status new, source manual). It never touches the candidate's pointers.
func ValidateLead(candidate models.Lead) (models.Lead, error) {
	lead := candidate.Clone()
	if lead.Stage == "" {
		lead.Stage = models.StageReception
	}
	if lead.Status == "" {
		lead.Status = models.StatusNew
	}
	if lead.Source == "" {
		lead.Source = models.SourceManual
	}

	err := leadValidator.Struct(lead)
	if err == nil {
		return lead, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.Lead{}, err
	}
	out := make(apperr.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := fieldNames[fe.StructField()]
		if !ok {
			name = fe.Field()
		}
		out = append(out, apperr.FieldError{Field: name, Message: fieldMessage(fe)})
	}
	return models.Lead{}, out
}
