package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/welldanyogia/webrana-formmail-backend/internal/errors"
	"github.com/welldanyogia/webrana-formmail-backend/internal/models"
)

// Form field limits, counted in characters
const (
	MaxOrganizationNameLength = 255
	MaxSubjectLength          = 100
	MaxReferencePeriodLength  = 50
	MaxDataDescriptionLength  = 2000
)

type fieldRule struct {
	name      string
	value     string
	maxLength int
}

// ValidateSubmission checks the mandatory form fields and their length
// limits. All violations are collected into a single ValidationError.
func ValidateSubmission(form models.FormSubmission) error {
	var details []string

	rules := []fieldRule{
		{"organizationName", form.OrganizationName, MaxOrganizationNameLength},
		{"responsibleContact", form.ResponsibleContact, 0},
		{"subject", form.Subject, MaxSubjectLength},
		{"referencePeriod", form.ReferencePeriod, MaxReferencePeriodLength},
		{"dataDescription", form.DataDescription, MaxDataDescriptionLength},
	}

	for _, rule := range rules {
		if strings.TrimSpace(rule.value) == "" {
			details = append(details, rule.name+": is required")
			continue
		}
		if rule.maxLength > 0 && utf8.RuneCountInString(rule.value) > rule.maxLength {
			details = append(details, fmt.Sprintf("%s: must be at most %d characters", rule.name, rule.maxLength))
		}
	}

	if strings.TrimSpace(form.ResponsibleContact) != "" {
		if err := ValidateEmail(form.ResponsibleContact); err != nil {
			details = append(details, "responsibleContact: must be a valid email address")
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError(details)
	}
	return nil
}

// ValidateRecipient checks an optional recipient override. Blank is allowed.
func ValidateRecipient(recipient string) error {
	if strings.TrimSpace(recipient) == "" {
		return nil
	}
	if err := ValidateEmail(recipient); err != nil {
		return apperrors.NewValidationError([]string{"recipient: must be a valid email address"})
	}
	return nil
}
