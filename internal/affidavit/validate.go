package affidavit

import (
	"strings"

	"github.com/GMettam/batch-affidavit-web/internal/model"
)

// Required field sets for the two delivery shells.
var (
	FunctionRequiredFields = []string{"registry", "caseNumber", "claimant", "defendants"}
	ScriptRequiredFields   = []string{"caseNumber", "claimant", "defendants"}
)

// MissingFieldError reports an absent or empty required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing required field: " + e.Field
}

// Validate checks fields in order and returns a *MissingFieldError for the
// first one that is empty. The record should already be normalized.
func Validate(rec *model.CaseRecord, fields []string) error {
	for _, f := range fields {
		if !present(rec, f) {
			return &MissingFieldError{Field: f}
		}
	}
	return nil
}

func present(rec *model.CaseRecord, field string) bool {
	switch field {
	case "registry":
		// The registry block can also be parsed from the claim text.
		return strings.TrimSpace(rec.Registry) != "" || strings.TrimSpace(rec.GPCText) != ""
	case "caseNumber":
		return strings.TrimSpace(rec.CaseNumber) != ""
	case "claimant":
		return strings.TrimSpace(rec.Claimant) != ""
	case "claimantAddress":
		return strings.TrimSpace(rec.ClaimantAddress) != ""
	case "defendants":
		return len(rec.Defendants) > 0
	case "defendantName":
		return strings.TrimSpace(rec.DefendantName) != ""
	case "gpcText":
		return strings.TrimSpace(rec.GPCText) != ""
	default:
		return false
	}
}
