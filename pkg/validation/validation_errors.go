package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the names clients send.
var FieldLabels = map[string]string{
	"UserID":                "userId",
	"TargetID":              "targetId",
	"Action":                "action",
	"Role":                  "role",
	"UserRole":              "userRole",
	"ApplicantID":           "applicantId",
	"JobID":                 "jobId",
	"CandidateID":           "candidateId",
	"SessionID":             "sessionId",
	"EmployerBudget":        "employerBudget",
	"CandidateTargetSalary": "candidateTargetSalary",
	"FullName":              "full_name",
	"ResumeText":            "resume_text",
	"Skills":                "skills",
	"SalaryExpectation":     "salary_expectation",
	"Title":                 "title",
	"Description":           "description",
	"Requirements":          "requirements",
	"BudgetMin":             "budget_min",
	"BudgetMax":             "budget_max",
	"Embedding":             "embedding",
	"Sender":                "sender",
	"Message":               "message",
	"Offer":                 "offer",
	"Decision":              "decision",
	"Fit":                   "fit",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// Summary joins FormatValidationErrors into one line.
func Summary(err error) string {
	return strings.Join(FormatValidationErrors(err), "; ")
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at least %s item(s)", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		if e.Kind().String() == "slice" {
			return fmt.Sprintf("%s must contain at most %s item(s)", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", label, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(param), ", "))
	case "swipe_action":
		return fmt.Sprintf("%s must be like or dislike", label)
	case "swipe_role":
		return fmt.Sprintf("%s must be applicant or employer", label)
	case "skill":
		return fmt.Sprintf("%s contains an invalid skill name", label)
	case "no_emoji":
		return fmt.Sprintf("%s must not contain emoji", label)
	case "finite":
		return fmt.Sprintf("%s must be a finite number", label)
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", label, getFieldLabel(param))
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a UUID", label)
	default:
		return fmt.Sprintf("%s failed validation (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return fieldName
}
