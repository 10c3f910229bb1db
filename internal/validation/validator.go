package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/classifieds-import-api/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validator applies the bulk-import rules to one session's rows. All
// errors are collected, not just the first per row.
type Validator struct {
	// case-folded email -> row index of first occurrence
	seenEmails map[string]int
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		seenEmails: make(map[string]int),
	}
}

// ValidateRow applies the per-row checks in order: required values, email
// format, role membership. Duplicate detection is a whole-session pass,
// see FlagDuplicateEmails.
func (v *Validator) ValidateRow(row models.RawRow) []models.RowError {
	var errors []models.RowError

	for _, field := range models.RequiredFields {
		if strings.TrimSpace(row.Values[field]) == "" {
			errors = append(errors, models.RowError{
				Row:     row.Index,
				Field:   field,
				Message: fmt.Sprintf("%s is required", field),
			})
		}
	}

	if email := strings.TrimSpace(row.Values["email"]); email != "" && !emailRegex.MatchString(email) {
		errors = append(errors, models.RowError{
			Row:     row.Index,
			Field:   "email",
			Message: "invalid email format",
		})
	}

	if role := strings.TrimSpace(row.Values["role"]); role != "" && !models.AllowedRoles[strings.ToLower(role)] {
		errors = append(errors, models.RowError{
			Row:     row.Index,
			Field:   "role",
			Message: fmt.Sprintf("invalid role, must be one of: %s", strings.Join(models.AllowedRolesList, ", ")),
		})
	}

	return errors
}

// FlagDuplicateEmails runs the duplicate-email check across the whole row
// set. Emails are compared case-folded; every occurrence after the first
// is flagged on its own row.
func (v *Validator) FlagDuplicateEmails(rows []models.RawRow) []models.RowError {
	var errors []models.RowError

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.Values["email"]))
		if email == "" {
			continue
		}
		if first, seen := v.seenEmails[email]; seen {
			errors = append(errors, models.RowError{
				Row:     row.Index,
				Field:   "email",
				Message: fmt.Sprintf("duplicate email, first used on row %d", first),
			})
			continue
		}
		v.seenEmails[email] = row.Index
	}

	return errors
}

// ValidateSession applies the per-row checks to every row, then the
// whole-session duplicate pass. Errors are ordered per-row first, then
// duplicates in file order.
func ValidateSession(rows []models.RawRow) []models.RowError {
	v := NewValidator()

	var errors []models.RowError
	for _, row := range rows {
		errors = append(errors, v.ValidateRow(row)...)
	}
	errors = append(errors, v.FlagDuplicateEmails(rows)...)

	return errors
}
