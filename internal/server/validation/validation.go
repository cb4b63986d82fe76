// Package validation checks client-supplied user fields before they reach
// the repository. Every failure is an ErrorValidation-kinded common.Error.
package validation

import (
	"strings"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/emails"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/server/passwords"
)

var (
	ErrMissingBody   = common.Validation("missing_body", "user data is required")
	ErrMissingFields = common.Validation("missing_fields", "name, email and password are required")
	ErrEmptyName     = common.Validation("empty_name", "name must not be empty")
	ErrInvalidEmail  = common.Validation("invalid_email", "invalid email format")
	ErrNoFields      = common.Validation("no_fields", "at least one field (name, email or password) must be provided")
	ErrInvalidID     = common.Validation("invalid_id", "id is required")
)

// Rules holds the validation switches that come from configuration.
type Rules struct {
	// RequirePassword makes password mandatory on create. When false a
	// password may be omitted, but one that is supplied must still pass the
	// policy.
	RequirePassword bool
}

// ValidateCreate checks the fields of a new user.
func (r Rules) ValidateCreate(in *models.UserInput) error {
	if in == nil {
		return ErrMissingBody
	}
	if blank(in.Name) || blank(in.Email) || (r.RequirePassword && blank(in.Password)) {
		if r.RequirePassword {
			return ErrMissingFields
		}
		return common.Validation("missing_fields", "name and email are required")
	}

	if err := ValidateName(*in.Name); err != nil {
		return err
	}
	if err := ValidateEmail(*in.Email); err != nil {
		return err
	}
	if !blank(in.Password) {
		return ValidatePassword(*in.Password)
	}
	return nil
}

// ValidateUpdate checks a partial update. At least one field must carry a
// value; only supplied fields are validated.
func (r Rules) ValidateUpdate(in *models.UserInput) error {
	if in == nil {
		return ErrMissingBody
	}
	if blank(in.Name) && blank(in.Email) && blank(in.Password) {
		return ErrNoFields
	}

	if in.Name != nil {
		if err := ValidateName(*in.Name); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := ValidateEmail(*in.Email); err != nil {
			return err
		}
	}
	if in.Password != nil {
		if err := ValidatePassword(*in.Password); err != nil {
			return err
		}
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emails.IsValidFormat(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword returns a weak_password error listing every unmet
// criterion.
func ValidatePassword(password string) error {
	d := passwords.Check(password)
	if !d.Valid {
		return common.Validation("weak_password", d.Message)
	}
	return nil
}

func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return nil
}

// Sanitize returns the supplied fields with name trimmed and email
// normalized. The password is passed through as-is.
func Sanitize(in models.UserInput) models.UserInput {
	var out models.UserInput
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		out.Name = &name
	}
	if in.Email != nil {
		email := emails.Normalize(*in.Email)
		out.Email = &email
	}
	if in.Password != nil {
		pw := *in.Password
		out.Password = &pw
	}
	return out
}

func blank(s *string) bool {
	return s == nil || *s == ""
}
