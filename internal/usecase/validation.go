package usecase

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors joins field errors into a single DomainError.
func ValidationErrors(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
	}
}

func ValidateCreateInquiryInput(input CreateInquiryInput) []ValidationError {
	var errors []ValidationError

	errors = append(errors, requiredLength("firstName", input.FirstName, 100)...)
	errors = append(errors, requiredLength("lastName", input.LastName, 100)...)

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if utf8.RuneCountInString(input.Email) > 255 {
		errors = append(errors, ValidationError{"email", "must not exceed 255 characters"})
	} else if !IsValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if input.Phone != nil && utf8.RuneCountInString(*input.Phone) > 50 {
		errors = append(errors, ValidationError{"phone", "must not exceed 50 characters"})
	}

	errors = append(errors, requiredLength("message", input.Message, 5000)...)

	if input.SourceURL != nil && utf8.RuneCountInString(*input.SourceURL) > 2000 {
		errors = append(errors, ValidationError{"sourceUrl", "must not exceed 2000 characters"})
	}

	return errors
}

func ValidateLoginInput(email, password string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if utf8.RuneCountInString(email) > 255 || !IsValidEmail(email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	n := utf8.RuneCountInString(password)
	if n < 6 {
		errors = append(errors, ValidationError{"password", "must have at least 6 characters"})
	} else if n > 200 {
		errors = append(errors, ValidationError{"password", "must not exceed 200 characters"})
	}

	return errors
}

// IsValidEmail accepts a bare address only, not "Name <addr>", whose domain
// has at least two labels and an alphabetic top-level label.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	labels := strings.Split(email[strings.LastIndex(email, "@")+1:], ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if l == "" || strings.HasPrefix(l, "-") || strings.HasSuffix(l, "-") {
			return false
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func requiredLength(field, value string, max int) []ValidationError {
	if strings.TrimSpace(value) == "" {
		return []ValidationError{{field, "is required"}}
	}
	if utf8.RuneCountInString(value) > max {
		return []ValidationError{{field, fmt.Sprintf("must not exceed %d characters", max)}}
	}
	return nil
}
