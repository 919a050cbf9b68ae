package foundation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

// Validator checks one value and reports every problem it finds.
type Validator[T any] func(T) ValidationResult

// ValidationResult collects field failures. Valid is true when there are none.
type ValidationResult struct {
	Valid  bool
	Errors []FieldError
}

// FieldError is one failed check. Codes follow the dashboard's client-side
// validator (too_small, too_big, invalid_string, invalid_type).
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (fe FieldError) Error() string {
	if fe.Field == "" {
		return fe.Message
	}
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// FieldProblem is how a FieldError appears in API responses.
type FieldProblem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func Valid() ValidationResult { return ValidationResult{Valid: true} }

func Invalid(errs ...FieldError) ValidationResult { return ValidationResult{Errors: errs} }

func NewValidationError(field, code, message string) FieldError {
	return FieldError{Field: field, Code: code, Message: message}
}

// Combine returns the failures of both results.
func (vr ValidationResult) Combine(other ValidationResult) ValidationResult {
	if vr.Valid && other.Valid {
		return Valid()
	}
	return Invalid(append(append([]FieldError(nil), vr.Errors...), other.Errors...)...)
}

// ToError is ToErrorWithMessage using the first failure's message.
func (vr ValidationResult) ToError() error {
	return vr.ToErrorWithMessage("")
}

// ToErrorWithMessage returns nil for a valid result, otherwise a validation
// error whose context lists every failure under errors.ContextKeyFieldErrors.
func (vr ValidationResult) ToErrorWithMessage(message string) error {
	if vr.Valid {
		return nil
	}
	problems := make([]FieldProblem, len(vr.Errors))
	for i, fe := range vr.Errors {
		problems[i] = FieldProblem{Path: fe.Field, Message: fe.Message}
	}
	if message == "" && len(problems) > 0 {
		message = problems[0].Message
	}
	if message == "" {
		message = "validation failed"
	}
	return errors.ValidationError(message).
		WithContext(errors.ContextKeyFieldErrors, problems).
		Build()
}

// All runs every validator and combines their results.
func All[T any](validators ...Validator[T]) Validator[T] {
	return func(v T) ValidationResult {
		res := Valid()
		for _, validate := range validators {
			res = res.Combine(validate(v))
		}
		return res
	}
}

func rule[T any](field, code, message string, ok func(T) bool) Validator[T] {
	return func(v T) ValidationResult {
		if ok(v) {
			return Valid()
		}
		return Invalid(NewValidationError(field, code, message))
	}
}

// MinLength requires at least n runes.
func MinLength(field string, n int) Validator[string] {
	return rule(field, "too_small", fmt.Sprintf("String must contain at least %d character(s)", n),
		func(s string) bool { return utf8.RuneCountInString(s) >= n })
}

// MaxLength allows at most n runes.
func MaxLength(field string, n int) Validator[string] {
	return rule(field, "too_big", fmt.Sprintf("String must contain at most %d character(s)", n),
		func(s string) bool { return utf8.RuneCountInString(s) <= n })
}

func Matches(field string, re *regexp.Regexp, message string) Validator[string] {
	return rule(field, "invalid_string", message, re.MatchString)
}

// NotOneOf rejects any of values, ignoring case.
func NotOneOf(field, message string, values ...string) Validator[string] {
	return rule(field, "invalid_string", message, func(s string) bool {
		for _, v := range values {
			if strings.EqualFold(s, v) {
				return false
			}
		}
		return true
	})
}

// Email accepts a bare address without display name.
func Email(field string) Validator[string] {
	return rule(field, "invalid_string", "Invalid email", func(s string) bool {
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s
	})
}

// URL accepts absolute http and https URLs with a host.
func URL(field string) Validator[string] {
	return rule(field, "invalid_string", "Invalid url", func(s string) bool {
		u, err := url.Parse(strings.TrimSpace(s))
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})
}

func NonNegative(field string) Validator[int] {
	return rule(field, "too_small", "Number must be greater than or equal to 0",
		func(n int) bool { return n >= 0 })
}
