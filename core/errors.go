package core

import "github.com/pkg/errors"

var ErrConcurrencyConflict = errors.New("operação concorrente em conflito, tente novamente")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	message string
}

func NewNotFoundError(msg string) error {
	return &NotFoundError{message: msg}
}

func (e NotFoundError) Error() string {
	return e.message
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// RuleViolation is implemented by errors that report a broken business rule.
type RuleViolation interface {
	error
	RuleViolation()
}

type ruleError struct {
	message string
}

func NewRuleError(msg string) error {
	return &ruleError{message: msg}
}

func (e ruleError) Error() string { return e.message }
func (ruleError) RuleViolation()  {}

func IsRuleViolation(err error) bool {
	_, ok := errors.Cause(err).(RuleViolation)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
