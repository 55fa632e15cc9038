package leads

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicatePhone is returned by repositories when the phone unique index rejects an insert
	ErrDuplicatePhone = errors.New("lead phone already exists")
)

const (
	msgInvalidSubmission = "Invalid data. Please check the form."
	msgDuplicatePhone    = "Duplicate phone number."
	msgPhoneTaken        = "A lead with this phone already exists."
	msgCreateFailed      = "Database error: Failed to create buyer lead."
)

// FieldErrors maps a submission field to its ordered error messages.
type FieldErrors map[string][]string

// Add appends a message to a field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Fields returns the failing field names in sorted order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for field := range f {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// ValidationError is a caller-correctable rejection of a submission.
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Message + " (" + strings.Join(e.Fields.Fields(), ", ") + ")"
}

// IsDuplicatePhone reports whether the rejection is the duplicate-phone case.
func (e *ValidationError) IsDuplicatePhone() bool {
	for _, msg := range e.Fields["phone"] {
		if msg == msgPhoneTaken {
			return true
		}
	}
	return false
}

func duplicatePhoneError() *ValidationError {
	return &ValidationError{
		Message: msgDuplicatePhone,
		Fields:  FieldErrors{"phone": {msgPhoneTaken}},
	}
}

// ServiceError hides storage detail behind a message that is safe to show callers.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
