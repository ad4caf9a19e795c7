package service

import "strings"

// Validation failures target a specific form field. The field keys are
// part of the wire contract consumed by the front end.
const (
	FieldUsername        = "usernameMsg"
	FieldPassword        = "passwordMsg"
	FieldEmail           = "emailMsg"
	FieldCode            = "codeMsg"
	FieldOldPassword     = "oldPasswordMsg"
	FieldNewPassword     = "newPasswordMsg"
	FieldConfirmPassword = "confirmPasswordMsg"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is the validation-failure variant of an operation
// result: an ordered field→message list. It is returned as an error
// but is not fatal; callers unpack it with errors.As.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for a field, or "" when the field is clean.
func (e FieldErrors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Map flattens the list for JSON rendering.
func (e FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

func fieldError(field, message string) FieldErrors {
	return FieldErrors{{Field: field, Message: message}}
}
