package errors

import "fmt"

// AppError is a typed pipeline error carrying the taxonomy code from
// spec §7 and whether it should abort the run (Fatal) or be logged and
// skipped at its natural granularity (record, batch, dataset, file).
type AppError struct {
	Code    string
	Message string
	Details map[string]interface{}
	Fatal   bool
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, fatal bool) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Fatal:   fatal,
		Details: make(map[string]interface{}),
	}
}

func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// Wrap attaches a taxonomy code to an underlying error without losing
// its message, for the common "this SQL error is a miss, not a crash"
// case in the identity resolver's cascade.
func Wrap(code string, fatal bool, err error) *AppError {
	return New(code, err.Error(), fatal)
}
