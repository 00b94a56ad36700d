package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("not authorized for this lead")
	ErrNotFound      = errors.New("lead not found")
	ErrConflict      = errors.New("a stage change is already in flight for this lead")
	ErrTransition    = errors.New("invalid stage transition")
	ErrNetwork       = errors.New("upstream unreachable")
	ErrRemote        = errors.New("upstream rejected the request")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field problem of one candidate lead.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Error())
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// MutationError describes a rejected or failed stage change.
// RolledBack is set when an optimistic value had been applied and was reverted.
type MutationError struct {
	Op         string
	LeadID     int
	Kind       error
	Err        error
	RolledBack bool
}

func (e *MutationError) Error() string {
	msg := fmt.Sprintf("%s lead %d: %v", e.Op, e.LeadID, e.Kind)
	if e.Err != nil && e.Err != e.Kind {
		msg += ": " + e.Err.Error()
	}
	if e.RolledBack {
		msg += " (rolled back)"
	}
	return msg
}

func (e *MutationError) Unwrap() []error {
	if e.Err == nil || e.Err == e.Kind {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(op string, leadID int, kind error) *MutationError {
	return &MutationError{Op: op, LeadID: leadID, Kind: kind}
}

func Wrap(op string, leadID int, kind, err error) *MutationError {
	return &MutationError{Op: op, LeadID: leadID, Kind: kind, Err: err}
}

// Kind reports which sentinel err matches, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation, ErrAuthorization, ErrNotFound, ErrConflict,
		ErrTransition, ErrNetwork, ErrRemote,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Retryable reports whether repeating the same request may succeed without the caller
// changing anything.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRemote) || errors.Is(err, ErrConflict)
}

func RolledBack(err error) bool {
	var me *MutationError
	return errors.As(err, &me) && me.RolledBack
}
