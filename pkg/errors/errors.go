package messagebox_errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = errors.New("already exists")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// MembershipError signals that an inbound event references a user who is not
// an interlocutor of the target conversation. Events failing this way are
// poison relative to current conversation state and are never retried.
type MembershipError struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("user %s does not belong to conversation %s", e.UserID, e.ConversationID)
}

// IsMembership reports whether err is a MembershipError.
func IsMembership(err error) bool {
	var me *MembershipError
	return errors.As(err, &me)
}

// StorageError wraps a failed or partially applied write group. The engine
// does not retry; callers own the retry policy.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("storage: %s failed", e.Op)
	}
	return fmt.Sprintf("storage: %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError wraps cause with the failing operation name.
func NewStorageError(op string, cause error) error {
	return &StorageError{Op: op, Cause: cause}
}
