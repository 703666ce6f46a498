package conversation

import "github.com/google/uuid"

// Envelope pairs a payload with the interlocutors who must receive it.
// It lives only for the duration of one accept -> publish -> persist pipeline.
type Envelope[T any] struct {
	Payload    T           `json:"payload"`
	Recipients []uuid.UUID `json:"recipients"`
}

// Wrap addresses payload to the given recipients.
func Wrap[T any](payload T, recipients []uuid.UUID) Envelope[T] {
	return Envelope[T]{Payload: payload, Recipients: recipients}
}
