package speech

import (
	"errors"
	"net/http"
)

var (
	ErrTranscription = errors.New("transcription failed")
	ErrSynthesis     = errors.New("synthesis failed")
)

// Error — ошибка речевого шлюза. Reason безопасно отдавать клиенту,
// Cause уходит только в логи.
type Error struct {
	Kind   error
	Reason string
	Status int
	Cause  error
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func transcriptionError(status int, reason string, cause error) *Error {
	return &Error{Kind: ErrTranscription, Reason: reason, Status: status, Cause: cause}
}

func synthesisError(status int, reason string, cause error) *Error {
	return &Error{Kind: ErrSynthesis, Reason: reason, Status: status, Cause: cause}
}

// StatusOf — HTTP-статус для любой ошибки шлюза
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
