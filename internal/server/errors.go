package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Zuo-Peng/wachat-insights/internal/archive"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
)

type ErrorCode string

const (
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorTooLarge        ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrorInvalidArchive  ErrorCode = "INVALID_ARCHIVE"
	ErrorInvalidEncoding ErrorCode = "INVALID_ENCODING"
	ErrorInvalidDate     ErrorCode = "INVALID_DATE"
	ErrorUnknownSender   ErrorCode = "UNKNOWN_SENDER"
	ErrorNotFound        ErrorCode = "NOT_FOUND"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("server: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("server: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

func (c ErrorCode) Status() int {
	switch c {
	case ErrorInvalidInput:
		return http.StatusBadRequest
	case ErrorTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorInvalidArchive, ErrorInvalidEncoding, ErrorInvalidDate:
		return http.StatusUnprocessableEntity
	case ErrorUnknownSender, ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// classify maps pipeline errors onto API errors.
func classify(err error) *Error {
	var (
		apiErr    *Error
		formatErr *archive.FormatError
		decodeErr *archive.DecodeError
		dateErr   *parse.DateFormatError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &sizeErr):
		return newError(ErrorTooLarge, fmt.Sprintf("upload exceeds %d bytes", sizeErr.Limit), err)
	case errors.As(err, &formatErr):
		return newError(ErrorInvalidArchive, "upload is not a chat export archive", err)
	case errors.As(err, &decodeErr):
		return newError(ErrorInvalidEncoding, "chat text is not valid UTF-8", err)
	case errors.As(err, &dateErr):
		return newError(ErrorInvalidDate, "a message date is not day/month/year", err)
	case errors.Is(err, report.ErrUnknownSender):
		return newError(ErrorUnknownSender, "no such sender in this chat", err)
	default:
		return newError(ErrorInternal, "internal error", err)
	}
}

type errorBody struct {
	Error   ErrorCode `json:"error"`
	Message string    `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := classify(err)
	status := e.Code.Status()
	msg := e.Reason
	if e.Err != nil && status < http.StatusInternalServerError {
		msg = e.Err.Error()
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: e.Code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}
