package api

import (
	"fmt"
	"net/http"
)

// HTTPError is the JSON body of every non-2xx response.
type HTTPError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %d %s %s", e.StatusCode, e.Code, e.Message)
}

func messageOrDefault(msg, defaultMsg string) string {
	if msg != "" {
		return msg
	}
	return defaultMsg
}

func ErrBadRequest(msg string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusBadRequest, Code: "BAD_REQUEST", Message: messageOrDefault(msg, "Bad request")}
}

func ErrNotFound(msg string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusNotFound, Code: "NOT_FOUND", Message: messageOrDefault(msg, "Not found")}
}

// ErrNoRoute is returned when the engine produced an empty quote.
func ErrNoRoute() *HTTPError {
	return &HTTPError{StatusCode: http.StatusNotFound, Code: "NO_ROUTE", Message: "No route found for the requested pair"}
}

func ErrTimeout(msg string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusGatewayTimeout, Code: "TIMEOUT", Message: messageOrDefault(msg, "Request timed out")}
}

func ErrInternal(msg string) *HTTPError {
	return &HTTPError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: messageOrDefault(msg, "Internal server error")}
}
