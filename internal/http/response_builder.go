package http

import (
	"encoding/json"
	"net/http"
)

// JSONResponseBuilder assembles a JSON object response. Mutations answer
// with a human "message" next to the affected entity.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    map[string]any
}

func NewResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		payload:    make(map[string]any),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	return b.With("message", msg)
}

func (b *JSONResponseBuilder) With(key string, value any) *JSONResponseBuilder {
	b.payload[key] = value
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// ErrorResponse builds {"error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewResponse().Status(statusCode).With("error", message)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationFailed names the offending field when there is one.
func ValidationFailed(field, message string) *JSONResponseBuilder {
	b := ErrorResponse(http.StatusUnprocessableEntity, message)
	if field != "" {
		b.With("field", field)
	}
	return b
}

func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not found.")
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func ForbiddenError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusForbidden, message)
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error.")
}
