package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
	"github.com/Tomlord1122/todo-items/internal/repository"
)

// Error codes carried in the error response body.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeInvalidRequest = "INVALID_REQUEST"
	codeNotFound       = "NOT_FOUND"
	codeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details []domain.FieldError `json:"details,omitempty"`
}

// respondWithServiceError maps err onto a status code and error body.
// Unknown errors are logged and reported as 500 without detail.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *domain.ValidationError
	var filterErr *domain.FilterError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, codeValidation, "validation failed", validationErr.Fields...)
	case errors.As(err, &filterErr):
		respondWithError(w, http.StatusBadRequest, codeValidation, "invalid filter",
			domain.FieldError{Field: filterErr.Path, Issue: filterErr.Reason})
	case errors.Is(err, domain.ErrTitleRequired):
		respondWithError(w, http.StatusBadRequest, codeValidation, "validation failed",
			domain.FieldError{Field: "title", Issue: "is required"})
	case errors.Is(err, domain.ErrContentRequired):
		respondWithError(w, http.StatusBadRequest, codeValidation, "validation failed",
			domain.FieldError{Field: "content", Issue: "is required"})
	case errors.Is(err, domain.ErrInvalidStatus):
		respondWithError(w, http.StatusBadRequest, codeValidation, "validation failed",
			domain.FieldError{Field: "status", Issue: "must be one of ACTIVE, INACTIVE, DELETED"})
	case errors.Is(err, domain.ErrValidation):
		respondWithError(w, http.StatusBadRequest, codeValidation, err.Error())

	case errors.Is(err, domain.ErrTodoNotFound):
		respondWithError(w, http.StatusNotFound, codeNotFound, "todo not found")
	case errors.Is(err, domain.ErrItemNotFound):
		respondWithError(w, http.StatusNotFound, codeNotFound, "item not found")

	default:
		slog.ErrorContext(r.Context(), "Internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, codeInternal, "an internal error occurred")
	}
}

func respondWithError(w http.ResponseWriter, status int, code, message string, details ...domain.FieldError) {
	respondWithJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Error marshaling JSON response", "error", err)
		writeMarshalFailure(w)
		return
	}
	writeJSON(w, code, response)
}

// respondWithProjection writes payload with the field projection of f
// applied. Relation keys are kept whatever the projection says.
func respondWithProjection(w http.ResponseWriter, r *http.Request, code int, payload any, f *filter.Filter) {
	response, err := json.Marshal(payload)
	if err == nil {
		response, err = project(response, f)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Error marshaling JSON response", "error", err)
		writeMarshalFailure(w)
		return
	}
	writeJSON(w, code, response)
}

func writeJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeMarshalFailure(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error preparing response"}}`))
}

var relationKeys = map[string]bool{
	repository.RelationItems: true,
	repository.RelationTodo:  true,
}

// project removes the keys f.Fields excludes from a JSON object or array of
// objects, then recurses into included relations with their scope.
func project(raw []byte, f *filter.Filter) ([]byte, error) {
	if !needsProjection(f) {
		return raw, nil
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, err
		}
		for i := range elems {
			projected, err := projectObject(elems[i], f)
			if err != nil {
				return nil, err
			}
			elems[i] = projected
		}
		return json.Marshal(elems)
	}
	return projectObject(trimmed, f)
}

func projectObject(raw []byte, f *filter.Filter) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return raw, nil
	}

	for key, value := range obj {
		if !relationKeys[key] {
			if !f.Fields.Keep(key) {
				delete(obj, key)
			}
			continue
		}
		if scope, ok := f.IncludeScope(key); ok {
			projected, err := project(value, scope)
			if err != nil {
				return nil, err
			}
			obj[key] = projected
		}
	}
	return json.Marshal(obj)
}

func needsProjection(f *filter.Filter) bool {
	if f == nil {
		return false
	}
	if len(f.Fields) > 0 {
		return true
	}
	for _, inc := range f.Include {
		if needsProjection(inc.Scope) {
			return true
		}
	}
	return false
}
